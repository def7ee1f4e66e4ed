// Package restyutil wraps resty requests with the retry behavior shared
// by every network operation in the scraper: exponential backoff on
// transient failures, a doubled delay after rate limiting, and an
// immediate clean return on 404.
package restyutil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAttempts  = 5
	DefaultBaseDelay = 2 * time.Second
)

type RetryPolicy struct {
	// Attempts is the total number of tries, not the number of retries.
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	return p
}

// Do runs send until it produces a usable response or the policy is
// exhausted, in which case the last underlying error is returned.
//
// A 404 response is a normal negative outcome: it is returned
// immediately without consuming a retry attempt, and it is the caller's
// job to decide what not-found means. 429 doubles the delay before the
// next attempt on top of the regular backoff. Any other 4xx/5xx status
// counts as a failed attempt.
func Do(ctx context.Context, policy RetryPolicy, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	policy = policy.normalized()
	delay := policy.BaseDelay

	var lastErr error
	for attempt := 1; ; attempt++ {
		res, err := send(ctx)
		if err == nil {
			code := res.StatusCode()
			switch {
			case code == http.StatusNotFound:
				return res, nil
			case code == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("rate limited: %s", res.Status())
				delay *= 2
			case code >= 400:
				lastErr = fmt.Errorf("unexpected status: %s", res.Status())
			default:
				return res, nil
			}
		} else {
			lastErr = err
		}

		if attempt >= policy.Attempts {
			return nil, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
