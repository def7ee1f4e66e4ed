// Package content fetches rendered learn pages, resolves the real
// content url of each unit and extracts the main content region out of
// the page markup.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"learndl/lib/restyutil"
	"learndl/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/mslearn/content")

// ErrNotFound is a clean negative fetch outcome: a 404 response or a
// recognized not-found page body.
var ErrNotFound = fmt.Errorf("page not found")

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type Fetcher struct {
	Http  *resty.Client
	Retry restyutil.RetryPolicy
	cache *pageCache
}

type FetcherOptions struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// Cache enables reuse of fetched pages across runs. nil disables
	// caching.
	Cache *badger.DB
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	client := resty.New()
	client.SetHeader("user-agent", browserUserAgent)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scrapers/mslearn/content/http")

	var cache *pageCache
	if opts.Cache != nil {
		cache = &pageCache{db: opts.Cache}
	}

	return &Fetcher{
		Http: client,
		Retry: restyutil.RetryPolicy{
			Attempts:  opts.RetryAttempts,
			BaseDelay: opts.RetryDelay,
		},
		cache: cache,
	}
}

// Page fetches a page body. A 404 response comes back as ErrNotFound
// without consuming retries. silent demotes failure logging to debug
// level for speculative probes.
func (f *Fetcher) Page(ctx context.Context, pageUrl string, silent bool) (string, error) {
	ctx, span := tracer.Start(ctx, "fetcher:Page")
	defer span.End()

	if f.cache != nil {
		if body, err := f.cache.get(ctx, pageUrl); err == nil {
			return string(body), nil
		}
	}

	res, err := restyutil.Do(ctx, f.Retry, func(ctx context.Context) (*resty.Response, error) {
		return f.Http.R().SetContext(ctx).Get(pageUrl)
	})
	if err != nil {
		if silent {
			slog.DebugContext(ctx, "failed to fetch page", "url", pageUrl, "err", err)
		} else {
			slog.WarnContext(ctx, "failed to fetch page", "url", pageUrl, "err", err)
		}
		return "", err
	}
	if res.StatusCode() == http.StatusNotFound {
		if !silent {
			slog.WarnContext(ctx, "page not found", "url", pageUrl)
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, pageUrl)
	}

	body := res.String()
	if f.cache != nil {
		if err := f.cache.set(ctx, pageUrl, []byte(body)); err != nil {
			slog.WarnContext(ctx, "failed to cache page", "url", pageUrl, "err", err)
		}
	}
	return body, nil
}

// Image downloads an image, sending the referring page url since some
// image hosts reject hot-linking without it. Exhausted retries surface
// as an error the caller treats as image-unavailable, not as fatal.
func (f *Fetcher) Image(ctx context.Context, imageUrl, referer string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "fetcher:Image")
	defer span.End()

	res, err := restyutil.Do(ctx, f.Retry, func(ctx context.Context) (*resty.Response, error) {
		req := f.Http.R().
			SetContext(ctx).
			SetHeader("accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
		if referer != "" {
			req.SetHeader("referer", referer)
		}
		return req.Get(imageUrl)
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, imageUrl)
	}
	return res.Body(), nil
}
