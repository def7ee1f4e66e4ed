package restyutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func testClient() *resty.Client {
	return resty.New().SetTimeout(5 * time.Second)
}

func TestDoNotFoundReturnsImmediately(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient()
	res, err := Do(context.Background(), RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond},
		func(ctx context.Context) (*resty.Response, error) {
			return client.R().SetContext(ctx).Get(server.URL)
		})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode())
	require.Equal(t, int64(1), hits.Load(), "a 404 must not be retried")
}

func TestDoRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := testClient()
	res, err := Do(context.Background(), RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond},
		func(ctx context.Context) (*resty.Response, error) {
			return client.R().SetContext(ctx).Get(server.URL)
		})
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
	require.Equal(t, int64(3), hits.Load())
}

func TestDoRateLimitDoublesDelay(t *testing.T) {
	var mu sync.Mutex
	var hitTimes []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hitTimes = append(hitTimes, time.Now())
		hit := len(hitTimes)
		mu.Unlock()
		if hit < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := testClient()
	res, err := Do(context.Background(), RetryPolicy{Attempts: 5, BaseDelay: 10 * time.Millisecond},
		func(ctx context.Context) (*resty.Response, error) {
			return client.R().SetContext(ctx).Get(server.URL)
		})
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hitTimes, 3)
	firstWait := hitTimes[1].Sub(hitTimes[0])
	secondWait := hitTimes[2].Sub(hitTimes[1])
	require.GreaterOrEqual(t, firstWait, 20*time.Millisecond, "first 429 must double the base delay")
	require.Greater(t, secondWait, firstWait, "each 429 must lengthen the next wait")
}

func TestDoExhaustionPropagatesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient()
	_, err := Do(context.Background(), RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond},
		func(ctx context.Context) (*resty.Response, error) {
			return client.R().SetContext(ctx).Get(server.URL)
		})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
}
