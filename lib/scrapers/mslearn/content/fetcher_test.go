package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestPageNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fetcher := testFetcher(t)
	_, err := fetcher.Page(context.Background(), server.URL+"/missing", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPageCacheAvoidsRefetch(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<main>cached page</main>")
	}))
	t.Cleanup(server.Close)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fetcher := NewFetcher(FetcherOptions{
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		Cache:         db,
	})

	first, err := fetcher.Page(context.Background(), server.URL+"/unit", false)
	require.NoError(t, err)
	second, err := fetcher.Page(context.Background(), server.URL+"/unit", false)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), hits.Load())
}

func TestImageSendsReferer(t *testing.T) {
	var gotReferer atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer.Store(r.Header.Get("Referer"))
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	t.Cleanup(server.Close)

	fetcher := testFetcher(t)
	data, err := fetcher.Image(context.Background(), server.URL+"/img.png", "https://learn.microsoft.com/unit")
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	require.Equal(t, "https://learn.microsoft.com/unit", gotReferer.Load())
}

func TestImageExhaustionReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	fetcher := testFetcher(t)
	_, err := fetcher.Image(context.Background(), server.URL+"/img.png", "")
	require.Error(t, err)
}
