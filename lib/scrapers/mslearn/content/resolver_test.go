package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"learndl/lib/scrapers/mslearn/catalog"

	"github.com/stretchr/testify/require"
)

func TestSlugCandidatesOrder(t *testing.T) {
	unit := catalog.Entity{
		Uid:   "learn.intro-module.flow-introduction",
		Title: "Introducing Power Automate",
	}
	candidates := SlugCandidates(unit, 3)

	require.Equal(t, []string{
		"3-flow-introduction",
		"3-introducing-power-automate",
		"flow-introduction",
		"introducing-power-automate",
		"3-introduction",
		"introduction",
	}, candidates)
}

func TestSlugCandidatesDeduplicates(t *testing.T) {
	// title slug equals the unit slug, and the prefix-cleaned variant
	// is identical too; each shows up once, first-seen position
	unit := catalog.Entity{
		Uid:   "learn.intro-module.summary",
		Title: "Summary",
	}
	require.Equal(t, []string{
		"2-summary",
		"summary",
		"2-introduction",
	}, SlugCandidates(unit, 2))
}

func TestSlugCandidatesRejectsShortUid(t *testing.T) {
	require.Nil(t, SlugCandidates(catalog.Entity{Uid: "learn.broken"}, 1))
}

func TestModuleUnitLinks(t *testing.T) {
	page := `<html><body><ul>
		<li class="module-unit" data-unit-uid="learn.mod.unit-a">
			<a class="unit-title" href="1-introduction">Introduction</a>
		</li>
		<li class="module-unit" data-unit-uid="learn.mod.unit-b">
			<a class="unit-title" href="2-setup">Set up</a>
		</li>
		<li class="module-unit"><a class="unit-title" href="ignored">no uid</a></li>
	</ul></body></html>`

	links := ModuleUnitLinks(page, "https://learn.microsoft.com/training/modules/mod?source=list")
	require.Equal(t, map[string]string{
		"learn.mod.unit-a": "https://learn.microsoft.com/training/modules/mod/1-introduction",
		"learn.mod.unit-b": "https://learn.microsoft.com/training/modules/mod/2-setup",
	}, links)
}

const notFoundBody = `<html><body><h1>404 - Page not found</h1></body></html>`

func testFetcher(t *testing.T) *Fetcher {
	return NewFetcher(FetcherOptions{
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})
}

func TestResolveUnitPrefersKnownUrl(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/modules/mod/known-slug" {
			fmt.Fprint(w, "<main><p>known content</p></main>")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	resolver := &Resolver{Fetcher: testFetcher(t)}
	unit := catalog.Entity{Uid: "learn.mod.unit-a", Title: "Unit A"}

	resolved, err := resolver.ResolveUnit(
		context.Background(),
		server.URL+"/modules/mod",
		unit, 1,
		server.URL+"/modules/mod/known-slug",
	)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/modules/mod/known-slug", resolved.Url)
	require.Contains(t, resolved.Html, "known content")
}

func TestResolveUnitFallsBackToLastCandidate(t *testing.T) {
	// candidates 1-3 return a soft 404 (HTTP 200 + marker body),
	// candidate 4 is a hard 404, the introduction fallback works
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/modules/mod/3-introduction":
			fmt.Fprint(w, "<main><p>real content at last</p></main>")
		case "/modules/mod/3-unit-d", "/modules/mod/3-final-unit", "/modules/mod/unit-d":
			fmt.Fprint(w, notFoundBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	resolver := &Resolver{Fetcher: testFetcher(t)}
	unit := catalog.Entity{Uid: "learn.mod.unit-d", Title: "Final unit"}

	resolved, err := resolver.ResolveUnit(context.Background(), server.URL+"/modules/mod", unit, 3, "")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/modules/mod/3-introduction", resolved.Url)

	// candidates: 3-unit-d, 3-final-unit, unit-d, final-unit,
	// 3-introduction. one request each, no retries burned on 404s
	require.Equal(t, int64(5), requests.Load())
}

func TestResolveUnitAllCandidatesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, notFoundBody)
	}))
	t.Cleanup(server.Close)

	resolver := &Resolver{Fetcher: testFetcher(t)}
	unit := catalog.Entity{Uid: "learn.mod.unit-x", Title: "Unit X"}

	_, err := resolver.ResolveUnit(context.Background(), server.URL+"/modules/mod", unit, 1, "")
	require.ErrorIs(t, err, ErrUnresolved)
}
