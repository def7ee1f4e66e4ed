// Package images materializes the distinct image set of an acquisition
// run onto disk and rewrites content references to the local copies.
package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"learndl/lib/scrapers/mslearn/content"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("scrapers/mslearn/images")

const DefaultConcurrency = 5

// Subdir is the directory under the output root that holds downloaded
// images; rewritten references point into it.
const Subdir = "images"

type Materializer struct {
	Fetcher     *content.Fetcher
	Concurrency int
}

// Download fetches every distinct image once with a bounded worker
// pool and returns the url → local path mapping. Already-materialized
// files are reused without a fetch, so re-running is a no-op beyond
// the first run. A failed image is logged and left out of the mapping;
// it never aborts its siblings.
func (m *Materializer) Download(ctx context.Context, refs []content.ImageRef, outputRoot string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "materializer:Download")
	defer span.End()

	distinct := dedupeByUrl(refs)
	span.SetAttributes(attribute.Int("distinct", len(distinct)))

	mapping := map[string]string{}
	if len(distinct) == 0 {
		return mapping, nil
	}

	imagesDir := filepath.Join(outputRoot, Subdir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, err
	}

	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	jobs := make(chan content.ImageRef)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				local, err := m.downloadOne(ctx, ref, imagesDir)
				if err != nil {
					slog.WarnContext(ctx, "failed to download image", "url", ref.Url, "err", err)
					continue
				}
				mu.Lock()
				mapping[ref.Url] = local
				mu.Unlock()
			}
		}()
	}

feed:
	for _, ref := range distinct {
		select {
		case jobs <- ref:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	slog.InfoContext(ctx, "downloaded images", "ok", len(mapping), "requested", len(distinct))
	return mapping, ctx.Err()
}

func (m *Materializer) downloadOne(ctx context.Context, ref content.ImageRef, imagesDir string) (string, error) {
	local := filepath.Join(imagesDir, Filename(ref.Url))

	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	data, err := m.Fetcher.Image(ctx, ref.Url, ref.Referer)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", err
	}
	return local, nil
}

// dedupeByUrl keeps the first ImageRef per absolute url, preserving
// order so the first referer seen is the one sent.
func dedupeByUrl(refs []content.ImageRef) []content.ImageRef {
	seen := map[string]struct{}{}
	var distinct []content.ImageRef
	for _, ref := range refs {
		if _, ok := seen[ref.Url]; ok {
			continue
		}
		seen[ref.Url] = struct{}{}
		distinct = append(distinct, ref)
	}
	return distinct
}

// Filename is a pure function of the url: the url path's base name
// sanitized to [a-zA-Z0-9_-], an 8-character hash of the full url for
// collision resistance, and the path's extension (defaulted to .png
// when absent or implausibly long).
func Filename(rawUrl string) string {
	urlPath := rawUrl
	if parsed, err := url.Parse(rawUrl); err == nil {
		urlPath = parsed.Path
	}

	ext := filepath.Ext(urlPath)
	stem := strings.TrimSuffix(filepath.Base(urlPath), ext)
	if ext == "" || len(ext) > 5 {
		ext = ".png"
	}

	sum := md5.Sum([]byte(rawUrl))
	hash := hex.EncodeToString(sum[:])[:8]

	sanitized := sanitizeName(stem)
	if sanitized == "" {
		return "image_" + hash + ext
	}
	return sanitized + "_" + hash + ext
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return b.String()
}
