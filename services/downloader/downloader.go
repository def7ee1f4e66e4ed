// Package downloader drives the full acquisition pipeline: resolve
// the catalog tree, scrape every unit page, materialize images and
// write standalone documents.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/scrapers/mslearn/content"
	"learndl/lib/scrapers/mslearn/images"
	"learndl/services/downloader/render"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/downloader")

type Format string

const (
	FormatHtml     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Request identifies one item to download. Exactly one of Uid or Url
// must be set; a url containing /courses/ routes to the course flow.
type Request struct {
	Uid string
	Url string
	// falls back to storage.output_dir
	OutputDir string
	// empty means all formats
	Formats []Format
}

type ProgressStage string

const (
	StageResolving ProgressStage = "resolving"
	StageScraping  ProgressStage = "scraping"
	StageImages    ProgressStage = "images"
	StageRendering ProgressStage = "rendering"
)

type ProgressEvent struct {
	Stage ProgressStage
	// the module or unit currently being worked on
	Item  string
	Done  int
	Total int
}

// Result is the tally of one download run. A run that produced no
// content at all is reported as an error, never as an empty Result.
type Result struct {
	Item      catalog.Entity
	OutputDir string
	Files     []string

	// the normalized records handed to the document writers, in
	// presentation order
	Content []render.ModuleContent

	ModulesRequested int
	ModulesDone      int
	UnitsRequested   int
	UnitsDone        int
}

type Downloader struct {
	Config  Config
	Catalog *catalog.Client
	Fetcher *content.Fetcher
	Images  *images.Materializer

	// OnProgress, when set, receives pipeline progress events. It is
	// called from the control goroutine only.
	OnProgress func(ProgressEvent)
}

// New wires a downloader from config. cache may be nil to disable the
// page cache.
func New(config Config, cache *badger.DB) *Downloader {
	fetcher := content.NewFetcher(content.FetcherOptions{
		Timeout:       config.Api.TimeoutDuration(),
		RetryAttempts: config.Api.RetryAttempts,
		RetryDelay:    config.Api.RetryDelayDuration(),
		Cache:         cache,
	})
	return &Downloader{
		Config: config,
		Catalog: catalog.NewClient(catalog.ClientOptions{
			BaseUrl:       config.Api.BaseUrl,
			Locale:        config.Api.Locale,
			Timeout:       config.Api.TimeoutDuration(),
			RetryAttempts: config.Api.RetryAttempts,
			RetryDelay:    config.Api.RetryDelayDuration(),
		}),
		Fetcher: fetcher,
		Images: &images.Materializer{
			Fetcher:     fetcher,
			Concurrency: config.Download.MaxConcurrentDownloads,
		},
	}
}

func (d *Downloader) progress(e ProgressEvent) {
	if d.OnProgress != nil {
		d.OnProgress(e)
	}
}

func (d *Downloader) outputDir(req Request) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}
	if d.Config.Storage.OutputDir != "" {
		return d.Config.Storage.OutputDir
	}
	return "./downloads"
}

// DownloadLearningPath downloads one learning path by uid or url and
// writes the requested document formats. A url pointing at a course
// is handed over to DownloadCourse.
func (d *Downloader) DownloadLearningPath(ctx context.Context, req Request) (*Result, error) {
	if req.Url != "" && strings.Contains(req.Url, "/courses/") {
		courseResult, err := d.DownloadCourse(ctx, req)
		if err != nil {
			return nil, err
		}
		return courseResult.Flatten(), nil
	}

	ctx, span := tracer.Start(ctx, "downloader:DownloadLearningPath")
	defer span.End()

	d.progress(ProgressEvent{Stage: StageResolving, Item: req.Uid + req.Url})

	var path catalog.Entity
	var err error
	switch {
	case req.Uid != "":
		path, err = d.Catalog.LearningPathByUid(ctx, req.Uid)
	case req.Url != "":
		path, err = d.Catalog.LearningPathByUrl(ctx, req.Url)
	default:
		return nil, fmt.Errorf("either a uid or a url is required")
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if len(path.Modules) == 0 {
		span.SetStatus(codes.Error, "learning path has no modules")
		return nil, fmt.Errorf("no modules found for %s", path.Uid)
	}

	slog.InfoContext(ctx, "found learning path", "uid", path.Uid, "title", path.Title, "modules", path.NumberOfChildren)
	return d.downloadItem(ctx, path, req)
}

// DownloadModule downloads a single module by uid, wrapped as a one
// module document.
func (d *Downloader) DownloadModule(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "downloader:DownloadModule")
	defer span.End()

	if req.Uid == "" {
		return nil, fmt.Errorf("a module uid is required")
	}

	d.progress(ProgressEvent{Stage: StageResolving, Item: req.Uid})
	module, err := d.Catalog.ModuleByUid(ctx, req.Uid)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "found module", "uid", module.Uid, "title", module.Title)
	return d.downloadItem(ctx, module, req)
}

// downloadItem runs the shared pipeline for a learning path or a
// standalone module: modules → units → scrape → images → documents.
func (d *Downloader) downloadItem(ctx context.Context, item catalog.Entity, req Request) (*Result, error) {
	var modules []catalog.Entity
	if len(item.Modules) > 0 {
		fetched, err := d.Catalog.Modules(ctx, item)
		if err != nil {
			return nil, err
		}
		modules = fetched
	} else {
		// a standalone module is its own single-module tree
		modules = []catalog.Entity{item}
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules found for %s", item.Uid)
	}

	unitsByModule, err := d.Catalog.UnitsByModule(ctx, modules)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Item:             item,
		OutputDir:        d.outputDir(req),
		ModulesRequested: len(modules),
	}

	var moduleContent []render.ModuleContent
	var allImages []content.ImageRef
	for i, module := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.progress(ProgressEvent{Stage: StageScraping, Item: module.Title, Done: i, Total: len(modules)})

		units := unitsByModule[module.Uid]
		result.UnitsRequested += len(units)
		if len(units) == 0 {
			slog.WarnContext(ctx, "module has no units", "uid", module.Uid)
			continue
		}

		mc := d.scrapeModule(ctx, module, units)
		if len(mc.Units) == 0 {
			slog.WarnContext(ctx, "no units could be scraped for module", "uid", module.Uid)
			continue
		}

		result.ModulesDone++
		result.UnitsDone += len(mc.Units)
		for _, unit := range mc.Units {
			allImages = append(allImages, unit.Images...)
		}
		moduleContent = append(moduleContent, mc)
	}
	if len(moduleContent) == 0 {
		return nil, fmt.Errorf("no content could be downloaded for %s", item.Uid)
	}

	mapping := map[string]string{}
	if d.Config.Download.Images && len(allImages) > 0 {
		d.progress(ProgressEvent{Stage: StageImages, Total: len(allImages)})
		mapping, err = d.Images.Download(ctx, allImages, result.OutputDir)
		if err != nil {
			return nil, err
		}
	}
	if err := d.rewriteContent(moduleContent, mapping); err != nil {
		return nil, err
	}

	result.Content = moduleContent

	d.progress(ProgressEvent{Stage: StageRendering, Item: item.Title})
	if err := d.writeDocuments(result, moduleContent, req.Formats); err != nil {
		return nil, err
	}

	if d.Config.Cleanup.DeleteImages {
		imagesDir := filepath.Join(result.OutputDir, images.Subdir)
		if err := os.RemoveAll(imagesDir); err != nil {
			slog.WarnContext(ctx, "failed to clean up images directory", "dir", imagesDir, "err", err)
		}
	}

	slog.InfoContext(ctx, "download complete",
		"uid", item.Uid,
		"modules", fmt.Sprintf("%d/%d", result.ModulesDone, result.ModulesRequested),
		"units", fmt.Sprintf("%d/%d", result.UnitsDone, result.UnitsRequested))
	return result, nil
}

// scrapeModule resolves and extracts every unit of one module. Units
// that cannot be resolved or carry no recognizable content region are
// dropped; the survivors keep the module's presentation order.
func (d *Downloader) scrapeModule(ctx context.Context, module catalog.Entity, units []catalog.Entity) render.ModuleContent {
	ctx, span := tracer.Start(ctx, "downloader:scrapeModule")
	defer span.End()
	span.SetAttributes(attribute.String("uid", module.Uid))

	// the module's own page knows the real unit urls, probe it first
	knownUrls := map[string]string{}
	if module.Url != "" {
		pageHtml, err := d.Fetcher.Page(ctx, module.Url, true)
		if err != nil {
			slog.DebugContext(ctx, "failed to fetch module page for unit links", "url", module.Url, "err", err)
		} else {
			knownUrls = content.ModuleUnitLinks(pageHtml, module.Url)
		}
	}

	resolver := content.Resolver{Fetcher: d.Fetcher}
	mc := render.ModuleContent{Module: module}
	for i, unit := range units {
		d.progress(ProgressEvent{Stage: StageScraping, Item: unit.Title, Done: i, Total: len(units)})

		resolved, err := resolver.ResolveUnit(ctx, module.Url, unit, i+1, knownUrls[unit.Uid])
		if err != nil {
			slog.WarnContext(ctx, "failed to resolve unit", "uid", unit.Uid, "err", err)
			continue
		}

		region, ok := content.MainContent(resolved.Html)
		if !ok {
			slog.WarnContext(ctx, "no main content region", "url", resolved.Url)
			continue
		}
		regionHtml, err := content.RenderRegion(region)
		if err != nil {
			slog.WarnContext(ctx, "failed to serialize content region", "url", resolved.Url, "err", err)
			continue
		}

		mc.Units = append(mc.Units, render.UnitContent{
			Unit:   unit,
			Url:    resolved.Url,
			Html:   regionHtml,
			Text:   content.RegionText(region),
			Images: content.ExtractImages(region, resolved.Url),
		})
	}
	return mc
}

// rewriteContent converts every unit to markdown and points both
// markups at the local image copies. With an empty mapping the
// rewrites are no-ops and references stay remote.
func (d *Downloader) rewriteContent(moduleContent []render.ModuleContent, mapping map[string]string) error {
	for mi := range moduleContent {
		for ui := range moduleContent[mi].Units {
			unit := &moduleContent[mi].Units[ui]

			markdown, err := render.ToMarkdown(unit.Html)
			if err != nil {
				return fmt.Errorf("converting %s to markdown: %w", unit.Unit.Uid, err)
			}
			unit.Markdown = images.RewriteMarkdown(markdown, mapping, images.Subdir)

			rewritten, err := images.RewriteHtml(unit.Html, mapping, images.Subdir)
			if err != nil {
				return fmt.Errorf("rewriting %s: %w", unit.Unit.Uid, err)
			}
			unit.Html = rewritten
		}
	}
	return nil
}

func (d *Downloader) writeDocuments(result *Result, moduleContent []render.ModuleContent, formats []Format) error {
	if len(formats) == 0 {
		formats = []Format{FormatHtml, FormatMarkdown}
	}
	for _, format := range formats {
		var path string
		var err error
		switch format {
		case FormatHtml:
			path, err = render.WriteHtml(result.Item, moduleContent, result.OutputDir)
		case FormatMarkdown:
			path, err = render.WriteMarkdown(result.Item, moduleContent, result.OutputDir)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}
	return nil
}
