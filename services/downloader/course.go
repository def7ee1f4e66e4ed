package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/scrapers/mslearn/content"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CourseResult tallies a course download: one learning path download
// per study guide entry, each written under a course subdirectory.
type CourseResult struct {
	Course    catalog.Entity
	OutputDir string

	PathsRequested int
	PathsDone      int
	Paths          []*Result
}

// DownloadCourse downloads every learning path a course references.
// By uid the paths come from the course's study guide; by url they are
// scraped off the course page itself. A failing path is logged and
// skipped, the rest of the course still downloads.
func (d *Downloader) DownloadCourse(ctx context.Context, req Request) (*CourseResult, error) {
	ctx, span := tracer.Start(ctx, "downloader:DownloadCourse")
	defer span.End()

	d.progress(ProgressEvent{Stage: StageResolving, Item: req.Uid + req.Url})

	var course catalog.Entity
	var pathUids []string
	var err error
	switch {
	case req.Uid != "":
		course, err = d.Catalog.CourseByUid(ctx, req.Uid)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		for _, item := range course.StudyGuide {
			if item.Type == "learningPath" {
				pathUids = append(pathUids, item.Uid)
			}
		}
		if len(pathUids) == 0 && course.Url != "" {
			pathUids, err = d.coursePageUids(ctx, course.Url)
			if err != nil {
				return nil, err
			}
		}
	case req.Url != "":
		course = catalog.Entity{Uid: courseIdFromUrl(req.Url), Url: req.Url}
		pathUids, err = d.coursePageUids(ctx, req.Url)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("either a uid or a url is required")
	}

	if len(pathUids) == 0 {
		return nil, fmt.Errorf("no learning paths found in course %s", course.Uid)
	}
	span.SetAttributes(attribute.Int("paths", len(pathUids)))
	slog.InfoContext(ctx, "found course", "uid", course.Uid, "paths", len(pathUids))

	result := &CourseResult{
		Course:         course,
		OutputDir:      filepath.Join(d.outputDir(req), course.Uid),
		PathsRequested: len(pathUids),
	}

	for i, uid := range pathUids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.progress(ProgressEvent{Stage: StageResolving, Item: uid, Done: i, Total: len(pathUids)})

		pathResult, err := d.DownloadLearningPath(ctx, Request{
			Uid:       uid,
			OutputDir: result.OutputDir,
			Formats:   req.Formats,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to download learning path of course", "uid", uid, "err", err)
			continue
		}
		result.PathsDone++
		result.Paths = append(result.Paths, pathResult)
	}

	if result.PathsDone == 0 {
		return nil, fmt.Errorf("no learning paths of course %s could be downloaded", course.Uid)
	}
	slog.InfoContext(ctx, "course download complete",
		"uid", course.Uid,
		"paths", fmt.Sprintf("%d/%d", result.PathsDone, result.PathsRequested))
	return result, nil
}

// Flatten folds the per-path results into one Result for callers that
// treat a course like any other downloadable item.
func (r *CourseResult) Flatten() *Result {
	out := &Result{Item: r.Course, OutputDir: r.OutputDir}
	for _, pathResult := range r.Paths {
		out.Files = append(out.Files, pathResult.Files...)
		out.Content = append(out.Content, pathResult.Content...)
		out.ModulesRequested += pathResult.ModulesRequested
		out.ModulesDone += pathResult.ModulesDone
		out.UnitsRequested += pathResult.UnitsRequested
		out.UnitsDone += pathResult.UnitsDone
	}
	return out
}

func (d *Downloader) coursePageUids(ctx context.Context, courseUrl string) ([]string, error) {
	pageHtml, err := d.Fetcher.Page(ctx, courseUrl, false)
	if err != nil {
		return nil, fmt.Errorf("fetching course page: %w", err)
	}
	return content.CourseLearningPathUids(pageHtml)
}

func courseIdFromUrl(rawUrl string) string {
	trimmed := strings.TrimSuffix(rawUrl, "/")
	if parsed, err := url.Parse(trimmed); err == nil {
		return path.Base(parsed.Path)
	}
	return path.Base(trimmed)
}
