package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"learndl/lib/htmlutil"
	"learndl/lib/orderedset"
	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrUnresolved means no candidate url for a unit returned real
// content. The unit is dropped from output; the run continues.
var ErrUnresolved = fmt.Errorf("unit content url could not be resolved")

// ModuleUnitLinks harvests the unit link table from a module's own
// page: li.module-unit entries keyed by their data-unit-uid, hrefs
// resolved against the module url (query params stripped).
func ModuleUnitLinks(pageHtml, moduleUrl string) map[string]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return nil
	}

	base := strings.SplitN(moduleUrl, "?", 2)[0]
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	links := map[string]string{}
	doc.Find("li.module-unit").Each(func(_ int, li *goquery.Selection) {
		uid := li.AttrOr("data-unit-uid", "")
		href := li.Find("a.unit-title").AttrOr("href", "")
		if uid == "" || href == "" {
			return
		}
		if resolved := htmlutil.ResolveURL(base, href); resolved != "" {
			links[uid] = resolved
		}
	})
	return links
}

// unit slugs sometimes carry a product family prefix that the page url
// drops again
var productPrefixRegex = regexp.MustCompile(`^(flow|power-apps|canvas-apps|model-driven-apps)-`)

// SlugCandidates builds the ordered, de-duplicated list of path
// segments to probe for a unit, most likely first:
//
//	{ordinal}-{unit-slug}, {ordinal}-{title-slug}, {unit-slug},
//	{title-slug}, both prefix-cleaned variants, {ordinal}-introduction
//
// The unit slug is the trailing segment of the unit uid; a uid without
// one yields no candidates.
func SlugCandidates(unit catalog.Entity, ordinal int) []string {
	parts := strings.Split(unit.Uid, ".")
	if len(parts) < 3 {
		return nil
	}
	unitSlug := parts[len(parts)-1]
	titleSlug := textutil.Slugify(unit.Title)
	cleanedSlug := productPrefixRegex.ReplaceAllString(unitSlug, "")

	candidates := orderedset.New()
	add := func(c string) {
		if c != "" {
			candidates.Add(c)
		}
	}

	add(fmt.Sprintf("%d-%s", ordinal, unitSlug))
	if titleSlug != "" {
		add(fmt.Sprintf("%d-%s", ordinal, titleSlug))
	}
	add(unitSlug)
	add(titleSlug)
	add(fmt.Sprintf("%d-%s", ordinal, cleanedSlug))
	add(cleanedSlug)
	add(fmt.Sprintf("%d-introduction", ordinal))

	return candidates.Values()
}

type ResolvedUnit struct {
	Url  string
	Html string
}

type Resolver struct {
	Fetcher *Fetcher
}

// ResolveUnit maps a (module, unit) pair to a working content url.
// knownUrl, when non-empty, is the url harvested from the module page
// and is verified first; otherwise the slug candidates are probed in
// order against the module's base path. Probes run silent, and a page
// only counts when its body is not a synthesized not-found page.
func (r *Resolver) ResolveUnit(ctx context.Context, moduleUrl string, unit catalog.Entity, ordinal int, knownUrl string) (ResolvedUnit, error) {
	ctx, span := tracer.Start(ctx, "resolver:ResolveUnit")
	defer span.End()
	span.SetAttributes(attribute.String("uid", unit.Uid))

	if knownUrl != "" {
		body, err := r.Fetcher.Page(ctx, knownUrl, true)
		if err == nil && !IsNotFoundPage(body) {
			return ResolvedUnit{Url: knownUrl, Html: body}, nil
		}
	}

	candidates := SlugCandidates(unit, ordinal)
	if len(candidates) == 0 {
		span.SetStatus(codes.Error, "cannot derive slug from uid")
		return ResolvedUnit{}, fmt.Errorf("%w: cannot derive slug from uid %q", ErrUnresolved, unit.Uid)
	}

	base := strings.TrimSuffix(strings.SplitN(moduleUrl, "?", 2)[0], "/")
	for _, slug := range candidates {
		candidateUrl := base + "/" + slug
		body, err := r.Fetcher.Page(ctx, candidateUrl, true)
		if err != nil {
			continue
		}
		if IsNotFoundPage(body) {
			continue
		}
		span.SetAttributes(attribute.String("url", candidateUrl))
		return ResolvedUnit{Url: candidateUrl, Html: body}, nil
	}

	span.SetStatus(codes.Error, "all candidates exhausted")
	return ResolvedUnit{}, fmt.Errorf("%w: %s", ErrUnresolved, unit.Uid)
}
