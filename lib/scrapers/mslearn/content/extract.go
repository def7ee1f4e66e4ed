package content

import (
	"html"
	"strings"

	"learndl/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// mainContentSelectors is tried from most to least specific; the first
// match wins. Page layouts differ across content types, so the cascade
// has to end at bare landmarks.
var mainContentSelectors = []string{
	"main .content",
	"main article",
	`main [data-bi-name="content"], main [role="main"]`,
	"article",
	"main",
}

// chromeSelectors is everything that has no business in a standalone
// document: navigation, feedback widgets, bylines, banners and
// invisible or executable content.
var chromeSelectors = []string{
	"nav",
	"header",
	"footer",
	".nav",
	".navigation",
	".feedback",
	".page-metadata",
	".contributors",
	".alert-banner",
	`[data-bi-name="feedback"]`,
	".margin-note",
	".is-invisible",
	"script",
	"style",
}

// MainContent locates the main content region of a fetched page,
// flattens embedded quiz widgets into static markup and strips page
// chrome. ok is false when no selector matches; the caller skips the
// unit.
func MainContent(pageHtml string) (*goquery.Selection, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return nil, false
	}

	for _, selector := range mainContentSelectors {
		region := doc.Find(selector).First()
		if region.Length() == 0 {
			continue
		}
		flattenQuiz(region)
		for _, chrome := range chromeSelectors {
			region.Find(chrome).Remove()
		}
		return region, true
	}
	return nil, false
}

// flattenQuiz rewrites the hidden interactive quiz form into static
// markup: a heading per question followed by the list of choices and a
// separator.
func flattenQuiz(region *goquery.Selection) {
	form := region.Find("#question-container").First()
	if form.Length() == 0 {
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="formatted-quiz">`)
	form.Find(".quiz-question").Each(func(_ int, q *goquery.Selection) {
		title := q.Find(".quiz-question-title").First()
		if title.Length() == 0 {
			return
		}
		questionText := strings.TrimSpace(title.Find("p").First().Text())
		if questionText == "" {
			questionText = strings.TrimSpace(title.Text())
		}

		b.WriteString("<h3>Question: ")
		b.WriteString(html.EscapeString(questionText))
		b.WriteString("</h3><ul>")
		q.Find(".quiz-choice").Each(func(_ int, choice *goquery.Selection) {
			choiceText := strings.TrimSpace(choice.Find(".radio-label-text").First().Text())
			if choiceText == "" {
				return
			}
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(choiceText))
			b.WriteString("</li>")
		})
		b.WriteString("</ul><hr/>")
	})
	b.WriteString("</div>")

	form.ReplaceWithHtml(b.String())
}

// RenderRegion serializes the extracted region back to markup.
func RenderRegion(region *goquery.Selection) (string, error) {
	return goquery.OuterHtml(region)
}

// RegionText extracts the region's plain text with whitespace runs
// collapsed to single spaces.
func RegionText(region *goquery.Selection) string {
	var b strings.Builder
	for _, node := range region.Nodes {
		b.WriteString(htmlutil.GetText(node))
	}
	return htmlutil.CleanText(b.String())
}

// ImageRef is one content image found in an extracted region. Url is
// absolute; OriginalSrc is the reference exactly as it appeared in
// markup, which rewriting later matches against.
type ImageRef struct {
	Url         string
	Alt         string
	Width       string
	Height      string
	OriginalSrc string
	Referer     string
}

// image urls under these path markers are completion chrome, not
// content
var badgePathMarkers = []string{"/achievements/", "/badges/"}

// ExtractImages inventories the region's content images. Sources come
// from src with lazy-load fallbacks and are resolved against the page
// url. Decorative images (a presentation role) and badge art are
// dropped; an image with alt text, or with no role attribute at all,
// counts as content.
func ExtractImages(region *goquery.Selection, pageUrl string) []ImageRef {
	var images []ImageRef
	region.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src == "" {
			src = img.AttrOr("data-original", "")
		}
		if src == "" {
			return
		}

		absolute := htmlutil.ResolveURL(pageUrl, src)
		if absolute == "" {
			return
		}
		for _, marker := range badgePathMarkers {
			if strings.Contains(absolute, marker) {
				return
			}
		}

		role := img.AttrOr("role", "")
		alt := img.AttrOr("alt", "")
		if role == "presentation" {
			return
		}
		if alt == "" && role != "" {
			return
		}

		images = append(images, ImageRef{
			Url:         absolute,
			Alt:         alt,
			Width:       img.AttrOr("width", ""),
			Height:      img.AttrOr("height", ""),
			OriginalSrc: src,
			Referer:     pageUrl,
		})
	})
	return images
}
