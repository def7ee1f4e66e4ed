package content

import (
	"strings"

	"learndl/lib/orderedset"

	"github.com/PuerkitoBio/goquery"
)

// CourseLearningPathUids reads the learning path uids a course page
// advertises in its `article[data-learn-uid]` cards, deduplicated in
// page order.
func CourseLearningPathUids(pageHtml string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return nil, err
	}

	uids := orderedset.New()
	doc.Find("article[data-learn-uid]").Each(func(_ int, article *goquery.Selection) {
		if uid, _ := article.Attr("data-learn-uid"); uid != "" {
			uids.Add(uid)
		}
	})
	return uids.Values(), nil
}
