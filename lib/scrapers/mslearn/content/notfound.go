package content

import "strings"

// The site serves its not-found page with HTTP 200, so detection has
// to match known body phrases. Kept as a single predicate over this
// list so a wording change upstream is a one-line fix.
var notFoundMarkers = []string{
	"404 - page not found",
	"we couldn't find this page",
}

// IsNotFoundPage reports whether body is a synthesized not-found page
// regardless of the transport status code.
func IsNotFoundPage(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
