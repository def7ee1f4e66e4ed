// Package htmlutil holds small helpers shared by the scraping packages.
package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText concatenates every text node under node, in document order.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText strips non-printable runes, trims the ends and collapses
// inner whitespace runs to a single space.
func CleanText(s string) string {
	var printable strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' || c == '\t' {
			printable.WriteRune(c)
		}
	}
	out := strings.Trim(printable.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

// ResolveURL resolves href against base the way a browser would,
// returning "" when either side does not parse.
func ResolveURL(base, href string) string {
	baseUrl, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return baseUrl.ResolveReference(ref).String()
}
