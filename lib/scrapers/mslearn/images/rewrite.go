package images

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// matchLocal is the single place where a markup image reference is
// correlated with a downloaded file. The page markup and the catalog
// do not always agree on the exact url (protocol-relative sources,
// tracking params, cdn prefixes), so matching is two tiered: a
// substring match of the full urls in either direction first, then a
// base name lookup. Unmatched references are left alone by callers.
func matchLocal(src string, mapping map[string]string, basenames map[string]string) (string, bool) {
	for remote, local := range mapping {
		if strings.Contains(src, remote) || strings.Contains(remote, src) {
			return local, true
		}
	}
	if local, ok := basenames[baseName(src)]; ok {
		return local, true
	}
	return "", false
}

// basenameIndex indexes every downloaded file by the base name of both
// its local path and its remote url.
func basenameIndex(mapping map[string]string) map[string]string {
	index := map[string]string{}
	for remote, local := range mapping {
		index[filepath.Base(local)] = local
		if name := baseName(remote); name != "" {
			index[name] = local
		}
	}
	return index
}

func baseName(rawUrl string) string {
	if i := strings.IndexAny(rawUrl, "?#"); i >= 0 {
		rawUrl = rawUrl[:i]
	}
	return path.Base(rawUrl)
}

// localRef builds the reference written into rewritten content. It
// always uses forward slashes so the output renders from disk on any
// platform.
func localRef(local, subdir string) string {
	name := filepath.Base(local)
	if subdir == "" {
		return name
	}
	return subdir + "/" + name
}

// RewriteHtml points every matched <img> at its downloaded copy under
// subdir and strips the lazy-load attributes that would shadow the new
// src. Images with no local copy keep their remote source.
func RewriteHtml(regionHtml string, mapping map[string]string, subdir string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(regionHtml))
	if err != nil {
		return "", err
	}

	basenames := basenameIndex(mapping)
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" {
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			src, _ = img.Attr("data-original")
		}
		if src == "" {
			return
		}

		local, ok := matchLocal(src, mapping, basenames)
		if !ok {
			return
		}
		img.SetAttr("src", localRef(local, subdir))
		img.RemoveAttr("data-src")
		img.RemoveAttr("data-original")
	})

	return doc.Find("body").Html()
}

var markdownImageRegex = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// RewriteMarkdown replaces matched markdown image destinations with
// local references, preserving alt text and leaving unmatched images
// untouched.
func RewriteMarkdown(markdown string, mapping map[string]string, subdir string) string {
	basenames := basenameIndex(mapping)
	return markdownImageRegex.ReplaceAllStringFunc(markdown, func(m string) string {
		groups := markdownImageRegex.FindStringSubmatch(m)
		alt, src := groups[1], groups[2]

		local, ok := matchLocal(src, mapping, basenames)
		if !ok {
			return m
		}
		return "![" + alt + "](" + localRef(local, subdir) + ")"
	})
}
