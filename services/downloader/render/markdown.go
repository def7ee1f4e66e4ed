package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"learndl/lib/scrapers/mslearn/catalog"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// ToMarkdown converts one unit's content region markup to markdown.
func ToMarkdown(regionHtml string) (string, error) {
	converter := md.NewConverter("", true, nil)
	return converter.ConvertString(regionHtml)
}

// WriteMarkdown writes one markdown document for the item into
// outputDir and returns the written path.
func WriteMarkdown(item catalog.Entity, modules []ModuleContent, outputDir string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", item.Summary)
	}
	if item.Url != "" {
		fmt.Fprintf(&b, "<%s>\n\n", item.Url)
	}

	for _, mc := range modules {
		fmt.Fprintf(&b, "## %s\n\n", mc.Module.Title)
		if mc.Module.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", mc.Module.Summary)
		}
		for _, unit := range mc.Units {
			fmt.Fprintf(&b, "### %s\n\n", unit.Unit.Title)
			fmt.Fprintf(&b, "%s\n\n---\n\n", strings.TrimSpace(unit.Markdown))
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, DocumentName(item)+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
