package images

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteHtml(t *testing.T) {
	mapping := map[string]string{
		"https://learn.microsoft.com/media/diagram.png": "out/images/diagram_abc12345.png",
	}

	regionHtml := `<div>` +
		`<img src="https://learn.microsoft.com/media/diagram.png" data-src="lazy.png" alt="diagram">` +
		`<img src="https://elsewhere.test/untouched.png" alt="other">` +
		`</div>`

	rewritten, err := RewriteHtml(regionHtml, mapping, "images")
	require.NoError(t, err)

	require.Contains(t, rewritten, `src="images/diagram_abc12345.png"`)
	require.NotContains(t, rewritten, "data-src")
	require.Contains(t, rewritten, `src="https://elsewhere.test/untouched.png"`)
}

func TestRewriteHtmlMatchesByBasename(t *testing.T) {
	mapping := map[string]string{
		"https://learn.microsoft.com/media/chart.png": "out/images/chart_abc12345.png",
	}

	// a cdn mirror of the same file: no substring relation to the
	// downloaded url, but the base name lines up
	rewritten, err := RewriteHtml(
		`<p><img src="https://cdn.example.net/v2/chart.png?v=3"></p>`,
		mapping, "images")
	require.NoError(t, err)
	require.Contains(t, rewritten, `src="images/chart_abc12345.png"`)
}

func TestRewriteHtmlUsesLazySource(t *testing.T) {
	mapping := map[string]string{
		"https://learn.microsoft.com/media/lazy.png": "out/images/lazy_abc12345.png",
	}

	rewritten, err := RewriteHtml(
		`<img data-src="https://learn.microsoft.com/media/lazy.png">`,
		mapping, "images")
	require.NoError(t, err)
	require.Contains(t, rewritten, `src="images/lazy_abc12345.png"`)
	require.NotContains(t, rewritten, "data-src")
}

func TestRewriteMarkdown(t *testing.T) {
	mapping := map[string]string{
		"https://learn.microsoft.com/media/diagram.png": "out/images/diagram_abc12345.png",
	}

	markdown := "intro\n\n" +
		"![The diagram](https://learn.microsoft.com/media/diagram.png)\n\n" +
		"![kept](https://elsewhere.test/untouched.png)\n"

	rewritten := RewriteMarkdown(markdown, mapping, "images")
	require.Contains(t, rewritten, "![The diagram](images/diagram_abc12345.png)")
	require.Contains(t, rewritten, "![kept](https://elsewhere.test/untouched.png)")
}

func TestRewriteMarkdownEmptyMapping(t *testing.T) {
	markdown := "![alt](https://learn.microsoft.com/media/diagram.png)"
	require.Equal(t, markdown, RewriteMarkdown(markdown, nil, "images"))
}
