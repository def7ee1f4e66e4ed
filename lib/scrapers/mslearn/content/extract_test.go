package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainContentCascade(t *testing.T) {
	t.Run("PrefersDedicatedContainer", func(t *testing.T) {
		page := `<html><body>
			<main>
				<div class="content"><p>real content</p></div>
				<article><p>article fallback</p></article>
			</main>
		</body></html>`
		region, ok := MainContent(page)
		require.True(t, ok)
		require.Contains(t, region.Text(), "real content")
		require.NotContains(t, region.Text(), "article fallback")
	})

	t.Run("FallsBackToBareMain", func(t *testing.T) {
		page := `<html><body><main><p>only main</p></main></body></html>`
		region, ok := MainContent(page)
		require.True(t, ok)
		require.Contains(t, region.Text(), "only main")
	})

	t.Run("AbsentIsReported", func(t *testing.T) {
		_, ok := MainContent(`<html><body><div>nothing structural</div></body></html>`)
		require.False(t, ok)
	})
}

func TestMainContentStripsChrome(t *testing.T) {
	page := `<html><body><main><article>
		<nav>site nav</nav>
		<p>keep me</p>
		<div data-bi-name="feedback">was this helpful?</div>
		<div class="contributors">written by</div>
		<script>alert(1)</script>
		<span class="is-invisible">hidden</span>
	</article></main></body></html>`

	region, ok := MainContent(page)
	require.True(t, ok)

	text := region.Text()
	require.Contains(t, text, "keep me")
	require.NotContains(t, text, "site nav")
	require.NotContains(t, text, "was this helpful?")
	require.NotContains(t, text, "written by")
	require.NotContains(t, text, "alert(1)")
	require.NotContains(t, text, "hidden")
}

func TestFlattenQuiz(t *testing.T) {
	page := `<html><body><main><article>
		<form id="question-container">
			<div class="quiz-question">
				<div class="quiz-question-title"><span>1.</span><p>What is Dataverse?</p></div>
				<div class="quiz-choice"><span class="radio-label-text">A data platform</span></div>
				<div class="quiz-choice"><span class="radio-label-text">A spreadsheet</span></div>
			</div>
		</form>
	</article></main></body></html>`

	region, ok := MainContent(page)
	require.True(t, ok)

	rendered, err := RenderRegion(region)
	require.NoError(t, err)

	require.Contains(t, rendered, "formatted-quiz")
	require.Contains(t, rendered, "<h3>Question: What is Dataverse?</h3>")
	require.Contains(t, rendered, "<li>A data platform</li>")
	require.Contains(t, rendered, "<li>A spreadsheet</li>")
	require.Contains(t, rendered, "<hr/>")
	require.NotContains(t, rendered, "question-container")
}

func TestExtractImages(t *testing.T) {
	page := `<html><body><main><article>
		<img src="media/diagram.png" alt="architecture diagram" width="640" height="480">
		<img data-src="https://cdn.example.com/lazy.png" alt="lazy loaded">
		<img src="/training/achievements/badge.svg" alt="badge">
		<img src="decorative.png" role="presentation" alt="">
		<img src="ambiguous.png">
		<img src="icon.png" role="img" alt="">
	</article></main></body></html>`

	region, ok := MainContent(page)
	require.True(t, ok)

	images := ExtractImages(region, "https://learn.microsoft.com/training/modules/intro/1-introduction")

	var urls []string
	for _, img := range images {
		urls = append(urls, img.Url)
	}
	require.Equal(t, []string{
		"https://learn.microsoft.com/training/modules/intro/media/diagram.png",
		"https://cdn.example.com/lazy.png",
		// no-role images are kept even without alt text
		"https://learn.microsoft.com/training/modules/intro/ambiguous.png",
	}, urls)

	first := images[0]
	require.Equal(t, "architecture diagram", first.Alt)
	require.Equal(t, "640", first.Width)
	require.Equal(t, "480", first.Height)
	require.Equal(t, "media/diagram.png", first.OriginalSrc)
	require.Equal(t, "https://learn.microsoft.com/training/modules/intro/1-introduction", first.Referer)
}

func TestIsNotFoundPage(t *testing.T) {
	require.True(t, IsNotFoundPage("<html><body><h1>404 - Page not found</h1></body></html>"))
	require.True(t, IsNotFoundPage("<p>Sorry, we couldn't find this page.</p>"))
	require.False(t, IsNotFoundPage("<p>Introduction to Power Automate</p>"))
}

func TestRegionTextKeepsContentText(t *testing.T) {
	region, ok := MainContent(`<html><body><main><p>alpha</p>
		<p>  beta </p></main></body></html>`)
	require.True(t, ok)
	require.Equal(t, "alpha beta", RegionText(region))
}
