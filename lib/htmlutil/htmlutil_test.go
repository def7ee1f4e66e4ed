package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div>hello <b>bold</b> world</div>`))
	require.NoError(t, err)
	require.Contains(t, GetText(doc), "hello bold world")
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a \n\n b \t\t c  "))
}

func TestResolveURL(t *testing.T) {
	require.Equal(
		t,
		"https://learn.microsoft.com/training/modules/intro/2-setup",
		ResolveURL("https://learn.microsoft.com/training/modules/intro/", "2-setup"),
	)
	require.Equal(
		t,
		"https://cdn.example.com/a.png",
		ResolveURL("https://learn.microsoft.com/x/", "https://cdn.example.com/a.png"),
	)
}
