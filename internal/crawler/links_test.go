package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinksFromMarkup(t *testing.T) {
	markup := `
	<html><body>
		<a href="/about">About</a>
		<a href="https://example.com/contact">Contact</a>
		<a href="#section">Anchor</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="tel:+61400000000">Call</a>
		<a href="data:text/plain;base64,aGk=">Data</a>
		<a href="ftp://example.com/file">FTP</a>
		<a href="   ">Blank</a>
		<a href="/about">Duplicate</a>
	</body></html>`

	links := ExtractLinks(markup, "https://example.com/", nil)

	assert.Equal(t, []string{
		"https://example.com/about",
		"https://example.com/contact",
	}, links)
}

func TestExtractLinksFiltersAssets(t *testing.T) {
	markup := `
	<html><body>
		<a href="/styles.css">CSS</a>
		<a href="/logo.png">Logo</a>
		<a href="/report.pdf">Report</a>
		<a href="/app.js">Script</a>
		<a href="/font.woff2">Font</a>
		<a href="/archive.zip">Archive</a>
		<a href="/real-page">Page</a>
	</body></html>`

	links := ExtractLinks(markup, "https://example.com/", nil)

	assert.Equal(t, []string{"https://example.com/real-page"}, links)
}

func TestExtractLinksRelativeResolution(t *testing.T) {
	markup := `
	<html><body>
		<a href="sibling">Sibling</a>
		<a href="../parent">Parent</a>
		<a href="/absolute">Absolute</a>
		<a href="?page=2">Query</a>
	</body></html>`

	links := ExtractLinks(markup, "https://example.com/docs/guide/", nil)

	assert.Equal(t, []string{
		"https://example.com/docs/guide/sibling",
		"https://example.com/docs/parent",
		"https://example.com/absolute",
		"https://example.com/docs/guide/?page=2",
	}, links)
}

// Pre-resolved collaborator links come first, and pass the same filters as
// parsed anchors.
func TestExtractLinksCombinesResolvedSources(t *testing.T) {
	markup := `<html><body><a href="/from-markup">M</a></body></html>`
	resolved := &ResolvedLinks{
		Internal: []string{"https://example.com/from-script", "https://example.com/image.png"},
		External: []string{"https://other.org/page"},
	}

	links := ExtractLinks(markup, "https://example.com/", resolved)

	assert.Equal(t, []string{
		"https://example.com/from-script",
		"https://other.org/page",
		"https://example.com/from-markup",
	}, links)
}

func TestExtractLinksDeduplicatesAcrossSources(t *testing.T) {
	markup := `<html><body><a href="/page">One</a></body></html>`
	resolved := &ResolvedLinks{Internal: []string{"https://example.com/page"}}

	links := ExtractLinks(markup, "https://example.com/", resolved)

	assert.Equal(t, []string{"https://example.com/page"}, links)
}

// Severely malformed markup still yields links via the pattern fallback;
// the net/html parser underneath goquery is lenient, so this exercises the
// same permissive path with raw text.
func TestPatternFallbackExtraction(t *testing.T) {
	broken := `<<<not <html at all href="/one" junk href='/two.png' href="javascript:x" href='/three'`

	hrefs := patternLinks(broken)

	assert.Equal(t, []string{"/one", "/two.png", "javascript:x", "/three"}, hrefs)

	links := ExtractLinks(broken, "https://example.com/", nil)
	for _, link := range links {
		assert.NotContains(t, link, "javascript:")
		assert.NotContains(t, link, ".png")
	}
}

func TestExtractLinksEmptyMarkup(t *testing.T) {
	assert.Empty(t, ExtractLinks("", "https://example.com/", nil))
	assert.Empty(t, ExtractLinks("   ", "https://example.com/", nil))
}

func TestIsAssetURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "css", url: "https://example.com/styles.css", expected: true},
		{name: "png", url: "https://example.com/img/logo.png", expected: true},
		{name: "pdf", url: "https://example.com/docs/report.pdf", expected: true},
		{name: "uppercase_extension", url: "https://example.com/LOGO.PNG", expected: true},
		{name: "asset_with_query", url: "https://example.com/app.js?v=3", expected: true},
		{name: "page", url: "https://example.com/about", expected: false},
		{name: "root", url: "https://example.com/", expected: false},
		{name: "dotted_path_segment", url: "https://example.com/v1.2/docs", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAssetURL(tt.url))
		})
	}
}
