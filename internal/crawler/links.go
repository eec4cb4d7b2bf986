package crawler

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skippedLinkPrefixes are non-navigable link targets that never become crawl
// work.
var skippedLinkPrefixes = []string{
	"#", "javascript:", "mailto:", "tel:", "data:", "file:", "ftp:",
}

// assetExtensions are path suffixes for non-page resources: stylesheets,
// scripts, images, media, archives, fonts and documents.
var assetExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".mjs": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
	".webp": {}, ".avif": {}, ".ico": {}, ".bmp": {}, ".tiff": {},
	".mp3": {}, ".wav": {}, ".ogg": {},
	".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".mkv": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {},
	".rar": {}, ".7z": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {},
	".rss": {}, ".atom": {}, ".xml": {},
}

// hrefPattern is the permissive fallback used when structured parsing fails.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// IsAssetURL reports whether a URL's path ends in a known non-page asset
// extension.
func IsAssetURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	_, ok := assetExtensions[ext]
	return ok
}

// isNavigable filters out empty targets and non-HTTP link schemes.
func isNavigable(href string) bool {
	if href == "" {
		return false
	}

	lower := strings.ToLower(href)
	for _, prefix := range skippedLinkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}

	return true
}

// ExtractLinks mines candidate crawl targets from a page. Two sources are
// combined in first-seen order: links the fetch collaborator already
// resolved post-render (covers script-injected content), then anchors parsed
// from the returned markup. Relative targets are resolved against baseURL,
// and the same scheme and asset filters apply to both sources. The result
// is deduplicated on the resolved URL string.
func ExtractLinks(markup, baseURL string, resolved *ResolvedLinks) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	seen := make(map[string]struct{})
	var links []string

	add := func(href string) {
		href = strings.TrimSpace(href)
		if !isNavigable(href) {
			return
		}

		target := href
		if base != nil {
			if abs, err := base.Parse(href); err == nil {
				target = abs.String()
			}
		}

		if IsAssetURL(target) {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}

		seen[target] = struct{}{}
		links = append(links, target)
	}

	if resolved != nil {
		for _, href := range resolved.Internal {
			add(href)
		}
		for _, href := range resolved.External {
			add(href)
		}
	}

	for _, href := range parseMarkupLinks(markup) {
		add(href)
	}

	return links
}

// parseMarkupLinks extracts href targets from anchor, link and area
// elements. When the markup cannot be parsed structurally it degrades to a
// pattern scan over the raw text rather than failing the page.
func parseMarkupLinks(markup string) []string {
	if strings.TrimSpace(markup) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return patternLinks(markup)
	}

	var hrefs []string
	doc.Find("a[href], link[href], area[href]").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	return hrefs
}

// patternLinks is the permissive fallback extraction.
func patternLinks(markup string) []string {
	var hrefs []string
	for _, match := range hrefPattern.FindAllStringSubmatch(markup, -1) {
		hrefs = append(hrefs, match[1])
	}
	return hrefs
}
