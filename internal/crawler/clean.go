package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentCleaner turns page markup into readable text. It implements the
// boilerplate pruning the content-filter options describe: excluded-tag
// removal, short-block pruning and optional external-link stripping. The
// crawl engine never calls it directly; it belongs to the fetch
// collaborator.
type ContentCleaner struct {
	opts FilterOptions
}

// NewContentCleaner creates a cleaner with the given filter options.
func NewContentCleaner(opts FilterOptions) *ContentCleaner {
	return &ContentCleaner{opts: opts}
}

// Clean produces (filtered, raw) text for a page. Raw is the page text with
// whitespace squashed; filtered additionally drops excluded tags and text
// blocks under the minimum word count. Both are empty when the markup
// cannot be parsed, in which case the caller falls back to the markup
// itself.
func (c *ContentCleaner) Clean(markup, baseURL string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", ""
	}

	// Scripts and styles are noise even in raw text
	doc.Find("script, style, noscript").Remove()

	raw := squashWhitespace(doc.Find("body").Text())
	if !c.opts.Enabled {
		return "", raw
	}

	if len(c.opts.ExcludedTags) > 0 {
		doc.Find(strings.Join(c.opts.ExcludedTags, ", ")).Remove()
	}

	if c.opts.ExcludeExternalLinks {
		c.stripExternalLinks(doc, baseURL)
	}

	var blocks []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(i int, s *goquery.Selection) {
		// Skip container matches whose text belongs to a nested block
		if s.Children().Filter("p, li, pre, blockquote").Length() > 0 {
			return
		}

		text := squashWhitespace(s.Text())
		if text == "" {
			return
		}
		if !isHeading(goquery.NodeName(s)) && len(strings.Fields(text)) < c.opts.MinWordCount {
			return
		}
		blocks = append(blocks, text)
	})

	filtered := strings.Join(blocks, "\n\n")
	return filtered, raw
}

// stripExternalLinks unwraps anchors pointing outside the page's host,
// keeping their text but dropping the reference.
func (c *ContentCleaner) stripExternalLinks(doc *goquery.Document, baseURL string) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		if abs.Hostname() != "" && !strings.EqualFold(abs.Hostname(), base.Hostname()) {
			s.ReplaceWithHtml(s.Text())
		}
	})
}

func isHeading(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

// squashWhitespace collapses runs of whitespace into single spaces.
func squashWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
