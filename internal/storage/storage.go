// Package storage persists crawl results: one file per page or a single
// consolidated document, in plain text, markdown or JSON. It only needs the
// engine's canonical URL to content map plus a target location and format.
package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/markdown"
)

// Format selects the on-disk representation of crawl results.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat converts a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (valid: txt, md, json)", s)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]+`)

// URLToFilename converts a URL into a safe filename stem built from its host
// and path. Filenames are capped at 200 characters and never empty.
func URLToFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		parsed = &url.URL{Path: rawURL}
	}

	host := strings.ReplaceAll(parsed.Host, ":", "_")
	path := parsed.Path

	var stem string
	if path == "/" || path == "" {
		stem = host
	} else {
		stem = host + "_" + strings.TrimPrefix(path, "/")
	}

	stem = unsafeFilenameChars.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "_")

	if stem == "" {
		stem = "index"
	}
	if len(stem) > 200 {
		stem = stem[:200]
	}

	return stem
}

// pageRecord is the JSON shape for a single saved page.
type pageRecord struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SavePages writes one file per crawled page into dir. It returns a map
// from URL to the written file path.
func SavePages(results map[string]string, dir string, format Format) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	saved := make(map[string]string, len(results))
	for _, pageURL := range sortedURLs(results) {
		content := results[pageURL]
		path := filepath.Join(dir, URLToFilename(pageURL)+"."+string(format))

		var data []byte
		switch format {
		case FormatText, FormatMarkdown:
			data = []byte(content)
		case FormatJSON:
			encoded, err := json.MarshalIndent(pageRecord{URL: pageURL, Content: content}, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("encode page %s: %w", pageURL, err)
			}
			data = encoded
		default:
			return nil, fmt.Errorf("unsupported format %q", format)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		saved[pageURL] = path
	}

	return saved, nil
}

// SaveConsolidated writes every page into a single document at outputFile.
func SaveConsolidated(results map[string]string, outputFile string, format Format) error {
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputFile, err)
	}
	defer f.Close()

	switch format {
	case FormatText:
		for _, pageURL := range sortedURLs(results) {
			header := fmt.Sprintf("=== URL: %s ===\n\n", pageURL)
			footer := "\n\n" + strings.Repeat("=", 50) + "\n\n"
			if _, err := f.WriteString(header + results[pageURL] + footer); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
		}
		return nil

	case FormatMarkdown:
		md := markdown.NewMarkdown(f)
		for _, pageURL := range sortedURLs(results) {
			md.H2(pageURL)
			md.PlainText("")
			md.PlainText(results[pageURL])
			md.HorizontalRule()
		}
		return md.Build()

	case FormatJSON:
		pages := make([]pageRecord, 0, len(results))
		for _, pageURL := range sortedURLs(results) {
			pages = append(pages, pageRecord{URL: pageURL, Content: results[pageURL]})
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Pages []pageRecord `json:"pages"`
		}{Pages: pages})

	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// sortedURLs returns the result keys in a stable order so output is
// deterministic across runs.
func sortedURLs(results map[string]string) []string {
	urls := make([]string, 0, len(results))
	for u := range results {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
