package util

import (
	"fmt"
	"net/url"
	"strings"
)

// EnsureScheme adds an https:// prefix to a bare domain so CLI input like
// "example.com" parses as an absolute URL. Existing schemes are kept.
func EnsureScheme(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}

	return "https://" + rawURL
}

// NormaliseURL canonicalises a URL into the stable form used for
// deduplication. Two URLs that differ only in scheme/host casing, fragment,
// default-port notation, trailing slash or query parameter order normalise
// to the same string. Path casing is preserved; paths are commonly
// case-sensitive on servers.
func NormaliseURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("URL must be absolute: %q", rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = normaliseHostPort(strings.ToLower(parsed.Host), parsed.Scheme)

	// Fragments never reach the server
	parsed.Fragment = ""
	parsed.RawFragment = ""

	if parsed.Path == "" {
		parsed.Path = "/"
	}
	if len(parsed.Path) > 1 {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	parsed.RawQuery = normaliseQuery(parsed.RawQuery)

	return parsed.String(), nil
}

// normaliseHostPort removes default ports (80 for HTTP, 443 for HTTPS) from host.
func normaliseHostPort(host, scheme string) string {
	if scheme == "http" && strings.HasSuffix(host, ":80") {
		return strings.TrimSuffix(host, ":80")
	}
	if scheme == "https" && strings.HasSuffix(host, ":443") {
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// normaliseQuery re-encodes a query string with parameters sorted by key.
// Values under the same key keep their original order. An unparseable query
// is returned unchanged rather than dropped.
func normaliseQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	// url.Values.Encode sorts by key and preserves value order per key
	return values.Encode()
}
