package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain_domain",
			input:    "example.com",
			expected: "https://example.com",
		},
		{
			name:     "already_https",
			input:    "https://example.com",
			expected: "https://example.com",
		},
		{
			name:     "http_kept",
			input:    "http://example.com",
			expected: "http://example.com",
		},
		{
			name:     "with_path",
			input:    "example.com/docs",
			expected: "https://example.com/docs",
		},
		{
			name:     "whitespace_trimmed",
			input:    "  example.com  ",
			expected: "https://example.com",
		},
		{
			name:     "empty_string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnsureScheme(tt.input))
		})
	}
}

func TestNormaliseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "uppercase_host",
			input:    "https://EXAMPLE.com/page",
			expected: "https://example.com/page",
		},
		{
			name:     "uppercase_scheme",
			input:    "HTTPS://example.com/page",
			expected: "https://example.com/page",
		},
		{
			name:     "default_https_port",
			input:    "https://example.com:443/page",
			expected: "https://example.com/page",
		},
		{
			name:     "default_http_port",
			input:    "http://example.com:80/page",
			expected: "http://example.com/page",
		},
		{
			name:     "non_default_port_kept",
			input:    "https://example.com:8443/page",
			expected: "https://example.com:8443/page",
		},
		{
			name:     "fragment_stripped",
			input:    "https://example.com/page#section",
			expected: "https://example.com/page",
		},
		{
			name:     "fragment_only",
			input:    "https://example.com/#top",
			expected: "https://example.com/",
		},
		{
			name:     "empty_path_becomes_root",
			input:    "https://example.com",
			expected: "https://example.com/",
		},
		{
			name:     "trailing_slash_stripped",
			input:    "https://example.com/page/",
			expected: "https://example.com/page",
		},
		{
			name:     "root_slash_kept",
			input:    "https://example.com/",
			expected: "https://example.com/",
		},
		{
			name:     "query_params_sorted",
			input:    "https://example.com/search?z=1&a=2",
			expected: "https://example.com/search?a=2&z=1",
		},
		{
			name:     "repeated_key_order_kept",
			input:    "https://example.com/search?b=2&a=first&a=second",
			expected: "https://example.com/search?a=first&a=second&b=2",
		},
		{
			name:     "path_case_preserved",
			input:    "https://example.com/Docs/Page",
			expected: "https://example.com/Docs/Page",
		},
		{
			name:     "combined",
			input:    "https://EXAMPLE.com:443/page/",
			expected: "https://example.com/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormaliseURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Normalising an already-normalised URL must be a no-op.
func TestNormaliseURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://EXAMPLE.com:443/page/",
		"https://example.com/search?z=1&a=2&a=3",
		"http://example.com:80/#frag",
		"https://example.com/Docs/Page?q=hello%20world",
	}

	for _, input := range inputs {
		once, err := NormaliseURL(input)
		require.NoError(t, err)

		twice, err := NormaliseURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalise should be idempotent for %s", input)
	}
}

func TestNormaliseURLEquivalence(t *testing.T) {
	variants := []string{
		"https://EXAMPLE.com:443/page/",
		"https://example.com/page",
		"https://example.com/page#x",
	}

	for _, variant := range variants {
		result, err := NormaliseURL(variant)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", result)
	}
}

func TestNormaliseURLInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace_only", input: "   "},
		{name: "relative_path", input: "/page"},
		{name: "missing_host", input: "https://"},
		{name: "bare_word", input: "example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormaliseURL(tt.input)
			assert.Error(t, err)
		})
	}
}
