package crawler

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Harvey-AU/carpenter-bee/internal/scope"
)

// Configuration bounds. Values outside these ranges fail validation before
// any work begins.
const (
	MinDepth = 1
	MaxDepth = 15

	MinConcurrency = 1
	MaxConcurrency = 20

	// MaxWorkers caps the worker pool regardless of configured concurrency.
	MaxWorkers = 10

	MinRequestDelay = 100 * time.Millisecond
	MaxRequestDelay = 5 * time.Second

	MinRetries = 0
	MaxRetries = 10

	MinBackoffFactor = 1.0
	MaxBackoffFactor = 5.0
)

// FilterOptions controls content cleaning in the fetch collaborator. The
// crawl engine passes these through without interpreting them.
type FilterOptions struct {
	Enabled              bool     `yaml:"content_filter_enabled"`
	ExcludedTags         []string `yaml:"excluded_tags"`
	MinWordCount         int      `yaml:"min_word_count"`
	ExcludeExternalLinks bool     `yaml:"exclude_external_links"`
}

// DefaultExcludedTags lists elements pruned from cleaned content: chrome,
// forms, scripts, embedded media and other non-prose markup.
func DefaultExcludedTags() []string {
	return []string{
		"nav", "footer", "header", "aside", "form", "script", "style",
		"iframe", "noscript", "svg", "canvas",
		"dialog", "menu", "datalist", "output", "progress", "meter",
		"object", "embed", "audio", "video", "track", "source",
		"map", "area", "fieldset", "legend", "optgroup", "option",
		"figure", "figcaption",
	}
}

// Config holds the configuration for a crawl. It is validated once at engine
// construction and never mutated afterwards.
type Config struct {
	SeedURL            string        // Starting point, must parse as absolute HTTP/HTTPS
	Depth              int           // Maximum link depth from the seed
	Concurrency        int           // Requested worker count (capped at MaxWorkers)
	RequestDelay       time.Duration // Minimum delay between requests, also the backoff base
	RetryAttempts      int           // Retries after the initial attempt; 0 disables retry wrapping
	RetryBackoffFactor float64       // Exponential backoff growth factor
	ScopePolicy        scope.Policy  // How internal links are identified
	RespectRobots      bool          // Passed through to the fetch collaborator
	UserAgent          string        // User agent string for requests
	DefaultTimeout     time.Duration // Per-request timeout in the fetch collaborator
	Filter             FilterOptions // Content cleaning pass-through options
}

// DefaultConfig returns a Config instance with default values
func DefaultConfig() *Config {
	return &Config{
		Depth:              3,
		Concurrency:        5,
		RequestDelay:       time.Second,
		RetryAttempts:      3,
		RetryBackoffFactor: 1.5,
		ScopePolicy:        scope.PolicyRegistrableDomain,
		RespectRobots:      true,
		UserAgent:          "CarpenterBee/1.0 (+https://www.bluebandedbee.co/pages/about-the-bot)",
		DefaultTimeout:     30 * time.Second,
		Filter: FilterOptions{
			Enabled:              true,
			ExcludedTags:         DefaultExcludedTags(),
			MinWordCount:         10,
			ExcludeExternalLinks: true,
		},
	}
}

// Validate checks all bounds and the seed URL. A crawl never starts with an
// invalid configuration.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return fmt.Errorf("seed URL is required")
	}
	if c.Depth < MinDepth || c.Depth > MaxDepth {
		return fmt.Errorf("depth must be between %d and %d, got %d", MinDepth, MaxDepth, c.Depth)
	}
	if c.Concurrency < MinConcurrency || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between %d and %d, got %d", MinConcurrency, MaxConcurrency, c.Concurrency)
	}
	if c.RequestDelay < MinRequestDelay || c.RequestDelay > MaxRequestDelay {
		return fmt.Errorf("request delay must be between %s and %s, got %s", MinRequestDelay, MaxRequestDelay, c.RequestDelay)
	}
	if c.RetryAttempts < MinRetries || c.RetryAttempts > MaxRetries {
		return fmt.Errorf("retry attempts must be between %d and %d, got %d", MinRetries, MaxRetries, c.RetryAttempts)
	}
	if c.RetryBackoffFactor < MinBackoffFactor || c.RetryBackoffFactor > MaxBackoffFactor {
		return fmt.Errorf("retry backoff factor must be between %.1f and %.1f, got %.2f", MinBackoffFactor, MaxBackoffFactor, c.RetryBackoffFactor)
	}
	if c.ScopePolicy != scope.PolicyRegistrableDomain && c.ScopePolicy != scope.PolicyExactHost {
		return fmt.Errorf("unknown scope policy %q", c.ScopePolicy)
	}
	return nil
}

// Profile is the YAML representation of a crawl configuration. Delays are
// expressed in seconds to match the CLI flags.
type Profile struct {
	URL                string         `yaml:"url"`
	MaxDepth           *int           `yaml:"max_depth"`
	Concurrency        *int           `yaml:"concurrency"`
	RequestDelay       *float64       `yaml:"request_delay"`
	MaxRetries         *int           `yaml:"max_retries"`
	RetryBackoffFactor *float64       `yaml:"retry_backoff_factor"`
	ScopePolicy        string         `yaml:"scope_policy"`
	RespectRobots      *bool          `yaml:"respect_robots"`
	UserAgent          string         `yaml:"user_agent"`
	Filter             *FilterOptions `yaml:"content_filter"`
}

// LoadProfile reads a YAML crawl profile and applies it on top of the
// default configuration. Absent fields keep their defaults.
func LoadProfile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crawl profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse crawl profile %s: %w", path, err)
	}

	cfg := DefaultConfig()
	cfg.SeedURL = profile.URL
	if profile.MaxDepth != nil {
		cfg.Depth = *profile.MaxDepth
	}
	if profile.Concurrency != nil {
		cfg.Concurrency = *profile.Concurrency
	}
	if profile.RequestDelay != nil {
		cfg.RequestDelay = time.Duration(*profile.RequestDelay * float64(time.Second))
	}
	if profile.MaxRetries != nil {
		cfg.RetryAttempts = *profile.MaxRetries
	}
	if profile.RetryBackoffFactor != nil {
		cfg.RetryBackoffFactor = *profile.RetryBackoffFactor
	}
	if profile.ScopePolicy != "" {
		policy, err := scope.ParsePolicy(profile.ScopePolicy)
		if err != nil {
			return nil, err
		}
		cfg.ScopePolicy = policy
	}
	if profile.RespectRobots != nil {
		cfg.RespectRobots = *profile.RespectRobots
	}
	if profile.UserAgent != "" {
		cfg.UserAgent = profile.UserAgent
	}
	if profile.Filter != nil {
		cfg.Filter = *profile.Filter
	}

	return cfg, nil
}
