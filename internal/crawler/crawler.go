package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/Harvey-AU/carpenter-bee/internal/scope"
)

// Crawler is the default fetch collaborator: it fetches a page with Colly,
// cleans its content and resolves its outbound links. The engine talks to it
// through the Fetcher interface only.
type Crawler struct {
	config  *Config
	cleaner *ContentCleaner
	robots  *robotsGate
	scope   *scope.Resolver
	logger  zerolog.Logger
}

// New creates a Crawler instance with the given configuration.
// If config is nil, default configuration is used.
func New(config *Config, logger zerolog.Logger) *Crawler {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Crawler{
		config:  config,
		cleaner: NewContentCleaner(config.Filter),
		logger:  logger,
	}

	if config.RespectRobots {
		c.robots = newRobotsGate(config.DefaultTimeout, config.UserAgent, logger)
	}

	// Scope is only used to categorise resolved links as internal/external;
	// a seed that fails to parse simply leaves links uncategorised.
	if config.SeedURL != "" {
		if resolver, err := scope.NewResolver(config.SeedURL, config.ScopePolicy, logger); err == nil {
			c.scope = resolver
		}
	}

	return c
}

// GetUserAgent returns the user agent string for this crawler
func (c *Crawler) GetUserAgent() string {
	return c.config.UserAgent
}

// validateFetchRequest rejects URLs the crawler cannot fetch before any
// network work happens.
func validateFetchRequest(ctx context.Context, targetURL string) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", targetURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL format: %s", targetURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported protocol scheme %q", parsed.Scheme)
	}

	return parsed, nil
}

// Fetch retrieves a single page and returns its cleaned content, raw markup
// and resolved links. Failed fetches return a FetchResult with Success false
// alongside the error; the error text carries the HTTP status so the retry
// classifier can act on it.
func (c *Crawler) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	parsed, err := validateFetchRequest(ctx, targetURL)
	if err != nil {
		return &FetchResult{URL: targetURL, Success: false, ErrorDescription: err.Error()}, err
	}

	if c.robots != nil && !c.robots.Allowed(parsed) {
		err := fmt.Errorf("blocked by robots.txt (403 Forbidden): %s", targetURL)
		return &FetchResult{URL: targetURL, Success: false, ErrorDescription: err.Error()}, err
	}

	start := time.Now()
	res := &FetchResult{
		URL:   targetURL,
		Links: &ResolvedLinks{},
	}

	collector := colly.NewCollector(
		colly.UserAgent(c.config.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	collector.SetClient(&http.Client{Timeout: c.config.DefaultTimeout})

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")

		c.logger.Debug().
			Str("url", r.URL.String()).
			Msg("Crawler sending request")
	})

	collector.OnResponse(func(r *colly.Response) {
		res.StatusCode = r.StatusCode
		res.ResponseTime = time.Since(start).Milliseconds()
		res.RawMarkup = string(r.Body)
	})

	var fetchErr error
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			res.StatusCode = r.StatusCode
			fetchErr = fmt.Errorf("HTTP %d %s: %w", r.StatusCode, http.StatusText(r.StatusCode), err)
			return
		}
		fetchErr = err
	})

	if err := collector.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	collector.Wait()

	if fetchErr != nil {
		res.Success = false
		res.ErrorDescription = fetchErr.Error()
		c.logger.Debug().
			Err(fetchErr).
			Str("url", targetURL).
			Msg("Fetch failed")
		return res, fetchErr
	}

	res.Success = true
	res.FilteredContent, res.RawContent = c.cleaner.Clean(res.RawMarkup, targetURL)
	c.resolveLinks(res, targetURL)

	c.logger.Debug().
		Str("url", targetURL).
		Int("status", res.StatusCode).
		Int64("response_time_ms", res.ResponseTime).
		Int("internal_links", len(res.Links.Internal)).
		Int("external_links", len(res.Links.External)).
		Msg("Fetched page")

	return res, nil
}

// resolveLinks splits the page's anchors into internal and external by scope
// key. Without a scope resolver every link counts as internal.
func (c *Crawler) resolveLinks(res *FetchResult, baseURL string) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return
	}

	for _, href := range parseMarkupLinks(res.RawMarkup) {
		href = strings.TrimSpace(href)
		if !isNavigable(href) {
			continue
		}

		abs, err := base.Parse(href)
		if err != nil {
			continue
		}

		link := abs.String()
		if c.scope == nil || c.scope.InScope(link) {
			res.Links.Internal = append(res.Links.Internal, link)
		} else {
			res.Links.External = append(res.Links.External, link)
		}
	}
}
