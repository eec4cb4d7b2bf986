// Package scope decides whether a discovered URL is internal to a crawl.
// Internal means sharing the crawl's scope key, which is either the exact
// seed host or the seed's registrable domain (eTLD+1) depending on policy.
package scope

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Policy selects how the scope key is derived from a URL.
type Policy string

const (
	// PolicyRegistrableDomain scopes by public-suffix-aware eTLD+1, so
	// docs.example.com and www.example.com share scope. This is the default.
	PolicyRegistrableDomain Policy = "registrable-domain"

	// PolicyExactHost scopes by the exact lower-cased hostname. Subdomains
	// are out of scope.
	PolicyExactHost Policy = "exact-host"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyRegistrableDomain, "":
		return PolicyRegistrableDomain, nil
	case PolicyExactHost:
		return PolicyExactHost, nil
	default:
		return "", fmt.Errorf("unknown scope policy %q (valid: %s, %s)", s, PolicyRegistrableDomain, PolicyExactHost)
	}
}

// Resolver compares URLs against the fixed base scope key computed from the
// seed URL at construction time.
type Resolver struct {
	policy  Policy
	baseKey string
	logger  zerolog.Logger
}

// NewResolver derives the base scope key from the seed URL. The key never
// changes for the lifetime of the crawl.
func NewResolver(seedURL string, policy Policy, logger zerolog.Logger) (*Resolver, error) {
	r := &Resolver{policy: policy, logger: logger}

	key, err := r.Key(seedURL)
	if err != nil {
		return nil, fmt.Errorf("derive base scope key: %w", err)
	}
	if key == "" {
		return nil, fmt.Errorf("seed URL %q has no host", seedURL)
	}

	r.baseKey = key
	return r, nil
}

// BaseKey returns the scope key fixed at construction.
func (r *Resolver) BaseKey() string {
	return r.baseKey
}

// Key computes the scope key for a URL under the resolver's policy.
func (r *Resolver) Key(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", rawURL, err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}

	if r.policy == PolicyExactHost {
		return host, nil
	}

	return r.registrableDomain(host), nil
}

// InScope reports whether a URL shares the crawl's base scope key.
// Unparseable URLs are out of scope.
func (r *Resolver) InScope(rawURL string) bool {
	key, err := r.Key(rawURL)
	if err != nil {
		return false
	}
	return key == r.baseKey
}

// registrableDomain returns the eTLD+1 for a host. IP literals, localhost
// and single-label hosts use the raw host as their own key, and any
// public-suffix lookup failure degrades to host-only scoping rather than
// failing the crawl.
func (r *Resolver) registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	if host == "localhost" || !strings.Contains(host, ".") {
		return host
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		r.logger.Debug().
			Err(err).
			Str("host", host).
			Msg("Public suffix lookup failed, scoping by host")
		return host
	}

	return domain
}
