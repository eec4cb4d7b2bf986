package crawler

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// robotsGate answers per-URL robots.txt queries with a per-host cache, so a
// crawl fetches each host's robots.txt at most once. A missing or
// unparseable robots.txt means no restrictions.
type robotsGate struct {
	client    *http.Client
	userAgent string
	cache     sync.Map // host -> *robotstxt.RobotsData, nil entry = allow all
	logger    zerolog.Logger
}

func newRobotsGate(timeout time.Duration, userAgent string, logger zerolog.Logger) *robotsGate {
	return &robotsGate{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed reports whether the URL's path may be fetched under the host's
// robots.txt rules.
func (g *robotsGate) Allowed(u *url.URL) bool {
	if val, ok := g.cache.Load(u.Host); ok {
		data, _ := val.(*robotstxt.RobotsData)
		if data == nil {
			return true
		}
		return data.TestAgent(u.Path, g.userAgent)
	}

	data := g.fetch(u)
	g.cache.Store(u.Host, data)

	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, g.userAgent)
}

func (g *robotsGate) fetch(u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	resp, err := g.client.Get(robotsURL)
	if err != nil {
		g.logger.Debug().Err(err).Str("host", u.Host).Msg("Failed to fetch robots.txt, proceeding with no restrictions")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.logger.Debug().Err(err).Str("host", u.Host).Msg("Failed to parse robots.txt, proceeding with no restrictions")
		return nil
	}

	return data
}
