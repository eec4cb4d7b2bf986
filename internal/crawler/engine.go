package crawler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Harvey-AU/carpenter-bee/internal/scope"
	"github.com/Harvey-AU/carpenter-bee/internal/util"
)

// State describes where the engine is in its lifecycle.
type State int32

const (
	// StateSeeded means the base scope key is computed and the seed target
	// admitted, but no workers have started.
	StateSeeded State = iota
	// StateRunning means the worker pool is draining the frontier.
	StateRunning
	// StateDraining means the pending-work counter reached zero (or the
	// context was cancelled) and workers are shutting down.
	StateDraining
	// StateDone is terminal; the results map has been returned.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Engine composes the frontier, scope resolver, retry classifier and fetch
// collaborator into a bounded worker pool. All per-crawl state lives on the
// engine and is discarded when Run returns.
type Engine struct {
	config   *Config
	fetcher  Fetcher
	frontier *Frontier
	scope    *scope.Resolver
	logger   zerolog.Logger
	id       string

	results   map[string]string
	resultsMu sync.Mutex

	state   atomic.Int32
	limiter *rate.Limiter

	// sleep is swapped out in tests to assert backoff timing
	sleep func(ctx context.Context, d time.Duration)
}

// NewEngine validates the configuration, normalises the seed URL, fixes the
// base scope key and admits the seed at depth 0. Misconfiguration is the
// only fatal error in the crawler and it surfaces here, before any work
// begins.
func NewEngine(config *Config, fetcher Fetcher, logger zerolog.Logger) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crawl config: %w", err)
	}

	seed, err := util.NormaliseURL(config.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	resolver, err := scope.NewResolver(seed, config.ScopePolicy, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:   config,
		fetcher:  fetcher,
		frontier: NewFrontier(),
		scope:    resolver,
		logger:   logger,
		id:       uuid.New().String()[:8],
		results:  make(map[string]string),
		limiter:  rate.NewLimiter(rate.Every(config.RequestDelay), 1),
		sleep:    sleepContext,
	}

	e.frontier.Admit(seed, 0)
	e.state.Store(int32(StateSeeded))

	return e, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Results returns a copy of the accumulated canonical URL to cleaned
// content map.
func (e *Engine) Results() map[string]string {
	e.resultsMu.Lock()
	defer e.resultsMu.Unlock()

	out := make(map[string]string, len(e.results))
	for url, content := range e.results {
		out[url] = content
	}
	return out
}

// Run drains the frontier with a bounded worker pool and returns the
// results map once every admitted target has been processed. Cancelling the
// context stops the crawl early and returns the partial results with the
// context's error.
func (e *Engine) Run(ctx context.Context) (map[string]string, error) {
	workers := minInt(e.config.Concurrency, MaxWorkers)
	e.state.Store(int32(StateRunning))

	e.logger.Info().
		Str("crawl_id", e.id).
		Str("scope_key", e.scope.BaseKey()).
		Int("workers", workers).
		Int("max_depth", e.config.Depth).
		Msg("Starting crawl")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Release blocked workers on cancellation; the frontier closes itself
	// when it drains.
	go func() {
		select {
		case <-ctx.Done():
			e.frontier.Close()
		case <-e.frontier.Done():
		}
		e.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker(ctx, i, &wg)
	}
	wg.Wait()

	e.state.Store(int32(StateDone))

	e.logger.Info().
		Str("crawl_id", e.id).
		Int("pages", len(e.results)).
		Int("visited", e.frontier.VisitedCount()).
		Msg("Crawl complete")

	if err := ctx.Err(); err != nil {
		return e.Results(), err
	}
	return e.Results(), nil
}

// worker drains the frontier until it closes. Every dequeued target is
// marked processed exactly once, whatever happens to it.
func (e *Engine) worker(ctx context.Context, id int, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		target, ok := e.frontier.Next()
		if !ok {
			return
		}

		e.processTarget(ctx, id, target)
		e.frontier.MarkProcessed()
	}
}

// processTarget handles one target: depth gate, asset pre-filter, fetch with
// retries, result recording and admission of discovered links. A panic here
// is logged and the target counted as processed; per-page failures never
// take down the pool.
func (e *Engine) processTarget(ctx context.Context, workerID int, target Target) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker panic processing %s: %v", target.URL, r)
			sentry.CaptureException(err)
			e.logger.Error().
				Int("worker_id", workerID).
				Str("url", target.URL).
				Str("stack", string(debug.Stack())).
				Msg(err.Error())
		}
	}()

	if target.Depth > e.config.Depth {
		e.logger.Debug().
			Str("url", target.URL).
			Int("depth", target.Depth).
			Msg("Skipping target beyond max depth")
		return
	}

	if IsAssetURL(target.URL) {
		e.logger.Debug().Str("url", target.URL).Msg("Skipping asset URL")
		return
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return
	}

	res, err := e.fetchWithRetries(ctx, target.URL)
	if err != nil {
		// Only reachable with retries disabled; isolate the failure and
		// treat the page as processed.
		e.logger.Error().
			Err(err).
			Int("worker_id", workerID).
			Str("url", target.URL).
			Msg("Fetch failed with retries disabled, dropping page")
		return
	}
	if res == nil {
		return
	}

	content := res.BestContent()
	if content == "" {
		e.logger.Warn().Str("url", target.URL).Msg("No content extracted")
		return
	}

	e.storeResult(target.URL, content)

	if target.Depth < e.config.Depth {
		e.admitLinks(res, target)
	}
}

// fetchWithRetries wraps the collaborator in the retry/backoff loop.
// Contract: (result, nil) on success; (nil, nil) when the page is dropped
// after a permanent error or retry exhaustion; (nil, err) only when retries
// are disabled, in which case the first failure propagates to the worker.
func (e *Engine) fetchWithRetries(ctx context.Context, targetURL string) (*FetchResult, error) {
	if e.config.RetryAttempts == 0 {
		res, err := e.fetcher.Fetch(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := BackoffDelay(attempt, e.config.RequestDelay, e.config.RetryBackoffFactor)
			e.logger.Info().
				Str("url", targetURL).
				Int("attempt", attempt).
				Int("max_retries", e.config.RetryAttempts).
				Dur("backoff", delay).
				Msg("Retrying fetch after backoff")
			e.sleep(ctx, delay)
			if ctx.Err() != nil {
				return nil, nil
			}
		}

		res, err := e.fetcher.Fetch(ctx, targetURL)
		if err == nil {
			if attempt > 0 {
				e.logger.Info().
					Str("url", targetURL).
					Int("attempt", attempt).
					Msg("Fetch succeeded on retry")
			}
			return res, nil
		}

		lastErr = err
		if !ShouldRetry(err) {
			e.logger.Warn().
				Err(err).
				Str("url", targetURL).
				Msg("Permanent fetch error, not retrying")
			return nil, nil
		}

		e.logger.Warn().
			Err(err).
			Str("url", targetURL).
			Int("attempt", attempt+1).
			Msg("Transient fetch error")
	}

	e.logger.Error().
		Err(lastErr).
		Str("url", targetURL).
		Int("attempts", e.config.RetryAttempts+1).
		Msg("All fetch attempts failed, dropping page")
	return nil, nil
}

// storeResult records cleaned content for a canonical URL. The map is
// append-only per key; a URL's content is never overwritten.
func (e *Engine) storeResult(url, content string) {
	e.resultsMu.Lock()
	defer e.resultsMu.Unlock()

	if _, exists := e.results[url]; !exists {
		e.results[url] = content
	}
}

// admitLinks normalises, scope-checks and admits every link discovered on a
// page at depth+1.
func (e *Engine) admitLinks(res *FetchResult, target Target) {
	links := ExtractLinks(res.RawMarkup, target.URL, res.Links)

	admitted := 0
	for _, link := range links {
		canonical, err := util.NormaliseURL(link)
		if err != nil {
			continue
		}
		if !e.scope.InScope(canonical) {
			continue
		}
		if e.frontier.Admit(canonical, target.Depth+1) {
			admitted++
		}
	}

	e.logger.Debug().
		Str("url", target.URL).
		Int("discovered", len(links)).
		Int("admitted", admitted).
		Msg("Processed page links")
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// minInt returns the smaller of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
