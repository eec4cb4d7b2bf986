package crawler

import (
	"math"
	"strings"
	"time"
)

// permanentIndicators mark failures that retrying cannot fix. They are
// checked before transientIndicators and take precedence.
var permanentIndicators = []string{
	"404", "not found",
	"403", "forbidden",
	"401", "unauthorized",
	"400", "bad request",
	"invalid url",
	"unsupported protocol",
}

// transientIndicators mark failures worth retrying: timeouts, network
// faults, rate limiting and 5xx responses.
var transientIndicators = []string{
	"timeout", "timed out",
	"connection", "network",
	"429", "too many requests",
	"500", "502", "503", "504", "server error",
	"gateway", "service unavailable",
}

// ShouldRetry classifies a fetch failure by its textual description.
// Errors matching neither list default to retryable; unknown failures are
// more often transient infrastructure issues than permanent ones.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	desc := strings.ToLower(err.Error())

	for _, indicator := range permanentIndicators {
		if strings.Contains(desc, indicator) {
			return false
		}
	}

	for _, indicator := range transientIndicators {
		if strings.Contains(desc, indicator) {
			return true
		}
	}

	return true
}

// BackoffDelay computes the exponential backoff before a retry:
// baseDelay * factor^(attempt-1) for attempt >= 1. Attempt 0 is the initial
// try and has no delay.
func BackoffDelay(attempt int, baseDelay time.Duration, factor float64) time.Duration {
	if attempt < 1 {
		return 0
	}
	return time.Duration(float64(baseDelay) * math.Pow(factor, float64(attempt-1)))
}
