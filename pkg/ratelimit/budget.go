// Package ratelimit tracks the BattleMetrics request budget advertised by the
// X-Rate-Limit-* response headers and gates outgoing requests when the budget
// is exhausted. State is local to one client instance; nothing is shared
// across processes.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate budget tracking.
var (
	bmRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bm_rate_limit_remaining",
		Help: "Requests remaining in the current rate limit window",
	})

	bmRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bm_rate_limit_waits_total",
		Help: "Total number of requests delayed until the rate limit window reset",
	})
)

// Header names used by the BattleMetrics API.
const (
	HeaderLimit     = "X-Rate-Limit-Limit"
	HeaderRemaining = "X-Rate-Limit-Remaining"
	HeaderReset     = "X-Rate-Limit-Reset"
)

// DefaultWindow is assumed when a response carries remaining/limit headers
// but no reset header. BattleMetrics budgets are per minute.
const DefaultWindow = 60 * time.Second

// Budget is the request budget of a single client instance. It is updated
// exclusively from response headers and read before every request. All
// methods are safe for concurrent use.
//
// The gate checks but never reserves: requests already in flight when the
// budget reaches zero are not recalled, so the server may see at most that
// many requests beyond the advertised limit.
type Budget struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	known     bool

	logger zerolog.Logger
}

// NewBudget creates a budget that admits everything until the first
// rate limit headers arrive.
func NewBudget(logger zerolog.Logger) *Budget {
	return &Budget{logger: logger}
}

// UpdateFromHeaders folds the rate limit headers of a response into the
// budget. Responses without a remaining header leave the budget untouched.
func (b *Budget) UpdateFromHeaders(headers http.Header) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return
	}
	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		b.logger.Warn().
			Str("header", HeaderRemaining).
			Str("value", remainStr).
			Msg("Unparseable rate limit header ignored")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.remaining = remaining
	b.known = true

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			b.limit = limit
		}
	}

	window := DefaultWindow
	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		if resetSeconds, err := strconv.Atoi(resetStr); err == nil {
			window = time.Duration(resetSeconds) * time.Second
		}
	}
	b.resetAt = time.Now().Add(window)

	bmRateLimitRemaining.Set(float64(remaining))

	if remaining == 0 {
		b.logger.Warn().
			Int("limit", b.limit).
			Time("reset_at", b.resetAt).
			Msg("Rate limit budget exhausted")
	}
}

// Snapshot returns the current budget state.
func (b *Budget) Snapshot() (remaining, limit int, resetAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining, b.limit, b.resetAt
}

// Wait blocks until the budget admits a request or the context is done.
// It returns immediately while headers report budget left, and sleeps until
// the advertised window reset once the budget reads zero. Cancellation
// during the sleep returns ctx.Err() without touching the budget.
func (b *Budget) Wait(ctx context.Context) error {
	b.mu.Lock()
	exhausted := b.known && b.remaining <= 0
	resetAt := b.resetAt
	if exhausted && !time.Now().Before(resetAt) {
		// Window already rolled over; admit and let the next
		// response headers resynchronize the budget.
		b.remaining = b.limit
		exhausted = false
	}
	b.mu.Unlock()

	if !exhausted {
		return nil
	}

	wait := time.Until(resetAt)
	bmRateLimitWaitsTotal.Inc()
	b.logger.Warn().
		Dur("wait", wait).
		Time("reset_at", resetAt).
		Msg("Rate limit budget exhausted, delaying request until window reset")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	b.mu.Lock()
	if b.known && b.remaining <= 0 && !time.Now().Before(b.resetAt) {
		b.remaining = b.limit
	}
	b.mu.Unlock()
	return nil
}
