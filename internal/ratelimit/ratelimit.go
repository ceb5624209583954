// Package ratelimit caps how many model requests one digest run may make and
// how fast it may make them.
package ratelimit

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/deusflow/ainews/internal/logger"
)

// ErrBudgetExhausted is returned once the per-run request cap is reached.
var ErrBudgetExhausted = errors.New("model request budget exhausted")

// Budget counts model requests against a per-run cap and paces them with a
// token bucket. A zero cap or rate means unlimited.
type Budget struct {
	mu      sync.Mutex
	used    int
	denied  int
	max     int
	limiter *rate.Limiter
	log     logger.Logger
}

// NewBudget creates a budget allowing maxRequests requests in total and
// perMinute requests per minute.
func NewBudget(log logger.Logger, maxRequests, perMinute int) *Budget {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	}
	return &Budget{
		max:     maxRequests,
		limiter: limiter,
		log:     log.With(logger.Component("ratelimit")),
	}
}

// CanUse reports whether another request fits the cap.
func (b *Budget) CanUse() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.max <= 0 || b.used < b.max
}

// Acquire reserves one request, waiting for the rate limiter if needed.
func (b *Budget) Acquire(ctx context.Context) error {
	b.mu.Lock()
	if b.max > 0 && b.used >= b.max {
		b.denied++
		b.mu.Unlock()
		b.log.Warn("Model request budget reached",
			logger.Int("used", b.max),
			logger.Int("limit", b.max),
		)
		return ErrBudgetExhausted
	}
	b.used++
	used := b.used
	b.mu.Unlock()

	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	b.log.Debug("Model request", logger.Int("used", used), logger.Int("limit", b.max))
	return nil
}

type Stats struct {
	Used   int
	Limit  int
	Denied int
}

func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Used: b.used, Limit: b.max, Denied: b.denied}
}
