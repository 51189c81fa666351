package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryStateRepository keeps rate-limit state in process memory. It
// backs deployments without Redis and is the failover target when
// Redis goes away.
type MemoryStateRepository struct {
	limiters sync.Map
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{}
}

// CheckRateLimit feeds a per-client token bucket shaped to admit limit
// requests per window, with bursts up to the full limit.
func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	return r.getLimiter(clientKey, limit, window).Allow(), nil
}

func (r *MemoryStateRepository) getLimiter(clientKey string, limit int, window time.Duration) *rate.Limiter {
	if l, ok := r.limiters.Load(clientKey); ok {
		return l.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit)
	actual, _ := r.limiters.LoadOrStore(clientKey, limiter)
	return actual.(*rate.Limiter)
}

// Ping never fails: process memory is always reachable.
func (r *MemoryStateRepository) Ping(ctx context.Context) error {
	return nil
}
