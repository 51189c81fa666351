package repository

import (
	"context"
	"sync/atomic"
	"time"

	"skladik/internal/domain"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the failover waits before probing a
// failed primary again.
const recoveryInterval = time.Minute

// FailoverStateRepository serves from the primary until it fails, then
// switches to the fallback and periodically probes the primary.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed probe
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientKey, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	} else if r.shouldRetry() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientKey, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.CheckRateLimit(ctx, clientKey, limit, window)
}

// Ping reports readiness: healthy if either side can serve.
func (r *FailoverStateRepository) Ping(ctx context.Context) error {
	if !r.isDown.Load() {
		if err := r.primary.Ping(ctx); err == nil {
			return nil
		}
	}
	return r.fallback.Ping(ctx)
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverStateRepository) shouldRetry() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}
