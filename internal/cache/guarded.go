package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// GuardedTaskCache wraps a TaskCache with a circuit breaker and counters.
// Only backend failures trip the breaker: misses, stale fills and calls
// abandoned by their caller do not.
type GuardedTaskCache struct {
	inner   TaskCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
}

func NewGuardedTaskCache(inner TaskCache, breakerConfig *CircuitBreakerConfig, metrics *CacheMetrics) *GuardedTaskCache {
	if metrics == nil {
		metrics = NewCacheMetrics()
	}
	return &GuardedTaskCache{
		inner:   inner,
		breaker: NewCircuitBreaker(breakerConfig),
		metrics: metrics,
	}
}

func (g *GuardedTaskCache) Get(ctx context.Context, owner uuid.UUID) ([]byte, error) {
	var data []byte
	miss := false
	err := g.breaker.ExecuteContext(ctx, func() error {
		var err error
		data, err = g.inner.Get(ctx, owner)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})

	switch {
	case err != nil:
		g.metrics.RecordMiss()
		return nil, g.failure(ctx, err)
	case miss:
		g.metrics.RecordMiss()
		return nil, ErrCacheMiss
	}
	g.metrics.RecordHit()
	return data, nil
}

func (g *GuardedTaskCache) Generation(ctx context.Context, owner uuid.UUID) (int64, error) {
	var generation int64
	err := g.breaker.ExecuteContext(ctx, func() error {
		var err error
		generation, err = g.inner.Generation(ctx, owner)
		return err
	})
	if err != nil {
		return 0, g.failure(ctx, err)
	}
	return generation, nil
}

func (g *GuardedTaskCache) Set(ctx context.Context, owner uuid.UUID, generation int64, snapshot []byte, ttl time.Duration) error {
	stale := false
	err := g.breaker.ExecuteContext(ctx, func() error {
		err := g.inner.Set(ctx, owner, generation, snapshot, ttl)
		if errors.Is(err, ErrStaleSnapshot) {
			stale = true
			return nil
		}
		return err
	})

	switch {
	case err != nil:
		return g.failure(ctx, err)
	case stale:
		g.metrics.RecordStale()
		return ErrStaleSnapshot
	}
	g.metrics.RecordSet()
	return nil
}

func (g *GuardedTaskCache) Invalidate(ctx context.Context, owner uuid.UUID) error {
	err := g.breaker.ExecuteContext(ctx, func() error {
		return g.inner.Invalidate(ctx, owner)
	})
	if err != nil {
		return g.failure(ctx, err)
	}
	g.metrics.RecordInvalidate()
	return nil
}

// Health bypasses the breaker so readiness reflects the backend itself.
func (g *GuardedTaskCache) Health(ctx context.Context) error {
	return g.inner.Health(ctx)
}

func (g *GuardedTaskCache) Metrics() *CacheMetrics {
	return g.metrics
}

func (g *GuardedTaskCache) BreakerState() CircuitBreakerState {
	return g.breaker.GetState()
}

// Stats reports counters and breaker state, plus the backend's own stats
// when it exposes any.
func (g *GuardedTaskCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"metrics": g.metrics.Snapshot(),
		"breaker": g.breaker.GetStats(),
	}
	if backend, ok := g.inner.(interface{ Stats() map[string]interface{} }); ok {
		stats["backend"] = backend.Stats()
	}
	return stats
}

func (g *GuardedTaskCache) failure(ctx context.Context, err error) error {
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return fmt.Errorf("%w: %w", ErrCacheDown, err)
	}
	if !callerGaveUp(ctx, err) {
		g.metrics.RecordError()
	}
	return err
}
