// Package cache holds per-owner task list snapshots. The cache is advisory:
// callers treat every error as a miss and fall back to the store.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDown     = errors.New("cache unavailable")
	ErrStaleSnapshot = errors.New("snapshot is stale")
)

// TaskCache stores the encoded task list of one owner under one key.
//
// Every Invalidate bumps the owner's generation. A fill reads the generation
// before querying the store and passes it to Set, which refuses with
// ErrStaleSnapshot once the generation has moved, so a list read before a
// write can never be cached after that write's invalidation.
type TaskCache interface {
	Get(ctx context.Context, owner uuid.UUID) ([]byte, error)
	Generation(ctx context.Context, owner uuid.UUID) (int64, error)
	Set(ctx context.Context, owner uuid.UUID, generation int64, snapshot []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, owner uuid.UUID) error
	Health(ctx context.Context) error
}

// TaskListKey is the key holding owner's task list snapshot.
func TaskListKey(prefix string, owner uuid.UUID) string {
	return prefix + "tasks:" + owner.String()
}

// TaskListGenerationKey holds owner's invalidation counter.
func TaskListGenerationKey(prefix string, owner uuid.UUID) string {
	return TaskListKey(prefix, owner) + ":gen"
}

// NoopTaskCache always misses. It stands in when Redis is disabled or was
// unreachable at startup.
type NoopTaskCache struct{}

func (NoopTaskCache) Get(context.Context, uuid.UUID) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (NoopTaskCache) Generation(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (NoopTaskCache) Set(context.Context, uuid.UUID, int64, []byte, time.Duration) error {
	return nil
}

func (NoopTaskCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

func (NoopTaskCache) Health(context.Context) error {
	return ErrCacheDown
}
