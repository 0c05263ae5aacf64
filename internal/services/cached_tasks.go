package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type TaskService interface {
	GetTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	ListTasks(ctx context.Context, owner uuid.UUID, query models.TaskQuery) ([]models.Task, error)
	CreateTask(ctx context.Context, owner uuid.UUID, input models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, owner, id uuid.UUID, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, owner, id uuid.UUID) error
	WarmTasks(ctx context.Context, owner uuid.UUID) error
}

// CachedTaskService reads task lists through a per-owner cache and drops the
// owner's snapshot after every successful write. The cache never decides an
// outcome: its errors are logged and the store answers instead.
type CachedTaskService struct {
	tasks repositories.TaskRepository
	cache cache.TaskCache
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedTaskService(tasks repositories.TaskRepository, taskCache cache.TaskCache, ttl time.Duration, log *slog.Logger) *CachedTaskService {
	if taskCache == nil {
		taskCache = cache.NoopTaskCache{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedTaskService{tasks: tasks, cache: taskCache, ttl: ttl, log: log}
}

func (s *CachedTaskService) GetTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	data, err := s.cache.Get(ctx, owner)
	if err == nil {
		var cached []models.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.log.WarnContext(ctx, "discarding undecodable task snapshot", "owner", owner.String())
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WarnContext(ctx, "task cache read failed", "owner", owner.String(), "error", err)
	}

	return s.load(ctx, owner)
}

// load reads the owner's tasks from the store and refreshes the snapshot.
// The generation is read before the store so that a write committed while
// the list is in flight makes the fill stale instead of overwriting it.
func (s *CachedTaskService) load(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	cacheCtx := context.WithoutCancel(ctx)
	generation, genErr := s.cache.Generation(cacheCtx, owner)

	tasks, err := s.tasks.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.log.WarnContext(ctx, "task cache generation read failed", "owner", owner.String(), "error", genErr)
		return tasks, nil
	}

	snapshot, err := json.Marshal(tasks)
	if err != nil {
		s.log.WarnContext(ctx, "failed to encode task snapshot", "owner", owner.String(), "error", err)
		return tasks, nil
	}
	switch err := s.cache.Set(cacheCtx, owner, generation, snapshot, s.ttl); {
	case errors.Is(err, cache.ErrStaleSnapshot):
		s.log.DebugContext(ctx, "dropping stale task snapshot", "owner", owner.String())
	case err != nil:
		s.log.WarnContext(ctx, "task cache write failed", "owner", owner.String(), "error", err)
	}
	return tasks, nil
}

// ListTasks filters and sorts after the cache, so snapshots stay keyed by
// owner alone.
func (s *CachedTaskService) ListTasks(ctx context.Context, owner uuid.UUID, query models.TaskQuery) ([]models.Task, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	tasks, err := s.GetTasks(ctx, owner)
	if err != nil {
		return nil, err
	}
	return query.Apply(tasks), nil
}

func (s *CachedTaskService) CreateTask(ctx context.Context, owner uuid.UUID, input models.TaskInput) (*models.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	task, err := input.NewTask(owner)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	return &task, nil
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, owner, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, owner, id, patch.Changes())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.invalidate(ctx, owner)
	return nil
}

// WarmTasks refreshes the owner's snapshot from the store.
func (s *CachedTaskService) WarmTasks(ctx context.Context, owner uuid.UUID) error {
	_, err := s.load(ctx, owner)
	return err
}

// invalidate runs after the store committed, so it must not be skipped
// because the request went away.
func (s *CachedTaskService) invalidate(ctx context.Context, owner uuid.UUID) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), owner); err != nil {
		s.log.WarnContext(ctx, "task cache invalidation failed", "owner", owner.String(), "error", err)
	}
}
