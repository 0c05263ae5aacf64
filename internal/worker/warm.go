package worker

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
)

const JobTypeWarmTaskCache JobType = "warm_task_cache"

type TaskWarmer interface {
	WarmTasks(ctx context.Context, owner uuid.UUID) error
}

// ScheduleWarmup enqueues a refresh of the owner's cached task list.
func (q *JobQueue) ScheduleWarmup(ctx context.Context, owner uuid.UUID) error {
	return q.Enqueue(ctx, JobTypeWarmTaskCache, map[string]interface{}{"owner": owner.String()})
}

func WarmTaskCacheHandler(warmer TaskWarmer) JobHandler {
	return func(ctx context.Context, job *Job) error {
		raw, _ := job.Payload["owner"].(string)
		owner, err := uuid.FromString(raw)
		if err != nil {
			return fmt.Errorf("invalid owner %q: %w", raw, err)
		}
		return warmer.WarmTasks(ctx, owner)
	}
}
