package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const defaultMaxTries = 3

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// DelayedKey holds jobs scheduled for later, scored by due time in ms.
func DelayedKey(queue string) string { return queue + ":delayed" }

// DeadKey holds jobs that exhausted their attempts.
func DeadKey(queue string) string { return queue + ":dead" }

type Worker struct {
	client       *redis.Client
	queue        string
	pollInterval time.Duration
	jobTimeout   time.Duration
	log          *slog.Logger
	now          func() time.Time

	mu       sync.RWMutex
	handlers map[JobType]JobHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Queue        string
	PollInterval time.Duration
	JobTimeout   time.Duration
	Logger       *slog.Logger
}

func NewWorker(config WorkerConfig) *Worker {
	pollInterval := config.PollInterval
	if pollInterval < time.Second {
		pollInterval = time.Second
	}
	jobTimeout := config.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		client:       config.RedisClient,
		queue:        config.Queue,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		log:          log.With("component", "worker", "queue", config.Queue),
		now:          time.Now,
		handlers:     make(map[JobType]JobHandler),
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches concurrency loops that run until ctx is cancelled or Stop
// is called.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.log.Info("starting worker", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx)
	}
}

func (w *Worker) Stop() {
	w.log.Info("stopping worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("worker stopped")
}

func (w *Worker) workerLoop(ctx context.Context) {
	defer w.wg.Done()

	for ctx.Err() == nil {
		if err := w.promoteDueJobs(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn("failed to promote delayed jobs", "error", err)
		}
		if err := w.processNextJob(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("error processing job", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// promoteDueJobs moves due delayed jobs onto the queue. ZREM succeeds for
// exactly one caller, so concurrent workers never duplicate a job.
func (w *Worker) promoteDueJobs(ctx context.Context) error {
	cutoff := strconv.FormatInt(w.now().UnixMilli(), 10)
	due, err := w.client.ZRangeByScore(ctx, DelayedKey(w.queue), &redis.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	for _, data := range due {
		removed, err := w.client.ZRem(ctx, DelayedKey(w.queue), data).Result()
		if err != nil {
			return fmt.Errorf("failed to claim delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := w.client.RPush(ctx, w.queue, data).Err(); err != nil {
			return fmt.Errorf("failed to promote delayed job: %w", err)
		}
	}
	return nil
}

func (w *Worker) processNextJob(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.pollInterval, w.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return w.executeJob(ctx, &job)
}

func (w *Worker) executeJob(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	log := w.log.With("job_id", job.ID, "job_type", string(job.Type))
	log.Debug("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	err := handler(jobCtx, job)
	if err == nil {
		log.Debug("job completed")
		return nil
	}

	job.Attempts++
	if job.Attempts < job.MaxTries {
		log.Warn("job failed, retrying", "attempt", job.Attempts, "max_tries", job.MaxTries, "error", err)
		return w.retryJob(ctx, job)
	}

	log.Error("job failed permanently", "attempts", job.Attempts, "error", err)
	return w.moveToDeadQueue(ctx, job, err)
}

// retryJob schedules the next attempt with exponential backoff starting at
// one second.
func (w *Worker) retryJob(ctx context.Context, job *Job) error {
	delay := time.Duration(1<<(job.Attempts-1)) * time.Second
	job.ProcessAt = w.now().Add(delay)

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.ZAdd(ctx, DelayedKey(w.queue), redis.Z{
		Score:  float64(job.ProcessAt.UnixMilli()),
		Member: jobData,
	}).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    w.now().UTC(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(ctx, DeadKey(w.queue), deadJobData).Err()
}

type JobQueue struct {
	client *redis.Client
	queue  string
	now    func() time.Time
}

func NewJobQueue(client *redis.Client, queue string) *JobQueue {
	return &JobQueue{client: client, queue: queue, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(ctx, jobType, payload, q.now())
}

// EnqueueAt pushes the job straight onto the queue when it is already due
// and parks it in the delayed set otherwise.
func (q *JobQueue) EnqueueAt(ctx context.Context, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate job id: %w", err)
	}

	now := q.now()
	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  defaultMaxTries,
		CreatedAt: now.UTC(),
		ProcessAt: processAt.UTC(),
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if processAt.After(now) {
		return q.client.ZAdd(ctx, DelayedKey(q.queue), redis.Z{
			Score:  float64(processAt.UnixMilli()),
			Member: jobData,
		}).Err()
	}
	return q.client.RPush(ctx, q.queue, jobData).Err()
}

// Stats reports queue depths for the metrics endpoint.
func (q *JobQueue) Stats() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats := map[string]interface{}{"queue": q.queue}
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.queue)
	delayed := pipe.ZCard(ctx, DelayedKey(q.queue))
	dead := pipe.LLen(ctx, DeadKey(q.queue))
	if _, err := pipe.Exec(ctx); err != nil {
		stats["error"] = err.Error()
		return stats
	}
	stats["pending"] = pending.Val()
	stats["delayed"] = delayed.Val()
	stats["dead"] = dead.Val()
	return stats
}
