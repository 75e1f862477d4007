package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types routed through the queue.
const (
	TaskTypePageProcess = "page:process"
)

// Queue enqueues background work.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
}

// Task is the envelope carried through the queue.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Payload   map[string]string `json:"payload"`
	CreatedAt time.Time         `json:"createdAt"`
}

// AsynqQueue is the redis-backed Queue.
type AsynqQueue struct {
	client *asynq.Client
	cfg    *Config
}

// Config defines queue configuration.
type Config struct {
	RedisAddr      string
	RedisDB        int
	ProcessTimeout time.Duration
}

func NewAsynqQueue(cfg *Config) *AsynqQueue {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Minute
	}

	return &AsynqQueue{
		client: client,
		cfg:    cfg,
	}
}

// Enqueue submits a task. Page-process tasks disable asynq-level retry:
// the recognition invoker owns retries, and terminal failures are recorded
// in page state rather than redelivered.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.TaskID(task.ID),
		asynq.MaxRetry(0),
		asynq.Timeout(q.cfg.ProcessTimeout),
	}

	switch task.Priority {
	case 1:
		opts = append(opts, asynq.Queue("critical"))
	case 2:
		opts = append(opts, asynq.Queue("default"))
	default:
		opts = append(opts, asynq.Queue("low"))
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}
