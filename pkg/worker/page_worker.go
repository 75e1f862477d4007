package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/queue"
)

// PageWorker drains the recognition queue. Retry within a page is owned by
// the recognition invoker, so tasks are enqueued with MaxRetry(0) and a
// handler error here means a malformed task, not a recognition failure.
type PageWorker struct {
	BaseWorker
	pageService pages.Service
}

func NewPageWorker(cfg *Config, pageService pages.Service, log logger.Logger) (*PageWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
		},
	)

	w := &PageWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		pageService: pageService,
	}

	w.registerHandlers()
	return w, nil
}

func (w *PageWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypePageProcess, w.handlePageProcess)
}

func (w *PageWorker) handlePageProcess(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	pageID := task.Payload["pageId"]
	ownerID := task.Payload["ownerId"]
	if pageID == "" || ownerID == "" {
		return fmt.Errorf("invalid task %s: missing pageId or ownerId", task.ID)
	}

	w.logger.Info("Processing page task",
		logger.String("taskId", task.ID),
		logger.String("pageId", pageID),
	)

	page, err := w.pageService.ProcessPage(ctx, ownerID, pageID)
	if err != nil {
		// Stale tasks happen: the page may have been retried by hand
		// and already completed before the queue got here. Logged and
		// dropped rather than redelivered.
		w.logger.Warn("Page task skipped",
			logger.String("pageId", pageID),
			logger.Error(err),
		)
		return nil
	}

	w.logger.Info("Page task finished",
		logger.String("pageId", pageID),
		logger.String("status", string(page.Status)),
	)
	return nil
}

func (w *PageWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
