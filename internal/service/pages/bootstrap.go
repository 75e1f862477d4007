package pages

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	cfg "github.com/rstamps01/image-to-text/config"
	"github.com/rstamps01/image-to-text/internal/recognize"
	"github.com/rstamps01/image-to-text/internal/store"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/queue"
	"github.com/rstamps01/image-to-text/pkg/storage"
)

var (
	serviceOnce sync.Once
	serviceInst Service
	serviceErr  error
)

// GetService wires the full pipeline from environment and file
// configuration: redis record store, object storage, recognition provider
// behind the retry invoker, and the task queue. Both binaries share it.
func GetService(ctx context.Context, app *cfg.AppConfig, log logger.Logger) (Service, error) {
	serviceOnce.Do(func() {
		serviceInst, serviceErr = buildService(ctx, app, log)
	})
	return serviceInst, serviceErr
}

// retryAttempts guards the int-to-uint conversion: a non-positive setting
// yields zero, which the invoker replaces with its default instead of
// wrapping around to effectively unlimited retries.
func retryAttempts(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

func buildService(ctx context.Context, app *cfg.AppConfig, log logger.Logger) (Service, error) {
	redisCfg := cfg.GetRedisConfig()
	client := redis.NewClient(&redis.Options{
		Addr: redisCfg.Addr,
		DB:   redisCfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	objects, err := storage.NewStorage(cfg.GetStorageConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	recCfg := cfg.GetRecognizerConfig()
	provider, err := recognize.NewProvider(ctx, recCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init recognizer: %w", err)
	}

	invoker := recognize.NewInvoker(provider, &recognize.InvokerConfig{
		Attempts:     retryAttempts(recCfg.MaxAttempts),
		InitialDelay: recCfg.InitialDelay,
	}, log)

	q := queue.NewAsynqQueue(&queue.Config{
		RedisAddr:      redisCfg.Addr,
		RedisDB:        redisCfg.DB,
		ProcessTimeout: app.Queue.ProcessTimeout,
	})

	svc := NewService(
		store.NewRedisStore(client),
		objects,
		invoker,
		q,
		log,
		&ServiceConfig{
			MaxFileSize:   app.Upload.MaxFileSize,
			AllowedTypes:  []string{".jpg", ".jpeg", ".png", ".tiff"},
			MaxDimension:  app.Upload.MaxDimension,
			QueuePriority: 2,
		},
	)
	return svc, nil
}
