package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/rstamps01/image-to-text/config"
	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	appCfg, err := cfg.LoadAppConfig(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.Logger.Level),
		logger.WithEncoding(appCfg.Logger.Encoding),
		logger.WithOutputPaths(appCfg.Logger.OutputPaths),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pageService, err := pages.GetService(ctx, appCfg, log)
	if err != nil {
		log.Error("Failed to init page service", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := cfg.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: appCfg.Worker.Concurrency,
		Queues:      appCfg.Worker.Queues,
	}

	pageWorker, err := worker.NewPageWorker(workerCfg, pageService, log)
	if err != nil {
		log.Error("Failed to create page worker", logger.Error(err))
		os.Exit(1)
	}

	if err := pageWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	pageWorker.Stop()
	log.Info("Worker stopped")
}
