package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rstamps01/image-to-text/api/handlers"
	"github.com/rstamps01/image-to-text/api/routes"
	cfg "github.com/rstamps01/image-to-text/config"
	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
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

	pageService, err := pages.GetService(context.Background(), appCfg, log)
	if err != nil {
		log.Fatal("Failed to init page service", logger.Error(err))
	}

	h := handlers.NewHandlers(pageService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    appCfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", appCfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
