package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/ticket-extractor/api/handlers"
	"github.com/feichai0017/ticket-extractor/api/routes"
	"github.com/feichai0017/ticket-extractor/config"
	"github.com/feichai0017/ticket-extractor/internal/app"
	"github.com/feichai0017/ticket-extractor/internal/utils/validator"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.WithConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploads, err := storage.NewStorage(storage.Config{
		Type: storage.StorageTypeLocal,
		Dir:  cfg.Server.UploadDir,
	}, log)
	if err != nil {
		log.Fatal("Failed to create upload storage", logger.Error(err))
	}
	go sweepUploads(ctx, uploads, cfg.Server.UploadRetention, log)

	svc, err := app.NewExtractor(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build extraction pipeline", logger.Error(err))
	}

	h := handlers.NewHandlers(
		svc,
		uploads,
		validator.NewDocumentValidator(log, &validator.ValidatorConfig{MaxFileSize: cfg.Server.MaxUploadBytes}),
		log,
		&handlers.HandlerConfig{
			MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			ExposeTraceback: cfg.Server.ExposeTraceback,
		},
	)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr), logger.String("model", cfg.LLM.DefaultModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
	log.Info("Server exited")
}

// sweepUploads removes staged uploads left behind by crashed requests.
func sweepUploads(ctx context.Context, s storage.Storage, retention time.Duration, log logger.Logger) {
	if retention <= 0 {
		return
	}
	sweep := func() {
		if err := s.CleanupBefore(ctx, time.Now().Add(-retention)); err != nil {
			log.Warn("Failed to clean up uploads", logger.Error(err))
		}
	}

	sweep()
	ticker := time.NewTicker(retention / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
