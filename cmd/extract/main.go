package main

import (
	"context"
	"fmt"
	"os"

	"github.com/feichai0017/ticket-extractor/config"
	"github.com/feichai0017/ticket-extractor/internal/app"
	"github.com/feichai0017/ticket-extractor/internal/service/extraction"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

func main() {
	if err := newRootCmd(buildExtractor).Execute(); err != nil {
		os.Exit(1)
	}
}

func buildExtractor(ctx context.Context, configPath string) (extraction.Extractor, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// the terminal belongs to results; logs go to stderr unless configured
	if len(cfg.Log.OutputPaths) == 1 && cfg.Log.OutputPaths[0] == "stdout" {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
	log, err := logger.NewLogger(logger.WithConfig(cfg.Log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	svc, err := app.NewExtractor(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return svc, log, nil
}
