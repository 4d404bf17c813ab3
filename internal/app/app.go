// Package app wires the extraction pipeline from configuration. Both the HTTP
// server and the command line tool start from here.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/ticket-extractor/config"
	"github.com/feichai0017/ticket-extractor/internal/agent/document"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/image"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/ocr"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/ocr/tesseract"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/pdf"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/textract"
	"github.com/feichai0017/ticket-extractor/internal/llm"
	"github.com/feichai0017/ticket-extractor/internal/llm/openai"
	"github.com/feichai0017/ticket-extractor/internal/service/extraction"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

// NewExtractor builds the full pipeline. cfg is expected to be validated.
func NewExtractor(ctx context.Context, cfg *config.Config, log logger.Logger) (*extraction.Service, error) {
	images, err := NewImageExtractor(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	schema, err := llm.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to compile ticket schema: %w", err)
	}

	completer := openai.NewClient(openai.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	}, log)

	svc, err := extraction.NewService(extraction.Dependencies{
		Normalizer: image.NewNormalizer(log, &image.Options{
			TempDir:     cfg.Normalize.TempDir,
			JPEGQuality: cfg.Normalize.JPEGQuality,
		}),
		Documents: pdf.NewProcessor(log),
		Images:    images,
		Completer: completer,
		Validator: schema,
	}, log, &extraction.ServiceConfig{
		DefaultModel:    cfg.LLM.DefaultModel,
		DisableJSONMode: !cfg.LLM.JSONMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction service: %w", err)
	}
	return svc, nil
}

// NewImageExtractor selects the OCR engine named in cfg.
func NewImageExtractor(ctx context.Context, cfg *config.Config, log logger.Logger) (document.TextExtractor, error) {
	switch cfg.OCR.Engine {
	case config.EngineTesseract:
		chain, err := PreprocessChain(cfg.OCR)
		if err != nil {
			return nil, err
		}
		return tesseract.NewProcessor(log, &tesseract.ProcessOptions{
			Languages:     Languages(cfg.OCR.Language),
			PageSegMode:   gosseract.PageSegMode(cfg.OCR.PageSegMode),
			MinConfidence: cfg.OCR.MinConfidence,
			Preprocess:    cfg.OCR.Preprocess,
			Chain:         chain,
		}), nil
	case config.EngineTextract:
		p, err := textract.NewProcessor(ctx, &textract.Config{
			Region:        cfg.Textract.Region,
			Endpoint:      cfg.Textract.Endpoint,
			AccessKey:     cfg.Textract.AccessKey,
			SecretKey:     cfg.Textract.SecretKey,
			MinConfidence: float32(cfg.Textract.MinConfidence),
			AnalyzeForms:  cfg.Textract.AnalyzeForms,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create textract processor: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCR.Engine)
	}
}

// PreprocessChain builds the configured OCR preprocessing steps. It returns
// nil when preprocessing is off.
func PreprocessChain(cfg config.OCRConfig) (ocr.Chain, error) {
	if !cfg.Preprocess {
		return nil, nil
	}
	steps := cfg.Preprocessors
	if len(steps) == 0 {
		steps = ocr.DefaultSteps
	}
	chain, err := ocr.NewChain(steps)
	if err != nil {
		return nil, fmt.Errorf("invalid ocr.preprocessors: %w", err)
	}
	return chain, nil
}

// Languages splits a tesseract language list such as "fra+eng".
func Languages(list string) []string {
	var langs []string
	for _, l := range strings.Split(list, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}
