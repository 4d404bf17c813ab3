package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/feichai0017/ticket-extractor/internal/agent"
	"github.com/feichai0017/ticket-extractor/internal/agent/document"
	"github.com/feichai0017/ticket-extractor/internal/llm"
	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

var _ Extractor = (*Service)(nil)

// Dependencies are the collaborators of the pipeline. Validator is optional.
type Dependencies struct {
	Normalizer document.Normalizer
	Documents  document.TextExtractor
	Images     document.TextExtractor
	Completer  llm.Completer
	Validator  SchemaValidator
}

type ServiceConfig struct {
	DefaultModel string
	// DisableJSONMode stops asking the provider for a JSON object response,
	// for models that reject response_format.
	DisableJSONMode bool
}

type Service struct {
	normalizer document.Normalizer
	documents  document.TextExtractor
	images     document.TextExtractor
	completer  llm.Completer
	validator  SchemaValidator
	logger     logger.Logger
	config     *ServiceConfig
}

func NewService(deps Dependencies, log logger.Logger, cfg *ServiceConfig) (*Service, error) {
	switch {
	case deps.Normalizer == nil:
		return nil, fmt.Errorf("normalizer is required")
	case deps.Documents == nil:
		return nil, fmt.Errorf("document text extractor is required")
	case deps.Images == nil:
		return nil, fmt.Errorf("image text extractor is required")
	case deps.Completer == nil:
		return nil, fmt.Errorf("completer is required")
	}

	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = llm.DefaultModel
	}

	return &Service{
		normalizer: deps.Normalizer,
		documents:  deps.Documents,
		images:     deps.Images,
		completer:  deps.Completer,
		validator:  deps.Validator,
		logger:     log.Named("extraction"),
		config:     cfg,
	}, nil
}

func (s *Service) Process(ctx context.Context, path, model string) (*models.Result, error) {
	log := logger.FromContext(ctx, s.logger).With(logger.String("path", path))
	start := time.Now()

	var extracted models.Extraction
	switch agent.Classify(path) {
	case models.RasterImage:
		extracted = s.extractImage(ctx, log, path)
	case models.PdfDocument:
		extracted = s.documents.ExtractText(ctx, path)
	default:
		ext := agent.Extension(path)
		log.Warn("Unsupported file format", logger.String("extension", ext))
		return nil, models.UnsupportedFormat(ext)
	}

	// a cancelled request fails every extractor; that is not a text-less file
	if err := ctx.Err(); err != nil {
		log.Warn("Extraction cancelled", logger.Error(err))
		return nil, err
	}

	if extracted.Empty() {
		log.Warn("No text extracted", logger.String("method", string(extracted.Method)))
		return nil, models.NewAppError("no_text", "No text was extracted from the file", models.ErrNoTextExtracted)
	}

	if model == "" {
		model = s.config.DefaultModel
	}
	prompt := llm.BuildPrompt(models.ExtractionRequest{Text: extracted.Text, Model: model})
	prompt.JSONMode = !s.config.DisableJSONMode

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, models.ErrProvider) {
			err = pkgerrors.WithStack(fmt.Errorf("%w: %w", models.ErrProvider, err))
		}
		return nil, err
	}

	result := llm.Sanitize(raw)
	result.Method = extracted.Method
	result.Model = prompt.Model

	if result.IsStructured() && s.validator != nil {
		if warnings := s.validator.Validate(result.JSON); len(warnings) > 0 {
			log.Warn("Structured result does not match ticket schema", logger.Strings("violations", warnings))
			result.Warnings = warnings
		}
	}
	if !result.IsStructured() {
		log.Warn("Model response is not JSON, returning text")
	}

	log.Info("File processed",
		logger.String("method", string(result.Method)),
		logger.String("kind", string(result.Kind)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return &result, nil
}

// extractImage reads the text layer of the normalized PDF first and falls
// back to OCR on the original image. The artifact is removed before return.
func (s *Service) extractImage(ctx context.Context, log logger.Logger, path string) models.Extraction {
	doc, ok := s.normalizer.Normalize(ctx, path)
	if !ok {
		log.Info("Image conversion failed, using direct image OCR")
		return s.images.ExtractText(ctx, path)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Error("Failed to remove temporary PDF", logger.Error(err))
		}
	}()

	extracted := s.documents.ExtractText(ctx, doc.Path)
	if !extracted.Empty() {
		return extracted
	}

	log.Info("No text extracted from PDF, trying direct image OCR")
	return s.images.ExtractText(ctx, path)
}
