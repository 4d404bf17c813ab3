package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feichai0017/ticket-extractor/config"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/ocr"
	"github.com/feichai0017/ticket-extractor/internal/agent/document/textract"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

func TestLanguages(t *testing.T) {
	require.Equal(t, []string{"fra"}, Languages("fra"))
	require.Equal(t, []string{"fra", "eng"}, Languages(" fra + eng "))
	require.Empty(t, Languages(""))
}

func TestPreprocessChain(t *testing.T) {
	cfg := config.Default().OCR

	chain, err := PreprocessChain(cfg)
	require.NoError(t, err)
	require.Len(t, chain, len(ocr.DefaultSteps))

	cfg.Preprocessors = []string{"grayscale", "denoise", "binarize"}
	chain, err = PreprocessChain(cfg)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	require.IsType(t, &ocr.DenoiseProcessor{}, chain[1])
	require.IsType(t, &ocr.BinarizationProcessor{}, chain[2])

	cfg.Preprocess = false
	chain, err = PreprocessChain(cfg)
	require.NoError(t, err)
	require.Nil(t, chain)
}

func TestNewImageExtractorRejectsUnknownStep(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Preprocessors = []string{"grayscale", "deskew"}

	_, err := NewImageExtractor(context.Background(), cfg, logger.NewNop())

	require.ErrorContains(t, err, "invalid ocr.preprocessors")
}

func TestNewImageExtractorTextract(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Engine = config.EngineTextract
	cfg.Textract.Region = "eu-west-3"
	cfg.Textract.AccessKey = "AKIA"
	cfg.Textract.SecretKey = "secret"

	images, err := NewImageExtractor(context.Background(), cfg, logger.NewNop())

	require.NoError(t, err)
	require.IsType(t, &textract.Processor{}, images)
}

func TestNewImageExtractorUnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Engine = "abbyy"

	_, err := NewImageExtractor(context.Background(), cfg, logger.NewNop())

	require.ErrorContains(t, err, "abbyy")
}

func TestNewExtractor(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Normalize.TempDir = t.TempDir()

	svc, err := NewExtractor(context.Background(), cfg, logger.NewNop())

	require.NoError(t, err)
	require.NotNil(t, svc)
}
