package document

import (
	"context"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

// TextExtractor recovers text from a file on disk. Implementations never
// return an error: failures are reported through Extraction.Err and an empty
// Text so the caller can fall back.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) models.Extraction
}

// Normalizer turns a raster image into a temporary single-page PDF. ok is
// false when no artifact could be produced.
type Normalizer interface {
	Normalize(ctx context.Context, path string) (doc *models.NormalizedDocument, ok bool)
}

// TextExtractorFunc adapts a function to TextExtractor.
type TextExtractorFunc func(ctx context.Context, path string) models.Extraction

func (f TextExtractorFunc) ExtractText(ctx context.Context, path string) models.Extraction {
	return f(ctx, path)
}
