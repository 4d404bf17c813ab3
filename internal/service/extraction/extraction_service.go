package extraction

import (
	"context"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

// Extractor runs the whole file-to-structured-data pipeline for one file.
type Extractor interface {
	// Process classifies the file at path, recovers its text and asks model
	// (or the default model when empty) to structure it.
	Process(ctx context.Context, path, model string) (*models.Result, error)
}

// SchemaValidator reports schema violations of a structured result.
type SchemaValidator interface {
	Validate(data []byte) []string
}
