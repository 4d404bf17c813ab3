package handlers

import (
	"github.com/feichai0017/ticket-extractor/internal/service/extraction"
	"github.com/feichai0017/ticket-extractor/internal/utils/validator"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/storage"
)

type Handlers struct {
	Extract *ExtractHandler
	Health  *HealthHandler
}

func NewHandlers(
	extractionService extraction.Extractor,
	store storage.Storage,
	uploadValidator *validator.DocumentValidator,
	logger logger.Logger,
	cfg *HandlerConfig,
) *Handlers {
	return &Handlers{
		Extract: NewExtractHandler(extractionService, store, uploadValidator, logger, cfg),
		Health:  NewHealthHandler(),
	}
}
