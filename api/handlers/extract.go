package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/internal/service/extraction"
	"github.com/feichai0017/ticket-extractor/internal/utils/validator"
	"github.com/feichai0017/ticket-extractor/pkg/converters"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/storage"
)

// multipart framing allowance on top of the file size cap
const formOverhead = 1 << 20

const HeaderSchemaWarnings = "X-Schema-Warnings"

type HandlerConfig struct {
	MaxUploadBytes  int64
	ExposeTraceback bool
}

type ExtractHandler struct {
	service   extraction.Extractor
	storage   storage.Storage
	validator *validator.DocumentValidator
	logger    logger.Logger
	config    *HandlerConfig
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Traceback string `json:"traceback,omitempty"`
}

func NewExtractHandler(
	service extraction.Extractor,
	store storage.Storage,
	uploadValidator *validator.DocumentValidator,
	log logger.Logger,
	cfg *HandlerConfig,
) *ExtractHandler {
	if cfg == nil {
		cfg = &HandlerConfig{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = validator.DefaultMaxFileSize
	}
	return &ExtractHandler{
		service:   service,
		storage:   store,
		validator: uploadValidator,
		logger:    log.Named("http"),
		config:    cfg,
	}
}

// Extract accepts a multipart "file" upload and an optional "model" field,
// and answers with the structured ticket JSON or the model's raw text.
func (h *ExtractHandler) Extract(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.logger)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes+formOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.handleError(c, http.StatusRequestEntityTooLarge, "File too large", err)
		case errors.Is(err, http.ErrMissingFile) && h.hasBlankFilePart(c):
			h.handleError(c, http.StatusBadRequest, "No file selected", nil)
		case errors.Is(err, http.ErrMissingFile):
			h.handleError(c, http.StatusBadRequest, "No file part in the request", nil)
		default:
			h.handleError(c, http.StatusBadRequest, "Invalid multipart form", err)
		}
		return
	}

	check, err := h.validator.ValidateFile(header)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	if !check.IsValid {
		first := check.Errors[0]
		status := http.StatusBadRequest
		if first.Code == validator.CodeFileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		h.handleError(c, status, first.Message, nil)
		return
	}

	model := strings.TrimSpace(c.PostForm("model"))

	src, err := header.Open()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	id, err := h.storage.Store(ctx, src, header.Filename)
	src.Close()
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to save upload", err)
		return
	}
	defer func() {
		if err := h.storage.Delete(ctx, id); err != nil {
			log.Error("Failed to delete upload", logger.String("id", id), logger.Error(err))
		}
	}()

	path, err := h.storage.Path(id)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to save upload", err)
		return
	}

	log.Info("Processing upload",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
		logger.String("sha256", check.FileInfo.Hash),
		logger.String("model", model),
	)

	result, err := h.service.Process(ctx, path, model)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := converters.FromResult(result)
	if len(resp.Warnings) > 0 {
		c.Header(HeaderSchemaWarnings, strconv.Itoa(len(resp.Warnings)))
	}
	c.Data(http.StatusOK, resp.ContentType, resp.Body)
}

// hasBlankFilePart reports a "file" part sent without a filename, which the
// multipart reader files under values instead of files.
func (h *ExtractHandler) hasBlankFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func (h *ExtractHandler) handleServiceError(c *gin.Context, err error) {
	var appErr *models.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, models.ErrUnsupportedFormat), errors.Is(err, models.ErrInvalidInput):
		h.handleError(c, http.StatusBadRequest, message, nil)
	case errors.Is(err, models.ErrNoTextExtracted):
		h.handleError(c, http.StatusUnprocessableEntity, message, nil)
	default:
		h.handleError(c, http.StatusInternalServerError, message, err)
	}
}

func (h *ExtractHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	log := logger.FromContext(c.Request.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Warn(message, fields...)
	}

	response := ErrorResponse{Error: message}
	if err != nil && status >= http.StatusInternalServerError && h.config.ExposeTraceback {
		response.Traceback = fmt.Sprintf("%+v", err)
	}
	c.AbortWithStatusJSON(status, response)
}
