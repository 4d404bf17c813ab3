package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

// Processor reads the embedded text layer of a PDF.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{
		logger: log.Named("pdf"),
	}
}

// ExtractText concatenates the text of every page in page order. A file with
// no text layer yields an empty extraction. Read and parse failures are logged
// and reported through Extraction.Err.
func (p *Processor) ExtractText(ctx context.Context, path string) models.Extraction {
	log := logger.FromContext(ctx, p.logger).With(logger.String("path", path))

	text, pages, err := p.readText(ctx, path)
	if err != nil {
		log.Warn("Failed to extract text from PDF", logger.Error(err))
		return models.Extraction{Method: models.MethodPDFText, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		log.Info("PDF has no text layer", logger.Int("pages", pages))
		return models.Extraction{Method: models.MethodPDFText}
	}

	log.Debug("Extracted PDF text",
		logger.Int("pages", pages),
		logger.Int("chars", len(text)),
	)
	return models.Extraction{Text: text, Method: models.MethodPDFText}
}

func (p *Processor) readText(ctx context.Context, path string) (text string, pages int, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pages = reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", pages, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", pages, fmt.Errorf("failed to get text from page %d: %w", i, err)
		}
		if pageText == "" {
			continue
		}

		sb.WriteString(pageText)
		if !strings.HasSuffix(pageText, "\n") {
			sb.WriteByte('\n')
		}
	}

	return sb.String(), pages, nil
}
