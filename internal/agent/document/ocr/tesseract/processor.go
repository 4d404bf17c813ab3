// Package tesseract recognizes text in raster images with the Tesseract
// engine. It needs libtesseract and the configured traineddata at runtime.
package tesseract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/ticket-extractor/internal/agent/document/ocr"
	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

type ProcessOptions struct {
	Languages     []string
	PageSegMode   gosseract.PageSegMode
	MinConfidence float64
	Preprocess    bool
	// Chain replaces the default preprocessing when Preprocess is set.
	Chain         ocr.Chain
}

type Processor struct {
	logger        logger.Logger
	config        *ProcessOptions
	preprocessors ocr.Chain
}

func NewProcessor(log logger.Logger, opts *ProcessOptions) *Processor {
	if opts == nil {
		opts = &ProcessOptions{
			Languages:     []string{"fra"},
			PageSegMode:   gosseract.PSM_AUTO,
			MinConfidence: 0,
			Preprocess:    true,
		}
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"fra"}
	}

	p := &Processor{
		logger: log.Named("tesseract"),
		config: opts,
	}
	if opts.Preprocess {
		p.preprocessors = opts.Chain
		if len(p.preprocessors) == 0 {
			p.preprocessors = ocr.DefaultChain()
		}
	}
	return p
}

// ExtractText runs OCR over the image at path and returns the recognized
// lines joined by newlines. Failures yield an empty extraction.
func (p *Processor) ExtractText(ctx context.Context, path string) models.Extraction {
	log := logger.FromContext(ctx, p.logger).With(logger.String("path", path))

	text, err := p.recognize(ctx, path)
	if err != nil {
		log.Warn("Failed to extract text from image", logger.Error(err))
		return models.Extraction{Method: models.MethodOCR, Err: err}
	}
	if text == "" {
		log.Info("OCR found no text")
	}
	return models.Extraction{Text: text, Method: models.MethodOCR}
}

func (p *Processor) recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// a client per call; gosseract clients are not safe for concurrent use
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(p.config.Languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(p.config.PageSegMode); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := p.loadImage(client, path); err != nil {
		return "", err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		p.logger.Debug("Line boxes unavailable, using plain text", logger.Error(err))
		raw, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("failed to get text: %w", err)
		}
		return ocr.NormalizeText(raw), nil
	}

	lines := make([]ocr.Line, len(boxes))
	for i, box := range boxes {
		lines[i] = ocr.Line{Text: box.Word, Confidence: box.Confidence}
	}
	return ocr.JoinLines(lines, p.config.MinConfidence), nil
}

func (p *Processor) loadImage(client *gosseract.Client, path string) error {
	if len(p.preprocessors) == 0 {
		if err := client.SetImage(path); err != nil {
			return fmt.Errorf("failed to set image: %w", err)
		}
		return nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	processed, err := p.preprocessors.Apply(img)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, processed, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	return nil
}
