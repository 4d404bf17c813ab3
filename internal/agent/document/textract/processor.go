// Package textract recognizes text in raster images with AWS Textract.
package textract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/disintegration/imaging"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

// API is the subset of the Textract client used here.
type API interface {
	DetectDocumentText(ctx context.Context, in *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
	AnalyzeDocument(ctx context.Context, in *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

type Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
	// AnalyzeForms appends "key: value" lines from detected form fields.
	AnalyzeForms bool
}

type Processor struct {
	client API
	logger logger.Logger
	config *Config
}

// NewProcessor builds a Textract client. Static credentials are used when
// both keys are set, otherwise the default AWS chain applies.
func NewProcessor(ctx context.Context, cfg *Config, log logger.Logger) (*Processor, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg, log), nil
}

func NewWithClient(client API, cfg *Config, log logger.Logger) *Processor {
	return &Processor{
		client: client,
		logger: log.Named("textract"),
		config: cfg,
	}
}

// ExtractText sends the image bytes to Textract and joins the detected LINE
// blocks with newlines. Failures yield an empty extraction.
func (p *Processor) ExtractText(ctx context.Context, path string) models.Extraction {
	log := logger.FromContext(ctx, p.logger).With(logger.String("path", path))

	text, err := p.detect(ctx, path)
	if err != nil {
		log.Warn("Failed to extract text with Textract", logger.Error(err))
		return models.Extraction{Method: models.MethodTextract, Err: err}
	}
	if text == "" {
		log.Info("Textract found no text")
	}
	return models.Extraction{Text: text, Method: models.MethodTextract}
}

func (p *Processor) detect(ctx context.Context, path string) (string, error) {
	data, err := documentBytes(path)
	if err != nil {
		return "", err
	}
	doc := &types.Document{Bytes: data}

	if p.config.AnalyzeForms {
		out, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
			Document:     doc,
			FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
		})
		if err != nil {
			return "", fmt.Errorf("failed to analyze document: %w", err)
		}
		lines := p.lines(out.Blocks)
		lines = append(lines, p.formLines(out.Blocks)...)
		return strings.Join(lines, "\n"), nil
	}

	out, err := p.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{Document: doc})
	if err != nil {
		return "", fmt.Errorf("failed to detect document text: %w", err)
	}
	return strings.Join(p.lines(out.Blocks), "\n"), nil
}

// documentBytes reads the file, transcoding formats Textract rejects to PNG.
func documentBytes(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".pdf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return data, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Processor) lines(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if block.Confidence != nil && *block.Confidence < p.config.MinConfidence {
			continue
		}
		if text := strings.TrimSpace(*block.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func (p *Processor) formLines(blocks []types.Block) []string {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	var out []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeKeyValueSet || len(block.EntityTypes) == 0 || block.EntityTypes[0] != types.EntityTypeKey {
			continue
		}
		key := childText(block, byID)
		value := ""
		for _, rel := range block.Relationships {
			if rel.Type != types.RelationshipTypeValue {
				continue
			}
			for _, id := range rel.Ids {
				if v, ok := byID[id]; ok {
					value = childText(v, byID)
				}
			}
		}
		if key != "" && value != "" {
			out = append(out, fmt.Sprintf("%s: %s", key, value))
		}
	}
	return out
}

func childText(block types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range block.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			if child, ok := byID[id]; ok && child.Text != nil {
				words = append(words, *child.Text)
			}
		}
	}
	return strings.Join(words, " ")
}
