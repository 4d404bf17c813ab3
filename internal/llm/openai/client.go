// Package openai talks to any OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	pkgerrors "github.com/pkg/errors"

	"github.com/feichai0017/ticket-extractor/internal/llm"
	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

var _ llm.Completer = (*Client)(nil)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	HTTPClient *http.Client
}

func (c *Config) options() []option.RequestOption {
	url := strings.TrimRight(c.BaseURL, "/") + "/"

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	options := []option.RequestOption{
		option.WithBaseURL(url),
		option.WithHTTPClient(client),
		// a failed call is reported, never retried
		option.WithMaxRetries(0),
	}
	if c.APIKey != "" {
		options = append(options, option.WithAPIKey(c.APIKey))
	}
	if c.Timeout > 0 {
		options = append(options, option.WithRequestTimeout(c.Timeout))
	}
	return options
}

type Client struct {
	completions openai.ChatCompletionService
	logger      logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		completions: openai.NewChatCompletionService(cfg.options()...),
		logger:      log.Named("openai"),
	}
}

// Complete sends one system and one user message and returns the content of
// the first choice. Any transport or API failure wraps models.ErrProvider.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: prompt.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	}
	if prompt.JSONMode {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	log := logger.FromContext(ctx, c.logger).With(logger.String("model", prompt.Model))
	start := time.Now()

	completion, err := c.completions.New(ctx, req)
	if err != nil {
		log.Error("Chat completion failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
		return "", convertError(err)
	}

	if len(completion.Choices) == 0 {
		return "", pkgerrors.WithStack(fmt.Errorf("%w: response has no choices", models.ErrProvider))
	}

	content := completion.Choices[0].Message.Content
	log.Info("Chat completion received",
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("chars", len(content)),
		logger.Int64("total_tokens", completion.Usage.TotalTokens),
	)
	return content, nil
}

func convertError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return pkgerrors.WithStack(fmt.Errorf("%w: status %d: %w", models.ErrProvider, apierr.StatusCode, err))
	}
	return pkgerrors.WithStack(fmt.Errorf("%w: %w", models.ErrProvider, err))
}
