// Package openai provides the AI-assisted intent extraction pass over any
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/intent"
	"github.com/huythanhnguyen/ddv/internal/metrics"
)

// One instruction, one schema. Budget/brand/feature extraction ride the
// same call instead of separate per-field requests.
const extractionInstruction = `You turn Vietnamese or English phone-shopping queries into JSON.
Respond with a single JSON object and nothing else:
{"search_query": "rewritten concise search text",
 "budget_min": minimum budget in VND or null,
 "budget_max": maximum budget in VND or null,
 "brands": ["lowercase brand names mentioned"],
 "features": ["feature tags among: camera, gaming, livestream, battery, design, security"]}
Omit nothing; use null or [] for unknown fields. Do not invent brands or budgets.`

// Extractor calls a chat completion endpoint for structured intent extraction.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible extraction provider.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Extract implements interpret.Extractor. The response must be well-formed
// JSON matching the extraction schema; anything else is discarded with
// domain.ErrExtractorUnavailable.
func (e *Extractor) Extract(ctx context.Context, text string) (*intent.Extraction, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionInstruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty extraction response: %w", domain.ErrExtractorUnavailable)
	}

	var ext intent.Extraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &ext); err != nil {
		metrics.ExtractorRequestsTotal.WithLabelValues("invalid_json").Inc()
		e.logger.Debug("Extraction response is not valid JSON",
			zap.String("model", e.model), zap.Error(err))
		return nil, fmt.Errorf("malformed extraction response: %w", domain.ErrExtractorUnavailable)
	}

	e.logger.Debug("Extraction completed",
		zap.String("model", e.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return &ext, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrExtractorUnavailable so the
// interpreter degrades uniformly.
func parseAPIError(err error) error {
	wrap := domain.ErrExtractorUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("extraction request failed: %w", wrap)
}
