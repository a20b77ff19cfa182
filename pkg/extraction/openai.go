package extraction

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// OpenAIExtractor extracts candidates through the OpenAI chat completion API
type OpenAIExtractor struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    ectologger.Logger
}

// NewOpenAIExtractor builds an extractor against OpenAI or any API-compatible
// endpoint when baseURL is set.
func NewOpenAIExtractor(apiKey, baseURL, model string, maxTokens int, logger ectologger.Logger) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIExtractor{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, recordType models.RecordType, text string) ([]models.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "extraction.OpenAIExtractor.Extract")
	defer span.End()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(recordType, text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	candidates, err := ParseCandidates(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("model", e.model).Error("unparseable extraction response")
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"model":       e.model,
		"record_type": recordType,
		"candidates":  len(candidates),
	}).Debug("extraction completed")

	return candidates, nil
}
