package extraction

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// AnthropicExtractor extracts candidates through the Anthropic messages API
type AnthropicExtractor struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    ectologger.Logger
}

// NewAnthropicExtractor builds an extractor against the Anthropic API
func NewAnthropicExtractor(apiKey, model string, maxTokens int, logger ectologger.Logger) *AnthropicExtractor {
	return &AnthropicExtractor{
		client:    anthropic.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (e *AnthropicExtractor) Extract(ctx context.Context, recordType models.RecordType, text string) ([]models.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "extraction.AnthropicExtractor.Extract")
	defer span.End()

	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(buildPrompt(recordType, text)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic extraction failed: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("anthropic returned no content")
	}

	candidates, err := ParseCandidates(resp.Content[0].GetText())
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
