package extraction

import (
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/config"
)

// Supported extraction providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewExtractor builds the configured extraction provider
func NewExtractor(cfg *config.Config, logger ectologger.Logger) (Extractor, error) {
	if cfg.ExtractionAPIKey == "" {
		return nil, fmt.Errorf("extraction API key is not configured")
	}

	switch cfg.ExtractionProvider {
	case ProviderOpenAI:
		return NewOpenAIExtractor(cfg.ExtractionAPIKey, cfg.ExtractionBaseURL, cfg.ExtractionModel, cfg.ExtractionMaxTokens, logger), nil
	case ProviderAnthropic:
		return NewAnthropicExtractor(cfg.ExtractionAPIKey, cfg.ExtractionModel, cfg.ExtractionMaxTokens, logger), nil
	}

	return nil, fmt.Errorf("unknown extraction provider: %s", cfg.ExtractionProvider)
}
