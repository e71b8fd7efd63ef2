package llm

import (
	"context"
	"errors"
	"strings"
)

var ErrNotConfigured = errors.New("llm provider not configured")

// NewProvider builds the provider named by kind. Without an API key it returns
// ErrNotConfigured so callers can run with canned replies instead.
func NewProvider(ctx context.Context, kind string, cfg Config) (ChatProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ProviderOpenAI:
		return NewClient(cfg)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, errors.New("unsupported llm provider: " + kind)
	}
}
