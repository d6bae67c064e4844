package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Extractor reads transactions directly from document bytes.
type Extractor interface {
	ExtractTransactions(ctx context.Context, data []byte, mimeType string) ([]model.RawTransaction, error)
}

// Config holds provider settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	MaxTokens   int
	Temperature float64
}

// New creates the extractor for cfg.Provider. The "none" provider (or an
// empty one) returns a nil extractor and no error.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Extractor, error) {
	logger = common.LoggerOrDefault(logger)

	var (
		provider Extractor
		err      error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "gemini":
		provider, err = newGeminiClient(ctx, cfg)
	case "anthropic":
		provider, err = newAnthropicClient(cfg)
	case "openai":
		provider, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("AI extractor configured", "provider", cfg.Provider, "model", cfg.Model)
	return newCachedExtractor(newLimitedExtractor(provider, cfg.RateLimit), cfg.CacheTTL), nil
}
