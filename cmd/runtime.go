package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/nlquery/internal/config"
	"github.com/JonMunkholm/nlquery/internal/database"
	"github.com/JonMunkholm/nlquery/internal/llm"
)

const connectTimeout = 30 * time.Second

// newSynthesizer returns nil when no provider can be built; callers treat
// that as generation being unavailable.
func newSynthesizer(cfg config.Config, logger *slog.Logger) *llm.Synthesizer {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("SQL generation disabled: no API key configured (set GOOGLE_API_KEY or LLM_API_KEY)")
		return nil
	}
	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Warn("SQL generation disabled", slog.Any("error", err))
		return nil
	}
	logger.Info("LLM provider initialized", slog.String("provider", provider.Name()))
	return llm.NewSynthesizer(provider, logger)
}

func newGateway(cfg config.Config, logger *slog.Logger) *database.Gateway {
	return database.NewGateway(
		database.WithLogger(logger),
		database.WithQueryTimeout(cfg.Database.QueryTimeout),
	)
}

func connectWithTimeout(ctx context.Context, gw *database.Gateway, descriptor string) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return gw.Connect(ctx, descriptor)
}
