package ai

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Embedding providers. All speak the OpenAI /embeddings wire format.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama" // local, served at <host>/v1, no API key
	ProviderCustom = "custom" // any OpenAI-compatible gateway
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// EmbeddingSettings selects and configures an embedding provider.
type EmbeddingSettings struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Dimensions        int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// NewEmbeddingService creates an embedding service from settings
func NewEmbeddingService(settings EmbeddingSettings, logger *slog.Logger) (driven.EmbeddingService, error) {
	cfg := OpenAIEmbeddingConfig{
		APIKey:            settings.APIKey,
		Model:             settings.Model,
		BaseURL:           settings.BaseURL,
		Dimensions:        settings.Dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
		Timeout:           settings.Timeout,
		Logger:            logger,
	}

	switch settings.Provider {
	case ProviderOpenAI, "":
		cfg.RequireAPIKey = true
	case ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOllamaBaseURL
		}
		if cfg.Dimensions <= 0 {
			return nil, fmt.Errorf("%w: ollama embeddings need explicit dimensions", domain.ErrInvalidInput)
		}
	case ProviderCustom:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: custom provider needs a base URL", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, settings.Provider)
	}

	return NewOpenAIEmbedding(cfg)
}
