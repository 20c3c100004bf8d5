package ai

import (
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

func TestNewEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    EmbeddingSettings
		wantErr     bool
		wantBaseURL string
	}{
		{
			name:        "openai",
			settings:    EmbeddingSettings{Provider: ProviderOpenAI, APIKey: "sk-test"},
			wantBaseURL: "https://api.openai.com/v1",
		},
		{
			name:        "empty provider defaults to openai",
			settings:    EmbeddingSettings{APIKey: "sk-test"},
			wantBaseURL: "https://api.openai.com/v1",
		},
		{
			name:     "openai without key",
			settings: EmbeddingSettings{Provider: ProviderOpenAI},
			wantErr:  true,
		},
		{
			name:        "ollama",
			settings:    EmbeddingSettings{Provider: ProviderOllama, Model: "nomic-embed-text", Dimensions: 768},
			wantBaseURL: "http://localhost:11434/v1",
		},
		{
			name:     "ollama without dimensions",
			settings: EmbeddingSettings{Provider: ProviderOllama, Model: "nomic-embed-text"},
			wantErr:  true,
		},
		{
			name:        "custom",
			settings:    EmbeddingSettings{Provider: ProviderCustom, BaseURL: "http://gateway/v1", APIKey: "k"},
			wantBaseURL: "http://gateway/v1",
		},
		{
			name:     "custom without base url",
			settings: EmbeddingSettings{Provider: ProviderCustom},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: EmbeddingSettings{Provider: "cohere", APIKey: "k"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewEmbeddingService(tt.settings, nil)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			emb := svc.(*OpenAIEmbedding)
			if emb.baseURL != tt.wantBaseURL {
				t.Errorf("expected base URL %s, got %s", tt.wantBaseURL, emb.baseURL)
			}
		})
	}
}
