package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

func newTestEmbedding(t *testing.T, baseURL string) *OpenAIEmbedding {
	t.Helper()
	svc, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{
		APIKey:            "sk-test",
		Model:             "text-embedding-3-small",
		BaseURL:           baseURL,
		RequestsPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func writeEmbeddings(w http.ResponseWriter, data ...embeddingData) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(embeddingResponse{
		Object: "list",
		Data:   data,
		Model:  "text-embedding-3-small",
	})
}

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{RequireAPIKey: true})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	svc, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "text-embedding-3-small" {
		t.Errorf("expected default model, got %s", svc.Model())
	}
	if svc.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", svc.baseURL)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		override   int
		dimensions int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"unknown-model", 0, 1536},
		{"nomic-embed-text", 768, 768},
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			svc, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{Model: tc.model, Dimensions: tc.override})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, svc.Dimensions())
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	svc := newTestEmbedding(t, "http://unused")

	result, err := svc.Embed(context.Background(), []string{})
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Input) != 2 || req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected request: %+v", req)
		}

		// Out of order on purpose.
		writeEmbeddings(w,
			embeddingData{Object: "embedding", Index: 1, Embedding: []float32{0.4, 0.5, 0.6}},
			embeddingData{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
		)
	}))
	defer server.Close()

	svc := newTestEmbedding(t, server.URL)
	result, err := svc.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Errorf("embeddings not ordered by index: %v", result)
	}
}

func TestOpenAIEmbedding_Embed_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(embeddingResponse{
					Error: &apiError{Message: "Invalid API key", Type: "invalid_request_error", Code: "invalid_api_key"},
				})
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("upstream exploded"))
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("invalid json"))
			},
		},
		{
			name: "missing vector",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w, embeddingData{Index: 0, Embedding: []float32{0.1}})
			},
		},
		{
			name: "empty vector",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w,
					embeddingData{Index: 0, Embedding: []float32{0.1}},
					embeddingData{Index: 1, Embedding: []float32{}},
				)
			},
		},
		{
			name: "index out of range",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w,
					embeddingData{Index: 0, Embedding: []float32{0.1}},
					embeddingData{Index: 5, Embedding: []float32{0.2}},
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := newTestEmbedding(t, server.URL)
			result, err := svc.Embed(context.Background(), []string{"a", "b"})
			if !errors.Is(err, domain.ErrEmbeddingService) {
				t.Errorf("expected ErrEmbeddingService, got %v", err)
			}
			if result != nil {
				t.Errorf("expected no partial result, got %v", result)
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_NetworkError(t *testing.T) {
	svc := newTestEmbedding(t, "http://127.0.0.1:1")

	_, err := svc.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Errorf("expected ErrEmbeddingService, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_CanceledContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEmbeddings(w, embeddingData{Index: 0, Embedding: []float32{0.1}})
	}))
	defer server.Close()

	svc := newTestEmbedding(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Embed(ctx, []string{"test"}); err == nil {
		t.Error("expected error for canceled context")
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestOpenAIEmbedding_NoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no Authorization header")
		}
		writeEmbeddings(w, embeddingData{Index: 0, Embedding: []float32{0.1}})
	}))
	defer server.Close()

	svc, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{BaseURL: server.URL, Dimensions: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected no error from health check, got %v", err)
	}
}

func TestOpenAIEmbedding_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, embeddingData{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	svc := newTestEmbedding(t, server.URL)
	result, err := svc.EmbedQuery(context.Background(), "test query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(result))
	}
}
