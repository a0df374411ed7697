package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/pkg/config"
)

// OpenAIAdapter implements EmbeddingProvider against an OpenAI-compatible
// embeddings endpoint. The same adapter must serve ingestion and query time so
// stored and query vectors are comparable.
type OpenAIAdapter struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
}

// Ensure OpenAIAdapter implements EmbeddingProvider
var _ providers.EmbeddingProvider = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter creates an embedding adapter
func NewOpenAIAdapter(cfg *config.EmbeddingConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding base url is required")
	}

	return &OpenAIAdapter{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Dimension returns the fixed vector dimension
func (a *OpenAIAdapter) Dimension() int {
	return a.dimension
}

// Embed returns the embedding vector for text
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": a.model,
		"input": text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if len(parsed.Data) == 0 {
		return nil, errors.New("embedding response missing data")
	}

	vec := parsed.Data[0].Embedding
	if a.dimension > 0 && len(vec) != a.dimension {
		return nil, fmt.Errorf("unexpected embedding dimension %d, want %d", len(vec), a.dimension)
	}

	return vec, nil
}
