package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider implements Embedder for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	client *ollama.Client
	model  string
}

var _ Embedder = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL string, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	httpClient := &http.Client{Timeout: 120 * time.Second}
	return &OllamaProvider{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Model() string {
	return "ollama/" + p.model
}

func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	res, err := p.client.Embed(ctx, &ollama.EmbedRequest{
		Model: p.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, ErrEmptyEmbedding
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, v := range res.Embeddings {
		vectors[i] = normalizeVector(v)
	}
	return vectors, nil
}
