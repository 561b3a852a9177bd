package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Model() string { return "counting" }

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestCachedEmbedder(t *testing.T) {
	next := &countingEmbedder{}
	cached := NewCachedEmbedder(next, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"coffee"})
	require.NoError(t, err)
	second, err := cached.Embed(ctx, []string{"coffee"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls, "repeated single query is served from cache")

	_, err = cached.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = cached.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls, "batches bypass the cache")

	assert.Equal(t, "counting", cached.Model())
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2}, b: []float32{1, 2}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, normalizeVector([]float32{3, 4}), 1e-6)
	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{name: "ollama", provider: "ollama"},
		{name: "default is ollama", provider: ""},
		{name: "openai", provider: "openai", apiKey: "sk-test"},
		{name: "openai without key", provider: "openai", wantErr: true},
		{name: "unknown provider", provider: "gemini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEmbedder(tt.provider, "nomic-embed-text", "http://localhost:11434", tt.apiKey)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, e.Model())
		})
	}
}

func TestOllamaProvider_EmbedNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[3,4],[0,2]]}`))
	}))
	defer srv.Close()

	provider, err := NewOllamaProvider(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	vectors, err := provider.Embed(context.Background(), []string{"coffee", "tea"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vectors[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1}, vectors[1], 1e-6)
	assert.Equal(t, "ollama/nomic-embed-text", provider.Model())
}

func TestOllamaProvider_EmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer srv.Close()

	provider, err := NewOllamaProvider(srv.URL, "")
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}
