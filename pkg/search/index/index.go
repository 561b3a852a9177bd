// Package index is the embedding index shared by every content type:
// extracted entries, one vector per entry, and a cosine ranking over them.
package index

import (
	"context"
	"fmt"
	"sort"

	"memex-be/pkg/embedding"
	"memex-be/pkg/search"
)

const defaultBatchSize = 32

// Entry is one searchable unit extracted from a corpus.
type Entry struct {
	Compiled string            `json:"compiled"`
	Raw      string            `json:"raw"`
	File     string            `json:"file,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// Index is the handle built for a content type.
type Index struct {
	Entries    []Entry
	Embeddings [][]float32
	MinScore   float32
	// Root is the input directory entries were read from, if any.
	Root string
}

var _ search.Handle = (*Index)(nil)

func (i *Index) Len() int {
	return len(i.Entries)
}

// Build embeds entries, reusing the configured embeddings file unless
// regenerate is set or the file was computed by another model or from other
// entry text.
func Build(ctx context.Context, embedder embedding.Embedder, entries []Entry, cfg *search.ContentConfig, regenerate bool) (*Index, error) {
	if cfg.CompressedJSONL != "" {
		if err := WriteEntries(ExpandPath(cfg.CompressedJSONL), entries); err != nil {
			return nil, err
		}
	}

	embeddingsFile := ExpandPath(cfg.EmbeddingsFile)
	digest := digestEntries(entries)
	if !regenerate && embeddingsFile != "" {
		cached, err := loadEmbeddings(embeddingsFile)
		if err != nil {
			return nil, err
		}
		if cached != nil && cached.Model == embedder.Model() && cached.Digest == digest && len(cached.Embeddings) == len(entries) {
			return &Index{Entries: entries, Embeddings: cached.Embeddings, MinScore: cfg.MinScore}, nil
		}
	}

	vectors, err := embedBatches(ctx, embedder, entries, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	if embeddingsFile != "" {
		if err := saveEmbeddings(embeddingsFile, &embeddingsDocument{Model: embedder.Model(), Digest: digest, Embeddings: vectors}); err != nil {
			return nil, err
		}
	}

	return &Index{Entries: entries, Embeddings: vectors, MinScore: cfg.MinScore}, nil
}

func embedBatches(ctx context.Context, embedder embedding.Embedder, entries []Entry, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	vectors := make([][]float32, 0, len(entries))
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Compiled)
		}

		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed entries %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed entries %d-%d: got %d vectors", start, end, len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Search ranks every entry against query by cosine similarity, keeping hits
// scored strictly above MinScore, best first.
func (i *Index) Search(ctx context.Context, embedder embedding.Embedder, query string) ([]search.Hit, error) {
	vectors, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, embedding.ErrEmptyEmbedding
	}

	hits := make([]search.Hit, 0, len(i.Embeddings))
	for idx, vec := range i.Embeddings {
		score := embedding.Cosine(vectors[0], vec)
		if score > i.MinScore {
			hits = append(hits, search.Hit{Index: idx, Score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	return hits, nil
}

// FromHandle recovers the index behind a handle built by Build.
func FromHandle(h search.Handle) (*Index, error) {
	idx, ok := h.(*Index)
	if !ok || idx == nil {
		return nil, fmt.Errorf("index: unexpected handle %T", h)
	}
	return idx, nil
}
