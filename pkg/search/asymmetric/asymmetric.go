// Package asymmetric searches org-mode corpora (notes, music library) where
// short queries are matched against longer entries.
package asymmetric

import (
	"context"

	"memex-be/pkg/embedding"
	"memex-be/pkg/search"
	"memex-be/pkg/search/index"
	"memex-be/pkg/search/orgmode"
)

type Backend struct {
	embedder embedding.Embedder
}

var _ search.Backend = (*Backend)(nil)

func New(embedder embedding.Embedder) *Backend {
	return &Backend{embedder: embedder}
}

func (b *Backend) Setup(ctx context.Context, cfg *search.ContentConfig, regenerate bool) (search.Handle, error) {
	files, err := index.ResolveInputFiles(cfg)
	if err != nil {
		return nil, err
	}
	entries, err := orgmode.ParseFiles(files)
	if err != nil {
		return nil, err
	}
	return index.Build(ctx, b.embedder, entries, cfg, regenerate)
}

func (b *Backend) Query(ctx context.Context, query string, _ int, h search.Handle) ([]search.Hit, error) {
	idx, err := index.FromHandle(h)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, b.embedder, query)
}

func (b *Backend) Collate(hits []search.Hit, h search.Handle, count int) []search.Result {
	idx, err := index.FromHandle(h)
	if err != nil {
		return []search.Result{}
	}
	return search.Collate(hits, count, func(hit search.Hit) search.Result {
		e := idx.Entries[hit.Index]
		return search.Result{
			Entry:    e.Raw,
			Score:    hit.Score,
			File:     e.File,
			Metadata: e.Meta,
		}
	})
}
