package search

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("memex-be/pkg/search")

// Router dispatches a query to exactly one backend.
type Router struct {
	backends Backends
}

func NewRouter(backends Backends) *Router {
	return &Router{backends: backends}
}

// Route walks the content types in priority order (Notes, Music, Ledger,
// Image) and answers from the first one that matches the filter and holds an
// initialized handle. Results are never merged across types. An empty query,
// or no matching initialized backend, yields an empty result set.
func (r *Router) Route(ctx context.Context, query string, filter SearchType, count int, models *Models) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	for _, t := range Priority {
		if !filter.Matches(t) {
			continue
		}
		handle, ok := models.Get(t)
		if !ok {
			continue
		}
		backend, ok := r.backends[t]
		if !ok {
			continue
		}
		return r.query(ctx, t, backend, handle, query, count)
	}

	return []Result{}, nil
}

func (r *Router) query(ctx context.Context, t SearchType, backend Backend, handle Handle, query string, count int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "search.route")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.type", string(t)),
		attribute.Int("search.count", count),
	)

	hits, err := backend.Query(ctx, query, count, handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("search %s: %w", t, err)
	}

	results := backend.Collate(hits, handle, count)
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}
