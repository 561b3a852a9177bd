package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Regenerate rebuilds, from scratch, the handle of every content type that
// matches filter and is configured. All new handles are built before any is
// installed, and they replace the old ones together, so a failure on any type
// leaves every handle as it was. Unmatched or unconfigured types are left
// untouched. It returns the types that were rebuilt.
func Regenerate(ctx context.Context, backends Backends, filter SearchType, cfg Config, models *Models) ([]SearchType, error) {
	var rebuilt []SearchType
	fresh := make(map[SearchType]Handle)
	for _, t := range Priority {
		if !filter.Matches(t) {
			continue
		}
		section, ok := cfg.For(t)
		if !ok {
			continue
		}
		backend, ok := backends[t]
		if !ok {
			continue
		}

		handle, err := backend.Setup(ctx, section, true)
		if err != nil {
			return nil, fmt.Errorf("regenerate %s: %w", t, err)
		}
		fresh[t] = handle
		rebuilt = append(rebuilt, t)
	}
	models.SetAll(fresh)
	return rebuilt, nil
}

// Initialize builds a fresh registry at startup. Configured types are set up
// concurrently; any setup failure aborts initialization.
func Initialize(ctx context.Context, backends Backends, cfg Config, regenerate bool) (*Models, error) {
	models := NewModels()
	g, gctx := errgroup.WithContext(ctx)

	for _, t := range Priority {
		section, ok := cfg.For(t)
		if !ok {
			continue
		}
		backend, ok := backends[t]
		if !ok {
			continue
		}

		g.Go(func() error {
			handle, err := backend.Setup(gctx, section, regenerate)
			if err != nil {
				return fmt.Errorf("setup %s: %w", t, err)
			}
			models.Set(t, handle)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models, nil
}
