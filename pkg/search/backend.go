package search

import (
	"context"
	"strings"
)

// Handle is an initialized, queryable index for one content type.
type Handle interface {
	Len() int
}

// Backend is the capability every content type provides: build a handle from
// its configuration, rank a query against that handle, and map the ranked
// hits back to uniform results.
type Backend interface {
	Setup(ctx context.Context, cfg *ContentConfig, regenerate bool) (Handle, error)
	Query(ctx context.Context, query string, count int, h Handle) ([]Hit, error)
	Collate(hits []Hit, h Handle, count int) []Result
}

// Backends holds one backend implementation per content type.
type Backends map[SearchType]Backend

// ContentConfig is the per-type configuration used to (re)build a handle.
type ContentConfig struct {
	InputFiles      []string
	InputFilter     string
	InputDirectory  string
	CompressedJSONL string
	EmbeddingsFile  string
	BatchSize       int
	UseXMPMetadata  bool
	MinScore        float32
}

// Configured reports whether the section names at least one input source.
func (c *ContentConfig) Configured() bool {
	if c == nil {
		return false
	}
	return len(c.InputFiles) > 0 ||
		strings.TrimSpace(c.InputFilter) != "" ||
		strings.TrimSpace(c.InputDirectory) != ""
}

// Config mirrors Models: one optional section per content type.
type Config map[SearchType]*ContentConfig

// For returns the section for t when it is configured.
func (c Config) For(t SearchType) (*ContentConfig, bool) {
	cfg, ok := c[t]
	if !ok || !cfg.Configured() {
		return nil, false
	}
	return cfg, true
}
