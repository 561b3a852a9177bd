package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"memex-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSearchFile = `content-type:
  org:
    input-files: ["~/notes/inbox.org"]
    input-filter: "~/notes/*.org"
    compressed-jsonl: ~/.memex/notes.jsonl.gz
    embeddings-file: ~/.memex/notes_embeddings.json
  ledger:
    input-filter: "~/finance/*.beancount"
    min-score: 0.2
  image:
    input-directory: ~/pictures
    batch-size: 50
    use-xmp-metadata: true
processor:
  conversation:
    conversation-logfile: ~/.memex/conversation.json
    model: gpt-4o-mini
`

func TestLoadSearchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memex.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSearchFile), 0o600))

	f, err := LoadSearchFile(path)
	require.NoError(t, err)

	require.NotNil(t, f.Processor.Conversation)
	assert.Equal(t, "gpt-4o-mini", f.Processor.Conversation.Model)

	cfg := f.SearchConfig()
	notes, ok := cfg.For(search.Notes)
	require.True(t, ok)
	assert.Equal(t, []string{"~/notes/inbox.org"}, notes.InputFiles)
	assert.Equal(t, "~/.memex/notes.jsonl.gz", notes.CompressedJSONL)

	ledger, ok := cfg.For(search.Ledger)
	require.True(t, ok)
	assert.InDelta(t, 0.2, ledger.MinScore, 1e-6)

	image, ok := cfg.For(search.Image)
	require.True(t, ok)
	assert.True(t, image.UseXMPMetadata)
	assert.Equal(t, 50, image.BatchSize)

	_, ok = cfg.For(search.Music)
	assert.False(t, ok)
}

func TestLoadSearchFile_Missing(t *testing.T) {
	f, err := LoadSearchFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Empty(t, f.SearchConfig())
}

func TestLoadSearchFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memex.yml")
	require.NoError(t, os.WriteFile(path, []byte("content-type: [unclosed"), 0o600))

	_, err := LoadSearchFile(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("REGENERATE", "true")
	t.Setenv("EMBEDDING_CACHE_TTL", "15m")
	t.Setenv("CONVERSATION_STORE", "redis")

	cfg := Load()

	assert.Equal(t, "9000", cfg.App.Port)
	assert.True(t, cfg.App.Regenerate)
	assert.Equal(t, 15*time.Minute, cfg.Ai.EmbeddingCacheTTL)
	assert.Equal(t, "redis", cfg.Conversation.Store)
	assert.False(t, cfg.IsProduction())
}
