package image

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"memex-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXMP = `binary-prefix<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
   <dc:title><rdf:Alt><rdf:li xml:lang="x-default">Morning brew</rdf:li></rdf:Alt></dc:title>
   <dc:description><rdf:Alt><rdf:li xml:lang="x-default">A cup on the windowsill</rdf:li></rdf:Alt></dc:description>
   <dc:subject><rdf:Bag><rdf:li>coffee</rdf:li><rdf:li>kitchen</rdf:li></rdf:Bag></dc:subject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>binary-suffix`

func TestParseXMP(t *testing.T) {
	meta := ParseXMP([]byte(sampleXMP))

	assert.Equal(t, map[string]string{
		"title":       "Morning brew",
		"description": "A cup on the windowsill",
		"subject":     "coffee, kitchen",
	}, meta)

	assert.Nil(t, ParseXMP([]byte("no packet here")))
}

func writeImages(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"sunset_beach.jpg": "jpeg bytes",
		"IMG-0042.png":     sampleXMP,
		"readme.txt":       "not an image",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o750))
	return dir
}

func TestListImages(t *testing.T) {
	dir := writeImages(t)

	names, err := listImages(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG-0042.png", "sunset_beach.jpg"}, names)

	names, err = listImages(dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.txt"}, names)

	_, err = listImages("", "")
	assert.Error(t, err)
}

type keywordEmbedder struct{}

func (keywordEmbedder) Model() string { return "keyword" }

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		out[i] = []float32{
			float32(strings.Count(lower, "coffee")),
			float32(strings.Count(lower, "beach")),
		}
	}
	return out, nil
}

func TestBackend(t *testing.T) {
	dir := writeImages(t)
	backend := New(keywordEmbedder{})

	tests := []struct {
		name      string
		useXMP    bool
		query     string
		wantEntry []string
	}{
		{name: "file name words", query: "beach", wantEntry: []string{"sunset_beach.jpg"}},
		{name: "xmp keywords ignored when disabled", query: "coffee", wantEntry: []string{}},
		{name: "xmp keywords", useXMP: true, query: "coffee", wantEntry: []string{"IMG-0042.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := backend.Setup(context.Background(), &search.ContentConfig{
				InputDirectory: dir,
				UseXMPMetadata: tt.useXMP,
			}, false)
			require.NoError(t, err)

			hits, err := backend.Query(context.Background(), tt.query, 5, handle)
			require.NoError(t, err)
			results := backend.Collate(hits, handle, 5)

			entries := make([]string, 0, len(results))
			for _, r := range results {
				entries = append(entries, r.Entry)
				assert.Equal(t, filepath.Join(dir, r.Entry), r.File)
			}
			assert.Equal(t, tt.wantEntry, entries)
		})
	}
}
