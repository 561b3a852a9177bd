package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"

	"memex-be/pkg/search"
)

type embeddingsDocument struct {
	Model      string      `json:"model"`
	// Digest fingerprints the compiled text the vectors were computed from.
	Digest     string      `json:"digest"`
	Embeddings [][]float32 `json:"embeddings"`
}

// digestEntries hashes the compiled text of entries in order.
func digestEntries(entries []Entry) string {
	h := xxhash.New()
	for _, e := range entries {
		_, _ = h.WriteString(e.Compiled)
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// ExpandPath resolves a leading "~" and makes the path absolute.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// ResolveInputFiles returns the explicit input files plus every match of the
// input filter glob, de-duplicated and sorted.
func ResolveInputFiles(cfg *search.ContentConfig) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, f := range cfg.InputFiles {
		add(ExpandPath(f))
	}
	if cfg.InputFilter != "" {
		matches, err := filepath.Glob(ExpandPath(cfg.InputFilter))
		if err != nil {
			return nil, fmt.Errorf("input filter %q: %w", cfg.InputFilter, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files found")
	}
	return files, nil
}

func loadEmbeddings(path string) (*embeddingsDocument, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read embeddings %s: %w", path, err)
	}

	var doc embeddingsDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		// A stale or truncated cache is rebuilt rather than trusted.
		return nil, nil
	}
	return &doc, nil
}

func saveEmbeddings(path string, doc *embeddingsDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal embeddings: %w", err)
	}
	return writeAtomic(path, b)
}

// WriteEntries stores entries as gzip-compressed JSON lines.
func WriteEntries(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create entries dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create entries file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	w := bufio.NewWriter(zw)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush entries: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close entries gzip: %w", err)
	}
	return nil
}

func writeAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}
