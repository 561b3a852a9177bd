// Package image searches a directory of images by their names and, when
// enabled, the description and keywords stored in embedded XMP metadata.
package image

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"memex-be/pkg/embedding"
	"memex-be/pkg/search"
	"memex-be/pkg/search/index"

	"trimmer.io/go-xmp/models/dc"
	"trimmer.io/go-xmp/xmp"
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

	separatorPattern = regexp.MustCompile(`[_\-.]+`)
)

type Backend struct {
	embedder embedding.Embedder
}

var _ search.Backend = (*Backend)(nil)

func New(embedder embedding.Embedder) *Backend {
	return &Backend{embedder: embedder}
}

func (b *Backend) Setup(ctx context.Context, cfg *search.ContentConfig, regenerate bool) (search.Handle, error) {
	root := index.ExpandPath(cfg.InputDirectory)
	names, err := listImages(root, cfg.InputFilter)
	if err != nil {
		return nil, err
	}

	entries := make([]index.Entry, 0, len(names))
	for _, name := range names {
		e, err := extract(root, name, cfg.UseXMPMetadata)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	idx, err := index.Build(ctx, b.embedder, entries, cfg, regenerate)
	if err != nil {
		return nil, err
	}
	idx.Root = root
	return idx, nil
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
			File:     filepath.Join(idx.Root, e.Raw),
			Metadata: e.Meta,
		}
	})
}

func listImages(root, filter string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("image input directory not set")
	}
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if filter != "" {
			ok, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("image filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		} else if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func extract(root, name string, useXMP bool) (index.Entry, error) {
	words := separatorPattern.ReplaceAllString(strings.TrimSuffix(name, filepath.Ext(name)), " ")
	entry := index.Entry{
		Compiled: strings.TrimSpace(words),
		Raw:      name,
		File:     filepath.Join(root, name),
	}
	if !useXMP {
		return entry, nil
	}

	b, err := os.ReadFile(entry.File)
	if err != nil {
		return index.Entry{}, fmt.Errorf("read image %s: %w", name, err)
	}
	meta := ParseXMP(b)
	if len(meta) > 0 {
		entry.Meta = meta
		for _, k := range []string{"title", "description", "subject"} {
			if v := meta[k]; v != "" {
				entry.Compiled += ". " + v
			}
		}
	}
	return entry, nil
}

// ParseXMP pulls dc:title, dc:description and dc:subject out of the first XMP
// packet in b. Subject keywords are joined with ", ".
func ParseXMP(b []byte) map[string]string {
	packets, err := xmp.ScanPackets(bytes.NewReader(b))
	if err != nil || len(packets) == 0 {
		return nil
	}
	doc := &xmp.Document{}
	if err := xmp.Unmarshal(packets[0], doc); err != nil {
		return nil
	}
	model := dc.FindModel(doc)
	if model == nil {
		return nil
	}

	meta := make(map[string]string)
	if v := strings.TrimSpace(model.Title.Default()); v != "" {
		meta["title"] = v
	}
	if v := strings.TrimSpace(model.Description.Default()); v != "" {
		meta["description"] = v
	}
	var subjects []string
	for _, v := range model.Subject {
		if v = strings.TrimSpace(v); v != "" {
			subjects = append(subjects, v)
		}
	}
	if len(subjects) > 0 {
		meta["subject"] = strings.Join(subjects, ", ")
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
