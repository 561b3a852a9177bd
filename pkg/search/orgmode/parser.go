// Package orgmode extracts searchable entries from org-mode files.
// Every heading, at any level, starts a new entry.
package orgmode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"memex-be/pkg/search/index"

	"github.com/niklasfasching/go-org/org"
)

// ParseFiles extracts entries from every file, in file order.
func ParseFiles(paths []string) ([]index.Entry, error) {
	var entries []index.Entry
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open org file: %w", err)
		}
		parsed, err := Parse(f, p)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		entries = append(entries, parsed...)
	}
	return entries, nil
}

// Parse reads one org document. Content before the first heading becomes an
// entry titled after the document's #+TITLE, or the file name without it.
func Parse(r io.Reader, file string) ([]index.Entry, error) {
	doc := org.New().Parse(r, file)
	if doc.Error != nil {
		return nil, doc.Error
	}

	var entries []index.Entry
	preamble, headlines := splitHeadlines(doc.Nodes)
	if body := strings.TrimSpace(org.String(preamble...)); body != "" {
		title := strings.TrimSpace(doc.Get("TITLE"))
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		entries = append(entries, index.Entry{
			Compiled: title + ".\n" + body,
			Raw:      body,
			File:     file,
			Meta:     map[string]string{"heading": title},
		})
	}

	var walk func(hs []org.Headline)
	walk = func(hs []org.Headline) {
		for _, h := range hs {
			section, children := splitHeadlines(h.Children)
			entries = append(entries, headlineEntry(h, section, file))
			walk(children)
		}
	}
	walk(headlines)

	return entries, nil
}

// splitHeadlines separates a node list into its section content and the
// headlines nested below it.
func splitHeadlines(nodes []org.Node) ([]org.Node, []org.Headline) {
	var (
		section   []org.Node
		headlines []org.Headline
	)
	for _, n := range nodes {
		if h, ok := n.(org.Headline); ok {
			headlines = append(headlines, h)
			continue
		}
		section = append(section, n)
	}
	return section, headlines
}

func headlineEntry(h org.Headline, section []org.Node, file string) index.Entry {
	heading := strings.TrimSpace(org.String(h.Title...))
	body := strings.TrimSpace(org.String(section...))

	meta := map[string]string{}
	if h.Properties != nil {
		for _, kv := range h.Properties.Properties {
			if len(kv) == 2 {
				meta[strings.ToLower(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
	}
	meta["heading"] = heading
	if len(h.Tags) > 0 {
		meta["tags"] = strings.Join(h.Tags, ",")
	}

	compiled := heading + "."
	if len(h.Tags) > 0 {
		compiled += " " + strings.Join(h.Tags, " ") + "."
	}
	if body != "" {
		compiled += "\n" + body
	}

	own := h
	own.Children = section
	return index.Entry{
		Compiled: compiled,
		Raw:      strings.TrimSpace(org.String(own)),
		File:     file,
		Meta:     meta,
	}
}
