package search

import (
	"errors"
	"fmt"
	"strings"
)

// SearchType selects which backend a query targets.
// All (the zero value) means "try every initialized backend in priority order".
type SearchType string

const (
	All    SearchType = ""
	Notes  SearchType = "notes"
	Music  SearchType = "music"
	Ledger SearchType = "ledger"
	Image  SearchType = "image"
)

// DefaultResultCount is used whenever a caller asks for zero or fewer results.
const DefaultResultCount = 5

var ErrInvalidSearchType = errors.New("search: invalid search type")

// Priority is the fixed evaluation order of the router and of regeneration.
var Priority = []SearchType{Notes, Music, Ledger, Image}

// ParseSearchType maps a query parameter onto a SearchType.
// An empty string yields All.
func ParseSearchType(raw string) (SearchType, error) {
	switch t := SearchType(strings.ToLower(strings.TrimSpace(raw))); t {
	case All, Notes, Music, Ledger, Image:
		return t, nil
	default:
		return All, fmt.Errorf("%w: %q", ErrInvalidSearchType, raw)
	}
}

// Matches reports whether the filter f selects content type t.
func (f SearchType) Matches(t SearchType) bool {
	return f == All || f == t
}

func (f SearchType) String() string {
	if f == All {
		return "all"
	}
	return string(f)
}

// Result is the uniform record returned for every content type.
type Result struct {
	Entry    string            `json:"entry"`
	Score    float32           `json:"score"`
	File     string            `json:"file,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Hit is a backend-ranked reference into an index.
type Hit struct {
	Index int
	Score float32
}
