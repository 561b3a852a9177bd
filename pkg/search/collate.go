package search

// Collate truncates hits to count (DefaultResultCount when count <= 0) and
// maps each one through build. Hit order is preserved verbatim.
func Collate(hits []Hit, count int, build func(Hit) Result) []Result {
	if count <= 0 {
		count = DefaultResultCount
	}
	if len(hits) < count {
		count = len(hits)
	}

	results := make([]Result, 0, count)
	for _, hit := range hits[:count] {
		results = append(results, build(hit))
	}
	return results
}
