package engine

import "github.com/arterning/gofts/internal/docstore"

// Document is the engine's public document type, re-exported from
// docstore so callers never need to import internal/docstore directly.
type Document = docstore.Document

// Mode selects how a multi-term query's postings combine into a
// candidate set.
type Mode int

const (
	ModeAND Mode = iota
	ModeOR
)

// SearchOptions controls Engine.Search. The zero value has Limit 0 and
// Ranked false, so a search with it reports Total but returns no
// documents — use DefaultSearchOptions() and override fields from there,
// matching the spec's documented defaults (limit 10, offset 0, mode
// AND, ranked true).
type SearchOptions struct {
	Limit  int
	Offset int
	Mode   Mode
	Ranked bool
}

// DefaultSearchOptions returns the spec's documented defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 10, Offset: 0, Mode: ModeAND, Ranked: true}
}

// SearchResults is the paginated, optionally ranked outcome of a query.
type SearchResults struct {
	Documents []Document
	Total     int
	Scores    []float64 // populated iff the search was ranked, aligned index-for-index with Documents
}

// Stats summarizes corpus-wide counters.
type Stats struct {
	DocumentCount int64
	TotalTerms    int
	AvgDocLength  float64
}
