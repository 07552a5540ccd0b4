// Package engine is the top-level orchestrator: it owns the write-path
// ordering (analyze -> index plan -> document put, one atomic batch)
// and the read-path assembly (analyze -> postings -> set combination ->
// rank -> hydrate) across the analyzer, storage, document store,
// inverted index, and ranker packages.
//
// Grounded on the teacher's Indexer/Searcher split
// (zhaoyao-tns/indexer.go, search.go), merged here into one Engine per
// the spec, with a sync.RWMutex serializing writers the way the spec's
// concurrency model requires (the teacher assumed a single goroutine
// building an index offline and never guarded iiMap).
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/arterning/gofts/internal/analyzer"
	"github.com/arterning/gofts/internal/docstore"
	"github.com/arterning/gofts/internal/index"
	"github.com/arterning/gofts/internal/ranker"
	"github.com/arterning/gofts/internal/storage"
)

var (
	upsertTimer   = metrics.NewRegisteredTimer("gofts.upsert", nil)
	searchTimer   = metrics.NewRegisteredTimer("gofts.search", nil)
	indexedTokens = metrics.NewRegisteredHistogram("gofts.indexed_tokens", nil, metrics.NewUniformSample(512))
)

// Engine is the embeddable library surface: open one per data
// directory, share the handle across goroutines.
type Engine struct {
	mu sync.RWMutex

	storage *storage.Storage
	docs    *docstore.Store
	index   *index.Index
	log     *logrus.Entry
}

// Open opens or creates the engine's storage beneath dataDir. The
// returned Engine is in its single Open state until Close.
func Open(dataDir string) (*Engine, error) {
	return OpenWithLogger(dataDir, logrus.NewEntry(logrus.StandardLogger()))
}

// OpenWithLogger is Open with an explicit logger, so callers (the HTTP
// front-end, the CLI) can share one configured logrus instance with
// the engine's corruption/hydration warnings.
func OpenWithLogger(dataDir string, log *logrus.Entry) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	st, err := storage.Open(filepath.Join(dataDir, "gofts.db"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	docs, err := docstore.Open(st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	idx, err := index.Open(st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &Engine{storage: st, docs: docs, index: idx, log: log}, nil
}

// Close flushes and releases the storage handle.
func (e *Engine) Close() error {
	if err := e.storage.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return e.storage.Close()
}

// UpsertDocument inserts doc or, if doc.ID already exists, replaces its
// prior contributions with the new version under one atomic batch. Net
// change to document_count is +1 for a new id, 0 for a replacement.
func (e *Engine) UpsertDocument(doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id must not be empty", ErrInvalidInput)
	}

	start := time.Now()
	defer upsertTimer.UpdateSince(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens := analyzer.Analyze(doc.Title + " " + doc.Content)
	indexedTokens.Update(int64(len(tokens)))

	planner := e.index.NewPlanner()
	if err := planner.Upsert(doc.ID, tokens); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	ops, err := planner.Finish()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	docOp, err := e.docs.Put(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	ops = append(ops, docOp)

	if err := e.storage.Batch(ops); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// UpsertBatch applies every document in docs as one atomic batch.
// Duplicate ids within the batch resolve last-write-wins, by processing
// order. A failure analyzing or planning any document aborts the whole
// batch before anything is persisted.
func (e *Engine) UpsertBatch(docs []Document) error {
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("%w: document id must not be empty", ErrInvalidInput)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	planner := e.index.NewPlanner()
	var docOps []storage.Op
	for _, doc := range docs {
		tokens := analyzer.Analyze(doc.Title + " " + doc.Content)
		indexedTokens.Update(int64(len(tokens)))
		if err := planner.Upsert(doc.ID, tokens); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		docOp, err := e.docs.Put(doc)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		docOps = append(docOps, docOp)
	}

	ops, err := planner.Finish()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	ops = append(ops, docOps...)

	if err := e.storage.Batch(ops); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// GetDocument returns the document stored under id, if any.
func (e *Engine) GetDocument(id string) (Document, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, found, err := e.docs.Get(id)
	if err != nil {
		return Document{}, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc, found, nil
}

// DeleteDocument removes id's posting entries, length, and document
// record atomically. Returns whether a document was actually removed.
func (e *Engine) DeleteDocument(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	planner := e.index.NewPlanner()
	existed, err := planner.Delete(id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !existed {
		return false, nil
	}

	ops, err := planner.Finish()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	ops = append(ops, docstore.DeleteOp(id))

	if err := e.storage.Batch(ops); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return true, nil
}

// Search analyzes query, combines per-term postings per opts.Mode,
// optionally ranks by BM25, paginates, and hydrates the resulting ids
// into Documents.
func (e *Engine) Search(query string, opts SearchOptions) (SearchResults, error) {
	if opts.Limit < 0 {
		return SearchResults{}, fmt.Errorf("%w: limit must be >= 0", ErrInvalidInput)
	}
	if opts.Offset < 0 {
		return SearchResults{}, fmt.Errorf("%w: offset must be >= 0", ErrInvalidInput)
	}

	start := time.Now()
	defer searchTimer.UpdateSince(start)

	e.mu.RLock()
	defer e.mu.RUnlock()

	terms := analyzer.Analyze(query)
	if len(terms) == 0 {
		return SearchResults{Documents: []Document{}, Total: 0}, nil
	}

	postingsByTerm := make(map[string]map[string]int, len(terms))
	for _, t := range terms {
		list, err := e.index.PostingsFor(t)
		if err != nil {
			return SearchResults{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		postingsByTerm[t] = list
	}

	candidates := combine(terms, postingsByTerm, opts.Mode)

	n, l, err := e.index.CorpusStats()
	if err != nil {
		return SearchResults{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	stats := ranker.CorpusStats{N: n, L: l}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(candidates))

	if opts.Ranked {
		for id := range candidates {
			docLen, err := e.index.DocLength(id)
			if err != nil {
				return SearchResults{}, fmt.Errorf("%w: %v", ErrStorage, err)
			}
			var termScores []ranker.TermScore
			for _, t := range terms {
				list := postingsByTerm[t]
				termScores = append(termScores, ranker.TermScore{DocFreq: len(list), Freq: list[id]})
			}
			ranked = append(ranked, scored{id: id, score: ranker.Score(stats, docLen, termScores)})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].id < ranked[j].id
		})
	} else {
		for id := range candidates {
			ranked = append(ranked, scored{id: id})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].id < ranked[j].id })
	}

	total := len(ranked)
	page := paginate(ranked, opts.Offset, opts.Limit)

	result := SearchResults{Total: total, Documents: make([]Document, 0, len(page))}
	if opts.Ranked {
		result.Scores = make([]float64, 0, len(page))
	}
	for _, s := range page {
		doc, found, err := e.docs.Get(s.id)
		if err != nil {
			return SearchResults{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if !found {
			// The postings reference a document id absent from the
			// document store: an invariant violation. Log and skip
			// the row rather than failing the whole search.
			e.log.WithField("doc_id", s.id).Warnf("%v: posting references missing document", ErrCorruption)
			continue
		}
		result.Documents = append(result.Documents, doc)
		if opts.Ranked {
			result.Scores = append(result.Scores, s.score)
		}
	}
	return result, nil
}

// Stats summarizes corpus-wide counters.
func (e *Engine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n, l, err := e.index.CorpusStats()
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	termCount, err := e.index.TermCount()
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return Stats{
		DocumentCount: n,
		TotalTerms:    termCount,
		AvgDocLength:  ranker.CorpusStats{N: n, L: l}.AvgDocLength(),
	}, nil
}

func combine(terms []string, postingsByTerm map[string]map[string]int, mode Mode) map[string]struct{} {
	candidates := make(map[string]struct{})

	switch mode {
	case ModeOR:
		for _, t := range terms {
			for id := range postingsByTerm[t] {
				candidates[id] = struct{}{}
			}
		}
	default: // ModeAND
		for i, t := range terms {
			list := postingsByTerm[t]
			if len(list) == 0 {
				return map[string]struct{}{}
			}
			if i == 0 {
				for id := range list {
					candidates[id] = struct{}{}
				}
				continue
			}
			for id := range candidates {
				if _, ok := list[id]; !ok {
					delete(candidates, id)
				}
			}
		}
	}
	return candidates
}

func paginate[T any](items []T, offset, limit int) []T {
	if limit == 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
