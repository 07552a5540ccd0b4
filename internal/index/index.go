// Package index implements the inverted index: per-term posting lists,
// per-document length (plus the set of distinct terms in that document,
// so delete never needs a full postings scan), and global corpus
// statistics. It is grounded on the teacher's Token/PostingList types
// and indexer/invert-index bookkeeping (zhaoyao-tns/index.go,
// indexer.go, invert_index.go), generalized from the teacher's
// in-memory-then-flush batching into the spec's read-snapshot ->
// BatchPlan -> caller-commits split: the index never commits a batch
// itself, the engine does, atomically alongside the document store put.
package index

import (
	"github.com/arterning/gofts/internal/codec"
	"github.com/arterning/gofts/internal/storage"
)

const (
	PostingsTree = "postings"
	DocLenTree   = "doclen"
	MetaTree     = "meta"

	metaKeyN = "N" // corpus document count
	metaKeyL = "L" // corpus total token length
)

// docLenEntry is the doclen tree's value shape: length plus the set of
// distinct terms in the document, so PlanDelete can find every posting
// list touching a doc without scanning the whole postings tree.
type docLenEntry struct {
	Length int
	Terms  []string
}

// Index owns the postings, doclen, and meta trees.
type Index struct {
	postings *storage.Tree
	doclen   *storage.Tree
	meta     *storage.Tree
}

// Open returns an Index backed by s's postings/doclen/meta trees.
func Open(s *storage.Storage) (*Index, error) {
	postings, err := s.Tree(PostingsTree)
	if err != nil {
		return nil, err
	}
	doclen, err := s.Tree(DocLenTree)
	if err != nil {
		return nil, err
	}
	meta, err := s.Tree(MetaTree)
	if err != nil {
		return nil, err
	}
	return &Index{postings: postings, doclen: doclen, meta: meta}, nil
}

// PlanInsert computes the storage ops that add docID's analyzed tokens
// to the index: one posting-list rewrite per distinct term, the
// doc's length+term-set entry, and the N/L counter deltas. It does not
// commit anything; the caller folds the returned ops into one atomic
// batch, e.g. alongside a document-store put. It reads only persisted
// state, so its ops do not compose with another plan's ops (such as
// PlanDelete's for a replacing upsert) in the same batch: both write the
// N/L counters. Planner combines several changes into one batch.
func (ix *Index) PlanInsert(docID string, tokens []string) ([]storage.Op, error) {
	freq := make(map[string]int, len(tokens))
	var distinctOrder []string
	for _, tok := range tokens {
		if _, seen := freq[tok]; !seen {
			distinctOrder = append(distinctOrder, tok)
		}
		freq[tok]++
	}

	var ops []storage.Op
	for _, term := range distinctOrder {
		list, err := ix.loadPostings(term)
		if err != nil {
			return nil, err
		}
		list[docID] = freq[term]
		op, err := ix.encodePostingsOp(term, list)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	entry := docLenEntry{Length: len(tokens), Terms: distinctOrder}
	entryVal, err := codec.Encode(entry)
	if err != nil {
		return nil, err
	}
	ops = append(ops, storage.Op{Tree: DocLenTree, Kind: storage.OpPut, Key: []byte(docID), Value: entryVal})

	n, l, err := ix.corpusCounters()
	if err != nil {
		return nil, err
	}
	n++
	l += int64(len(tokens))
	counterOps, err := ix.counterOps(n, l)
	if err != nil {
		return nil, err
	}
	ops = append(ops, counterOps...)

	return ops, nil
}

// PlanDelete computes the ops that remove docID from the index: one
// posting-list rewrite (or delete, if the posting list becomes empty)
// per term the document contributed, the doclen entry, and the N/L
// counter deltas. Returns a nil plan if docID is not currently indexed.
func (ix *Index) PlanDelete(docID string) ([]storage.Op, error) {
	entry, found, err := ix.loadDocLen(docID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var ops []storage.Op
	for _, term := range entry.Terms {
		list, err := ix.loadPostings(term)
		if err != nil {
			return nil, err
		}
		delete(list, docID)
		if len(list) == 0 {
			ops = append(ops, storage.Op{Tree: PostingsTree, Kind: storage.OpDelete, Key: []byte(term)})
			continue
		}
		op, err := ix.encodePostingsOp(term, list)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	ops = append(ops, storage.Op{Tree: DocLenTree, Kind: storage.OpDelete, Key: []byte(docID)})

	n, l, err := ix.corpusCounters()
	if err != nil {
		return nil, err
	}
	n--
	if n < 0 {
		n = 0
	}
	l -= int64(entry.Length)
	if l < 0 {
		l = 0
	}
	counterOps, err := ix.counterOps(n, l)
	if err != nil {
		return nil, err
	}
	ops = append(ops, counterOps...)

	return ops, nil
}

// PostingsFor returns the doc_id -> term_frequency mapping for term, an
// empty map if term is not present in the index.
func (ix *Index) PostingsFor(term string) (map[string]int, error) {
	return ix.loadPostings(term)
}

// DocLength returns docID's analyzed token count, zero if absent.
func (ix *Index) DocLength(docID string) (int, error) {
	entry, found, err := ix.loadDocLen(docID)
	if err != nil || !found {
		return 0, err
	}
	return entry.Length, nil
}

// CorpusStats returns (N, total_token_length).
func (ix *Index) CorpusStats() (int64, int64, error) {
	return ix.corpusCounters()
}

// TermCount returns the number of distinct terms currently indexed.
func (ix *Index) TermCount() (int, error) {
	count := 0
	err := ix.postings.Iter(func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

func (ix *Index) loadPostings(term string) (map[string]int, error) {
	raw, ok, err := ix.postings.Get([]byte(term))
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]int{}, nil
	}
	var list map[string]int
	if err := codec.Decode(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (ix *Index) encodePostingsOp(term string, list map[string]int) (storage.Op, error) {
	val, err := codec.Encode(list)
	if err != nil {
		return storage.Op{}, err
	}
	return storage.Op{Tree: PostingsTree, Kind: storage.OpPut, Key: []byte(term), Value: val}, nil
}

func (ix *Index) loadDocLen(docID string) (docLenEntry, bool, error) {
	raw, ok, err := ix.doclen.Get([]byte(docID))
	if err != nil || !ok {
		return docLenEntry{}, false, err
	}
	var entry docLenEntry
	if err := codec.Decode(raw, &entry); err != nil {
		return docLenEntry{}, false, err
	}
	return entry, true, nil
}

func (ix *Index) corpusCounters() (int64, int64, error) {
	n, err := ix.readCounter(metaKeyN)
	if err != nil {
		return 0, 0, err
	}
	l, err := ix.readCounter(metaKeyL)
	if err != nil {
		return 0, 0, err
	}
	return n, l, nil
}

func (ix *Index) readCounter(key string) (int64, error) {
	raw, ok, err := ix.meta.Get([]byte(key))
	if err != nil || !ok {
		return 0, err
	}
	var v int64
	if err := codec.Decode(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (ix *Index) counterOps(n, l int64) ([]storage.Op, error) {
	nVal, err := codec.Encode(n)
	if err != nil {
		return nil, err
	}
	lVal, err := codec.Encode(l)
	if err != nil {
		return nil, err
	}
	return []storage.Op{
		{Tree: MetaTree, Kind: storage.OpPut, Key: []byte(metaKeyN), Value: nVal},
		{Tree: MetaTree, Kind: storage.OpPut, Key: []byte(metaKeyL), Value: lVal},
	}, nil
}
