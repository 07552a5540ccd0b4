package index

import (
	"github.com/arterning/gofts/internal/codec"
	"github.com/arterning/gofts/internal/storage"
)

// Planner accumulates a sequence of upserts/deletes against an overlay
// of the index's persisted state, so a whole upsert_batch can share one
// atomic commit even when several documents in the batch touch the same
// term or the same document id. Without the overlay, two PlanInsert
// calls for documents sharing a term would each read the same
// storage-persisted posting list and the second would clobber the
// first's in-flight change; Planner makes every read within a batch see
// every earlier write in that same batch, exactly as a loop of
// independent upsert_document calls would if each commit were visible
// to the next.
type Planner struct {
	ix *Index

	postings map[string]map[string]int // term -> overlay posting list (empty once its last posting is removed)
	deleted  map[string]bool           // term -> true once its posting list has been emptied
	doclen   map[string]*docLenEntry   // docID -> overlay entry (nil means "deleted")
	n, l     int64
	loadedNL bool
}

// NewPlanner returns a Planner seeded from ix's current persisted state.
func (ix *Index) NewPlanner() *Planner {
	return &Planner{
		ix:       ix,
		postings: make(map[string]map[string]int),
		deleted:  make(map[string]bool),
		doclen:   make(map[string]*docLenEntry),
	}
}

// Upsert applies docID's analyzed tokens, first removing any prior
// contribution docID made (whether persisted or earlier in this same
// batch), then indexing the new tokens. Last write wins when the same
// docID is upserted more than once in one batch.
func (p *Planner) Upsert(docID string, tokens []string) error {
	if err := p.deleteLocked(docID); err != nil {
		return err
	}
	return p.insertLocked(docID, tokens)
}

// Delete removes docID's contribution, if any (persisted or from
// earlier in this batch). Returns whether a document was actually
// removed.
func (p *Planner) Delete(docID string) (bool, error) {
	entry, err := p.docLen(docID)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	return true, p.deleteLocked(docID)
}

func (p *Planner) insertLocked(docID string, tokens []string) error {
	freq := make(map[string]int, len(tokens))
	var distinctOrder []string
	for _, tok := range tokens {
		if _, seen := freq[tok]; !seen {
			distinctOrder = append(distinctOrder, tok)
		}
		freq[tok]++
	}

	for _, term := range distinctOrder {
		list, err := p.postingList(term)
		if err != nil {
			return err
		}
		list[docID] = freq[term]
		p.postings[term] = list
		p.deleted[term] = false
	}

	if err := p.loadCounters(); err != nil {
		return err
	}
	p.n++
	p.l += int64(len(tokens))
	p.doclen[docID] = &docLenEntry{Length: len(tokens), Terms: distinctOrder}
	return nil
}

func (p *Planner) deleteLocked(docID string) error {
	entry, err := p.docLen(docID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	for _, term := range entry.Terms {
		list, err := p.postingList(term)
		if err != nil {
			return err
		}
		delete(list, docID)
		p.postings[term] = list
		p.deleted[term] = len(list) == 0
	}

	if err := p.loadCounters(); err != nil {
		return err
	}
	p.n--
	if p.n < 0 {
		p.n = 0
	}
	p.l -= int64(entry.Length)
	if p.l < 0 {
		p.l = 0
	}
	p.doclen[docID] = nil
	return nil
}

func (p *Planner) postingList(term string) (map[string]int, error) {
	if list, ok := p.postings[term]; ok {
		return list, nil
	}
	list, err := p.ix.loadPostings(term)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Planner) docLen(docID string) (*docLenEntry, error) {
	if entry, ok := p.doclen[docID]; ok {
		return entry, nil
	}
	entry, found, err := p.ix.loadDocLen(docID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

func (p *Planner) loadCounters() error {
	if p.loadedNL {
		return nil
	}
	n, l, err := p.ix.corpusCounters()
	if err != nil {
		return err
	}
	p.n, p.l = n, l
	p.loadedNL = true
	return nil
}

// Finish returns the storage ops representing every accumulated change,
// ready for a single atomic storage.Batch commit.
func (p *Planner) Finish() ([]storage.Op, error) {
	var ops []storage.Op

	for term, list := range p.postings {
		if p.deleted[term] {
			ops = append(ops, storage.Op{Tree: PostingsTree, Kind: storage.OpDelete, Key: []byte(term)})
			continue
		}
		op, err := p.ix.encodePostingsOp(term, list)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	for docID, entry := range p.doclen {
		if entry == nil {
			ops = append(ops, storage.Op{Tree: DocLenTree, Kind: storage.OpDelete, Key: []byte(docID)})
			continue
		}
		val, err := codec.Encode(*entry)
		if err != nil {
			return nil, err
		}
		ops = append(ops, storage.Op{Tree: DocLenTree, Kind: storage.OpPut, Key: []byte(docID), Value: val})
	}

	if p.loadedNL {
		counterOps, err := p.ix.counterOps(p.n, p.l)
		if err != nil {
			return nil, err
		}
		ops = append(ops, counterOps...)
	}

	return ops, nil
}
