// Package docstore persists full documents keyed by document id. It is a
// thin wrapper over a single storage.Tree, generalized from the
// teacher's BoltStore.AddDoc/GetDoc/DelDoc (zhaoyao-tns/store.go): that
// version allocated a uint64 id with NextSequence, this one is keyed by
// the caller-supplied string id the spec requires.
package docstore

import (
	"github.com/arterning/gofts/internal/codec"
	"github.com/arterning/gofts/internal/storage"
)

// TreeName is the tree documents are stored under.
const TreeName = "docs"

// Document is the immutable logical record the engine indexes and
// returns. Equality is by ID.
type Document struct {
	ID      string
	Title   string
	Content string
	URL     string
}

// Store persists Documents.
type Store struct {
	tree *storage.Tree
}

// Open returns a Store backed by the docs tree of s.
func Open(s *storage.Storage) (*Store, error) {
	tree, err := s.Tree(TreeName)
	if err != nil {
		return nil, err
	}
	return &Store{tree: tree}, nil
}

// Put writes doc as a storage.Op without committing it; the engine
// merges this into the same atomic batch as the index's plan.
func (s *Store) Put(doc Document) (storage.Op, error) {
	value, err := codec.Encode(doc)
	if err != nil {
		return storage.Op{}, err
	}
	return storage.Op{Tree: TreeName, Kind: storage.OpPut, Key: []byte(doc.ID), Value: value}, nil
}

// DeleteOp returns the storage.Op that removes id's document record.
func DeleteOp(id string) storage.Op {
	return storage.Op{Tree: TreeName, Kind: storage.OpDelete, Key: []byte(id)}
}

// Get returns the document stored under id, if any.
func (s *Store) Get(id string) (Document, bool, error) {
	raw, ok, err := s.tree.Get([]byte(id))
	if err != nil || !ok {
		return Document{}, false, err
	}
	var doc Document
	if err := codec.Decode(raw, &doc); err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// Iter calls fn for every stored document.
func (s *Store) Iter(fn func(Document) error) error {
	return s.tree.Iter(func(_, value []byte) error {
		var doc Document
		if err := codec.Decode(value, &doc); err != nil {
			return err
		}
		return fn(doc)
	})
}
