// Package storage provides the durable key/value substrate the engine
// builds its document store and inverted index on top of: named "trees"
// (bbolt buckets) over one physical bbolt file, with atomic cross-tree
// batch writes.
//
// This is the teacher's own choice of backend (zhaoyao-tns/store.go opens
// a bolt.DB and keeps named buckets for docs/tokens/postings); what
// changes here is the shape of the API, generalized from one
// engine-specific struct into a small reusable Storage/Tree pair that the
// document store and inverted index build on independently.
package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// OpKind distinguishes a put from a delete within a Batch.
type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

// Op is a single mutation against one tree, part of an atomically
// committed Batch.
type Op struct {
	Tree  string
	Key   []byte
	Value []byte // ignored for OpDelete
	Kind  OpKind
}

// Storage is a durable key/value substrate. All exported methods are
// safe for concurrent use; bbolt itself serializes writers and gives
// readers a consistent snapshot.
type Storage struct {
	db *bolt.DB
}

// Open opens or creates the store at path. bbolt takes an exclusive file
// lock, so a second Open against the same path while the first is still
// open fails once it has waited one second for that lock.
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &Storage{db: db}, nil
}

// Close flushes and releases the underlying file handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Flush durably persists buffered writes. bbolt fsyncs on every Update
// commit by default, so Flush only adds durability for callers that
// disabled that (NoSync) and want an explicit durability point.
func (s *Storage) Flush() error {
	return s.db.Sync()
}

// Tree returns an idempotent accessor for the named namespace, creating
// the underlying bucket if this is the first reference to it.
func (s *Storage) Tree(name string) (*Tree, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create tree %s: %w", name, err)
	}
	return &Tree{name: name, db: s.db}, nil
}

// Tree is a named key-space within a Storage.
type Tree struct {
	name string
	db   *bolt.DB
}

// Get returns the value stored under key, or (nil, false) if absent.
// The returned slice is a copy and safe to retain past the call.
func (t *Tree) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := t.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(t.name)).Get(key)
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Put writes key/value, visible to readers once this call returns.
func (t *Tree) Put(key, value []byte) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(t.name)).Put(key, value)
	})
}

// Delete removes key; deleting an absent key is a no-op.
func (t *Tree) Delete(key []byte) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(t.name)).Delete(key)
	})
}

// ScanPrefix calls fn for every key/value pair whose key starts with
// prefix, in ascending key order. Returning an error from fn stops the
// scan and propagates the error.
func (t *Tree) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	return t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(t.name)).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Iter calls fn for every key/value pair in the tree, in ascending key
// order.
func (t *Tree) Iter(fn func(key, value []byte) error) error {
	return t.ScanPrefix(nil, fn)
}

func hasPrefix(k, prefix []byte) bool {
	if len(prefix) == 0 {
		return true
	}
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Batch applies ops atomically against a single bbolt transaction: every
// tree named in ops is touched within one Update, so either all of the
// operations take effect or none do, and no reader observes a partial
// state. This is what keeps the document store, postings, and meta
// trees consistent across an upsert or delete.
func (s *Storage) Batch(ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		buckets := make(map[string]*bolt.Bucket, 4)
		bucket := func(name string) (*bolt.Bucket, error) {
			if b, ok := buckets[name]; ok {
				return b, nil
			}
			b, err := tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return nil, err
			}
			buckets[name] = b
			return b, nil
		}

		for _, op := range ops {
			b, err := bucket(op.Tree)
			if err != nil {
				return err
			}
			switch op.Kind {
			case OpPut:
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			case OpDelete:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
