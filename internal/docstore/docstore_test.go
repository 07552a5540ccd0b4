package docstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterning/gofts/internal/docstore"
	"github.com/arterning/gofts/internal/storage"
)

func open(t *testing.T) (*storage.Storage, *docstore.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ds, err := docstore.Open(st)
	require.NoError(t, err)
	return st, ds
}

func TestPutGet(t *testing.T) {
	st, ds := open(t)
	doc := docstore.Document{ID: "1", Title: "Rust", Content: "rust is fast", URL: "https://example.com"}

	op, err := ds.Put(doc)
	require.NoError(t, err)
	require.NoError(t, st.Batch([]storage.Op{op}))

	got, found, err := ds.Get("1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc, got)
}

func TestGetMissing(t *testing.T) {
	_, ds := open(t)
	_, found, err := ds.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteOp(t *testing.T) {
	st, ds := open(t)
	doc := docstore.Document{ID: "1", Content: "x"}
	op, err := ds.Put(doc)
	require.NoError(t, err)
	require.NoError(t, st.Batch([]storage.Op{op}))

	require.NoError(t, st.Batch([]storage.Op{docstore.DeleteOp("1")}))

	_, found, err := ds.Get("1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIter(t *testing.T) {
	st, ds := open(t)
	var ops []storage.Op
	for _, id := range []string{"1", "2", "3"} {
		op, err := ds.Put(docstore.Document{ID: id, Content: id})
		require.NoError(t, err)
		ops = append(ops, op)
	}
	require.NoError(t, st.Batch(ops))

	var seen []string
	require.NoError(t, ds.Iter(func(d docstore.Document) error {
		seen = append(seen, d.ID)
		return nil
	}))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, seen)
}
