package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterning/gofts/internal/storage"
)

func open(t *testing.T) *storage.Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestTreePutGetDelete(t *testing.T) {
	st := open(t)
	tree, err := st.Tree("docs")
	require.NoError(t, err)

	_, ok, err := tree.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tree.Put([]byte("k1"), []byte("v1")))
	v, ok, err := tree.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	require.NoError(t, tree.Delete([]byte("k1")))
	_, ok, err = tree.Get([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanPrefix(t *testing.T) {
	st := open(t)
	tree, err := st.Tree("postings")
	require.NoError(t, err)

	require.NoError(t, tree.Put([]byte("term:rust"), []byte("a")))
	require.NoError(t, tree.Put([]byte("term:go"), []byte("b")))
	require.NoError(t, tree.Put([]byte("other:go"), []byte("c")))

	var keys []string
	err = tree.ScanPrefix([]byte("term:"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"term:rust", "term:go"}, keys)
}

func TestBatchIsAtomic(t *testing.T) {
	st := open(t)

	ops := []storage.Op{
		{Tree: "docs", Kind: storage.OpPut, Key: []byte("1"), Value: []byte("doc1")},
		{Tree: "meta", Kind: storage.OpPut, Key: []byte("N"), Value: []byte("1")},
	}
	require.NoError(t, st.Batch(ops))

	docs, err := st.Tree("docs")
	require.NoError(t, err)
	v, ok, err := docs.Get([]byte("1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc1", string(v))

	meta, err := st.Tree("meta")
	require.NoError(t, err)
	v, ok, err = meta.Get([]byte("N"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestBatchEmptyIsNoOp(t *testing.T) {
	st := open(t)
	assert.NoError(t, st.Batch(nil))
}
