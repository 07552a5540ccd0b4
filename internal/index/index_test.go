package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterning/gofts/internal/index"
	"github.com/arterning/gofts/internal/storage"
)

func openIndex(t *testing.T) *index.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ix, err := index.Open(st)
	require.NoError(t, err)
	return ix
}

func commit(t *testing.T, st *storage.Storage, ops []storage.Op) {
	t.Helper()
	require.NoError(t, st.Batch(ops))
}

func TestPlanInsertThenPostings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ix, err := index.Open(st)
	require.NoError(t, err)

	ops, err := ix.PlanInsert("doc1", []string{"rust", "is", "fast", "rust"})
	require.NoError(t, err)
	commit(t, st, ops)

	postings, err := ix.PostingsFor("rust")
	require.NoError(t, err)
	assert.Equal(t, 2, postings["doc1"])

	length, err := ix.DocLength("doc1")
	require.NoError(t, err)
	assert.Equal(t, 4, length)

	n, l, err := ix.CorpusStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 4, l)
}

func TestPlanDeleteRemovesEmptyPostingList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ix, err := index.Open(st)
	require.NoError(t, err)

	ops, err := ix.PlanInsert("doc1", []string{"rust"})
	require.NoError(t, err)
	commit(t, st, ops)

	ops, err = ix.PlanDelete("doc1")
	require.NoError(t, err)
	commit(t, st, ops)

	postings, err := ix.PostingsFor("rust")
	require.NoError(t, err)
	assert.Empty(t, postings)

	length, err := ix.DocLength("doc1")
	require.NoError(t, err)
	assert.Equal(t, 0, length)

	n, l, err := ix.CorpusStats()
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
	assert.EqualValues(t, 0, l)
}

func TestPlanDeleteOnAbsentDocIsNoOp(t *testing.T) {
	ix := openIndex(t)
	ops, err := ix.PlanDelete("missing")
	require.NoError(t, err)
	assert.Nil(t, ops)
}

func TestPlannerUpsertKeepsEarlierDocInSharedTerm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ix, err := index.Open(st)
	require.NoError(t, err)

	planner := ix.NewPlanner()
	require.NoError(t, planner.Upsert("doc1", []string{"go", "go"}))
	require.NoError(t, planner.Upsert("doc2", []string{"go"}))
	ops, err := planner.Finish()
	require.NoError(t, err)
	commit(t, st, ops)

	postings, err := ix.PostingsFor("go")
	require.NoError(t, err)
	assert.Equal(t, 2, postings["doc1"])
	assert.Equal(t, 1, postings["doc2"])

	n, _, err := ix.CorpusStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestPlannerDuplicateIDInBatchIsLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ix, err := index.Open(st)
	require.NoError(t, err)

	planner := ix.NewPlanner()
	require.NoError(t, planner.Upsert("doc1", []string{"rust", "rust"}))
	require.NoError(t, planner.Upsert("doc1", []string{"go", "go"}))
	ops, err := planner.Finish()
	require.NoError(t, err)
	commit(t, st, ops)

	rustPostings, err := ix.PostingsFor("rust")
	require.NoError(t, err)
	assert.Empty(t, rustPostings)

	goPostings, err := ix.PostingsFor("go")
	require.NoError(t, err)
	assert.Equal(t, 2, goPostings["doc1"])

	n, _, err := ix.CorpusStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUpsertRoundTripRestoresState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofts.db")
	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ix, err := index.Open(st)
	require.NoError(t, err)

	nBefore, lBefore, err := ix.CorpusStats()
	require.NoError(t, err)

	planner := ix.NewPlanner()
	require.NoError(t, planner.Upsert("doc1", []string{"rust", "fast"}))
	ops, err := planner.Finish()
	require.NoError(t, err)
	commit(t, st, ops)

	planner = ix.NewPlanner()
	_, err = planner.Delete("doc1")
	require.NoError(t, err)
	ops, err = planner.Finish()
	require.NoError(t, err)
	commit(t, st, ops)

	nAfter, lAfter, err := ix.CorpusStats()
	require.NoError(t, err)
	assert.Equal(t, nBefore, nAfter)
	assert.Equal(t, lBefore, lAfter)

	postings, err := ix.PostingsFor("rust")
	require.NoError(t, err)
	assert.Empty(t, postings)
}
