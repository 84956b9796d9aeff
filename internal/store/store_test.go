package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merklekv/merklekv/internal/trie"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DefaultOptions(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sortedItems(items ...BatchItem) []BatchItem {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Path.Compare(items[j-1].Path) < 0; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	return items
}

func TestOpenEmptyStore(t *testing.T) {
	s := openTestStore(t)
	assert.True(t, s.Root().IsZero())
}

func TestCommitAndRead(t *testing.T) {
	s := openTestStore(t)

	pathA := trie.DerivePath([]byte("a"))
	pathB := trie.DerivePath([]byte("b"))

	root, err := s.Commit(s.BeginSession(), sortedItems(
		BatchItem{Path: pathA, Value: []byte("1")},
		BatchItem{Path: pathB, Value: []byte("2")},
	))
	require.NoError(t, err)
	assert.False(t, root.IsZero())
	assert.Equal(t, root, s.Root())

	sess := s.BeginSession()
	got, err := sess.Read(pathA)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	got, err = sess.Read(pathB)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	_, err = sess.Read(trie.DerivePath([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitDelete(t *testing.T) {
	s := openTestStore(t)

	pathA := trie.DerivePath([]byte("a"))
	pathB := trie.DerivePath([]byte("b"))

	_, err := s.Commit(s.BeginSession(), sortedItems(
		BatchItem{Path: pathA, Value: []byte("1")},
		BatchItem{Path: pathB, Value: []byte("2")},
	))
	require.NoError(t, err)

	rootAfterWrite := s.Root()

	// nil value deletes the entry
	_, err = s.Commit(s.BeginSession(), []BatchItem{{Path: pathB}})
	require.NoError(t, err)

	sess := s.BeginSession()
	_, err = sess.Read(pathB)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := sess.Read(pathA)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	assert.NotEqual(t, rootAfterWrite, s.Root())

	// Root must equal that of a store that only ever held "a".
	other := openTestStore(t)
	otherRoot, err := other.Commit(other.BeginSession(), []BatchItem{
		{Path: pathA, Value: []byte("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, otherRoot, s.Root())
}

func TestCommitLargeValue(t *testing.T) {
	s := openTestStore(t)

	path := trie.DerivePath([]byte("big"))
	value := bytes.Repeat([]byte("v"), 4096)

	_, err := s.Commit(s.BeginSession(), []BatchItem{{Path: path, Value: value}})
	require.NoError(t, err)

	got, err := s.BeginSession().Read(path)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestCommitBatchValidation(t *testing.T) {
	s := openTestStore(t)

	pathA := trie.DerivePath([]byte("a"))
	pathB := trie.DerivePath([]byte("b"))
	low, high := pathA, pathB
	if low.Compare(high) > 0 {
		low, high = high, low
	}

	_, err := s.Commit(s.BeginSession(), []BatchItem{
		{Path: high, Value: []byte("1")},
		{Path: low, Value: []byte("2")},
	})
	assert.ErrorIs(t, err, ErrUnsortedBatch)

	_, err = s.Commit(s.BeginSession(), []BatchItem{
		{Path: low, Value: []byte("1")},
		{Path: low, Value: []byte("2")},
	})
	assert.ErrorIs(t, err, ErrDuplicatePath)

	// Neither attempt changed the store
	assert.True(t, s.Root().IsZero())
}

func TestCommitForeignSession(t *testing.T) {
	s := openTestStore(t)
	other := openTestStore(t)

	_, err := s.Commit(other.BeginSession(), nil)
	assert.ErrorIs(t, err, ErrForeignSession)

	_, err = s.Commit(nil, nil)
	assert.ErrorIs(t, err, ErrForeignSession)
}

func TestRootIdempotent(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Commit(s.BeginSession(), []BatchItem{
		{Path: trie.DerivePath([]byte("a")), Value: []byte("1")},
	})
	require.NoError(t, err)

	first := s.Root()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Root())
	}
}

func TestReopenKeepsRootAndEntries(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DefaultOptions(dir))
	require.NoError(t, err)

	path := trie.DerivePath([]byte("persists"))
	root, err := s.Commit(s.BeginSession(), []BatchItem{{Path: path, Value: []byte("v")}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(DefaultOptions(dir))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, root, reopened.Root())

	got, err := reopened.BeginSession().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestOpenRejectsMismatchedMeta(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DefaultOptions(dir))
	require.NoError(t, err)

	// Corrupt the recorded seed, as if the store came from an incompatible
	// build.
	badMeta := make([]byte, 1+len(storeSeed))
	badMeta[0] = storeFormatVersion
	badMeta[1] = ^storeSeed[0]
	require.NoError(t, s.kv.Put(makeKey(prefixMeta, nil), badMeta))
	require.NoError(t, s.Close())

	_, err = Open(DefaultOptions(dir))
	assert.ErrorIs(t, err, ErrStoreMismatch)
}

func TestCommitConcurrencyMatchesSequential(t *testing.T) {
	items := make([]BatchItem, 0, 64)
	for i := 0; i < 64; i++ {
		items = append(items, BatchItem{
			Path:  trie.DerivePath([]byte{byte(i)}),
			Value: []byte{byte(i), byte(i)},
		})
	}
	items = sortedItems(items...)

	opts := DefaultOptions(t.TempDir())
	opts.CommitConcurrency = 4
	concurrent, err := Open(opts)
	require.NoError(t, err)
	defer concurrent.Close()

	sequential := openTestStore(t)

	rootConcurrent, err := concurrent.Commit(concurrent.BeginSession(), items)
	require.NoError(t, err)
	rootSequential, err := sequential.Commit(sequential.BeginSession(), items)
	require.NoError(t, err)

	assert.Equal(t, rootSequential, rootConcurrent)
}
