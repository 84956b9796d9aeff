package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorRange(t *testing.T) {
	store, err := NewKVStore(t.TempDir(), Config{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte{1, 'a'}, []byte("outside-low")))
	require.NoError(t, store.Put([]byte{2, 'a'}, []byte("va")))
	require.NoError(t, store.Put([]byte{2, 'b'}, []byte("vb")))
	require.NoError(t, store.Put([]byte{3, 'a'}, []byte("outside-high")))

	iter, err := store.NewIterator([]byte{2}, []byte{3})
	require.NoError(t, err)
	defer iter.Close()

	var keys [][]byte
	var values [][]byte
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		keys = append(keys, iter.Key())
		values = append(values, value)
	}

	assert.Equal(t, [][]byte{{2, 'a'}, {2, 'b'}}, keys)
	assert.Equal(t, [][]byte{[]byte("va"), []byte("vb")}, values)
}

func TestIteratorEmptyRange(t *testing.T) {
	store, err := NewKVStore(t.TempDir(), Config{})
	require.NoError(t, err)
	defer store.Close()

	iter, err := store.NewIterator([]byte{2}, []byte{3})
	require.NoError(t, err)
	defer iter.Close()

	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())

	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
}
