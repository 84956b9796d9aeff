package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/merklekv/merklekv/internal/crypto"
	"github.com/merklekv/merklekv/internal/trie"
	"github.com/merklekv/merklekv/pkg/db"
	"github.com/merklekv/merklekv/pkg/db/pebble"
)

const storeFormatVersion byte = 1

// storeSeed pins the on-disk identity of a store. It is a fixed internal
// constant, recorded at creation and verified on every open.
var storeSeed = [16]byte{
	42, 42, 42, 42, 42, 42, 42, 42,
	42, 42, 42, 42, 42, 42, 42, 42,
}

// Options is the store's tuning surface, passed opaquely from the process
// configuration.
type Options struct {
	// Path is the on-disk location of the store.
	Path string
	// IOWorkers bounds background I/O concurrency of the backing KV store.
	IOWorkers int
	// CommitConcurrency bounds the number of goroutines hashing subtrees
	// during a commit.
	CommitConcurrency int
	// HashtableBuckets sizes the block cache, 1 KiB per bucket.
	HashtableBuckets int
}

// DefaultOptions returns the default tuning for a store at path.
func DefaultOptions(path string) Options {
	return Options{
		Path:              path,
		IOWorkers:         4,
		CommitConcurrency: 1,
		HashtableBuckets:  64000,
	}
}

// Store is a content-addressed, versioned key-value store. Every commit
// re-merklizes the full entry set and advances the root commitment.
type Store struct {
	kv            db.KVStore
	commitWorkers int

	mu   sync.RWMutex
	root crypto.Hash
}

// Open opens (or creates) the store at opts.Path and loads the last
// committed root. Opening a store created with a different format version or
// seed fails with ErrStoreMismatch.
func Open(opts Options) (*Store, error) {
	if opts.CommitConcurrency < 1 {
		opts.CommitConcurrency = 1
	}
	kv, err := pebble.NewKVStore(opts.Path, pebble.Config{
		CacheSize:   int64(opts.HashtableBuckets) * 1024,
		Compactions: opts.IOWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open backing store: %w", err)
	}

	s := &Store{kv: kv, commitWorkers: opts.CommitConcurrency}
	if err := s.checkMeta(); err != nil {
		_ = kv.Close()
		return nil, err
	}
	if err := s.loadRoot(); err != nil {
		_ = kv.Close()
		return nil, err
	}
	return s, nil
}

// Root returns the current committed root. Independent of any session; the
// root of an empty store is the zero hash.
func (s *Store) Root() crypto.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Commit consumes the session and atomically applies the batch: entries are
// written or deleted, the full entry set is re-merklized, and the new root
// is persisted. Items must be strictly ascending by path.
//
// The session is unusable afterwards even when the commit fails.
func (s *Store) Commit(sess *Session, items []BatchItem) (crypto.Hash, error) {
	if sess == nil || sess.store != s {
		return crypto.Hash{}, ErrForeignSession
	}
	if !sess.consume() {
		return crypto.Hash{}, ErrSessionConsumed
	}
	if err := validateBatch(items); err != nil {
		return crypto.Hash{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pairs, err := s.collectPairs(items)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to collect entries: %w", err)
	}

	batch := s.kv.NewBatch()
	defer batch.Close()

	for _, item := range items {
		key := makeKey(prefixEntry, item.Path[:])
		if item.Value == nil {
			err = batch.Delete(key)
		} else {
			err = batch.Put(key, item.Value)
		}
		if err != nil {
			return crypto.Hash{}, fmt.Errorf("failed to stage entry: %w", err)
		}
	}

	// Subtree hashing may run on several goroutines; the batch is not safe
	// for concurrent writes.
	var batchMu sync.Mutex
	saveNode := func(hash crypto.Hash, node trie.Node) error {
		batchMu.Lock()
		defer batchMu.Unlock()
		return batch.Put(makeKey(prefixTrieNode, hash[:]), node[:])
	}
	saveValue := func(value []byte) error {
		hash := crypto.HashData(value)
		batchMu.Lock()
		defer batchMu.Unlock()
		return batch.Put(makeKey(prefixTrieValue, hash[:]), value)
	}

	root, err := trie.MerklizeConcurrent(pairs, s.commitWorkers, saveNode, saveValue)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to merklize: %w", err)
	}

	if err := batch.Put(makeKey(prefixRoot, nil), root[:]); err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to stage root: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	s.root = root
	return root, nil
}

// Close closes the backing KV store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// collectPairs merges the persisted entry set with the staged batch into the
// pair list to merklize.
func (s *Store) collectPairs(items []BatchItem) ([]trie.Pair, error) {
	entries := make(map[trie.Path][]byte)

	start := []byte{prefixEntry}
	end := []byte{prefixEntry + 1}
	iter, err := s.kv.NewIterator(start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.Next() {
		key := iter.Key()
		if len(key) != 1+trie.PathSize {
			return nil, fmt.Errorf("malformed entry key of length %d", len(key))
		}
		value, err := iter.Value()
		if err != nil {
			return nil, err
		}
		entries[trie.Path(key[1:])] = value
	}

	for _, item := range items {
		if item.Value == nil {
			delete(entries, item.Path)
		} else {
			entries[item.Path] = item.Value
		}
	}

	pairs := make([]trie.Pair, 0, len(entries))
	for path, value := range entries {
		pairs = append(pairs, trie.Pair{Path: path, Value: value})
	}
	return pairs, nil
}

// checkMeta verifies the meta record on reopen, or writes it on first open.
func (s *Store) checkMeta() error {
	want := make([]byte, 1+len(storeSeed))
	want[0] = storeFormatVersion
	copy(want[1:], storeSeed[:])

	key := makeKey(prefixMeta, nil)
	got, err := s.kv.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return s.kv.Put(key, want)
	}
	if err != nil {
		return fmt.Errorf("failed to read store meta: %w", err)
	}
	if !bytes.Equal(got, want) {
		return ErrStoreMismatch
	}
	return nil
}

// loadRoot restores the committed root, if any.
func (s *Store) loadRoot() error {
	data, err := s.kv.Get(makeKey(prefixRoot, nil))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read root record: %w", err)
	}
	if len(data) != crypto.HashSize {
		return fmt.Errorf("malformed root record of length %d", len(data))
	}
	copy(s.root[:], data)
	return nil
}
