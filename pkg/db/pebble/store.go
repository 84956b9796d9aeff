package pebble

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Config carries the tuning knobs exposed by the server's configuration
// surface. Zero values fall back to sensible defaults.
type Config struct {
	// CacheSize is the block cache size in bytes.
	CacheSize int64
	// MemTableSize is the size of a single memtable in bytes.
	MemTableSize uint64
	// Compactions bounds the number of concurrent background compactions.
	Compactions int
}

const (
	defaultCacheSize    = 64 * 1024 * 1024
	defaultMemTableSize = 32 * 1024 * 1024
)

// KVStore is a pebble-backed implementation of db.KVStore.
type KVStore struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
}

// NewKVStore opens (or creates) a pebble database at path.
func NewKVStore(path string, cfg Config) (*KVStore, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.MemTableSize == 0 {
		cfg.MemTableSize = defaultMemTableSize
	}
	opts := &pebble.Options{
		Cache:        pebble.NewCache(cfg.CacheSize),
		MemTableSize: cfg.MemTableSize,
	}
	if cfg.Compactions > 0 {
		opts.MaxConcurrentCompactions = func() int { return cfg.Compactions }
	}

	pdb, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// The returned slice is only valid until the closer is closed.
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
