package store

import (
	"errors"
	"sync/atomic"

	"github.com/merklekv/merklekv/internal/trie"
	"github.com/merklekv/merklekv/pkg/db/pebble"
)

// Session bounds one logical span of reads and prefetches preceding exactly
// one commit. A session is consumed by Commit and unusable afterwards.
type Session struct {
	store    *Store
	consumed atomic.Bool
}

// BeginSession starts a new read/write session against the store.
func (s *Store) BeginSession() *Session {
	return &Session{store: s}
}

// Read performs a point read of the entry at path. Returns ErrNotFound for
// an absent path and ErrSessionConsumed after the session was committed.
func (sess *Session) Read(path trie.Path) ([]byte, error) {
	if sess.consumed.Load() {
		return nil, ErrSessionConsumed
	}
	value, err := sess.store.kv.Get(makeKey(prefixEntry, path[:]))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// WarmUp hints that path is about to be accessed. The entry is read and
// dropped, pulling its blocks into the cache. Advisory: failures are not
// observable by the caller.
func (sess *Session) WarmUp(path trie.Path) {
	if sess.consumed.Load() {
		return
	}
	_, _ = sess.store.kv.Get(makeKey(prefixEntry, path[:]))
}

// consume marks the session as used up. Returns false if it already was.
func (sess *Session) consume() bool {
	return sess.consumed.CompareAndSwap(false, true)
}
