package server

import (
	"github.com/merklekv/merklekv/internal/crypto"
	"github.com/merklekv/merklekv/internal/store"
)

// sessionManager owns the single live session. The session is threaded
// through every connection; it is only ever replaced here, synchronously,
// when a commit consumes it.
type sessionManager struct {
	store   *store.Store
	current *store.Session
}

func newSessionManager(st *store.Store) *sessionManager {
	return &sessionManager{
		store:   st,
		current: st.BeginSession(),
	}
}

// Current returns the live session for reads and prefetches.
func (m *sessionManager) Current() *store.Session {
	return m.current
}

// CommitAndReplace hands the current session into a commit and installs a
// fresh one before returning, whether or not the commit succeeded. There is
// never a window without a live session.
func (m *sessionManager) CommitAndReplace(items []store.BatchItem) (crypto.Hash, error) {
	root, err := m.store.Commit(m.current, items)
	m.current = m.store.BeginSession()
	return root, err
}
