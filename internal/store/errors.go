package store

import "errors"

var (
	// ErrNotFound is returned by reads of an absent path. A normal outcome,
	// not a fault.
	ErrNotFound = errors.New("store: path not found")

	// ErrSessionConsumed is returned when a session is used after it was
	// passed into a commit.
	ErrSessionConsumed = errors.New("store: session already consumed by a commit")

	// ErrForeignSession is returned when a session from another store is
	// passed into a commit.
	ErrForeignSession = errors.New("store: session belongs to a different store")

	// ErrUnsortedBatch is returned when a commit batch is not strictly
	// ascending by path.
	ErrUnsortedBatch = errors.New("store: commit batch is not sorted by path")

	// ErrDuplicatePath is returned when a commit batch targets the same path
	// twice.
	ErrDuplicatePath = errors.New("store: duplicate path in commit batch")

	// ErrStoreMismatch is returned by Open when the on-disk store was created
	// with a different format version or seed.
	ErrStoreMismatch = errors.New("store: on-disk format or seed mismatch")
)
