package store

import (
	"github.com/merklekv/merklekv/internal/trie"
)

// BatchItem is one write-or-delete operation targeting a path. A nil Value
// deletes the entry; any non-nil Value writes it. Zero-length values cannot
// be stored: on the wire an empty value is the delete sentinel, and callers
// map it to a nil Value before the store sees it.
type BatchItem struct {
	Path  trie.Path
	Value []byte
}

// validateBatch enforces the commit precondition: items strictly ascending
// by path, hence no duplicates.
func validateBatch(items []BatchItem) error {
	for i := 1; i < len(items); i++ {
		switch items[i-1].Path.Compare(items[i].Path) {
		case 0:
			return ErrDuplicatePath
		case 1:
			return ErrUnsortedBatch
		}
	}
	return nil
}
