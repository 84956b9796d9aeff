package trie

import (
	"bytes"
	"crypto/sha256"
)

// PathSize is the size of a trie path in bytes.
const PathSize = 32

// Path is the trie's native addressing unit: a fixed-width key derived from
// an arbitrary client key. Paths are compared lexicographically on raw bytes.
type Path [PathSize]byte

// DerivePath maps an arbitrary client key to a Path.
//
// The digest is pinned to SHA-256: clients derive the same paths on their
// side, so the algorithm is a compatibility parameter and must not change.
func DerivePath(key []byte) Path {
	return sha256.Sum256(key)
}

// Compare orders two paths lexicographically, returning -1, 0 or +1.
func (p Path) Compare(other Path) int {
	return bytes.Compare(p[:], other[:])
}

// bit returns the i-th bit of the path, most significant first.
func (p Path) bit(i int) bool {
	return (p[i/8] & (1 << (7 - i%8))) != 0
}
