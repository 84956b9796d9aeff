package crypto

import (
	"golang.org/x/crypto/blake2b"
)

const HashSize = 32

// Hash is a 256-bit digest. It is used both for trie node hashes and for the
// committed root.
type Hash [HashSize]byte

// HashData hashes the input with BLAKE2b-256.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// IsZero reports whether the hash is all zeros, the root of an empty trie.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
