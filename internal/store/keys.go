package store

// Prefix constants for every record family in the backing KV store.
const (
	prefixMeta byte = iota + 1
	prefixRoot
	prefixEntry
	prefixTrieNode
	prefixTrieValue
)

// makeKey creates a storage key from a prefix and a suffix.
func makeKey(prefix byte, suffix []byte) []byte {
	key := make([]byte, 1+len(suffix))
	key[0] = prefix
	copy(key[1:], suffix)
	return key
}
