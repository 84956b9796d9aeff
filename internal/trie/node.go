package trie

import "github.com/merklekv/merklekv/internal/crypto"

const (
	// NodeSize is the size of an encoded node in bytes.
	NodeSize = 64

	// leafFlag marks a leaf node (first bit set).
	leafFlag byte = 0b10000000

	// regularLeafFlag marks a leaf whose value is stored out of line,
	// referenced by hash (second bit set).
	regularLeafFlag byte = 0b01000000

	// valueSizeMask extracts the embedded value length from the first byte.
	valueSizeMask byte = 0b00111111

	// EmbeddedValueMaxSize is the largest value stored inline in a leaf.
	EmbeddedValueMaxSize = 32
)

// Node is an encoded trie node: either a branch holding two child hashes, or
// a leaf holding a path prefix and a value (inline or by hash).
type Node [NodeSize]byte

// IsLeaf reports whether the node is a leaf.
func (n Node) IsLeaf() bool {
	return n[0]&leafFlag != 0
}

// IsBranch reports whether the node is a branch.
func (n Node) IsBranch() bool {
	return n[0]&leafFlag == 0
}

// IsEmbeddedLeaf reports whether the node is a leaf with an inline value.
func (n Node) IsEmbeddedLeaf() bool {
	return n.IsLeaf() && n[0]&regularLeafFlag == 0
}

// EmbeddedValueSize returns the length of the inline value of an embedded
// leaf.
func (n Node) EmbeddedValueSize() (int, error) {
	if !n.IsEmbeddedLeaf() {
		return 0, ErrNotEmbeddedLeaf
	}
	return int(n[0] & valueSizeMask), nil
}

// BranchHashes returns the left and right child hashes of a branch node.
// The first bit of the left hash is lost to the node type flag; child lookups
// must tolerate that (see EncodeBranchNode).
func (n Node) BranchHashes() (left, right crypto.Hash, err error) {
	if !n.IsBranch() {
		return crypto.Hash{}, crypto.Hash{}, ErrNotBranchNode
	}
	copy(left[:], n[:32])
	copy(right[:], n[32:])
	return left, right, nil
}

// LeafPathPrefix returns the first 31 bytes of the path stored in a leaf.
func (n Node) LeafPathPrefix() ([31]byte, error) {
	var prefix [31]byte
	if !n.IsLeaf() {
		return prefix, ErrNotLeafNode
	}
	copy(prefix[:], n[1:32])
	return prefix, nil
}

// LeafValue returns the inline value of an embedded leaf.
func (n Node) LeafValue() ([]byte, error) {
	size, err := n.EmbeddedValueSize()
	if err != nil {
		return nil, err
	}
	value := make([]byte, size)
	copy(value, n[32:32+size])
	return value, nil
}

// LeafValueHash returns the value hash of a regular (non-embedded) leaf.
func (n Node) LeafValueHash() (crypto.Hash, error) {
	if !n.IsLeaf() {
		return crypto.Hash{}, ErrNotLeafNode
	}
	if n.IsEmbeddedLeaf() {
		return crypto.Hash{}, ErrEmbeddedLeaf
	}
	var hash crypto.Hash
	copy(hash[:], n[32:])
	return hash, nil
}

// EncodeLeafNode encodes a leaf for the given path and value.
//
// Values up to EmbeddedValueMaxSize bytes are stored inline, with the length
// in the low six bits of the first byte. Larger values are stored out of line
// and the leaf carries their BLAKE2b hash instead.
func EncodeLeafNode(path Path, value []byte) Node {
	var node Node

	if len(value) <= EmbeddedValueMaxSize {
		node[0] = leafFlag | byte(len(value))
		copy(node[1:32], path[:31])
		copy(node[32:], value)
	} else {
		node[0] = leafFlag | regularLeafFlag
		copy(node[1:32], path[:31])
		hash := crypto.HashData(value)
		copy(node[32:], hash[:])
	}

	return node
}

// EncodeBranchNode encodes a branch from its two child hashes. The first bit
// of the left hash is sacrificed to the node type flag.
func EncodeBranchNode(left, right crypto.Hash) Node {
	var node Node

	node[0] = left[0] & 0b01111111
	copy(node[1:32], left[1:])
	copy(node[32:], right[:])

	return node
}
