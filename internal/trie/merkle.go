package trie

import "github.com/merklekv/merklekv/internal/crypto"

// Pair is one path-value binding fed into merklization.
type Pair struct {
	Path  Path
	Value []byte
}

// SaveNodeFunc persists an encoded node under its hash.
type SaveNodeFunc func(hash crypto.Hash, node Node) error

// SaveValueFunc persists an out-of-line leaf value, addressable by its hash.
type SaveValueFunc func(value []byte) error

// Merklize computes the root hash of a set of pairs, persisting every node
// and every out-of-line value through the callbacks.
//
// Pairs are split recursively on path bits, most significant first; order of
// the input does not affect the result. Paths must be unique.
func Merklize(pairs []Pair, saveNode SaveNodeFunc, saveValue SaveValueFunc) (crypto.Hash, error) {
	return merklize(pairs, 0, saveNode, saveValue)
}

func merklize(pairs []Pair, depth int, saveNode SaveNodeFunc, saveValue SaveValueFunc) (crypto.Hash, error) {
	// The root of an empty trie is the zero hash.
	if len(pairs) == 0 {
		return crypto.Hash{}, nil
	}

	if len(pairs) == 1 {
		p := pairs[0]
		node := EncodeLeafNode(p.Path, p.Value)
		if len(p.Value) > EmbeddedValueMaxSize && saveValue != nil {
			if err := saveValue(p.Value); err != nil {
				return crypto.Hash{}, err
			}
		}
		hash := crypto.HashData(node[:])
		if saveNode != nil {
			if err := saveNode(hash, node); err != nil {
				return crypto.Hash{}, err
			}
		}
		return hash, nil
	}

	// Identical paths never diverge, so the bit index would run past the
	// path width.
	if depth >= PathSize*8 {
		return crypto.Hash{}, ErrDuplicatePath
	}

	var left, right []Pair
	for _, p := range pairs {
		if p.Path.bit(depth) {
			right = append(right, p)
		} else {
			left = append(left, p)
		}
	}

	leftHash, err := merklize(left, depth+1, saveNode, saveValue)
	if err != nil {
		return crypto.Hash{}, err
	}
	rightHash, err := merklize(right, depth+1, saveNode, saveValue)
	if err != nil {
		return crypto.Hash{}, err
	}

	node := EncodeBranchNode(leftHash, rightHash)
	hash := crypto.HashData(node[:])
	if saveNode != nil {
		if err := saveNode(hash, node); err != nil {
			return crypto.Hash{}, err
		}
	}
	return hash, nil
}
