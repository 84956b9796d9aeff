package trie

import (
	"sync"

	"github.com/merklekv/merklekv/internal/crypto"
)

// MerklizeConcurrent computes the same root as Merklize, hashing disjoint
// subtrees on up to workers goroutines. The callbacks must be safe for
// concurrent use when workers > 1.
func MerklizeConcurrent(pairs []Pair, workers int, saveNode SaveNodeFunc, saveValue SaveValueFunc) (crypto.Hash, error) {
	return merklizeConcurrent(pairs, 0, workers, saveNode, saveValue)
}

func merklizeConcurrent(pairs []Pair, depth, workers int, saveNode SaveNodeFunc, saveValue SaveValueFunc) (crypto.Hash, error) {
	// Subtrees with zero or one pair never split again, and a single worker
	// degenerates to the sequential walk.
	if workers <= 1 || len(pairs) <= 1 {
		return merklize(pairs, depth, saveNode, saveValue)
	}

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

	var (
		rightHash crypto.Hash
		rightErr  error
		wg        sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		rightHash, rightErr = merklizeConcurrent(right, depth+1, workers/2, saveNode, saveValue)
	}()

	leftHash, leftErr := merklizeConcurrent(left, depth+1, workers-workers/2, saveNode, saveValue)
	wg.Wait()

	if leftErr != nil {
		return crypto.Hash{}, leftErr
	}
	if rightErr != nil {
		return crypto.Hash{}, rightErr
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
