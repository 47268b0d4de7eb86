package merkle

import (
	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
	"github.com/qfund/qfund/crypto"
)

// VerifyClaim checks that grant index was committed with the given amount.
// The leaf is rebuilt from index, so a proof only verifies at the position
// its leaf encodes, never at a duplicated slot past the last grant.
func VerifyClaim(root types.Hash, index uint64, amount *uint256.Int, indexWidth int, proof []types.Hash) (bool, error) {
	leaf, err := EncodeLeaf(index, amount, indexWidth)
	if err != nil {
		return false, err
	}
	return verifyProof(root, leaf, index, proof), nil
}

// verifyProof walks proof from leaf to the root. The index picks the hashing
// order at each level: an even position is the left input. It does not tie
// index to the leaf contents.
func verifyProof(root types.Hash, leaf []byte, index uint64, proof []types.Hash) bool {
	node := crypto.Keccak256Hash(leaf)
	for _, sib := range proof {
		if index%2 == 0 {
			node = hashPair(node, sib)
		} else {
			node = hashPair(sib, node)
		}
		index /= 2
	}
	return index == 0 && node == root
}
