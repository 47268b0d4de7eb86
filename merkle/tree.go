// Package merkle commits a distribution to a binary Keccak-256 Merkle tree.
//
// Leaf i is the byte string index(i) || amount(i): the grant index as a
// big-endian integer of IndexWidth bytes followed by the 32-byte big-endian
// amount. The tree is built bottom-up:
//
//	level 0:  H(leaf_0), H(leaf_1), ..., H(leaf_n-1)
//	level k:  H(left || right) for each adjacent pair of level k-1
//
// When a level has an odd number of nodes, the last node is paired with
// itself. The root of a single-leaf tree is H(leaf_0). No domain separation
// prefixes are used.
package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
	"github.com/qfund/qfund/crypto"
)

// Merkle errors.
var (
	ErrNoLeaves        = errors.New("merkle: no leaves")
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
	ErrBadIndexWidth   = errors.New("merkle: index width must be 4 or 8 bytes")
	ErrNilAmount       = errors.New("merkle: nil leaf amount")
)

// Supported leaf index widths.
const (
	IndexWidth32 = 4
	IndexWidth64 = 8

	// DefaultIndexWidth is the native index width of the 32-bit guest.
	DefaultIndexWidth = IndexWidth32
)

// amountSize is the encoded size of a leaf amount.
const amountSize = 32

// ValidIndexWidth reports whether w is a supported leaf index width.
func ValidIndexWidth(w int) bool {
	return w == IndexWidth32 || w == IndexWidth64
}

// EncodeLeaf returns index || amount with the index in w big-endian bytes.
func EncodeLeaf(index uint64, amount *uint256.Int, w int) ([]byte, error) {
	if amount == nil {
		return nil, ErrNilAmount
	}
	if !ValidIndexWidth(w) {
		return nil, ErrBadIndexWidth
	}
	leaf := make([]byte, w+amountSize)
	switch w {
	case IndexWidth32:
		if index > 0xffffffff {
			return nil, fmt.Errorf("%w: %d does not fit %d bytes", ErrIndexOutOfRange, index, w)
		}
		binary.BigEndian.PutUint32(leaf, uint32(index))
	case IndexWidth64:
		binary.BigEndian.PutUint64(leaf, index)
	}
	word := amount.Bytes32()
	copy(leaf[w:], word[:])
	return leaf, nil
}

// Tree is a fully materialised Merkle tree over a distribution.
type Tree struct {
	indexWidth int
	leaves     [][]byte

	// levels[0] holds the leaf hashes, the last level holds only the root.
	levels [][]types.Hash
}

// NewTree builds the tree for amounts, leaf i carrying amounts[i].
func NewTree(amounts []*uint256.Int, indexWidth int) (*Tree, error) {
	if !ValidIndexWidth(indexWidth) {
		return nil, ErrBadIndexWidth
	}
	if len(amounts) == 0 {
		return nil, ErrNoLeaves
	}
	t := &Tree{
		indexWidth: indexWidth,
		leaves:     make([][]byte, len(amounts)),
	}
	level := make([]types.Hash, len(amounts))
	for i, amount := range amounts {
		leaf, err := EncodeLeaf(uint64(i), amount, indexWidth)
		if err != nil {
			return nil, err
		}
		t.leaves[i] = leaf
		level[i] = crypto.Keccak256Hash(leaf)
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([]types.Hash, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := left
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = hashPair(left, right)
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Commit builds the tree over amounts and returns its root.
func Commit(amounts []*uint256.Int, indexWidth int) (types.Hash, error) {
	t, err := NewTree(amounts, indexWidth)
	if err != nil {
		return types.Hash{}, err
	}
	return t.Root(), nil
}

func hashPair(left, right types.Hash) types.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// Root returns the root hash.
func (t *Tree) Root() types.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.leaves) }

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int { return len(t.levels) - 1 }

// IndexWidth returns the leaf index width in bytes.
func (t *Tree) IndexWidth() int { return t.indexWidth }

// Leaf returns a copy of the encoded leaf at index i.
func (t *Tree) Leaf(i int) ([]byte, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, ErrIndexOutOfRange
	}
	return append([]byte(nil), t.leaves[i]...), nil
}

// Proof returns the sibling hashes from leaf i up to, but excluding, the
// root. A node without a sibling contributes itself.
func (t *Tree) Proof(i int) ([]types.Hash, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, ErrIndexOutOfRange
	}
	proof := make([]types.Hash, 0, t.Depth())
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := i ^ 1
		if sib >= len(level) {
			sib = i
		}
		proof = append(proof, level[sib])
		i /= 2
	}
	return proof, nil
}
