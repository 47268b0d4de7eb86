// Package crypto provides the Keccak-256 hash used to build the distribution
// Merkle tree.
package crypto

import (
	"github.com/qfund/qfund/core/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	var h types.Hash
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}
