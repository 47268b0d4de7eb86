// Package types defines the values that flow through the quadratic funding
// guest: donation sets, matching amounts and 32-byte hashes.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// HashLength is the size of a Keccak-256 digest.
const HashLength = 32

// Hash represents the 32-byte Keccak256 hash of data.
type Hash [HashLength]byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash. Invalid hex yields the zero hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Uint256ToHash returns the 32-byte big-endian form of v.
func Uint256ToHash(v *uint256.Int) Hash {
	return Hash(v.Bytes32())
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Uint256 reinterprets the hash as a big-endian 256-bit integer. This is how
// a Merkle root is committed to the journal.
func (h Hash) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

func fromHex(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}
