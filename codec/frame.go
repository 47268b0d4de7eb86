package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PrefixSize is the width of the length word that precedes the ABI payload.
// The host writes it as a little-endian u32, the word order of the guest.
const PrefixSize = 4

// Frame prepends the length word to payload.
func Frame(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("codec: payload of %d bytes does not fit the length word", len(payload))
	}
	out := make([]byte, PrefixSize+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[PrefixSize:], payload)
	return out, nil
}

// DecodeLength reads the length word.
func DecodeLength(prefix []byte) (uint32, error) {
	if len(prefix) < PrefixSize {
		return 0, fmt.Errorf("%w: length word needs %d bytes, have %d", ErrTruncated, PrefixSize, len(prefix))
	}
	return binary.LittleEndian.Uint32(prefix), nil
}

// Unframe returns the payload declared by the length word at the start of buf.
// Bytes after the payload are ignored.
func Unframe(buf []byte) ([]byte, error) {
	n, err := DecodeLength(buf)
	if err != nil {
		return nil, err
	}
	rest := buf[PrefixSize:]
	if uint64(n) > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrTruncated, n, len(rest))
	}
	return rest[:n], nil
}
