// Package codec converts between guest values and their Solidity ABI
// encoding. The guest input is the tuple (uint256[][], uint256) and the
// journal is a single uint256. This is the only package that imports
// go-ethereum's ABI implementation.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
)

// Decode errors. All of them match ErrDecode under errors.Is.
var (
	ErrDecode       = errors.New("codec: malformed input")
	ErrTruncated    = fmt.Errorf("%w: declared length exceeds available bytes", ErrDecode)
	ErrNonCanonical = fmt.Errorf("%w: non-canonical encoding", ErrDecode)
)

// JournalSize is the size of an encoded journal: one ABI word.
const JournalSize = 32

var (
	uint256Type     = mustNewType("uint256")
	donationSetType = mustNewType("uint256[][]")

	inputArguments = abi.Arguments{
		{Name: "donations", Type: donationSetType},
		{Name: "matchingAmount", Type: uint256Type},
	}
	journalArguments = abi.Arguments{
		{Name: "root", Type: uint256Type},
	}
)

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("codec: bad abi type %q: %v", t, err))
	}
	return typ
}

// DecodeInput parses the ABI encoding of (uint256[][], uint256). The payload
// must be exactly the canonical encoding of the values it carries: trailing
// bytes, overlapping or unusual offsets and dirty padding are all rejected.
func DecodeInput(payload []byte) (in *types.Input, err error) {
	defer func() {
		if r := recover(); r != nil {
			in, err = nil, fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()

	values, err := inputArguments.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("%w: got %d values, want 2", ErrDecode, len(values))
	}
	rawDonations, ok := values[0].([][]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected donations type %T", ErrDecode, values[0])
	}
	rawMatching, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected matching amount type %T", ErrDecode, values[1])
	}

	reencoded, err := inputArguments.Pack(rawDonations, rawMatching)
	if err != nil || !bytes.Equal(reencoded, payload) {
		return nil, ErrNonCanonical
	}

	donations := make(types.DonationSet, len(rawDonations))
	for i, grant := range rawDonations {
		donations[i] = make(types.Grant, len(grant))
		for j, d := range grant {
			v, overflow := uint256.FromBig(d)
			if overflow {
				return nil, fmt.Errorf("%w: donation %d of grant %d overflows uint256", ErrDecode, j, i)
			}
			donations[i][j] = v
		}
	}
	matching, overflow := uint256.FromBig(rawMatching)
	if overflow {
		return nil, fmt.Errorf("%w: matching amount overflows uint256", ErrDecode)
	}
	return &types.Input{Donations: donations, MatchingAmount: matching}, nil
}

// EncodeInput produces the ABI encoding of (donations, matchingAmount). It is
// the host-side inverse of DecodeInput.
func EncodeInput(donations types.DonationSet, matchingAmount *uint256.Int) ([]byte, error) {
	if matchingAmount == nil {
		return nil, errors.New("codec: nil matching amount")
	}
	raw := make([][]*big.Int, len(donations))
	for i, grant := range donations {
		raw[i] = make([]*big.Int, len(grant))
		for j, d := range grant {
			if d == nil {
				return nil, fmt.Errorf("codec: nil donation %d in grant %d", j, i)
			}
			raw[i][j] = d.ToBig()
		}
	}
	return inputArguments.Pack(raw, matchingAmount.ToBig())
}

// EncodeJournal encodes a Merkle root, reinterpreted as a uint256, as the
// guest journal.
func EncodeJournal(root types.Hash) ([]byte, error) {
	return journalArguments.Pack(root.Uint256().ToBig())
}

// DecodeJournal recovers the committed root from a journal. Verifiers use it
// to compare against their own re-derived root.
func DecodeJournal(journal []byte) (types.Hash, error) {
	if len(journal) != JournalSize {
		return types.Hash{}, fmt.Errorf("%w: journal is %d bytes, want %d", ErrDecode, len(journal), JournalSize)
	}
	values, err := journalArguments.Unpack(journal)
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return types.Hash{}, fmt.Errorf("%w: unexpected root type %T", ErrDecode, values[0])
	}
	return types.BytesToHash(v.Bytes()), nil
}
