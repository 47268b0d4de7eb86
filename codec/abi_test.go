package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
)

// words concatenates 32-byte big-endian words.
func words(vals ...uint64) []byte {
	out := make([]byte, 0, 32*len(vals))
	for _, v := range vals {
		w := uint256.NewInt(v).Bytes32()
		out = append(out, w[:]...)
	}
	return out
}

func donationSet(grants ...[]uint64) types.DonationSet {
	ds := make(types.DonationSet, len(grants))
	for i, g := range grants {
		ds[i] = make(types.Grant, len(g))
		for j, d := range g {
			ds[i][j] = uint256.NewInt(d)
		}
	}
	return ds
}

// handEncoded is the ABI encoding of ([[1, 2], [3]], 7) laid out word by word.
var handEncoded = words(
	0x40, // offset of donations
	7,    // matchingAmount
	2,    // outer length
	0x40, // offset of grant 0, relative to the element area
	0xa0, // offset of grant 1
	2, 1, 2,
	1, 3,
)

func TestDecodeInputHandEncoded(t *testing.T) {
	in, err := DecodeInput(handEncoded)
	if err != nil {
		t.Fatalf("DecodeInput error: %v", err)
	}
	if in.MatchingAmount.Uint64() != 7 {
		t.Errorf("MatchingAmount = %d, want 7", in.MatchingAmount.Uint64())
	}
	want := donationSet([]uint64{1, 2}, []uint64{3})
	if len(in.Donations) != len(want) {
		t.Fatalf("len(Donations) = %d, want %d", len(in.Donations), len(want))
	}
	for i := range want {
		if len(in.Donations[i]) != len(want[i]) {
			t.Fatalf("grant %d has %d donations, want %d", i, len(in.Donations[i]), len(want[i]))
		}
		for j := range want[i] {
			if !in.Donations[i][j].Eq(want[i][j]) {
				t.Errorf("donation[%d][%d] = %s, want %s", i, j, in.Donations[i][j], want[i][j])
			}
		}
	}
}

func TestEncodeInputMatchesHandEncoding(t *testing.T) {
	enc, err := EncodeInput(donationSet([]uint64{1, 2}, []uint64{3}), uint256.NewInt(7))
	if err != nil {
		t.Fatalf("EncodeInput error: %v", err)
	}
	if !bytes.Equal(enc, handEncoded) {
		t.Fatalf("EncodeInput = %x\nwant %x", enc, handEncoded)
	}
}

func TestInputRoundTrip(t *testing.T) {
	big := new(uint256.Int).SetAllOne()
	tests := []struct {
		name      string
		donations types.DonationSet
		matching  *uint256.Int
	}{
		{"empty set", types.DonationSet{}, uint256.NewInt(1)},
		{"empty grants", donationSet(nil, nil, nil), uint256.NewInt(0)},
		{"single", donationSet([]uint64{5}), uint256.NewInt(100)},
		{"max values", types.DonationSet{{big, big}, {}}, big},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncodeInput(tt.donations, tt.matching)
			if err != nil {
				t.Fatalf("EncodeInput error: %v", err)
			}
			in, err := DecodeInput(enc)
			if err != nil {
				t.Fatalf("DecodeInput error: %v", err)
			}
			if !in.MatchingAmount.Eq(tt.matching) {
				t.Errorf("MatchingAmount = %s, want %s", in.MatchingAmount, tt.matching)
			}
			if len(in.Donations) != len(tt.donations) {
				t.Fatalf("len(Donations) = %d, want %d", len(in.Donations), len(tt.donations))
			}
			for i := range tt.donations {
				if len(in.Donations[i]) != len(tt.donations[i]) {
					t.Fatalf("grant %d length mismatch", i)
				}
				for j := range tt.donations[i] {
					if !in.Donations[i][j].Eq(tt.donations[i][j]) {
						t.Errorf("donation[%d][%d] mismatch", i, j)
					}
				}
			}
		})
	}
}

func TestDecodeInputRejectsMalformed(t *testing.T) {
	badOffset := append([]byte(nil), handEncoded...)
	badOffset[30], badOffset[31] = 0x10, 0x00 // donations at 0x1000, past the buffer

	hugeOffset := append([]byte(nil), handEncoded...)
	hugeOffset[0] = 0x01

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated head", handEncoded[:40]},
		{"truncated tail", handEncoded[:len(handEncoded)-32]},
		{"offset out of range", badOffset},
		{"offset high bits", hugeOffset},
		{"trailing bytes", append(append([]byte(nil), handEncoded...), 0x00)},
		{"trailing word", append(append([]byte(nil), handEncoded...), words(0)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInput(tt.data)
			if err == nil {
				t.Fatalf("DecodeInput succeeded: %+v", in)
			}
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("error %v does not match ErrDecode", err)
			}
		})
	}
}

func TestDecodeInputRejectsNonCanonicalOffset(t *testing.T) {
	// Same values as handEncoded but with a gap word before the donations.
	gapped := words(
		0x60, 7, 0,
		2, 0x40, 0xa0,
		2, 1, 2,
		1, 3,
	)
	if _, err := DecodeInput(gapped); !errors.Is(err, ErrNonCanonical) {
		t.Fatalf("DecodeInput(gapped) error = %v, want ErrNonCanonical", err)
	}
}

func TestEncodeInputNilValues(t *testing.T) {
	if _, err := EncodeInput(donationSet([]uint64{1}), nil); err == nil {
		t.Error("expected error for nil matching amount")
	}
	if _, err := EncodeInput(types.DonationSet{{nil}}, uint256.NewInt(1)); err == nil {
		t.Error("expected error for nil donation")
	}
}

func TestJournalRoundTrip(t *testing.T) {
	roots := []types.Hash{
		{},
		types.HexToHash("0x01"),
		types.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		types.Uint256ToHash(new(uint256.Int).SetAllOne()),
	}
	for _, root := range roots {
		journal, err := EncodeJournal(root)
		if err != nil {
			t.Fatalf("EncodeJournal(%s) error: %v", root, err)
		}
		if len(journal) != JournalSize {
			t.Fatalf("journal length = %d, want %d", len(journal), JournalSize)
		}
		if !bytes.Equal(journal, root[:]) {
			t.Errorf("journal = %x, want big-endian root %x", journal, root[:])
		}
		got, err := DecodeJournal(journal)
		if err != nil {
			t.Fatalf("DecodeJournal error: %v", err)
		}
		if got != root {
			t.Errorf("DecodeJournal = %s, want %s", got, root)
		}
	}
}

func TestDecodeJournalBadLength(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := DecodeJournal(make([]byte, n)); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodeJournal(%d bytes) error = %v, want ErrDecode", n, err)
		}
	}
}
