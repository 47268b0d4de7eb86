// Package quadratic computes the matching distribution for a donation set.
//
// For grant i with donations d:
//
//	x[i] = (sum d*d)^2
//	y[i] = sum d
//	receive[i] = y[i] + x[i] * matchingAmount / sum(x)
//
// All arithmetic is on 256-bit words and wraps on overflow, except the
// product x[i] * matchingAmount, which is carried at 512 bits into the
// division. The share is then truncated back to 256 bits.
package quadratic

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
)

// Distribution errors.
var (
	ErrNoGrants       = errors.New("quadratic: donation set has no grants")
	ErrZeroCumulative = errors.New("quadratic: cumulative quadratic score is zero")
	ErrNilMatching    = errors.New("quadratic: nil matching amount")
)

var two = uint256.NewInt(2)

// Scores holds the per-grant intermediates of a distribution.
type Scores struct {
	// X is the squared sum of squared donations of each grant.
	X []*uint256.Int

	// Y is the plain sum of donations of each grant.
	Y []*uint256.Int

	// Cumulative is the wrapped sum of all X.
	Cumulative *uint256.Int
}

// ComputeScores accumulates x[i], y[i] and their cumulative sum. It does not
// check for a zero cumulative score.
func ComputeScores(donations types.DonationSet) *Scores {
	s := &Scores{
		X:          make([]*uint256.Int, len(donations)),
		Y:          make([]*uint256.Int, len(donations)),
		Cumulative: new(uint256.Int),
	}
	sq := new(uint256.Int)
	for i, grant := range donations {
		x, y := new(uint256.Int), new(uint256.Int)
		for _, d := range grant {
			x.Add(x, sq.Mul(d, d))
			y.Add(y, d)
		}
		x.Exp(x, two)

		s.X[i], s.Y[i] = x, y
		s.Cumulative.Add(s.Cumulative, x)
	}
	return s
}

// Compute returns the amount each grant receives, in grant order. The input
// is not modified.
func Compute(donations types.DonationSet, matchingAmount *uint256.Int) ([]*uint256.Int, error) {
	receive, _, err := ComputeWithScores(donations, matchingAmount)
	return receive, err
}

// ComputeWithScores is Compute but also returns the intermediates.
func ComputeWithScores(donations types.DonationSet, matchingAmount *uint256.Int) ([]*uint256.Int, *Scores, error) {
	if matchingAmount == nil {
		return nil, nil, ErrNilMatching
	}
	if len(donations) == 0 {
		return nil, nil, ErrNoGrants
	}
	s := ComputeScores(donations)
	if s.Cumulative.IsZero() {
		return nil, s, ErrZeroCumulative
	}

	receive := make([]*uint256.Int, len(donations))
	for i := range donations {
		share, _ := new(uint256.Int).MulDivOverflow(s.X[i], matchingAmount, s.Cumulative)
		receive[i] = share.Add(share, s.Y[i])
	}
	return receive, s, nil
}

// Matched returns the part of the matching pool actually handed out, which is
// at most matchingAmount because every share is floored.
func Matched(receive []*uint256.Int, s *Scores) *uint256.Int {
	total := new(uint256.Int)
	share := new(uint256.Int)
	for i, r := range receive {
		total.Add(total, share.Sub(r, s.Y[i]))
	}
	return total
}
