package types

import "github.com/holiman/uint256"

// Grant is the ordered list of donations made to one grant. Donor order does
// not affect the distribution.
type Grant []*uint256.Int

// DonationSet is the ordered list of grants. A grant's position is its
// identity: it selects the Merkle leaf index.
type DonationSet []Grant

// Input is the decoded guest input tuple (uint256[][], uint256).
type Input struct {
	Donations      DonationSet
	MatchingAmount *uint256.Int
}

// NumDonations returns the total number of donations across all grants.
func (ds DonationSet) NumDonations() int {
	n := 0
	for _, g := range ds {
		n += len(g)
	}
	return n
}

// Copy returns a deep copy of the donation set.
func (ds DonationSet) Copy() DonationSet {
	if ds == nil {
		return nil
	}
	cpy := make(DonationSet, len(ds))
	for i, g := range ds {
		cpy[i] = make(Grant, len(g))
		for j, d := range g {
			cpy[i][j] = new(uint256.Int).Set(d)
		}
	}
	return cpy
}
