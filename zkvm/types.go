// Package zkvm runs the quadratic funding guest program.
//
// The guest reads a length-prefixed ABI payload from its InputSource,
// computes the matching distribution, commits it to a Merkle tree and hands
// the ABI-encoded root to its OutputSink as the journal. Every step is a pure
// function of the input bytes, so any re-executor derives the same journal.
package zkvm

import (
	"github.com/holiman/uint256"

	"github.com/qfund/qfund/core/types"
)

// InputSource supplies guest input bytes, in order.
type InputSource interface {
	// ReadSlice returns the next n bytes. It fails if fewer remain.
	ReadSlice(n int) ([]byte, error)
}

// OutputSink receives the journal. It is called at most once per run, and
// only when the computation succeeded.
type OutputSink interface {
	Commit(journal []byte) error
}

// ExecutionResult holds the outcome of a successful guest run.
type ExecutionResult struct {
	// Root is the Merkle root over the distribution.
	Root types.Hash

	// Journal is the committed ABI encoding of Root.
	Journal []byte

	// Distribution is the amount received by each grant, in grant order.
	Distribution []*uint256.Int

	// MatchingAmount is the decoded matching pool.
	MatchingAmount *uint256.Int

	// Donations is the total number of decoded donations.
	Donations int
}

// Grants returns the number of grants in the distribution.
func (r *ExecutionResult) Grants() int {
	return len(r.Distribution)
}
