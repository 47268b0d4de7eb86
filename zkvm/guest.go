package zkvm

import (
	"errors"
	"fmt"

	"github.com/qfund/qfund/codec"
	"github.com/qfund/qfund/log"
	"github.com/qfund/qfund/merkle"
	"github.com/qfund/qfund/quadratic"
)

// Guest execution errors.
var (
	ErrNilEnvironment = errors.New("zkvm: nil input source or output sink")
	ErrGuestPanicked  = errors.New("zkvm: guest execution panicked")
	ErrInputTooLarge  = fmt.Errorf("%w: input exceeds size limit", codec.ErrDecode)
)

// DefaultMaxInputSize is the default cap on the declared payload length.
const DefaultMaxInputSize = 16 << 20

// Options fixes the conventions of a guest run.
type Options struct {
	// IndexWidth is the byte width of the leaf index.
	IndexWidth int

	// MaxInputSize caps the declared payload length. Zero disables the cap.
	MaxInputSize uint32

	// Logger receives debug traces. Nil uses the default logger.
	Logger *log.Logger
}

// DefaultOptions returns the guest's native conventions.
func DefaultOptions() Options {
	return Options{
		IndexWidth:   merkle.DefaultIndexWidth,
		MaxInputSize: DefaultMaxInputSize,
	}
}

// Guest is the quadratic funding guest program.
type Guest struct {
	opts Options
	log  *log.Logger
}

// NewGuest creates a guest with the given options.
func NewGuest(opts Options) (*Guest, error) {
	if !merkle.ValidIndexWidth(opts.IndexWidth) {
		return nil, merkle.ErrBadIndexWidth
	}
	l := opts.Logger
	if l == nil {
		l = log.Default()
	}
	return &Guest{opts: opts, log: l.Module("guest")}, nil
}

// Run reads one framed input from src, executes it and commits the journal
// to sink. Nothing is committed unless every step succeeds.
func (g *Guest) Run(src InputSource, sink OutputSink) (res *ExecutionResult, err error) {
	if src == nil || sink == nil {
		return nil, ErrNilEnvironment
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrGuestPanicked, r)
		}
	}()

	payload, err := ReadInput(src, g.opts.MaxInputSize)
	if err != nil {
		return nil, err
	}
	res, err = g.Execute(payload)
	if err != nil {
		return nil, err
	}
	if err := sink.Commit(res.Journal); err != nil {
		return nil, fmt.Errorf("zkvm: commit journal: %w", err)
	}
	g.log.Debug("journal committed", "root", res.Root, "bytes", len(res.Journal))
	return res, nil
}

// Execute runs the pipeline on an unframed ABI payload:
// decode, distribute, commit to a Merkle tree, encode the root.
func (g *Guest) Execute(payload []byte) (*ExecutionResult, error) {
	in, err := codec.DecodeInput(payload)
	if err != nil {
		return nil, err
	}
	g.log.Debug("input decoded", "grants", len(in.Donations), "donations", in.Donations.NumDonations())

	receive, scores, err := quadratic.ComputeWithScores(in.Donations, in.MatchingAmount)
	if err != nil {
		return nil, err
	}
	g.log.Debug("distribution computed", "cumulative", scores.Cumulative.Dec(),
		"matched", quadratic.Matched(receive, scores).Dec())

	root, err := merkle.Commit(receive, g.opts.IndexWidth)
	if err != nil {
		return nil, err
	}
	journal, err := codec.EncodeJournal(root)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{
		Root:           root,
		Journal:        journal,
		Distribution:   receive,
		MatchingAmount: in.MatchingAmount,
		Donations:      in.Donations.NumDonations(),
	}, nil
}

// ReadInput reads the length word and then the payload it declares. A
// payload shorter than declared is a decode failure.
func ReadInput(src InputSource, maxSize uint32) ([]byte, error) {
	prefix, err := src.ReadSlice(codec.PrefixSize)
	if err != nil {
		return nil, fmt.Errorf("%w: length word: %v", codec.ErrTruncated, err)
	}
	n, err := codec.DecodeLength(prefix)
	if err != nil {
		return nil, err
	}
	if maxSize != 0 && n > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrInputTooLarge, n, maxSize)
	}
	payload, err := src.ReadSlice(int(n))
	if err != nil {
		return nil, fmt.Errorf("%w: declared %d bytes: %v", codec.ErrTruncated, n, err)
	}
	return payload, nil
}

// Run executes the guest with default options.
func Run(src InputSource, sink OutputSink) (*ExecutionResult, error) {
	g, err := NewGuest(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return g.Run(src, sink)
}
