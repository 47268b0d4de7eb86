package zkvm

import (
	"errors"
	"io"
)

// Environment errors.
var (
	ErrAlreadyCommitted = errors.New("zkvm: journal already committed")
	ErrNegativeRead     = errors.New("zkvm: negative read length")
)

// MemoryInput is an InputSource over an in-memory buffer.
type MemoryInput struct {
	buf []byte
	off int
}

// NewMemoryInput returns an InputSource reading from buf.
func NewMemoryInput(buf []byte) *MemoryInput {
	return &MemoryInput{buf: buf}
}

// ReadSlice implements InputSource.
func (in *MemoryInput) ReadSlice(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeRead
	}
	if n > len(in.buf)-in.off {
		return nil, io.ErrUnexpectedEOF
	}
	out := in.buf[in.off : in.off+n]
	in.off += n
	return out, nil
}

// Remaining returns the number of unread bytes.
func (in *MemoryInput) Remaining() int {
	return len(in.buf) - in.off
}

// ReaderInput is an InputSource over an io.Reader.
type ReaderInput struct {
	r io.Reader
}

// NewReaderInput returns an InputSource reading from r.
func NewReaderInput(r io.Reader) *ReaderInput {
	return &ReaderInput{r: r}
}

// ReadSlice implements InputSource.
func (in *ReaderInput) ReadSlice(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeRead
	}
	// The buffer grows with the bytes actually read, not the declared n.
	out, err := io.ReadAll(io.LimitReader(in.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return out, nil
}

// MemorySink is an OutputSink that keeps the journal in memory. It accepts a
// single commit.
type MemorySink struct {
	journal   []byte
	committed bool
}

// Commit implements OutputSink.
func (s *MemorySink) Commit(journal []byte) error {
	if s.committed {
		return ErrAlreadyCommitted
	}
	s.journal = append([]byte(nil), journal...)
	s.committed = true
	return nil
}

// Journal returns the committed journal, or nil before a commit.
func (s *MemorySink) Journal() []byte { return s.journal }

// Committed reports whether a journal was committed.
func (s *MemorySink) Committed() bool { return s.committed }

// WriterSink is an OutputSink that writes the journal to an io.Writer.
type WriterSink struct {
	w         io.Writer
	committed bool
}

// NewWriterSink returns an OutputSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Commit implements OutputSink.
func (s *WriterSink) Commit(journal []byte) error {
	if s.committed {
		return ErrAlreadyCommitted
	}
	s.committed = true
	_, err := s.w.Write(journal)
	return err
}
