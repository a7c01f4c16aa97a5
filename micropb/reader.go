package micropb

import (
	"bufio"
	"io"

	"github.com/go-faster/errors"
)

// Reader yields input as a sequence of contiguous chunks.
//
// ReadChunk returns the bytes currently available without consuming them. It
// returns an empty slice only at the end of input. Advance consumes n bytes
// of the current chunk; n never exceeds the length of the last chunk
// returned.
type Reader interface {
	ReadChunk() ([]byte, error)
	Advance(n int)
}

// ExactReader is implemented by readers that can fill a buffer directly.
// The decoder uses it for fixed width values and bytes fields when present.
// ReadExact returns the number of bytes consumed, which is len(p) unless an
// error is returned.
type ExactReader interface {
	Reader
	ReadExact(p []byte) (int, error)
}

// SliceReader reads from a single contiguous buffer.
type SliceReader struct {
	buf []byte
}

// NewSliceReader returns a reader over b. The reader does not copy b.
func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{buf: b}
}

func (r *SliceReader) ReadChunk() ([]byte, error) {
	return r.buf, nil
}

func (r *SliceReader) Advance(n int) {
	r.buf = r.buf[n:]
}

func (r *SliceReader) ReadExact(p []byte) (int, error) {
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	if n < len(p) {
		return n, ErrUnexpectedEOF
	}
	return n, nil
}

// Remaining returns the unread part of the buffer.
func (r *SliceReader) Remaining() []byte {
	return r.buf
}

// ChunkReader reads from a list of non-contiguous buffers, one chunk at a
// time. Empty chunks are skipped.
type ChunkReader struct {
	chunks [][]byte
}

// NewChunkReader returns a reader over the chunks in order.
func NewChunkReader(chunks ...[]byte) *ChunkReader {
	return &ChunkReader{chunks: chunks}
}

func (r *ChunkReader) ReadChunk() ([]byte, error) {
	for len(r.chunks) > 0 && len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	if len(r.chunks) == 0 {
		return nil, nil
	}
	return r.chunks[0], nil
}

func (r *ChunkReader) Advance(n int) {
	if n == 0 {
		return
	}
	r.chunks[0] = r.chunks[0][n:]
}

// IOReader adapts an io.Reader. Chunks are the contents of an internal
// bufio.Reader, so a chunk never exceeds the buffer size.
type IOReader struct {
	br  *bufio.Reader
	err error
}

// NewIOReader wraps rd with a buffer of the given size. A size below 16 uses
// bufio's minimum.
func NewIOReader(rd io.Reader, size int) *IOReader {
	return &IOReader{br: bufio.NewReaderSize(rd, size)}
}

func (r *IOReader) ReadChunk() ([]byte, error) {
	if n := r.br.Buffered(); n > 0 {
		b, _ := r.br.Peek(n)
		return b, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		r.err = err
		return nil, err
	}
	b, _ := r.br.Peek(r.br.Buffered())
	return b, nil
}

func (r *IOReader) Advance(n int) {
	_, _ = r.br.Discard(n)
}
