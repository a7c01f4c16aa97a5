package micropb

import (
	"io"
)

// Writer receives encoded bytes. The only errors an encoder returns are the
// ones its Writer returns.
type Writer interface {
	WriteBytes(p []byte) error
}

// BufferWriter appends to a growable byte slice.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter returns a writer with room for size bytes before growing.
func NewBufferWriter(size int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, size)}
}

func (w *BufferWriter) WriteBytes(p []byte) error {
	w.buf = append(w.buf, p...)
	return nil
}

// Bytes returns the bytes written so far.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// Reset drops the written bytes and keeps the buffer.
func (w *BufferWriter) Reset() {
	w.buf = w.buf[:0]
}

// FixedWriter writes into a caller-provided buffer and never grows it.
type FixedWriter struct {
	buf []byte
	n   int
}

// NewFixedWriter returns a writer over buf.
func NewFixedWriter(buf []byte) *FixedWriter {
	return &FixedWriter{buf: buf}
}

// WriteBytes copies p into the buffer. If p does not fit nothing is written
// and ErrBufferFull is returned.
func (w *FixedWriter) WriteBytes(p []byte) error {
	if len(w.buf)-w.n < len(p) {
		return ErrBufferFull
	}
	w.n += copy(w.buf[w.n:], p)
	return nil
}

// Bytes returns the written part of the buffer.
func (w *FixedWriter) Bytes() []byte {
	return w.buf[:w.n]
}

// Len returns the number of bytes written.
func (w *FixedWriter) Len() int {
	return w.n
}

// IOWriter adapts an io.Writer.
type IOWriter struct {
	W io.Writer
}

func (w IOWriter) WriteBytes(p []byte) error {
	_, err := w.W.Write(p)
	return err
}
