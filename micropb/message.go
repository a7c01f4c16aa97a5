package micropb

import (
	"io"
)

// MessageDecode is implemented by generated messages.
//
// DecodeMessage merges length bytes of input into the receiver. A negative
// length reads until the end of input.
type MessageDecode interface {
	DecodeMessage(d *Decoder, length int) error
}

// MessageEncode is implemented by generated messages.
//
// ComputeSizeWith includes the extension payload held by reg for extendable
// messages. ComputeSize is ComputeSizeWith(nil). MaxSize reports the upper
// bound on the encoded length, or false when there is none.
type MessageEncode interface {
	EncodeMessage(e *Encoder) error
	ComputeSize() int
	ComputeSizeWith(reg ExtensionRegistry) int
	MaxSize() (int, bool)
}

// Message is the full generated message contract.
type Message interface {
	MessageDecode
	MessageEncode
	Reset()
}

// FieldDecode is implemented by custom field handlers. DecodeField reports
// whether it consumed the value of tag; declined tags are skipped.
type FieldDecode interface {
	DecodeField(tag Tag, d *Decoder) (bool, error)
}

// FieldEncode is implemented by custom field handlers. EncodeFields writes
// the tagged fields the handler owns.
type FieldEncode interface {
	EncodeFields(e *Encoder) error
	ComputeFieldsSize() int
}

// Decode merges the encoded message in buf into m.
func Decode(buf []byte, m MessageDecode) error {
	d := NewDecoder(NewSliceReader(buf))
	return m.DecodeMessage(d, len(buf))
}

// DecodeFrom merges length bytes read from r into m. A negative length
// reads to the end of r.
func DecodeFrom(r io.Reader, m MessageDecode, length int) error {
	size := 4096
	if length >= 0 && length < size {
		size = max(length, 16)
	}
	d := NewDecoder(NewIOReader(r, size))
	return m.DecodeMessage(d, length)
}

// DecodeLenDelimited reads a length prefix followed by a message.
func DecodeLenDelimited(d *Decoder, m MessageDecode) error {
	return d.DecodeNested(m)
}

// Encode returns the encoding of m.
func Encode(m MessageEncode) ([]byte, error) {
	return EncodeWith(m, nil)
}

// EncodeWith returns the encoding of m including extension data held by reg.
func EncodeWith(m MessageEncode, reg ExtensionRegistry) ([]byte, error) {
	w := NewBufferWriter(m.ComputeSizeWith(reg))
	e := NewEncoder(w)
	e.Registry = reg
	if err := m.EncodeMessage(e); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo writes the encoding of m to w.
func EncodeTo(w Writer, m MessageEncode) error {
	return m.EncodeMessage(NewEncoder(w))
}

// EncodeLenDelimited writes a length prefix followed by m.
func EncodeLenDelimited(e *Encoder, m MessageEncode) error {
	return e.EncodeNested(m)
}
