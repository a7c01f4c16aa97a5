package micropb

import (
	"encoding/binary"
	"math"
)

// Encoder writes protobuf wire values to a Writer.
type Encoder struct {
	w       Writer
	scratch [MaxVarintLen]byte

	// Registry supplies the extension payload of extendable messages. It may
	// be nil.
	Registry ExtensionRegistry
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w Writer) *Encoder {
	return &Encoder{w: w}
}

// EncodeRaw writes p unchanged.
func (e *Encoder) EncodeRaw(p []byte) error {
	return e.w.WriteBytes(p)
}

func (e *Encoder) EncodeVarint64(v uint64) error {
	i := 0
	for v >= 0x80 {
		e.scratch[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	e.scratch[i] = byte(v)
	return e.w.WriteBytes(e.scratch[:i+1])
}

func (e *Encoder) EncodeVarint32(v uint32) error {
	return e.EncodeVarint64(uint64(v))
}

func (e *Encoder) EncodeTag(t Tag) error {
	return e.EncodeVarint32(uint32(t))
}

// EncodeInt32 sign-extends negative values to 64 bits, as protobuf requires.
func (e *Encoder) EncodeInt32(v int32) error {
	return e.EncodeVarint64(uint64(int64(v)))
}

func (e *Encoder) EncodeInt64(v int64) error {
	return e.EncodeVarint64(uint64(v))
}

func (e *Encoder) EncodeUint32(v uint32) error {
	return e.EncodeVarint32(v)
}

func (e *Encoder) EncodeUint64(v uint64) error {
	return e.EncodeVarint64(v)
}

func (e *Encoder) EncodeSint32(v int32) error {
	return e.EncodeVarint32(EncodeZigZag32(v))
}

func (e *Encoder) EncodeSint64(v int64) error {
	return e.EncodeVarint64(EncodeZigZag64(v))
}

func (e *Encoder) EncodeBool(v bool) error {
	if v {
		e.scratch[0] = 1
	} else {
		e.scratch[0] = 0
	}
	return e.w.WriteBytes(e.scratch[:1])
}

func (e *Encoder) EncodeFixed32(v uint32) error {
	binary.LittleEndian.PutUint32(e.scratch[:SizeFixed32], v)
	return e.w.WriteBytes(e.scratch[:SizeFixed32])
}

func (e *Encoder) EncodeFixed64(v uint64) error {
	binary.LittleEndian.PutUint64(e.scratch[:SizeFixed64], v)
	return e.w.WriteBytes(e.scratch[:SizeFixed64])
}

func (e *Encoder) EncodeSfixed32(v int32) error {
	return e.EncodeFixed32(uint32(v))
}

func (e *Encoder) EncodeSfixed64(v int64) error {
	return e.EncodeFixed64(uint64(v))
}

func (e *Encoder) EncodeFloat(v float32) error {
	return e.EncodeFixed32(math.Float32bits(v))
}

func (e *Encoder) EncodeDouble(v float64) error {
	return e.EncodeFixed64(math.Float64bits(v))
}

// EncodeLen writes a length prefix.
func (e *Encoder) EncodeLen(n int) error {
	return e.EncodeVarint32(uint32(n))
}

// EncodeString writes a length-delimited string.
func (e *Encoder) EncodeString(s string) error {
	if err := e.EncodeLen(len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return e.w.WriteBytes([]byte(s))
}

// EncodeBytes writes a length-delimited byte string.
func (e *Encoder) EncodeBytes(b []byte) error {
	if err := e.EncodeLen(len(b)); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return e.w.WriteBytes(b)
}

// EncodeNested writes m as a length-delimited sub-message. The prefix counts
// the extension payload held by the encoder's registry.
func (e *Encoder) EncodeNested(m MessageEncode) error {
	if err := e.EncodeLen(m.ComputeSizeWith(e.Registry)); err != nil {
		return err
	}
	return m.EncodeMessage(e)
}

// Codec bundles how values of one kind are sized and written. Size excludes
// the tag.
type Codec[T any] struct {
	Wire   WireType
	Size   func(T) int
	Encode func(*Encoder, T) error
}

func fixedSize[T any](n int) func(T) int {
	return func(T) int { return n }
}

// Codecs for the scalar kinds.
var (
	Int32Codec    = Codec[int32]{WireVarint, SizeOfInt32, (*Encoder).EncodeInt32}
	Int64Codec    = Codec[int64]{WireVarint, SizeOfInt64, (*Encoder).EncodeInt64}
	Uint32Codec   = Codec[uint32]{WireVarint, SizeOfVarint32, (*Encoder).EncodeUint32}
	Uint64Codec   = Codec[uint64]{WireVarint, SizeOfVarint64, (*Encoder).EncodeUint64}
	Sint32Codec   = Codec[int32]{WireVarint, SizeOfSint32, (*Encoder).EncodeSint32}
	Sint64Codec   = Codec[int64]{WireVarint, SizeOfSint64, (*Encoder).EncodeSint64}
	Fixed32Codec  = Codec[uint32]{WireI32, fixedSize[uint32](SizeFixed32), (*Encoder).EncodeFixed32}
	Fixed64Codec  = Codec[uint64]{WireI64, fixedSize[uint64](SizeFixed64), (*Encoder).EncodeFixed64}
	Sfixed32Codec = Codec[int32]{WireI32, fixedSize[int32](SizeFixed32), (*Encoder).EncodeSfixed32}
	Sfixed64Codec = Codec[int64]{WireI64, fixedSize[int64](SizeFixed64), (*Encoder).EncodeSfixed64}
	FloatCodec    = Codec[float32]{WireI32, fixedSize[float32](SizeFixed32), (*Encoder).EncodeFloat}
	DoubleCodec   = Codec[float64]{WireI64, fixedSize[float64](SizeFixed64), (*Encoder).EncodeDouble}
	BoolCodec     = Codec[bool]{WireVarint, fixedSize[bool](SizeBool), (*Encoder).EncodeBool}
	StringCodec   = Codec[string]{WireLen, func(s string) int { return SizeOfLenRecord(len(s)) }, (*Encoder).EncodeString}
	BytesCodec    = Codec[[]byte]{WireLen, func(b []byte) int { return SizeOfLenRecord(len(b)) }, (*Encoder).EncodeBytes}
)

// Integer is the set of types enum values and narrowed integers use.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumCodec returns the codec for an enum type. Enums travel as int32
// varints, sign-extended to 64 bits.
func EnumCodec[E Integer]() Codec[E] {
	return Codec[E]{
		Wire:   WireVarint,
		Size:   func(v E) int { return SizeOfInt64(int64(v)) },
		Encode: func(e *Encoder, v E) error { return e.EncodeInt64(int64(v)) },
	}
}

// MessageCodec returns the codec for a message type stored by value. reg is
// used for sizing and should be the registry the encoder carries.
func MessageCodec[T any, P interface {
	*T
	MessageEncode
}](reg ExtensionRegistry) Codec[T] {
	return Codec[T]{
		Wire:   WireLen,
		Size:   func(v T) int { return SizeOfLenRecord(P(&v).ComputeSizeWith(reg)) },
		Encode: func(e *Encoder, v T) error { return e.EncodeNested(P(&v)) },
	}
}

// EncodeRepeated writes each element with its own tag.
func EncodeRepeated[T any](e *Encoder, num uint32, elems []T, c Codec[T]) error {
	tag := NewTag(num, c.Wire)
	for _, v := range elems {
		if err := e.EncodeTag(tag); err != nil {
			return err
		}
		if err := c.Encode(e, v); err != nil {
			return err
		}
	}
	return nil
}

// SizeOfRepeated returns the encoded length of EncodeRepeated.
func SizeOfRepeated[T any](num uint32, elems []T, c Codec[T]) int {
	n := len(elems) * SizeOfTag(num)
	for _, v := range elems {
		n += c.Size(v)
	}
	return n
}

// EncodePacked writes the elements as one packed record. Nothing is written
// for an empty slice.
func EncodePacked[T any](e *Encoder, num uint32, elems []T, c Codec[T]) error {
	if len(elems) == 0 {
		return nil
	}
	body := 0
	for _, v := range elems {
		body += c.Size(v)
	}
	if err := e.EncodeTag(NewTag(num, WireLen)); err != nil {
		return err
	}
	if err := e.EncodeLen(body); err != nil {
		return err
	}
	for _, v := range elems {
		if err := c.Encode(e, v); err != nil {
			return err
		}
	}
	return nil
}

// SizeOfPacked returns the encoded length of EncodePacked.
func SizeOfPacked[T any](num uint32, elems []T, c Codec[T]) int {
	if len(elems) == 0 {
		return 0
	}
	body := 0
	for _, v := range elems {
		body += c.Size(v)
	}
	return SizeOfTag(num) + SizeOfLenRecord(body)
}

func mapEntryLen[K, V any](k K, v V, kc Codec[K], vc Codec[V]) int {
	// field numbers 1 and 2 always have one byte tags
	return 1 + kc.Size(k) + 1 + vc.Size(v)
}

// EncodeMapEntry writes one map entry record: tag, length, key, value.
func EncodeMapEntry[K, V any](e *Encoder, num uint32, k K, v V, kc Codec[K], vc Codec[V]) error {
	if err := e.EncodeTag(NewTag(num, WireLen)); err != nil {
		return err
	}
	if err := e.EncodeLen(mapEntryLen(k, v, kc, vc)); err != nil {
		return err
	}
	if err := e.EncodeTag(NewTag(1, kc.Wire)); err != nil {
		return err
	}
	if err := kc.Encode(e, k); err != nil {
		return err
	}
	if err := e.EncodeTag(NewTag(2, vc.Wire)); err != nil {
		return err
	}
	return vc.Encode(e, v)
}

// SizeOfMapEntry returns the encoded length of EncodeMapEntry.
func SizeOfMapEntry[K, V any](num uint32, k K, v V, kc Codec[K], vc Codec[V]) int {
	return SizeOfTag(num) + SizeOfLenRecord(mapEntryLen(k, v, kc, vc))
}

// Narrow returns a codec for a narrower integer type that travels as the
// wire kind of c.
func Narrow[T, W Integer](c Codec[W]) Codec[T] {
	return Codec[T]{
		Wire:   c.Wire,
		Size:   func(v T) int { return c.Size(W(v)) },
		Encode: func(e *Encoder, v T) error { return c.Encode(e, W(v)) },
	}
}

// TextCodec returns the codec for a string container such as FixedString.
func TextCodec[T any, P interface {
	*T
	Text
}]() Codec[T] {
	return Codec[T]{
		Wire:   WireLen,
		Size:   func(v T) int { return SizeOfLenRecord(P(&v).Len()) },
		Encode: func(e *Encoder, v T) error { return e.EncodeBytes(P(&v).Bytes()) },
	}
}

// BytesSeqCodec returns the codec for a bytes container such as FixedBytes.
func BytesSeqCodec[T any, P interface {
	*T
	Seq[byte]
}]() Codec[T] {
	return Codec[T]{
		Wire:   WireLen,
		Size:   func(v T) int { return SizeOfLenRecord(P(&v).Len()) },
		Encode: func(e *Encoder, v T) error { return e.EncodeBytes(P(&v).Slice()) },
	}
}

// BorrowedCodec returns the codec for BorrowedBytes and BorrowedString.
func BorrowedCodec[T ~[]byte]() Codec[T] {
	return Codec[T]{
		Wire:   WireLen,
		Size:   func(v T) int { return SizeOfLenRecord(len(v)) },
		Encode: func(e *Encoder, v T) error { return e.EncodeBytes(v) },
	}
}
