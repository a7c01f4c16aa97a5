package micropb

import (
	"math/bits"
)

// WireType is the low three bits of a tag.
type WireType uint8

const (
	WireVarint     WireType = 0
	WireI64        WireType = 1
	WireLen        WireType = 2
	WireStartGroup WireType = 3
	WireEndGroup   WireType = 4
	WireI32        WireType = 5
)

func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "VARINT"
	case WireI64:
		return "I64"
	case WireLen:
		return "LEN"
	case WireStartGroup:
		return "SGROUP"
	case WireEndGroup:
		return "EGROUP"
	case WireI32:
		return "I32"
	default:
		return "UNKNOWN"
	}
}

// Field number limits.
const (
	MinFieldNumber           = 1
	MaxFieldNumber           = 1<<29 - 1
	FirstReservedFieldNumber = 19000
	LastReservedFieldNumber  = 19999
)

// MaxVarintLen is the longest varint the decoder accepts.
const MaxVarintLen = 10

// Tag is a field number combined with a wire type: (num << 3) | wire.
type Tag uint32

// NewTag builds a tag from a field number and a wire type.
func NewTag(num uint32, wt WireType) Tag {
	return Tag(num<<3 | uint32(wt))
}

// FieldNum returns the field number part of the tag.
func (t Tag) FieldNum() uint32 {
	return uint32(t) >> 3
}

// WireType returns the wire type part of the tag.
func (t Tag) WireType() WireType {
	return WireType(t & 7)
}

// Varint returns the raw tag value as written on the wire.
func (t Tag) Varint() uint32 {
	return uint32(t)
}

// EncodeZigZag32 maps signed integers to unsigned so small magnitudes stay short.
func EncodeZigZag32(n int32) uint32 {
	return uint32(n<<1) ^ uint32(n>>31)
}

// DecodeZigZag32 is the inverse of EncodeZigZag32.
func DecodeZigZag32(n uint32) int32 {
	return int32(n>>1) ^ -int32(n&1)
}

// EncodeZigZag64 maps signed integers to unsigned so small magnitudes stay short.
func EncodeZigZag64(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// DecodeZigZag64 is the inverse of EncodeZigZag64.
func DecodeZigZag64(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// SizeOfVarint64 returns the encoded length of v.
func SizeOfVarint64(v uint64) int {
	// 9/64 is a good enough approximation of 1/7
	return int(9*uint32(bits.Len64(v))+64) / 64
}

// SizeOfVarint32 returns the encoded length of v.
func SizeOfVarint32(v uint32) int {
	return SizeOfVarint64(uint64(v))
}

// SizeOfInt32 returns the encoded length of an int32 field value. Negative
// values are sign-extended to 64 bits and always take 10 bytes.
func SizeOfInt32(v int32) int {
	return SizeOfVarint64(uint64(int64(v)))
}

// SizeOfInt64 returns the encoded length of an int64 field value.
func SizeOfInt64(v int64) int {
	return SizeOfVarint64(uint64(v))
}

// SizeOfSint32 returns the encoded length of a zigzag sint32 value.
func SizeOfSint32(v int32) int {
	return SizeOfVarint32(EncodeZigZag32(v))
}

// SizeOfSint64 returns the encoded length of a zigzag sint64 value.
func SizeOfSint64(v int64) int {
	return SizeOfVarint64(EncodeZigZag64(v))
}

// SizeOfTag returns the encoded length of a tag for field number num.
func SizeOfTag(num uint32) int {
	return SizeOfVarint32(num << 3)
}

// SizeOfLenRecord returns the length of a record with an n byte payload,
// length prefix included.
func SizeOfLenRecord(n int) int {
	return SizeOfVarint32(uint32(n)) + n
}

// Sizes of the fixed width and bounded encodings.
const (
	SizeFixed32     = 4
	SizeFixed64     = 8
	SizeBool        = 1
	MaxSizeVarint32 = 5
	MaxSizeVarint64 = 10
	MaxSizeEnum     = 10
)
