package micropb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestTag(t *testing.T) {
	tag := NewTag(1, WireVarint)
	assert.Equal(t, Tag(0x08), tag)
	assert.Equal(t, uint32(1), tag.FieldNum())
	assert.Equal(t, WireVarint, tag.WireType())

	tag = NewTag(MaxFieldNumber, WireLen)
	assert.Equal(t, uint32(MaxFieldNumber), tag.FieldNum())
	assert.Equal(t, WireLen, tag.WireType())
}

func TestWireType_String(t *testing.T) {
	tests := []struct {
		wt       WireType
		expected string
	}{
		{WireVarint, "VARINT"},
		{WireI64, "I64"},
		{WireLen, "LEN"},
		{WireStartGroup, "SGROUP"},
		{WireEndGroup, "EGROUP"},
		{WireI32, "I32"},
		{WireType(6), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.wt.String())
		})
	}
}

func TestZigZag(t *testing.T) {
	for _, v := range []int32{0, -1, 1, -2, 2, math.MaxInt32, math.MinInt32} {
		assert.Equal(t, uint32(protowire.EncodeZigZag(int64(v))), EncodeZigZag32(v), "encode %d", v)
		assert.Equal(t, v, DecodeZigZag32(EncodeZigZag32(v)))
	}
	for _, v := range []int64{0, -1, 1, math.MaxInt64, math.MinInt64} {
		assert.Equal(t, protowire.EncodeZigZag(v), EncodeZigZag64(v), "encode %d", v)
		assert.Equal(t, v, DecodeZigZag64(EncodeZigZag64(v)))
	}
}

func TestSizeOfVarint(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 150, 16383, 16384, 1 << 32, math.MaxUint64} {
		assert.Equal(t, protowire.SizeVarint(v), SizeOfVarint64(v), "size of %d", v)
	}
	assert.Equal(t, 10, SizeOfInt32(-1))
	assert.Equal(t, 1, SizeOfInt32(1))
	assert.Equal(t, 5, SizeOfVarint32(math.MaxUint32))
	assert.Equal(t, 1, SizeOfSint32(-1))
	assert.Equal(t, 1, SizeOfTag(15))
	assert.Equal(t, 2, SizeOfTag(16))
	assert.Equal(t, 4, SizeOfLenRecord(3))
}

func TestEncoderMatchesProtowire(t *testing.T) {
	w := NewBufferWriter(64)
	e := NewEncoder(w)
	require.NoError(t, e.EncodeTag(NewTag(3, WireVarint)))
	require.NoError(t, e.EncodeInt32(-5))
	require.NoError(t, e.EncodeTag(NewTag(4, WireI32)))
	require.NoError(t, e.EncodeFloat(1.5))
	require.NoError(t, e.EncodeTag(NewTag(5, WireI64)))
	require.NoError(t, e.EncodeSfixed64(-7))
	require.NoError(t, e.EncodeTag(NewTag(6, WireLen)))
	require.NoError(t, e.EncodeString("hey"))
	require.NoError(t, e.EncodeTag(NewTag(7, WireVarint)))
	require.NoError(t, e.EncodeSint64(-300))

	var want []byte
	want = protowire.AppendTag(want, 3, protowire.VarintType)
	want = protowire.AppendVarint(want, uint64(twos(-5)))
	want = protowire.AppendTag(want, 4, protowire.Fixed32Type)
	want = protowire.AppendFixed32(want, math.Float32bits(1.5))
	want = protowire.AppendTag(want, 5, protowire.Fixed64Type)
	want = protowire.AppendFixed64(want, uint64(twos(-7)))
	want = protowire.AppendTag(want, 6, protowire.BytesType)
	want = protowire.AppendString(want, "hey")
	want = protowire.AppendTag(want, 7, protowire.VarintType)
	want = protowire.AppendVarint(want, protowire.EncodeZigZag(-300))

	assert.Equal(t, want, w.Bytes())
}

func TestFixedWriter(t *testing.T) {
	buf := make([]byte, 2)
	w := NewFixedWriter(buf)
	e := NewEncoder(w)
	require.NoError(t, e.EncodeVarint32(150))
	assert.Equal(t, []byte{0x96, 0x01}, w.Bytes())
	require.ErrorIs(t, e.EncodeBool(true), ErrBufferFull)
	assert.Equal(t, 2, w.Len())
}

// twos keeps negative constants out of constant conversion to unsigned.
func twos(v int64) int64 { return v }
