package p3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yaroher/protoc-gen-go-micropb/micropb"
)

func fullSample(t *testing.T) Sample {
	t.Helper()
	m := NewSample()
	m.Id = -42
	name, err := micropb.FixedStringFrom(8, "sensor")
	require.NoError(t, err)
	m.Name = name
	for _, v := range []int32{1, -2, 300} {
		require.NoError(t, m.Ids.Push(v))
	}
	m.Tags = map[string]int32{"a": 1, "b": -1}
	m.SetInner(Inner{X: -5, Label: "in"})
	m.Kind = &Sample_Kind_Sub{Sub: Inner{X: 9}}
	m.Mode = Mode_Fast
	m.Opt.Set(0)
	require.NoError(t, m.Items.Push(Inner{Label: "first"}))
	require.NoError(t, m.Limits.Insert(3, Inner{X: 1 << 40}))
	m.Blob = []byte{0, 1, 2}
	return m
}

func TestSampleRoundTrip(t *testing.T) {
	m := fullSample(t)
	out, err := micropb.Encode(&m)
	require.NoError(t, err)
	assert.Len(t, out, m.ComputeSize())

	got := NewSample()
	require.NoError(t, micropb.Decode(out, &got))
	assert.True(t, m.Equal(&got), "%s\n%s", m.String(), got.String())
	v, ok := got.Opt.Get()
	assert.True(t, ok)
	assert.Zero(t, v)

	c := m.Clone()
	require.NoError(t, c.Items.Push(Inner{}))
	assert.Equal(t, 1, m.Items.Len())
	assert.False(t, m.Equal(&c))
}

func TestSampleWireBytes(t *testing.T) {
	m := NewSample()
	m.Id = 150
	require.NoError(t, m.Ids.Push(1))
	require.NoError(t, m.Ids.Push(300))
	m.Tags = map[string]int32{"k": 5}
	m.Opt.Set(0)

	var want []byte
	want = protowire.AppendTag(want, 1, protowire.VarintType)
	want = protowire.AppendVarint(want, 150)
	packed := protowire.AppendVarint(nil, 1)
	packed = protowire.AppendVarint(packed, 300)
	want = protowire.AppendTag(want, 3, protowire.BytesType)
	want = protowire.AppendBytes(want, packed)
	entry := protowire.AppendTag(nil, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "k")
	entry = protowire.AppendTag(entry, 2, protowire.VarintType)
	entry = protowire.AppendVarint(entry, 5)
	want = protowire.AppendTag(want, 4, protowire.BytesType)
	want = protowire.AppendBytes(want, entry)
	want = protowire.AppendTag(want, 10, protowire.VarintType)
	want = protowire.AppendVarint(want, 0)

	out, err := micropb.Encode(&m)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestSampleUnpackedInput(t *testing.T) {
	var in []byte
	for _, v := range []uint64{7, 8} {
		in = protowire.AppendTag(in, 3, protowire.VarintType)
		in = protowire.AppendVarint(in, v)
	}
	got := NewSample()
	require.NoError(t, micropb.Decode(in, &got))
	assert.Equal(t, []int32{7, 8}, got.Ids.Slice())
}

func TestSampleSkipsUnknownFields(t *testing.T) {
	m := fullSample(t)
	out, err := micropb.Encode(&m)
	require.NoError(t, err)
	out = protowire.AppendTag(out, 99, protowire.VarintType)
	out = protowire.AppendVarint(out, 1<<35)
	out = protowire.AppendTag(out, 100, protowire.BytesType)
	out = protowire.AppendBytes(out, []byte("unseen"))
	out = protowire.AppendTag(out, 101, protowire.Fixed64Type)
	out = protowire.AppendFixed64(out, 1)

	got := NewSample()
	require.NoError(t, micropb.Decode(out, &got))
	assert.True(t, m.Equal(&got))
}

func TestSampleOneofLastWins(t *testing.T) {
	a := NewSample()
	a.Kind = &Sample_Kind_Num{Num: 4}
	b := NewSample()
	b.Kind = &Sample_Kind_Text{Text: "later"}
	ea, err := micropb.Encode(&a)
	require.NoError(t, err)
	eb, err := micropb.Encode(&b)
	require.NoError(t, err)

	got := NewSample()
	require.NoError(t, micropb.Decode(append(ea, eb...), &got))
	w, ok := got.Kind.(*Sample_Kind_Text)
	require.True(t, ok)
	assert.Equal(t, "later", w.Text)
}

func TestSampleCapacity(t *testing.T) {
	var ids []byte
	for v := range uint64(5) {
		ids = protowire.AppendVarint(ids, v)
	}
	packed := protowire.AppendTag(nil, 3, protowire.BytesType)
	packed = protowire.AppendBytes(packed, ids)

	var limits []byte
	for k := range uint64(3) {
		entry := protowire.AppendTag(nil, 1, protowire.VarintType)
		entry = protowire.AppendVarint(entry, k)
		limits = protowire.AppendTag(limits, 12, protowire.BytesType)
		limits = protowire.AppendBytes(limits, entry)
	}

	t.Run("reported", func(t *testing.T) {
		got := NewSample()
		assert.ErrorIs(t, micropb.Decode(packed, &got), micropb.ErrCapacity)
		got = NewSample()
		assert.ErrorIs(t, micropb.Decode(limits, &got), micropb.ErrCapacity)
	})
	t.Run("ignored", func(t *testing.T) {
		in := append(append([]byte(nil), packed...), limits...)
		d := micropb.NewDecoder(micropb.NewSliceReader(in))
		d.IgnoreRepeatedCapErr = true
		got := NewSample()
		require.NoError(t, got.DecodeMessage(d, len(in)))
		assert.Equal(t, []int32{0, 1, 2, 3}, got.Ids.Slice())
		assert.Equal(t, 2, got.Limits.Len())
		v, ok := got.Limits.Get(0)
		require.True(t, ok)
		assert.True(t, v.Equal(&Inner{}))
	})
	t.Run("string overflow", func(t *testing.T) {
		in := protowire.AppendTag(nil, 2, protowire.BytesType)
		in = protowire.AppendString(in, "ninechars")
		d := micropb.NewDecoder(micropb.NewSliceReader(in))
		d.IgnoreRepeatedCapErr = true
		got := NewSample()
		assert.ErrorIs(t, got.DecodeMessage(d, len(in)), micropb.ErrCapacity)
	})
}

func TestSampleInvalidUtf8(t *testing.T) {
	for _, num := range []protowire.Number{2, 7} {
		in := protowire.AppendTag(nil, num, protowire.BytesType)
		in = protowire.AppendBytes(in, []byte{'o', 0xff})
		got := NewSample()
		assert.ErrorIs(t, micropb.Decode(in, &got), micropb.ErrUtf8, "field %d", num)
	}

	// bytes fields carry no text check
	in := protowire.AppendTag(nil, 13, protowire.BytesType)
	in = protowire.AppendBytes(in, []byte{0xff})
	got := NewSample()
	require.NoError(t, micropb.Decode(in, &got))
	assert.Equal(t, []byte{0xff}, got.Blob)
}

func TestNodeRecursion(t *testing.T) {
	n := NewNode()
	n.Val = 1
	n.SetNext(Node{Val: 2, Next: &Node{Val: 3}})

	out, err := micropb.Encode(&n)
	require.NoError(t, err)
	assert.Len(t, out, n.ComputeSize())
	_, bounded := n.MaxSize()
	assert.False(t, bounded)

	got := NewNode()
	require.NoError(t, micropb.Decode(out, &got))
	require.NotNil(t, got.Next)
	require.NotNil(t, got.Next.Next)
	assert.Equal(t, int32(3), got.Next.Next.Val)
	assert.Nil(t, got.Next.Next.Next)
	assert.True(t, n.Equal(&got))
}
