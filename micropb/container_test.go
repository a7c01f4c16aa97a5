package micropb

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceOf(t *testing.T) {
	var s []int32
	seq := SliceOf(&s)
	require.NoError(t, seq.Push(1))
	seq.Reserve(3)
	spare := seq.Spare()
	require.GreaterOrEqual(t, len(spare), 3)
	spare[0], spare[1] = 2, 3
	seq.SetLen(3)
	assert.Equal(t, []int32{1, 2, 3}, s)
	assert.Equal(t, 3, seq.Len())

	seq.Clear()
	assert.Empty(t, s)
}

func TestStringOf(t *testing.T) {
	s := "abc"
	txt := StringOf(&s)
	assert.Equal(t, 3, txt.Len())
	txt.Clear()
	txt.Reserve(2)
	copy(txt.Spare(), "hi")
	txt.SetLen(2)
	assert.Equal(t, "hi", s)
	assert.Equal(t, []byte("hi"), txt.Bytes())
}

func TestMapOf(t *testing.T) {
	var m map[string]uint32
	mm := MapOf(&m)
	require.NoError(t, mm.Insert("a", 1))
	require.NoError(t, mm.Insert("a", 2))
	require.NoError(t, mm.Insert("b", 3))
	assert.Equal(t, 2, mm.Len())
	assert.Equal(t, map[string]uint32{"a": 2, "b": 3}, maps.Collect(mm.All()))
}

func TestOption(t *testing.T) {
	o := None[int32]()
	assert.Nil(t, o.Ptr())
	_, ok := o.Get()
	assert.False(t, ok)

	o.Set(5)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, int32(5), v)
	*o.Ptr() = 6

	v, ok = o.Take()
	assert.True(t, ok)
	assert.Equal(t, int32(6), v)
	assert.Equal(t, None[int32](), o)
	assert.Equal(t, Option[int32]{Value: 1, Valid: true}, Some[int32](1))
}

func TestFixedVec(t *testing.T) {
	v := NewFixedVec[uint8](2)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	require.ErrorIs(t, v.Push(3), ErrCapacity)
	assert.Equal(t, []uint8{1, 2}, v.Slice())
	assert.Empty(t, v.Spare())

	c := v.Clone()
	c.Clear()
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 2, c.Cap())

	_, err := FixedVecFrom(1, []uint8{1, 2})
	require.ErrorIs(t, err, ErrCapacity)
	w, err := FixedVecFrom(3, []uint8{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, w.Cap())
}

func TestFixedString(t *testing.T) {
	s, err := FixedStringFrom(4, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.String())
	assert.Len(t, s.Spare(), 1)

	_, err = FixedStringFrom(2, "abc")
	require.ErrorIs(t, err, ErrCapacity)
}

func TestFixedMap(t *testing.T) {
	m := NewFixedMap[int32, string](2)
	require.NoError(t, m.Insert(1, "a"))
	require.NoError(t, m.Insert(2, "b"))
	require.NoError(t, m.Insert(1, "c"))
	require.ErrorIs(t, m.Insert(3, "d"), ErrCapacity)

	v, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, "c", v)

	var keys []int32
	for k := range m.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []int32{1, 2}, keys)

	m.Delete(1)
	_, ok = m.Get(1)
	assert.False(t, ok)
	require.NoError(t, m.Insert(3, "d"))
	assert.Equal(t, 2, m.Len())

	c := m.Clone()
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, m.Len())
}
