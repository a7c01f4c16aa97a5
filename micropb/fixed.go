package micropb

import (
	"iter"
	"slices"
)

// FixedVec is a vector with a capacity fixed at construction. It never
// reallocates; Push past the capacity fails with ErrCapacity.
//
// The zero value has capacity 0. Build it with NewFixedVec.
type FixedVec[T any] struct {
	elems []T
}

// NewFixedVec returns an empty vector that holds up to n elements.
func NewFixedVec[T any](n int) FixedVec[T] {
	return FixedVec[T]{elems: make([]T, 0, n)}
}

// FixedVecFrom returns a vector of capacity n holding a copy of src.
func FixedVecFrom[T any](n int, src []T) (FixedVec[T], error) {
	v := NewFixedVec[T](n)
	if len(src) > n {
		return v, ErrCapacity
	}
	v.elems = append(v.elems, src...)
	return v, nil
}

func (v *FixedVec[T]) Clear() {
	v.elems = v.elems[:0]
}

func (v *FixedVec[T]) Reserve(int) {}

func (v *FixedVec[T]) Push(x T) error {
	if len(v.elems) == cap(v.elems) {
		return ErrCapacity
	}
	v.elems = append(v.elems, x)
	return nil
}

func (v *FixedVec[T]) Spare() []T {
	return v.elems[len(v.elems):cap(v.elems)]
}

func (v *FixedVec[T]) SetLen(n int) {
	v.elems = v.elems[:n]
}

func (v *FixedVec[T]) Len() int {
	return len(v.elems)
}

func (v *FixedVec[T]) Cap() int {
	return cap(v.elems)
}

func (v *FixedVec[T]) Slice() []T {
	return v.elems
}

// Clone returns a copy with the same capacity.
func (v FixedVec[T]) Clone() FixedVec[T] {
	c := NewFixedVec[T](cap(v.elems))
	c.elems = append(c.elems, v.elems...)
	return c
}

// FixedString is UTF-8 text with a fixed byte capacity.
type FixedString struct {
	buf []byte
}

// NewFixedString returns an empty string that holds up to n bytes.
func NewFixedString(n int) FixedString {
	return FixedString{buf: make([]byte, 0, n)}
}

// FixedStringFrom returns a string of capacity n holding s.
func FixedStringFrom(n int, s string) (FixedString, error) {
	f := NewFixedString(n)
	if len(s) > n {
		return f, ErrCapacity
	}
	f.buf = append(f.buf, s...)
	return f, nil
}

func (s *FixedString) Clear() {
	s.buf = s.buf[:0]
}

func (s *FixedString) Reserve(int) {}

func (s *FixedString) Spare() []byte {
	return s.buf[len(s.buf):cap(s.buf)]
}

func (s *FixedString) SetLen(n int) {
	s.buf = s.buf[:n]
}

func (s *FixedString) Len() int {
	return len(s.buf)
}

func (s *FixedString) Cap() int {
	return cap(s.buf)
}

func (s *FixedString) Bytes() []byte {
	return s.buf
}

func (s FixedString) String() string {
	return string(s.buf)
}

// Clone returns a copy with the same capacity.
func (s FixedString) Clone() FixedString {
	c := NewFixedString(cap(s.buf))
	c.buf = append(c.buf, s.buf...)
	return c
}

// FixedBytes is a byte vector with a fixed capacity.
type FixedBytes = FixedVec[byte]

// NewFixedBytes returns an empty byte vector that holds up to n bytes.
func NewFixedBytes(n int) FixedBytes {
	return NewFixedVec[byte](n)
}

// FixedMap is a map with a fixed number of entries, stored as a slice in
// insertion order. Lookups are linear, which is fine for the small
// capacities it is meant for.
type FixedMap[K comparable, V any] struct {
	keys []K
	vals []V
}

// NewFixedMap returns an empty map that holds up to n entries.
func NewFixedMap[K comparable, V any](n int) FixedMap[K, V] {
	return FixedMap[K, V]{keys: make([]K, 0, n), vals: make([]V, 0, n)}
}

// Insert stores v under k, replacing an existing entry. A new key in a full
// map fails with ErrCapacity.
func (m *FixedMap[K, V]) Insert(k K, v V) error {
	if i := slices.Index(m.keys, k); i >= 0 {
		m.vals[i] = v
		return nil
	}
	if len(m.keys) == cap(m.keys) {
		return ErrCapacity
	}
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return nil
}

// Get returns the value stored under k.
func (m *FixedMap[K, V]) Get(k K) (V, bool) {
	if i := slices.Index(m.keys, k); i >= 0 {
		return m.vals[i], true
	}
	var zero V
	return zero, false
}

// Delete removes k if present.
func (m *FixedMap[K, V]) Delete(k K) {
	if i := slices.Index(m.keys, k); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
		m.vals = slices.Delete(m.vals, i, i+1)
	}
}

func (m *FixedMap[K, V]) Clear() {
	clear(m.vals)
	m.keys = m.keys[:0]
	m.vals = m.vals[:0]
}

func (m *FixedMap[K, V]) Len() int {
	return len(m.keys)
}

func (m *FixedMap[K, V]) Cap() int {
	return cap(m.keys)
}

func (m *FixedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Clone returns a copy with the same capacity. Values are copied shallowly.
func (m FixedMap[K, V]) Clone() FixedMap[K, V] {
	c := NewFixedMap[K, V](cap(m.keys))
	c.keys = append(c.keys, m.keys...)
	c.vals = append(c.vals, m.vals...)
	return c
}

// Borrowed is implemented by containers that alias the decode input instead
// of copying it.
type Borrowed interface {
	Borrow(b []byte)
}

// BorrowedBytes aliases a bytes field in the decode buffer. It is only valid
// while that buffer is.
type BorrowedBytes []byte

func (b *BorrowedBytes) Borrow(p []byte) {
	*b = p
}

// BorrowedString aliases a string field in the decode buffer. It is only
// valid while that buffer is.
type BorrowedString []byte

func (s *BorrowedString) Borrow(p []byte) {
	*s = p
}

func (s BorrowedString) String() string {
	return string(s)
}
