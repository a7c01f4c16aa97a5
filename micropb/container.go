package micropb

import (
	"iter"
)

// Seq is the contract for vector-like field storage.
//
// The decoder never assumes the storage can grow: it calls Reserve as a
// hint, writes into Spare, then commits with SetLen. Push reports
// ErrCapacity when a fixed container is full.
type Seq[T any] interface {
	Clear()
	// Reserve asks for room for n more elements. It may do nothing.
	Reserve(n int)
	Push(v T) error
	// Spare returns the writable region right after the current elements.
	Spare() []T
	// SetLen sets the element count. The first n elements of
	// Slice()+Spare() must hold valid values.
	SetLen(n int)
	Len() int
	Slice() []T
}

// Text is the contract for string storage. It behaves like Seq[byte]; the
// bytes committed with SetLen must be valid UTF-8.
type Text interface {
	Clear()
	Reserve(n int)
	Spare() []byte
	SetLen(n int)
	Len() int
	Bytes() []byte
	String() string
}

// Map is the contract for map field storage. Iteration order is whatever
// the container provides.
type Map[K comparable, V any] interface {
	Insert(k K, v V) error
	Get(k K) (V, bool)
	Len() int
	All() iter.Seq2[K, V]
}

// Option is an in-place nullable value.
type Option[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Valid: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Ptr returns a pointer to the value, or nil when absent.
func (o *Option[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	return &o.Value
}

// Set stores v and marks the option present.
func (o *Option[T]) Set(v T) {
	o.Value = v
	o.Valid = true
}

// Clear marks the option absent and drops the value.
func (o *Option[T]) Clear() {
	var zero T
	o.Value = zero
	o.Valid = false
}

// Take returns the value and clears the option.
func (o *Option[T]) Take() (T, bool) {
	v, ok := o.Value, o.Valid
	o.Clear()
	return v, ok
}

// SliceOf adapts a Go slice to Seq. The slice grows on the heap as needed.
func SliceOf[T any](p *[]T) Seq[T] {
	return (*sliceSeq[T])(p)
}

type sliceSeq[T any] []T

func (s *sliceSeq[T]) Clear() {
	*s = (*s)[:0]
}

func (s *sliceSeq[T]) Reserve(n int) {
	if cap(*s)-len(*s) >= n {
		return
	}
	grown := make([]T, len(*s), len(*s)+n)
	copy(grown, *s)
	*s = grown
}

func (s *sliceSeq[T]) Push(v T) error {
	*s = append(*s, v)
	return nil
}

func (s *sliceSeq[T]) Spare() []T {
	return (*s)[len(*s):cap(*s)]
}

func (s *sliceSeq[T]) SetLen(n int) {
	*s = (*s)[:n]
}

func (s *sliceSeq[T]) Len() int {
	return len(*s)
}

func (s *sliceSeq[T]) Slice() []T {
	return *s
}

// BytesOf adapts a byte slice to Seq[byte].
func BytesOf(p *[]byte) Seq[byte] {
	return SliceOf(p)
}

// StringOf adapts a Go string to Text. Committed bytes are copied into a new
// string on SetLen.
func StringOf(p *string) Text {
	return &stringText{p: p}
}

type stringText struct {
	p   *string
	buf []byte
}

func (s *stringText) Clear() {
	*s.p = ""
	s.buf = s.buf[:0]
}

func (s *stringText) Reserve(n int) {
	if len(s.buf) == 0 && len(*s.p) > 0 {
		s.buf = append(s.buf, *s.p...)
	}
	if cap(s.buf)-len(s.buf) >= n {
		return
	}
	grown := make([]byte, len(s.buf), len(s.buf)+n)
	copy(grown, s.buf)
	s.buf = grown
}

func (s *stringText) Spare() []byte {
	return s.buf[len(s.buf):cap(s.buf)]
}

func (s *stringText) SetLen(n int) {
	s.buf = s.buf[:n]
	*s.p = string(s.buf)
}

func (s *stringText) Len() int {
	return len(*s.p)
}

func (s *stringText) Bytes() []byte {
	return []byte(*s.p)
}

func (s *stringText) String() string {
	return *s.p
}

// MapOf adapts a Go map to Map. A nil map is allocated on first insert.
func MapOf[K comparable, V any](p *map[K]V) Map[K, V] {
	return (*goMap[K, V])(p)
}

type goMap[K comparable, V any] map[K]V

func (m *goMap[K, V]) Insert(k K, v V) error {
	if *m == nil {
		*m = make(map[K]V)
	}
	(*m)[k] = v
	return nil
}

func (m *goMap[K, V]) Get(k K) (V, bool) {
	v, ok := (*m)[k]
	return v, ok
}

func (m *goMap[K, V]) Len() int {
	return len(*m)
}

func (m *goMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v := range *m {
			if !yield(k, v) {
				return
			}
		}
	}
}
