package micropb

// Cloner is implemented by containers and handlers that need a deep copy.
type Cloner[T any] interface {
	Clone() T
}

// CloneOf returns v.Clone() when v provides it, v otherwise.
func CloneOf[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// MapEqualFunc reports whether a and b hold the same keys with values equal
// under eq.
func MapEqualFunc[K comparable, V any](a, b Map[K, V], eq func(V, V) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.All() {
		w, ok := b.Get(k)
		if !ok || !eq(v, w) {
			return false
		}
	}
	return true
}
