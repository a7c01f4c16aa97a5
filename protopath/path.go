// Package protopath models dotted protobuf paths such as ".pkg.Outer.field".
package protopath

import (
	"slices"
	"strings"
)

const separator = "."

// Path is a fully qualified proto path split into segments. The empty path
// is the root.
type Path []string

// Parse splits a dotted path. A leading dot is optional; "" and "." are the
// root.
func Parse(s string) Path {
	s = strings.TrimPrefix(s, separator)
	if s == "" {
		return nil
	}
	return strings.Split(s, separator)
}

// String returns the path in its fully qualified form with a leading dot.
func (p Path) String() string {
	return separator + strings.Join(p, separator)
}

// Dotted returns the path without the leading dot, as protobuf full names
// are written.
func (p Path) Dotted() string {
	return strings.Join(p, separator)
}

func (p Path) Copy() Path {
	return slices.Clone(p)
}

// Append returns a new path with the segments added. p is not modified.
func (p Path) Append(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) Equal(q Path) bool {
	return slices.Equal(p, q)
}

// HasPrefix reports whether q is an ancestor of p or p itself.
func (p Path) HasPrefix(q Path) bool {
	return len(q) <= len(p) && slices.Equal(p[:len(q)], q)
}

// CommonPrefix returns the number of leading segments a and b share.
func CommonPrefix(a, b Path) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// Ref is a reference to a path as seen from some scope: climb Supers
// levels, then descend through Rest.
type Ref struct {
	Supers int
	Rest   Path
}

// Relative returns the reference to target from inside scope.
func Relative(scope, target Path) Ref {
	n := CommonPrefix(scope, target)
	return Ref{Supers: len(scope) - n, Rest: target[n:].Copy()}
}

func (r Ref) String() string {
	parts := make([]string, 0, r.Supers+len(r.Rest))
	for range r.Supers {
		parts = append(parts, "super")
	}
	parts = append(parts, r.Rest...)
	return strings.Join(parts, "::")
}
