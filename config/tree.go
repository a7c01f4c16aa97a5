package config

import (
	"slices"

	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

type node struct {
	override Override
	children map[string]*node
}

// Tree maps proto paths to override records. The root record applies to
// every path.
type Tree struct {
	root node
}

func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) walk(path protopath.Path, create bool) *node {
	n := &t.root
	for _, seg := range path {
		next, ok := n.children[seg]
		if !ok {
			if !create {
				return nil
			}
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			next = &node{}
			n.children[seg] = next
		}
		n = next
	}
	return n
}

// Add merges o into the record at path. Keys o sets replace earlier ones.
func (t *Tree) Add(path protopath.Path, o Override) {
	n := t.walk(path, true)
	n.override = n.override.Merge(o)
}

// Node returns the record stored exactly at path.
func (t *Tree) Node(path protopath.Path) (Override, bool) {
	n := t.walk(path, false)
	if n == nil {
		return Override{}, false
	}
	return n.override, true
}

// Lookup returns the effective record for path: every record from the root
// down to path merged in order, so the deepest one wins.
func (t *Tree) Lookup(path protopath.Path) Override {
	n := &t.root
	out := n.override
	for _, seg := range path {
		next, ok := n.children[seg]
		if !ok {
			break
		}
		n = next
		out = out.Merge(n.override)
	}
	return out
}

// Paths returns every path with a record, sorted.
func (t *Tree) Paths() []protopath.Path {
	var out []protopath.Path
	var visit func(n *node, at protopath.Path)
	visit = func(n *node, at protopath.Path) {
		if len(at) > 0 {
			out = append(out, at)
		}
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			visit(n.children[k], at.Append(k))
		}
	}
	visit(&t.root, nil)
	return out
}
