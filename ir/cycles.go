package ir

import (
	"go.uber.org/zap"

	"github.com/yaroher/protoc-gen-go-micropb/logger"
)

// BreakCycles makes recursive message types representable and their size
// analysis finite. Both passes walk messages and fields in declaration
// order.
//
// Pass A boxes a singular message field whose target is on the current DFS
// stack. Oneof variants are stored behind an interface and need no box.
//
// Pass B marks every field that closes a cycle, oneof variants and bounded
// repeated or map fields included, with an Unbounded size override.
//
// Presence bits are laid out again afterwards since boxed fields move to
// pointer presence.
func BreakCycles(g *Graph) {
	log := logger.Logger.Named("cycles")
	walkCycles(g, structuralEdges, func(m *Message, f *Field) {
		f.Boxed = true
		f.Storage = Optional
		f.Presence = OptionPresence
		log.Debug("boxed", zap.String("message", m.Path.String()), zap.String("field", f.Name))
	})
	walkCycles(g, sizeEdges, func(m *Message, f *Field) {
		if f.MaxSizeOverride == nil {
			u := Unbounded
			f.MaxSizeOverride = &u
			log.Debug("size cycle", zap.String("message", m.Path.String()), zap.String("field", f.Name))
		}
	})
	layoutHazzers(g)
}

// edgeFunc reports whether f is followed and, if so, the target message.
type edgeFunc func(g *Graph, f *Field) (*Message, bool)

func structuralEdges(g *Graph, f *Field) (*Message, bool) {
	if f.Oneof != nil || f.Boxed {
		return nil, false
	}
	ref, ok := f.Edge()
	if !ok {
		return nil, false
	}
	t := g.Message(ref)
	return t, t != nil
}

func sizeEdges(g *Graph, f *Field) (*Message, bool) {
	if f.Type.Kind != KindMessage || f.Storage == Custom {
		return nil, false
	}
	if f.MaxSizeOverride != nil && !f.MaxSizeOverride.Bounded {
		return nil, false
	}
	if (f.Storage == Repeated || f.Storage == Map) && f.Seq.Cap == 0 {
		// already unbounded
		return nil, false
	}
	t := g.Message(f.Type.Ref)
	return t, t != nil
}

func walkCycles(g *Graph, edges edgeFunc, mark func(m *Message, f *Field)) {
	const (
		fresh = iota
		onStack
		done
	)
	state := make(map[*Message]int)
	var visit func(m *Message)
	visit = func(m *Message) {
		state[m] = onStack
		for _, f := range m.AllFields() {
			t, ok := edges(g, f)
			if !ok {
				continue
			}
			switch state[t] {
			case onStack:
				mark(m, f)
			case fresh:
				visit(t)
			}
		}
		state[m] = done
	}
	for _, m := range g.AllMessages() {
		if state[m] == fresh {
			visit(m)
		}
	}
}
