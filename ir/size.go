package ir

// ComputeSizes sets MaxSize on every message. Run it after BreakCycles; a
// cycle that survives evaluates to Unbounded.
func ComputeSizes(g *Graph) {
	s := &sizer{g: g, memo: make(map[*Message]Size), busy: make(map[*Message]bool)}
	for _, m := range g.AllMessages() {
		m.MaxSize = s.message(m)
	}
}

type sizer struct {
	g    *Graph
	memo map[*Message]Size
	busy map[*Message]bool
}

func (s *sizer) message(m *Message) Size {
	if v, ok := s.memo[m]; ok {
		return v
	}
	if s.busy[m] {
		return Unbounded
	}
	s.busy[m] = true
	defer delete(s.busy, m)

	total := Bounded(0)
	if m.Unknown != "" || m.Extendable {
		total = Unbounded
	}
	for _, f := range m.Fields {
		total = total.Add(s.field(f))
	}
	for _, o := range m.Oneofs {
		total = total.Add(s.oneof(o))
	}
	s.memo[m] = total
	return total
}

func (s *sizer) oneof(o *Oneof) Size {
	if o.Custom != nil || len(o.Variants) == 0 {
		return Unbounded
	}
	out := Bounded(0)
	for _, v := range o.Variants {
		out = out.Max(s.field(v))
	}
	return out
}

// field returns the largest encoding of f, tags included.
func (s *sizer) field(f *Field) Size {
	if f.MaxSizeOverride != nil {
		return *f.MaxSizeOverride
	}
	if f.Storage == Custom {
		return Unbounded
	}
	tag := Bounded(tagSize(f.Number))
	switch f.Storage {
	case Repeated:
		if f.Seq.Cap == 0 {
			return Unbounded
		}
		elem := s.value(f.Type)
		if f.Packed {
			body := elem.Mul(f.Seq.Cap)
			return tag.Add(lenPrefix(body)).Add(body)
		}
		return tag.Add(elem).Mul(f.Seq.Cap)
	case Map:
		if f.Seq.Cap == 0 {
			return Unbounded
		}
		entry := Bounded(1).Add(s.value(*f.Key)).Add(Bounded(1)).Add(s.value(f.Type))
		return tag.Add(lenPrefix(entry)).Add(entry).Mul(f.Seq.Cap)
	}
	return tag.Add(s.value(f.Type))
}

func (s *sizer) value(t Type) Size {
	switch t.Kind {
	case KindInt32, KindInt64, KindUint64, KindSint64, KindEnum:
		return Bounded(10)
	case KindUint32, KindSint32:
		return Bounded(5)
	case KindFixed32, KindSfixed32, KindFloat:
		return Bounded(4)
	case KindFixed64, KindSfixed64, KindDouble:
		return Bounded(8)
	case KindBool:
		return Bounded(1)
	case KindString, KindBytes:
		if t.Text.Cap == 0 {
			return Unbounded
		}
		return Bounded(varintSize(uint64(t.Text.Cap)) + t.Text.Cap)
	case KindMessage:
		target := s.g.Message(t.Ref)
		if target == nil {
			return Unbounded
		}
		body := s.message(target)
		return lenPrefix(body).Add(body)
	}
	return Unbounded
}

func lenPrefix(body Size) Size {
	if !body.Bounded {
		return Unbounded
	}
	return Bounded(varintSize(uint64(body.N)))
}

func tagSize(num int32) int {
	return varintSize(uint64(num) << 3)
}

func varintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
