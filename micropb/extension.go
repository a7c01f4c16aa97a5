package micropb

import (
	"math/bits"

	"github.com/go-faster/errors"
)

// ExtId is an opaque handle to the extension data of one message value.
// Zero means no extension data is attached.
type ExtId uint32

// ExtensionSet holds the extension fields declared for one extendee.
// Generated <Extendee>Extensions types implement it.
type ExtensionSet interface {
	// DecodeExtField decodes the value of tag if its number belongs to the
	// set, and reports whether it did.
	DecodeExtField(tag Tag, d *Decoder) (bool, error)
	EncodeExt(e *Encoder) error
	ComputeExtSize() int
	Reset()
}

// ExtensionRegistry owns extension data on behalf of extendable messages.
type ExtensionRegistry interface {
	// AllocExt attaches a fresh empty extension set for the message type
	// (its full proto name). It returns false when the type has no
	// extensions or no room is left.
	AllocExt(msgType string) (ExtId, bool)
	DecodeExtField(id ExtId, tag Tag, d *Decoder) (bool, error)
	// EncodeExt writes the payload of id and reports whether the set exists.
	EncodeExt(id ExtId, e *Encoder) (bool, error)
	ComputeExtSize(id ExtId) (int, bool)
	// DeallocExt releases id. It is a no-op for unknown ids.
	DeallocExt(id ExtId)
	// Reset releases every id.
	Reset()
}

// ExtensionLookup is implemented by registries that expose their sets.
type ExtensionLookup interface {
	Ext(id ExtId) (ExtensionSet, bool)
}

// GetExt returns the extension set of id as S. Sets are pointers, so the
// result is also the way to modify the fields.
func GetExt[S ExtensionSet](reg ExtensionLookup, id ExtId) (S, error) {
	var zero S
	set, ok := reg.Ext(id)
	if !ok {
		return zero, ErrIdNotFound
	}
	s, ok := set.(S)
	if !ok {
		return zero, errors.Wrapf(ErrIdNotFound, "extension %d is %T", id, set)
	}
	return s, nil
}

// DecodeExt offers tag to the decoder's registry on behalf of an extendable
// message, allocating the message's extension id on first use.
func DecodeExt(d *Decoder, id *ExtId, msgType string, tag Tag) (bool, error) {
	if d.Registry == nil {
		return false, nil
	}
	if *id == 0 {
		next, ok := d.Registry.AllocExt(msgType)
		if !ok {
			return false, nil
		}
		*id = next
	}
	return d.Registry.DecodeExtField(*id, tag, d)
}

// EncodeExt writes the extension payload of id through the encoder's
// registry. A zero id or a missing registry writes nothing.
func (e *Encoder) EncodeExt(id ExtId) error {
	if id == 0 || e.Registry == nil {
		return nil
	}
	if _, err := e.Registry.EncodeExt(id, e); err != nil {
		return err
	}
	return nil
}

// SizeOfExt returns the size of the extension payload of id in reg.
func SizeOfExt(reg ExtensionRegistry, id ExtId) int {
	if id == 0 || reg == nil {
		return 0
	}
	n, _ := reg.ComputeExtSize(id)
	return n
}

// ExtensionType describes one extendable message for StaticRegistry.
type ExtensionType struct {
	// MessageType is the full proto name of the extendee.
	MessageType string
	// Capacity is the number of message values that can hold extension data
	// at the same time.
	Capacity int
	New      func() ExtensionSet
}

const (
	maxExtTypes    = 0xff
	maxExtCapacity = 0xffff
)

// idBits is the part of an id below the type index. The slot index takes
// as many low bits as the capacity needs, the generation counter the rest.
const idBits = 24

type extSlot struct {
	set  ExtensionSet
	gen  uint32
	live bool
	// retired slots have used up every generation and are never handed out
	// again.
	retired bool
}

type extTable struct {
	typ      ExtensionType
	slots    []extSlot
	slotBits int
	maxGen   uint32
}

// StaticRegistry is a fixed-capacity ExtensionRegistry. All storage is
// allocated up front. It is not safe for concurrent use.
//
// An id packs the type index, the slot and a generation counter, so ids of
// released slots stay invalid after the slot is reused. A slot whose counter
// is exhausted is retired instead of wrapping, which permanently lowers the
// capacity by one.
type StaticRegistry struct {
	tables []extTable
	byName map[string]int
}

// NewStaticRegistry returns a registry for the given extendee types.
func NewStaticRegistry(types ...ExtensionType) (*StaticRegistry, error) {
	if len(types) > maxExtTypes {
		return nil, errors.Errorf("too many extendable types: %d", len(types))
	}
	r := &StaticRegistry{
		tables: make([]extTable, len(types)),
		byName: make(map[string]int, len(types)),
	}
	for i, t := range types {
		if t.New == nil {
			return nil, errors.Errorf("extension type %q: nil constructor", t.MessageType)
		}
		if t.Capacity <= 0 || t.Capacity > maxExtCapacity {
			return nil, errors.Errorf("extension type %q: capacity %d out of range", t.MessageType, t.Capacity)
		}
		if _, dup := r.byName[t.MessageType]; dup {
			return nil, errors.Errorf("extension type %q registered twice", t.MessageType)
		}
		slots := make([]extSlot, t.Capacity)
		for j := range slots {
			slots[j].set = t.New()
		}
		slotBits := bits.Len(uint(t.Capacity - 1))
		r.tables[i] = extTable{
			typ:      t,
			slots:    slots,
			slotBits: slotBits,
			maxGen:   1<<(idBits-slotBits) - 1,
		}
		r.byName[t.MessageType] = i
	}
	return r, nil
}

func packExtId(table int, t *extTable, slot int, gen uint32) ExtId {
	return ExtId(uint32(table+1)<<idBits | gen<<t.slotBits | uint32(slot))
}

func (r *StaticRegistry) slot(id ExtId) (*extSlot, bool) {
	table := int(id>>idBits) - 1
	if table < 0 || table >= len(r.tables) {
		return nil, false
	}
	t := &r.tables[table]
	low := uint32(id) & (1<<idBits - 1)
	idx := int(low & (1<<t.slotBits - 1))
	if idx >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[idx]
	if !s.live || s.gen != low>>t.slotBits {
		return nil, false
	}
	return s, true
}

func (r *StaticRegistry) AllocExt(msgType string) (ExtId, bool) {
	table, ok := r.byName[msgType]
	if !ok {
		return 0, false
	}
	t := &r.tables[table]
	for i := range t.slots {
		s := &t.slots[i]
		if s.live || s.retired {
			continue
		}
		s.live = true
		s.set.Reset()
		return packExtId(table, t, i, s.gen), true
	}
	return 0, false
}

func (r *StaticRegistry) Ext(id ExtId) (ExtensionSet, bool) {
	s, ok := r.slot(id)
	if !ok {
		return nil, false
	}
	return s.set, true
}

func (r *StaticRegistry) DecodeExtField(id ExtId, tag Tag, d *Decoder) (bool, error) {
	s, ok := r.slot(id)
	if !ok {
		return false, ErrIdNotFound
	}
	return s.set.DecodeExtField(tag, d)
}

func (r *StaticRegistry) EncodeExt(id ExtId, e *Encoder) (bool, error) {
	s, ok := r.slot(id)
	if !ok {
		return false, nil
	}
	return true, s.set.EncodeExt(e)
}

func (r *StaticRegistry) ComputeExtSize(id ExtId) (int, bool) {
	s, ok := r.slot(id)
	if !ok {
		return 0, false
	}
	return s.set.ComputeExtSize(), true
}

func (r *StaticRegistry) DeallocExt(id ExtId) {
	s, ok := r.slot(id)
	if !ok {
		return
	}
	r.tables[int(id>>idBits)-1].release(s)
}

func (t *extTable) release(s *extSlot) {
	s.live = false
	s.set.Reset()
	if s.gen == t.maxGen {
		s.retired = true
		return
	}
	s.gen++
}

func (r *StaticRegistry) Reset() {
	for i := range r.tables {
		t := &r.tables[i]
		for j := range t.slots {
			if s := &t.slots[j]; s.live {
				t.release(s)
			}
		}
	}
}

// Len returns the number of live ids.
func (r *StaticRegistry) Len() int {
	n := 0
	for i := range r.tables {
		for _, s := range r.tables[i].slots {
			if s.live {
				n++
			}
		}
	}
	return n
}
