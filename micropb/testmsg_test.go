package micropb_test

import (
	"github.com/yaroher/protoc-gen-go-micropb/micropb"
)

// Messages below follow the shape protoc-gen-go-micropb emits.

// Scalar: proto3, int32 f1 = 1; sint64 f2 = 2.
type Scalar struct {
	F1 int32
	F2 int64
}

func NewScalar() Scalar {
	return Scalar{}
}

func (m *Scalar) Reset() {
	*m = NewScalar()
}

func (m *Scalar) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			v, err := d.DecodeInt32()
			if err != nil {
				return true, err
			}
			m.F1 = v
			return true, nil
		case 2:
			v, err := d.DecodeSint64()
			if err != nil {
				return true, err
			}
			m.F2 = v
			return true, nil
		}
		return false, nil
	})
}

func (m *Scalar) EncodeMessage(e *micropb.Encoder) error {
	if m.F1 != 0 {
		if err := e.EncodeTag(micropb.NewTag(1, micropb.WireVarint)); err != nil {
			return err
		}
		if err := e.EncodeInt32(m.F1); err != nil {
			return err
		}
	}
	if m.F2 != 0 {
		if err := e.EncodeTag(micropb.NewTag(2, micropb.WireVarint)); err != nil {
			return err
		}
		if err := e.EncodeSint64(m.F2); err != nil {
			return err
		}
	}
	return nil
}

func (m *Scalar) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *Scalar) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	n := 0
	if m.F1 != 0 {
		n += 1 + micropb.SizeOfInt32(m.F1)
	}
	if m.F2 != 0 {
		n += 1 + micropb.SizeOfSint64(m.F2)
	}
	return n
}

const Scalar_MaxSize = 22

func (m *Scalar) MaxSize() (int, bool) {
	return Scalar_MaxSize, true
}

// Packed: proto3, repeated int32 f1 = 1.
type Packed struct {
	F1 []int32
}

func (m *Packed) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			if tag.WireType() == micropb.WireLen {
				return true, micropb.DecodePacked(d, micropb.SliceOf(&m.F1), (*micropb.Decoder).DecodeInt32)
			}
			return true, micropb.DecodeRepeated(d, micropb.SliceOf(&m.F1), (*micropb.Decoder).DecodeInt32)
		}
		return false, nil
	})
}

func (m *Packed) EncodeMessage(e *micropb.Encoder) error {
	return micropb.EncodePacked(e, 1, m.F1, micropb.Int32Codec)
}

func (m *Packed) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *Packed) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	return micropb.SizeOfPacked(1, m.F1, micropb.Int32Codec)
}

func (m *Packed) MaxSize() (int, bool) {
	return 0, false
}

// Bounded: proto3, repeated int32 f1 = 1 with max_len=2.
type Bounded struct {
	F1 micropb.FixedVec[int32]
}

func NewBounded() Bounded {
	return Bounded{
		F1: micropb.NewFixedVec[int32](2),
	}
}

func (m *Bounded) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			if tag.WireType() == micropb.WireLen {
				return true, micropb.DecodePacked(d, &m.F1, (*micropb.Decoder).DecodeInt32)
			}
			return true, micropb.DecodeRepeated(d, &m.F1, (*micropb.Decoder).DecodeInt32)
		}
		return false, nil
	})
}

func (m *Bounded) EncodeMessage(e *micropb.Encoder) error {
	return micropb.EncodePacked(e, 1, m.F1.Slice(), micropb.Int32Codec)
}

func (m *Bounded) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *Bounded) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	return micropb.SizeOfPacked(1, m.F1.Slice(), micropb.Int32Codec)
}

// 1 tag + 1 length + 2 * 10
const Bounded_MaxSize = 22

func (m *Bounded) MaxSize() (int, bool) {
	return Bounded_MaxSize, true
}

// StrMap: proto3, map<string, string> f1 = 1.
type StrMap struct {
	F1 map[string]string
}

func (m *StrMap) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			return true, micropb.DecodeMapEntry(d, micropb.MapOf(&m.F1), "", "", micropb.MapString, micropb.MapString)
		}
		return false, nil
	})
}

func (m *StrMap) EncodeMessage(e *micropb.Encoder) error {
	for k, v := range m.F1 {
		if err := micropb.EncodeMapEntry(e, 1, k, v, micropb.StringCodec, micropb.StringCodec); err != nil {
			return err
		}
	}
	return nil
}

func (m *StrMap) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *StrMap) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	n := 0
	for k, v := range m.F1 {
		n += micropb.SizeOfMapEntry(1, k, v, micropb.StringCodec, micropb.StringCodec)
	}
	return n
}

func (m *StrMap) MaxSize() (int, bool) {
	return 0, false
}

// Node: proto2, optional Node child = 1; optional int32 value = 2. The child
// edge closes a cycle and is boxed.
type Node struct {
	Child *Node
	Value int32
	Has_  Node_Hazzer
}

type Node_Hazzer [1]uint8

func (h *Node_Hazzer) Value() bool {
	return h[0]&0x01 != 0
}

func (h *Node_Hazzer) SetValue() {
	h[0] |= 0x01
}

func (h *Node_Hazzer) ClearValue() {
	h[0] &^= 0x01
}

func NewNode() Node {
	return Node{}
}

func (m *Node) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			if m.Child == nil {
				v := NewNode()
				m.Child = &v
			}
			return true, d.DecodeNested(m.Child)
		case 2:
			v, err := d.DecodeInt32()
			if err != nil {
				return true, err
			}
			m.Value = v
			m.Has_.SetValue()
			return true, nil
		}
		return false, nil
	})
}

func (m *Node) EncodeMessage(e *micropb.Encoder) error {
	if m.Child != nil {
		if err := e.EncodeTag(micropb.NewTag(1, micropb.WireLen)); err != nil {
			return err
		}
		if err := e.EncodeNested(m.Child); err != nil {
			return err
		}
	}
	if m.Has_.Value() {
		if err := e.EncodeTag(micropb.NewTag(2, micropb.WireVarint)); err != nil {
			return err
		}
		if err := e.EncodeInt32(m.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *Node) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *Node) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	n := 0
	if m.Child != nil {
		n += 1 + micropb.SizeOfLenRecord(m.Child.ComputeSizeWith(reg))
	}
	if m.Has_.Value() {
		n += 1 + micropb.SizeOfInt32(m.Value)
	}
	return n
}

func (m *Node) MaxSize() (int, bool) {
	return 0, false
}

// Label: proto3, string f1 = 1.
type Label struct {
	F1 string
}

func (m *Label) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			return true, d.DecodeString(micropb.StringOf(&m.F1))
		}
		return false, nil
	})
}

// Extendable: proto2, optional int32 id = 1; extensions 100 to 199.
type Extendable struct {
	Id   int32
	Has_ Extendable_Hazzer
	Ext_ micropb.ExtId
}

type Extendable_Hazzer [1]uint8

func (h *Extendable_Hazzer) Id() bool {
	return h[0]&0x01 != 0
}

func (h *Extendable_Hazzer) SetId() {
	h[0] |= 0x01
}

func (m *Extendable) DecodeMessage(d *micropb.Decoder, length int) error {
	return d.DecodeFields(length, func(tag micropb.Tag) (bool, error) {
		switch tag.FieldNum() {
		case 1:
			v, err := d.DecodeInt32()
			if err != nil {
				return true, err
			}
			m.Id = v
			m.Has_.SetId()
			return true, nil
		}
		return micropb.DecodeExt(d, &m.Ext_, "test.Extendable", tag)
	})
}

func (m *Extendable) EncodeMessage(e *micropb.Encoder) error {
	if m.Has_.Id() {
		if err := e.EncodeTag(micropb.NewTag(1, micropb.WireVarint)); err != nil {
			return err
		}
		if err := e.EncodeInt32(m.Id); err != nil {
			return err
		}
	}
	return e.EncodeExt(m.Ext_)
}

func (m *Extendable) ComputeSize() int {
	return m.ComputeSizeWith(nil)
}

func (m *Extendable) ComputeSizeWith(reg micropb.ExtensionRegistry) int {
	n := 0
	if m.Has_.Id() {
		n += 1 + micropb.SizeOfInt32(m.Id)
	}
	n += micropb.SizeOfExt(reg, m.Ext_)
	return n
}

func (m *Extendable) MaxSize() (int, bool) {
	return 0, false
}

// ExtendableExtensions is the set for: extend Extendable { optional string
// note = 100; repeated uint32 marks = 101; }
type ExtendableExtensions struct {
	Note  string
	Marks []uint32
	Has_  ExtendableExtensions_Hazzer
}

type ExtendableExtensions_Hazzer [1]uint8

func (h *ExtendableExtensions_Hazzer) Note() bool {
	return h[0]&0x01 != 0
}

func (h *ExtendableExtensions_Hazzer) SetNote() {
	h[0] |= 0x01
}

func (x *ExtendableExtensions) DecodeExtField(tag micropb.Tag, d *micropb.Decoder) (bool, error) {
	switch tag.FieldNum() {
	case 100:
		if err := d.DecodeString(micropb.StringOf(&x.Note)); err != nil {
			return true, err
		}
		x.Has_.SetNote()
		return true, nil
	case 101:
		if tag.WireType() == micropb.WireLen {
			return true, micropb.DecodePacked(d, micropb.SliceOf(&x.Marks), (*micropb.Decoder).DecodeUint32)
		}
		return true, micropb.DecodeRepeated(d, micropb.SliceOf(&x.Marks), (*micropb.Decoder).DecodeUint32)
	}
	return false, nil
}

func (x *ExtendableExtensions) EncodeExt(e *micropb.Encoder) error {
	if x.Has_.Note() {
		if err := e.EncodeTag(micropb.NewTag(100, micropb.WireLen)); err != nil {
			return err
		}
		if err := e.EncodeString(x.Note); err != nil {
			return err
		}
	}
	return micropb.EncodeRepeated(e, 101, x.Marks, micropb.Uint32Codec)
}

func (x *ExtendableExtensions) ComputeExtSize() int {
	n := 0
	if x.Has_.Note() {
		n += 2 + micropb.SizeOfLenRecord(len(x.Note))
	}
	n += micropb.SizeOfRepeated(101, x.Marks, micropb.Uint32Codec)
	return n
}

func (x *ExtendableExtensions) Reset() {
	*x = ExtendableExtensions{}
}

func twos(v int64) int64 { return v }
