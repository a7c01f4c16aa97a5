package generator

import (
	"strconv"

	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

// genExtensionSet пишет тип набора расширений одного extendee. Набор хранится
// в ExtensionRegistry, сообщение держит только его ExtId.
func (fg *FileGen) genExtensionSet(s *ir.Message) {
	fg.genHazzer(s)
	fg.genStruct(s)
	if !s.NoDefault {
		fg.genNew(s)
	}
	fg.genReset(s)
	fg.genAccessors(s)

	fg.P("func (m *", s.GoName, ") DecodeExtField(tag ", fg.micropb("Tag"), ", d *", fg.micropb("Decoder"), ") (bool, error) {")
	if hasCases(s) {
		fg.P("switch tag.FieldNum() {")
		fg.decodeCases(s, "m")
		fg.P("}")
	}
	fg.P("return false, nil")
	fg.P("}")
	fg.P()

	fg.P("func (m *", s.GoName, ") EncodeExt(e *", fg.micropb("Encoder"), ") error {")
	fg.encodeFields(s, "m")
	fg.P("return nil")
	fg.P("}")
	fg.P()

	fg.P("func (m *", s.GoName, ") ComputeExtSize() int {")
	fg.P("n := 0")
	fg.sizeFields(s, "m", "nil")
	fg.P("return n")
	fg.P("}")
	fg.P()

	if !s.NoDebug {
		fg.genDebug(s)
	}
	if !s.NoClone {
		fg.genClone(s)
	}
	if !s.NoEqual {
		fg.genEqual(s)
	}

	set := fg.micropb("ExtensionSet")
	fg.P("// ", s.GoName, "Type describes ", s.GoName, " for micropb.NewStaticRegistry.")
	fg.P("func ", s.GoName, "Type(capacity int) ", fg.micropb("ExtensionType"), " {")
	fg.P("return ", fg.micropb("ExtensionType"), "{")
	fg.P("MessageType: ", strconv.Quote(s.Extendee.Dotted()), ",")
	fg.P("Capacity: capacity,")
	fg.P("New: func() ", set, " {")
	fg.P("v := New", s.GoName, "()")
	fg.P("return &v")
	fg.P("},")
	fg.P("}")
	fg.P("}")
	fg.P()
}
