package ir

import (
	"github.com/go-faster/jx"

	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

// DumpJSON renders the graph for the dump_ir option.
func DumpJSON(g *Graph) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("files")
	e.ArrStart()
	for _, f := range g.Files {
		dumpFile(&e, f)
	}
	e.ArrEnd()
	e.FieldStart("diagnostics")
	e.ArrStart()
	for _, d := range g.Diagnostics {
		e.ObjStart()
		e.FieldStart("level")
		e.Str(string(d.Level))
		e.FieldStart("subject")
		e.Str(d.Subject)
		e.FieldStart("message")
		e.Str(d.Message)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

func dumpFile(e *jx.Encoder, f *File) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(f.Name)
	e.FieldStart("package")
	e.Str(f.Package.Dotted())
	e.FieldStart("syntax")
	e.Str(f.Syntax.String())
	e.FieldStart("generate")
	e.Bool(f.Generate)
	e.FieldStart("enums")
	e.ArrStart()
	for _, en := range f.Enums {
		dumpEnum(e, en)
	}
	e.ArrEnd()
	e.FieldStart("messages")
	e.ArrStart()
	for _, m := range f.Messages {
		dumpMessage(e, m)
	}
	e.ArrEnd()
	if len(f.ExtensionSets) > 0 {
		e.FieldStart("extension_sets")
		e.ArrStart()
		for _, s := range f.ExtensionSets {
			dumpMessage(e, s)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func dumpEnum(e *jx.Encoder, en *Enum) {
	e.ObjStart()
	e.FieldStart("path")
	e.Str(en.Path.String())
	e.FieldStart("go_name")
	e.Str(en.GoName)
	e.FieldStart("int_size")
	e.Int(int(en.IntSize))
	e.FieldStart("unsigned")
	e.Bool(en.Unsigned)
	e.FieldStart("values")
	e.ObjStart()
	for _, v := range en.Values {
		e.FieldStart(v.GoName)
		e.Int(int(v.Number))
	}
	e.ObjEnd()
	e.ObjEnd()
}

func dumpSize(e *jx.Encoder, s Size) {
	if !s.Bounded {
		e.Null()
		return
	}
	e.Int(s.N)
}

func dumpMessage(e *jx.Encoder, m *Message) {
	e.ObjStart()
	e.FieldStart("path")
	e.Str(m.Path.String())
	e.FieldStart("go_name")
	e.Str(m.GoName)
	if m.IsExtensionSet() {
		e.FieldStart("extendee")
		e.Str(m.Extendee.String())
	}
	e.FieldStart("max_size")
	dumpSize(e, m.MaxSize)
	e.FieldStart("hazzer_bits")
	e.Int(m.HazzerBits)
	if m.Borrowed {
		e.FieldStart("borrowed")
		e.Bool(true)
	}
	if m.Extendable {
		e.FieldStart("extendable")
		e.Bool(true)
	}
	if m.Unknown != "" {
		e.FieldStart("unknown_handler")
		e.Str(m.Unknown)
	}
	e.FieldStart("fields")
	e.ArrStart()
	for _, f := range m.Fields {
		dumpField(e, m.Path, f)
	}
	e.ArrEnd()
	if len(m.Oneofs) > 0 {
		e.FieldStart("oneofs")
		e.ArrStart()
		for _, o := range m.Oneofs {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(o.Name)
			e.FieldStart("index")
			e.Int(o.Index)
			if o.Custom != nil {
				e.FieldStart("custom")
				e.Str(o.Custom.String())
			}
			e.FieldStart("variants")
			e.ArrStart()
			for _, v := range o.Variants {
				dumpField(e, m.Path, v)
			}
			e.ArrEnd()
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	if len(m.Enums) > 0 {
		e.FieldStart("enums")
		e.ArrStart()
		for _, en := range m.Enums {
			dumpEnum(e, en)
		}
		e.ArrEnd()
	}
	if len(m.Nested) > 0 {
		e.FieldStart("nested")
		e.ArrStart()
		for _, n := range m.Nested {
			dumpMessage(e, n)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func dumpField(e *jx.Encoder, scope protopath.Path, f *Field) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(f.Name)
	e.FieldStart("go_name")
	e.Str(f.GoName)
	e.FieldStart("number")
	e.Int(int(f.Number))
	e.FieldStart("storage")
	e.Str(f.Storage.String())
	if f.Storage == Optional || f.Storage == Single {
		e.FieldStart("presence")
		e.Str(f.Presence.String())
	}
	if f.HazzerIndex >= 0 {
		e.FieldStart("hazzer")
		e.Int(f.HazzerIndex)
	}
	if f.Boxed {
		e.FieldStart("boxed")
		e.Bool(true)
	}
	if f.Packed {
		e.FieldStart("packed")
		e.Bool(true)
	}
	if f.Custom != nil {
		e.FieldStart("custom")
		e.Str(f.Custom.String())
	}
	e.FieldStart("type")
	dumpType(e, scope, f.Type)
	if f.Key != nil {
		e.FieldStart("key")
		dumpType(e, scope, *f.Key)
	}
	if f.Storage == Repeated || f.Storage == Map {
		e.FieldStart("container")
		dumpContainer(e, f.Seq)
	}
	if f.MaxSizeOverride != nil {
		e.FieldStart("max_size_override")
		dumpSize(e, *f.MaxSizeOverride)
	}
	e.ObjEnd()
}

func dumpType(e *jx.Encoder, scope protopath.Path, t Type) {
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(t.Kind.String())
	if len(t.Ref) > 0 {
		e.FieldStart("ref")
		e.Str(protopath.Relative(scope, t.Ref).String())
	}
	if t.IntSize != 0 {
		e.FieldStart("int_size")
		e.Int(int(t.IntSize))
	}
	if t.Kind == KindString || t.Kind == KindBytes {
		e.FieldStart("container")
		dumpContainer(e, t.Text)
	}
	e.ObjEnd()
}

func dumpContainer(e *jx.Encoder, c Container) {
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(c.Kind.String())
	if c.Type != "" {
		e.FieldStart("type")
		e.Str(c.Type)
	}
	if c.Ctor != "" {
		e.FieldStart("ctor")
		e.Str(c.Ctor)
	}
	if c.Cap > 0 {
		e.FieldStart("cap")
		e.Int(c.Cap)
	}
	e.ObjEnd()
}
