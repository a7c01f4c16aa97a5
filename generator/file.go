package generator

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

// FileGen рендерит один .proto файл в один Go файл.
type FileGen struct {
	g    *Generator
	file *protogen.File
	ir   *ir.File
	out  *protogen.GeneratedFile
	err  error
}

func (g *Generator) NewFileGen(f *protogen.File, irf *ir.File) *FileGen {
	out := g.Plugin.NewGeneratedFile(f.GeneratedFilenamePrefix+g.suffix, f.GoImportPath)
	return &FileGen{g: g, file: f, ir: irf, out: out}
}

func (fg *FileGen) P(v ...any) {
	fg.out.P(v...)
}

func (fg *FileGen) GenFile() error {
	if len(fg.ir.Messages) == 0 && len(fg.ir.Enums) == 0 && len(fg.ir.ExtensionSets) == 0 {
		fg.out.Skip()
		return nil
	}

	fg.P("// Code generated by protoc-gen-go-micropb. DO NOT EDIT.")
	fg.P("// source: ", fg.ir.Name)
	fg.P()
	fg.P("package ", fg.file.GoPackageName)
	fg.P()

	for _, e := range fg.ir.Enums {
		fg.genEnum(e)
	}
	for _, m := range fg.ir.Messages {
		fg.genMessage(m)
	}
	for _, s := range fg.ir.ExtensionSets {
		fg.genExtensionSet(s)
	}
	return fg.err
}

func (fg *FileGen) genMessage(m *ir.Message) {
	for _, o := range m.Oneofs {
		fg.genOneof(m, o)
	}
	for _, n := range m.Nested {
		fg.genMessage(n)
	}
	for _, e := range m.Enums {
		fg.genEnum(e)
	}
	fg.genHazzer(m)
	fg.genStruct(m)
	if !m.NoDefault {
		fg.genNew(m)
	}
	fg.genReset(m)
	fg.genAccessors(m)
	fg.genDecode(m)
	fg.genEncode(m)
	fg.genSize(m)
	fg.genMaxSize(m)
	if !m.NoDebug {
		fg.genDebug(m)
	}
	if !m.NoClone {
		fg.genClone(m)
	}
	if !m.NoEqual {
		fg.genEqual(m)
	}
}

func (fg *FileGen) typeAttributes(attrs string) {
	for _, line := range strings.Split(attrs, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fg.P(line)
		}
	}
}

func (fg *FileGen) genEnum(e *ir.Enum) {
	fg.P("// ", e.GoName, " is the enum ", e.Path.Dotted(), ".")
	fg.typeAttributes(e.TypeAttributes)
	fg.P("type ", e.GoName, " ", intType(e.IntSize, e.Unsigned))
	fg.P()
	fg.P("const (")
	for _, v := range e.Values {
		fg.P(v.GoName, " ", e.GoName, " = ", v.Number)
	}
	fg.P(")")
	fg.P()
	if e.NoDebug {
		return
	}
	itoa := fg.std("strconv", "Itoa")
	fg.P("func (x ", e.GoName, ") String() string {")
	fg.P("switch x {")
	seen := make(map[int32]bool)
	for _, v := range e.Values {
		// алиасы с тем же номером дали бы повторяющийся case
		if seen[v.Number] {
			continue
		}
		seen[v.Number] = true
		fg.P("case ", v.GoName, ":")
		fg.P("return ", strconv.Quote(v.Name))
	}
	fg.P("}")
	fg.P("return ", strconv.Quote(e.GoName+"("), " + ", itoa, "(int(x)) + \")\"")
	fg.P("}")
	fg.P()
}

func oneofIface(m *ir.Message, o *ir.Oneof) string {
	return m.GoName + "_" + o.GoName
}

func variantType(m *ir.Message, v *ir.Field) string {
	return oneofIface(m, v.Oneof) + "_" + v.GoName
}

func (fg *FileGen) genOneof(m *ir.Message, o *ir.Oneof) {
	if o.Custom != nil {
		return
	}
	iface := oneofIface(m, o)
	fg.P("// ", iface, " is the oneof ", m.Path.Append(o.Name).Dotted(), ". A nil value means no variant is set.")
	fg.P("type ", iface, " interface {")
	fg.P("is", iface, "()")
	fg.P("}")
	fg.P()
	for _, v := range o.Variants {
		name := variantType(m, v)
		fg.P("type ", name, " struct {")
		fg.P(v.GoName, " ", fg.valueType(v.Type))
		fg.P("}")
		fg.P()
		fg.P("func (*", name, ") is", iface, "() {}")
		fg.P()
	}
}

func hazzerPos(i int) (int, string) {
	return i / 8, fmt.Sprintf("0x%02x", 1<<(i%8))
}

func (fg *FileGen) genHazzer(m *ir.Message) {
	if m.HazzerBits == 0 {
		return
	}
	name := m.GoName + "_Hazzer"
	fg.P("// ", name, " holds one presence bit per optional field of ", m.GoName, ".")
	fg.P("type ", name, " [", (m.HazzerBits+7)/8, "]uint8")
	fg.P()
	for _, f := range m.Fields {
		if f.HazzerIndex < 0 {
			continue
		}
		idx, mask := hazzerPos(f.HazzerIndex)
		fg.P("func (h *", name, ") ", f.GoName, "() bool {")
		fg.P("return h[", idx, "]&", mask, " != 0")
		fg.P("}")
		fg.P()
		fg.P("func (h *", name, ") Set", f.GoName, "() {")
		fg.P("h[", idx, "] |= ", mask)
		fg.P("}")
		fg.P()
		fg.P("func (h *", name, ") Clear", f.GoName, "() {")
		fg.P("h[", idx, "] &^= ", mask)
		fg.P("}")
		fg.P()
	}
}

func fieldTag(attrs string) string {
	attrs = strings.TrimSpace(attrs)
	if attrs == "" || strings.HasPrefix(attrs, "`") {
		return attrs
	}
	return "`" + attrs + "`"
}

// structFields возвращает поля, у которых есть собственный слот в структуре.
func structFields(m *ir.Message) []*ir.Field {
	var out []*ir.Field
	for _, f := range m.Fields {
		if f.Storage == ir.Custom && f.Custom.Kind == config.CustomDelegate {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (fg *FileGen) genStruct(m *ir.Message) {
	if m.IsExtensionSet() {
		fg.P("// ", m.GoName, " holds the extension fields of ", m.Extendee.Dotted(), ".")
	} else {
		fg.P("// ", m.GoName, " is the message ", m.Path.Dotted(), ".")
	}
	if m.Borrowed {
		fg.P("//")
		fg.P("// ", m.GoName, " aliases the decode buffer. Decode it from input that holds")
		fg.P("// each record in one chunk and keep the buffer alive while the value is used.")
	}
	fg.typeAttributes(m.TypeAttributes)
	fg.P("type ", m.GoName, " struct {")
	for _, f := range structFields(m) {
		fg.P(f.GoName, " ", fg.fieldType(f), " ", fieldTag(f.Attributes))
	}
	for _, o := range m.Oneofs {
		switch {
		case o.Custom == nil:
			fg.P(o.GoName, " ", oneofIface(m, o))
		case o.Custom.Kind == config.CustomType:
			fg.P(o.GoName, " ", fg.qualify(o.Custom.Target))
		}
	}
	if m.HazzerBits > 0 {
		fg.P("Has_ ", m.GoName, "_Hazzer")
	}
	if m.Unknown != "" {
		fg.P("Unknown_ ", fg.qualify(m.Unknown))
	}
	if m.Extendable {
		fg.P("Ext_ ", fg.micropb("ExtId"))
	}
	fg.P("}")
	fg.P()
}

// fieldInit - начальное значение поля в New<Msg>(): default из proto, контейнер
// с ёмкостью или конструктор вложенного сообщения. Второй результат - оператор,
// который надо выполнить после литерала (значения по умолчанию для шаблонных
// строк и байтов копируются в контейнер).
func (fg *FileGen) fieldInit(f *ir.Field, recv string) (string, string) {
	if f.Storage == ir.Repeated || f.Storage == ir.Map {
		return fg.containerCtor(f), ""
	}
	if f.Storage == ir.Custom || f.Presence == ir.OptionPresence {
		return "", ""
	}
	if f.Default != "" {
		return fg.defaultValue(f, recv)
	}
	return fg.valueInit(f.Type), ""
}

func (fg *FileGen) genNew(m *ir.Message) {
	type init struct{ name, expr string }
	var inits []init
	var stmts []string
	for _, f := range structFields(m) {
		expr, stmt := fg.fieldInit(f, "m")
		if expr != "" {
			inits = append(inits, init{f.GoName, expr})
		}
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

	fg.P("// New", m.GoName, " returns ", m.GoName, " with its default values.")
	fg.P("func New", m.GoName, "() ", m.GoName, " {")
	lit := m.GoName + "{}"
	if len(inits) > 0 {
		lit = m.GoName + "{"
	}
	if len(stmts) == 0 {
		fg.P("return ", lit)
	} else {
		fg.P("m := ", lit)
	}
	if len(inits) > 0 {
		for _, in := range inits {
			fg.P(in.name, ": ", in.expr, ",")
		}
		fg.P("}")
	}
	if len(stmts) > 0 {
		for _, s := range stmts {
			fg.P(s)
		}
		fg.P("return m")
	}
	fg.P("}")
	fg.P()
}

func (fg *FileGen) genReset(m *ir.Message) {
	fg.P("func (m *", m.GoName, ") Reset() {")
	fg.P("*m = New", m.GoName, "()")
	fg.P("}")
	fg.P()
}

func (fg *FileGen) genAccessors(m *ir.Message) {
	for _, f := range m.Fields {
		if f.Storage == ir.Custom {
			continue
		}
		fg.genFieldAccessors(m, f)
	}
}

func (fg *FileGen) genFieldAccessors(m *ir.Message, f *ir.Field) {
	recv := "func (m *" + m.GoName + ") "
	name := f.GoName
	typ := fg.valueType(f.Type)
	if f.Storage == ir.Repeated || f.Storage == ir.Map || f.Storage == ir.Single ||
		f.Presence == ir.Always {
		typ = fg.fieldType(f)
		fg.P(recv, "Get", name, "() ", typ, " {")
		fg.P("return m.", name)
		fg.P("}")
		fg.P()
		if m.NoAccessors {
			return
		}
		fg.P(recv, "Mut", name, "() *", typ, " {")
		fg.P("return &m.", name)
		fg.P("}")
		fg.P()
		fg.P(recv, "Set", name, "(v ", typ, ") {")
		fg.P("m.", name, " = v")
		fg.P("}")
		fg.P()
		fg.P(recv, "With", name, "(v ", typ, ") *", m.GoName, " {")
		fg.P("m.", name, " = v")
		fg.P("return m")
		fg.P("}")
		fg.P()
		return
	}

	switch {
	case f.Presence == ir.Hazzer:
		fg.P("// Get", name, " returns the value of ", f.Name, " and whether it is set.")
		fg.P(recv, "Get", name, "() (", typ, ", bool) {")
		fg.P("return m.", name, ", m.Has_.", name, "()")
		fg.P("}")
		fg.P()
		if m.NoAccessors {
			return
		}
		fg.P(recv, "Mut", name, "() *", typ, " {")
		fg.P("if !m.Has_.", name, "() {")
		fg.P("return nil")
		fg.P("}")
		fg.P("return &m.", name)
		fg.P("}")
		fg.P()
		fg.P(recv, "Set", name, "(v ", typ, ") {")
		fg.P("m.", name, " = v")
		fg.P("m.Has_.Set", name, "()")
		fg.P("}")
		fg.P()
		fg.P(recv, "Clear", name, "() {")
		fg.P("m.Has_.Clear", name, "()")
		fg.P("}")
		fg.P()
		fg.P(recv, "With", name, "(v ", typ, ") *", m.GoName, " {")
		fg.P("m.Set", name, "(v)")
		fg.P("return m")
		fg.P("}")
		fg.P()
		fg.P("// Take", name, " returns the value of ", f.Name, " and clears it.")
		fg.P(recv, "Take", name, "() (", typ, ", bool) {")
		fg.P("v, ok := m.", name, ", m.Has_.", name, "()")
		fg.P("m.Has_.Clear", name, "()")
		if init := fg.valueInit(f.Type); init != "" {
			fg.P("m.", name, " = ", init)
		} else {
			fg.P("var zero ", typ)
			fg.P("m.", name, " = zero")
		}
		fg.P("return v, ok")
		fg.P("}")
		fg.P()
	case f.Boxed:
		fg.P(recv, "Get", name, "() (", typ, ", bool) {")
		fg.P("if m.", name, " == nil {")
		fg.P("var zero ", typ)
		fg.P("return zero, false")
		fg.P("}")
		fg.P("return *m.", name, ", true")
		fg.P("}")
		fg.P()
		if m.NoAccessors {
			return
		}
		fg.P(recv, "Mut", name, "() *", typ, " {")
		fg.P("return m.", name)
		fg.P("}")
		fg.P()
		fg.P(recv, "Set", name, "(v ", typ, ") {")
		fg.P("m.", name, " = &v")
		fg.P("}")
		fg.P()
		fg.P(recv, "Clear", name, "() {")
		fg.P("m.", name, " = nil")
		fg.P("}")
		fg.P()
		fg.P(recv, "With", name, "(v ", typ, ") *", m.GoName, " {")
		fg.P("m.", name, " = &v")
		fg.P("return m")
		fg.P("}")
		fg.P()
	default:
		fg.P(recv, "Get", name, "() (", typ, ", bool) {")
		fg.P("return m.", name, ".Get()")
		fg.P("}")
		fg.P()
		if m.NoAccessors {
			return
		}
		fg.P(recv, "Mut", name, "() *", typ, " {")
		fg.P("return m.", name, ".Ptr()")
		fg.P("}")
		fg.P()
		fg.P(recv, "Set", name, "(v ", typ, ") {")
		fg.P("m.", name, ".Set(v)")
		fg.P("}")
		fg.P()
		fg.P(recv, "Clear", name, "() {")
		fg.P("m.", name, ".Clear()")
		fg.P("}")
		fg.P()
		fg.P(recv, "With", name, "(v ", typ, ") *", m.GoName, " {")
		fg.P("m.", name, ".Set(v)")
		fg.P("return m")
		fg.P("}")
		fg.P()
	}
}
