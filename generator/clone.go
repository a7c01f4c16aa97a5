package generator

import (
	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

// cloneExpr - глубокая копия значения v, "" если хватает присваивания.
func (fg *FileGen) cloneExpr(t ir.Type, v string) string {
	switch t.Kind {
	case ir.KindMessage:
		return v + ".Clone()"
	case ir.KindString, ir.KindBytes:
		switch t.Text.Kind {
		case ir.Template:
			return fg.micropb("CloneOf") + "(" + v + ")"
		case ir.Native:
			if t.Kind == ir.KindBytes {
				return fg.std("bytes", "Clone") + "(" + v + ")"
			}
		}
	}
	return ""
}

func (fg *FileGen) cloneField(f *ir.Field) {
	src, dst := "m."+f.GoName, "c."+f.GoName
	t := f.Type
	switch f.Storage {
	case ir.Custom:
		if f.Custom.Kind == config.CustomType {
			fg.P(dst, " = ", fg.micropb("CloneOf"), "(", src, ")")
		}
		return
	case ir.Repeated:
		deep := fg.cloneExpr(t, src+"[i]")
		switch {
		case f.Seq.Kind == ir.Template:
			fg.P(dst, " = ", fg.micropb("CloneOf"), "(", src, ")")
			if deep != "" {
				fg.P("for i, v := range ", src, ".Slice() {")
				fg.P(dst, ".Slice()[i] = ", fg.cloneExpr(t, "v"))
				fg.P("}")
			}
		case deep == "":
			fg.P(dst, " = ", fg.std("slices", "Clone"), "(", src, ")")
		default:
			fg.P("if ", src, " != nil {")
			fg.P(dst, " = make(", fg.fieldType(f), ", len(", src, "))")
			fg.P("for i := range ", src, " {")
			fg.P(dst, "[i] = ", deep)
			fg.P("}")
			fg.P("}")
		}
		return
	case ir.Map:
		deep := fg.cloneExpr(t, "v")
		switch {
		case f.Seq.Kind == ir.Template:
			fg.P(dst, " = ", fg.micropb("CloneOf"), "(", src, ")")
			if deep != "" {
				fg.P("for k, v := range ", src, ".All() {")
				fg.P("_ = ", dst, ".Insert(k, ", deep, ")")
				fg.P("}")
			}
		case deep == "":
			fg.P(dst, " = ", fg.std("maps", "Clone"), "(", src, ")")
		default:
			fg.P("if ", src, " != nil {")
			fg.P(dst, " = make(", fg.fieldType(f), ", len(", src, "))")
			fg.P("for k, v := range ", src, " {")
			fg.P(dst, "[k] = ", deep)
			fg.P("}")
			fg.P("}")
		}
		return
	}

	switch {
	case f.Boxed:
		fg.P("if ", src, " != nil {")
		if deep := fg.cloneExpr(t, "(*"+src+")"); deep != "" {
			fg.P("v := ", deep)
		} else {
			fg.P("v := *", src)
		}
		fg.P(dst, " = &v")
		fg.P("}")
	case f.Presence == ir.OptionPresence:
		if deep := fg.cloneExpr(t, src+".Value"); deep != "" {
			fg.P("if ", src, ".Valid {")
			fg.P(dst, ".Value = ", deep)
			fg.P("}")
		}
	default:
		if deep := fg.cloneExpr(t, src); deep != "" {
			fg.P(dst, " = ", deep)
		}
	}
}

func (fg *FileGen) genClone(m *ir.Message) {
	fg.P("// Clone returns a deep copy of m.")
	if m.Extendable {
		fg.P("// The copy carries no extension data.")
	}
	fg.P("func (m *", m.GoName, ") Clone() ", m.GoName, " {")
	fg.P("c := *m")
	for _, f := range m.Fields {
		fg.cloneField(f)
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			if o.Custom.Kind == config.CustomType {
				fg.P("c.", o.GoName, " = ", fg.micropb("CloneOf"), "(m.", o.GoName, ")")
			}
			continue
		}
		fg.P("switch v := m.", o.GoName, ".(type) {")
		for _, v := range o.Variants {
			val := "v." + v.GoName
			if deep := fg.cloneExpr(v.Type, val); deep != "" {
				val = deep
			}
			fg.P("case *", variantType(m, v), ":")
			fg.P("c.", o.GoName, " = &", variantType(m, v), "{", v.GoName, ": ", val, "}")
		}
		fg.P("}")
	}
	if m.Unknown != "" {
		fg.P("c.Unknown_ = ", fg.micropb("CloneOf"), "(m.Unknown_)")
	}
	if m.Extendable {
		fg.P("c.Ext_ = 0")
	}
	fg.P("return c")
	fg.P("}")
	fg.P()
}

// neqExpr - условие неравенства значений a и b.
func (fg *FileGen) neqExpr(t ir.Type, a, b string) string {
	switch t.Kind {
	case ir.KindMessage:
		return "!" + a + ".Equal(" + addr(b) + ")"
	case ir.KindString, ir.KindBytes:
		if t.Kind == ir.KindString && t.Text.Kind == ir.Native {
			return a + " != " + b
		}
		return "!" + fg.std("bytes", "Equal") + "(" + textBytes(t, a) + ", " + textBytes(t, b) + ")"
	}
	return a + " != " + b
}

// plainEq сообщает, что значения типа сравниваются оператором ==.
func plainEq(t ir.Type) bool {
	switch t.Kind {
	case ir.KindMessage, ir.KindBytes:
		return false
	case ir.KindString:
		return t.Text.Kind == ir.Native
	}
	return true
}

func (fg *FileGen) eqFunc(t ir.Type) string {
	typ := fg.valueType(t)
	return "func(x, y " + typ + ") bool {\nreturn !(" + fg.neqExpr(t, "x", "y") + ")\n}"
}

func (fg *FileGen) equalField(f *ir.Field) {
	a, b := "m."+f.GoName, "o."+f.GoName
	t := f.Type
	switch f.Storage {
	case ir.Custom:
		return
	case ir.Repeated:
		ea, eb := fg.elems(f, "m"), fg.elems(f, "o")
		if plainEq(t) {
			fg.P("if !", fg.std("slices", "Equal"), "(", ea, ", ", eb, ") {")
		} else {
			fg.P("if !", fg.std("slices", "EqualFunc"), "(", ea, ", ", eb, ", ", fg.eqFunc(t), ") {")
		}
	case ir.Map:
		switch {
		case f.Seq.Kind == ir.Template:
			fg.P("if !", fg.micropb("MapEqualFunc"), "[", fg.valueType(*f.Key), ", ", fg.valueType(t), "](&", a, ", &", b, ", ", fg.eqFunc(t), ") {")
		case plainEq(t):
			fg.P("if !", fg.std("maps", "Equal"), "(", a, ", ", b, ") {")
		default:
			fg.P("if !", fg.std("maps", "EqualFunc"), "(", a, ", ", b, ", ", fg.eqFunc(t), ") {")
		}
	default:
		switch {
		case f.Storage == ir.Single || f.Presence == ir.Always:
			fg.P("if ", fg.neqExpr(t, a, b), " {")
		case f.Presence == ir.Hazzer:
			ha, hb := "m.Has_."+f.GoName+"()", "o.Has_."+f.GoName+"()"
			fg.P("if ", ha, " != ", hb, " || ", ha, " && ", fg.neqExpr(t, a, b), " {")
		case f.Boxed:
			fg.P("if (", a, " == nil) != (", b, " == nil) || ", a, " != nil && ", fg.neqExpr(t, "(*"+a+")", "(*"+b+")"), " {")
		default:
			fg.P("if ", a, ".Valid != ", b, ".Valid || ", a, ".Valid && ", fg.neqExpr(t, a+".Value", b+".Value"), " {")
		}
	}
	fg.P("return false")
	fg.P("}")
}

func (fg *FileGen) genEqual(m *ir.Message) {
	fg.P("// Equal reports whether m and o hold the same field values. Custom fields,")
	fg.P("// unknown fields and extensions are not compared.")
	fg.P("func (m *", m.GoName, ") Equal(o *", m.GoName, ") bool {")
	fg.P("if m == nil || o == nil {")
	fg.P("return m == o")
	fg.P("}")
	for _, f := range m.Fields {
		fg.equalField(f)
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			continue
		}
		fg.P("switch v := m.", o.GoName, ".(type) {")
		fg.P("case nil:")
		fg.P("if o.", o.GoName, " != nil {")
		fg.P("return false")
		fg.P("}")
		for _, v := range o.Variants {
			fg.P("case *", variantType(m, v), ":")
			fg.P("w, ok := o.", o.GoName, ".(*", variantType(m, v), ")")
			fg.P("if !ok || ", fg.neqExpr(v.Type, "v."+v.GoName, "w."+v.GoName), " {")
			fg.P("return false")
			fg.P("}")
		}
		fg.P("}")
	}
	fg.P("return true")
	fg.P("}")
	fg.P()
}
