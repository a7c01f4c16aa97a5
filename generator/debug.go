package generator

import (
	"strconv"

	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

var jxWriters = map[ir.Kind]string{
	ir.KindDouble:   "Float64",
	ir.KindFloat:    "Float32",
	ir.KindInt32:    "Int32",
	ir.KindInt64:    "Int64",
	ir.KindUint32:   "UInt32",
	ir.KindUint64:   "UInt64",
	ir.KindSint32:   "Int32",
	ir.KindSint64:   "Int64",
	ir.KindFixed32:  "UInt32",
	ir.KindFixed64:  "UInt64",
	ir.KindSfixed32: "Int32",
	ir.KindSfixed64: "Int64",
	ir.KindBool:     "Bool",
}

// writeJX пишет одно значение v типа t в jx.Encoder e.
func (fg *FileGen) writeJX(t ir.Type, v string) {
	switch t.Kind {
	case ir.KindMessage:
		fg.P(v, ".MarshalJX(e)")
	case ir.KindEnum:
		if en := fg.g.Graph.Enum(t.Ref); en != nil && en.NoDebug {
			fg.P("e.Int32(int32(", v, "))")
			return
		}
		fg.P("e.Str(", v, ".String())")
	case ir.KindString:
		if t.Text.Kind == ir.Native {
			fg.P("e.Str(", v, ")")
			return
		}
		fg.P("e.Str(", v, ".String())")
	case ir.KindBytes:
		fg.P("e.Base64(", textBytes(t, v), ")")
	default:
		fg.P("e.", jxWriters[t.Kind], "(", wireValue(t, v), ")")
	}
}

// mapKey - строковое представление ключа map для имени поля JSON.
func (fg *FileGen) mapKey(t ir.Type, k string) string {
	switch {
	case t.Kind == ir.KindString:
		return k
	case t.Kind == ir.KindBool:
		return fg.std("strconv", "FormatBool") + "(" + k + ")"
	case t.Kind.Unsigned():
		return fg.std("strconv", "FormatUint") + "(uint64(" + k + "), 10)"
	}
	return fg.std("strconv", "FormatInt") + "(int64(" + k + "), 10)"
}

func (fg *FileGen) debugField(f *ir.Field) {
	lv := "m." + f.GoName
	key := strconv.Quote(f.Name)
	switch f.Storage {
	case ir.Custom:
		return
	case ir.Repeated:
		fg.P("e.FieldStart(", key, ")")
		fg.P("e.ArrStart()")
		fg.P("for _, v := range ", fg.elems(f, "m"), " {")
		fg.writeJX(f.Type, "v")
		fg.P("}")
		fg.P("e.ArrEnd()")
		return
	case ir.Map:
		fg.P("e.FieldStart(", key, ")")
		fg.P("e.ObjStart()")
		if f.Seq.Kind == ir.Template {
			fg.P("for k, v := range ", lv, ".All() {")
		} else {
			// порядок ключей фиксирован, чтобы вывод был стабильным
			fg.P("for _, k := range ", fg.std("slices", "Sorted"), "(", fg.std("maps", "Keys"), "(", lv, ")) {")
			fg.P("v := ", lv, "[k]")
		}
		fg.P("e.FieldStart(", fg.mapKey(*f.Key, "k"), ")")
		fg.writeJX(f.Type, "v")
		fg.P("}")
		fg.P("e.ObjEnd()")
		return
	}
	cond, val := presence(f, "m")
	if f.Storage == ir.Single {
		cond = ""
	}
	if cond != "" {
		fg.P("if ", cond, " {")
	}
	fg.P("e.FieldStart(", key, ")")
	fg.writeJX(f.Type, val)
	if cond != "" {
		fg.P("}")
	}
}

func (fg *FileGen) genDebug(m *ir.Message) {
	enc := fg.std(string(jxPkg), "Encoder")
	fg.P("// MarshalJX writes m as a JSON object for logs and debugging.")
	fg.P("func (m *", m.GoName, ") MarshalJX(e *", enc, ") {")
	fg.P("e.ObjStart()")
	for _, f := range m.Fields {
		fg.debugField(f)
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			continue
		}
		fg.P("switch v := m.", o.GoName, ".(type) {")
		for _, v := range o.Variants {
			fg.P("case *", variantType(m, v), ":")
			fg.P("e.FieldStart(", strconv.Quote(v.Name), ")")
			fg.writeJX(v.Type, "v."+v.GoName)
		}
		fg.P("}")
	}
	fg.P("e.ObjEnd()")
	fg.P("}")
	fg.P()
	fg.P("func (m *", m.GoName, ") String() string {")
	fg.P("var e ", enc)
	fg.P("m.MarshalJX(&e)")
	fg.P("return e.String()")
	fg.P("}")
	fg.P()
}
