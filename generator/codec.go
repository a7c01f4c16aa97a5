package generator

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

// addr возвращает адрес lvalue: "(*m.F)" -> "m.F", "m.F" -> "&m.F".
func addr(lv string) string {
	if strings.HasPrefix(lv, "(*") && strings.HasSuffix(lv, ")") {
		return lv[2 : len(lv)-1]
	}
	return "&" + lv
}

func tagSize(num int32) int {
	return protowire.SizeTag(protowire.Number(num))
}

func isScalar(t ir.Type) bool {
	return t.Kind.Packable()
}

func itoa32(n int32) string {
	return strconv.FormatInt(int64(n), 10)
}

// decodeCall - вызов Decoder, читающий строку, байты или сообщение по указателю p.
func (fg *FileGen) decodeCall(t ir.Type, p string) string {
	switch t.Kind {
	case ir.KindMessage:
		return "d.DecodeNested(" + p + ")"
	case ir.KindString:
		switch t.Text.Kind {
		case ir.Borrowed:
			return "d.DecodeBorrowed(" + p + ", true)"
		case ir.Template:
			return "d.DecodeString(" + p + ")"
		}
		return "d.DecodeString(" + fg.micropb("StringOf") + "(" + p + "))"
	case ir.KindBytes:
		switch t.Text.Kind {
		case ir.Borrowed:
			return "d.DecodeBorrowed(" + p + ", false)"
		case ir.Template:
			return "d.DecodeBytes(" + p + ")"
		}
		return "d.DecodeBytes(" + fg.micropb("BytesOf") + "(" + p + "))"
	}
	panic("decodeCall on scalar " + t.Kind.String())
}

// decodeScalar читает скаляр в переменную v и передаёт приведённое значение в assign.
func (fg *FileGen) decodeScalar(t ir.Type, assign string, post ...string) {
	fg.P("v, err := d.Decode", scalarMethods[t.Kind], "()")
	fg.P("if err != nil {")
	fg.P("return true, err")
	fg.P("}")
	v := "v"
	if narrowed(t) {
		v = fg.valueType(t) + "(v)"
	}
	fg.P(strings.ReplaceAll(assign, "$v", v))
	for _, s := range post {
		fg.P(s)
	}
	fg.P("return true, nil")
}

func (fg *FileGen) returnCall(call string, post ...string) {
	if len(post) == 0 {
		fg.P("return true, ", call)
		return
	}
	fg.P("if err := ", call, "; err != nil {")
	fg.P("return true, err")
	fg.P("}")
	for _, s := range post {
		fg.P(s)
	}
	fg.P("return true, nil")
}

// seqDst - выражение micropb.Seq или micropb.Map для контейнера поля.
func (fg *FileGen) seqDst(f *ir.Field, lv string) string {
	if f.Seq.Kind == ir.Template {
		return addr(lv)
	}
	if f.Storage == ir.Map {
		return fg.micropb("MapOf") + "(" + addr(lv) + ")"
	}
	return fg.micropb("SliceOf") + "(" + addr(lv) + ")"
}

// mapDecoder - функция DecodeMapEntry для ключа или значения типа t.
func (fg *FileGen) mapDecoder(t ir.Type) string {
	switch t.Kind {
	case ir.KindMessage:
		return fg.micropb("MapMessage") + "[" + fg.valueType(t) + "]"
	case ir.KindString, ir.KindBytes:
		if t.Text.Kind == ir.Native {
			if t.Kind == ir.KindString {
				return fg.micropb("MapString")
			}
			return fg.micropb("MapBytes")
		}
		return "func(d *" + fg.micropb("Decoder") + ", p *" + fg.valueType(t) + ") error {\nreturn " +
			fg.decodeCall(t, "p") + "\n}"
	}
	if narrowed(t) {
		return fg.micropb("MapWith") + "(" + fg.decodeFunc(t) + ")"
	}
	return fg.micropb("Map" + scalarMethods[t.Kind])
}

// customOwner возвращает поле структуры, которое держит обработчик с proto-именем name.
func customOwner(m *ir.Message, name string) string {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.GoName
		}
	}
	for _, o := range m.Oneofs {
		if o.Name == name {
			return o.GoName
		}
	}
	return name
}

// decodeHandler передаёт тег пользовательскому обработчику.
func (fg *FileGen) decodeHandler(recv, owner string) {
	fg.P("ok, err := ", recv, ".", owner, ".DecodeField(tag, d)")
	fg.P("if err != nil {")
	fg.P("return true, err")
	fg.P("}")
	fg.P("if !ok {")
	fg.P("return true, ", fg.micropb("ErrCustomField"))
	fg.P("}")
	fg.P("return true, nil")
}

func (fg *FileGen) handlerFor(m *ir.Message, c *config.CustomField, own string) string {
	if c.Kind == config.CustomDelegate {
		return customOwner(m, c.Target)
	}
	return own
}

// decodeCases пишет case-ветки switch tag.FieldNum() для полей и oneof сообщения.
func (fg *FileGen) decodeCases(m *ir.Message, recv string) {
	for _, f := range m.Fields {
		fg.P("case ", f.Number, ":")
		fg.decodeField(m, f, recv)
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			nums := make([]string, 0, len(o.Variants))
			for _, v := range o.Variants {
				nums = append(nums, itoa32(v.Number))
			}
			fg.P("case ", strings.Join(nums, ", "), ":")
			fg.decodeHandler(recv, fg.handlerFor(m, o.Custom, o.GoName))
			continue
		}
		for _, v := range o.Variants {
			fg.P("case ", v.Number, ":")
			fg.decodeVariant(m, o, v, recv)
		}
	}
}

func (fg *FileGen) decodeField(m *ir.Message, f *ir.Field, recv string) {
	lv := recv + "." + f.GoName
	t := f.Type
	switch f.Storage {
	case ir.Custom:
		fg.decodeHandler(recv, fg.handlerFor(m, f.Custom, f.GoName))
		return
	case ir.Repeated:
		dst := fg.seqDst(f, lv)
		if isScalar(t) {
			fn := fg.decodeFunc(t)
			fg.P("if tag.WireType() == ", fg.micropb("WireLen"), " {")
			fg.P("return true, ", fg.micropb("DecodePacked"), "(d, ", dst, ", ", fn, ")")
			fg.P("}")
			fg.P("return true, ", fg.micropb("DecodeRepeated"), "(d, ", dst, ", ", fn, ")")
			return
		}
		fg.P("return true, ", fg.micropb("DecodeRepeatedWith"), "(d, ", dst, ", func(v *", fg.valueType(t), ") error {")
		if init := fg.valueInit(t); init != "" {
			fg.P("*v = ", init)
		}
		fg.P("return ", fg.decodeCall(t, "v"))
		fg.P("})")
		return
	case ir.Map:
		fg.P("return true, ", fg.micropb("DecodeMapEntry"), "(d, ", fg.seqDst(f, lv), ", ",
			fg.zeroLiteral(*f.Key), ", ", fg.zeroLiteral(t), ", ",
			fg.mapDecoder(*f.Key), ", ", fg.mapDecoder(t), ")")
		return
	}

	switch {
	case f.Presence == ir.Hazzer:
		set := recv + ".Has_.Set" + f.GoName + "()"
		if isScalar(t) {
			fg.decodeScalar(t, lv+" = $v", set)
			return
		}
		if t.Kind == ir.KindMessage {
			// после ClearF в поле могли остаться старые данные
			fg.P("if !", recv, ".Has_.", f.GoName, "() {")
			fg.P(lv, " = ", fg.constructor(t.Ref))
			fg.P("}")
		}
		fg.returnCall(fg.decodeCall(t, addr(lv)), set)
	case f.Presence == ir.OptionPresence && f.Boxed:
		if isScalar(t) {
			fg.decodeScalar(t, "x := $v\n"+lv+" = &x")
			return
		}
		fg.P("if ", lv, " == nil {")
		fg.emitVar("v", t)
		fg.P(lv, " = &v")
		fg.P("}")
		fg.returnCall(fg.decodeCall(t, lv))
	case f.Presence == ir.OptionPresence:
		if isScalar(t) {
			fg.decodeScalar(t, lv+".Set($v)")
			return
		}
		fg.P("if !", lv, ".Valid {")
		fg.emitVar("v", t)
		fg.P(lv, ".Set(v)")
		fg.P("}")
		fg.returnCall(fg.decodeCall(t, addr(lv+".Value")))
	default:
		if isScalar(t) {
			fg.decodeScalar(t, lv+" = $v")
			return
		}
		fg.returnCall(fg.decodeCall(t, addr(lv)))
	}
}

func (fg *FileGen) decodeVariant(m *ir.Message, o *ir.Oneof, v *ir.Field, recv string) {
	wrapper := variantType(m, v)
	slot := recv + "." + o.GoName
	if isScalar(v.Type) {
		fg.decodeScalar(v.Type, slot+" = &"+wrapper+"{"+v.GoName+": $v}")
		return
	}
	fg.P("w, ok := ", slot, ".(*", wrapper, ")")
	fg.P("if !ok {")
	if init := fg.valueInit(v.Type); init != "" {
		fg.P("w = &", wrapper, "{", v.GoName, ": ", init, "}")
	} else {
		fg.P("w = &", wrapper, "{}")
	}
	fg.P(slot, " = w")
	fg.P("}")
	fg.P("return true, ", fg.decodeCall(v.Type, "&w."+v.GoName))
}

// decodeFallback пишет обработку тегов, не попавших в switch.
func (fg *FileGen) decodeFallback(m *ir.Message, recv string) {
	ext := fg.micropb("DecodeExt") + "(d, &" + recv + ".Ext_, " + strconv.Quote(m.FullName()) + ", tag)"
	switch {
	case m.Extendable && m.Unknown != "":
		fg.P("if ok, err := ", ext, "; ok || err != nil {")
		fg.P("return ok, err")
		fg.P("}")
		fg.P("return ", recv, ".Unknown_.DecodeField(tag, d)")
	case m.Extendable:
		fg.P("return ", ext)
	case m.Unknown != "":
		fg.P("return ", recv, ".Unknown_.DecodeField(tag, d)")
	default:
		fg.P("return false, nil")
	}
}

func hasCases(m *ir.Message) bool {
	return len(m.Fields) > 0 || len(m.Oneofs) > 0
}

func (fg *FileGen) genDecode(m *ir.Message) {
	fg.P("func (m *", m.GoName, ") DecodeMessage(d *", fg.micropb("Decoder"), ", length int) error {")
	fg.P("return d.DecodeFields(length, func(tag ", fg.micropb("Tag"), ") (bool, error) {")
	if hasCases(m) {
		fg.P("switch tag.FieldNum() {")
		fg.decodeCases(m, "m")
		fg.P("}")
	}
	fg.decodeFallback(m, "m")
	fg.P("})")
	fg.P("}")
	fg.P()
}

// nonZero - условие записи поля с неявным присутствием.
func nonZero(t ir.Type, v string) string {
	switch t.Kind {
	case ir.KindBool:
		return v
	case ir.KindString, ir.KindBytes:
		switch {
		case t.Text.Kind == ir.Template:
			return v + ".Len() != 0"
		case t.Kind == ir.KindString && t.Text.Kind == ir.Native:
			return v + ` != ""`
		}
		return "len(" + v + ") != 0"
	}
	return v + " != 0"
}

// presence возвращает условие присутствия поля и lvalue его значения.
func presence(f *ir.Field, recv string) (cond, val string) {
	lv := recv + "." + f.GoName
	switch {
	case f.Storage == ir.Single:
		if f.Type.Kind == ir.KindMessage {
			return "", lv
		}
		return nonZero(f.Type, lv), lv
	case f.Presence == ir.Hazzer:
		return recv + ".Has_." + f.GoName + "()", lv
	case f.Presence == ir.OptionPresence && f.Boxed:
		return lv + " != nil", "(*" + lv + ")"
	case f.Presence == ir.OptionPresence:
		return lv + ".Valid", lv + ".Value"
	}
	return "", lv
}

func (fg *FileGen) encodeCall(t ir.Type, v string) string {
	switch t.Kind {
	case ir.KindMessage:
		return "e.EncodeNested(" + addr(v) + ")"
	case ir.KindString:
		if t.Text.Kind == ir.Native {
			return "e.EncodeString(" + v + ")"
		}
		return "e.EncodeBytes(" + textBytes(t, v) + ")"
	case ir.KindBytes:
		return "e.EncodeBytes(" + textBytes(t, v) + ")"
	}
	return "e.Encode" + scalarMethods[t.Kind] + "(" + wireValue(t, v) + ")"
}

var sizeFuncs = map[ir.Kind]string{
	ir.KindInt32:  "SizeOfInt32",
	ir.KindInt64:  "SizeOfInt64",
	ir.KindUint32: "SizeOfVarint32",
	ir.KindUint64: "SizeOfVarint64",
	ir.KindSint32: "SizeOfSint32",
	ir.KindSint64: "SizeOfSint64",
	ir.KindEnum:   "SizeOfInt32",
}

// fixedWidth - длина значения фиксированного размера, 0 для переменной.
func fixedWidth(k ir.Kind) int {
	switch k {
	case ir.KindBool:
		return 1
	case ir.KindFloat, ir.KindFixed32, ir.KindSfixed32:
		return 4
	case ir.KindDouble, ir.KindFixed64, ir.KindSfixed64:
		return 8
	}
	return 0
}

// sizeExpr - длина записи поля с тегом.
func (fg *FileGen) sizeExpr(num int32, t ir.Type, v, reg string) string {
	ts := tagSize(num)
	if w := fixedWidth(t.Kind); w != 0 {
		return strconv.Itoa(ts + w)
	}
	prefix := strconv.Itoa(ts) + " + "
	lenRecord := fg.micropb("SizeOfLenRecord")
	switch t.Kind {
	case ir.KindMessage:
		return prefix + lenRecord + "(" + v + ".ComputeSizeWith(" + reg + "))"
	case ir.KindString, ir.KindBytes:
		if t.Text.Kind == ir.Template {
			return prefix + lenRecord + "(" + v + ".Len())"
		}
		return prefix + lenRecord + "(len(" + v + "))"
	}
	return prefix + fg.micropb(sizeFuncs[t.Kind]) + "(" + wireValue(t, v) + ")"
}

func (fg *FileGen) encodeValue(num int32, t ir.Type, v string) {
	fg.P("if err := e.EncodeTag(", fg.micropb("NewTag"), "(", num, ", ", fg.micropb(wireType(t.Kind)), ")); err != nil {")
	fg.P("return err")
	fg.P("}")
	fg.P("if err := ", fg.encodeCall(t, v), "; err != nil {")
	fg.P("return err")
	fg.P("}")
}

func (fg *FileGen) encodeErr(call string) {
	fg.P("if err := ", call, "; err != nil {")
	fg.P("return err")
	fg.P("}")
}

func (fg *FileGen) elems(f *ir.Field, recv string) string {
	if f.Seq.Kind == ir.Template {
		return recv + "." + f.GoName + ".Slice()"
	}
	return recv + "." + f.GoName
}

func (fg *FileGen) mapRange(f *ir.Field, recv string) string {
	if f.Seq.Kind == ir.Template {
		return "for k, v := range " + recv + "." + f.GoName + ".All() {"
	}
	return "for k, v := range " + recv + "." + f.GoName + " {"
}

// encodeFields пишет тело EncodeMessage без завершающего return.
func (fg *FileGen) encodeFields(m *ir.Message, recv string) {
	for _, f := range m.Fields {
		switch f.Storage {
		case ir.Custom:
			if f.Custom.Kind == config.CustomType {
				fg.encodeErr(recv + "." + f.GoName + ".EncodeFields(e)")
			}
			continue
		case ir.Repeated:
			fn := "EncodeRepeated"
			if f.Packed {
				fn = "EncodePacked"
			}
			fg.encodeErr(fg.micropb(fn) + "(e, " + itoa32(f.Number) + ", " + fg.elems(f, recv) + ", " + fg.codec(f.Type, "e.Registry") + ")")
			continue
		case ir.Map:
			fg.P(fg.mapRange(f, recv))
			fg.encodeErr(fg.micropb("EncodeMapEntry") + "(e, " + itoa32(f.Number) + ", k, v, " +
				fg.codec(*f.Key, "e.Registry") + ", " + fg.codec(f.Type, "e.Registry") + ")")
			fg.P("}")
			continue
		}
		cond, val := presence(f, recv)
		if cond != "" {
			fg.P("if ", cond, " {")
		}
		fg.encodeValue(f.Number, f.Type, val)
		if cond != "" {
			fg.P("}")
		}
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			if o.Custom.Kind == config.CustomType {
				fg.encodeErr(recv + "." + o.GoName + ".EncodeFields(e)")
			}
			continue
		}
		fg.P("switch v := ", recv, ".", o.GoName, ".(type) {")
		for _, v := range o.Variants {
			fg.P("case *", variantType(m, v), ":")
			fg.encodeValue(v.Number, v.Type, "v."+v.GoName)
		}
		fg.P("}")
	}
	if m.Unknown != "" {
		fg.encodeErr(recv + ".Unknown_.EncodeFields(e)")
	}
}

func (fg *FileGen) genEncode(m *ir.Message) {
	fg.P("func (m *", m.GoName, ") EncodeMessage(e *", fg.micropb("Encoder"), ") error {")
	fg.encodeFields(m, "m")
	if m.Extendable {
		fg.P("return e.EncodeExt(m.Ext_)")
	} else {
		fg.P("return nil")
	}
	fg.P("}")
	fg.P()
}

// sizeFields пишет накопление n для ComputeSizeWith.
func (fg *FileGen) sizeFields(m *ir.Message, recv, reg string) {
	for _, f := range m.Fields {
		switch f.Storage {
		case ir.Custom:
			if f.Custom.Kind == config.CustomType {
				fg.P("n += ", recv, ".", f.GoName, ".ComputeFieldsSize()")
			}
			continue
		case ir.Repeated:
			fn := "SizeOfRepeated"
			if f.Packed {
				fn = "SizeOfPacked"
			}
			fg.P("n += ", fg.micropb(fn), "(", f.Number, ", ", fg.elems(f, recv), ", ", fg.codec(f.Type, reg), ")")
			continue
		case ir.Map:
			fg.P(fg.mapRange(f, recv))
			fg.P("n += ", fg.micropb("SizeOfMapEntry"), "(", f.Number, ", k, v, ",
				fg.codec(*f.Key, reg), ", ", fg.codec(f.Type, reg), ")")
			fg.P("}")
			continue
		}
		cond, val := presence(f, recv)
		if cond != "" {
			fg.P("if ", cond, " {")
		}
		fg.P("n += ", fg.sizeExpr(f.Number, f.Type, val, reg))
		if cond != "" {
			fg.P("}")
		}
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			if o.Custom.Kind == config.CustomType {
				fg.P("n += ", recv, ".", o.GoName, ".ComputeFieldsSize()")
			}
			continue
		}
		fg.P("switch v := ", recv, ".", o.GoName, ".(type) {")
		for _, v := range o.Variants {
			fg.P("case *", variantType(m, v), ":")
			fg.P("n += ", fg.sizeExpr(v.Number, v.Type, "v."+v.GoName, reg))
		}
		fg.P("}")
	}
	if m.Unknown != "" {
		fg.P("n += ", recv, ".Unknown_.ComputeFieldsSize()")
	}
}

func (fg *FileGen) genSize(m *ir.Message) {
	fg.P("func (m *", m.GoName, ") ComputeSize() int {")
	fg.P("return m.ComputeSizeWith(nil)")
	fg.P("}")
	fg.P()
	fg.P("func (m *", m.GoName, ") ComputeSizeWith(reg ", fg.micropb("ExtensionRegistry"), ") int {")
	fg.P("n := 0")
	fg.sizeFields(m, "m", "reg")
	if m.Extendable {
		fg.P("n += ", fg.micropb("SizeOfExt"), "(reg, m.Ext_)")
	}
	fg.P("return n")
	fg.P("}")
	fg.P()
}

func (fg *FileGen) genMaxSize(m *ir.Message) {
	if m.MaxSize.Bounded {
		fg.P("const ", m.GoName, "_MaxSize = ", m.MaxSize.N)
		fg.P()
	}
	fg.P("func (m *", m.GoName, ") MaxSize() (int, bool) {")
	if m.MaxSize.Bounded {
		fg.P("return ", m.GoName, "_MaxSize, true")
	} else {
		fg.P("return 0, false")
	}
	fg.P("}")
	fg.P()
}
