package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

var wireKinds = map[ir.Kind]string{
	ir.KindDouble:   "float64",
	ir.KindFloat:    "float32",
	ir.KindInt32:    "int32",
	ir.KindInt64:    "int64",
	ir.KindUint32:   "uint32",
	ir.KindUint64:   "uint64",
	ir.KindSint32:   "int32",
	ir.KindSint64:   "int64",
	ir.KindFixed32:  "uint32",
	ir.KindFixed64:  "uint64",
	ir.KindSfixed32: "int32",
	ir.KindSfixed64: "int64",
	ir.KindBool:     "bool",
}

// scalarMethods - суффикс методов Decoder/Encoder и имена codec-переменных
var scalarMethods = map[ir.Kind]string{
	ir.KindDouble:   "Double",
	ir.KindFloat:    "Float",
	ir.KindInt32:    "Int32",
	ir.KindInt64:    "Int64",
	ir.KindUint32:   "Uint32",
	ir.KindUint64:   "Uint64",
	ir.KindSint32:   "Sint32",
	ir.KindSint64:   "Sint64",
	ir.KindFixed32:  "Fixed32",
	ir.KindFixed64:  "Fixed64",
	ir.KindSfixed32: "Sfixed32",
	ir.KindSfixed64: "Sfixed64",
	ir.KindBool:     "Bool",
	ir.KindEnum:     "Int32",
}

func intType(size config.IntSize, unsigned bool) string {
	if unsigned {
		return "uint" + strconv.Itoa(int(size))
	}
	return "int" + strconv.Itoa(int(size))
}

// qualifiedRe находит в шаблоне токены вида importpath.Name
var qualifiedRe = regexp.MustCompile(`((?:[\w.\-]+/)*[\w\-]+)\.([A-Z]\w*)`)

// qualify переписывает ссылки на пакеты в шаблоне типа через QualifiedGoIdent,
// чтобы импорты попали в файл. Пакет "micropb" - это рантайм.
func (fg *FileGen) qualify(expr string) string {
	return qualifiedRe.ReplaceAllStringFunc(expr, func(tok string) string {
		m := qualifiedRe.FindStringSubmatch(tok)
		path := protogen.GoImportPath(m[1])
		if m[1] == "micropb" {
			path = micropbPkg
		}
		return fg.out.QualifiedGoIdent(protogen.GoIdent{GoName: m[2], GoImportPath: path})
	})
}

func (fg *FileGen) micropb(name string) string {
	return fg.out.QualifiedGoIdent(protogen.GoIdent{GoName: name, GoImportPath: micropbPkg})
}

func (fg *FileGen) std(pkg, name string) string {
	return fg.out.QualifiedGoIdent(protogen.GoIdent{GoName: name, GoImportPath: protogen.GoImportPath(pkg)})
}

func (fg *FileGen) typeIdent(ref protopath.Path, goName string) string {
	path, ok := fg.g.imports[ref.String()]
	if !ok {
		path = fg.file.GoImportPath
	}
	return fg.out.QualifiedGoIdent(protogen.GoIdent{GoName: goName, GoImportPath: path})
}

func (fg *FileGen) messageIdent(ref protopath.Path) string {
	m := fg.g.Graph.Message(ref)
	if m == nil {
		panic(fmt.Sprintf("message %s is not in the graph", ref))
	}
	return fg.typeIdent(ref, m.GoName)
}

func (fg *FileGen) enumIdent(ref protopath.Path) string {
	e := fg.g.Graph.Enum(ref)
	if e == nil {
		panic(fmt.Sprintf("enum %s is not in the graph", ref))
	}
	return fg.typeIdent(ref, e.GoName)
}

// constructor возвращает выражение New<Msg>() для типа сообщения
func (fg *FileGen) constructor(ref protopath.Path) string {
	m := fg.g.Graph.Message(ref)
	return fg.typeIdent(ref, "New"+m.GoName) + "()"
}

// expand подставляет $T, $K, $V и $N в шаблон контейнера.
func (fg *FileGen) expand(tmpl string, c ir.Container, elem ...string) string {
	s := fg.qualify(tmpl)
	r := []string{"$N", strconv.Itoa(c.Cap)}
	switch len(elem) {
	case 1:
		r = append(r, "$T", elem[0])
	case 2:
		r = append(r, "$K", elem[0], "$V", elem[1])
	}
	return strings.NewReplacer(r...).Replace(s)
}

// valueType - Go-тип одного значения поля (элемента для repeated/map).
func (fg *FileGen) valueType(t ir.Type) string {
	switch t.Kind {
	case ir.KindEnum:
		return fg.enumIdent(t.Ref)
	case ir.KindMessage:
		return fg.messageIdent(t.Ref)
	case ir.KindString, ir.KindBytes:
		switch t.Text.Kind {
		case ir.Template:
			return fg.expand(t.Text.Type, t.Text)
		case ir.Borrowed:
			if t.Kind == ir.KindString {
				return fg.micropb("BorrowedString")
			}
			return fg.micropb("BorrowedBytes")
		}
		if t.Kind == ir.KindString {
			return "string"
		}
		return "[]byte"
	}
	if t.IntSize != 0 {
		return intType(t.IntSize, t.Kind.Unsigned())
	}
	return wireKinds[t.Kind]
}

// narrowed сообщает, что Go-тип значения отличается от типа Decoder/Encoder.
func narrowed(t ir.Type) bool {
	return t.Kind == ir.KindEnum || t.IntSize != 0
}

// fieldType - Go-тип поля в структуре.
func (fg *FileGen) fieldType(f *ir.Field) string {
	switch f.Storage {
	case ir.Custom:
		return fg.qualify(f.Custom.Target)
	case ir.Repeated:
		elem := fg.valueType(f.Type)
		if f.Seq.Kind == ir.Template {
			return fg.expand(f.Seq.Type, f.Seq, elem)
		}
		return "[]" + elem
	case ir.Map:
		k, v := fg.valueType(*f.Key), fg.valueType(f.Type)
		if f.Seq.Kind == ir.Template {
			return fg.expand(f.Seq.Type, f.Seq, k, v)
		}
		return "map[" + k + "]" + v
	case ir.Optional:
		if f.Presence == ir.OptionPresence {
			if f.Boxed {
				return "*" + fg.valueType(f.Type)
			}
			return fg.micropb("Option") + "[" + fg.valueType(f.Type) + "]"
		}
	}
	return fg.valueType(f.Type)
}

// containerCtor - выражение пустого контейнера поля, "" если подходит нулевое значение.
func (fg *FileGen) containerCtor(f *ir.Field) string {
	switch f.Storage {
	case ir.Repeated:
		if f.Seq.Kind == ir.Template && f.Seq.Ctor != "" {
			return fg.expand(f.Seq.Ctor, f.Seq, fg.valueType(f.Type))
		}
	case ir.Map:
		if f.Seq.Kind == ir.Template && f.Seq.Ctor != "" {
			return fg.expand(f.Seq.Ctor, f.Seq, fg.valueType(*f.Key), fg.valueType(f.Type))
		}
	}
	return ""
}

// valueInit - выражение начального значения одного элемента, "" для нулевого.
func (fg *FileGen) valueInit(t ir.Type) string {
	switch t.Kind {
	case ir.KindMessage:
		return fg.constructor(t.Ref)
	case ir.KindString, ir.KindBytes:
		if t.Text.Kind == ir.Template && t.Text.Ctor != "" {
			return fg.expand(t.Text.Ctor, t.Text)
		}
	}
	return ""
}

// zeroLiteral - литерал начального значения ключа или значения map.
func (fg *FileGen) zeroLiteral(t ir.Type) string {
	if init := fg.valueInit(t); init != "" {
		return init
	}
	switch t.Kind {
	case ir.KindBool:
		return "false"
	case ir.KindString, ir.KindBytes:
		switch t.Text.Kind {
		case ir.Native:
			if t.Kind == ir.KindString {
				return `""`
			}
			return "nil"
		case ir.Borrowed:
			return "nil"
		}
		return fg.valueType(t) + "{}"
	case ir.KindMessage:
		return fg.valueType(t) + "{}"
	}
	return "0"
}

// emitVar объявляет переменную name с начальным значением типа t.
func (fg *FileGen) emitVar(name string, t ir.Type) {
	if init := fg.valueInit(t); init != "" {
		fg.P(name, " := ", init)
		return
	}
	fg.P("var ", name, " ", fg.valueType(t))
}

func wireType(k ir.Kind) string {
	switch k {
	case ir.KindDouble, ir.KindFixed64, ir.KindSfixed64:
		return "WireI64"
	case ir.KindFloat, ir.KindFixed32, ir.KindSfixed32:
		return "WireI32"
	case ir.KindString, ir.KindBytes, ir.KindMessage:
		return "WireLen"
	}
	return "WireVarint"
}

// decodeFunc - метод-выражение Decoder, возвращающий значение типа t.
func (fg *FileGen) decodeFunc(t ir.Type) string {
	fn := "(*" + fg.micropb("Decoder") + ").Decode" + scalarMethods[t.Kind]
	if narrowed(t) {
		return fg.micropb("NarrowDecode") + "[" + fg.valueType(t) + "](" + fn + ")"
	}
	return fn
}

// codec - значение micropb.Codec для элементов repeated и map.
func (fg *FileGen) codec(t ir.Type, reg string) string {
	switch t.Kind {
	case ir.KindMessage:
		return fg.micropb("MessageCodec") + "[" + fg.valueType(t) + "](" + reg + ")"
	case ir.KindEnum:
		return fg.micropb("EnumCodec") + "[" + fg.valueType(t) + "]()"
	case ir.KindString, ir.KindBytes:
		switch t.Text.Kind {
		case ir.Template:
			if t.Kind == ir.KindString {
				return fg.micropb("TextCodec") + "[" + fg.valueType(t) + "]()"
			}
			return fg.micropb("BytesSeqCodec") + "[" + fg.valueType(t) + "]()"
		case ir.Borrowed:
			return fg.micropb("BorrowedCodec") + "[" + fg.valueType(t) + "]()"
		}
		if t.Kind == ir.KindString {
			return fg.micropb("StringCodec")
		}
		return fg.micropb("BytesCodec")
	}
	c := fg.micropb(scalarMethods[t.Kind] + "Codec")
	if t.IntSize != 0 {
		return fg.micropb("Narrow") + "[" + fg.valueType(t) + "](" + c + ")"
	}
	return c
}

// wireValue приводит значение к типу метода Encoder/SizeOf.
func wireValue(t ir.Type, v string) string {
	if narrowed(t) {
		if t.Kind == ir.KindEnum {
			return "int32(" + v + ")"
		}
		return wireKinds[t.Kind] + "(" + v + ")"
	}
	return v
}

// textBytes возвращает []byte-представление строкового или байтового значения.
func textBytes(t ir.Type, v string) string {
	if t.Text.Kind != ir.Template {
		return v
	}
	if t.Kind == ir.KindString {
		return v + ".Bytes()"
	}
	return v + ".Slice()"
}
