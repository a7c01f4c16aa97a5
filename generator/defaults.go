package generator

import (
	"strconv"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"

	"github.com/yaroher/protoc-gen-go-micropb/ir"
)

func (fg *FileGen) fail(f *ir.Field, err error) {
	fg.err = multierr.Append(fg.err, errors.Wrapf(err, "default of %s", f.Name))
}

// defaultValue переводит proto2 default_value в Go-выражение. Для шаблонных
// строк и байтов значение копируется в контейнер отдельным оператором и
// обрезается по его ёмкости.
func (fg *FileGen) defaultValue(f *ir.Field, recv string) (string, string) {
	t := f.Type
	raw := f.Default
	switch t.Kind {
	case ir.KindString, ir.KindBytes:
		lit := strconv.Quote(raw)
		if t.Kind == ir.KindBytes {
			b, err := unescapeC(raw)
			if err != nil {
				fg.fail(f, err)
				return fg.valueInit(t), ""
			}
			lit = goBytesLiteral(b)
		}
		switch t.Text.Kind {
		case ir.Template:
			lv := recv + "." + f.GoName
			return fg.valueInit(t), lv + ".SetLen(copy(" + lv + ".Spare(), " + lit + "))"
		case ir.Borrowed:
			return fg.valueType(t) + "(" + lit + ")", ""
		}
		if t.Kind == ir.KindBytes {
			return "[]byte(" + lit + ")", ""
		}
		return lit, ""
	case ir.KindEnum:
		e := fg.g.Graph.Enum(t.Ref)
		for _, v := range e.Values {
			if v.Name == raw {
				return fg.typeIdent(t.Ref, v.GoName), ""
			}
		}
		fg.fail(f, errors.Errorf("enum %s has no value %s", t.Ref, raw))
		return "", ""
	case ir.KindBool:
		if raw != "true" && raw != "false" {
			fg.fail(f, errors.Errorf("bad bool %q", raw))
			return "", ""
		}
		return raw, ""
	case ir.KindFloat, ir.KindDouble:
		var expr string
		switch raw {
		case "inf":
			expr = fg.std("math", "Inf") + "(1)"
		case "-inf":
			expr = fg.std("math", "Inf") + "(-1)"
		case "nan":
			expr = fg.std("math", "NaN") + "()"
		default:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				fg.fail(f, err)
				return "", ""
			}
			return raw, ""
		}
		if t.Kind == ir.KindFloat {
			expr = "float32(" + expr + ")"
		}
		return expr, ""
	case ir.KindMessage:
		return fg.valueInit(t), ""
	}
	if t.IntSize == 0 {
		if _, err := parseInt(raw); err != nil {
			fg.fail(f, err)
			return "", ""
		}
		return raw, ""
	}
	// значение обрезается так же, как при декодировании
	u, err := parseInt(raw)
	if err != nil {
		fg.fail(f, err)
		return "", ""
	}
	shift := 64 - uint(t.IntSize)
	if t.Kind.Unsigned() {
		return strconv.FormatUint(u<<shift>>shift, 10), ""
	}
	return strconv.FormatInt(int64(u<<shift)>>shift, 10), ""
}

// parseInt читает десятичный литерал default_value как 64 бита.
func parseInt(raw string) (uint64, error) {
	if v, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return uint64(v), nil
	}
	return strconv.ParseUint(raw, 0, 64)
}
