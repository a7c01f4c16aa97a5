package generator

import (
	"strings"

	"github.com/go-faster/errors"
)

var simpleEscapes = map[byte]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'?':  '?',
	'\'': '\'',
	'"':  '"',
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// unescapeC разворачивает C-экранирование, которым protoc записывает
// default_value для bytes-полей.
func unescapeC(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i == len(s) {
			return nil, errors.New("trailing backslash")
		}
		c = s[i]
		if r, ok := simpleEscapes[c]; ok {
			out = append(out, r)
			continue
		}
		switch {
		case isOctal(c):
			v := int(c - '0')
			for n := 1; n < 3 && i+1 < len(s) && isOctal(s[i+1]); n++ {
				i++
				v = v*8 + int(s[i]-'0')
			}
			if v > 0xff {
				return nil, errors.Errorf("octal escape \\%o out of range", v)
			}
			out = append(out, byte(v))
		case c == 'x' || c == 'X':
			if i+2 >= len(s) {
				return nil, errors.Errorf("short hex escape at %d", i-1)
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return nil, errors.Errorf("bad hex escape at %d", i-1)
			}
			out = append(out, hi<<4|lo)
			i += 2
		default:
			return nil, errors.Errorf("unknown escape \\%c", c)
		}
	}
	return out, nil
}

// goBytesLiteral записывает байты как Go-строку с \x для непечатных символов.
func goBytesLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	const hex = "0123456789abcdef"
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			sb.WriteString(`\x`)
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&0xf])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
