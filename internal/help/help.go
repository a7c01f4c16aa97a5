package help

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"google.golang.org/protobuf/compiler/protogen"
)

// GoImportPaths maps the full proto name of every message and enum in the
// request, with a leading dot, to the Go package it is generated into.
func GoImportPaths(p *protogen.Plugin) map[string]protogen.GoImportPath {
	out := make(map[string]protogen.GoImportPath)
	var walk func(path protogen.GoImportPath, msgs []*protogen.Message)
	walk = func(path protogen.GoImportPath, msgs []*protogen.Message) {
		for _, m := range msgs {
			out["."+string(m.Desc.FullName())] = path
			for _, e := range m.Enums {
				out["."+string(e.Desc.FullName())] = path
			}
			walk(path, m.Messages)
		}
	}
	for _, file := range p.Files {
		for _, e := range file.Enums {
			out["."+string(e.Desc.FullName())] = file.GoImportPath
		}
		walk(file.GoImportPath, file.Messages)
	}
	return out
}

// TypeName returns the exported Go form of a message or enum name.
func TypeName(name string) string {
	if strings.ContainsRune(name, '_') || !startsUpper(name) {
		return strcase.ToCamel(name)
	}
	return name
}

// FieldName returns the exported Go form of a field or oneof name.
func FieldName(name string) string {
	return Sanitize(strcase.ToCamel(name))
}

// EnumValueName returns the Go suffix of an enum value. With strip set, the
// enum's own name is removed from the front of the value name (COLOR_RED in
// Color becomes Red) unless nothing usable would be left.
func EnumValueName(enum, value string, strip bool) string {
	if strip {
		prefix := strcase.ToScreamingSnake(enum) + "_"
		if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			if rest := value[len(prefix):]; !unicode.IsDigit(rune(rest[0])) {
				value = rest
			}
		}
	}
	if strings.ToUpper(value) == value {
		value = strings.ToLower(value)
	}
	return strcase.ToCamel(value)
}

// PackageName turns s into a valid Go package name.
func PackageName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return Sanitize(b.String())
}

// Sanitize escapes Go keywords with a trailing underscore.
func Sanitize(ident string) string {
	if token.IsKeyword(ident) {
		return ident + "_"
	}
	return ident
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
