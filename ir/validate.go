package ir

import (
	"fmt"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

// Validation rules:
// - custom_field=delegate must name a field or oneof of the same message
//   that is itself custom_field=type.
// - custom_field on a oneof variant is rejected; configure the oneof.
// - unknown_handler and custom types are Go type expressions and must not be
//   empty.
// - identifiers emitted for one message (fields, oneofs, accessors) and for
//   one proto package (types, constants) must be unique.

// Collision is an emitted Go identifier claimed twice.
type Collision struct {
	Name     string
	Scope    string
	Existing string
	New      string
}

func (c Collision) Error() string {
	return fmt.Sprintf("field name collision in %s: %q of %s conflicts with %s", c.Scope, c.Name, c.New, c.Existing)
}

func (b *builder) validate() {
	for _, m := range b.graph.AllMessages() {
		b.validateCustom(m)
		b.checkMessageNames(m)
	}
	for _, f := range b.graph.Files {
		b.checkPackageNames(f)
	}
}

func (b *builder) validateCustom(m *Message) {
	owners := make(map[string]*config.CustomField)
	for _, f := range m.Fields {
		if f.Custom != nil {
			owners[f.Name] = f.Custom
		}
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			owners[o.Name] = o.Custom
		}
		for _, v := range o.Variants {
			if v.Custom != nil {
				b.errorf(m.Path.Append(v.Name), "custom_field on a oneof variant; configure oneof %s instead", o.Name)
				v.Custom = nil
			}
		}
	}
	check := func(at protopath.Path, c *config.CustomField) {
		if c.Kind != config.CustomDelegate {
			return
		}
		target, ok := owners[c.Target]
		if !ok || target.Kind != config.CustomType {
			b.errorf(at, "custom delegate refers to missing field %s", c.Target)
		}
	}
	for _, f := range m.Fields {
		if f.Custom != nil {
			check(m.Path.Append(f.Name), f.Custom)
		}
	}
	for _, o := range m.Oneofs {
		if o.Custom != nil {
			check(m.Path.Append(o.Name), o.Custom)
		}
	}
}

type nameSet struct {
	b     *builder
	scope string
	seen  map[string]string
}

func (b *builder) newNameSet(scope string) *nameSet {
	return &nameSet{b: b, scope: scope, seen: make(map[string]string)}
}

func (s *nameSet) claim(name, owner string) {
	if prev, ok := s.seen[name]; ok {
		s.b.collisions = append(s.b.collisions, Collision{Name: name, Scope: s.scope, Existing: prev, New: owner})
		return
	}
	s.seen[name] = owner
}

var accessorPrefixes = []string{"Get", "Mut", "Set", "Clear", "With", "Take"}

func (b *builder) checkMessageNames(m *Message) {
	names := b.newNameSet(m.Path.String())
	for name := range reservedNames {
		names.seen[name] = "generated method"
	}
	for _, f := range m.Fields {
		names.claim(f.GoName, "field "+f.Name)
	}
	for _, o := range m.Oneofs {
		names.claim(o.GoName, "oneof "+o.Name)
	}
	if m.IsExtensionSet() {
		return
	}
	prefixes := accessorPrefixes
	if m.NoAccessors {
		// the getter stays
		prefixes = prefixes[:1]
	}
	for _, f := range m.Fields {
		if f.Storage == Custom {
			continue
		}
		for _, p := range prefixes {
			names.claim(p+f.GoName, "accessor of "+f.Name)
		}
	}
}

func (b *builder) checkPackageNames(f *File) {
	if !f.Generate {
		return
	}
	names := b.newNameSet(f.Package.String())
	var enum func(e *Enum)
	enum = func(e *Enum) {
		names.claim(e.GoName, "enum "+e.Path.String())
		for _, v := range e.Values {
			names.claim(v.GoName, "enum value "+e.Path.Append(v.Name).String())
		}
	}
	for _, e := range f.Enums {
		enum(e)
	}
	for _, top := range f.Messages {
		top.Walk(func(m *Message) {
			names.claim(m.GoName, "message "+m.Path.String())
			names.claim(m.GoName+"_Hazzer", "presence bits of "+m.Path.String())
			names.claim(m.GoName+"_MaxSize", "size bound of "+m.Path.String())
			names.claim("New"+m.GoName, "constructor of "+m.Path.String())
			for _, o := range m.Oneofs {
				iface := m.GoName + "_" + o.GoName
				names.claim(iface, "oneof "+m.Path.Append(o.Name).String())
				for _, v := range o.Variants {
					names.claim(iface+"_"+v.GoName, "oneof variant "+m.Path.Append(v.Name).String())
				}
			}
			for _, e := range m.Enums {
				enum(e)
			}
		})
	}
	for _, s := range f.ExtensionSets {
		names.claim(s.GoName, "extension set of "+s.Extendee.String())
		names.claim("New"+s.GoName, "constructor of extension set "+s.GoName)
		names.claim(s.GoName+"_Hazzer", "presence bits of extension set "+s.GoName)
		names.claim(s.GoName+"Type", "registry entry of extension set "+s.GoName)
	}
}
