// Package config holds the generator configuration: override records keyed
// by proto path, merged along the path from the root.
package config

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// OptionalRepr selects how an optional field tracks presence.
type OptionalRepr uint8

const (
	// ReprHazzer stores the value inline plus one bit in the message bitmap.
	ReprHazzer OptionalRepr = iota + 1
	// ReprOption stores a micropb.Option, or a pointer when boxed.
	ReprOption
	// ReprNone stores the value unconditionally without presence.
	ReprNone
)

func (r OptionalRepr) String() string {
	switch r {
	case ReprHazzer:
		return "Hazzer"
	case ReprOption:
		return "Option"
	case ReprNone:
		return "None"
	default:
		return "unset"
	}
}

func ParseOptionalRepr(s string) (OptionalRepr, error) {
	switch strings.ToLower(s) {
	case "hazzer":
		return ReprHazzer, nil
	case "option":
		return ReprOption, nil
	case "none":
		return ReprNone, nil
	}
	return 0, errors.Errorf("optional_repr: want Option, Hazzer or None, got %q", s)
}

func (r *OptionalRepr) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := ParseOptionalRepr(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// IntSize is an integer width in bits.
type IntSize uint8

const (
	Int8  IntSize = 8
	Int16 IntSize = 16
	Int32 IntSize = 32
	Int64 IntSize = 64
)

func ParseIntSize(s string) (IntSize, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "int size %q", s)
	}
	switch IntSize(n) {
	case Int8, Int16, Int32, Int64:
		return IntSize(n), nil
	}
	return 0, errors.Errorf("int size: want 8, 16, 32 or 64, got %d", n)
}

func (s *IntSize) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := ParseIntSize(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type CustomKind uint8

const (
	// CustomType replaces the field with a user type implementing
	// micropb.FieldDecode and micropb.FieldEncode.
	CustomType CustomKind = iota + 1
	// CustomDelegate hands the field's wire data to another custom field of
	// the same message.
	CustomDelegate
)

// CustomField is the parsed form of "type:<go type>" or "delegate:<field>".
type CustomField struct {
	Kind   CustomKind
	Target string
}

func ParseCustomField(s string) (CustomField, error) {
	kind, target, ok := strings.Cut(s, ":")
	if !ok || target == "" {
		return CustomField{}, errors.Errorf("custom_field: want type:<go type> or delegate:<field>, got %q", s)
	}
	switch kind {
	case "type":
		return CustomField{Kind: CustomType, Target: target}, nil
	case "delegate":
		return CustomField{Kind: CustomDelegate, Target: target}, nil
	}
	return CustomField{}, errors.Errorf("custom_field: unknown kind %q", kind)
}

func (c CustomField) String() string {
	switch c.Kind {
	case CustomType:
		return "type:" + c.Target
	case CustomDelegate:
		return "delegate:" + c.Target
	}
	return ""
}

func (c *CustomField) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := ParseCustomField(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Override is one configuration record. Unset fields inherit from the
// nearest ancestor path that sets them.
type Override struct {
	Skip         *bool         `yaml:"skip"`
	Boxed        *bool         `yaml:"boxed"`
	OptionalRepr *OptionalRepr `yaml:"optional_repr"`
	MaxBytes     *uint32       `yaml:"max_bytes"`
	MaxLen       *uint32       `yaml:"max_len"`
	IntSize      *IntSize      `yaml:"int_size"`
	EnumIntSize  *IntSize      `yaml:"enum_int_size"`
	EnumUnsigned *bool         `yaml:"enum_unsigned"`

	StringType *string `yaml:"string_type"`
	BytesType  *string `yaml:"bytes_type"`
	VecType    *string `yaml:"vec_type"`
	MapType    *string `yaml:"map_type"`

	RenameField     *string      `yaml:"rename_field"`
	FieldAttributes *string      `yaml:"field_attributes"`
	TypeAttributes  *string      `yaml:"type_attributes"`
	CustomField     *CustomField `yaml:"custom_field"`
	UnknownHandler  *string      `yaml:"unknown_handler"`

	NoAccessors     *bool `yaml:"no_accessors"`
	NoDebugImpl     *bool `yaml:"no_debug_impl"`
	NoDefaultImpl   *bool `yaml:"no_default_impl"`
	NoCloneImpl     *bool `yaml:"no_clone_impl"`
	NoPartialEqImpl *bool `yaml:"no_partial_eq_impl"`
	StripEnumPrefix *bool `yaml:"strip_enum_prefix"`
}

func pick[T any](parent, child *T) *T {
	if child != nil {
		return child
	}
	return parent
}

// Merge returns o with every field child sets replaced by child's value.
func (o Override) Merge(child Override) Override {
	return Override{
		Skip:            pick(o.Skip, child.Skip),
		Boxed:           pick(o.Boxed, child.Boxed),
		OptionalRepr:    pick(o.OptionalRepr, child.OptionalRepr),
		MaxBytes:        pick(o.MaxBytes, child.MaxBytes),
		MaxLen:          pick(o.MaxLen, child.MaxLen),
		IntSize:         pick(o.IntSize, child.IntSize),
		EnumIntSize:     pick(o.EnumIntSize, child.EnumIntSize),
		EnumUnsigned:    pick(o.EnumUnsigned, child.EnumUnsigned),
		StringType:      pick(o.StringType, child.StringType),
		BytesType:       pick(o.BytesType, child.BytesType),
		VecType:         pick(o.VecType, child.VecType),
		MapType:         pick(o.MapType, child.MapType),
		RenameField:     pick(o.RenameField, child.RenameField),
		FieldAttributes: pick(o.FieldAttributes, child.FieldAttributes),
		TypeAttributes:  pick(o.TypeAttributes, child.TypeAttributes),
		CustomField:     pick(o.CustomField, child.CustomField),
		UnknownHandler:  pick(o.UnknownHandler, child.UnknownHandler),
		NoAccessors:     pick(o.NoAccessors, child.NoAccessors),
		NoDebugImpl:     pick(o.NoDebugImpl, child.NoDebugImpl),
		NoDefaultImpl:   pick(o.NoDefaultImpl, child.NoDefaultImpl),
		NoCloneImpl:     pick(o.NoCloneImpl, child.NoCloneImpl),
		NoPartialEqImpl: pick(o.NoPartialEqImpl, child.NoPartialEqImpl),
		StripEnumPrefix: pick(o.StripEnumPrefix, child.StripEnumPrefix),
	}
}

func parseBool(key, value string) (*bool, error) {
	// a bare key means true
	if value == "" {
		v := true
		return &v, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", key)
	}
	return &v, nil
}

func parseUint32(key, value string) (*uint32, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", key)
	}
	v := uint32(n)
	return &v, nil
}

func ptr[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Set assigns one key from its textual form.
func (o *Override) Set(key, value string) error {
	var err error
	switch key {
	case "skip":
		o.Skip, err = parseBool(key, value)
	case "boxed":
		o.Boxed, err = parseBool(key, value)
	case "optional_repr":
		o.OptionalRepr, err = ptr(ParseOptionalRepr(value))
	case "max_bytes":
		o.MaxBytes, err = parseUint32(key, value)
	case "max_len":
		o.MaxLen, err = parseUint32(key, value)
	case "int_size":
		o.IntSize, err = ptr(ParseIntSize(value))
	case "enum_int_size":
		o.EnumIntSize, err = ptr(ParseIntSize(value))
	case "enum_unsigned":
		o.EnumUnsigned, err = parseBool(key, value)
	case "string_type":
		o.StringType = &value
	case "bytes_type":
		o.BytesType = &value
	case "vec_type":
		o.VecType = &value
	case "map_type":
		o.MapType = &value
	case "rename_field":
		o.RenameField = &value
	case "field_attributes":
		o.FieldAttributes = &value
	case "type_attributes":
		o.TypeAttributes = &value
	case "custom_field":
		o.CustomField, err = ptr(ParseCustomField(value))
	case "unknown_handler":
		o.UnknownHandler = &value
	case "no_accessors":
		o.NoAccessors, err = parseBool(key, value)
	case "no_debug_impl":
		o.NoDebugImpl, err = parseBool(key, value)
	case "no_default_impl":
		o.NoDefaultImpl, err = parseBool(key, value)
	case "no_clone_impl":
		o.NoCloneImpl, err = parseBool(key, value)
	case "no_partial_eq_impl":
		o.NoPartialEqImpl, err = parseBool(key, value)
	case "strip_enum_prefix":
		o.StripEnumPrefix, err = parseBool(key, value)
	default:
		return errors.Errorf("unknown config key %q", key)
	}
	return err
}

// Get returns *p or def when p is nil.
func Get[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
