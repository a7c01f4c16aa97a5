package ir

import (
	"fmt"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

// Graph is the type graph for one plugin run. It covers every file in the
// request so references into imports resolve; only files with Generate set
// are emitted.
type Graph struct {
	Files    []*File
	Messages map[string]*Message // key: full path (.pkg.Msg)
	Enums    map[string]*Enum

	Diagnostics []Diagnostic
	Collisions  []Collision
}

func (g *Graph) Message(p protopath.Path) *Message {
	return g.Messages[p.String()]
}

func (g *Graph) Enum(p protopath.Path) *Enum {
	return g.Enums[p.String()]
}

type Syntax uint8

const (
	Proto2 Syntax = iota + 1
	Proto3
	Editions
)

func (s Syntax) String() string {
	switch s {
	case Proto2:
		return "proto2"
	case Proto3:
		return "proto3"
	case Editions:
		return "editions"
	}
	return fmt.Sprintf("unknown(%d)", s)
}

// File holds the top-level declarations of one .proto file in order.
type File struct {
	Name     string
	Package  protopath.Path
	Syntax   Syntax
	Edition  descriptorpb.Edition
	Generate bool

	Messages []*Message
	Enums    []*Enum
	// ExtensionSets holds one set per extendee for the extensions declared
	// in this file.
	ExtensionSets []*Message
}

// Message is one message type, or the extension set of an extendee.
type Message struct {
	Path   protopath.Path
	Name   string
	GoName string
	File   *File
	Parent *Message

	Fields []*Field
	Oneofs []*Oneof
	Nested []*Message
	Enums  []*Enum

	// Extendee is set for extension sets and names the extended message.
	Extendee protopath.Path
	// Extendable is set when the message declares extension ranges.
	Extendable bool
	// Unknown is the Go type receiving unknown fields, empty for none.
	Unknown string

	// HazzerBits is the number of presence bits the message needs.
	HazzerBits int
	// Borrowed is set when a field aliases the decode buffer, directly or
	// through a nested message.
	Borrowed bool
	MaxSize  Size

	TypeAttributes string
	NoAccessors    bool
	NoDebug        bool
	NoDefault      bool
	NoClone        bool
	NoEqual        bool
}

// IsExtensionSet reports whether m is a generated extension set.
func (m *Message) IsExtensionSet() bool {
	return len(m.Extendee) > 0
}

// FullName returns the proto full name without the leading dot.
func (m *Message) FullName() string {
	return m.Path.Dotted()
}

// Walk calls fn for m and every nested message, parents first.
func (m *Message) Walk(fn func(*Message)) {
	fn(m)
	for _, n := range m.Nested {
		n.Walk(fn)
	}
}

// Storage is the field category the emitter switches on.
type Storage uint8

const (
	// Single is a singleton with implicit presence.
	Single Storage = iota + 1
	Optional
	Repeated
	Map
	// Custom fields are handled by a user type or delegated to one.
	Custom
)

func (s Storage) String() string {
	switch s {
	case Single:
		return "single"
	case Optional:
		return "optional"
	case Repeated:
		return "repeated"
	case Map:
		return "map"
	case Custom:
		return "custom"
	}
	return fmt.Sprintf("unknown(%d)", s)
}

// Presence is how an optional field records that it is set.
type Presence uint8

const (
	// Implicit presence: written when not equal to the zero value.
	Implicit Presence = iota + 1
	// Hazzer presence: a bit in the message's Has_ bitmap.
	Hazzer
	// Option presence: micropb.Option, or a nil-able pointer when boxed.
	OptionPresence
	// Always presence: stored and written unconditionally.
	Always
)

func (p Presence) String() string {
	switch p {
	case Implicit:
		return "implicit"
	case Hazzer:
		return "hazzer"
	case OptionPresence:
		return "option"
	case Always:
		return "always"
	}
	return fmt.Sprintf("unknown(%d)", p)
}

// Field is one field of a message, a oneof variant, or an extension.
type Field struct {
	Name   string
	GoName string
	Number int32

	Storage  Storage
	Presence Presence
	// HazzerIndex is the bit of the field in Has_, -1 without one.
	HazzerIndex int
	Boxed       bool
	Packed      bool
	Required    bool

	Type Type
	// Key is the map key type.
	Key *Type
	// Seq is the repeated or map container.
	Seq Container

	// MaxSizeOverride replaces the computed bound when set.
	MaxSizeOverride *Size
	// Default is the raw proto2 default value text.
	Default string

	Custom     *config.CustomField
	Attributes string
	Oneof      *Oneof
}

// Edge returns the message the field owns directly, if any.
func (f *Field) Edge() (protopath.Path, bool) {
	if f.Type.Kind != KindMessage {
		return nil, false
	}
	switch f.Storage {
	case Single, Optional:
		return f.Type.Ref, true
	}
	return nil, false
}

// Oneof is a oneof declaration with its variants.
type Oneof struct {
	Name     string
	GoName   string
	Index    int
	Variants []*Field
	Custom   *config.CustomField
	Boxed    bool
}

// Enum is an enum type.
type Enum struct {
	Path   protopath.Path
	Name   string
	GoName string
	File   *File
	Values []EnumValue

	IntSize        config.IntSize
	Unsigned       bool
	TypeAttributes string
	NoDebug        bool
}

type EnumValue struct {
	Name   string
	GoName string
	Number int32
}

// Kind is the proto value kind of a field.
type Kind uint8

const (
	KindDouble Kind = iota + 1
	KindFloat
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindString
	KindBytes
	KindEnum
	KindMessage
)

var kindNames = map[Kind]string{
	KindDouble:   "double",
	KindFloat:    "float",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindFixed32:  "fixed32",
	KindFixed64:  "fixed64",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindEnum:     "enum",
	KindMessage:  "message",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", k)
}

// IsInteger reports kinds that int_size can narrow.
func (k Kind) IsInteger() bool {
	return k >= KindInt32 && k <= KindSfixed64
}

// Packable reports kinds that may use packed encoding.
func (k Kind) Packable() bool {
	return k != KindString && k != KindBytes && k != KindMessage
}

// Bits returns the wire width of integer kinds.
func (k Kind) Bits() int {
	switch k {
	case KindInt32, KindUint32, KindSint32, KindFixed32, KindSfixed32:
		return 32
	case KindInt64, KindUint64, KindSint64, KindFixed64, KindSfixed64:
		return 64
	}
	return 0
}

// Unsigned reports unsigned integer kinds.
func (k Kind) Unsigned() bool {
	return k == KindUint32 || k == KindUint64 || k == KindFixed32 || k == KindFixed64
}

// Type is the value type of a field.
type Type struct {
	Kind Kind
	// Ref is the target of enum and message kinds.
	Ref protopath.Path
	// IntSize narrows integer kinds, 0 keeps the wire width.
	IntSize config.IntSize
	// Text is the container of string and bytes kinds.
	Text Container
}

// ContainerKind tells the emitter how a container is declared and driven.
type ContainerKind uint8

const (
	// Native containers are Go strings, slices and maps.
	Native ContainerKind = iota
	// Template containers come from a configured type template and are
	// driven through the micropb container interfaces.
	Template
	// Borrowed containers alias the decode buffer.
	Borrowed
)

func (k ContainerKind) String() string {
	switch k {
	case Native:
		return "native"
	case Template:
		return "template"
	case Borrowed:
		return "borrowed"
	}
	return fmt.Sprintf("unknown(%d)", k)
}

// Container is a resolved container choice.
type Container struct {
	Kind ContainerKind
	// Type is the Go type template with $T, $K, $V and $N placeholders.
	Type string
	// Ctor builds an empty value; empty means the zero value.
	Ctor string
	// Cap is max_len or max_bytes, 0 when not configured.
	Cap int
}

// Size is a maximum encoded size, or unbounded.
type Size struct {
	N       int
	Bounded bool
}

func Bounded(n int) Size {
	return Size{N: n, Bounded: true}
}

var Unbounded = Size{}

func (s Size) Add(o Size) Size {
	if !s.Bounded || !o.Bounded {
		return Unbounded
	}
	return Bounded(s.N + o.N)
}

func (s Size) Mul(n int) Size {
	if !s.Bounded {
		return Unbounded
	}
	return Bounded(s.N * n)
}

func (s Size) Max(o Size) Size {
	if !s.Bounded || !o.Bounded {
		return Unbounded
	}
	return Bounded(max(s.N, o.N))
}

func (s Size) String() string {
	if !s.Bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", s.N)
}

type DiagnosticLevel string

const (
	DiagInfo  DiagnosticLevel = "info"
	DiagWarn  DiagnosticLevel = "warn"
	DiagError DiagnosticLevel = "error"
)

type Diagnostic struct {
	Level   DiagnosticLevel
	Message string
	Subject string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Level, d.Subject, d.Message)
}
