package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/internal/help"
	"github.com/yaroher/protoc-gen-go-micropb/logger"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

// Options controls Build.
type Options struct {
	Config *config.Tree
	// Generate lists the proto file names that are emitted. Other files are
	// only used to resolve references.
	Generate []string
}

type typeKind uint8

const (
	tkMessage typeKind = iota + 1
	tkEnum
	tkMapEntry
)

type typeEntry struct {
	kind   typeKind
	goName string
	msg    *descriptorpb.DescriptorProto
	enum   *descriptorpb.EnumDescriptorProto
}

type features struct {
	presence descriptorpb.FeatureSet_FieldPresence
	encoding descriptorpb.FeatureSet_RepeatedFieldEncoding
}

func (f features) merge(fs *descriptorpb.FeatureSet) features {
	if fs == nil {
		return f
	}
	if fs.FieldPresence != nil {
		f.presence = fs.GetFieldPresence()
	}
	if fs.RepeatedFieldEncoding != nil {
		f.encoding = fs.GetRepeatedFieldEncoding()
	}
	return f
}

func fileSyntax(fd *descriptorpb.FileDescriptorProto) (Syntax, features) {
	switch fd.GetSyntax() {
	case "proto3":
		return Proto3, features{
			presence: descriptorpb.FeatureSet_IMPLICIT,
			encoding: descriptorpb.FeatureSet_PACKED,
		}
	case "editions":
		base := features{
			presence: descriptorpb.FeatureSet_EXPLICIT,
			encoding: descriptorpb.FeatureSet_PACKED,
		}
		return Editions, base.merge(fd.GetOptions().GetFeatures())
	default:
		return Proto2, features{
			presence: descriptorpb.FeatureSet_EXPLICIT,
			encoding: descriptorpb.FeatureSet_EXPANDED,
		}
	}
}

// scope is the position of the builder inside a file.
type scope struct {
	file     *File
	path     protopath.Path
	features features
}

type builder struct {
	tree       *config.Tree
	types      map[string]typeEntry
	graph      *Graph
	diags      []Diagnostic
	collisions []Collision
	log        *zap.Logger
}

// Build turns descriptors into a type graph. Error diagnostics and name
// collisions are returned together as one error.
func Build(files []*descriptorpb.FileDescriptorProto, opts Options) (*Graph, error) {
	tree := opts.Config
	if tree == nil {
		tree = config.NewTree()
	}
	b := &builder{
		tree:  tree,
		types: make(map[string]typeEntry),
		graph: &Graph{
			Messages: make(map[string]*Message),
			Enums:    make(map[string]*Enum),
		},
		log: logger.Logger.Named("ir"),
	}
	generate := lo.SliceToMap(opts.Generate, func(name string) (string, bool) { return name, true })

	for _, fd := range files {
		b.index(fd)
	}
	for _, fd := range files {
		b.graph.Files = append(b.graph.Files, b.buildFile(fd, generate[fd.GetName()]))
	}
	b.resolveRefs()
	b.validate()

	layoutHazzers(b.graph)
	markBorrowed(b.graph)

	sortDiagnostics(b.diags)
	b.graph.Diagnostics = b.diags
	b.graph.Collisions = b.collisions
	for _, d := range b.diags {
		switch d.Level {
		case DiagError:
			b.log.Error(d.Message, zap.String("subject", d.Subject))
		case DiagWarn:
			b.log.Warn(d.Message, zap.String("subject", d.Subject))
		default:
			b.log.Debug(d.Message, zap.String("subject", d.Subject))
		}
	}
	if hasErrors(b.diags) || len(b.collisions) > 0 {
		return b.graph, diagnosticsError(b.diags, b.collisions)
	}
	b.log.Info("type graph built",
		zap.Int("files", len(b.graph.Files)),
		zap.Int("messages", len(b.graph.Messages)),
		zap.Int("enums", len(b.graph.Enums)),
	)
	return b.graph, nil
}

func diagnosticsError(diags []Diagnostic, collisions []Collision) error {
	var errs error
	for _, d := range diags {
		if d.Level == DiagError {
			errs = multierr.Append(errs, errors.Errorf("%s: %s", d.Subject, d.Message))
		}
	}
	for _, c := range collisions {
		errs = multierr.Append(errs, c)
	}
	if errs == nil {
		return nil
	}
	return errors.Wrap(errs, "invalid type graph")
}

func (b *builder) errorf(subject protopath.Path, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Level: DiagError, Message: fmt.Sprintf(format, args...), Subject: subject.String()})
}

func (b *builder) warnf(subject protopath.Path, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Level: DiagWarn, Message: fmt.Sprintf(format, args...), Subject: subject.String()})
}

func (b *builder) index(fd *descriptorpb.FileDescriptorProto) {
	pkg := protopath.Parse(fd.GetPackage())
	for _, e := range fd.GetEnumType() {
		b.types[pkg.Append(e.GetName()).String()] = typeEntry{kind: tkEnum, goName: help.TypeName(e.GetName()), enum: e}
	}
	for _, m := range fd.GetMessageType() {
		b.indexMessage(pkg, "", m)
	}
}

func (b *builder) indexMessage(at protopath.Path, parentGo string, m *descriptorpb.DescriptorProto) {
	path := at.Append(m.GetName())
	goName := joinGoName(parentGo, m.GetName())
	kind := tkMessage
	if m.GetOptions().GetMapEntry() {
		kind = tkMapEntry
	}
	b.types[path.String()] = typeEntry{kind: kind, goName: goName, msg: m}
	for _, e := range m.GetEnumType() {
		b.types[path.Append(e.GetName()).String()] = typeEntry{kind: tkEnum, goName: joinGoName(goName, e.GetName()), enum: e}
	}
	for _, n := range m.GetNestedType() {
		b.indexMessage(path, goName, n)
	}
}

func joinGoName(parent, name string) string {
	if parent == "" {
		return help.TypeName(name)
	}
	return parent + "_" + help.TypeName(name)
}

// resolve finds a type name as seen from sc. Names with a leading dot are
// fully qualified; others are tried against each enclosing scope, innermost
// first.
func (b *builder) resolve(sc protopath.Path, name string) (protopath.Path, typeEntry, bool) {
	if strings.HasPrefix(name, ".") {
		p := protopath.Parse(name)
		e, ok := b.types[p.String()]
		return p, e, ok
	}
	rel := strings.Split(name, ".")
	for s := sc; ; s = s.Parent() {
		p := s.Append(rel...)
		if e, ok := b.types[p.String()]; ok {
			return p, e, true
		}
		if s.IsRoot() {
			return nil, typeEntry{}, false
		}
	}
}

func (b *builder) buildFile(fd *descriptorpb.FileDescriptorProto, generate bool) *File {
	syntax, feats := fileSyntax(fd)
	f := &File{
		Name:     fd.GetName(),
		Package:  protopath.Parse(fd.GetPackage()),
		Syntax:   syntax,
		Edition:  fd.GetEdition(),
		Generate: generate,
	}
	sc := scope{file: f, path: f.Package, features: feats}
	for _, e := range fd.GetEnumType() {
		if en := b.buildEnum(sc, "", e); en != nil {
			f.Enums = append(f.Enums, en)
		}
	}
	for _, m := range fd.GetMessageType() {
		if msg := b.buildMessage(sc, nil, m); msg != nil {
			f.Messages = append(f.Messages, msg)
		}
	}

	// extensions declared at file level and nested in messages
	ext := newExtCollector(f)
	for _, x := range fd.GetExtension() {
		b.addExt(ext, sc, x)
	}
	var nested func(at scope, m *descriptorpb.DescriptorProto)
	nested = func(at scope, m *descriptorpb.DescriptorProto) {
		in := scope{file: at.file, path: at.path.Append(m.GetName()), features: at.features.merge(m.GetOptions().GetFeatures())}
		for _, x := range m.GetExtension() {
			b.addExt(ext, in, x)
		}
		for _, n := range m.GetNestedType() {
			nested(in, n)
		}
	}
	for _, m := range fd.GetMessageType() {
		nested(sc, m)
	}
	f.ExtensionSets = b.buildExtensionSets(ext)
	return f
}

func (b *builder) buildEnum(sc scope, parentGo string, e *descriptorpb.EnumDescriptorProto) *Enum {
	path := sc.path.Append(e.GetName())
	ov := b.tree.Lookup(path)
	if config.Get(ov.Skip, false) {
		return nil
	}
	exact, _ := b.tree.Node(path)
	en := &Enum{
		Path:           path,
		Name:           e.GetName(),
		GoName:         joinGoName(parentGo, e.GetName()),
		File:           sc.file,
		IntSize:        config.Get(ov.EnumIntSize, config.Int32),
		Unsigned:       config.Get(ov.EnumUnsigned, false),
		TypeAttributes: config.Get(exact.TypeAttributes, ""),
		NoDebug:        config.Get(ov.NoDebugImpl, false),
	}
	strip := config.Get(ov.StripEnumPrefix, true)
	for _, v := range e.GetValue() {
		en.Values = append(en.Values, EnumValue{
			Name:   v.GetName(),
			GoName: en.GoName + "_" + help.EnumValueName(e.GetName(), v.GetName(), strip),
			Number: v.GetNumber(),
		})
	}
	b.graph.Enums[path.String()] = en
	return en
}

func (b *builder) buildMessage(sc scope, parent *Message, d *descriptorpb.DescriptorProto) *Message {
	path := sc.path.Append(d.GetName())
	if d.GetOptions().GetMapEntry() {
		return nil
	}
	ov := b.tree.Lookup(path)
	if config.Get(ov.Skip, false) {
		b.log.Debug("skip message", zap.String("path", path.String()))
		return nil
	}
	exact, _ := b.tree.Node(path)
	m := &Message{
		Path:           path,
		Name:           d.GetName(),
		GoName:         b.types[path.String()].goName,
		File:           sc.file,
		Parent:         parent,
		Extendable:     len(d.GetExtensionRange()) > 0,
		Unknown:        config.Get(exact.UnknownHandler, ""),
		TypeAttributes: config.Get(exact.TypeAttributes, ""),
		NoAccessors:    config.Get(ov.NoAccessors, false),
		NoDebug:        config.Get(ov.NoDebugImpl, false),
		NoDefault:      config.Get(ov.NoDefaultImpl, false),
		NoClone:        config.Get(ov.NoCloneImpl, false),
		NoEqual:        config.Get(ov.NoPartialEqImpl, false),
	}
	in := scope{file: sc.file, path: path, features: sc.features.merge(d.GetOptions().GetFeatures())}

	// map entries by simple name
	entries := make(map[string]*descriptorpb.DescriptorProto)
	for _, n := range d.GetNestedType() {
		if n.GetOptions().GetMapEntry() {
			entries[n.GetName()] = n
		}
	}

	oneofs := make([]*Oneof, len(d.GetOneofDecl()))
	for i, o := range d.GetOneofDecl() {
		opath := path.Append(o.GetName())
		oexact, _ := b.tree.Node(opath)
		oov := b.tree.Lookup(opath)
		oneofs[i] = &Oneof{
			Name:   o.GetName(),
			GoName: b.fieldGoName(oexact, o.GetName()),
			Index:  i,
			Custom: oexact.CustomField,
			Boxed:  config.Get(oov.Boxed, false),
		}
	}

	for _, fd := range d.GetField() {
		f := b.buildField(in, fd, entries)
		if f == nil {
			continue
		}
		if fd.OneofIndex != nil && !fd.GetProto3Optional() {
			idx := int(fd.GetOneofIndex())
			if idx < 0 || idx >= len(oneofs) {
				b.errorf(path.Append(fd.GetName()), "oneof index %d out of range", idx)
				continue
			}
			o := oneofs[idx]
			f.Oneof = o
			f.Storage = Single
			f.Presence = Always
			o.Variants = append(o.Variants, f)
			continue
		}
		m.Fields = append(m.Fields, f)
	}
	// synthetic proto3 optional oneofs end up empty
	m.Oneofs = lo.Filter(oneofs, func(o *Oneof, _ int) bool { return len(o.Variants) > 0 })

	for _, e := range d.GetEnumType() {
		if en := b.buildEnum(in, m.GoName, e); en != nil {
			m.Enums = append(m.Enums, en)
		}
	}
	for _, n := range d.GetNestedType() {
		if nm := b.buildMessage(in, m, n); nm != nil {
			m.Nested = append(m.Nested, nm)
		}
	}
	b.graph.Messages[path.String()] = m
	return m
}

func (b *builder) fieldGoName(exact config.Override, name string) string {
	if exact.RenameField != nil {
		return *exact.RenameField
	}
	n := help.FieldName(name)
	if reservedNames[n] {
		n += "_"
	}
	return n
}

// reservedNames are method names every generated message may carry.
var reservedNames = map[string]bool{
	"Reset":           true,
	"String":          true,
	"Clone":           true,
	"Equal":           true,
	"MaxSize":         true,
	"DecodeMessage":   true,
	"EncodeMessage":   true,
	"ComputeSize":     true,
	"ComputeSizeWith": true,
	"WriteDebug":      true,
	"DecodeExtField":  true,
	"EncodeExt":       true,
	"ComputeExtSize":  true,
}

func (b *builder) buildField(sc scope, fd *descriptorpb.FieldDescriptorProto, entries map[string]*descriptorpb.DescriptorProto) *Field {
	path := sc.path.Append(fd.GetName())
	ov := b.tree.Lookup(path)
	if config.Get(ov.Skip, false) {
		return nil
	}
	exact, _ := b.tree.Node(path)

	num := fd.GetNumber()
	if num < 1 || num > maxFieldNumber || (num >= reservedLow && num <= reservedHigh) {
		b.errorf(path, "field number %d out of range", num)
	}
	if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
		b.errorf(path, "group fields are not supported")
		return nil
	}

	feats := sc.features.merge(fd.GetOptions().GetFeatures())
	f := &Field{
		Name:        fd.GetName(),
		GoName:      b.fieldGoName(exact, fd.GetName()),
		Number:      num,
		HazzerIndex: -1,
		Boxed:       config.Get(ov.Boxed, false),
		Default:     fd.GetDefaultValue(),
		Attributes:  config.Get(exact.FieldAttributes, ""),
		Custom:      exact.CustomField,
	}

	typ, ok := b.valueType(sc.path, path, fd, ov)
	if !ok {
		return nil
	}
	f.Type = typ

	switch {
	case fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED && b.isMapEntry(sc.path, fd, entries):
		b.buildMap(sc, path, f, fd)
	case fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		f.Storage = Repeated
		f.Seq = b.seqContainer(path, ov, false)
		f.Packed = typ.Kind.Packable() && b.packed(sc.file.Syntax, feats, fd)
	default:
		explicit, required := presenceOf(sc.file.Syntax, feats, fd)
		f.Required = required
		if explicit {
			f.Storage = Optional
			f.Presence = presenceRepr(ov, f.Boxed)
		} else {
			f.Storage = Single
			f.Presence = Implicit
			if f.Boxed {
				f.Storage = Optional
				f.Presence = OptionPresence
			}
		}
		if f.Default == "" && typ.Kind == KindEnum && sc.file.Syntax == Proto2 {
			// closed enums default to their first value
			if e := b.types[typ.Ref.String()].enum; e != nil && len(e.GetValue()) > 0 && e.GetValue()[0].GetNumber() != 0 {
				f.Default = e.GetValue()[0].GetName()
			}
		}
	}

	if f.Boxed && f.Presence != OptionPresence && f.Storage == Optional {
		b.warnf(path, "boxed field uses pointer presence instead of %s", f.Presence)
		f.Presence = OptionPresence
	}
	if f.Custom != nil {
		f.Storage = Custom
	}
	return f
}

const (
	maxFieldNumber = 1<<29 - 1
	reservedLow    = 19000
	reservedHigh   = 19999
)

func presenceOf(syntax Syntax, feats features, fd *descriptorpb.FieldDescriptorProto) (explicit, required bool) {
	isMessage := fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	switch syntax {
	case Proto2:
		return true, fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	case Proto3:
		return fd.GetProto3Optional() || isMessage, false
	}
	switch feats.presence {
	case descriptorpb.FeatureSet_IMPLICIT:
		return isMessage, false
	case descriptorpb.FeatureSet_LEGACY_REQUIRED:
		return true, true
	}
	return true, false
}

func presenceRepr(ov config.Override, boxed bool) Presence {
	if ov.OptionalRepr != nil {
		switch *ov.OptionalRepr {
		case config.ReprOption:
			return OptionPresence
		case config.ReprNone:
			return Always
		case config.ReprHazzer:
			return Hazzer
		}
	}
	if boxed {
		return OptionPresence
	}
	return Hazzer
}

func (b *builder) packed(syntax Syntax, feats features, fd *descriptorpb.FieldDescriptorProto) bool {
	opts := fd.GetOptions()
	switch syntax {
	case Proto2:
		return opts.GetPacked()
	case Proto3:
		if opts != nil && opts.Packed != nil {
			return opts.GetPacked()
		}
		return true
	}
	return feats.encoding != descriptorpb.FeatureSet_EXPANDED
}

func (b *builder) isMapEntry(at protopath.Path, fd *descriptorpb.FieldDescriptorProto, entries map[string]*descriptorpb.DescriptorProto) bool {
	if fd.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return false
	}
	p, e, ok := b.resolve(at, fd.GetTypeName())
	if !ok || e.kind != tkMapEntry {
		return false
	}
	_, local := entries[p.Last()]
	return local
}

func (b *builder) buildMap(sc scope, path protopath.Path, f *Field, fd *descriptorpb.FieldDescriptorProto) {
	p, e, _ := b.resolve(sc.path, fd.GetTypeName())
	f.Storage = Map
	f.Seq = b.seqContainer(path, b.tree.Lookup(path), true)

	var keyFD, valFD *descriptorpb.FieldDescriptorProto
	for _, ef := range e.msg.GetField() {
		switch ef.GetNumber() {
		case 1:
			keyFD = ef
		case 2:
			valFD = ef
		}
	}
	if keyFD == nil || valFD == nil {
		b.errorf(path, "map entry %s lacks key or value", p)
		return
	}
	keyPath := path.Append("key")
	k, _ := b.valueType(p, keyPath, keyFD, b.tree.Lookup(keyPath))
	if k.Text.Kind != Native {
		b.warnf(keyPath, "map keys are stored as native Go values")
		k.Text = Container{Kind: Native}
	}
	valPath := path.Append("value")
	v, _ := b.valueType(p, valPath, valFD, b.tree.Lookup(valPath))
	if v.Text.Kind == Borrowed {
		b.errorf(valPath, "map values cannot borrow the decode buffer")
	}
	f.Key = &k
	f.Type = v
}

var kindOf = map[descriptorpb.FieldDescriptorProto_Type]Kind{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   KindDouble,
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    KindFloat,
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    KindInt32,
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    KindInt64,
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   KindUint32,
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   KindUint64,
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   KindSint32,
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   KindSint64,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  KindFixed32,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  KindFixed64,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: KindSfixed32,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: KindSfixed64,
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     KindBool,
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   KindString,
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    KindBytes,
	descriptorpb.FieldDescriptorProto_TYPE_ENUM:     KindEnum,
	descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:  KindMessage,
}

func (b *builder) valueType(at, path protopath.Path, fd *descriptorpb.FieldDescriptorProto, ov config.Override) (Type, bool) {
	kind, ok := kindOf[fd.GetType()]
	if !ok {
		b.errorf(path, "unsupported field type %s", fd.GetType())
		return Type{}, false
	}
	t := Type{Kind: kind}
	switch kind {
	case KindEnum, KindMessage:
		ref, e, ok := b.resolve(at, fd.GetTypeName())
		if !ok {
			b.errorf(path, "unresolved type %s", fd.GetTypeName())
			return Type{}, false
		}
		if (kind == KindEnum) != (e.kind == tkEnum) {
			b.errorf(path, "type %s is not a %s", ref, kind)
			return Type{}, false
		}
		t.Ref = ref
	case KindString, KindBytes:
		t.Text = b.textContainer(path, kind, ov)
	}
	if ov.IntSize != nil {
		if kind.IsInteger() {
			if int(*ov.IntSize) < kind.Bits() {
				t.IntSize = *ov.IntSize
			}
		} else if kind != KindEnum && kind != KindMessage && kind != KindString && kind != KindBytes {
			b.warnf(path, "int_size ignored for %s", kind)
		}
	}
	return t, true
}

func parseTemplate(s string) Container {
	typ, ctor, _ := strings.Cut(s, "=")
	c := Container{Kind: Template, Type: strings.TrimSpace(typ), Ctor: strings.TrimSpace(ctor)}
	switch c.Type {
	case "micropb.BorrowedBytes", "micropb.BorrowedString":
		c.Kind = Borrowed
	case "string", "[]byte":
		c = Container{Kind: Native}
	}
	return c
}

func needsCap(c Container) bool {
	return strings.Contains(c.Type, "$N") || strings.Contains(c.Ctor, "$N")
}

func (b *builder) textContainer(path protopath.Path, kind Kind, ov config.Override) Container {
	tmpl := ov.StringType
	if kind == KindBytes {
		tmpl = ov.BytesType
	}
	n := int(config.Get(ov.MaxBytes, 0))
	if tmpl == nil {
		switch {
		case n == 0:
			return Container{Kind: Native}
		case kind == KindString:
			return Container{Kind: Template, Type: "micropb.FixedString", Ctor: "micropb.NewFixedString($N)", Cap: n}
		default:
			return Container{Kind: Template, Type: "micropb.FixedBytes", Ctor: "micropb.NewFixedBytes($N)", Cap: n}
		}
	}
	c := parseTemplate(*tmpl)
	c.Cap = n
	if needsCap(c) && n == 0 {
		b.errorf(path, "max_bytes not configured")
	}
	return c
}

func (b *builder) seqContainer(path protopath.Path, ov config.Override, isMap bool) Container {
	tmpl := ov.VecType
	if isMap {
		tmpl = ov.MapType
	}
	n := int(config.Get(ov.MaxLen, 0))
	if tmpl == nil {
		switch {
		case n == 0:
			return Container{Kind: Native}
		case isMap:
			return Container{Kind: Template, Type: "micropb.FixedMap[$K, $V]", Ctor: "micropb.NewFixedMap[$K, $V]($N)", Cap: n}
		default:
			return Container{Kind: Template, Type: "micropb.FixedVec[$T]", Ctor: "micropb.NewFixedVec[$T]($N)", Cap: n}
		}
	}
	c := parseTemplate(*tmpl)
	if c.Kind == Borrowed {
		b.errorf(path, "%s is not a container template", c.Type)
	}
	c.Cap = n
	if needsCap(c) && n == 0 {
		if isMap {
			b.errorf(path, "unbounded map")
		} else {
			b.errorf(path, "max_len not configured")
		}
	}
	return c
}

// extCollector groups extension fields by extendee in declaration order.
type extCollector struct {
	file   *File
	order  []string
	fields map[string][]extField
}

type extField struct {
	sc scope
	fd *descriptorpb.FieldDescriptorProto
}

func newExtCollector(f *File) *extCollector {
	return &extCollector{file: f, fields: make(map[string][]extField)}
}

// addExt files fd under its resolved extendee so relative and qualified
// spellings of one message share a set.
func (b *builder) addExt(c *extCollector, sc scope, fd *descriptorpb.FieldDescriptorProto) {
	key := fd.GetExtendee()
	if p, _, ok := b.resolve(sc.path, key); ok {
		key = p.String()
	}
	c.add(key, sc, fd)
}

func (c *extCollector) add(key string, sc scope, fd *descriptorpb.FieldDescriptorProto) {
	if _, ok := c.fields[key]; !ok {
		c.order = append(c.order, key)
	}
	c.fields[key] = append(c.fields[key], extField{sc: sc, fd: fd})
}

func (b *builder) buildExtensionSets(c *extCollector) []*Message {
	var sets []*Message
	for _, key := range c.order {
		first := c.fields[key][0]
		extendee, e, ok := b.resolve(first.sc.path, key)
		if !ok || e.kind != tkMessage {
			b.errorf(first.sc.path.Append(first.fd.GetName()), "unresolved extendee %s", key)
			continue
		}
		goName := e.goName + "Extensions"
		set := &Message{
			Path:     c.file.Package.Append(goName),
			Name:     goName,
			GoName:   goName,
			File:     c.file,
			Extendee: extendee,
		}
		for _, x := range c.fields[key] {
			if f := b.buildField(x.sc, x.fd, nil); f != nil {
				if f.Storage == Custom {
					b.errorf(x.sc.path.Append(x.fd.GetName()), "custom_field is not supported on extensions")
					continue
				}
				set.Fields = append(set.Fields, f)
			}
		}
		if len(set.Fields) > 0 {
			sets = append(sets, set)
		}
	}
	return sets
}

// resolveRefs reports fields that point at skipped types.
func (b *builder) resolveRefs() {
	check := func(m *Message, f *Field) {
		types := []Type{f.Type}
		if f.Key != nil {
			types = append(types, *f.Key)
		}
		for _, t := range types {
			switch t.Kind {
			case KindMessage:
				if b.graph.Message(t.Ref) == nil {
					b.errorf(m.Path.Append(f.Name), "field refers to skipped type %s", t.Ref)
				}
			case KindEnum:
				if b.graph.Enum(t.Ref) == nil {
					b.errorf(m.Path.Append(f.Name), "field refers to skipped type %s", t.Ref)
				}
			}
		}
	}
	for _, m := range b.graph.AllMessages() {
		for _, f := range m.AllFields() {
			if f.Storage != Custom {
				check(m, f)
			}
		}
	}
}

// layoutHazzers assigns presence bits in declaration order.
func layoutHazzers(g *Graph) {
	for _, m := range g.AllMessages() {
		n := 0
		for _, f := range m.Fields {
			f.HazzerIndex = -1
			if f.Storage == Optional && f.Presence == Hazzer {
				f.HazzerIndex = n
				n++
			}
		}
		m.HazzerBits = n
	}
}

// markBorrowed flags messages that alias the decode buffer.
func markBorrowed(g *Graph) {
	state := make(map[*Message]uint8)
	var visit func(m *Message) bool
	visit = func(m *Message) bool {
		switch state[m] {
		case 1:
			return false
		case 2:
			return m.Borrowed
		}
		state[m] = 1
		for _, f := range m.AllFields() {
			if f.Storage == Custom {
				continue
			}
			if f.Type.Text.Kind == Borrowed {
				m.Borrowed = true
			}
			if f.Type.Kind == KindMessage {
				if t := g.Message(f.Type.Ref); t != nil && visit(t) {
					m.Borrowed = true
				}
			}
		}
		state[m] = 2
		return m.Borrowed
	}
	for _, m := range g.AllMessages() {
		visit(m)
	}
}

// AllMessages returns every message and extension set, files in order and
// parents before nested messages.
func (g *Graph) AllMessages() []*Message {
	var out []*Message
	for _, f := range g.Files {
		for _, m := range f.Messages {
			m.Walk(func(n *Message) { out = append(out, n) })
		}
		out = append(out, f.ExtensionSets...)
	}
	return out
}

// AllFields returns the regular fields followed by every oneof variant.
func (m *Message) AllFields() []*Field {
	out := append([]*Field(nil), m.Fields...)
	for _, o := range m.Oneofs {
		out = append(out, o.Variants...)
	}
	return out
}

func sortDiagnostics(diags []Diagnostic) {
	order := map[DiagnosticLevel]int{DiagError: 0, DiagWarn: 1, DiagInfo: 2}
	sort.SliceStable(diags, func(i, j int) bool {
		if order[diags[i].Level] != order[diags[j].Level] {
			return order[diags[i].Level] < order[diags[j].Level]
		}
		return diags[i].Subject < diags[j].Subject
	})
}

func hasErrors(diags []Diagnostic) bool {
	return lo.ContainsBy(diags, func(d Diagnostic) bool { return d.Level == DiagError })
}
