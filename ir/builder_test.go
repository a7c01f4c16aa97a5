package ir

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

type fieldShape struct {
	GoName   string
	Storage  Storage
	Presence Presence
	Hazzer   int
	Packed   bool
	Kind     Kind
}

func shapes(m *Message) []fieldShape {
	var out []fieldShape
	for _, f := range m.Fields {
		out = append(out, fieldShape{f.GoName, f.Storage, f.Presence, f.HazzerIndex, f.Packed, f.Type.Kind})
	}
	return out
}

func TestBuildProto3(t *testing.T) {
	b := withLabel(field("b", 2, tInt32), optional)
	b.Proto3Optional = proto.Bool(true)
	b.OneofIndex = proto.Int32(0)
	msg := message("Msg",
		field("a", 1, tInt32),
		b,
		withType(field("child", 3, tMessage), ".pkg.Child"),
		withLabel(field("list", 4, tInt32), repeated),
		withLabel(field("names", 5, tString), repeated),
	)
	msg.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_b")}}

	g := build(t, nil, protoFile("a.proto", "pkg", "proto3", msg, message("Child")))
	m := g.Message(protopath.Parse(".pkg.Msg"))
	require.NotNil(t, m)
	assert.Empty(t, m.Oneofs, "synthetic oneof dropped")
	assert.Equal(t, 2, m.HazzerBits)

	want := []fieldShape{
		{"A", Single, Implicit, -1, false, KindInt32},
		{"B", Optional, Hazzer, 0, false, KindInt32},
		{"Child", Optional, Hazzer, 1, false, KindMessage},
		{"List", Repeated, 0, -1, true, KindInt32},
		{"Names", Repeated, 0, -1, false, KindString},
	}
	if diff := cmp.Diff(want, shapes(m)); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
}

func TestBuildProto2(t *testing.T) {
	packed := withLabel(field("p", 3, tUint32), repeated)
	packed.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(true)}
	msg := message("Msg",
		withLabel(field("id", 1, tInt32), required),
		withLabel(field("u", 2, tUint32), repeated),
		packed,
		withType(field("color", 4, tEnum), "Color"),
	)
	f := protoFile("a.proto", "pkg", "proto2", msg)
	f.EnumType = []*descriptorpb.EnumDescriptorProto{{
		Name: proto.String("Color"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: proto.String("COLOR_RED"), Number: proto.Int32(1)},
			{Name: proto.String("COLOR_BLUE"), Number: proto.Int32(2)},
		},
	}}

	g := build(t, nil, f)
	m := g.Message(protopath.Parse(".pkg.Msg"))
	id := fieldByName(t, m, "id")
	assert.True(t, id.Required)
	assert.Equal(t, Hazzer, id.Presence)
	assert.False(t, fieldByName(t, m, "u").Packed)
	assert.True(t, fieldByName(t, m, "p").Packed)

	color := fieldByName(t, m, "color")
	assert.Equal(t, protopath.Parse(".pkg.Color"), color.Type.Ref)
	assert.Equal(t, "COLOR_RED", color.Default)

	e := g.Enum(protopath.Parse(".pkg.Color"))
	require.NotNil(t, e)
	assert.Equal(t, []EnumValue{
		{Name: "COLOR_RED", GoName: "Color_Red", Number: 1},
		{Name: "COLOR_BLUE", GoName: "Color_Blue", Number: 2},
	}, e.Values)
}

func TestBuildEditions(t *testing.T) {
	for _, edition := range []descriptorpb.Edition{
		descriptorpb.Edition_EDITION_2023,
		descriptorpb.Edition_EDITION_2024,
	} {
		t.Run(edition.String(), func(t *testing.T) {
			legacy := field("must", 2, tInt32)
			legacy.Options = &descriptorpb.FieldOptions{Features: &descriptorpb.FeatureSet{
				FieldPresence: descriptorpb.FeatureSet_LEGACY_REQUIRED.Enum(),
			}}
			expanded := withLabel(field("list", 3, tInt32), repeated)
			expanded.Options = &descriptorpb.FieldOptions{Features: &descriptorpb.FeatureSet{
				RepeatedFieldEncoding: descriptorpb.FeatureSet_EXPANDED.Enum(),
			}}
			f := protoFile("a.proto", "pkg", "editions", message("Msg",
				field("a", 1, tInt32), legacy, expanded, withLabel(field("ids", 4, tInt32), repeated)))
			f.Edition = edition.Enum()
			f.Options = &descriptorpb.FileOptions{Features: &descriptorpb.FeatureSet{
				FieldPresence: descriptorpb.FeatureSet_IMPLICIT.Enum(),
			}}

			g := build(t, nil, f)
			m := g.Message(protopath.Parse(".pkg.Msg"))
			assert.Equal(t, Implicit, fieldByName(t, m, "a").Presence)
			must := fieldByName(t, m, "must")
			assert.Equal(t, Optional, must.Storage)
			assert.True(t, must.Required)
			assert.False(t, fieldByName(t, m, "list").Packed)
			assert.True(t, fieldByName(t, m, "ids").Packed)
			assert.Equal(t, Editions, g.Files[0].Syntax)
			assert.Equal(t, edition, g.Files[0].Edition)
		})
	}
}

func TestBuildMapAndOneof(t *testing.T) {
	msg := message("Msg",
		withType(withLabel(field("tags", 1, tMessage), repeated), ".pkg.Msg.TagsEntry"),
		inOneof(field("num", 2, tInt32), 0),
		inOneof(field("text", 3, tString), 0),
	)
	msg.NestedType = []*descriptorpb.DescriptorProto{
		mapEntry("TagsEntry", field("key", 1, tString), field("value", 2, tSint64)),
	}
	msg.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("kind")}}

	g := build(t, configTree(t, ".pkg.Msg.tags:max_len=4"), protoFile("a.proto", "pkg", "proto3", msg))
	m := g.Message(protopath.Parse(".pkg.Msg"))
	assert.Empty(t, m.Nested, "map entries are not messages")
	assert.Nil(t, g.Message(protopath.Parse(".pkg.Msg.TagsEntry")))

	tags := fieldByName(t, m, "tags")
	assert.Equal(t, Map, tags.Storage)
	require.NotNil(t, tags.Key)
	assert.Equal(t, KindString, tags.Key.Kind)
	assert.Equal(t, KindSint64, tags.Type.Kind)
	assert.Equal(t, Container{Kind: Template, Type: "micropb.FixedMap[$K, $V]", Ctor: "micropb.NewFixedMap[$K, $V]($N)", Cap: 4}, tags.Seq)

	require.Len(t, m.Oneofs, 1)
	o := m.Oneofs[0]
	assert.Equal(t, "Kind", o.GoName)
	require.Len(t, o.Variants, 2)
	assert.Same(t, o, o.Variants[0].Oneof)
	assert.Equal(t, "Text", o.Variants[1].GoName)
}

func TestBuildConfig(t *testing.T) {
	msg := message("Msg",
		field("name", 1, tString),
		field("blob", 2, tBytes),
		withLabel(field("ids", 3, tUint32), repeated),
		field("gone", 4, tInt32),
		field("renamed", 5, tInt32),
		withType(field("child", 6, tMessage), ".pkg.Child"),
		field("small", 7, tUint32),
		field("view", 8, tBytes),
	)
	tree := configTree(t,
		".pkg.Msg.name:max_bytes=16",
		".pkg.Msg.blob:bytes_type=Blob[$N] = NewBlob($N)",
		".pkg.Msg.blob:max_bytes=8",
		".pkg.Msg.ids:max_len=3",
		".pkg.Msg.gone:skip",
		".pkg.Msg.renamed:rename_field=Other",
		".pkg.Msg.child:optional_repr=Option",
		".pkg.Msg.small:int_size=8",
		".pkg.Msg.view:bytes_type=micropb.BorrowedBytes",
		".pkg.Msg:type_attributes=//go:noinline",
	)
	g := build(t, tree, protoFile("a.proto", "pkg", "proto3", msg, message("Child")))
	m := g.Message(protopath.Parse(".pkg.Msg"))

	assert.Equal(t, Container{Kind: Template, Type: "micropb.FixedString", Ctor: "micropb.NewFixedString($N)", Cap: 16}, fieldByName(t, m, "name").Type.Text)
	assert.Equal(t, Container{Kind: Template, Type: "Blob[$N]", Ctor: "NewBlob($N)", Cap: 8}, fieldByName(t, m, "blob").Type.Text)
	assert.Equal(t, 3, fieldByName(t, m, "ids").Seq.Cap)
	assert.Equal(t, "Other", fieldByName(t, m, "renamed").GoName)
	assert.Equal(t, OptionPresence, fieldByName(t, m, "child").Presence)
	assert.EqualValues(t, 8, fieldByName(t, m, "small").Type.IntSize)
	assert.Equal(t, Borrowed, fieldByName(t, m, "view").Type.Text.Kind)
	assert.True(t, m.Borrowed)
	assert.Equal(t, "//go:noinline", m.TypeAttributes)
	for _, f := range m.Fields {
		assert.NotEqual(t, "gone", f.Name)
	}
}

func TestBuildCustomFields(t *testing.T) {
	msg := message("Msg",
		field("a", 1, tInt32),
		field("b", 2, tInt32),
	)
	tree := configTree(t,
		".pkg.Msg.a:custom_field=type:Handler",
		".pkg.Msg.b:custom_field=delegate:a",
		".pkg.Msg:unknown_handler=Rest",
	)
	g := build(t, tree, protoFile("a.proto", "pkg", "proto3", msg))
	m := g.Message(protopath.Parse(".pkg.Msg"))
	assert.Equal(t, Custom, fieldByName(t, m, "a").Storage)
	assert.Equal(t, "a", fieldByName(t, m, "b").Custom.Target)
	assert.Equal(t, "Rest", m.Unknown)
}

func TestBuildExtensions(t *testing.T) {
	base := message("Base", field("id", 1, tInt32))
	base.ExtensionRange = []*descriptorpb.DescriptorProto_ExtensionRange{{Start: proto.Int32(100), End: proto.Int32(200)}}
	note := field("note", 100, tString)
	note.Extendee = proto.String(".pkg.Base")
	marks := withLabel(field("marks", 101, tUint32), repeated)
	marks.Extendee = proto.String("Base")
	f := protoFile("a.proto", "pkg", "proto2", base)
	f.Extension = []*descriptorpb.FieldDescriptorProto{note, marks}

	g := build(t, nil, f)
	assert.True(t, g.Message(protopath.Parse(".pkg.Base")).Extendable)
	require.Len(t, g.Files[0].ExtensionSets, 1)
	set := g.Files[0].ExtensionSets[0]
	assert.Equal(t, "BaseExtensions", set.GoName)
	assert.Equal(t, protopath.Parse(".pkg.Base"), set.Extendee)
	require.Len(t, set.Fields, 2)
	assert.Equal(t, 0, set.Fields[0].HazzerIndex)
	assert.Equal(t, 1, set.HazzerBits)
}

func TestBuildNames(t *testing.T) {
	outer := message("outer_msg", field("reset", 1, tInt32), field("type", 2, tInt32))
	outer.NestedType = []*descriptorpb.DescriptorProto{message("Inner")}
	g := build(t, nil, protoFile("a.proto", "pkg", "proto3", outer))
	m := g.Message(protopath.Parse(".pkg.outer_msg"))
	assert.Equal(t, "OuterMsg", m.GoName)
	assert.Equal(t, "OuterMsg_Inner", m.Nested[0].GoName)
	assert.Equal(t, "Reset_", m.Fields[0].GoName)
	assert.Equal(t, "Type", m.Fields[1].GoName)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		tree  []string
		msg   *descriptorpb.DescriptorProto
		extra []*descriptorpb.DescriptorProto
		want  string
	}{
		{name: "group", msg: message("Msg", field("g", 1, tGroup)), want: "group fields are not supported"},
		{name: "number zero", msg: message("Msg", field("a", 0, tInt32)), want: "field number 0 out of range"},
		{name: "reserved number", msg: message("Msg", field("a", 19500, tInt32)), want: "out of range"},
		{name: "unresolved", msg: message("Msg", withType(field("a", 1, tMessage), ".pkg.Nope")), want: "unresolved type"},
		{
			name:  "skipped target",
			tree:  []string{".pkg.Child:skip"},
			msg:   message("Msg", withType(field("c", 1, tMessage), ".pkg.Child")),
			extra: []*descriptorpb.DescriptorProto{message("Child")},
			want:  "field refers to skipped type",
		},
		{
			name: "missing delegate",
			tree: []string{".pkg.Msg.a:custom_field=delegate:nope"},
			msg:  message("Msg", field("a", 1, tInt32)),
			want: "custom delegate refers to missing field",
		},
		{
			name: "template without max_bytes",
			tree: []string{".pkg.Msg.a:string_type=Str[$N]"},
			msg:  message("Msg", field("a", 1, tString)),
			want: "max_bytes not configured",
		},
		{
			name: "template without max_len",
			tree: []string{".pkg.Msg.a:vec_type=Vec[$T, $N]"},
			msg:  message("Msg", withLabel(field("a", 1, tInt32), repeated)),
			want: "max_len not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := append([]*descriptorpb.DescriptorProto{tt.msg}, tt.extra...)
			err := buildErr(t, configTree(t, tt.tree...), protoFile("a.proto", "pkg", "proto3", msgs...))
			assert.ErrorContains(t, err, tt.want)
			assert.ErrorContains(t, err, ".pkg.Msg")
		})
	}
}

func TestBuildCollision(t *testing.T) {
	tree := configTree(t, ".pkg.Msg.b:rename_field=A")
	f := protoFile("a.proto", "pkg", "proto3", message("Msg", field("a", 1, tInt32), field("b", 2, tInt32)))
	g, err := Build([]*descriptorpb.FileDescriptorProto{f}, Options{Config: tree, Generate: []string{"a.proto"}})
	require.Error(t, err)

	var c Collision
	require.True(t, errors.As(err, &c))
	assert.Equal(t, "A", c.Name)
	// the accessors collide as well
	assert.Len(t, g.Collisions, 1+len(accessorPrefixes))
	assert.Equal(t, "field a", c.Existing)
	assert.Contains(t, c.Error(), "field b")
}

func TestBuildUnmapped(t *testing.T) {
	// imported files resolve references but are not emitted
	dep := protoFile("dep.proto", "dep", "proto3", message("Shared", field("x", 1, tBool)))
	main := protoFile("main.proto", "app", "proto3", message("Use", withType(field("s", 1, tMessage), ".dep.Shared")))
	g, err := Build([]*descriptorpb.FileDescriptorProto{dep, main}, Options{Generate: []string{"main.proto"}})
	require.NoError(t, err)
	assert.False(t, g.Files[0].Generate)
	assert.True(t, g.Files[1].Generate)
	assert.NotNil(t, g.Message(protopath.Parse(".dep.Shared")))
}
