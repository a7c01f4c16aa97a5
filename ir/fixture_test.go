package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

type fieldType = descriptorpb.FieldDescriptorProto_Type

const (
	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tSint64  = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tGroup   = descriptorpb.FieldDescriptorProto_TYPE_GROUP

	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	required = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

func protoFile(name, pkg, syntax string, msgs ...*descriptorpb.DescriptorProto) *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:        proto.String(name),
		Package:     proto.String(pkg),
		Syntax:      proto.String(syntax),
		MessageType: msgs,
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func field(name string, num int32, typ fieldType) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  optional.Enum(),
	}
}

func withLabel(f *descriptorpb.FieldDescriptorProto, l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
	f.Label = l.Enum()
	return f
}

func withType(f *descriptorpb.FieldDescriptorProto, ref string) *descriptorpb.FieldDescriptorProto {
	f.TypeName = proto.String(ref)
	return f
}

func inOneof(f *descriptorpb.FieldDescriptorProto, idx int32) *descriptorpb.FieldDescriptorProto {
	f.OneofIndex = proto.Int32(idx)
	return f
}

func mapEntry(name string, key, val *descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	m := message(name, key, val)
	m.Options = &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)}
	return m
}

// configTree builds a tree from "path:key=value" entries.
func configTree(t *testing.T, entries ...string) *config.Tree {
	t.Helper()
	tree := config.NewTree()
	for _, raw := range entries {
		path, kv, _ := strings.Cut(raw, ":")
		key, value, _ := strings.Cut(kv, "=")
		var o config.Override
		require.NoError(t, o.Set(key, value))
		tree.Add(protopath.Parse(path), o)
	}
	return tree
}

func build(t *testing.T, tree *config.Tree, files ...*descriptorpb.FileDescriptorProto) *Graph {
	t.Helper()
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.GetName())
	}
	g, err := Build(files, Options{Config: tree, Generate: names})
	require.NoError(t, err)
	return g
}

func buildErr(t *testing.T, tree *config.Tree, files ...*descriptorpb.FileDescriptorProto) error {
	t.Helper()
	_, err := Build(files, Options{Config: tree})
	require.Error(t, err)
	return err
}

func fieldByName(t *testing.T, m *Message, name string) *Field {
	t.Helper()
	for _, f := range m.AllFields() {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no field %s in %s", name, m.Path)
	return nil
}
