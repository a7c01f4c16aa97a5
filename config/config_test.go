package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

func TestTree_Lookup(t *testing.T) {
	tree := NewTree()
	tree.Add(nil, Override{MaxLen: lo.ToPtr(uint32(4)), NoDebugImpl: lo.ToPtr(true)})
	tree.Add(protopath.Parse(".pkg"), Override{MaxLen: lo.ToPtr(uint32(8))})
	tree.Add(protopath.Parse(".pkg.Msg.field"), Override{Boxed: lo.ToPtr(true)})

	o := tree.Lookup(protopath.Parse(".pkg.Msg.field"))
	assert.Equal(t, uint32(8), *o.MaxLen)
	assert.True(t, *o.Boxed)
	assert.True(t, *o.NoDebugImpl)

	o = tree.Lookup(protopath.Parse(".other.Msg"))
	assert.Equal(t, uint32(4), *o.MaxLen)
	assert.Nil(t, o.Boxed)

	_, ok := tree.Node(protopath.Parse(".pkg.Msg"))
	assert.True(t, ok, "intermediate nodes exist")
	_, ok = tree.Node(protopath.Parse(".nope"))
	assert.False(t, ok)

	assert.Equal(t, []protopath.Path{
		{"pkg"}, {"pkg", "Msg"}, {"pkg", "Msg", "field"},
	}, tree.Paths())
}

func TestTree_AddMerges(t *testing.T) {
	tree := NewTree()
	p := protopath.Parse(".pkg.Msg")
	tree.Add(p, Override{MaxLen: lo.ToPtr(uint32(1)), Skip: lo.ToPtr(false)})
	tree.Add(p, Override{MaxLen: lo.ToPtr(uint32(2))})

	o, ok := tree.Node(p)
	require.True(t, ok)
	assert.Equal(t, uint32(2), *o.MaxLen)
	assert.False(t, *o.Skip)
}

func TestOverride_Set(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(t *testing.T, o Override)
	}{
		{"skip", "", func(t *testing.T, o Override) { assert.True(t, *o.Skip) }},
		{"boxed", "false", func(t *testing.T, o Override) { assert.False(t, *o.Boxed) }},
		{"optional_repr", "option", func(t *testing.T, o Override) { assert.Equal(t, ReprOption, *o.OptionalRepr) }},
		{"max_bytes", "32", func(t *testing.T, o Override) { assert.Equal(t, uint32(32), *o.MaxBytes) }},
		{"int_size", "16", func(t *testing.T, o Override) { assert.Equal(t, Int16, *o.IntSize) }},
		{"enum_int_size", "8", func(t *testing.T, o Override) { assert.Equal(t, Int8, *o.EnumIntSize) }},
		{"vec_type", "micropb.FixedVec[$T] = micropb.NewFixedVec[$T]($N)", func(t *testing.T, o Override) {
			assert.Equal(t, "micropb.FixedVec[$T] = micropb.NewFixedVec[$T]($N)", *o.VecType)
		}},
		{"custom_field", "delegate:other", func(t *testing.T, o Override) {
			assert.Equal(t, CustomField{Kind: CustomDelegate, Target: "other"}, *o.CustomField)
		}},
		{"strip_enum_prefix", "true", func(t *testing.T, o Override) { assert.True(t, *o.StripEnumPrefix) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var o Override
			require.NoError(t, o.Set(tt.key, tt.value))
			tt.check(t, o)
		})
	}
}

func TestOverride_SetErrors(t *testing.T) {
	tests := []struct{ key, value string }{
		{"max_len", "-1"},
		{"int_size", "12"},
		{"optional_repr", "maybe"},
		{"custom_field", "handler"},
		{"custom_field", "other:x"},
		{"boxed", "yes please"},
		{"no_such_key", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var o Override
			require.Error(t, o.Set(tt.key, tt.value))
		})
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("paths=source_relative,dump_ir=ir.json,.pkg.Msg.items:max_len=8,.pkg:no_clone_impl,Mfoo.proto=example.com/foo")
	require.NoError(t, err)
	assert.Equal(t, "ir.json", s.DumpIR)
	assert.Equal(t, DefaultSuffix, s.Suffix)

	o := s.Tree.Lookup(protopath.Parse(".pkg.Msg.items"))
	assert.Equal(t, uint32(8), *o.MaxLen)
	assert.True(t, *o.NoCloneImpl)

	_, err = Parse("bogus=1")
	require.Error(t, err)
	_, err = Parse(".pkg:max_len=x")
	require.Error(t, err)
}

func TestParseWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "micropb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
suffix: .mpb.go
overrides:
  .pkg.Msg:
    max_len: 4
    optional_repr: Hazzer
  .pkg.Msg.name:
    string_type: "micropb.FixedString = micropb.NewFixedString($N)"
    max_bytes: 16
`), 0o600))

	s, err := Parse("config=" + path + ",.pkg.Msg:max_len=6")
	require.NoError(t, err)
	assert.Equal(t, path, s.ConfigFile)
	assert.Equal(t, ".mpb.go", s.Suffix)

	o := s.Tree.Lookup(protopath.Parse(".pkg.Msg.name"))
	assert.Equal(t, uint32(6), *o.MaxLen, "parameters win over the file")
	assert.Equal(t, uint32(16), *o.MaxBytes)
	assert.Equal(t, ReprHazzer, *o.OptionalRepr)
	assert.Equal(t, "micropb.FixedString = micropb.NewFixedString($N)", *o.StringType)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	s := &Settings{}
	err := s.Load([]byte("overrides:\n  .pkg:\n    max_lenn: 3\n"))
	require.Error(t, err)

	require.NoError(t, s.Load(nil))
}

func TestGet(t *testing.T) {
	assert.Equal(t, 3, Get(nil, 3))
	assert.Equal(t, 5, Get(lo.ToPtr(5), 3))
}
