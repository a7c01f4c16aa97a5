package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescapeC(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{`plain`, []byte("plain")},
		{`a\nb\tc`, []byte("a\nb\tc")},
		{`\a\b\f\r\v`, []byte{7, 8, 12, 13, 11}},
		{`\\\?\'\"`, []byte(`\?'"`)},
		{`\0`, []byte{0}},
		{`\101\1012`, []byte("AA2")},
		{`\377`, []byte{0xff}},
		{`\x41\XfF`, []byte{0x41, 0xff}},
		{``, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := unescapeC(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnescapeCErrors(t *testing.T) {
	for _, in := range []string{`abc\`, `\q`, `\x4`, `\xzz`, `\400`} {
		t.Run(in, func(t *testing.T) {
			_, err := unescapeC(in)
			assert.Error(t, err)
		})
	}
}

func TestGoBytesLiteral(t *testing.T) {
	assert.Equal(t, `"ab"`, goBytesLiteral([]byte("ab")))
	assert.Equal(t, `"\x00\xff\"\\"`, goBytesLiteral([]byte{0, 0xff, '"', '\\'}))
	assert.Equal(t, `"\x0a"`, goBytesLiteral([]byte("\n")))
}
