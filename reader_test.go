package golisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAtoms(t *testing.T) {
	ctx := NewContext()
	for _, test := range []struct {
		Name     string
		Src      string
		Expected string
	}{
		{"int", "42", "42"},
		{"negative-int", "-17", "-17"},
		{"float", "3.14", "3.140000"},
		{"negative-float", "-0.5", "-0.500000"},
		{"bool-true", "#t", "#t"},
		{"bool-false", "#f", "#f"},
		{"string", `"hello world"`, `"hello world"`},
		{"string-escape", `"a\nb"`, `"a\nb"`},
		{"symbol", "foo-bar?", "FOO-BAR?"},
		{"char-literal", `#\a`, `#\a`},
		{"char-named", `#\newline`, `#\newline`},
		{"char-space", `#\space`, `#\space`},
	} {
		t.Run(test.Name, func(t *testing.T) {
			v, err := ctx.ReadString(test.Src)
			require.NoError(t, err)
			assert.Equal(t, test.Expected, ctx.WriteString(v))
		})
	}
}

func TestReadLists(t *testing.T) {
	ctx := NewContext()
	for _, test := range []struct {
		Name     string
		Src      string
		Expected string
	}{
		{"empty-list", "()", "()"},
		{"proper-list", "(1 2 3)", "(1 2 3)"},
		{"nested-list", "(1 (2 3) 4)", "(1 (2 3) 4)"},
		{"dotted-pair", "(1 . 2)", "(1 . 2)"},
		{"dotted-list", "(1 2 . 3)", "(1 2 . 3)"},
		{"vector", "#(1 2 3)", "#(1 2 3)"},
		{"quote", "'x", "'X"},
		{"quasiquote", "`x", "`X"},
		{"unquote", ",x", ",X"},
		{"unquote-splice", ",@x", ",@X"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			v, err := ctx.ReadString(test.Src)
			require.NoError(t, err)
			assert.Equal(t, test.Expected, ctx.WriteString(v))
		})
	}
}

func TestReadMultipleTopLevelFormsWrapsInBegin(t *testing.T) {
	ctx := NewContext()
	v, err := ctx.ReadString("1 2 3")
	require.NoError(t, err)
	assert.True(t, v.IsPair())
	assert.Equal(t, "BEGIN", v.Car().SymbolName())
	assert.Equal(t, "(BEGIN 1 2 3)", ctx.WriteString(v))
}

func TestReadEmptyStreamYieldsEOF(t *testing.T) {
	ctx := NewContext()
	v, err := ctx.ReadString("   ; just a comment\n")
	require.NoError(t, err)
	assert.True(t, v.IsEOF())
}

func TestReadSyntaxErrors(t *testing.T) {
	ctx := NewContext()
	for _, test := range []struct {
		Name string
		Src  string
	}{
		{"unterminated-list", "(1 2"},
		{"unterminated-string", `"abc`},
		{"unexpected-close-paren", ")"},
		{"dot-at-start", "(. 1)"},
		{"newline-in-string", "\"a\nb\""},
	} {
		t.Run(test.Name, func(t *testing.T) {
			_, err := ctx.ReadString(test.Src)
			require.Error(t, err)
			assert.Equal(t, ErrReadSyntax, CodeOf(err))
		})
	}
}
