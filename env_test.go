package golisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvDefineAndLookup(t *testing.T) {
	ctx := NewContext()
	env := ctx.envExtend(Nil)
	sym := ctx.Intern("x")

	_, ok := envLookup(env, sym)
	assert.False(t, ok)

	envDefine(env, sym, NewInt(42))
	v, ok := envLookup(env, sym)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int())
}

func TestEnvLookupInnerShadowsOuter(t *testing.T) {
	ctx := NewContext()
	sym := ctx.Intern("x")
	outer := ctx.envExtend(Nil)
	envDefine(outer, sym, NewInt(1))

	inner := ctx.envExtend(outer)
	envDefine(inner, sym, NewInt(2))

	v, ok := envLookup(inner, sym)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Int())
}

func TestEnvSetMutatesDefiningFrame(t *testing.T) {
	ctx := NewContext()
	sym := ctx.Intern("x")
	outer := ctx.envExtend(Nil)
	envDefine(outer, sym, NewInt(1))
	inner := ctx.envExtend(outer)

	err := envSet(inner, sym, NewInt(99))
	require.NoError(t, err)

	v, _ := envLookup(outer, sym)
	assert.Equal(t, int64(99), v.Int())
}

func TestEnvSetUndefinedIsError(t *testing.T) {
	ctx := NewContext()
	env := ctx.envExtend(Nil)
	err := envSet(env, ctx.Intern("never-bound"), NewInt(1))
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedVar, CodeOf(err))
}
