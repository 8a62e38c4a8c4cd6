package golisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableSetGet(t *testing.T) {
	ctx := NewContext()
	tab := ctx.NewTable()

	k1 := ctx.Intern("foo")
	k2 := ctx.Intern("bar")

	tab.TableSet(k1, NewInt(1))
	tab.TableSet(k2, NewInt(2))

	v, ok := tab.TableGet(k1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.Int())

	v, ok = tab.TableGet(k2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v.Int())

	_, ok = tab.TableGet(ctx.Intern("missing"))
	assert.False(t, ok)
}

func TestTableOverwrite(t *testing.T) {
	ctx := NewContext()
	tab := ctx.NewTable()
	k := ctx.Intern("x")

	tab.TableSet(k, NewInt(1))
	tab.TableSet(k, NewInt(2))

	v, ok := tab.TableGet(k)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v.Int())
	assert.Equal(t, 1, tab.TableSize())
}

func TestTableResizesAtHalfLoad(t *testing.T) {
	ctx := NewContext()
	tab := ctx.NewTable()

	const n = 100
	keys := make([]Value, n)
	for i := 0; i < n; i++ {
		keys[i] = ctx.Gensym("k")
		tab.TableSet(keys[i], NewInt(int64(i)))
	}

	for i, k := range keys {
		v, ok := tab.TableGet(k)
		assert.True(t, ok)
		assert.Equal(t, int64(i), v.Int())
	}
	assert.Equal(t, n, tab.TableSize())

	// capacity must always stay a power of two
	o := tab.asObject(TagTable)
	cap := len(o.tabKeys)
	assert.Equal(t, 0, cap&(cap-1))
}

func TestTableToAlist(t *testing.T) {
	ctx := NewContext()
	tab := ctx.NewTable()
	tab.TableSet(ctx.Intern("a"), NewInt(1))

	alist := ctx.TableToAlist(tab)
	assert.True(t, alist.IsPair())
	entry := alist.Car()
	assert.Equal(t, "A", entry.Car().SymbolName())
	assert.Equal(t, int64(1), entry.Cdr().Int())
}
