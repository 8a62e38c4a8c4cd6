package golisp

import (
	"fmt"
	"strings"

	"github.com/dolthub/swiss"
)

// symbolTable is the process-local (here: per-Context) intern table
// of §4.5: a hash of the symbol's byte sequence maps to the head of a
// chain of colliding symbols, linked through each symbol object's
// symNext field.  The bucket index itself is backed by a swiss map
// rather than a plain Go map, the way mna-nenuphar backs its
// interpreter's hot lookup tables -- this sits on the define-macro/
// expand hot path alongside the macro table (expand.go).
type symbolTable struct {
	buckets *swiss.Map[uint64, *object]
}

func newSymbolTable() *symbolTable {
	return &symbolTable{buckets: swiss.NewMap[uint64, *object](64)}
}

func fnv1aBytes(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

// intern implements §4.5's three steps: hash, search the chain for
// byte-equality, allocate-and-prepend on miss.
func (st *symbolTable) intern(ctx *Context, name string) Value {
	h := fnv1aBytes(name)
	head, _ := st.buckets.Get(h)
	for o := head; o != nil; o = o.symNext {
		if o.symName == name {
			return Value{tag: TagSymbol, obj: o}
		}
	}
	o := ctx.heap.alloc(TagSymbol)
	o.symName = name
	o.symNext = head
	st.buckets.Put(h, o)
	return Value{tag: TagSymbol, obj: o}
}

// compact is the weak-reference GC pass of §4.1 step 4: symbols moved
// during the flip (state GONE, meaning some other root kept them
// alive) are rehashed into a fresh table; symbols left CLEAR in the
// old table had no other strong reference and are dropped.
func (st *symbolTable) compact() {
	next := newSymbolTable()
	st.buckets.Iter(func(_ uint64, head *object) bool {
		for o := head; o != nil; {
			after := o.symNext
			if o.state == gcGone {
				n := o.forward
				h2 := fnv1aBytes(n.symName)
				existing, _ := next.buckets.Get(h2)
				n.symNext = existing
				next.buckets.Put(h2, n)
			}
			o = after
		}
		return true
	})
	*st = *next
}

// Intern looks up or creates the canonical symbol object for name.
// name is upcased here before lookup, per §4.2/§6, so the reader
// passes symbol tokens through unchanged.
func (ctx *Context) Intern(name string) Value {
	return ctx.symtab.intern(ctx, strings.ToUpper(name))
}

// Gensym allocates a fresh, never-interned symbol: it is produced
// directly on the heap without touching the intern table, so no two
// gensyms -- even with the same prefix -- are ever eq? to one
// another, and the intern table never has to consider them.
func (ctx *Context) Gensym(prefix string) Value {
	ctx.gensymCounter++
	o := ctx.heap.alloc(TagSymbol)
	o.symName = fmt.Sprintf("%s%%%d", prefix, ctx.gensymCounter)
	return Value{tag: TagSymbol, obj: o}
}

// symbolCache holds the reserved primitive symbols of §6, interned
// once at context creation so the evaluator and expander can compare
// against them by pointer equality instead of string comparison.
type symbolCache struct {
	If            Value
	Begin         Value
	Quote         Value
	Quasiquote    Value
	Unquote       Value
	UnquoteSplice Value
	Def           Value
	DefineMacro   Value
	SetBang       Value
	Lambda        Value
	Cons          Value
}

func newSymbolCache(ctx *Context) *symbolCache {
	return &symbolCache{
		If:            ctx.Intern("IF"),
		Begin:         ctx.Intern("BEGIN"),
		Quote:         ctx.Intern("QUOTE"),
		Quasiquote:    ctx.Intern("QUASIQUOTE"),
		Unquote:       ctx.Intern("UNQUOTE"),
		UnquoteSplice: ctx.Intern("UNQUOTESPLICE"),
		Def:           ctx.Intern("_DEF"),
		DefineMacro:   ctx.Intern("DEFINE-MACRO"),
		SetBang:       ctx.Intern("_SET!"),
		Lambda:        ctx.Intern(`/\_`),
		Cons:          ctx.Intern("CONS"),
	}
}

func (c *symbolCache) moveAll(ctx *Context) {
	ctx.move(&c.If)
	ctx.move(&c.Begin)
	ctx.move(&c.Quote)
	ctx.move(&c.Quasiquote)
	ctx.move(&c.Unquote)
	ctx.move(&c.UnquoteSplice)
	ctx.move(&c.Def)
	ctx.move(&c.DefineMacro)
	ctx.move(&c.SetBang)
	ctx.move(&c.Lambda)
	ctx.move(&c.Cons)
}
