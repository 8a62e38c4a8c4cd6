package golisp

import (
	"bufio"
	"io"
	"os"
)

// Context is the opaque handle of the embedding API (§6): it owns the
// heap, the value stack, the three byte streams, the interned-symbol
// table, the global environment, the macro table, the symbol cache,
// the gensym counter, and GC statistics -- every piece of
// per-interpreter state named in §2, with nothing left as process-
// global aside from the static named-character table (§6), which
// needs no per-context state at all.
type Context struct {
	heap *heap
	cfg  *Config

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	symtab *symbolTable
	cache  *symbolCache
	macros *macroTable

	globalEnv Value

	valueStack    []Value
	gensymCounter uint64

	stats GCStats
}

// NewContext builds a context with its own heap, global environment,
// and symbol table, wired to the process's standard streams until
// SetIn/SetOut/SetErr are called.
func NewContext() *Context {
	cfg := NewConfig()
	ctx := &Context{
		cfg:    cfg,
		heap:   newHeap(cfg.GetInt(CfgPageSize)),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		errOut: os.Stderr,
		symtab: newSymbolTable(),
	}
	ctx.macros = newMacroTable()
	ctx.cache = newSymbolCache(ctx)
	ctx.globalEnv = ctx.NewPair(ctx.NewTable(), Nil)
	return ctx
}

// Close releases the context.  The heap is reclaimed by Go's own
// garbage collector once the context itself becomes unreachable;
// this exists for API symmetry with the init/shutdown pair of §6 and
// as a place for a future host-visible teardown hook.
func (ctx *Context) Close() {}

func (ctx *Context) Config() *Config { return ctx.cfg }

func (ctx *Context) SetIn(r io.Reader)   { ctx.in = bufio.NewReader(r) }
func (ctx *Context) SetOut(w io.Writer)  { ctx.out = w }
func (ctx *Context) SetErr(w io.Writer)  { ctx.errOut = w }

func (ctx *Context) GlobalEnv() Value { return ctx.globalEnv }
func (ctx *Context) Stats() GCStats   { return ctx.stats }

// pushRoot/popRootsTo push/pop a GC root onto the value stack, bounded
// by §6's LISP_STACK_DEPTH invariant.  Every recursive Eval call
// pushes its live heap-pointer locals before recursing, per §4.4.
func (ctx *Context) pushRoot(v Value) int {
	if len(ctx.valueStack) >= ctx.cfg.GetInt(CfgStackDepth) {
		panic(&LispError{Code: ErrRuntime, Message: "value stack overflow", Offset: -1})
	}
	ctx.valueStack = append(ctx.valueStack, v)
	return len(ctx.valueStack) - 1
}

func (ctx *Context) popRootsTo(depth int) {
	ctx.valueStack = ctx.valueStack[:depth]
}

// ---- value constructors (§6) ----

func (ctx *Context) NewPair(car, cdr Value) Value {
	o := ctx.heap.alloc(TagPair)
	o.pairCar, o.pairCdr = car, cdr
	return Value{tag: TagPair, obj: o}
}

// NewList builds a proper list from a slice, tail first.
func (ctx *Context) NewList(items []Value) Value {
	result := Nil
	for i := len(items) - 1; i >= 0; i-- {
		result = ctx.NewPair(items[i], result)
	}
	return result
}

func (ctx *Context) NewString(s string) Value {
	o := ctx.heap.alloc(TagString)
	o.strBytes = []byte(s)
	return Value{tag: TagString, obj: o}
}

// NewBuffer allocates a mutable string with a declared capacity,
// zero-filled, for callers that want to grow into it in place.
func (ctx *Context) NewBuffer(capacity int) Value {
	o := ctx.heap.alloc(TagString)
	o.strBytes = make([]byte, capacity)
	return Value{tag: TagString, obj: o}
}

func (ctx *Context) NewVector(items []Value) Value {
	o := ctx.heap.alloc(TagVector)
	o.vecItems = append([]Value(nil), items...)
	return Value{tag: TagVector, obj: o}
}

func (ctx *Context) NewVectorOfLen(n int, fill Value) Value {
	items := make([]Value, n)
	for i := range items {
		items[i] = fill
	}
	o := ctx.heap.alloc(TagVector)
	o.vecItems = items
	return Value{tag: TagVector, obj: o}
}

// NewLambda constructs a LAMBDA closing over env, which must be a
// list of TABLEs (§3).
func (ctx *Context) NewLambda(args, body, env Value) Value {
	o := ctx.heap.alloc(TagLambda)
	o.lamArgs, o.lamBody, o.lamEnv = args, body, env
	return Value{tag: TagLambda, obj: o}
}

// NewNative wraps a host function as a FUNC value.
func (ctx *Context) NewNative(fn NativeFunc) Value { return newFunc(fn) }

func (ctx *Context) NewPromise(thunk Value) Value {
	o := ctx.heap.alloc(TagPromise)
	o.promThunk = thunk
	return Value{tag: TagPromise, obj: o}
}

// InstallFuncs installs a batch of {name, native-function} bindings
// into an existing TABLE, interning each name as it goes -- the
// mechanism the (out of scope) standard library uses to register
// itself into the global environment.
func (ctx *Context) InstallFuncs(table Value, fns map[string]NativeFunc) {
	for name, fn := range fns {
		table.TableSet(ctx.Intern(name), ctx.NewNative(fn))
	}
}
