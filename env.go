package golisp

// An environment is a list of TABLEs, innermost frame first, per
// spec.md §3/§4.5.  There is no dedicated Go type for it: it is built
// entirely from the same PAIR/TABLE heap values every other list is,
// so it participates in the GC flip exactly like any other reachable
// structure with no special-casing in heap.go.

// envLookup scans frames leftmost (innermost) first, returning the
// first binding found.
func envLookup(env, sym Value) (Value, bool) {
	for !env.IsNil() {
		if v, ok := env.Car().TableGet(sym); ok {
			return v, true
		}
		env = env.Cdr()
	}
	return Nil, false
}

// envDefine writes into the leftmost frame, creating or overwriting
// the binding.
func envDefine(env, sym, val Value) {
	env.Car().TableSet(sym, val)
}

// envSet finds the first frame containing sym and mutates it there;
// absence is always an ErrUndefinedVar, per DESIGN.md's resolution of
// open question (b).
func envSet(env, sym, val Value) error {
	for e := env; !e.IsNil(); e = e.Cdr() {
		if _, ok := e.Car().TableGet(sym); ok {
			e.Car().TableSet(sym, val)
			return nil
		}
	}
	return newErr(ErrUndefinedVar, "set!: unbound variable %s", sym.SymbolName())
}

// envExtend pushes a fresh, empty frame in front of env -- used when
// applying a LAMBDA to bind its formal parameters.
func (ctx *Context) envExtend(env Value) Value {
	return ctx.NewPair(ctx.NewTable(), env)
}
