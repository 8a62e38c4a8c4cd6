package golisp

import "github.com/dolthub/swiss"

// macroTable holds NAME -> expander LAMBDA bindings installed by
// define-macro (§4.3).  Backed by a swiss map, same rationale as the
// symbol table's bucket index: this sits on the hot expand path run
// before every top-level Eval.
type macroTable struct {
	byName *swiss.Map[string, Value]
}

func newMacroTable() *macroTable {
	return &macroTable{byName: swiss.NewMap[string, Value](16)}
}

func (mt *macroTable) define(name string, expander Value) {
	mt.byName.Put(name, expander)
}

func (mt *macroTable) lookup(name string) (Value, bool) {
	return mt.byName.Get(name)
}

// moveAll roots every stored macro LAMBDA across a GC flip -- the
// macro table is reachable from the context, not from any value the
// evaluator is holding, so it needs its own move pass.
func (mt *macroTable) moveAll(ctx *Context) {
	type pair struct {
		name string
		val  Value
	}
	var all []pair
	mt.byName.Iter(func(name string, v Value) bool {
		all = append(all, pair{name, v})
		return true
	})
	fresh := swiss.NewMap[string, Value](mt.byName.Count())
	for _, p := range all {
		v := p.val
		ctx.move(&v)
		fresh.Put(p.name, v)
	}
	mt.byName = fresh
}

// Expand applies the macro expander of §4.3 to a single top-level
// form before it reaches Eval.  The tree is rewritten in post-order:
//
//	(quote X)              -- left untouched, X is never descended into
//	(quasiquote X)         -- resolved entirely at expand time into a
//	                          cons/quote tree by expandQuasiquote; the
//	                          result carries no quasiquote form for
//	                          Eval to see
//	(define-macro NAME E)  -- E is expanded and evaluated immediately in
//	                          the global environment; the resulting
//	                          LAMBDA is stored under NAME and the whole
//	                          form rewrites to NAME's quoted symbol
//	(OP args...)           -- when OP names a stored macro, OP is
//	                          applied to args (unevaluated) and the
//	                          result is expanded again
//	otherwise              -- each element of the pair list is expanded
//	                          in place
func (ctx *Context) Expand(form Value) (Value, error) {
	if !form.IsPair() {
		return form, nil
	}

	head := form.Car()
	if head.tag == TagSymbol {
		switch {
		case Eq(head, ctx.cache.Quote):
			return form, nil
		case Eq(head, ctx.cache.Quasiquote):
			return ctx.expandQuasiquote(form.Cdr().Car())
		case Eq(head, ctx.cache.UnquoteSplice):
			return Nil, newErr(ErrFormSyntax, "unquote-splice: not valid outside quasiquote")
		case Eq(head, ctx.cache.DefineMacro):
			return ctx.expandDefineMacro(form)
		case ctx.macroNamed(head):
			expander, _ := ctx.macros.lookup(head.SymbolName())
			expanded, err := ctx.Apply(expander, form.Cdr())
			if err != nil {
				return Nil, err
			}
			return ctx.Expand(expanded)
		}
	}

	return ctx.expandList(form)
}

func (ctx *Context) macroNamed(sym Value) bool {
	_, ok := ctx.macros.lookup(sym.SymbolName())
	return ok
}

func (ctx *Context) expandDefineMacro(form Value) (Value, error) {
	args := form.Cdr()
	if !args.IsPair() || !args.Cdr().IsPair() {
		return Nil, newErr(ErrFormSyntax, "define-macro: expected (define-macro NAME EXPR)")
	}
	name := args.Car()
	if name.tag != TagSymbol {
		return Nil, newErr(ErrFormSyntax, "define-macro: NAME must be a symbol")
	}
	rhs, err := ctx.Expand(args.Cdr().Car())
	if err != nil {
		return Nil, err
	}
	expander, err := ctx.Eval(rhs, ctx.globalEnv)
	if err != nil {
		return Nil, err
	}
	ctx.macros.define(name.SymbolName(), expander)
	return ctx.NewPair(ctx.cache.Quote, ctx.NewPair(name, Nil)), nil
}

// expandList walks a plain application/pair form, expanding every
// element while preserving any dotted tail.
func (ctx *Context) expandList(form Value) (Value, error) {
	if form.IsNil() {
		return form, nil
	}
	if !form.IsPair() {
		return form, nil
	}
	car, err := ctx.Expand(form.Car())
	if err != nil {
		return Nil, err
	}
	cdr, err := ctx.expandList(form.Cdr())
	if err != nil {
		return Nil, err
	}
	return ctx.NewPair(car, cdr), nil
}

// expandQuasiquote implements the literal three-case rewrite of §4.3:
// an atom becomes (quote atom); (unquote E) becomes E, itself expanded
// as an ordinary form; anything else becomes (cons EXPAND(car)
// EXPAND(cdr)).  The result contains no quasiquote/unquote forms at
// all once this returns -- Eval never special-cases quasiquote
// because by the time a form reaches it, this rewrite has already
// resolved it into cons/quote applications.
//
// unquote-splice has no core rewrite (§9(a)): splicing in proper-list
// position is left to a user-level macro layer built atop this
// primitive rewrite, so any (unquote-splice E) encountered anywhere in
// the quasiquoted tree -- not just at the top -- is a hard
// FORM_SYNTAX error, matching the original's expand_quasi_r.
func (ctx *Context) expandQuasiquote(form Value) (Value, error) {
	if !form.IsPair() {
		return ctx.NewPair(ctx.cache.Quote, ctx.NewPair(form, Nil)), nil
	}
	head := form.Car()
	if head.tag == TagSymbol {
		if Eq(head, ctx.cache.Unquote) {
			return ctx.Expand(form.Cdr().Car())
		}
		if Eq(head, ctx.cache.UnquoteSplice) {
			return Nil, newErr(ErrFormSyntax, "unquote-splice: not valid in core quasiquote")
		}
	}
	car, err := ctx.expandQuasiquote(form.Car())
	if err != nil {
		return Nil, err
	}
	cdr, err := ctx.expandQuasiquote(form.Cdr())
	if err != nil {
		return Nil, err
	}
	return ctx.NewPair(ctx.cache.Cons, ctx.NewPair(car, ctx.NewPair(cdr, Nil))), nil
}
