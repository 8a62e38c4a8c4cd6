package golisp

// Eval is the tree-walking evaluator of §4.4. It recognizes the
// handful of primitive forms reserved in §6 (IF, BEGIN, QUOTE, _DEF,
// _SET!, the lambda symbol) by pointer equality against the context's
// symbol cache, then falls through to application. QUASIQUOTE is
// never among them: Expand fully resolves it into cons/quote
// applications before a form ever reaches Eval.
//
// Tail positions -- the branch taken by IF, the last form of a BEGIN,
// and a LAMBDA's final body expression -- are implemented by
// reassigning form/env and looping instead of recursing, so a tail
// call never grows the Go call stack.
func (ctx *Context) Eval(form Value, env Value) (Value, error) {
	for {
		switch form.tag {
		case TagSymbol:
			v, ok := envLookup(env, form)
			if !ok {
				return Nil, newErr(ErrUndefinedVar, "unbound variable %s", form.SymbolName())
			}
			return v, nil
		case TagPair:
			// handled below
		default:
			return form, nil
		}

		head := form.Car()
		if head.tag == TagSymbol {
			switch {
			case Eq(head, ctx.cache.Quote):
				return form.Cdr().Car(), nil

			case Eq(head, ctx.cache.If):
				args := form.Cdr()
				test, err := ctx.Eval(args.Car(), env)
				if err != nil {
					return Nil, err
				}
				rest := args.Cdr()
				if test.Truthy() {
					form = rest.Car()
				} else if rest.Cdr().IsPair() {
					form = rest.Cdr().Car()
				} else {
					return Nil, nil
				}
				continue

			case Eq(head, ctx.cache.Begin):
				body := form.Cdr()
				if body.IsNil() {
					return Nil, nil
				}
				for body.Cdr().IsPair() {
					if _, err := ctx.Eval(body.Car(), env); err != nil {
						return Nil, err
					}
					body = body.Cdr()
				}
				form = body.Car()
				continue

			case Eq(head, ctx.cache.Def):
				args := form.Cdr()
				sym := args.Car()
				val, err := ctx.Eval(args.Cdr().Car(), env)
				if err != nil {
					return Nil, err
				}
				envDefine(env, sym, val)
				return sym, nil

			case Eq(head, ctx.cache.SetBang):
				args := form.Cdr()
				sym := args.Car()
				val, err := ctx.Eval(args.Cdr().Car(), env)
				if err != nil {
					return Nil, err
				}
				if err := envSet(env, sym, val); err != nil {
					return Nil, err
				}
				return sym, nil

			case Eq(head, ctx.cache.Lambda):
				args := form.Cdr()
				return ctx.NewLambda(args.Car(), args.Cdr(), env), nil
			}
		}

		proc, err := ctx.Eval(head, env)
		if err != nil {
			return Nil, err
		}
		root := ctx.pushRoot(proc)
		argv, err := ctx.evalArgs(form.Cdr(), env)
		if err != nil {
			ctx.popRootsTo(root)
			return Nil, err
		}
		ctx.popRootsTo(root)

		if proc.tag != TagLambda {
			return ctx.Apply(proc, argv)
		}

		newEnv, err := ctx.bindArgs(proc, argv)
		if err != nil {
			return Nil, err
		}
		body := proc.LambdaBody()
		if body.IsNil() {
			return Nil, nil
		}
		for body.Cdr().IsPair() {
			if _, err := ctx.Eval(body.Car(), newEnv); err != nil {
				return Nil, err
			}
			body = body.Cdr()
		}
		form, env = body.Car(), newEnv
	}
}

// evalArgs evaluates an application's argument list left to right,
// rooting each result while later arguments are evaluated.
func (ctx *Context) evalArgs(list Value, env Value) (Value, error) {
	if list.IsNil() {
		return Nil, nil
	}
	head, err := ctx.Eval(list.Car(), env)
	if err != nil {
		return Nil, err
	}
	root := ctx.pushRoot(head)
	rest, err := ctx.evalArgs(list.Cdr(), env)
	ctx.popRootsTo(root)
	if err != nil {
		return Nil, err
	}
	return ctx.NewPair(head, rest), nil
}

// bindArgs extends a LAMBDA's closure environment with a fresh frame
// binding its formal parameters to argv. The parameter list may be a
// proper list, a dotted list (trailing symbol gathers the remaining
// arguments), or a bare symbol (gathers every argument).
func (ctx *Context) bindArgs(lambda, argv Value) (Value, error) {
	env := ctx.envExtend(lambda.LambdaEnv())
	params := lambda.LambdaArgs()
	for {
		if params.tag == TagSymbol {
			envDefine(env, params, argv)
			return env, nil
		}
		if params.IsNil() {
			if !argv.IsNil() {
				return Nil, newErr(ErrTooManyArgs, "too many arguments")
			}
			return env, nil
		}
		if !params.IsPair() {
			return Nil, newErr(ErrFormSyntax, "malformed parameter list")
		}
		if argv.IsNil() {
			return Nil, newErr(ErrTooFewArgs, "too few arguments")
		}
		envDefine(env, params.Car(), argv.Car())
		params = params.Cdr()
		argv = argv.Cdr()
	}
}

// Apply invokes proc -- a LAMBDA, a native FUNC, or a captured JUMP
// -- against an already-evaluated argument list. Eval inlines the
// LAMBDA case itself to keep tail calls in a loop; Apply is the
// non-tail-call entry point used by the expander, call/cc, and native
// higher-order procedures like (apply f args).
func (ctx *Context) Apply(proc, argv Value) (Value, error) {
	switch proc.tag {
	case TagLambda:
		env, err := ctx.bindArgs(proc, argv)
		if err != nil {
			return Nil, err
		}
		return ctx.Eval(ctx.NewPair(ctx.cache.Begin, proc.LambdaBody()), env)

	case TagFunc:
		return proc.fn(ctx, argv)

	case TagJump:
		o := proc.asObject(TagJump)
		if !o.jumpValid {
			return Nil, newErr(ErrRuntime, "continuation invoked outside its dynamic extent")
		}
		result := Nil
		if argv.IsPair() {
			result = argv.Car()
		}
		panic(&continuationSignal{jump: o, result: result})

	default:
		return Nil, newErr(ErrBadOp, "object of type %s is not applicable", proc.tag)
	}
}

// CallCC implements call-with-current-continuation (§6): proc is
// invoked with a single JUMP argument that, applied to one value,
// unwinds back to this call by panicking a continuationSignal caught
// right here -- the Go analog of the source's setjmp/longjmp. The
// JUMP is marked invalid the instant this call returns by any path,
// so invoking it again later surfaces ErrRuntime instead of an
// uncaught panic.
func (ctx *Context) CallCC(proc Value) (result Value, err error) {
	depth := len(ctx.valueStack)
	o := ctx.heap.alloc(TagJump)
	o.jumpDepth = depth
	o.jumpValid = true
	jumpVal := Value{tag: TagJump, obj: o}

	defer func() { o.jumpValid = false }()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sig, ok := r.(*continuationSignal)
		if !ok || sig.jump != o {
			panic(r)
		}
		ctx.popRootsTo(depth)
		result, err = sig.result, nil
	}()

	return ctx.Apply(proc, ctx.NewPair(jumpVal, Nil))
}

