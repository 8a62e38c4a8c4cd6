package golisp

import "fmt"

// argSlice flattens a proper argument list into a Go slice so native
// procedures can index and range over it instead of walking pairs by
// hand.
func argSlice(args Value) []Value {
	var out []Value
	for !args.IsNil() {
		out = append(out, args.Car())
		args = args.Cdr()
	}
	return out
}

func checkArity(name string, got []Value, min, max int) error {
	if len(got) < min {
		return newErr(ErrTooFewArgs, "%s: expected at least %d argument(s), got %d", name, min, len(got))
	}
	if max >= 0 && len(got) > max {
		return newErr(ErrTooManyArgs, "%s: expected at most %d argument(s), got %d", name, max, len(got))
	}
	return nil
}

func wantType(name string, v Value, tag Tag) error {
	if v.tag != tag {
		return newErr(ErrArgType, "%s: expected %s, got %s", name, tag, v.tag)
	}
	return nil
}

// InstallBuiltins populates table with the primitive procedures of
// §6's embedding surface: arithmetic, pair/list/vector/string
// accessors, equivalence predicates, I/O, and call/cc. A fresh
// Context's global environment does not carry these automatically --
// callers wire them in explicitly with InstallBuiltins(ctx.GlobalEnv().Car()),
// the same opt-in shape InstallFuncs already offers for a host's own
// native extensions.
func (ctx *Context) InstallBuiltins(table Value) {
	ctx.InstallFuncs(table, map[string]NativeFunc{
		"+":       builtinAdd,
		"-":       builtinSub,
		"*":       builtinMul,
		"/":       builtinDiv,
		"=":       builtinNumEq,
		"<":       builtinLt,
		">":       builtinGt,
		"<=":      builtinLe,
		">=":      builtinGe,
		"cons":    builtinCons,
		"car":     builtinCar,
		"cdr":     builtinCdr,
		"set-car!": builtinSetCar,
		"set-cdr!": builtinSetCdr,
		"list":    builtinList,
		"null?":   builtinNullP,
		"pair?":   builtinPairP,
		"symbol?": builtinSymbolP,
		"string?": builtinStringP,
		"number?": builtinNumberP,
		"procedure?": builtinProcedureP,
		"vector?": builtinVectorP,
		"not":     builtinNot,
		"eq?":     builtinEqP,
		"equal?":  builtinEqualP,
		"display": builtinDisplay,
		"write":   builtinWrite,
		"newline": builtinNewline,
		"apply":   builtinApply,
		"call/cc": builtinCallCC,
		"call-with-current-continuation": builtinCallCC,
		"gensym":        builtinGensym,
		"vector":        builtinVector,
		"make-vector":   builtinMakeVector,
		"vector-ref":    builtinVectorRef,
		"vector-set!":   builtinVectorSet,
		"vector-length": builtinVectorLength,
		"vector-fill!":  builtinVectorFill,
		"string-length": builtinStringLength,
		"string-ref":    builtinStringRef,
		"force":           builtinForce,
		"error":           builtinError,
		"collect-garbage": builtinCollectGarbage,
		"quotient":        builtinQuotient,
		"remainder":       builtinRemainder,
	})
}

func numAsFloat(v Value) (float64, error) {
	switch v.tag {
	case TagInt:
		return float64(v.Int()), nil
	case TagReal:
		return v.Real(), nil
	default:
		return 0, newErr(ErrArgType, "expected a number, got %s", v.tag)
	}
}

func bothInt(a, b Value) bool { return a.tag == TagInt && b.tag == TagInt }

func builtinAdd(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if len(vs) == 0 {
		return NewInt(0), nil
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		var err error
		acc, err = numAdd(acc, v)
		if err != nil {
			return Nil, err
		}
	}
	return acc, nil
}

func numAdd(a, b Value) (Value, error) {
	if bothInt(a, b) {
		return NewInt(a.Int() + b.Int()), nil
	}
	af, err := numAsFloat(a)
	if err != nil {
		return Nil, err
	}
	bf, err := numAsFloat(b)
	if err != nil {
		return Nil, err
	}
	return NewReal(af + bf), nil
}

func builtinSub(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("-", vs, 1, -1); err != nil {
		return Nil, err
	}
	if len(vs) == 1 {
		return numSub(NewInt(0), vs[0])
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		var err error
		acc, err = numSub(acc, v)
		if err != nil {
			return Nil, err
		}
	}
	return acc, nil
}

func numSub(a, b Value) (Value, error) {
	if bothInt(a, b) {
		return NewInt(a.Int() - b.Int()), nil
	}
	af, err := numAsFloat(a)
	if err != nil {
		return Nil, err
	}
	bf, err := numAsFloat(b)
	if err != nil {
		return Nil, err
	}
	return NewReal(af - bf), nil
}

func builtinMul(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	acc := NewInt(1)
	for _, v := range vs {
		if bothInt(acc, v) {
			acc = NewInt(acc.Int() * v.Int())
			continue
		}
		af, err := numAsFloat(acc)
		if err != nil {
			return Nil, err
		}
		bf, err := numAsFloat(v)
		if err != nil {
			return Nil, err
		}
		acc = NewReal(af * bf)
	}
	return acc, nil
}

func builtinDiv(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("/", vs, 1, -1); err != nil {
		return Nil, err
	}
	if len(vs) == 1 {
		return numDiv(NewInt(1), vs[0])
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		var err error
		acc, err = numDiv(acc, v)
		if err != nil {
			return Nil, err
		}
	}
	return acc, nil
}

func numDiv(a, b Value) (Value, error) {
	af, err := numAsFloat(a)
	if err != nil {
		return Nil, err
	}
	bf, err := numAsFloat(b)
	if err != nil {
		return Nil, err
	}
	if bf == 0 {
		return Nil, newErr(ErrRuntime, "division by zero")
	}
	if bothInt(a, b) && a.Int()%b.Int() == 0 {
		return NewInt(a.Int() / b.Int()), nil
	}
	return NewReal(af / bf), nil
}

func numCompare(name string, args Value, ok func(a, b float64) bool) (Value, error) {
	vs := argSlice(args)
	if err := checkArity(name, vs, 1, -1); err != nil {
		return Nil, err
	}
	for i := 0; i+1 < len(vs); i++ {
		a, err := numAsFloat(vs[i])
		if err != nil {
			return Nil, err
		}
		b, err := numAsFloat(vs[i+1])
		if err != nil {
			return Nil, err
		}
		if !ok(a, b) {
			return False, nil
		}
	}
	return True, nil
}

func builtinNumEq(ctx *Context, args Value) (Value, error) {
	return numCompare("=", args, func(a, b float64) bool { return a == b })
}
func builtinLt(ctx *Context, args Value) (Value, error) {
	return numCompare("<", args, func(a, b float64) bool { return a < b })
}
func builtinGt(ctx *Context, args Value) (Value, error) {
	return numCompare(">", args, func(a, b float64) bool { return a > b })
}
func builtinLe(ctx *Context, args Value) (Value, error) {
	return numCompare("<=", args, func(a, b float64) bool { return a <= b })
}
func builtinGe(ctx *Context, args Value) (Value, error) {
	return numCompare(">=", args, func(a, b float64) bool { return a >= b })
}

func builtinCons(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("cons", vs, 2, 2); err != nil {
		return Nil, err
	}
	return ctx.NewPair(vs[0], vs[1]), nil
}

func builtinCar(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("car", vs, 1, 1); err != nil {
		return Nil, err
	}
	if err := wantType("car", vs[0], TagPair); err != nil {
		return Nil, err
	}
	return vs[0].Car(), nil
}

func builtinCdr(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("cdr", vs, 1, 1); err != nil {
		return Nil, err
	}
	if err := wantType("cdr", vs[0], TagPair); err != nil {
		return Nil, err
	}
	return vs[0].Cdr(), nil
}

func builtinSetCar(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("set-car!", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("set-car!", vs[0], TagPair); err != nil {
		return Nil, err
	}
	vs[0].SetCar(vs[1])
	return Nil, nil
}

func builtinSetCdr(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("set-cdr!", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("set-cdr!", vs[0], TagPair); err != nil {
		return Nil, err
	}
	vs[0].SetCdr(vs[1])
	return Nil, nil
}

func builtinList(ctx *Context, args Value) (Value, error) { return args, nil }

func builtinNullP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("null?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].IsNil()), nil
}

func builtinPairP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("pair?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].tag == TagPair), nil
}

func builtinSymbolP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("symbol?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].tag == TagSymbol), nil
}

func builtinStringP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("string?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].tag == TagString), nil
}

func builtinNumberP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("number?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].tag == TagInt || vs[0].tag == TagReal), nil
}

func builtinProcedureP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("procedure?", vs, 1, 1); err != nil {
		return Nil, err
	}
	t := vs[0].tag
	return NewBool(t == TagLambda || t == TagFunc || t == TagJump), nil
}

func builtinVectorP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("vector?", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(vs[0].tag == TagVector), nil
}

func builtinNot(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("not", vs, 1, 1); err != nil {
		return Nil, err
	}
	return NewBool(!vs[0].Truthy()), nil
}

func builtinEqP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("eq?", vs, 2, 2); err != nil {
		return Nil, err
	}
	return NewBool(Eq(vs[0], vs[1])), nil
}

func builtinEqualP(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("equal?", vs, 2, 2); err != nil {
		return Nil, err
	}
	return NewBool(Equal(vs[0], vs[1])), nil
}

func builtinDisplay(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("display", vs, 1, 1); err != nil {
		return Nil, err
	}
	fmt.Fprint(ctx.out, ctx.DisplayString(vs[0]))
	return Nil, nil
}

func builtinWrite(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("write", vs, 1, 1); err != nil {
		return Nil, err
	}
	fmt.Fprint(ctx.out, ctx.WriteString(vs[0]))
	return Nil, nil
}

func builtinNewline(ctx *Context, args Value) (Value, error) {
	fmt.Fprintln(ctx.out)
	return Nil, nil
}

func builtinApply(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("apply", vs, 2, -1); err != nil {
		return Nil, err
	}
	proc := vs[0]
	flat := vs[1 : len(vs)-1]
	last := vs[len(vs)-1]
	all := append(append([]Value{}, flat...), argSlice(last)...)
	return ctx.Apply(proc, ctx.NewList(all))
}

func builtinCallCC(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("call/cc", vs, 1, 1); err != nil {
		return Nil, err
	}
	return ctx.CallCC(vs[0])
}

func builtinGensym(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	prefix := "G"
	if len(vs) == 1 {
		if err := wantType("gensym", vs[0], TagString); err != nil {
			return Nil, err
		}
		prefix = string(vs[0].StringBytes())
	}
	return ctx.Gensym(prefix), nil
}

func builtinVector(ctx *Context, args Value) (Value, error) {
	return ctx.NewVector(argSlice(args)), nil
}

func builtinMakeVector(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("make-vector", vs, 1, 2); err != nil {
		return Nil, err
	}
	if err := wantType("make-vector", vs[0], TagInt); err != nil {
		return Nil, err
	}
	fill := Nil
	if len(vs) == 2 {
		fill = vs[1]
	}
	return ctx.NewVectorOfLen(int(vs[0].Int()), fill), nil
}

func builtinVectorRef(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("vector-ref", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("vector-ref", vs[0], TagVector); err != nil {
		return Nil, err
	}
	if err := wantType("vector-ref", vs[1], TagInt); err != nil {
		return Nil, err
	}
	return vs[0].VectorRef(int(vs[1].Int()))
}

func builtinVectorSet(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("vector-set!", vs, 3, 3); err != nil {
		return Nil, err
	}
	if err := wantType("vector-set!", vs[0], TagVector); err != nil {
		return Nil, err
	}
	if err := wantType("vector-set!", vs[1], TagInt); err != nil {
		return Nil, err
	}
	return Nil, vs[0].VectorSet(int(vs[1].Int()), vs[2])
}

func builtinVectorLength(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("vector-length", vs, 1, 1); err != nil {
		return Nil, err
	}
	if err := wantType("vector-length", vs[0], TagVector); err != nil {
		return Nil, err
	}
	return NewInt(int64(vs[0].VectorLen())), nil
}

func builtinVectorFill(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("vector-fill!", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("vector-fill!", vs[0], TagVector); err != nil {
		return Nil, err
	}
	vs[0].VectorFill(vs[1])
	return Nil, nil
}

func builtinStringLength(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("string-length", vs, 1, 1); err != nil {
		return Nil, err
	}
	if err := wantType("string-length", vs[0], TagString); err != nil {
		return Nil, err
	}
	return NewInt(int64(vs[0].StringLen())), nil
}

func builtinStringRef(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("string-ref", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("string-ref", vs[0], TagString); err != nil {
		return Nil, err
	}
	if err := wantType("string-ref", vs[1], TagInt); err != nil {
		return Nil, err
	}
	bytes := vs[0].StringBytes()
	i := int(vs[1].Int())
	if i < 0 || i >= len(bytes) {
		return Nil, newErr(ErrOutOfBounds, "string-ref: index %d out of bounds", i)
	}
	return NewChar(int64(bytes[i])), nil
}

func builtinForce(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("force", vs, 1, 1); err != nil {
		return Nil, err
	}
	p := vs[0]
	if err := wantType("force", p, TagPromise); err != nil {
		return Nil, err
	}
	if p.PromiseForced() {
		return p.PromiseValue(), nil
	}
	result, err := ctx.Apply(p.PromiseThunk(), Nil)
	if err != nil {
		return Nil, err
	}
	p.PromiseStore(result)
	return result, nil
}

func builtinError(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if len(vs) == 0 {
		return Nil, newErr(ErrRuntime, "error")
	}
	msg := ctx.DisplayString(vs[0])
	for _, v := range vs[1:] {
		msg += " " + ctx.WriteString(v)
	}
	return Nil, newErr(ErrRuntime, "%s", msg)
}

func builtinQuotient(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("quotient", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("quotient", vs[0], TagInt); err != nil {
		return Nil, err
	}
	if err := wantType("quotient", vs[1], TagInt); err != nil {
		return Nil, err
	}
	if vs[1].Int() == 0 {
		return Nil, newErr(ErrRuntime, "division by zero")
	}
	return NewInt(vs[0].Int() / vs[1].Int()), nil
}

func builtinRemainder(ctx *Context, args Value) (Value, error) {
	vs := argSlice(args)
	if err := checkArity("remainder", vs, 2, 2); err != nil {
		return Nil, err
	}
	if err := wantType("remainder", vs[0], TagInt); err != nil {
		return Nil, err
	}
	if err := wantType("remainder", vs[1], TagInt); err != nil {
		return Nil, err
	}
	if vs[1].Int() == 0 {
		return Nil, newErr(ErrRuntime, "division by zero")
	}
	return NewInt(vs[0].Int() % vs[1].Int()), nil
}

func builtinCollectGarbage(ctx *Context, args Value) (Value, error) {
	ctx.Collect(Nil)
	return NewInt(int64(ctx.stats.LastLiveObjs)), nil
}
