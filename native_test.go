package golisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPairAccessors(t *testing.T) {
	ctx := newTestContext()
	assert.Equal(t, "1", ctx.WriteString(evalString(t, ctx, "(car (cons 1 2))")))
	assert.Equal(t, "2", ctx.WriteString(evalString(t, ctx, "(cdr (cons 1 2))")))
}

func TestBuiltinPredicates(t *testing.T) {
	ctx := newTestContext()
	assert.Equal(t, "#t", ctx.WriteString(evalString(t, ctx, "(null? '())")))
	assert.Equal(t, "#f", ctx.WriteString(evalString(t, ctx, "(null? '(1))")))
	assert.Equal(t, "#t", ctx.WriteString(evalString(t, ctx, "(pair? '(1))")))
	assert.Equal(t, "#t", ctx.WriteString(evalString(t, ctx, "(equal? '(1 2) '(1 2))")))
	assert.Equal(t, "#f", ctx.WriteString(evalString(t, ctx, "(eq? '(1 2) '(1 2))")))
}

func TestBuiltinVectorOps(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def v (make-vector 3 0))")
	evalString(t, ctx, "(vector-set! v 1 99)")
	assert.Equal(t, "99", ctx.WriteString(evalString(t, ctx, "(vector-ref v 1)")))
	assert.Equal(t, "3", ctx.WriteString(evalString(t, ctx, "(vector-length v)")))
}

func TestBuiltinApply(t *testing.T) {
	ctx := newTestContext()
	result := evalString(t, ctx, "(apply + 1 2 '(3 4))")
	assert.Equal(t, "10", ctx.WriteString(result))
}

func TestBuiltinForcePromise(t *testing.T) {
	ctx := newTestContext()
	thunk := ctx.NewLambda(Nil, ctx.NewPair(NewInt(7), Nil), ctx.GlobalEnv())
	p := ctx.NewPromise(thunk)

	forceFn, ok := ctx.GlobalEnv().Car().TableGet(ctx.Intern("force"))
	require.True(t, ok)

	v, err := ctx.Apply(forceFn, ctx.NewPair(p, Nil))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())
	assert.True(t, p.PromiseForced())
}

func TestCallCCEscapesOuterComputation(t *testing.T) {
	ctx := newTestContext()
	result := evalString(t, ctx, `
		(_def find-first-odd
		  (/\_ (lst)
		    (call/cc
		      (/\_ (return)
		        (_def loop
		          (/\_ (l)
		            (if (null? l)
		                #f
		                (if (= 1 (remainder (car l) 2))
		                    (return (car l))
		                    (loop (cdr l))))))
		        (loop lst)))))`)
	_ = result
	v := evalString(t, ctx, "(find-first-odd '(2 4 5 6))")
	assert.Equal(t, "5", ctx.WriteString(v))
}

func TestCallCCReinvocationAfterReturnIsRuntimeError(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, `(_def saved #f)`)
	evalString(t, ctx, `(call/cc (/\_ (k) (_set! saved k)))`)

	form, err := ctx.ReadString("(saved 1)")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrRuntime, CodeOf(err))
}
