package golisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalString(t *testing.T, ctx *Context, src string) Value {
	t.Helper()
	form, err := ctx.ReadString(src)
	require.NoError(t, err)
	expanded, err := ctx.Expand(form)
	require.NoError(t, err)
	result, err := ctx.Eval(expanded, ctx.GlobalEnv())
	require.NoError(t, err)
	return result
}

func newTestContext() *Context {
	ctx := NewContext()
	ctx.InstallBuiltins(ctx.GlobalEnv().Car())
	return ctx
}

func TestEvalArithmetic(t *testing.T) {
	ctx := newTestContext()
	for _, test := range []struct {
		Name     string
		Src      string
		Expected string
	}{
		{"add", "(+ 1 2 3)", "6"},
		{"sub", "(- 10 3 2)", "5"},
		{"mul", "(* 2 3 4)", "24"},
		{"div-exact", "(/ 10 2)", "5"},
		{"div-float", "(/ 1 3)", "0.333333"},
		{"nested", "(+ (* 2 3) (- 10 4))", "12"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			v := evalString(t, ctx, test.Src)
			assert.Equal(t, test.Expected, ctx.WriteString(v))
		})
	}
}

func TestEvalIf(t *testing.T) {
	ctx := newTestContext()
	assert.Equal(t, "1", ctx.WriteString(evalString(t, ctx, "(if #t 1 2)")))
	assert.Equal(t, "2", ctx.WriteString(evalString(t, ctx, "(if #f 1 2)")))
	assert.Equal(t, "()", ctx.WriteString(evalString(t, ctx, "(if #f 1)")))
	// every value but #f is truthy, including ()
	assert.Equal(t, "YES", ctx.WriteString(evalString(t, ctx, "(if '() 'yes 'no)")))
}

func TestEvalDefineAndLambda(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def square (/\\_ (x) (* x x)))")
	assert.Equal(t, "25", ctx.WriteString(evalString(t, ctx, "(square 5)")))
}

func TestEvalClosure(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def make-adder (/\\_ (n) (/\\_ (x) (+ x n))))")
	evalString(t, ctx, "(_def add5 (make-adder 5))")
	assert.Equal(t, "15", ctx.WriteString(evalString(t, ctx, "(add5 10)")))
}

func TestEvalTailCallDoesNotOverflow(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, `
		(_def count-to
		  (/\_ (n acc)
		    (if (= n acc) acc (count-to n (+ acc 1)))))`)
	result := evalString(t, ctx, "(count-to 200000 0)")
	assert.Equal(t, "200000", ctx.WriteString(result))
}

func TestEvalSetBang(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def x 1)")
	evalString(t, ctx, "(_set! x 2)")
	assert.Equal(t, "2", ctx.WriteString(evalString(t, ctx, "x")))

	form, err := ctx.ReadString("(_set! never-defined 1)")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedVar, CodeOf(err))
}

func TestEvalQuoteAndQuasiquote(t *testing.T) {
	ctx := newTestContext()
	assert.Equal(t, "(1 2 3)", ctx.WriteString(evalString(t, ctx, "'(1 2 3)")))
	assert.Equal(t, "(1 2 3)", ctx.WriteString(evalString(t, ctx, "`(1 ,(+ 1 1) 3)")))
}

func TestQuasiquoteRejectsUnquoteSplice(t *testing.T) {
	ctx := newTestContext()

	form, err := ctx.ReadString("`(1 ,@(list 2 3) 4)")
	require.NoError(t, err)
	_, err = ctx.Expand(form)
	require.Error(t, err)
	assert.Equal(t, ErrFormSyntax, CodeOf(err))

	bare, err := ctx.ReadString(",@1")
	require.NoError(t, err)
	_, err = ctx.Expand(bare)
	require.Error(t, err)
	assert.Equal(t, ErrFormSyntax, CodeOf(err))
}

func TestEvalCallCC(t *testing.T) {
	ctx := newTestContext()
	result := evalString(t, ctx, `
		(+ 1 (call/cc (/\_ (k) (+ 10 (k 41)))))`)
	assert.Equal(t, "42", ctx.WriteString(result))
}

func TestEvalUndefinedVariable(t *testing.T) {
	ctx := newTestContext()
	form, err := ctx.ReadString("never-bound")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedVar, CodeOf(err))
}

func TestEvalNotApplicable(t *testing.T) {
	ctx := newTestContext()
	form, err := ctx.ReadString("(1 2 3)")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrBadOp, CodeOf(err))
}

func TestEvalArityErrors(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def one-arg (/\\_ (x) x))")

	form, err := ctx.ReadString("(one-arg 1 2)")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrTooManyArgs, CodeOf(err))

	form, err = ctx.ReadString("(one-arg)")
	require.NoError(t, err)
	_, err = ctx.Eval(form, ctx.GlobalEnv())
	require.Error(t, err)
	assert.Equal(t, ErrTooFewArgs, CodeOf(err))
}

func TestEvalVariadicLambda(t *testing.T) {
	ctx := newTestContext()
	evalString(t, ctx, "(_def bag (/\\_ args args))")
	assert.Equal(t, "(1 2 3)", ctx.WriteString(evalString(t, ctx, "(bag 1 2 3)")))

	evalString(t, ctx, "(_def first-rest (/\\_ (a . rest) (cons a rest)))")
	assert.Equal(t, "(1 2 3)", ctx.WriteString(evalString(t, ctx, "(first-rest 1 2 3)")))
}
