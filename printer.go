package golisp

import (
	"fmt"
	"strconv"
	"strings"
)

// namedCharsByCode is the reverse of reader.go's namedChars table,
// used by WriteString to print #\newline instead of a raw control
// byte; it is built once since the forward table never changes.
var namedCharsByCode = func() map[int64]string {
	m := make(map[int64]string, len(namedChars))
	for name, code := range namedChars {
		if code == eofChar {
			continue
		}
		if _, taken := m[code]; taken {
			continue
		}
		m[code] = name
	}
	return m
}()

// WriteString renders v in writable form: strings and characters are
// quoted/escaped so the result can be read back by the reader.
func (ctx *Context) WriteString(v Value) string {
	var sb strings.Builder
	ctx.printValue(&sb, v, true)
	return sb.String()
}

// DisplayString renders v in displayable form: strings print their
// raw bytes and characters print their raw glyph, with no quoting.
func (ctx *Context) DisplayString(v Value) string {
	var sb strings.Builder
	ctx.printValue(&sb, v, false)
	return sb.String()
}

func (ctx *Context) printValue(sb *strings.Builder, v Value, writable bool) {
	switch v.tag {
	case TagNil:
		sb.WriteString("()")
	case TagBool:
		if v.Bool() {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case TagInt:
		sb.WriteString(strconv.FormatInt(v.Int(), 10))
	case TagReal:
		sb.WriteString(strconv.FormatFloat(v.Real(), 'f', 6, 64))
	case TagChar:
		ctx.printChar(sb, v.Char(), writable)
	case TagSymbol:
		sb.WriteString(v.SymbolName())
	case TagString:
		ctx.printStringVal(sb, v, writable)
	case TagPair:
		ctx.printPair(sb, v, writable)
	case TagVector:
		ctx.printVector(sb, v, writable)
	case TagTable:
		ctx.printTable(sb, v, writable)
	case TagLambda:
		sb.WriteString("<lambda>")
	case TagFunc:
		fmt.Fprintf(sb, "<c-func-%p>", v.fn)
	case TagPromise:
		sb.WriteString("<promise>")
	case TagJump:
		sb.WriteString("<jump>")
	case TagPtr:
		fmt.Fprintf(sb, "<ptr-%p>", v.Ptr())
	default:
		fmt.Fprintf(sb, "#<unknown %s>", v.tag)
	}
}

func (ctx *Context) printChar(sb *strings.Builder, code int64, writable bool) {
	if !writable {
		if code == eofChar {
			sb.WriteString("")
			return
		}
		sb.WriteByte(byte(code))
		return
	}
	if name, ok := namedCharsByCode[code]; ok {
		sb.WriteString("#\\")
		sb.WriteString(name)
		return
	}
	sb.WriteString("#\\")
	sb.WriteByte(byte(code))
}

func (ctx *Context) printStringVal(sb *strings.Builder, v Value, writable bool) {
	bytes := v.StringBytes()
	if !writable {
		sb.Write(bytes)
		return
	}
	sb.WriteByte('"')
	for _, b := range bytes {
		switch b {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
}

// printPair renders a proper list as "(a b c)" and an improper list
// as "(a b . c)", recognizing the quote family of forms and printing
// them in their reader-shorthand instead, matching what a reader
// round-trip would have produced from source.
func (ctx *Context) printPair(sb *strings.Builder, v Value, writable bool) {
	if shorthand, ok := ctx.quoteShorthand(v); ok {
		sb.WriteString(shorthand)
		ctx.printValue(sb, v.Cdr().Car(), writable)
		return
	}

	sb.WriteByte('(')
	first := true
	cur := v
	for {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		ctx.printValue(sb, cur.Car(), writable)
		cdr := cur.Cdr()
		if cdr.IsNil() {
			break
		}
		if !cdr.IsPair() {
			sb.WriteString(" . ")
			ctx.printValue(sb, cdr, writable)
			break
		}
		cur = cdr
	}
	sb.WriteByte(')')
}

func (ctx *Context) quoteShorthand(v Value) (string, bool) {
	if !v.Cdr().IsPair() || !v.Cdr().Cdr().IsNil() {
		return "", false
	}
	head := v.Car()
	if head.tag != TagSymbol {
		return "", false
	}
	switch {
	case Eq(head, ctx.cache.Quote):
		return "'", true
	case Eq(head, ctx.cache.Quasiquote):
		return "`", true
	case Eq(head, ctx.cache.Unquote):
		return ",", true
	case Eq(head, ctx.cache.UnquoteSplice):
		return ",@", true
	default:
		return "", false
	}
}

// printTable renders a table as "{key: val ...}", walking its bucket
// array in storage order exactly as the original lisp_print_r does,
// skipping empty slots.
func (ctx *Context) printTable(sb *strings.Builder, v Value, writable bool) {
	o := v.asObject(TagTable)
	sb.WriteByte('{')
	for i, k := range o.tabKeys {
		if k.IsNil() {
			continue
		}
		ctx.printValue(sb, k, writable)
		sb.WriteString(": ")
		ctx.printValue(sb, o.tabVals[i], writable)
		sb.WriteByte(' ')
	}
	sb.WriteByte('}')
}

func (ctx *Context) printVector(sb *strings.Builder, v Value, writable bool) {
	sb.WriteString("#(")
	n := v.VectorLen()
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		elem, _ := v.VectorRef(i)
		ctx.printValue(sb, elem, writable)
	}
	sb.WriteByte(')')
}
