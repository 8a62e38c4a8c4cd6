package golisp

import (
	"fmt"
	"math"
	"unsafe"
)

// minTableCap is the minimum TABLE capacity, always a power of two
// per spec.md §3.
const minTableCap = 16

// tableHashBits extracts the raw payload bits a TABLE hashes on.
// Per §3, "the hash of a key is derived from the key payload bits
// (never from structural contents)", so two equal? but not eq? pairs
// hash differently -- tables use reference equality, by design.
func tableHashBits(v Value) uint64 {
	switch v.tag {
	case TagInt, TagChar, TagBool:
		return uint64(v.i)
	case TagReal:
		return math.Float64bits(v.f)
	case TagPtr:
		// PTR and FUNC payloads have no integer view; hash their %p
		// rendering, the same identity Eq compares for FUNC.
		return fnv1aBytes(fmt.Sprintf("%p", v.ptr))
	case TagFunc:
		return fnv1aBytes(fmt.Sprintf("%p", v.fn))
	default:
		return uint64(uintptr(unsafe.Pointer(v.obj)))
	}
}

// fnv1a64 is the 64-bit FNV-1a mix used both by the symbol intern
// table (§4.5) and here, over a key's raw payload bits.
func fnv1a64(bits uint64) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < 8; i++ {
		h ^= (bits >> (8 * uint(i))) & 0xff
		h *= prime
	}
	return h
}

func tableHash(v Value) uint64 { return fnv1a64(tableHashBits(v)) }

// NewTable allocates an empty TABLE with the minimum capacity.
func (ctx *Context) NewTable() Value {
	o := ctx.heap.alloc(TagTable)
	o.tabKeys = make([]Value, minTableCap)
	o.tabVals = make([]Value, minTableCap)
	return Value{tag: TagTable, obj: o}
}

func (v Value) TableSize() int { return v.asObject(TagTable).tabSize }

func (v Value) TableGet(key Value) (Value, bool) {
	return tableGet(v.asObject(TagTable), key)
}

func (v Value) TableSet(key, val Value) {
	tableSet(v.asObject(TagTable), key, val)
}

// TableToAlist builds a fresh (key . val) association list over the
// table's occupied slots, in slot order.
func (ctx *Context) TableToAlist(v Value) Value {
	o := v.asObject(TagTable)
	result := Nil
	for i := len(o.tabKeys) - 1; i >= 0; i-- {
		if o.tabKeys[i].IsNil() {
			continue
		}
		result = ctx.NewPair(ctx.NewPair(o.tabKeys[i], o.tabVals[i]), result)
	}
	return result
}

func tableGet(o *object, key Value) (Value, bool) {
	cap := len(o.tabKeys)
	idx := int(tableHash(key) % uint64(cap))
	for i := 0; i < cap; i++ {
		k := o.tabKeys[idx]
		if k.IsNil() {
			return Nil, false
		}
		if Eq(k, key) {
			return o.tabVals[idx], true
		}
		idx = (idx + 1) % cap
	}
	return Nil, false
}

func tableSet(o *object, key, val Value) {
	cap := len(o.tabKeys)
	idx := int(tableHash(key) % uint64(cap))
	for {
		k := o.tabKeys[idx]
		if k.IsNil() {
			break
		}
		if Eq(k, key) {
			o.tabVals[idx] = val
			return
		}
		idx = (idx + 1) % cap
	}
	if (o.tabSize+1)*2 >= len(o.tabKeys) {
		tableResize(o, len(o.tabKeys)*2)
	}
	tableRawInsert(o, key, val)
	o.tabSize++
}

// tableRawInsert places key/val into the first open slot found by
// linear probing.  It assumes the table has room and the key is not
// already present; used both by tableSet's post-resize insert and by
// the GC's table-visiting rehash (heap.go).
func tableRawInsert(o *object, key, val Value) {
	cap := len(o.tabKeys)
	idx := int(tableHash(key) % uint64(cap))
	for {
		if o.tabKeys[idx].IsNil() {
			o.tabKeys[idx] = key
			o.tabVals[idx] = val
			return
		}
		idx = (idx + 1) % cap
	}
}

func tableResize(o *object, newCap int) {
	oldKeys, oldVals := o.tabKeys, o.tabVals
	o.tabKeys = make([]Value, newCap)
	o.tabVals = make([]Value, newCap)
	for i, k := range oldKeys {
		if k.IsNil() {
			continue
		}
		tableRawInsert(o, k, oldVals[i])
	}
}
