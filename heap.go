package golisp

import (
	"fmt"
	"unsafe"

	"github.com/davecgh/go-spew/spew"
)

// page is a fixed-capacity arena chunk: a bump-allocated slice of
// object records.  Per DESIGN NOTES §9's guidance for a systems-
// language port ("store the heap as a Vec<Page>-like arena... expose
// values as Copy tagged enums whose heap variants carry raw
// offsets"), the arena here holds *object headers, not raw bytes: Go
// structs already give us a stable, typed union-in-spirit record, and
// slice elements keep a fixed address as long as we never grow a
// page past its declared capacity (see alloc below). Variable-length
// payloads (vector items, string bytes, table key/value arrays) live
// in ordinary Go-GC-managed slices referenced from the header -- the
// arena owns identity and forwarding, Go's own allocator owns bulk
// data, which is the idiomatic split in a language that already has a
// GC of its own.
type page struct {
	objs []object
}

func newPage(capacity int) *page {
	return &page{objs: make([]object, 0, capacity)}
}

func (p *page) full() bool { return len(p.objs) == cap(p.objs) }

func (p *page) bump(typ Tag) *object {
	idx := len(p.objs)
	p.objs = append(p.objs, object{typ: typ, state: gcClear})
	return &p.objs[idx]
}

// heap is a singly-linked list of pages, realized as a slice since Go
// slices already give us append-at-the-end semantics; bottom is
// pages[0], top is the last element, matching spec.md §4.1.
type heap struct {
	pages       []*page
	pageObjCap  int
}

func newHeap(pageSizeBytes int) *heap {
	objCap := pageSizeBytes / int(unsafe.Sizeof(object{}))
	if objCap < 16 {
		objCap = 16
	}
	return &heap{
		pages:      []*page{newPage(objCap)},
		pageObjCap: objCap,
	}
}

// alloc is the bump allocator: it advances the top page's cursor, or
// links a fresh page when the top page is full.
func (h *heap) alloc(typ Tag) *object {
	top := h.pages[len(h.pages)-1]
	if top.full() {
		top = newPage(h.pageObjCap)
		h.pages = append(h.pages, top)
	}
	return top.bump(typ)
}

// liveObjects reports the number of live object headers across every
// page -- the arena-header analog of "live bytes" used by the GC
// stress test (§8 scenario 8).
func (h *heap) liveObjects() int {
	n := 0
	for _, p := range h.pages {
		n += len(p.objs)
	}
	return n
}

// ---- GC: copying flip ----

// GCStats accumulates counters a host can inspect after a Collect.
type GCStats struct {
	Collections  int
	LastMoved    int
	LastLiveObjs int
}

// Collect performs the copying flip of spec.md §4.1: every root is
// moved into a fresh to-space heap, the to-space is scanned until no
// NEED_VISIT block remains, the interned-symbol table is compacted
// as a weak pass over the old table, and the from-space is dropped.
// save is an extra caller-supplied root (e.g. a value the host is
// mid-construction of and hasn't stored anywhere reachable yet); the
// moved equivalent is returned.
func (ctx *Context) Collect(save Value) Value {
	to := newHeap(ctx.cfg.GetInt(CfgPageSize))
	from := ctx.heap
	ctx.heap = to

	// 1. Move every root.
	ctx.move(&ctx.globalEnv)
	for i := range ctx.valueStack {
		ctx.move(&ctx.valueStack[i])
	}
	ctx.cache.moveAll(ctx)
	ctx.macros.moveAll(ctx)
	ctx.move(&save)

	// 2. Scan to-space until every NEED_VISIT block has been visited.
	// New objects may be appended to the tail page as a side effect
	// of visiting, so page/object indices are re-read on every
	// iteration instead of cached.
	pageIdx, objIdx := 0, 0
	for pageIdx < len(to.pages) {
		p := to.pages[pageIdx]
		if objIdx >= len(p.objs) {
			pageIdx++
			objIdx = 0
			continue
		}
		o := &p.objs[objIdx]
		if o.state == gcNeedVisit {
			ctx.visit(o)
			o.state = gcClear
		}
		objIdx++
	}

	// 3. Compact the interned-symbol table: the weak-reference pass.
	ctx.symtab.compact()

	// 4. from-space is simply dropped; Go's own GC reclaims it once
	// nothing in to-space references it any longer.
	_ = from

	ctx.stats.Collections++
	ctx.stats.LastLiveObjs = to.liveObjects()

	if ctx.cfg.GetBool(CfgDebug) {
		ctx.validateHeap()
	}

	return save
}

// validateHeap is the LISP_DEBUG-gated post-collection check: every
// to-space header must have settled back to gcClear with a forward
// pointer cleared. A header left in any other state means Collect's
// scan missed it, which is a corrupted heap; spew.Sdump gives a
// developer the full header layout instead of a bare panic message.
func (ctx *Context) validateHeap() {
	for _, p := range ctx.heap.pages {
		for i := range p.objs {
			o := &p.objs[i]
			if o.state != gcClear || o.forward != nil {
				panic(fmt.Sprintf("golisp: corrupt heap object after collection:\n%s", spew.Sdump(o)))
			}
		}
	}
}

// move relocates a single Value's heap payload from from-space to
// to-space, following the forwarding-pointer protocol of §4.1 step 2.
// Non-heap payloads pass through untouched.
func (ctx *Context) move(v *Value) {
	switch v.tag {
	case TagPair, TagSymbol, TagString, TagLambda, TagTable, TagVector, TagPromise, TagJump:
	default:
		return
	}
	o := v.obj
	if o == nil {
		return
	}
	switch o.state {
	case gcGone:
		v.obj = o.forward
	case gcNeedVisit:
		// o already lives in to-space (it was allocated there); a
		// from-space object is never observed in this state.
	case gcClear:
		n := ctx.heap.alloc(o.typ)
		*n = *o
		n.state = gcNeedVisit
		n.forward = nil
		if n.typ == TagSymbol {
			// symNext is an intern-table bucket-chain link; it is
			// rebuilt from scratch by the weak compaction pass, not
			// carried over from the stale from-space chain.
			n.symNext = nil
		}
		o.state = gcGone
		o.forward = n
		v.obj = n
	}
}

// visit rewrites every internal Value reference of a NEED_VISIT
// to-space block, per §4.1 step 3.
func (ctx *Context) visit(o *object) {
	switch o.typ {
	case TagPair:
		ctx.move(&o.pairCar)
		ctx.move(&o.pairCdr)
	case TagLambda:
		ctx.move(&o.lamArgs)
		ctx.move(&o.lamBody)
		ctx.move(&o.lamEnv)
	case TagVector:
		for i := range o.vecItems {
			ctx.move(&o.vecItems[i])
		}
	case TagPromise:
		ctx.move(&o.promThunk)
		ctx.move(&o.promValue)
	case TagTable:
		ctx.visitTable(o)
	case TagSymbol, TagString, TagJump:
		// SYMBOL carries no Value children (symNext is rebuilt by
		// compaction); STRING's buffer and JUMP's bookkeeping hold
		// no heap references of their own.
	}
}

// visitTable moves every key/value pair and reinserts them into a
// freshly sized table of equal capacity, since a moved key's payload
// (its pointer) changes and the table hashes on that payload (§4.1
// step 5, §3 TABLE).
func (ctx *Context) visitTable(o *object) {
	newKeys := make([]Value, len(o.tabKeys))
	newVals := make([]Value, len(o.tabVals))
	oldKeys, oldVals := o.tabKeys, o.tabVals
	o.tabKeys, o.tabVals = newKeys, newVals
	for i, k := range oldKeys {
		if k.IsNil() {
			continue
		}
		ctx.move(&k)
		v := oldVals[i]
		ctx.move(&v)
		tableRawInsert(o, k, v)
	}
}
