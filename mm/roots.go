package mm

import "github.com/bnclabs/goheap/api"
import "github.com/bnclabs/goheap/lib"

// ValueStack is the engine's value stack, every slot is a root. Stack
// scanning is exact, only api.Value tagged as managed are followed.
type ValueStack struct {
	values []api.Value
	limit  int
}

func newvaluestack(limit int64) *ValueStack {
	return &ValueStack{values: make([]api.Value, 0, 64), limit: int(limit)}
}

// Push value on top of stack, return its index.
func (vs *ValueStack) Push(v api.Value) int {
	if len(vs.values) >= vs.limit {
		panic(api.ErrorStackOverflow)
	}
	vs.values = append(vs.values, v)
	return len(vs.values) - 1
}

// Pop value from top of stack.
func (vs *ValueStack) Pop() api.Value {
	n := len(vs.values)
	if n == 0 {
		panicerr("pop on empty value stack")
	}
	v := vs.values[n-1]
	vs.values = vs.values[:n-1]
	return v
}

// Top return value on top of stack, Empty if stack is empty.
func (vs *ValueStack) Top() api.Value {
	if n := len(vs.values); n > 0 {
		return vs.values[n-1]
	}
	return api.Empty
}

// Get value at index.
func (vs *ValueStack) Get(i int) api.Value {
	return vs.values[i]
}

// Set value at index.
func (vs *ValueStack) Set(i int, v api.Value) {
	vs.values[i] = v
}

// Len return stack height.
func (vs *ValueStack) Len() int {
	return len(vs.values)
}

// Truncate stack to height `n`.
func (vs *ValueStack) Truncate(n int) {
	if n < 0 || n > len(vs.values) {
		panicerr("truncate stack of %v to %v", len(vs.values), n)
	}
	for i := n; i < len(vs.values); i++ {
		vs.values[i] = api.Empty
	}
	vs.values = vs.values[:n]
}

// Scope record current stack height, values pushed through the scope
// stay rooted till Close.
func (vs *ValueStack) Scope() *Scope {
	return &Scope{stack: vs, mark: len(vs.values)}
}

func (vs *ValueStack) iterate(callb func(api.Value)) {
	for _, v := range vs.values {
		callb(v)
	}
}

// Scope of rooted values on a ValueStack, shall be closed in LIFO
// order.
type Scope struct {
	stack *ValueStack
	mark  int
}

// Root push value onto the stack, return its stack index.
func (sc *Scope) Root(v api.Value) int {
	return sc.stack.Push(v)
}

// Rootref push a managed reference onto the stack.
func (sc *Scope) Rootref(ref api.Ref) int {
	return sc.stack.Push(api.Managed(ref))
}

// Close truncate the stack back to its height when scope was opened.
func (sc *Scope) Close() {
	sc.stack.Truncate(sc.mark)
}

// Pagesize number of values in a ValueStorage page.
const Pagesize = 512

// Handle to an entry in ValueStorage, the zero Handle is invalid.
type Handle int64

// ValueStorage is a paged table of values addressed by Handle.
// Persistent storage roots every entry; weak storage only observes,
// entries referring to collected cells are set to api.Empty.
type ValueStorage struct {
	weak   bool
	pages  [][]api.Value
	allocd []lib.Bitmap
	free   []Handle
	count  int64
}

func newvaluestorage(weak bool) *ValueStorage {
	return &ValueStorage{weak: weak}
}

// Isweak return whether entries are weak.
func (store *ValueStorage) Isweak() bool {
	return store.weak
}

// Allocate an entry holding `v`.
func (store *ValueStorage) Allocate(v api.Value) Handle {
	var h Handle
	if n := len(store.free); n > 0 {
		h, store.free = store.free[n-1], store.free[:n-1]
	} else {
		store.pages = append(store.pages, make([]api.Value, Pagesize))
		store.allocd = append(store.allocd, lib.NewBitmap(Pagesize))
		base := int64(len(store.pages)-1) * Pagesize
		for i := int64(Pagesize - 1); i > 0; i-- {
			store.free = append(store.free, Handle(base+i+1))
		}
		h = Handle(base + 1)
	}
	page, off := store.locate(h)
	store.allocd[page].Setbit(off)
	store.pages[page][off] = v
	store.count++
	return h
}

// Get value of entry.
func (store *ValueStorage) Get(h Handle) api.Value {
	page, off := store.check(h)
	return store.pages[page][off]
}

// Set value of entry.
func (store *ValueStorage) Set(h Handle, v api.Value) {
	page, off := store.check(h)
	store.pages[page][off] = v
}

// Free entry, handle shall not be used afterwards.
func (store *ValueStorage) Free(h Handle) {
	page, off := store.check(h)
	store.pages[page][off] = api.Empty
	store.allocd[page].Clearbit(off)
	store.free = append(store.free, h)
	store.count--
}

// Count return number of allocated entries.
func (store *ValueStorage) Count() int64 {
	return store.count
}

// Iterate allocated entries, till callback returns false.
func (store *ValueStorage) Iterate(callb func(h Handle, v api.Value) bool) {
	for page, bits := range store.allocd {
		off := bits.Findfirstset(0)
		for ; off >= 0; off = bits.Findfirstset(off + 1) {
			h := Handle(int64(page)*Pagesize + off + 1)
			if !callb(h, store.pages[page][off]) {
				return
			}
		}
	}
}

// clearunmarked set entries referring to unmarked cells to Empty,
// return the number of entries cleared.
func (store *ValueStorage) clearunmarked(ismarked func(api.Ref) bool) (n int64) {
	for page, bits := range store.allocd {
		values := store.pages[page]
		off := bits.Findfirstset(0)
		for ; off >= 0; off = bits.Findfirstset(off + 1) {
			if ref := values[off].Toref(); !ref.Isnil() && !ismarked(ref) {
				values[off] = api.Empty
				n++
			}
		}
	}
	return n
}

func (store *ValueStorage) locate(h Handle) (int, int64) {
	n := int64(h) - 1
	return int(n / Pagesize), n % Pagesize
}

func (store *ValueStorage) check(h Handle) (int, int64) {
	if h <= 0 {
		panic(api.ErrorInvalidHandle)
	}
	page, off := store.locate(h)
	if page >= len(store.pages) || !store.allocd[page].Isset(off) {
		panic(api.ErrorInvalidHandle)
	}
	return page, off
}
