package malloc

import "unsafe"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/goheap/api"
import humanize "github.com/dustin/go-humanize"

// sizeclass book-keeps chunks serving one cell size.
type sizeclass struct {
	size    int64
	partial []int64 // ids of chunks with free cells
	live    int64   // number of live chunks, drives chunk growth
}

var _ api.Collectable = &Arena{}

// Arena hands out zeroed, 16-byte aligned cells from size-classed
// chunks and large items from a separate registry.
type Arena struct {
	slabs   []int64      // sorted list of size classes
	classes []*sizeclass // one for each entry in slabs
	chunks  []*chunk     // chunk-id -> chunk, nil if released
	freeids []int64      // released chunk ids, for reuse
	larges  largeitems
	pool    *chunkpool
	freer   func(ncells int64) freecells

	used     int64 // bytes in allocated cells
	heap     int64 // bytes held by live chunks
	released bool

	// stats
	n_allocs      int64
	n_frees       int64
	n_chunks      int64
	n_chunkfrees  int64
	n_largeallocs int64

	// configuration
	maxblock     int64 // largest size class
	minchunksize int64
	maxchunksize int64
	capacity     int64
	allocator    string
}

// NewArena create a new arena, refer Defaultsettings for settings.
func NewArena(setts s.Settings) *Arena {
	shift := setts.Int64("maxblockshift")
	if shift < 4 || shift > 24 {
		panicerr("maxblockshift %v should be within [4,24]", shift)
	}
	arena := &Arena{
		maxblock:     int64(1) << uint(shift),
		minchunksize: setts.Int64("minchunksize"),
		maxchunksize: setts.Int64("maxchunksize"),
		capacity:     setts.Int64("capacity"),
		allocator:    setts.String("allocator"),
	}
	if arena.minchunksize <= 0 || arena.minchunksize > arena.maxchunksize {
		fmsg := "minchunksize(%v) should be within (0,maxchunksize(%v)]"
		panicerr(fmsg, arena.minchunksize, arena.maxchunksize)
	} else if cp := arena.capacity; cp <= 0 || cp > Maxarenasize {
		panicerr("arena capacity %v should be within (0,%v]", cp, Maxarenasize)
	}
	arena.freer = freecellsfactory(arena.allocator)
	arena.pool = newchunkpool(setts.Int64("chunkpool.size"))
	arena.slabs = Blocksizes(Minblock, arena.maxblock)
	arena.classes = make([]*sizeclass, len(arena.slabs))
	for i, size := range arena.slabs {
		arena.classes[i] = &sizeclass{size: size}
	}
	debugf("malloc: new arena classes:%v capacity:%v allocator:%v\n",
		len(arena.slabs), humanize.Bytes(uint64(arena.capacity)),
		arena.allocator)
	return arena
}

//---- operations

// Alloc implement api.Mallocer{} interface.
func (arena *Arena) Alloc(n int64) api.Ref {
	arena.checkreleased()
	if n < 0 {
		panicerr("invalid allocation size %v", n)
	}
	size := Align(n)
	if size == 0 {
		size = Alignment
	}
	if size > arena.maxblock {
		return arena.Alloclarge(n)
	}

	idx := suitableindex(arena.slabs, size)
	class := arena.classes[idx]
	for ln := len(class.partial); ln > 0; ln = len(class.partial) {
		ck := arena.chunks[class.partial[ln-1]]
		if slot, ok := ck.alloc(); ok {
			if ck.isfull() {
				class.partial, ck.partial = class.partial[:ln-1], false
			}
			arena.used += ck.size
			arena.n_allocs++
			return api.Makeref(ck.id, slot)
		}
		class.partial, ck.partial = class.partial[:ln-1], false
	}

	// size class exhausted, go ahead and create a new chunk.
	ck := arena.newchunk(idx)
	slot, _ := ck.alloc()
	if !ck.isfull() {
		class.partial, ck.partial = append(class.partial, ck.id), true
	}
	arena.used += ck.size
	arena.n_allocs++
	return api.Makeref(ck.id, slot)
}

// Alloclarge implement api.Mallocer{} interface.
func (arena *Arena) Alloclarge(n int64) api.Ref {
	arena.checkreleased()
	if n < 0 {
		panicerr("invalid allocation size %v", n)
	}
	size := Align(n)
	if size == 0 {
		size = Alignment
	}
	arena.checkcapacity(size)
	id := arena.larges.add(size)
	arena.n_largeallocs++
	return api.Makelarge(id)
}

// Free implement api.Mallocer{} interface. Emptied chunks are kept
// around, they are given back only by Sweep.
func (arena *Arena) Free(ref api.Ref) {
	arena.checkreleased()
	if ref.Islarge() {
		if arena.larges.get(ref.Large()) == nil {
			panic(api.ErrorInvalidRef)
		}
		arena.larges.remove(ref.Large())
		arena.n_frees++
		return
	}
	ck := arena.getchunk(ref)
	ck.release(ref.Slot())
	arena.used -= ck.size
	arena.n_frees++
	if !ck.partial {
		class := arena.classes[ck.class]
		class.partial, ck.partial = append(class.partial, ck.id), true
	}
}

// Release implement api.Mallocer{} interface.
func (arena *Arena) Release() {
	arena.chunks, arena.freeids, arena.classes = nil, nil, nil
	arena.larges = largeitems{}
	arena.pool.release()
	arena.used, arena.heap = 0, 0
	arena.released = true
}

//---- cell access

// Isallocated implement api.Collectable{} interface.
func (arena *Arena) Isallocated(ref api.Ref) bool {
	if arena.released || ref.Isnil() {
		return false
	} else if ref.Islarge() {
		return arena.larges.get(ref.Large()) != nil
	}
	ck := arena.lookupchunk(ref)
	return ck != nil && ck.allocd.Isset(ref.Slot())
}

// Bytes implement api.Mallocer{} interface.
func (arena *Arena) Bytes(ref api.Ref) []byte {
	if ref.Islarge() {
		item := arena.getlarge(ref)
		return item.data
	}
	ck := arena.getchunk(ref)
	return ck.cell(ref.Slot())
}

// Pointer implement api.Mallocer{} interface.
func (arena *Arena) Pointer(ref api.Ref) unsafe.Pointer {
	return unsafe.Pointer(&arena.Bytes(ref)[0])
}

// Cellsize implement api.Mallocer{} interface.
func (arena *Arena) Cellsize(ref api.Ref) int64 {
	if ref.Islarge() {
		return arena.getlarge(ref).size
	}
	return arena.getchunk(ref).size
}

// Walk every allocated cell and large item, till callback returns
// false.
func (arena *Arena) Walk(callb func(ref api.Ref) bool) {
	arena.checkreleased()
	for _, ck := range arena.chunks {
		if ck == nil {
			continue
		}
		slot := ck.allocd.Findfirstset(0)
		for ; slot >= 0; slot = ck.allocd.Findfirstset(slot + 1) {
			if !callb(api.Makeref(ck.id, slot)) {
				return
			}
		}
	}
	for id, item := range arena.larges.items {
		if item != nil && !callb(api.Makelarge(int64(id))) {
			return
		}
	}
}

//---- mark and sweep

// Mark implement api.Collectable{} interface.
func (arena *Arena) Mark(ref api.Ref) bool {
	if ref.Islarge() {
		item := arena.larges.get(ref.Large())
		if item == nil || item.marked {
			return false
		}
		item.marked = true
		return true
	}
	ck := arena.lookupchunk(ref)
	if ck == nil || !ck.allocd.Isset(ref.Slot()) {
		return false
	}
	return ck.marks.Setbit(ref.Slot())
}

// Ismarked implement api.Collectable{} interface.
func (arena *Arena) Ismarked(ref api.Ref) bool {
	if ref.Islarge() {
		item := arena.larges.get(ref.Large())
		return item != nil && item.marked
	}
	ck := arena.lookupchunk(ref)
	return ck != nil && ck.marks.Isset(ref.Slot())
}

// Clearmarks drop every mark bit, for a cycle that did not reach the
// end of its sweep.
func (arena *Arena) Clearmarks() {
	arena.checkreleased()
	for _, ck := range arena.chunks {
		if ck != nil {
			ck.marks.Reset()
		}
	}
	for _, item := range arena.larges.items {
		if item != nil {
			item.marked = false
		}
	}
}

// Sweep implement api.Collectable{} interface. Chunks left empty are
// released to the free-chunk pool.
func (arena *Arena) Sweep(callb func(ref api.Ref)) (cells, bytes int64) {
	arena.checkreleased()
	for _, ck := range arena.chunks {
		if ck == nil {
			continue
		}
		slot := ck.allocd.Findfirstset(0)
		for ; slot >= 0; slot = ck.allocd.Findfirstset(slot + 1) {
			if ck.marks.Isset(slot) {
				continue
			}
			if callb != nil {
				callb(api.Makeref(ck.id, slot))
			}
			ck.release(slot)
			arena.used -= ck.size
			cells, bytes = cells+1, bytes+ck.size
		}
		ck.marks.Reset()
		if ck.isempty() {
			arena.releasechunk(ck)
		} else if !ck.isfull() && !ck.partial {
			class := arena.classes[ck.class]
			class.partial, ck.partial = append(class.partial, ck.id), true
		}
	}
	for id, item := range arena.larges.items {
		if item == nil {
			continue
		} else if item.marked {
			item.marked = false
			continue
		}
		if callb != nil {
			callb(api.Makelarge(int64(id)))
		}
		cells, bytes = cells+1, bytes+item.size
		arena.larges.remove(int64(id))
	}
	arena.n_frees += cells
	return cells, bytes
}

//---- statistics and maintenance

// Slabs implement api.Mallocer{} interface.
func (arena *Arena) Slabs() []int64 {
	return arena.slabs
}

// Maxblock return the largest size class.
func (arena *Arena) Maxblock() int64 {
	return arena.maxblock
}

// Used return bytes in allocated cells, excluding large items.
func (arena *Arena) Used() int64 {
	return arena.used
}

// Allocated return bytes held by chunks, excluding large items.
func (arena *Arena) Allocated() int64 {
	return arena.heap
}

// Largemem return bytes held by large items.
func (arena *Arena) Largemem() int64 {
	return arena.larges.mem
}

// Largeitems return number of live large items.
func (arena *Arena) Largeitems() int64 {
	return arena.larges.count
}

// Chunks return number of live chunks.
func (arena *Arena) Chunks() int64 {
	return arena.n_chunks - arena.n_chunkfrees
}

// Info implement api.Mallocer{} interface.
func (arena *Arena) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*arena))
	slicesz := int64(cap(arena.slabs)) * 8
	slicesz += int64(cap(arena.chunks)) * int64(unsafe.Sizeof(uintptr(0)))
	overhead = self + slicesz + arena.larges.overhead()
	for _, ck := range arena.chunks {
		if ck != nil {
			overhead += ck.overhead()
		}
	}
	heap = arena.heap + arena.larges.mem
	alloc = arena.used + arena.larges.mem
	return arena.capacity, heap, alloc, overhead
}

// Utilization implement api.Mallocer{} interface.
func (arena *Arena) Utilization() ([]int, []float64) {
	capacities := make([]int64, len(arena.slabs))
	allocated := make([]int64, len(arena.slabs))
	for _, ck := range arena.chunks {
		if ck != nil {
			capacities[ck.class] += ck.capacity()
			allocated[ck.class] += ck.nalloc * ck.size
		}
	}
	ss, zs := make([]int, 0), make([]float64, 0)
	for i, size := range arena.slabs {
		if capacities[i] > 0 {
			ss = append(ss, int(size))
			zs = append(zs, (float64(allocated[i])/float64(capacities[i]))*100)
		}
	}
	return ss, zs
}

// Stats return allocation counters.
func (arena *Arena) Stats() map[string]interface{} {
	capacity, heap, alloc, overhead := arena.Info()
	return map[string]interface{}{
		"capacity":        capacity,
		"heap":            heap,
		"alloc":           alloc,
		"overhead":        overhead,
		"used":            arena.used,
		"chunkmem":        arena.heap,
		"largemem":        arena.larges.mem,
		"poolmem":         arena.pool.memory(),
		"n_chunks":        arena.Chunks(),
		"n_largeitems":    arena.larges.count,
		"n_allocs":        arena.n_allocs,
		"n_frees":         arena.n_frees,
		"n_largeallocs":   arena.n_largeallocs,
		"n_chunkcreates":  arena.n_chunks,
		"n_chunkreleases": arena.n_chunkfrees,
		"n_poolreuses":    arena.pool.n_reused,
		"n_pooldrops":     arena.pool.n_dropped,
	}
}

//---- local functions

func (arena *Arena) newchunk(idx int) *chunk {
	class := arena.classes[idx]
	ncells := chunkcells(
		class.size, class.live, arena.minchunksize, arena.maxchunksize)
	capacity := class.size * ncells
	arena.checkcapacity(capacity)

	raw := arena.pool.get(int(capacity + Alignment))
	var id int64
	if n := len(arena.freeids); n > 0 {
		id, arena.freeids = arena.freeids[n-1], arena.freeids[:n-1]
	} else {
		id = int64(len(arena.chunks))
		arena.chunks = append(arena.chunks, nil)
	}
	ck := newchunk(id, idx, class.size, ncells, raw, arena.freer)
	arena.chunks[id] = ck
	class.live++
	arena.heap += capacity
	arena.n_chunks++
	return ck
}

func (arena *Arena) releasechunk(ck *chunk) {
	class := arena.classes[ck.class]
	if ck.partial {
		for i, id := range class.partial {
			if id == ck.id {
				copy(class.partial[i:], class.partial[i+1:])
				class.partial = class.partial[:len(class.partial)-1]
				break
			}
		}
		ck.partial = false
	}
	class.live--
	arena.chunks[ck.id] = nil
	arena.freeids = append(arena.freeids, ck.id)
	arena.heap -= ck.capacity()
	arena.n_chunkfrees++
	arena.pool.put(ck.raw)
}

func (arena *Arena) checkcapacity(size int64) {
	if total := arena.heap + arena.larges.mem + size; total > arena.capacity {
		warnf("malloc: out of memory, need %v over %v of capacity %v\n",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(total-size)),
			humanize.Bytes(uint64(arena.capacity)))
		panic(api.ErrorOutofMemory)
	}
}

func (arena *Arena) lookupchunk(ref api.Ref) *chunk {
	id := ref.Chunk()
	if id < 0 || id >= int64(len(arena.chunks)) {
		return nil
	}
	ck := arena.chunks[id]
	if ck == nil || ref.Slot() >= ck.ncells {
		return nil
	}
	return ck
}

func (arena *Arena) getchunk(ref api.Ref) *chunk {
	arena.checkreleased()
	ck := arena.lookupchunk(ref)
	if ck == nil || !ck.allocd.Isset(ref.Slot()) {
		panic(api.ErrorInvalidRef)
	}
	return ck
}

func (arena *Arena) getlarge(ref api.Ref) *largeitem {
	arena.checkreleased()
	item := arena.larges.get(ref.Large())
	if item == nil {
		panic(api.ErrorInvalidRef)
	}
	return item
}

func (arena *Arena) checkreleased() {
	if arena.released {
		panic(api.ErrorReleased)
	}
}
