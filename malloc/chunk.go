package malloc

import "unsafe"

import "github.com/bnclabs/goheap/lib"

// chunk manages a memory block sliced up into equal sized cells.
type chunk struct {
	id      int64
	class   int     // index into arena's size classes
	size    int64   // size of each cell
	ncells  int64   // number of cells in chunk
	nalloc  int64   // number of allocated cells
	data    []byte  // 16-byte aligned cell memory
	raw     []byte  // backing allocation, returned to chunk pool
	allocd  lib.Bitmap
	marks   lib.Bitmap
	free    freecells
	partial bool // listed in its size class as having free cells
}

func newchunk(
	id int64, class int, size, ncells int64, raw []byte,
	freer func(int64) freecells) *chunk {

	capacity := size * ncells
	if raw == nil {
		raw = make([]byte, capacity+Alignment)
	}
	ck := &chunk{
		id:     id,
		class:  class,
		size:   size,
		ncells: ncells,
		raw:    raw,
		data:   alignblock(raw, capacity),
		allocd: lib.NewBitmap(ncells),
		marks:  lib.NewBitmap(ncells),
		free:   freer(ncells),
	}
	return ck
}

func alignblock(raw []byte, size int64) []byte {
	addr := uintptr(unsafe.Pointer(&raw[0]))
	off := int64((uintptr(Alignment) - addr%uintptr(Alignment)) % uintptr(Alignment))
	return raw[off : off+size : off+size]
}

func (ck *chunk) alloc() (int64, bool) {
	slot, ok := ck.free.take()
	if !ok {
		return -1, false
	}
	ck.allocd.Setbit(slot)
	ck.nalloc++
	clear(ck.cell(slot))
	return slot, true
}

func (ck *chunk) release(slot int64) {
	if slot < 0 || slot >= ck.ncells || !ck.allocd.Isset(slot) {
		panicerr("chunk %v: slot %v not allocated", ck.id, slot)
	}
	poisonblock(ck.cell(slot))
	ck.allocd.Clearbit(slot)
	ck.marks.Clearbit(slot)
	ck.free.give(slot)
	ck.nalloc--
}

func (ck *chunk) cell(slot int64) []byte {
	off := slot * ck.size
	return ck.data[off : off+ck.size : off+ck.size]
}

func (ck *chunk) isfull() bool {
	return ck.nalloc == ck.ncells
}

func (ck *chunk) isempty() bool {
	return ck.nalloc == 0
}

func (ck *chunk) capacity() int64 {
	return ck.size * ck.ncells
}

func (ck *chunk) overhead() int64 {
	self := int64(unsafe.Sizeof(*ck))
	bits := int64(len(ck.allocd)+len(ck.marks)) * 8
	return self + bits + ck.free.sizeof() + int64(len(ck.raw)-len(ck.data))
}

// checkallocated can be costly operation.
func (ck *chunk) checkallocated() int64 {
	return ck.allocd.Ones() * ck.size
}
