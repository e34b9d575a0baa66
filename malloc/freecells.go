package malloc

import "unsafe"

import "github.com/bnclabs/goheap/lib"

// freecells track free cells inside a chunk.
type freecells interface {
	// take a free cell, lowest or most recently freed first.
	take() (slot int64, ok bool)
	// give back a cell.
	give(slot int64)
	// available number of free cells.
	available() int64
	// sizeof bookkeeping overhead in bytes.
	sizeof() int64
}

func freecellsfactory(allocator string) func(ncells int64) freecells {
	switch allocator {
	case "flist":
		return newfreelist
	case "fbit":
		return newfreebits
	}
	panicerr("invalid allocator %q", allocator)
	return nil
}

// freelist is a LIFO stack of free cell indexes, recently freed cells
// are reused first.
type freelist struct {
	slots []uint16
}

func newfreelist(ncells int64) freecells {
	fl := &freelist{slots: make([]uint16, ncells)}
	for i := int64(0); i < ncells; i++ {
		fl.slots[i] = uint16(ncells - 1 - i)
	}
	return fl
}

func (fl *freelist) take() (int64, bool) {
	n := len(fl.slots)
	if n == 0 {
		return -1, false
	}
	slot := int64(fl.slots[n-1])
	fl.slots = fl.slots[:n-1]
	return slot, true
}

func (fl *freelist) give(slot int64) {
	fl.slots = append(fl.slots, uint16(slot))
}

func (fl *freelist) available() int64 {
	return int64(len(fl.slots))
}

func (fl *freelist) sizeof() int64 {
	return int64(unsafe.Sizeof(*fl)) + int64(cap(fl.slots)*2)
}

// freebits is a bitmap of free cells, the lowest free cell is handed
// out first which keeps live cells packed at the start of a chunk.
type freebits struct {
	bits  lib.Bitmap
	hint  int64 // no free cell below hint
	nfree int64
}

func newfreebits(ncells int64) freecells {
	fb := &freebits{bits: lib.NewBitmap(ncells), nfree: ncells}
	for i := int64(0); i < ncells; i++ {
		fb.bits.Setbit(i)
	}
	return fb
}

func (fb *freebits) take() (int64, bool) {
	if fb.nfree == 0 {
		return -1, false
	}
	slot := fb.bits.Findfirstset(fb.hint)
	if slot < 0 {
		return -1, false
	}
	fb.bits.Clearbit(slot)
	fb.hint, fb.nfree = slot+1, fb.nfree-1
	return slot, true
}

func (fb *freebits) give(slot int64) {
	fb.bits.Setbit(slot)
	if slot < fb.hint {
		fb.hint = slot
	}
	fb.nfree++
}

func (fb *freebits) available() int64 {
	return fb.nfree
}

func (fb *freebits) sizeof() int64 {
	return int64(unsafe.Sizeof(*fb)) + int64(len(fb.bits)*8)
}
