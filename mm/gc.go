package mm

import "time"

import "github.com/bnclabs/goheap/api"
import humanize "github.com/dustin/go-humanize"

// State of the collector.
type State int

const (
	// Idle no collection in progress.
	Idle State = iota
	// Marking collector is tracing live cells from roots.
	Marking
	// Sweeping collector is reclaiming unmarked cells.
	Sweeping
)

func (state State) String() string {
	switch state {
	case Idle:
		return "idle"
	case Marking:
		return "marking"
	case Sweeping:
		return "sweeping"
	}
	return "unknown"
}

// State return the collector's state.
func (mm *MemoryManager) State() State {
	return mm.state
}

// Rungc run a full stop-the-world collection cycle. If collection is
// blocked the request is recorded and served by the first allocation,
// or Rungc, after it is unblocked.
func (mm *MemoryManager) Rungc() {
	mm.checkreleased()
	if mm.blocked {
		mm.pending = true
		mm.n_deferred++
		tracef("mm: collection deferred, blocked\n")
		return
	} else if mm.state != Idle { // finalizer asking for collection.
		return
	}

	start := time.Now()
	usedbefore := mm.arena.Used() + mm.arena.Largemem()

	swept := false
	mm.state = Marking
	defer func() { // finalizer panicked mid-sweep.
		if !swept {
			mm.arena.Clearmarks()
		}
		mm.state = Idle
	}()
	marked := mm.mark()

	mm.state = Sweeping
	cleared := mm.weak.clearunmarked(mm.heap.Ismarked)
	cells, bytes := mm.heap.Sweep(mm.sweepcell)
	swept = true

	mm.state = Idle
	mm.pending = false
	mm.adjustlimits()

	elapsed := time.Since(start)
	mm.n_gcs++
	mm.n_freedcells += cells
	mm.n_freedbytes += bytes
	mm.n_weakclears += cleared
	if mm.statsenabled {
		mm.h_gcpause.Add(int64(elapsed / time.Microsecond))
		mm.h_marked.Add(marked)
		mm.av_freed.Add(bytes)
	}
	debugf("mm: gc %v marked:%v freed:%v cells/%v used:%v->%v took:%v\n",
		mm.n_gcs, marked, cells, humanize.Bytes(uint64(bytes)),
		humanize.Bytes(uint64(usedbefore)),
		humanize.Bytes(uint64(mm.arena.Used()+mm.arena.Largemem())), elapsed)
}

// Isgcblocked return whether collection is blocked.
func (mm *MemoryManager) Isgcblocked() bool {
	return mm.blocked
}

// Setgcblocked block or unblock collection.
func (mm *MemoryManager) Setgcblocked(blocked bool) {
	mm.blocked = blocked
}

// Pending return whether a collection was requested while blocked and
// is yet to run.
func (mm *MemoryManager) Pending() bool {
	return mm.pending
}

// GCBlocker blocks collection from its creation till Release. It
// saves and restores the prior blocked state, blockers shall be
// released in the reverse order of their creation.
//
//	blocker := mm.NewGCBlocker()
//	defer blocker.Release()
type GCBlocker struct {
	mm       *MemoryManager
	prev     bool
	released bool
}

// NewGCBlocker block collection.
func (mm *MemoryManager) NewGCBlocker() *GCBlocker {
	blocker := &GCBlocker{mm: mm, prev: mm.blocked}
	mm.blocked = true
	return blocker
}

// Release restore the blocked state seen when blocker was created.
// Calling Release more than once has no effect.
func (blocker *GCBlocker) Release() {
	if blocker.released {
		return
	}
	blocker.mm.blocked = blocker.prev
	blocker.released = true
}

//---- local functions

// mark trace from roots with an explicit worklist, return number of
// cells marked.
func (mm *MemoryManager) mark() (marked int64) {
	heap, worklist := mm.heap, mm.worklist[:0]
	push := func(v api.Value) {
		if ref := v.Toref(); !ref.Isnil() && heap.Mark(ref) {
			worklist = append(worklist, ref)
			marked++
		}
	}

	mm.stack.iterate(push)
	mm.persistent.Iterate(func(_ Handle, v api.Value) bool {
		push(v)
		return true
	})
	for n := len(worklist); n > 0; n = len(worklist) {
		ref := worklist[n-1]
		worklist = worklist[:n-1]
		mm.markchildren(ref, push)
	}
	mm.worklist = worklist[:0]
	return marked
}

func (mm *MemoryManager) markchildren(ref api.Ref, push func(api.Value)) {
	buf := mm.heap.Bytes(ref)
	if int64(len(buf)) < api.Headersize {
		return
	}
	hdr := header(buf)
	td, ok := mm.registry.Lookup(hdr.typeid())
	if !ok { // raw cell, no references.
		return
	}
	for _, off := range td.Refs {
		push(api.Getvalue(buf, off))
	}
	off, count := hdr.inline()
	for i := int64(0); i < count; i++ {
		push(api.Getvalue(buf, off+i*8))
	}
	if td.Trace != nil {
		td.Trace(mm, ref, push)
	}
}

// sweepcell finalize an unreachable cell before its memory is reused.
func (mm *MemoryManager) sweepcell(ref api.Ref) {
	buf := mm.heap.Bytes(ref)
	if int64(len(buf)) >= api.Headersize {
		td, ok := mm.registry.Lookup(header(buf).typeid())
		if ok && td.Needsdestroy {
			td.Destroy(mm, ref)
			mm.n_finalized++
		}
	}
	if n, ok := mm.unmanaged[ref]; ok {
		delete(mm.unmanaged, ref)
		mm.Growunmanagedheapsizeusage(-n)
	}
}

func (mm *MemoryManager) maybegc(size int64) {
	if mm.blocked {
		return
	} else if mm.pending {
		mm.Rungc()
		return
	} else if !mm.autogc {
		return
	}
	if mm.allocsince+size > mm.threshold {
		mm.Rungc()
	} else if mm.unmanagedmem > mm.unmanagedlimit {
		mm.Rungc()
	} else if size > mm.arena.Maxblock() && mm.largesince+size > mm.largelimit {
		mm.Rungc()
	}
}

// adjustlimits after a cycle: next cycle runs once as many bytes as
// survived are allocated, unmanaged limit follows live unmanaged
// memory.
func (mm *MemoryManager) adjustlimits() {
	mm.allocsince, mm.largesince = 0, 0
	mm.threshold = mm.arena.Used() + mm.arena.Largemem()
	if mm.threshold < mm.minthreshold {
		mm.threshold = mm.minthreshold
	}
	limit := mm.unmanagedlimit
	if mm.unmanagedmem > (limit/4)*3 {
		for mm.unmanagedmem > (limit/4)*3 {
			limit *= 2
		}
	} else if mm.unmanagedmem < limit/4 {
		limit /= 2
	}
	if limit < mm.unmanagedfloor {
		limit = mm.unmanagedfloor
	}
	if limit != mm.unmanagedlimit {
		debugf("mm: unmanaged limit %v -> %v\n",
			humanize.Bytes(uint64(mm.unmanagedlimit)), humanize.Bytes(uint64(limit)))
	}
	mm.unmanagedlimit = limit
}
