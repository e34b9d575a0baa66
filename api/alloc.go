package api

import "unsafe"

// Mallocer interface for heap memory management. Cells are handed out
// as Refs, their memory is always zeroed and 16-byte aligned.
type Mallocer interface {
	// Slabs allocatable size classes, sorted.
	Slabs() (sizes []int64)

	// Alloc allocate a cell of at least `n` bytes from a size-classed
	// chunk, or as a large item if `n` exceeds the largest class.
	Alloc(n int64) Ref

	// Alloclarge allocate `n` bytes as a separately tracked large item.
	Alloclarge(n int64) Ref

	// Free cell back to its chunk, or drop the large item.
	Free(ref Ref)

	// Bytes return cell memory usable by application.
	Bytes(ref Ref) []byte

	// Pointer return the address of cell memory.
	Pointer(ref Ref) unsafe.Pointer

	// Cellsize return the size of the cell, which is its size class
	// for chunked cells.
	Cellsize(ref Ref) int64

	// Release all chunks, large items and resources.
	Release()

	// Info of memory accounting for this allocator.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of size class and its chunk utilization.
	Utilization() ([]int, []float64)
}

// Collectable extends Mallocer with per-cell mark bits, required by a
// mark-and-sweep collector.
type Collectable interface {
	Mallocer

	// Isallocated return whether ref refers to a live cell.
	Isallocated(ref Ref) bool

	// Mark cell, return true if it was not marked before.
	Mark(ref Ref) bool

	// Ismarked return whether cell is marked.
	Ismarked(ref Ref) bool

	// Sweep free every allocated cell that is not marked, after
	// calling `fn` on it, and clear marks of surviving cells.
	Sweep(fn func(ref Ref)) (cells, bytes int64)
}
