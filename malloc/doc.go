// Package malloc supplies the cell allocator underneath the managed
// heap, with a limited scope:
//
//  * Types and Functions exported by this package are not thread safe.
//  * Memory is obtained in chunks, where each chunk manages several
//    cells of same size class. Chunks of a size class grow from
//    "minchunksize" to "maxchunksize" as the class gets more chunks.
//  * Cells are addressed as api.Ref, (chunk-id, slot-index) pairs,
//    never as raw pointers, Pointer() is only for diagnostics.
//  * Requests larger than the largest size class are large items,
//    tracked individually outside chunks.
//  * Every cell handed out is zeroed and 16-byte aligned.
//  * Each cell carries an allocated bit and a mark bit, Sweep frees
//    every allocated cell that is not marked. A chunk that becomes
//    empty in a sweep goes back to a bounded free-chunk pool.
//  * Exceeding the configured "capacity" is fatal, allocation panics
//    with api.ErrorOutofMemory.
//
// Size classes are generated between 16 bytes and 1<<"maxblockshift"
// bytes, in steps of 16 for small cells and geometric steps, keeping
// the expected utilization above MEMUtilization, for larger cells.
package malloc
