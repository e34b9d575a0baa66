// Package goheap implement a garbage collected heap for embedding in
// script engines and similar runtimes, along with necessary tools and
// libraries.
//
// api:
//
// Interface specification for heap references, tagged values and the
// allocator contract required by the collector.
//
// lib:
//
// Convinience functions that can be used by other packages. Package shall
// not import packages other than golang's standard packages.
//
// malloc:
//
// Size-classed arena handing out 16-byte aligned, zeroed cells from
// chunks, with per-cell mark bits and a registry for large items.
//
// mm:
//
// Memory manager on top of malloc. Typed cells, property-bag objects,
// exact roots from value stack and persistent storage, weak storage,
// stop-the-world mark-and-sweep collection with adaptive triggers and
// finalizers.
//
// tools/heapstat:
//
// Command line tool to print size classes and run a synthetic
// workload against the heap.
package goheap
