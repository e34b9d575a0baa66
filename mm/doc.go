// Package mm implement a managed heap for an embedding execution
// engine, with type-tagged cells and a stop-the-world mark-and-sweep
// collector. Types and Functions exported by this package are not
// thread safe, a MemoryManager is owned by a single engine thread.
//
// Every managed cell starts with a 16-byte header:
//
//	offset  0 : type id, index into the MemoryManager's type registry
//	offset  4 : flags
//	offset  8 : offset of the first inline value slot, 0 if none
//	offset 12 : number of inline value slots
//
// Cells are tied to a TypeDescriptor, the collector discovers outgoing
// references through the descriptor's pointer map, the cell's inline
// slots and an optional Trace callback. Property-bag objects carry
// their prototype, an overflow MemberData cell and their InternalClass
// (shape) id after the header, followed by inline property slots.
//
// Roots are exact: the engine's ValueStack, and the persistent
// ValueStorage. Entries in the weak ValueStorage do not keep their
// target alive, they are cleared to api.Empty when the target is
// collected.
//
// Refs held by Go code are not roots. Application must not keep a Ref
// across an allocation, or an explicit Rungc, unless it is reachable
// from a root; doing so leaves it with a dangling Ref. This contract
// is not checked.
package mm
