package api

import "fmt"

// Ref identifies a heap cell, either a slot inside a size-classed chunk
// or a large item. Refs are plain integers, they stay valid across
// chunk growth and can be dumped and compared.
//
//	bits 0-31  : slot index inside the chunk
//	bits 32-59 : chunk id + 1
//	bit  60    : large item, bits 0-59 then hold large item id + 1
//
// The zero Ref is the nil reference.
type Ref uint64

// Nilref is the zero value of Ref, refers to nothing.
const Nilref = Ref(0)

const refLarge = Ref(1) << 60
const refMask = refLarge - 1

// Maxchunks maximum number of chunks addressable by a Ref.
const Maxchunks = int64(1<<28) - 1

// Makeref compose a Ref for `slot` inside chunk `chunk`.
func Makeref(chunk, slot int64) Ref {
	if chunk < 0 || chunk >= Maxchunks {
		panic(fmt.Errorf("chunk id %v out of range", chunk))
	}
	return Ref(uint64(chunk+1)<<32 | uint64(uint32(slot)))
}

// Makelarge compose a Ref for large item `id`.
func Makelarge(id int64) Ref {
	return refLarge | Ref(id+1)
}

// Isnil return whether ref refers to nothing.
func (ref Ref) Isnil() bool {
	return ref == Nilref
}

// Islarge return whether ref refers to a large item.
func (ref Ref) Islarge() bool {
	return ref&refLarge != 0
}

// Chunk return the chunk id for size-classed cells.
func (ref Ref) Chunk() int64 {
	return int64((ref&refMask)>>32) - 1
}

// Slot return the cell index within its chunk.
func (ref Ref) Slot() int64 {
	return int64(ref & 0xffffffff)
}

// Large return the large item id.
func (ref Ref) Large() int64 {
	return int64(ref&refMask) - 1
}

func (ref Ref) String() string {
	switch {
	case ref.Isnil():
		return "ref(nil)"
	case ref.Islarge():
		return fmt.Sprintf("ref(large:%v)", ref.Large())
	}
	return fmt.Sprintf("ref(%v:%v)", ref.Chunk(), ref.Slot())
}
