package api

import "fmt"

// Value is a tagged 64-bit word, the unit stored in value stacks,
// handle tables and object slots. The top three bits carry the tag,
// the remaining 61 bits carry the payload. A zeroed word reads as
// Empty, so freshly allocated storage holds empty values.
type Value uint64

// Tag of a Value.
type Tag uint8

const (
	// TagEmpty no value, also the sentinel for cleared weak entries.
	TagEmpty Tag = iota
	// TagUndefined javascript undefined.
	TagUndefined
	// TagNull javascript null.
	TagNull
	// TagBoolean true or false.
	TagBoolean
	// TagInteger 32-bit signed integer.
	TagInteger
	// TagManaged reference to a heap cell.
	TagManaged
)

const tagShift = 61
const payloadMask = (Value(1) << tagShift) - 1

// Empty value, all bits zero.
const Empty = Value(0)

// Undefined value.
const Undefined = Value(uint64(TagUndefined) << tagShift)

// Null value.
const Null = Value(uint64(TagNull) << tagShift)

// Boolean return a boolean value.
func Boolean(b bool) Value {
	if b {
		return Value(uint64(TagBoolean)<<tagShift) | 1
	}
	return Value(uint64(TagBoolean) << tagShift)
}

// Integer return an integer value.
func Integer(i int32) Value {
	return Value(uint64(TagInteger)<<tagShift | uint64(uint32(i)))
}

// Managed return a value referring to heap cell `ref`. A nil ref
// gives Null.
func Managed(ref Ref) Value {
	if ref.Isnil() {
		return Null
	}
	return Value(uint64(TagManaged)<<tagShift | uint64(ref))
}

// Tag return the value's tag.
func (v Value) Tag() Tag {
	return Tag(v >> tagShift)
}

// Isempty return true for the Empty value.
func (v Value) Isempty() bool {
	return v == Empty
}

// Isundefined return true for Undefined.
func (v Value) Isundefined() bool {
	return v == Undefined
}

// Isnull return true for Null.
func (v Value) Isnull() bool {
	return v == Null
}

// Isboolean return true for boolean values.
func (v Value) Isboolean() bool {
	return v.Tag() == TagBoolean
}

// Isinteger return true for integer values.
func (v Value) Isinteger() bool {
	return v.Tag() == TagInteger
}

// Ismanaged return true if value refers to a heap cell.
func (v Value) Ismanaged() bool {
	return v.Tag() == TagManaged
}

// Toboolean return the boolean payload.
func (v Value) Toboolean() bool {
	return v&payloadMask != 0
}

// Tointeger return the integer payload.
func (v Value) Tointeger() int32 {
	return int32(uint32(v))
}

// Toref return the heap cell referred by this value, Nilref for
// values that are not managed.
func (v Value) Toref() Ref {
	if v.Ismanaged() {
		return Ref(v & payloadMask)
	}
	return Nilref
}

func (v Value) String() string {
	switch v.Tag() {
	case TagEmpty:
		return "empty"
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return fmt.Sprintf("%v", v.Toboolean())
	case TagInteger:
		return fmt.Sprintf("%v", v.Tointeger())
	case TagManaged:
		return v.Toref().String()
	}
	return fmt.Sprintf("value(%x)", uint64(v))
}
