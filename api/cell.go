package api

import "encoding/binary"

// Getvalue read the tagged value stored at byte offset `off` of cell
// memory `buf`.
func Getvalue(buf []byte, off int64) Value {
	return Value(binary.LittleEndian.Uint64(buf[off : off+8]))
}

// Setvalue write tagged value `v` at byte offset `off` of cell memory.
func Setvalue(buf []byte, off int64, v Value) {
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(v))
}

// Getuint32 read a 32-bit word at byte offset `off`.
func Getuint32(buf []byte, off int64) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

// Setuint32 write a 32-bit word at byte offset `off`.
func Setuint32(buf []byte, off int64, word uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], word)
}
