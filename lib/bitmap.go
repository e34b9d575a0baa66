package lib

import "math/bits"

// Bitmap of fixed number of bits, packed in 64-bit words.
type Bitmap []uint64

// NewBitmap return a bitmap that can hold `n` bits, all cleared.
func NewBitmap(n int64) Bitmap {
	return make(Bitmap, (n+63)>>6)
}

// Setbit set the nth bit, return true if it was previously cleared.
func (bm Bitmap) Setbit(n int64) bool {
	w, mask := n>>6, uint64(1)<<uint(n&0x3f)
	if bm[w]&mask != 0 {
		return false
	}
	bm[w] |= mask
	return true
}

// Clearbit clear the nth bit.
func (bm Bitmap) Clearbit(n int64) {
	bm[n>>6] &^= uint64(1) << uint(n&0x3f)
}

// Isset return whether nth bit is set.
func (bm Bitmap) Isset(n int64) bool {
	return bm[n>>6]&(uint64(1)<<uint(n&0x3f)) != 0
}

// Ones return the number of bits set.
func (bm Bitmap) Ones() (n int64) {
	for _, w := range bm {
		n += int64(bits.OnesCount64(w))
	}
	return n
}

// Findfirstset return the index of the lowest set bit at or after
// `from`, -1 if none.
func (bm Bitmap) Findfirstset(from int64) int64 {
	w := from >> 6
	if w >= int64(len(bm)) {
		return -1
	}
	word := bm[w] & (^uint64(0) << uint(from&0x3f))
	for {
		if word != 0 {
			return (w << 6) + int64(bits.TrailingZeros64(word))
		}
		if w++; w >= int64(len(bm)) {
			return -1
		}
		word = bm[w]
	}
}

// Reset clear all bits.
func (bm Bitmap) Reset() {
	for i := range bm {
		bm[i] = 0
	}
}
