//go:build debug
// +build debug

package malloc

var poisonblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poisonblkinit); i++ {
		poisonblkinit[i] = 0xff
	}
}

// poisonblock fill freed cells with 0xff, so that reads through a
// dangling ref stand out while debugging.
func poisonblock(block []byte) {
	for len(block) > 0 {
		n := copy(block, poisonblkinit)
		block = block[n:]
	}
}
