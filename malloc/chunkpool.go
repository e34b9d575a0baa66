package malloc

// chunkpool caches memory of emptied chunks, keyed by byte size, for
// reuse by any size class that needs a chunk of the same size. Memory
// beyond `limit` chunks is dropped to the Go runtime.
type chunkpool struct {
	limit  int64
	count  int64
	blocks map[int][][]byte
	// stats
	n_reused  int64
	n_dropped int64
}

func newchunkpool(limit int64) *chunkpool {
	return &chunkpool{limit: limit, blocks: make(map[int][][]byte)}
}

func (pool *chunkpool) put(raw []byte) bool {
	if pool.count >= pool.limit {
		pool.n_dropped++
		return false
	}
	pool.blocks[len(raw)] = append(pool.blocks[len(raw)], raw)
	pool.count++
	return true
}

func (pool *chunkpool) get(size int) []byte {
	raws := pool.blocks[size]
	if len(raws) == 0 {
		return nil
	}
	raw := raws[len(raws)-1]
	pool.blocks[size] = raws[:len(raws)-1]
	pool.count--
	pool.n_reused++
	return raw
}

// memory held by pooled chunks.
func (pool *chunkpool) memory() (n int64) {
	for size, raws := range pool.blocks {
		n += int64(size * len(raws))
	}
	return n
}

func (pool *chunkpool) release() {
	pool.blocks, pool.count = make(map[int][][]byte), 0
}
