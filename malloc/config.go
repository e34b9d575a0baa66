package malloc

import s "github.com/bnclabs/gosettings"

// Alignment of every cell and large item, and the granularity of size
// classes.
const Alignment = int64(16)

// Minblock smallest size class.
const Minblock = Alignment

// MEMUtilization is the ratio between memory requested by application
// and memory handed out as cells.
const MEMUtilization = float64(0.95)

// Maxarenasize maximum capacity of an arena.
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024) // 1TB

// Maxcells maximum number of cells in a chunk, free lists index cells
// with 16-bit words.
const Maxcells = int64(65536)

// Defaultsettings for arena.
//
// "maxblockshift" (int64, default: 9)
//		Largest size class is 1 << maxblockshift bytes, larger
//		requests are allocated as large items.
//
// "maxchunksize" (int64, default: 64KB)
//		Upper bound on the byte size of a single chunk.
//
// "minchunksize" (int64, default: 4KB)
//		Byte size of the first chunk in each size class, later chunks
//		double in size till "maxchunksize".
//
// "capacity" (int64, default: <capacity>)
//		Memory, in bytes, that the arena may obtain for chunks and
//		large items together.
//
// "allocator" (string, default: "flist")
//		Free cell tracking inside a chunk, can be "flist" or "fbit".
//
// "chunkpool.size" (int64, default: 16)
//		Number of emptied chunks cached for reuse.
func Defaultsettings(capacity int64) s.Settings {
	return s.Settings{
		"maxblockshift":  int64(9),
		"maxchunksize":   int64(64 * 1024),
		"minchunksize":   int64(4 * 1024),
		"capacity":       capacity,
		"allocator":      "flist",
		"chunkpool.size": int64(16),
	}
}
