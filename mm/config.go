package mm

import "strings"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/goheap/malloc"
import "github.com/cloudfoundry/gosigar"
import "github.com/spf13/cast"

// Mincapacity floor for default capacity, when free memory cannot be
// learnt from the system.
const Mincapacity = int64(64 * 1024 * 1024)

// Defaultsettings for a MemoryManager, along with its arena.
//
// "maxblockshift" (int64, default: 9)
//		Largest size class is 1 << maxblockshift bytes, larger cells
//		are allocated as large items.
//
// "maxchunksize" (int64, default: 64KB)
//		Upper bound on the byte size of a chunk.
//
// "minchunksize" (int64, default: 4KB)
//		Byte size of first chunk in a size class.
//
// "capacity" (int64, default: half of free RAM)
//		Memory the heap may obtain, exceeding it is fatal.
//
// "allocator" (string, default: "flist")
//		Free cell tracking inside chunks, "flist" or "fbit".
//
// "chunkpool.size" (int64, default: 16)
//		Number of emptied chunks cached for reuse.
//
// "stats" (bool, default: false)
//		Enable allocation and collection counters, histogram of
//		pause times and marked cells.
//
// "stack.size" (int64, default: 65536)
//		Maximum number of values on the value stack.
//
// "gc.auto" (bool, default: true)
//		Let allocations trigger a collection when heuristics say so.
//		When false, collection runs only on explicit Rungc.
//
// "gc.minthreshold" (int64, default: 1MB)
//		Minimum bytes allocated between two collections, the
//		threshold grows with memory surviving a collection.
//
// "gc.unmanagedlimit" (int64, default: 128KB)
//		Initial limit on memory owned indirectly by cells. Doubles
//		when more than 3/4 of it survives a collection, halves when
//		less than 1/4 survives, never below initial value.
//
// "gc.largelimit" (int64, default: 8MB)
//		Bytes of large items allocated between two collections.
func Defaultsettings() s.Settings {
	setts := s.Settings{
		"stats":             false,
		"stack.size":        int64(65536),
		"gc.auto":           true,
		"gc.minthreshold":   int64(1024 * 1024),
		"gc.unmanagedlimit": int64(128 * 1024),
		"gc.largelimit":     int64(8 * 1024 * 1024),
	}
	return setts.Mixin(malloc.Defaultsettings(defaultcapacity()))
}

// environment knobs mapped to settings.
var envknobs = map[string]string{
	"GOHEAP_MAXBLOCK_SHIFT": "maxblockshift",
	"GOHEAP_MAX_CHUNK_SIZE": "maxchunksize",
	"GOHEAP_STATS":          "stats",
}

// Envsettings pick heap knobs from environment, in os.Environ()
// format. Recognised knobs are GOHEAP_MAXBLOCK_SHIFT,
// GOHEAP_MAX_CHUNK_SIZE and GOHEAP_STATS. Knobs that do not parse are
// ignored.
func Envsettings(environ []string) s.Settings {
	setts := s.Settings{}
	for _, env := range environ {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, ok := envknobs[parts[0]]
		if !ok {
			continue
		}
		value := strings.TrimSpace(parts[1])
		switch key {
		case "stats":
			if b, err := cast.ToBoolE(value); err == nil {
				setts[key] = b
			} else if n, err := cast.ToInt64E(value); err == nil {
				setts[key] = n != 0
			} else {
				warnf("mm: ignoring %v=%q: %v\n", parts[0], value, err)
			}
		default:
			if n, err := cast.ToInt64E(value); err == nil {
				setts[key] = n
			} else {
				warnf("mm: ignoring %v=%q: %v\n", parts[0], value, err)
			}
		}
	}
	return setts
}

func defaultcapacity() int64 {
	_, _, free := getsysmem()
	capacity := int64(free / 2)
	if capacity < Mincapacity {
		return Mincapacity
	} else if capacity > malloc.Maxarenasize {
		return malloc.Maxarenasize
	}
	return capacity
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0, 0, 0
	}
	return mem.Total, mem.Used, mem.Free
}

func validatesettings(setts s.Settings) {
	keys := []string{
		"stack.size", "gc.minthreshold", "gc.unmanagedlimit", "gc.largelimit",
	}
	for _, key := range keys {
		if n := setts.Int64(key); n <= 0 {
			panicerr("settings %q should be > 0, got %v", key, n)
		}
	}
}
