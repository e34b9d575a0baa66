package main

import "fmt"
import "time"
import "flag"
import "sort"
import "strings"
import "math/rand"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/goheap/api"
import "github.com/bnclabs/goheap/malloc"
import "github.com/bnclabs/goheap/mm"
import hm "github.com/dustin/go-humanize"

var options struct {
	maxblockshift int
	allocator     string
	capacity      int
	n             int
	maxsize       int
	keep          int
	members       int
	sizes         bool
	stats         bool
	logs          string
	seed          int64
}

func argParse() {
	flag.IntVar(&options.maxblockshift, "maxblockshift", 9,
		"largest size class is 1 << maxblockshift")
	flag.StringVar(&options.allocator, "allocator", "flist",
		"free cell tracking, flist or fbit")
	flag.IntVar(&options.capacity, "capacity", 256*1024*1024,
		"heap capacity in bytes")
	flag.IntVar(&options.n, "n", 100000,
		"number of allocations to make")
	flag.IntVar(&options.maxsize, "maxsize", 1024,
		"cells are sized between [16,maxsize)")
	flag.IntVar(&options.keep, "keep", 10,
		"percentage of allocations kept alive")
	flag.IntVar(&options.members, "members", 8,
		"maximum members per object")
	flag.BoolVar(&options.sizes, "sizes", false,
		"only print size classes and their utilization")
	flag.BoolVar(&options.stats, "stats", true,
		"enable collector histograms")
	flag.StringVar(&options.logs, "log", "",
		"comma separated list of components to log, mm,malloc")
	flag.Int64Var(&options.seed, "seed", time.Now().UnixNano(),
		"seed for random workload")
	flag.Parse()
}

func main() {
	argParse()
	if options.sizes {
		tellutilization()
		return
	}
	for _, comp := range strings.Split(options.logs, ",") {
		switch comp {
		case "mm", "gc":
			mm.LogComponents(comp)
		case "malloc":
			malloc.LogComponents(comp)
		case "all":
			mm.LogComponents(comp)
			malloc.LogComponents(comp)
		}
	}

	setts := s.Settings{
		"maxblockshift": int64(options.maxblockshift),
		"allocator":     options.allocator,
		"capacity":      int64(options.capacity),
		"stats":         options.stats,
	}
	heap := mm.NewMemoryManagerFromEnv(setts)
	defer heap.Release()

	rnd := rand.New(rand.NewSource(options.seed))
	now := time.Now()
	kept := runworkload(heap, rnd)
	fmt.Printf("Took %v to make %v allocations, kept %v\n",
		time.Since(now), options.n, kept)

	now = time.Now()
	heap.Rungc()
	fmt.Printf("Took %v for final collection\n", time.Since(now))

	printstats(heap)
	printutilization(heap)
	heap.Dumpstats()
}

func tellutilization() {
	maxblock := int64(1) << uint(options.maxblockshift)
	sizes := malloc.Blocksizes(malloc.Minblock, maxblock)
	for i, size := range sizes[1:] {
		u := (float64(sizes[i]+sizes[i+1]) / 2.0) / float64(size)
		fmt.Printf("size %6v, util %.4f\n", size, u)
	}
	fmt.Printf("total %v size classes\n", len(sizes))
}

func runworkload(heap *mm.MemoryManager, rnd *rand.Rand) (kept int) {
	blob := heap.Register(mm.TypeDescriptor{
		Name: "Blob", Size: api.Headersize, Inline: true,
	})
	ic := heap.Emptyclass()
	names := make([]string, options.members)
	for i := range names {
		names[i] = fmt.Sprintf("m%v", i)
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("panic: %v\n", r)
		}
	}()
	for i := 0; i < options.n; i++ {
		var ref api.Ref
		if rnd.Intn(4) == 0 {
			ref = heap.Allocateobject(nil, ic, api.Null)
			for _, name := range names[:rnd.Intn(len(names)+1)] {
				heap.Put(ref, name, api.Integer(int32(i)))
			}
		} else {
			size := int64(rnd.Intn(options.maxsize-16) + 16)
			ref = heap.Allocmanaged(blob, size, 0)
		}
		if rnd.Intn(100) < options.keep {
			heap.Persistent().Allocate(api.Managed(ref))
			kept++
		}
	}
	return kept
}

func printstats(heap *mm.MemoryManager) {
	fmt.Printf("used:      %v\n", hm.Bytes(uint64(heap.Getusedmem())))
	fmt.Printf("allocated: %v\n", hm.Bytes(uint64(heap.Getallocatedmem())))
	fmt.Printf("large:     %v\n", hm.Bytes(uint64(heap.Getlargeitemsmem())))
	fmt.Printf("unmanaged: %v\n", hm.Bytes(uint64(heap.Getunmanagedmem())))

	stats := heap.Stats()
	keys := make([]string, 0, len(stats))
	for key := range stats {
		if strings.HasPrefix(key, "n_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%-16v %v\n", key, stats[key])
	}
}

func printutilization(heap *mm.MemoryManager) {
	histogram := heap.Histogram()
	names := make([]string, 0, len(histogram))
	for name := range histogram {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("type %-12v cells %v\n", name, histogram[name])
	}
	sizes, zs := heap.Utilization()
	for i, size := range sizes {
		fmt.Printf("size %6v, util %.2f%%\n", size, zs[i])
	}
}
