package mm

import "fmt"
import "sort"
import "strings"

import "github.com/bnclabs/goheap/api"
import "github.com/bnclabs/golog"
import humanize "github.com/dustin/go-humanize"

// Getusedmem return bytes in allocated cells, excluding large items.
func (mm *MemoryManager) Getusedmem() int64 {
	return mm.arena.Used()
}

// Getallocatedmem return bytes obtained for chunks, excluding large
// items.
func (mm *MemoryManager) Getallocatedmem() int64 {
	return mm.arena.Allocated()
}

// Getlargeitemsmem return bytes held by large items.
func (mm *MemoryManager) Getlargeitemsmem() int64 {
	return mm.arena.Largemem()
}

// Getunmanagedmem return memory owned indirectly by cells.
func (mm *MemoryManager) Getunmanagedmem() int64 {
	return mm.unmanagedmem
}

// Walk live cells along with their type, raw cells have a nil type.
// Return false from callback to stop walking.
func (mm *MemoryManager) Walk(callb func(ref api.Ref, td *TypeDescriptor) bool) {
	mm.checkreleased()
	mm.arena.Walk(func(ref api.Ref) bool {
		var td *TypeDescriptor
		if buf := mm.heap.Bytes(ref); int64(len(buf)) >= api.Headersize {
			td, _ = mm.registry.Lookup(header(buf).typeid())
		}
		return callb(ref, td)
	})
}

// Utilization return size classes in use and percentage of their
// chunk memory held by live cells.
func (mm *MemoryManager) Utilization() ([]int, []float64) {
	return mm.arena.Utilization()
}

// Stats return heap and collector counters. Histograms and averages
// are included only when "stats" is enabled.
func (mm *MemoryManager) Stats() map[string]interface{} {
	stats := mm.arena.Stats()
	stats["unmanagedmem"] = mm.unmanagedmem
	stats["unmanagedlimit"] = mm.unmanagedlimit
	stats["threshold"] = mm.threshold
	stats["allocsince"] = mm.allocsince
	stats["largesince"] = mm.largesince
	stats["stack"] = int64(mm.stack.Len())
	stats["persistent"] = mm.persistent.Count()
	stats["weak"] = mm.weak.Count()
	stats["classes"] = int64(len(mm.classes.list))
	stats["types"] = int64(mm.registry.Len())
	stats["n_gcs"] = mm.n_gcs
	stats["n_deferred"] = mm.n_deferred
	stats["n_freedcells"] = mm.n_freedcells
	stats["n_freedbytes"] = mm.n_freedbytes
	stats["n_finalized"] = mm.n_finalized
	stats["n_weakclears"] = mm.n_weakclears
	stats["n_cellallocs"] = mm.n_allocs
	stats["n_objects"] = mm.n_objects
	if mm.statsenabled {
		stats["h_gcpause"] = mm.h_gcpause.Fullstats()
		stats["h_marked"] = mm.h_marked.Fullstats()
		stats["av_freed"] = mm.av_freed.Stats()
	}
	return stats
}

// Histogram of live cells by type name, raw cells are counted under
// "-".
func (mm *MemoryManager) Histogram() map[string]int64 {
	histogram := make(map[string]int64)
	mm.Walk(func(_ api.Ref, td *TypeDescriptor) bool {
		if td == nil {
			histogram["-"]++
		} else {
			histogram[td.Name]++
		}
		return true
	})
	return histogram
}

// Dumpstats log heap statistics at info level.
func (mm *MemoryManager) Dumpstats() {
	capacity, heap, alloc, overhead := mm.arena.Info()
	log.Infof("%v capacity:%v heap:%v alloc:%v overhead:%v\n",
		mm.logprefix(), humanize.Bytes(uint64(capacity)),
		humanize.Bytes(uint64(heap)), humanize.Bytes(uint64(alloc)),
		humanize.Bytes(uint64(overhead)))
	log.Infof("%v used:%v large:%v/%v unmanaged:%v/%v\n",
		mm.logprefix(), humanize.Bytes(uint64(mm.Getusedmem())),
		humanize.Bytes(uint64(mm.Getlargeitemsmem())), mm.arena.Largeitems(),
		humanize.Bytes(uint64(mm.unmanagedmem)),
		humanize.Bytes(uint64(mm.unmanagedlimit)))
	log.Infof("%v gcs:%v deferred:%v freed:%v/%v finalized:%v weakclears:%v\n",
		mm.logprefix(), mm.n_gcs, mm.n_deferred, mm.n_freedcells,
		humanize.Bytes(uint64(mm.n_freedbytes)), mm.n_finalized,
		mm.n_weakclears)

	sizes, zs := mm.Utilization()
	parts := make([]string, 0, len(sizes))
	for i, size := range sizes {
		parts = append(parts, fmt.Sprintf("%v:%.2f%%", size, zs[i]))
	}
	log.Infof("%v utilization {%v}\n", mm.logprefix(), strings.Join(parts, " "))

	if mm.statsenabled {
		log.Infof("%v gcpause %v\n", mm.logprefix(), mm.h_gcpause.Logstring())
		log.Infof("%v marked %v\n", mm.logprefix(), mm.h_marked.Logstring())
	}

	histogram := mm.Histogram()
	names := make([]string, 0, len(histogram))
	for name := range histogram {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Infof("%v type %q cells:%v\n", mm.logprefix(), name, histogram[name])
	}
}

func (mm *MemoryManager) logprefix() string {
	return fmt.Sprintf("mm(%p)", mm)
}
