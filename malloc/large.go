package malloc

import "unsafe"

// largeitem is an allocation bigger than the largest size class, it
// is not subdivided into cells.
type largeitem struct {
	size   int64  // aligned size, as accounted
	data   []byte // 16-byte aligned memory
	marked bool
}

// largeitems registry, ids of dropped items are reused.
type largeitems struct {
	items   []*largeitem
	freeids []int64
	mem     int64
	count   int64
}

func (li *largeitems) add(size int64) int64 {
	raw := make([]byte, size+Alignment)
	item := &largeitem{size: size, data: alignblock(raw, size)}
	li.mem += size
	li.count++
	if n := len(li.freeids); n > 0 {
		id := li.freeids[n-1]
		li.freeids = li.freeids[:n-1]
		li.items[id] = item
		return id
	}
	li.items = append(li.items, item)
	return int64(len(li.items) - 1)
}

func (li *largeitems) get(id int64) *largeitem {
	if id < 0 || id >= int64(len(li.items)) {
		return nil
	}
	return li.items[id]
}

func (li *largeitems) remove(id int64) {
	item := li.get(id)
	if item == nil {
		panicerr("large item %v not allocated", id)
	}
	poisonblock(item.data)
	li.items[id] = nil
	li.freeids = append(li.freeids, id)
	li.mem -= item.size
	li.count--
}

func (li *largeitems) overhead() int64 {
	self := int64(unsafe.Sizeof(*li))
	items := int64(cap(li.items)) * int64(unsafe.Sizeof(uintptr(0)))
	ids := int64(cap(li.freeids)) * 8
	return self + items + ids + li.count*int64(unsafe.Sizeof(largeitem{}))
}
