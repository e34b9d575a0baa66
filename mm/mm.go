package mm

import "os"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/goheap/api"
import "github.com/bnclabs/goheap/lib"
import "github.com/bnclabs/goheap/malloc"

// Maxobjectargs maximum constructor arguments forwarded by
// Allocateobject.
const Maxobjectargs = 4

// Maxallocargs maximum constructor arguments forwarded by Alloc.
const Maxallocargs = 5

// MemoryManager owns a managed heap: its arena, type registry, class
// table, root sets and collector state.
type MemoryManager struct {
	arena      *malloc.Arena
	heap       api.Collectable
	registry   *Registry
	classes    *classtable
	stack      *ValueStack
	persistent *ValueStorage
	weak       *ValueStorage
	unmanaged  map[api.Ref]int64 // cell -> memory owned indirectly
	worklist   []api.Ref

	// builtin types
	objecttype     *TypeDescriptor
	memberdatatype *TypeDescriptor

	// collector state
	state   State
	blocked bool
	pending bool

	// trigger heuristics
	autogc         bool
	minthreshold   int64
	threshold      int64 // bytes allocated since last cycle to trigger
	allocsince     int64
	largesince     int64
	largelimit     int64
	unmanagedmem   int64
	unmanagedlimit int64
	unmanagedfloor int64

	// stats
	statsenabled bool
	n_gcs        int64
	n_deferred   int64
	n_freedcells int64
	n_freedbytes int64
	n_finalized  int64
	n_weakclears int64
	n_allocs     int64
	n_objects    int64
	h_gcpause    *lib.Histogram // microseconds
	h_marked     *lib.Histogram
	av_freed     lib.Average

	setts    s.Settings
	released bool
}

// NewMemoryManager create a managed heap. Settings not supplied are
// picked from Defaultsettings().
func NewMemoryManager(setts s.Settings) *MemoryManager {
	setts = Defaultsettings().Mixin(setts)
	validatesettings(setts)

	mm := &MemoryManager{
		arena:      malloc.NewArena(setts),
		registry:   NewRegistry(),
		classes:    newclasstable(),
		stack:      newvaluestack(setts.Int64("stack.size")),
		persistent: newvaluestorage(false /*weak*/),
		weak:       newvaluestorage(true /*weak*/),
		unmanaged:  make(map[api.Ref]int64),
		worklist:   make([]api.Ref, 0, 1024),

		autogc:         setts.Bool("gc.auto"),
		minthreshold:   setts.Int64("gc.minthreshold"),
		largelimit:     setts.Int64("gc.largelimit"),
		unmanagedlimit: setts.Int64("gc.unmanagedlimit"),
		unmanagedfloor: setts.Int64("gc.unmanagedlimit"),

		statsenabled: setts.Bool("stats"),
		h_gcpause:    lib.NewHistogram(),
		h_marked:     lib.NewHistogram(),
		setts:        setts,
	}
	mm.heap = mm.arena
	mm.threshold = mm.minthreshold
	mm.objecttype = mm.Registerobject(TypeDescriptor{Name: "Object"})
	mm.memberdatatype = mm.Register(TypeDescriptor{
		Name: "MemberData", Size: memberdataSize, Inline: true,
	})
	debugf("mm: new memory manager, maxblock:%v autogc:%v stats:%v\n",
		mm.arena.Maxblock(), mm.autogc, mm.statsenabled)
	return mm
}

// NewMemoryManagerFromEnv create a managed heap with settings, with
// environment knobs, refer Envsettings, taking precedence.
func NewMemoryManagerFromEnv(setts s.Settings) *MemoryManager {
	if setts == nil {
		setts = s.Settings{}
	}
	return NewMemoryManager(setts.Mixin(Envsettings(os.Environ())))
}

// Settings return the settings in effect.
func (mm *MemoryManager) Settings() s.Settings {
	return mm.setts
}

// Register a type descriptor with this heap.
func (mm *MemoryManager) Register(td TypeDescriptor) *TypeDescriptor {
	return mm.registry.Register(td)
}

// Registerobject register a property-bag object type. Size is the
// fixed part including Objectsize, it defaults to Objectsize. Object
// types always carry inline slots.
func (mm *MemoryManager) Registerobject(td TypeDescriptor) *TypeDescriptor {
	if td.Size == 0 {
		td.Size = Objectsize
	} else if td.Size < Objectsize {
		panicerr("object type %q size %v < %v", td.Name, td.Size, Objectsize)
	}
	td.Inline, td.object = true, true
	td.Refs = append([]int64{objPrototype, objMemberdata}, td.Refs...)
	return mm.registry.Register(td)
}

// Registry return the type registry.
func (mm *MemoryManager) Registry() *Registry {
	return mm.registry
}

// Objecttype return the builtin object type.
func (mm *MemoryManager) Objecttype() *TypeDescriptor {
	return mm.objecttype
}

// Emptyclass return the class without members, every other class is
// derived from it.
func (mm *MemoryManager) Emptyclass() *InternalClass {
	return mm.classes.empty
}

// Newclass return the class with `names` as members, in order.
func (mm *MemoryManager) Newclass(names ...string) *InternalClass {
	ic := mm.classes.empty
	for _, name := range names {
		ic = ic.Addmember(name)
	}
	return ic
}

// Stack return the value stack, a root set.
func (mm *MemoryManager) Stack() *ValueStack {
	return mm.stack
}

// Persistent return persistent value storage, a root set.
func (mm *MemoryManager) Persistent() *ValueStorage {
	return mm.persistent
}

// Weak return weak value storage.
func (mm *MemoryManager) Weak() *ValueStorage {
	return mm.weak
}

//---- allocation

// Allocmanaged allocate a cell of `size` bytes for type `td`, `size`
// is raised to td.Size if smaller. For Inline types the bytes beyond
// td.Size become inline value slots. `unmanaged` is memory owned
// indirectly by the cell, it counts towards triggering a collection
// and is given back when the cell is swept. May run a collection
// before allocating.
func (mm *MemoryManager) Allocmanaged(td *TypeDescriptor, size, unmanaged int64) api.Ref {
	mm.checktype(td)
	if size < td.Size {
		size = td.Size
	}
	ref := mm.allocate(size)
	var inlinecnt int64
	if td.Inline {
		inlinecnt = (size - td.Size) / 8
	}
	header(mm.heap.Bytes(ref)).stamp(td, td.Size, inlinecnt)
	if unmanaged > 0 {
		mm.Setunmanaged(ref, unmanaged)
	}
	return ref
}

// Alloc allocate a cell of type `td` without inline slots and
// construct it with upto Maxallocargs arguments.
func (mm *MemoryManager) Alloc(td *TypeDescriptor, args ...api.Value) api.Ref {
	if len(args) > Maxallocargs {
		panic(api.ErrorTooManyArgs)
	}
	mm.checktype(td)
	scope := mm.stack.Scope()
	defer scope.Close()
	mm.rootargs(scope, api.Empty, args)

	ref := mm.allocate(td.Size)
	scope.Rootref(ref) // Init may allocate.
	header(mm.heap.Bytes(ref)).stamp(td, 0, 0)
	mm.construct(td, ref, args)
	return ref
}

// Allocateobject allocate a property-bag object of type `td`, nil
// for the builtin object type, shaped by class `ic`, nil for the empty
// class. Inline slots are sized after `ic`, so that member access is
// index arithmetic. Prototype and upto Maxobjectargs arguments are
// forwarded to the constructor.
func (mm *MemoryManager) Allocateobject(
	td *TypeDescriptor, ic *InternalClass,
	proto api.Value, args ...api.Value) api.Ref {

	if len(args) > Maxobjectargs {
		panic(api.ErrorTooManyArgs)
	}
	if td == nil {
		td = mm.objecttype
	} else if !td.object {
		panicerr("type %v is not an object type", td)
	}
	mm.checktype(td)
	if ic == nil {
		ic = mm.classes.empty
	} else if ic.classes != mm.classes {
		panicerr("class %v does not belong to this heap", ic)
	}
	proto = mm.protovalue(proto)
	scope := mm.stack.Scope()
	defer scope.Close()
	mm.rootargs(scope, proto, args)

	nslots := int64(ic.Size())
	ref := mm.allocate(td.Size + nslots*8)
	scope.Rootref(ref) // Init may allocate.
	buf := mm.heap.Bytes(ref)
	header(buf).stamp(td, td.Size, nslots)
	api.Setvalue(buf, objPrototype, proto)
	api.Setuint32(buf, objClassid, ic.id)
	for i := int64(0); i < nslots; i++ {
		api.Setvalue(buf, td.Size+i*8, api.Undefined)
	}
	mm.construct(td, ref, args)
	mm.n_objects++
	return ref
}

// Setunmanaged set the memory owned indirectly by cell `ref`.
func (mm *MemoryManager) Setunmanaged(ref api.Ref, n int64) {
	mm.checkref(ref)
	old := mm.unmanaged[ref]
	if n <= 0 {
		delete(mm.unmanaged, ref)
		n = 0
	} else {
		mm.unmanaged[ref] = n
	}
	mm.Growunmanagedheapsizeusage(n - old)
}

// Unmanaged return the memory owned indirectly by cell `ref`.
func (mm *MemoryManager) Unmanaged(ref api.Ref) int64 {
	return mm.unmanaged[ref]
}

// Growunmanagedheapsizeusage account `delta` bytes of memory owned
// indirectly by cells, negative delta shrinks it. Cells that track
// their own footprint should use Setunmanaged instead.
func (mm *MemoryManager) Growunmanagedheapsizeusage(delta int64) {
	mm.unmanagedmem += delta
	if mm.unmanagedmem < 0 {
		mm.unmanagedmem = 0
	}
}

// Release run finalizers for every live cell and release the heap.
// Further use of the heap panics.
func (mm *MemoryManager) Release() {
	if mm.released {
		return
	}
	mm.state = Sweeping
	defer func() { mm.state = Idle }()
	mm.arena.Walk(func(ref api.Ref) bool {
		mm.sweepcell(ref)
		return true
	})
	mm.arena.Release()
	mm.stack.Truncate(0)
	mm.unmanaged, mm.unmanagedmem = nil, 0
	mm.released = true
	infof("mm: released after %v collections\n", mm.n_gcs)
}

//---- local functions

func (mm *MemoryManager) allocate(size int64) api.Ref {
	mm.checkreleased()
	if mm.state != Idle {
		panicerr("allocation while collector is %v", mm.state)
	}
	mm.maybegc(size)
	ref := mm.heap.Alloc(size)
	cellsize := mm.heap.Cellsize(ref)
	mm.allocsince += cellsize
	if ref.Islarge() {
		mm.largesince += cellsize
	}
	mm.n_allocs++
	return ref
}

func (mm *MemoryManager) construct(td *TypeDescriptor, ref api.Ref, args []api.Value) {
	if td.Init != nil {
		td.Init(mm, ref, args)
		return
	} else if len(args) == 0 {
		return
	}
	buf := mm.heap.Bytes(ref)
	if td.object {
		off, count := header(buf).inline()
		if int64(len(args)) > count {
			panic(api.ErrorTooManyArgs)
		}
		for i, arg := range args {
			api.Setvalue(buf, off+int64(i)*8, arg)
		}
		return
	}
	if len(args) > len(td.Refs) {
		panic(api.ErrorTooManyArgs)
	}
	for i, arg := range args {
		api.Setvalue(buf, td.Refs[i], arg)
	}
}

// rootargs push values that are about to be stored in a new cell, a
// collection triggered by the allocation shall not reclaim them.
func (mm *MemoryManager) rootargs(scope *Scope, proto api.Value, args []api.Value) {
	if proto.Ismanaged() {
		scope.Root(proto)
	}
	for _, arg := range args {
		if arg.Ismanaged() {
			scope.Root(arg)
		}
	}
}

func (mm *MemoryManager) checktype(td *TypeDescriptor) {
	if !mm.registry.owns(td) {
		panic(api.ErrorUnknownType)
	}
}

func (mm *MemoryManager) checkref(ref api.Ref) {
	mm.checkreleased()
	if !mm.heap.Isallocated(ref) {
		panic(api.ErrorInvalidRef)
	}
}

func (mm *MemoryManager) checkreleased() {
	if mm.released {
		panic(api.ErrorReleased)
	}
}

// protovalue return `proto` if it refers to an object, else Null.
func (mm *MemoryManager) protovalue(proto api.Value) api.Value {
	if ref := proto.Toref(); !ref.Isnil() && mm.Isobject(ref) {
		return proto
	}
	return api.Null
}
