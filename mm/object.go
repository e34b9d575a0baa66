package mm

import "github.com/bnclabs/goheap/api"

// Typeof return the type descriptor stamped into cell.
func (mm *MemoryManager) Typeof(ref api.Ref) *TypeDescriptor {
	mm.checkref(ref)
	td, ok := mm.registry.Lookup(header(mm.heap.Bytes(ref)).typeid())
	if !ok {
		panic(api.ErrorUnknownType)
	}
	return td
}

// Getvalue read value field at byte offset `off` of cell.
func (mm *MemoryManager) Getvalue(ref api.Ref, off int64) api.Value {
	mm.checkref(ref)
	return api.Getvalue(mm.heap.Bytes(ref), off)
}

// Setvalue write value field at byte offset `off` of cell. Offset
// shall be past the header.
func (mm *MemoryManager) Setvalue(ref api.Ref, off int64, v api.Value) {
	mm.checkref(ref)
	if off < api.Headersize {
		panicerr("offset %v overwrites cell header", off)
	}
	api.Setvalue(mm.heap.Bytes(ref), off, v)
}

// Bytes return the memory of cell, including its header.
func (mm *MemoryManager) Bytes(ref api.Ref) []byte {
	mm.checkref(ref)
	return mm.heap.Bytes(ref)
}

// Inline return the number of inline value slots in cell.
func (mm *MemoryManager) Inline(ref api.Ref) int64 {
	mm.checkref(ref)
	_, count := header(mm.heap.Bytes(ref)).inline()
	return count
}

// Getinline read inline slot `i` of cell.
func (mm *MemoryManager) Getinline(ref api.Ref, i int64) api.Value {
	buf := mm.Bytes(ref)
	off := inlineslot(buf, i)
	return api.Getvalue(buf, off)
}

// Setinline write inline slot `i` of cell.
func (mm *MemoryManager) Setinline(ref api.Ref, i int64, v api.Value) {
	buf := mm.Bytes(ref)
	off := inlineslot(buf, i)
	api.Setvalue(buf, off, v)
}

//---- objects

// Isobject return whether cell is a property-bag object.
func (mm *MemoryManager) Isobject(ref api.Ref) bool {
	mm.checkref(ref)
	return header(mm.heap.Bytes(ref)).isobject()
}

// Class return the object's class.
func (mm *MemoryManager) Class(obj api.Ref) *InternalClass {
	buf := mm.objectbytes(obj)
	return mm.classes.lookup(api.Getuint32(buf, objClassid))
}

// Prototype return the object's prototype, Null if it has none.
func (mm *MemoryManager) Prototype(obj api.Ref) api.Value {
	return api.Getvalue(mm.objectbytes(obj), objPrototype)
}

// Setprototype change object's prototype, a value that is not an
// object sets it to Null. Return false, leaving the prototype
// unchanged, if `proto` has `obj` in its prototype chain.
func (mm *MemoryManager) Setprototype(obj api.Ref, proto api.Value) bool {
	buf := mm.objectbytes(obj)
	proto = mm.protovalue(proto)
	for ref := proto.Toref(); !ref.Isnil(); ref = mm.Prototype(ref).Toref() {
		if ref == obj {
			debugf("mm: cyclic prototype %v for %v\n", proto, obj)
			return false
		}
	}
	api.Setvalue(buf, objPrototype, proto)
	return true
}

// Getslot read member slot `i` of object. Slots past the inline
// storage live in the object's MemberData.
func (mm *MemoryManager) Getslot(obj api.Ref, i int) api.Value {
	buf := mm.objectbytes(obj)
	if i < 0 || i >= mm.classes.lookup(api.Getuint32(buf, objClassid)).Size() {
		panicerr("slot %v out of range for %v", i, obj)
	}
	_, count := header(buf).inline()
	if int64(i) < count {
		return api.Getvalue(buf, inlineslot(buf, int64(i)))
	}
	md := api.Getvalue(buf, objMemberdata).Toref()
	if md.Isnil() {
		return api.Undefined
	}
	mdbuf := mm.heap.Bytes(md)
	return api.Getvalue(mdbuf, inlineslot(mdbuf, int64(i)-count))
}

// Setslot write member slot `i` of object.
func (mm *MemoryManager) Setslot(obj api.Ref, i int, v api.Value) {
	buf := mm.objectbytes(obj)
	if i < 0 || i >= mm.classes.lookup(api.Getuint32(buf, objClassid)).Size() {
		panicerr("slot %v out of range for %v", i, obj)
	}
	_, count := header(buf).inline()
	if int64(i) < count {
		api.Setvalue(buf, inlineslot(buf, int64(i)), v)
		return
	}
	md := api.Getvalue(buf, objMemberdata).Toref()
	mdbuf := mm.heap.Bytes(md)
	api.Setvalue(mdbuf, inlineslot(mdbuf, int64(i)-count), v)
}

// Get member `name` from object, or from its prototype chain.
func (mm *MemoryManager) Get(obj api.Ref, name string) (api.Value, bool) {
	for !obj.Isnil() {
		if idx := mm.Class(obj).Find(name); idx >= 0 {
			return mm.Getslot(obj, idx), true
		}
		obj = mm.Prototype(obj).Toref()
	}
	return api.Undefined, false
}

// Put member `name` into object, adding it to the object's class if
// missing. May allocate MemberData, object and value are kept rooted
// for that allocation.
func (mm *MemoryManager) Put(obj api.Ref, name string, v api.Value) {
	ic := mm.Class(obj)
	if idx := ic.Find(name); idx >= 0 {
		mm.Setslot(obj, idx, v)
		return
	}
	next := ic.Addmember(name)
	idx := next.Find(name)
	mm.reservemembers(obj, v, int64(idx)+1)
	api.Setuint32(mm.heap.Bytes(obj), objClassid, next.id)
	mm.Setslot(obj, idx, v)
}

// Members return member names and values of object, in slot order.
func (mm *MemoryManager) Members(obj api.Ref) ([]string, []api.Value) {
	names := mm.Class(obj).Names()
	values := make([]api.Value, 0, len(names))
	for i := range names {
		values = append(values, mm.Getslot(obj, i))
	}
	return names, values
}

//---- local functions

// reservemembers make room for `n` members, spilling to MemberData
// beyond inline slots. MemberData grows by doubling.
func (mm *MemoryManager) reservemembers(obj api.Ref, v api.Value, n int64) {
	_, count := header(mm.heap.Bytes(obj)).inline()
	need := n - count
	if need <= 0 {
		return
	}
	md := api.Getvalue(mm.heap.Bytes(obj), objMemberdata).Toref()
	var have int64
	if !md.Isnil() {
		_, have = header(mm.heap.Bytes(md)).inline()
	}
	if need <= have {
		return
	}
	newcap := have * 2
	if newcap < 4 {
		newcap = 4
	}
	if newcap < need {
		newcap = need
	}

	scope := mm.stack.Scope()
	defer scope.Close()
	scope.Rootref(obj)
	scope.Root(v)

	size := memberdataSize + newcap*8
	newmd := mm.Allocmanaged(mm.memberdatatype, size, 0)
	newbuf := mm.heap.Bytes(newmd)
	// refetch, cells don't move but stay explicit about it.
	md = api.Getvalue(mm.heap.Bytes(obj), objMemberdata).Toref()
	if !md.Isnil() {
		oldbuf := mm.heap.Bytes(md)
		for i := int64(0); i < have; i++ {
			off := memberdataSize + i*8
			api.Setvalue(newbuf, off, api.Getvalue(oldbuf, off))
		}
	}
	for i := have; i < newcap; i++ {
		api.Setvalue(newbuf, memberdataSize+i*8, api.Undefined)
	}
	api.Setvalue(mm.heap.Bytes(obj), objMemberdata, api.Managed(newmd))
}

func (mm *MemoryManager) objectbytes(obj api.Ref) []byte {
	mm.checkref(obj)
	buf := mm.heap.Bytes(obj)
	if !header(buf).isobject() {
		panicerr("%v is not an object", obj)
	}
	return buf
}

func inlineslot(buf []byte, i int64) int64 {
	off, count := header(buf).inline()
	if i < 0 || i >= count {
		panicerr("inline slot %v out of range [0,%v)", i, count)
	}
	return off + i*8
}
