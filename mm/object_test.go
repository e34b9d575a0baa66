package mm

import "testing"

import "github.com/bnclabs/goheap/api"
import "github.com/stretchr/testify/require"

func TestClasses(t *testing.T) {
	mm, _, _ := newtestmm(nil)
	defer mm.Release()

	empty := mm.Emptyclass()
	require.Equal(t, uint32(0), empty.ID())
	require.Equal(t, 0, empty.Size())
	require.Nil(t, empty.Parent())

	xy := mm.Newclass("x", "y")
	require.True(t, xy == mm.Newclass("x", "y"), "transitions shall be cached")
	require.True(t, xy == empty.Addmember("x").Addmember("y"))
	require.True(t, xy == xy.Addmember("x"))
	require.True(t, xy != mm.Newclass("y", "x"))
	require.Equal(t, 2, xy.Size())
	require.Equal(t, 0, xy.Find("x"))
	require.Equal(t, 1, xy.Find("y"))
	require.Equal(t, -1, xy.Find("z"))
	require.Equal(t, []string{"x", "y"}, xy.Names())
	require.Equal(t, "{x,y}", xy.String())
	require.True(t, xy.Parent() == mm.Newclass("x"))
}

func TestObjectMembers(t *testing.T) {
	mm, _, _ := newtestmm(nil)
	defer mm.Release()

	ic := mm.Newclass("a", "b")
	obj := mm.Allocateobject(nil, ic, api.Null, api.Integer(1), api.Integer(2))
	mm.Persistent().Allocate(api.Managed(obj))
	require.True(t, mm.Isobject(obj))
	require.True(t, mm.Class(obj) == ic)
	require.Equal(t, int64(2), mm.Inline(obj))
	require.True(t, mm.Prototype(obj).Isnull())

	v, ok := mm.Get(obj, "a")
	require.True(t, ok)
	require.Equal(t, api.Integer(1), v)
	v, ok = mm.Get(obj, "missing")
	require.False(t, ok)
	require.True(t, v.Isundefined())

	// members beyond inline slots spill to memberdata.
	names := []string{"c", "d", "e", "f", "g", "h", "i", "j", "k"}
	for i, name := range names {
		mm.Put(obj, name, api.Integer(int32(i+10)))
	}
	mm.Put(obj, "a", api.Boolean(true))
	require.Equal(t, 11, mm.Class(obj).Size())
	require.Equal(t, int64(2), mm.Inline(obj))

	mm.Rungc()

	v, _ = mm.Get(obj, "a")
	require.Equal(t, api.Boolean(true), v)
	v, _ = mm.Get(obj, "b")
	require.Equal(t, api.Integer(2), v)
	for i, name := range names {
		v, ok := mm.Get(obj, name)
		require.True(t, ok)
		require.Equal(t, api.Integer(int32(i+10)), v)
	}
	keys, values := mm.Members(obj)
	require.Equal(t, 11, len(keys))
	require.Equal(t, 11, len(values))
	require.Equal(t, "k", keys[10])

	// objects built the same way share class.
	other := mm.Allocateobject(nil, nil, api.Null)
	mm.Put(other, "a", api.Null)
	mm.Put(other, "b", api.Null)
	require.True(t, mm.Class(other) == ic)

	require.Panics(t, func() { mm.Getslot(obj, 11) })
	require.Panics(t, func() { mm.Setslot(obj, -1, api.Null) })
}

func TestObjectReferences(t *testing.T) {
	mm, pair, _ := newtestmm(nil)
	defer mm.Release()

	obj := mm.Allocateobject(nil, nil, api.Null)
	mm.Persistent().Allocate(api.Managed(obj))
	child := mm.Alloc(pair, api.Integer(5))
	mm.Put(obj, "child", api.Managed(child))
	for i := 0; i < 10; i++ {
		ref := mm.Alloc(pair)
		mm.Put(obj, string(rune('a'+i)), api.Managed(ref))
	}
	garbage := mm.Alloc(pair)

	mm.Rungc()
	require.True(t, mm.heap.Isallocated(child))
	require.False(t, mm.heap.Isallocated(garbage))
	_, values := mm.Members(obj)
	for _, v := range values {
		require.True(t, mm.heap.Isallocated(v.Toref()))
	}
	md := mm.Getvalue(obj, objMemberdata).Toref()
	require.True(t, mm.heap.Isallocated(md))
	require.Equal(t, "MemberData", mm.Typeof(md).Name)
}

func TestPutCollects(t *testing.T) {
	// every allocation triggers a collection, Put must keep object and
	// value alive while growing memberdata.
	mm, pair, _ := newtestmm(map[string]interface{}{
		"gc.auto":         true,
		"gc.minthreshold": int64(1),
	})
	defer mm.Release()

	obj := mm.Allocateobject(nil, nil, api.Null)
	h := mm.Persistent().Allocate(api.Managed(obj))
	for i := 0; i < 20; i++ {
		value := mm.Alloc(pair, api.Integer(int32(i)))
		mm.Put(obj, string(rune('a'+i)), api.Managed(value))
	}
	for i := 0; i < 20; i++ {
		v, ok := mm.Get(obj, string(rune('a'+i)))
		require.True(t, ok)
		require.Equal(t, api.Integer(int32(i)), mm.Getvalue(v.Toref(), 16))
	}
	require.Equal(t, 0, mm.Stack().Len())
	mm.Persistent().Free(h)
	mm.Rungc()
	require.Equal(t, int64(0), mm.Getusedmem())
}

func TestPrototypeChain(t *testing.T) {
	mm, pair, _ := newtestmm(nil)
	defer mm.Release()

	base := mm.Allocateobject(nil, nil, api.Null)
	mm.Put(base, "kind", api.Integer(1))
	mm.Put(base, "shared", api.Integer(2))
	derived := mm.Allocateobject(nil, nil, api.Managed(base))
	mm.Put(derived, "kind", api.Integer(3))
	mm.Persistent().Allocate(api.Managed(derived))

	v, ok := mm.Get(derived, "kind")
	require.True(t, ok)
	require.Equal(t, api.Integer(3), v)
	v, ok = mm.Get(derived, "shared")
	require.True(t, ok)
	require.Equal(t, api.Integer(2), v)

	// prototype is reachable through derived.
	mm.Rungc()
	require.True(t, mm.heap.Isallocated(base))

	// non-object prototypes are replaced by null.
	require.True(t, mm.Setprototype(derived, api.Integer(10)))
	require.True(t, mm.Prototype(derived).Isnull())
	require.True(t, mm.Setprototype(derived, api.Managed(mm.Alloc(pair))))
	require.True(t, mm.Prototype(derived).Isnull())
	_, ok = mm.Get(derived, "shared")
	require.False(t, ok)

	mm.Rungc()
	require.False(t, mm.heap.Isallocated(base))

	require.Panics(t, func() { mm.Class(mm.Alloc(pair)) })
}

func TestCyclicPrototype(t *testing.T) {
	mm, _, _ := newtestmm(nil)
	defer mm.Release()

	a := mm.Allocateobject(nil, nil, api.Null)
	b := mm.Allocateobject(nil, nil, api.Managed(a))
	c := mm.Allocateobject(nil, nil, api.Managed(b))

	require.False(t, mm.Setprototype(a, api.Managed(a)))
	require.False(t, mm.Setprototype(a, api.Managed(b)))
	require.False(t, mm.Setprototype(a, api.Managed(c)))
	require.True(t, mm.Prototype(a).Isnull())

	_, ok := mm.Get(c, "missing")
	require.False(t, ok)

	// re-parenting without a cycle is fine.
	require.True(t, mm.Setprototype(c, api.Managed(a)))
	require.Equal(t, api.Managed(a), mm.Prototype(c))
}

func TestNonobjectPrototype(t *testing.T) {
	mm, _, blob := newtestmm(nil)
	defer mm.Release()

	cell := mm.Allocmanaged(blob, 32, 0)
	obj := mm.Allocateobject(nil, nil, api.Managed(cell))
	require.True(t, mm.Prototype(obj).Isnull())
	v, ok := mm.Get(obj, "x")
	require.False(t, ok)
	require.True(t, v.Isundefined())

	obj = mm.Allocateobject(nil, nil, api.Integer(1))
	require.True(t, mm.Prototype(obj).Isnull())
}

func TestCustomObjecttype(t *testing.T) {
	mm, _, _ := newtestmm(nil)
	defer mm.Release()

	destroyed := 0
	array := mm.Registerobject(TypeDescriptor{
		Name: "ArrayObject", Size: Objectsize + 16, Refs: []int64{Objectsize},
		Needsdestroy: true,
		Destroy:      func(*MemoryManager, api.Ref) { destroyed++ },
	})
	require.True(t, array.Isobject())
	require.Equal(t, []int64{objPrototype, objMemberdata, Objectsize}, array.Refs)

	obj := mm.Allocateobject(array, mm.Newclass("length"), api.Null, api.Integer(0))
	v, _ := mm.Get(obj, "length")
	require.Equal(t, api.Integer(0), v)
	mm.Rungc()
	require.Equal(t, 1, destroyed)

	require.Panics(t, func() {
		mm.Registerobject(TypeDescriptor{Name: "Small", Size: 16})
	})
	require.Panics(t, func() {
		mm.Allocateobject(mm.Registry().types[3], nil, api.Null)
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	td := reg.Register(TypeDescriptor{Name: "T", Size: 24, Refs: []int64{16}})
	require.Equal(t, uint32(1), td.ID())
	require.Equal(t, "T(1)", td.String())
	_, ok := reg.Lookup(0)
	require.False(t, ok)
	_, ok = reg.Lookup(2)
	require.False(t, ok)

	bad := []TypeDescriptor{
		{Name: "", Size: 16},
		{Name: "T", Size: 16},
		{Name: "U", Size: 8},
		{Name: "V", Size: 20},
		{Name: "W", Size: 24, Refs: []int64{8}},
		{Name: "X", Size: 24, Refs: []int64{24}},
		{Name: "Y", Size: 24, Needsdestroy: true},
	}
	for _, td := range bad {
		require.Panics(t, func() { reg.Register(td) }, "%v", td.Name)
	}
	require.Equal(t, 1, reg.Len())
}
