package mm

import "strings"

// InternalClass describe the shape of property-bag objects, an ordered
// list of member names mapped to slot indexes. Adding a member moves
// an object to a new class, transitions are cached so that objects
// built the same way share their class.
type InternalClass struct {
	id          uint32
	names       []string
	index       map[string]int
	parent      *InternalClass
	transitions map[string]*InternalClass
	classes     *classtable
}

// ID return the class id stamped into objects.
func (ic *InternalClass) ID() uint32 {
	return ic.id
}

// Size return the number of members.
func (ic *InternalClass) Size() int {
	return len(ic.names)
}

// Find return slot index for member `name`, -1 if missing.
func (ic *InternalClass) Find(name string) int {
	if idx, ok := ic.index[name]; ok {
		return idx
	}
	return -1
}

// Names return members in slot order.
func (ic *InternalClass) Names() []string {
	return append([]string(nil), ic.names...)
}

// Parent return the class this class was derived from, nil for the
// empty class.
func (ic *InternalClass) Parent() *InternalClass {
	return ic.parent
}

// Addmember return the class with `name` appended to this class's
// members. If already a member, return this class.
func (ic *InternalClass) Addmember(name string) *InternalClass {
	if ic.Find(name) >= 0 {
		return ic
	} else if next, ok := ic.transitions[name]; ok {
		return next
	}
	next := ic.classes.newclass(ic, name)
	ic.transitions[name] = next
	return next
}

func (ic *InternalClass) String() string {
	return "{" + strings.Join(ic.names, ",") + "}"
}

// classtable owns every class created for a MemoryManager, class id
// is the index into the table.
type classtable struct {
	list  []*InternalClass
	empty *InternalClass
}

func newclasstable() *classtable {
	table := &classtable{}
	table.empty = table.newclass(nil, "")
	return table
}

func (table *classtable) newclass(parent *InternalClass, name string) *InternalClass {
	ic := &InternalClass{
		id:          uint32(len(table.list)),
		index:       make(map[string]int),
		parent:      parent,
		transitions: make(map[string]*InternalClass),
		classes:     table,
	}
	if parent != nil {
		ic.names = append(append(ic.names, parent.names...), name)
		for i, n := range ic.names {
			ic.index[n] = i
		}
	}
	table.list = append(table.list, ic)
	return ic
}

func (table *classtable) lookup(id uint32) *InternalClass {
	if int(id) >= len(table.list) {
		panicerr("invalid class id %v", id)
	}
	return table.list[id]
}
