package mm

import "fmt"

import "github.com/bnclabs/goheap/api"

// TypeDescriptor describe a managed type, it plays the role of a
// vtable: cells are stamped with the descriptor's id and the collector
// dispatches tracing and finalization through it. Descriptors are
// immutable once registered.
type TypeDescriptor struct {
	// Name of the type, unique within a registry.
	Name string

	// Size of the fixed part of the cell, including api.Headersize.
	// Should be a multiple of 8.
	Size int64

	// Inline cells of this type may carry value slots after the fixed
	// part, their count is decided at allocation.
	Inline bool

	// Refs byte offsets, within the fixed part, of api.Value fields
	// that may refer to other cells.
	Refs []int64

	// Trace optional, report references not covered by Refs and inline
	// slots.
	Trace func(mm *MemoryManager, ref api.Ref, mark func(api.Value))

	// Init optional constructor, receives the forwarded arguments. If
	// nil, arguments are stored into Refs fields in order, or into
	// inline slots for objects.
	Init func(mm *MemoryManager, ref api.Ref, args []api.Value)

	// Destroy finalizer called from sweep when Needsdestroy is true.
	// Shall not allocate and shall only read its own cell.
	Destroy func(mm *MemoryManager, ref api.Ref)

	// Needsdestroy cells of this type require cleanup on sweep.
	Needsdestroy bool

	id     uint32
	object bool
}

// ID return the type id stamped into cells, 0 if not registered.
func (td *TypeDescriptor) ID() uint32 {
	return td.id
}

// Isobject return whether cells of this type are property-bag objects.
func (td *TypeDescriptor) Isobject() bool {
	return td.object
}

func (td *TypeDescriptor) String() string {
	return fmt.Sprintf("%v(%v)", td.Name, td.id)
}

// Registry of type descriptors, one per MemoryManager. Type id 0 is
// reserved for raw cells that carry no descriptor.
type Registry struct {
	types  []*TypeDescriptor
	byname map[string]*TypeDescriptor
}

// NewRegistry return an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  []*TypeDescriptor{nil},
		byname: make(map[string]*TypeDescriptor),
	}
}

// Register validate and add descriptor to registry, return a copy
// carrying its id. Further changes to `td` are not observed.
func (reg *Registry) Register(td TypeDescriptor) *TypeDescriptor {
	if td.Name == "" {
		panicerr("type descriptor without name")
	} else if _, ok := reg.byname[td.Name]; ok {
		panicerr("type %q already registered", td.Name)
	} else if td.Size < api.Headersize || td.Size%8 != 0 {
		panicerr("type %q size %v should be multiple of 8 and >= %v",
			td.Name, td.Size, api.Headersize)
	}
	for _, off := range td.Refs {
		if off < api.Headersize || off%8 != 0 || off+8 > td.Size {
			panicerr("type %q invalid reference offset %v", td.Name, off)
		}
	}
	if td.Needsdestroy && td.Destroy == nil {
		panicerr("type %q needs destroy without a finalizer", td.Name)
	}
	newtd := td
	newtd.Refs = append([]int64(nil), td.Refs...)
	newtd.id = uint32(len(reg.types))
	reg.types = append(reg.types, &newtd)
	reg.byname[newtd.Name] = &newtd
	return &newtd
}

// Lookup type by id.
func (reg *Registry) Lookup(id uint32) (*TypeDescriptor, bool) {
	if id == 0 || int(id) >= len(reg.types) {
		return nil, false
	}
	return reg.types[id], true
}

// Byname lookup type by name.
func (reg *Registry) Byname(name string) (*TypeDescriptor, bool) {
	td, ok := reg.byname[name]
	return td, ok
}

// Len return number of registered types.
func (reg *Registry) Len() int {
	return len(reg.types) - 1
}

func (reg *Registry) owns(td *TypeDescriptor) bool {
	if td == nil || td.id == 0 || int(td.id) >= len(reg.types) {
		return false
	}
	return reg.types[td.id] == td
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
