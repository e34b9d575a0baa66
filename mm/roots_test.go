package mm

import "testing"

import "github.com/bnclabs/goheap/api"

func TestValueStack(t *testing.T) {
	vs := newvaluestack(4)
	if x := vs.Top(); !x.Isempty() {
		t.Errorf("expected empty, got %v", x)
	}
	for i := 0; i < 4; i++ {
		if x := vs.Push(api.Integer(int32(i))); x != i {
			t.Errorf("expected %v, got %v", i, x)
		}
	}
	func() {
		defer func() {
			if r := recover(); r != api.ErrorStackOverflow {
				t.Errorf("expected %v, got %v", api.ErrorStackOverflow, r)
			}
		}()
		vs.Push(api.Null)
	}()

	if x := vs.Top(); x != api.Integer(3) {
		t.Errorf("expected %v, got %v", api.Integer(3), x)
	} else if x := vs.Pop(); x != api.Integer(3) {
		t.Errorf("expected %v, got %v", api.Integer(3), x)
	} else if x := vs.Len(); x != 3 {
		t.Errorf("expected %v, got %v", 3, x)
	}
	vs.Set(0, api.Boolean(true))
	if x := vs.Get(0); x != api.Boolean(true) {
		t.Errorf("expected %v, got %v", api.Boolean(true), x)
	}

	vs.Truncate(0)
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		vs.Pop()
	}()
}

func TestScope(t *testing.T) {
	vs := newvaluestack(100)
	vs.Push(api.Null)

	outer := vs.Scope()
	outer.Root(api.Integer(1))
	inner := vs.Scope()
	inner.Rootref(api.Makeref(0, 1))
	inner.Rootref(api.Makeref(0, 2))
	if x := vs.Len(); x != 4 {
		t.Errorf("expected %v, got %v", 4, x)
	}
	inner.Close()
	if x := vs.Len(); x != 2 {
		t.Errorf("expected %v, got %v", 2, x)
	}
	outer.Close()
	if x := vs.Len(); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}

	values := []api.Value{}
	vs.iterate(func(v api.Value) { values = append(values, v) })
	if len(values) != 1 || values[0] != api.Null {
		t.Errorf("unexpected %v", values)
	}
}

func TestValueStorage(t *testing.T) {
	store := newvaluestorage(false)
	if store.Isweak() {
		t.Errorf("unexpected weak")
	}

	n := Pagesize*2 + 10
	handles := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		h := store.Allocate(api.Integer(int32(i)))
		if h <= 0 {
			t.Fatalf("invalid handle %v", h)
		}
		handles = append(handles, h)
	}
	if x := store.Count(); x != int64(n) {
		t.Errorf("expected %v, got %v", n, x)
	}
	for i, h := range handles {
		if x := store.Get(h); x != api.Integer(int32(i)) {
			t.Errorf("expected %v, got %v", i, x)
		}
	}

	// free every other entry.
	for i := 0; i < n; i += 2 {
		store.Free(handles[i])
	}
	count := 0
	store.Iterate(func(h Handle, v api.Value) bool {
		if int(v.Tointeger())%2 != 1 {
			t.Errorf("unexpected %v at %v", v, h)
		}
		count++
		return true
	})
	if count != n/2 {
		t.Errorf("expected %v, got %v", n/2, count)
	}

	// freed handles are reused, no new page.
	pages := len(store.pages)
	for i := 0; i < n/2; i++ {
		store.Allocate(api.Null)
	}
	if x := len(store.pages); x != pages {
		t.Errorf("expected %v, got %v", pages, x)
	} else if x := store.Count(); x != int64(n) {
		t.Errorf("expected %v, got %v", n, x)
	}

	h := store.Allocate(api.Null)
	store.Set(h, api.Boolean(false))
	if x := store.Get(h); x != api.Boolean(false) {
		t.Errorf("expected %v, got %v", api.Boolean(false), x)
	}
	store.Free(h)

	// panic cases
	for _, h := range []Handle{0, -1, h, Handle(Pagesize * 100)} {
		func() {
			defer func() {
				if r := recover(); r != api.ErrorInvalidHandle {
					t.Errorf("handle %v expected %v, got %v", h, api.ErrorInvalidHandle, r)
				}
			}()
			store.Get(h)
		}()
	}
}

func TestValueStorageClear(t *testing.T) {
	store := newvaluestorage(true)
	h1 := store.Allocate(api.Managed(api.Makeref(0, 1)))
	h2 := store.Allocate(api.Managed(api.Makeref(0, 2)))
	h3 := store.Allocate(api.Integer(3))
	ismarked := func(ref api.Ref) bool { return ref == api.Makeref(0, 1) }
	if n := store.clearunmarked(ismarked); n != 1 {
		t.Errorf("expected %v, got %v", 1, n)
	}
	if x := store.Get(h1); x != api.Managed(api.Makeref(0, 1)) {
		t.Errorf("unexpected %v", x)
	} else if x := store.Get(h2); !x.Isempty() {
		t.Errorf("unexpected %v", x)
	} else if x := store.Get(h3); x != api.Integer(3) {
		t.Errorf("unexpected %v", x)
	}
}

func BenchmarkStorageAllocate(b *testing.B) {
	store := newvaluestorage(false)
	for i := 0; i < b.N; i++ {
		store.Free(store.Allocate(api.Null))
	}
}
