package malloc

import "testing"

func TestFreelist(t *testing.T) {
	fl := newfreelist(8)
	for i := int64(0); i < 8; i++ {
		if slot, ok := fl.take(); !ok {
			t.Errorf("unexpected exhaustion at %v", i)
		} else if slot != i {
			t.Errorf("expected %v, got %v", i, slot)
		}
	}
	if _, ok := fl.take(); ok {
		t.Errorf("expected freelist to be exhausted")
	}
	fl.give(3)
	fl.give(5)
	if x := fl.available(); x != 2 {
		t.Errorf("expected %v, got %v", 2, x)
	}
	// recently freed first.
	if slot, _ := fl.take(); slot != 5 {
		t.Errorf("expected %v, got %v", 5, slot)
	} else if slot, _ := fl.take(); slot != 3 {
		t.Errorf("expected %v, got %v", 3, slot)
	}
}

func TestFreebits(t *testing.T) {
	fb := newfreebits(100)
	for i := int64(0); i < 100; i++ {
		if slot, ok := fb.take(); !ok {
			t.Errorf("unexpected exhaustion at %v", i)
		} else if slot != i {
			t.Errorf("expected %v, got %v", i, slot)
		}
	}
	if _, ok := fb.take(); ok {
		t.Errorf("expected freebits to be exhausted")
	}
	fb.give(70)
	fb.give(3)
	if x := fb.available(); x != 2 {
		t.Errorf("expected %v, got %v", 2, x)
	}
	// lowest first.
	if slot, _ := fb.take(); slot != 3 {
		t.Errorf("expected %v, got %v", 3, slot)
	} else if slot, _ := fb.take(); slot != 70 {
		t.Errorf("expected %v, got %v", 70, slot)
	} else if x := fb.available(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
}

func TestFreecellsfactory(t *testing.T) {
	if _, ok := freecellsfactory("flist")(8).(*freelist); !ok {
		t.Errorf("expected freelist")
	} else if _, ok := freecellsfactory("fbit")(8).(*freebits); !ok {
		t.Errorf("expected freebits")
	}
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		freecellsfactory("buddy")
	}()
}

func BenchmarkFreelist(b *testing.B) {
	fl := newfreelist(Maxcells)
	for i := 0; i < b.N; i++ {
		slot, _ := fl.take()
		fl.give(slot)
	}
}

func BenchmarkFreebits(b *testing.B) {
	fb := newfreebits(Maxcells)
	for i := 0; i < b.N; i++ {
		slot, _ := fb.take()
		fb.give(slot)
	}
}
