package lib

import "testing"

func TestBitmap(t *testing.T) {
	bm := NewBitmap(130)
	if x := len(bm); x != 3 {
		t.Errorf("expected %v, got %v", 3, x)
	}
	for _, n := range []int64{0, 63, 64, 129} {
		if bm.Setbit(n) == false {
			t.Errorf("expected %v to be newly set", n)
		} else if bm.Setbit(n) == true {
			t.Errorf("expected %v to be already set", n)
		} else if bm.Isset(n) == false {
			t.Errorf("expected %v to be set", n)
		}
	}
	if x := bm.Ones(); x != 4 {
		t.Errorf("expected %v, got %v", 4, x)
	}
	bm.Clearbit(63)
	if bm.Isset(63) {
		t.Errorf("expected 63 to be cleared")
	} else if x := bm.Ones(); x != 3 {
		t.Errorf("expected %v, got %v", 3, x)
	}
	bm.Reset()
	if x := bm.Ones(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
}

func TestBitmapFindfirstset(t *testing.T) {
	bm := NewBitmap(200)
	if x := bm.Findfirstset(0); x != -1 {
		t.Errorf("expected %v, got %v", -1, x)
	}
	bm.Setbit(5)
	bm.Setbit(70)
	bm.Setbit(199)
	testcases := [][2]int64{
		{0, 5}, {5, 5}, {6, 70}, {64, 70}, {71, 199}, {199, 199}, {200, -1},
	}
	for _, tcase := range testcases {
		if x := bm.Findfirstset(tcase[0]); x != tcase[1] {
			t.Errorf("from %v expected %v, got %v", tcase[0], tcase[1], x)
		}
	}
}

func BenchmarkBitmapSetbit(b *testing.B) {
	bm := NewBitmap(65536)
	for i := 0; i < b.N; i++ {
		bm.Setbit(int64(i & 0xffff))
	}
}

func BenchmarkBitmapFindfirstset(b *testing.B) {
	bm := NewBitmap(65536)
	bm.Setbit(65535)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bm.Findfirstset(0)
	}
}
