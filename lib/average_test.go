package lib

import "testing"

func TestAverage(t *testing.T) {
	avg := &Average{}

	if mean := avg.Mean(); mean != 0 {
		t.Errorf("expected 0, got %v", mean)
	} else if variance := avg.Variance(); variance != 0 {
		t.Errorf("expected 0, got %v", variance)
	} else if sd := avg.SD(); sd != 0 {
		t.Errorf("expected 0, got %v", sd)
	}

	for i := 1; i <= 100; i++ {
		avg.Add(int64(i))
	}
	if x, y := int64(1), avg.Min(); x != y {
		t.Errorf("Min() expected %v, got %v", x, y)
	} else if x, y := int64(100), avg.Max(); x != y {
		t.Errorf("Max() expected %v, got %v", x, y)
	} else if x, y := int64(100), avg.Last(); x != y {
		t.Errorf("Last() expected %v, got %v", x, y)
	} else if x, y := int64(100), avg.Samples(); x != y {
		t.Errorf("Samples() expected %v, got %v", x, y)
	} else if x, y := int64(100*101)/2, avg.Sum(); x != y {
		t.Errorf("Sum() expected %v, got %v", x, y)
	} else if x, y := avg.Sum()/avg.Samples(), avg.Mean(); x != y {
		t.Errorf("Mean() expected %v, got %v", x, y)
	} else if x, y := int64(883), avg.Variance(); x != y {
		t.Errorf("Variance() expected %v, got %v", x, y)
	} else if x, y := int64(29), avg.SD(); x != y {
		t.Errorf("SD() expected %v, got %v", x, y)
	}

	stats := avg.Stats()
	if x, y := int64(1), stats["min"].(int64); x != y {
		t.Errorf("min expected %v, got %v", x, y)
	} else if x, y := int64(100), stats["max"].(int64); x != y {
		t.Errorf("max expected %v, got %v", x, y)
	} else if x, y := int64(883), stats["variance"].(int64); x != y {
		t.Errorf("variance expected %v, got %v", x, y)
	}

	avg.Reset()
	if x := avg.Samples(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	// negative first sample must become both min and max.
	avg.Add(-10)
	if avg.Min() != -10 || avg.Max() != -10 {
		t.Errorf("unexpected min %v max %v", avg.Min(), avg.Max())
	}
}

func BenchmarkAverageAdd(b *testing.B) {
	avg := &Average{}
	for i := 0; i <= b.N; i++ {
		avg.Add(int64(i))
	}
}
