package mm

import "testing"

import s "github.com/bnclabs/gosettings"

func TestDefaultsettings(t *testing.T) {
	setts := Defaultsettings()
	if x := setts.Int64("maxblockshift"); x != 9 {
		t.Errorf("expected %v, got %v", 9, x)
	} else if x := setts.String("allocator"); x != "flist" {
		t.Errorf("expected %v, got %v", "flist", x)
	} else if x := setts.Int64("capacity"); x < Mincapacity {
		t.Errorf("capacity %v below %v", x, Mincapacity)
	} else if x := setts.Bool("gc.auto"); !x {
		t.Errorf("expected auto collection")
	} else if x := setts.Int64("stack.size"); x != 65536 {
		t.Errorf("expected %v, got %v", 65536, x)
	}
}

func TestEnvsettings(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin",
		"GOHEAP_MAXBLOCK_SHIFT=10",
		"GOHEAP_MAX_CHUNK_SIZE=lots",
		"GOHEAP_STATS=1",
		"GOHEAP_UNKNOWN=10",
		"GOHEAP_STATS",
	}
	setts := Envsettings(environ)
	if x := len(setts); x != 2 {
		t.Errorf("expected %v, got %v: %v", 2, x, setts)
	} else if x := setts.Int64("maxblockshift"); x != 10 {
		t.Errorf("expected %v, got %v", 10, x)
	} else if x := setts.Bool("stats"); !x {
		t.Errorf("expected stats enabled")
	}

	testcases := map[string]bool{
		"true": true, "false": false, "0": false, "T": true, " 1 ": true,
	}
	for value, ref := range testcases {
		setts := Envsettings([]string{"GOHEAP_STATS=" + value})
		if x := setts.Bool("stats"); x != ref {
			t.Errorf("%q expected %v, got %v", value, ref, x)
		}
	}

	// environment takes precedence.
	mm := NewMemoryManager(testsettings(nil).Mixin(Envsettings(environ)))
	defer mm.Release()
	if x := mm.arena.Maxblock(); x != 1024 {
		t.Errorf("expected %v, got %v", 1024, x)
	} else if !mm.statsenabled {
		t.Errorf("expected stats enabled")
	}
}

func TestNewMemoryManagerFromEnv(t *testing.T) {
	t.Setenv("GOHEAP_MAXBLOCK_SHIFT", "11")
	mm := NewMemoryManagerFromEnv(s.Settings{
		"capacity": int64(64 * 1024 * 1024), "maxblockshift": int64(9),
	})
	defer mm.Release()
	if x := mm.arena.Maxblock(); x != 2048 {
		t.Errorf("expected %v, got %v", 2048, x)
	}
}

func TestGetsysmem(t *testing.T) {
	total, _, free := getsysmem()
	if total > 0 && free > total {
		t.Errorf("free %v > total %v", free, total)
	}
	if x := defaultcapacity(); x < Mincapacity {
		t.Errorf("capacity %v below %v", x, Mincapacity)
	}
}
