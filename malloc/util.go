package malloc

import "fmt"

// Align round size up to the nearest multiple of Alignment.
func Align(size int64) int64 {
	return (size + Alignment - 1) &^ (Alignment - 1)
}

// SuitableSize picks the smallest size class from sorted `blocksizes`
// that can hold `size` bytes.
func SuitableSize(blocksizes []int64, size int64) int64 {
	return blocksizes[suitableindex(blocksizes, size)]
}

func suitableindex(blocksizes []int64, size int64) int {
	lo, hi := 0, len(blocksizes)-1
	if size > blocksizes[hi] {
		panicerr("size %v greater than largest class %v", size, blocksizes[hi])
	}
	for lo < hi {
		pivot := (lo + hi) / 2
		if blocksizes[pivot] < size {
			lo = pivot + 1
		} else {
			hi = pivot
		}
	}
	return lo
}

// Blocksizes generate size classes between minblock-size and
// maxblock-size, to achieve MEMUtilization.
func Blocksizes(minblock, maxblock int64) []int64 {
	if maxblock < minblock { // validate and cure the input params
		panicerr("minblock(%v) > maxblock(%v)", minblock, maxblock)
	} else if (minblock % Alignment) != 0 {
		panicerr("minblock %v is not multiple of %v", minblock, Alignment)
	} else if (maxblock % Alignment) != 0 {
		panicerr("maxblock %v is not multiple of %v", maxblock, Alignment)
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - MEMUtilization))
		if addby <= Alignment {
			addby = Alignment
		} else if addby%Alignment != 0 {
			addby = (addby / Alignment) * Alignment
		}
		return from + addby
	}

	sizes := make([]int64, 0, 64)
	for size := minblock; size < maxblock; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	sizes = append(sizes, maxblock)
	return sizes
}

// chunkcells compute the number of cells for the nth chunk of a size
// class.
func chunkcells(size, nth, minchunk, maxchunk int64) int64 {
	chunksize := maxchunk
	if nth < 32 && (minchunk<<uint(nth)) < maxchunk {
		chunksize = minchunk << uint(nth)
	}
	ncells := chunksize / size
	if ncells < 1 {
		ncells = 1
	} else if ncells > Maxcells {
		ncells = Maxcells
	}
	return ncells
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
