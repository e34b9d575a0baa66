package lib

import "fmt"
import "math/bits"
import "sort"
import "strings"

// Histogram counts samples in power-of-two buckets, bucket `i` holds
// samples in the range [2^(i-1), 2^i). Bucket 0 holds zero and
// negative samples. Suitable for latencies and sizes that spread over
// several orders of magnitude.
type Histogram struct {
	Average
	buckets [65]int64
}

// NewHistogram return an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// Add a sample to this histogram.
func (h *Histogram) Add(sample int64) {
	h.Average.Add(sample)
	h.buckets[bucketof(sample)]++
}

// Bucket return the number of samples counted under bucket `i`.
func (h *Histogram) Bucket(i int) int64 {
	return h.buckets[i]
}

// Clone copies the entire instance.
func (h *Histogram) Clone() *Histogram {
	newh := *h
	return &newh
}

// Stats return non-empty buckets keyed by their upper bound.
func (h *Histogram) Stats() map[string]int64 {
	m := make(map[string]int64)
	for i, n := range h.buckets {
		if n == 0 {
			continue
		}
		m[bucketkey(i)] = n
	}
	return m
}

// Fullstats includes samples,min,max,mean,variance,stddeviance along
// with the buckets.
func (h *Histogram) Fullstats() map[string]interface{} {
	stats := h.Average.Stats()
	hmap := make(map[string]interface{})
	for k, v := range h.Stats() {
		hmap[k] = v
	}
	stats["histogram"] = hmap
	return stats
}

// Logstring return Fullstats as loggable string, buckets sorted by
// bound.
func (h *Histogram) Logstring() string {
	stats, keys := h.Average.Stats(), []string{}
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ss := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		ss = append(ss, fmt.Sprintf(`"%v": %v`, key, stats[key]))
	}
	hs := []string{}
	for i, n := range h.buckets {
		if n > 0 {
			hs = append(hs, fmt.Sprintf(`"%v": %v`, bucketkey(i), n))
		}
	}
	ss = append(ss, fmt.Sprintf(`"histogram": {%v}`, strings.Join(hs, ",")))
	return "{" + strings.Join(ss, ",") + "}"
}

func bucketof(sample int64) int {
	if sample <= 0 {
		return 0
	}
	return bits.Len64(uint64(sample))
}

func bucketkey(i int) string {
	if i == 0 {
		return "0"
	} else if i == 64 {
		return "+"
	}
	return fmt.Sprintf("%v", uint64(1)<<uint(i))
}
