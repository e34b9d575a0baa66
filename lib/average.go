package lib

import "math"

// Average compute running mean, min, max and deviation of int64
// samples, without retaining the samples.
type Average struct {
	n      int64
	minval int64
	maxval int64
	last   int64
	sum    int64
	sumsq  float64
}

// Add a sample.
func (av *Average) Add(sample int64) {
	if av.n == 0 || sample < av.minval {
		av.minval = sample
	}
	if av.n == 0 || av.maxval < sample {
		av.maxval = sample
	}
	av.n++
	av.sum, av.last = av.sum+sample, sample
	f := float64(sample)
	av.sumsq += f * f
}

// Min return minimum value from sample.
func (av *Average) Min() int64 {
	return av.minval
}

// Max return maximum value from sample.
func (av *Average) Max() int64 {
	return av.maxval
}

// Last return the most recent sample.
func (av *Average) Last() int64 {
	return av.last
}

// Samples return total number of samples.
func (av *Average) Samples() int64 {
	return av.n
}

// Sum return the sum of all samples.
func (av *Average) Sum() int64 {
	return av.sum
}

// Mean return the average value of all samples.
func (av *Average) Mean() int64 {
	if av.n == 0 {
		return 0
	}
	return int64(float64(av.sum) / float64(av.n))
}

// Variance return the squared deviation of samples from the mean.
func (av *Average) Variance() int64 {
	if av.n == 0 {
		return 0
	}
	nF, meanF := float64(av.n), float64(av.Mean())
	return int64((av.sumsq / nF) - (meanF * meanF))
}

// SD return the standard deviation of samples.
func (av *Average) SD() int64 {
	return int64(math.Sqrt(float64(av.Variance())))
}

// Reset forget all samples.
func (av *Average) Reset() {
	*av = Average{}
}

// Stats return a map of computed statistics.
func (av *Average) Stats() map[string]interface{} {
	return map[string]interface{}{
		"samples":     av.Samples(),
		"min":         av.Min(),
		"max":         av.Max(),
		"last":        av.Last(),
		"mean":        av.Mean(),
		"variance":    av.Variance(),
		"stddeviance": av.SD(),
	}
}
