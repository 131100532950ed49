// Package stats keeps per-channel running mean and standard deviation for
// the live audio-in mode, where no precomputed song profile exists.
package stats

import "math"

// Running accumulates streaming mean/std per channel (Welford's method).
type Running struct {
	count int
	mean  []float64
	m2    []float64
}

// NewRunning builds accumulators for the given channel count.
func NewRunning(channels int) *Running {
	return &Running{
		mean: make([]float64, channels),
		m2:   make([]float64, channels),
	}
}

// Preload seeds the accumulators with an assumed mean/std and sample weight
// so the first frames of a live session already look reasonable.
func (r *Running) Preload(mean, std []float64, count int) {
	if count < 1 {
		count = 1
	}
	r.count = count
	copy(r.mean, mean)
	for i := range r.m2 {
		if i < len(std) {
			r.m2[i] = std[i] * std[i] * float64(count)
		}
	}
}

// Push folds one frame of per-channel values into the statistics.
func (r *Running) Push(values []float64) {
	r.count++
	for i := range r.mean {
		if i >= len(values) {
			continue
		}
		delta := values[i] - r.mean[i]
		r.mean[i] += delta / float64(r.count)
		r.m2[i] += delta * (values[i] - r.mean[i])
	}
}

// Count returns the number of samples folded in, including preload weight.
func (r *Running) Count() int {
	return r.count
}

// Mean returns a snapshot of the per-channel means.
func (r *Running) Mean() []float64 {
	out := make([]float64, len(r.mean))
	copy(out, r.mean)
	return out
}

// Std returns a snapshot of the per-channel standard deviations.
func (r *Running) Std() []float64 {
	out := make([]float64, len(r.m2))
	for i, m2 := range r.m2 {
		if r.count > 0 {
			out[i] = math.Sqrt(m2 / float64(r.count))
		}
	}
	return out
}
