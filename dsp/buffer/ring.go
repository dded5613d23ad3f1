package buffer

import (
	"errors"
	"math"

	"github.com/cwbudde/octopitch/dsp/core"
)

// ErrInvalidCapacity is returned by NewRing when capacity is not positive.
var ErrInvalidCapacity = errors.New("buffer: capacity must be > 0")

// ErrInvalidAge is returned by Ring.ReadAge when the requested age falls
// outside [0, ValidCount()).
var ErrInvalidAge = errors.New("buffer: age out of range")

// Ring is a fixed-capacity circular buffer of real samples with O(1) write
// and chronological read. It is the leaf primitive the octave manager uses
// for every level's sample history: one producer writes, an analyzer
// borrows a chronological snapshot between writes.
type Ring struct {
	data   []float64
	w      int
	filled bool
}

// NewRing allocates a Ring with the given fixed capacity.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Ring{data: make([]float64, capacity)}, nil
}

// Capacity returns the fixed buffer capacity.
func (r *Ring) Capacity() int { return len(r.data) }

// Filled reports whether the buffer has received at least Capacity writes
// since construction or the last Clear.
func (r *Ring) Filled() bool { return r.filled }

// Write stores x at the current write position and advances it, wrapping
// modulo capacity. The first time the write index wraps back to 0, Filled
// becomes true and stays true until Clear.
func (r *Ring) Write(x float64) {
	r.data[r.w] = x
	r.w++

	if r.w == len(r.data) {
		r.w = 0
		r.filled = true
	}
}

// ValidCount returns the number of samples currently readable: Capacity
// once Filled, otherwise the number of writes so far.
func (r *Ring) ValidCount() int {
	if r.filled {
		return len(r.data)
	}

	return r.w
}

// ReadAge returns the sample written age+1 writes ago, for age in
// [0, ValidCount()). age=0 is the most recently written sample.
func (r *Ring) ReadAge(age int) (float64, error) {
	n := r.ValidCount()
	if age < 0 || age >= n {
		return 0, ErrInvalidAge
	}

	idx := r.w - 1 - age
	if idx < 0 {
		idx += len(r.data)
	}

	return r.data[idx], nil
}

// Ordered writes the chronological (oldest-to-newest) sequence of valid
// samples into dst, reusing its backing array when large enough, and
// returns the resulting slice. When Filled, this is data[w:] ++ data[:w].
func (r *Ring) Ordered(dst []float64) []float64 {
	n := r.ValidCount()
	dst = core.EnsureLen(dst, n)

	if !r.filled {
		copy(dst, r.data[:r.w])
		return dst
	}

	copy(dst, r.data[r.w:])
	copy(dst[len(r.data)-r.w:], r.data[:r.w])

	return dst
}

// Clear resets the buffer to its just-constructed state: write index and
// filled flag reset, all samples zeroed.
func (r *Ring) Clear() {
	core.Zero(r.data)

	r.w = 0
	r.filled = false
}

// Max returns the maximum sample over the valid range, 0 if empty.
func (r *Ring) Max() float64 {
	n := r.ValidCount()
	if n == 0 {
		return 0
	}

	max := math.Inf(-1)
	for i := 0; i < n; i++ {
		v, _ := r.ReadAge(i)
		if v > max {
			max = v
		}
	}

	return max
}

// Min returns the minimum sample over the valid range, 0 if empty.
func (r *Ring) Min() float64 {
	n := r.ValidCount()
	if n == 0 {
		return 0
	}

	min := math.Inf(1)
	for i := 0; i < n; i++ {
		v, _ := r.ReadAge(i)
		if v < min {
			min = v
		}
	}

	return min
}

// Mean returns the arithmetic mean over the valid range, 0 if empty.
func (r *Ring) Mean() float64 {
	n := r.ValidCount()
	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		v, _ := r.ReadAge(i)
		sum += v
	}

	return sum / float64(n)
}

// RMS returns the root-mean-square over the valid range, 0 if empty.
func (r *Ring) RMS() float64 {
	n := r.ValidCount()
	if n == 0 {
		return 0
	}

	sumSq := 0.0
	for i := 0; i < n; i++ {
		v, _ := r.ReadAge(i)
		sumSq += v * v
	}

	return math.Sqrt(sumSq / float64(n))
}
