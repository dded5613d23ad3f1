package biquad

import "github.com/cwbudde/octopitch/dsp/core"

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Section is a single biquad filter with coefficients and internal state.
// It implements canonical Direct Form II processing: a single two-element
// delay line shared between the feedback and feedforward halves of the
// section, rather than the separate transposed delay pair some cascades use.
type Section struct {
	Coefficients

	z1, z2 float64
}

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
//
//	w = x - a1*z1 - a2*z2
//	y = b0*w + b1*z1 + b2*z2
//	z2 = z1; z1 = w
func (s *Section) ProcessSample(x float64) float64 {
	w := x - s.A1*s.z1 - s.A2*s.z2
	y := s.B0*w + s.B1*s.z1 + s.B2*s.z2

	s.z2 = core.FlushDenormals(s.z1)
	s.z1 = core.FlushDenormals(w)

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	z1, z2 := s.z1, s.z2

	for i, x := range buf {
		w := x - a1*z1 - a2*z2
		y := b0*w + b1*z1 + b2*z2
		z2 = core.FlushDenormals(z1)
		z1 = core.FlushDenormals(w)
		buf[i] = y
	}

	s.z1, s.z2 = z1, z2
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
// Zero-alloc.
func (s *Section) ProcessBlockTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		w := x - s.A1*s.z1 - s.A2*s.z2
		y := s.B0*w + s.B1*s.z1 + s.B2*s.z2
		s.z2 = core.FlushDenormals(s.z1)
		s.z1 = core.FlushDenormals(w)
		dst[i] = y
	}
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.z1 = 0
	s.z2 = 0
}

// State returns the current delay-line state [z1, z2].
func (s *Section) State() [2]float64 {
	return [2]float64{s.z1, s.z2}
}

// SetState restores a previously saved delay-line state.
func (s *Section) SetState(state [2]float64) {
	s.z1 = state[0]
	s.z2 = state[1]
}
