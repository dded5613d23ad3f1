// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements canonical Direct Form II processing for a single
// second-order section defined by [Coefficients]. Multiple sections can be
// cascaded via [Chain] for higher-order filters (here, purely Butterworth
// bandpass/lowpass/highpass cascades; see dsp/filter/design).
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
