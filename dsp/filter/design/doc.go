// Package design computes Butterworth filter coefficients parameterized by
// target period (in samples) rather than by frequency and sample rate.
//
// [Coefficients] is a pure function of (type, period, quality, order); it is
// used both standalone and by [ButterworthFilter], which owns a running
// biquad.Chain built from those coefficients and rebuilds it whenever the
// period, quality, or order changes.
package design
