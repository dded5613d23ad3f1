// Package bank provides FilterBank, an ordered collection of bandpass
// Butterworth filters at logarithmically spaced center periods (in samples,
// not Hz — octopitch's analysis pipeline works in the period domain
// throughout).
//
// Given (Pmin, Pmax, F, rho, N), the bank derives:
//
//	r = (Pmax/Pmin)^(1/(F-1))
//	Q = 1 / ((r-1) * (1 + clamp(rho,0,99)/100))
//	Pi = Pmin * r^i, i in [0, F)
//
// and builds F bandpass Butterworth cascades at those periods sharing Q.
// [FilterBank.ProcessBuffer] resets every filter and computes a per-filter
// energy (mean squared output) for a buffer snapshot; [FindPeaks] locates
// local energy maxima above a threshold.
package bank
