// Package analyzer implements the per-tick analysis pipeline: reading every
// filled octave level, locating bandpass energy peaks, isolating each
// candidate with a fresh bandpass filter, refining its frequency by
// targeted autocorrelation, and extracting a harmonic-summed phase-locked
// waveform.
//
// [Analyzer.Tick] is the sole entry point; it borrows an [octave.Manager]
// mutably for the duration of the call and returns a [Result].
package analyzer
