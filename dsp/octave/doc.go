// Package octave provides Manager, an octave-pyramid buffer manager that
// decimates an input stream into K levels, each a [buffer.Ring] fed at
// Sk = S0/2^k through an optional fixed-coefficient anti-alias lowpass.
//
// Manager owns a shared [bank.FilterBank] used by the analyzer to compute
// per-level energies once a level's buffer is filled; it is not run by
// Manager itself.
package octave
