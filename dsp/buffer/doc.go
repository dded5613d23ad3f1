// Package buffer provides a reusable float64 buffer type, a sync.Pool-backed
// allocator for scratch slices, and [Ring], a fixed-capacity circular
// buffer used by the octave manager for per-level sample history.
//
// All DSP functions accept raw []float64 slices; Buffer and Pool are an
// optional convenience that helps callers manage allocation and reuse in
// hot paths without allocating on every analysis tick.
package buffer
