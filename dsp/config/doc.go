// Package config defines the runtime-changeable parameter record consumed
// by the analysis pipeline, and [Controller], which owns an
// [octave.Manager] and [analyzer.Analyzer] pair and applies configuration
// changes atomically between ticks.
package config
