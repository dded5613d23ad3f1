package config

import (
	"errors"
	"math"

	"github.com/cwbudde/octopitch/dsp/core"
)

var (
	ErrMinSamplesPerPeriod = errors.New("config: min_samples_per_period out of range [4,100]")
	ErrMaxSamplesPerPeriod = errors.New("config: max_samples_per_period out of range [20,10000]")
	ErrMinPeriodsInBuffer  = errors.New("config: min_periods_in_buffer out of range [2,100]")
	ErrNumFilters          = errors.New("config: num_filters out of range [12,200]")
	ErrPercentOverlap      = errors.New("config: percent_overlap out of range [0,90]")
	ErrFilterOrder         = errors.New("config: filter_order must be one of {2,4,6,8}")
	ErrThreshold           = errors.New("config: threshold out of range [0,1]")
	ErrAnalysisInterval    = errors.New("config: analysis_interval out of range [1,10]")
	ErrPeriodRange         = errors.New("config: min_samples_per_period must be less than max_samples_per_period")
)

// Config is the runtime-changeable parameter record described by the
// external interface contract: every field may be updated at any time via
// Controller.Apply.
type Config struct {
	MinSamplesPerPeriod float64 // smallest detectable period, samples; [4,100]
	MaxSamplesPerPeriod float64 // largest detectable period, samples; [20,10000]
	MinPeriodsInBuffer  float64 // sets buffer capacity; [2,100]
	NumFilters          int     // bank filter count; [12,200]
	PercentOverlap      float64 // bank overlap percent; [0,90]
	FilterOrder         int     // Butterworth order; one of {2,4,6,8}
	Threshold           float64 // sensitivity, pre-transform; [0,1]
	UseLowPassFilter    bool    // gates the decimation anti-alias path
	AnalysisInterval    int     // analyze once every N input blocks; [1,10]
}

// Default returns a reasonable starting configuration.
func Default() Config {
	return Config{
		MinSamplesPerPeriod: 24,
		MaxSamplesPerPeriod: 4800,
		MinPeriodsInBuffer:  4,
		NumFilters:          48,
		PercentOverlap:      50,
		FilterOrder:         4,
		Threshold:           0.1,
		UseLowPassFilter:    true,
		AnalysisInterval:    1,
	}
}

// Validate checks every field against its documented range.
func (c Config) Validate() error {
	if c.MinSamplesPerPeriod < 4 || c.MinSamplesPerPeriod > 100 {
		return ErrMinSamplesPerPeriod
	}
	if c.MaxSamplesPerPeriod < 20 || c.MaxSamplesPerPeriod > 10000 {
		return ErrMaxSamplesPerPeriod
	}
	if c.MinSamplesPerPeriod >= c.MaxSamplesPerPeriod {
		return ErrPeriodRange
	}
	if c.MinPeriodsInBuffer < 2 || c.MinPeriodsInBuffer > 100 {
		return ErrMinPeriodsInBuffer
	}
	if c.NumFilters < 12 || c.NumFilters > 200 {
		return ErrNumFilters
	}
	if c.PercentOverlap < 0 || c.PercentOverlap > 90 {
		return ErrPercentOverlap
	}
	switch c.FilterOrder {
	case 2, 4, 6, 8:
	default:
		return ErrFilterOrder
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return ErrThreshold
	}
	if c.AnalysisInterval < 1 || c.AnalysisInterval > 10 {
		return ErrAnalysisInterval
	}
	return nil
}

// sensitivityExponent is the consumer-side transform applied to Threshold
// before it is compared against raw filter-bank energies.
const sensitivityExponent = 3.3

// EnergyThreshold applies the sensitivity transform threshold^3.3, the
// value actually compared against raw energies.
func (c Config) EnergyThreshold() float64 {
	return math.Pow(c.Threshold, sensitivityExponent)
}

// requiresRebuild reports whether the structural fields that size the
// manager and its filter bank differ between c and other. Float fields are
// compared with NearlyEqual so round-tripping a Config through a
// serialization layer doesn't trigger a spurious rebuild from rounding noise.
func (c Config) requiresRebuild(other Config) bool {
	return !core.NearlyEqual(c.MinSamplesPerPeriod, other.MinSamplesPerPeriod, 0) ||
		!core.NearlyEqual(c.MaxSamplesPerPeriod, other.MaxSamplesPerPeriod, 0) ||
		!core.NearlyEqual(c.MinPeriodsInBuffer, other.MinPeriodsInBuffer, 0) ||
		c.NumFilters != other.NumFilters ||
		!core.NearlyEqual(c.PercentOverlap, other.PercentOverlap, 0) ||
		c.FilterOrder != other.FilterOrder
}
