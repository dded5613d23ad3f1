package design

import (
	"errors"
	"math"

	"github.com/cwbudde/octopitch/dsp/filter/biquad"
)

// FilterType selects the response shape of a ButterworthFilter cascade.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

// String returns a human-readable name, used in log lines and error messages.
func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidFilterType = errors.New("design: invalid filter type")
	ErrInvalidPeriod     = errors.New("design: period must be positive and finite")
	ErrInvalidQuality    = errors.New("design: quality must be positive and finite")
	ErrInvalidOrder      = errors.New("design: order must be even and at least 2")
)

// Params holds the design parameters for a Butterworth filter: response
// type, target period in samples, base quality factor, and even order.
type Params struct {
	Type    FilterType
	Period  float64
	Quality float64
	Order   int
}

// Validate checks that the parameters can produce a stable cascade.
func (p Params) Validate() error {
	if p.Type != Lowpass && p.Type != Highpass && p.Type != Bandpass {
		return ErrInvalidFilterType
	}
	if p.Period <= 0 || math.IsNaN(p.Period) || math.IsInf(p.Period, 0) {
		return ErrInvalidPeriod
	}
	if p.Quality <= 0 || math.IsNaN(p.Quality) || math.IsInf(p.Quality, 0) {
		return ErrInvalidQuality
	}
	if p.Order < 2 || p.Order%2 != 0 {
		return ErrInvalidOrder
	}
	return nil
}

const defaultButterworthQ = 1 / math.Sqrt2

// Coefficients computes the N/2 biquad sections of a Butterworth cascade for
// the given parameters. Each section s in [0, N/2) uses pole angle
//
//	thetaS = pi*(2s+1) / (2N)
//
// and a per-section quality that differs by type:
//
//	lowpass/highpass: Qs = (1 / (2*cos(thetaS))) * (Q / defaultButterworthQ)
//	bandpass:         Qs = Q * (1 + 0.1*s)
//
// The bandpass staggering is an intentional deviation from a textbook
// maximally-flat design and is preserved exactly, matching the reference
// filter bank's observed shape.
func Coefficients(p Params) ([]biquad.Coefficients, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n2 := p.Order / 2
	sections := make([]biquad.Coefficients, n2)

	w0 := 2 * math.Pi / p.Period
	cw := math.Cos(w0)
	sw := math.Sin(w0)

	for s := range n2 {
		thetaS := math.Pi * float64(2*s+1) / (2 * float64(p.Order))

		var qs float64
		switch p.Type {
		case Bandpass:
			qs = p.Quality * (1 + 0.1*float64(s))
		default:
			qs = (1 / (2 * math.Cos(thetaS))) * (p.Quality / defaultButterworthQ)
		}

		alpha := sw / (2 * qs)
		a0 := 1 + alpha
		a1 := -2 * cw
		a2 := 1 - alpha

		var b0, b1, b2 float64
		switch p.Type {
		case Lowpass:
			b0 = (1 - cw) / 2
			b1 = 1 - cw
			b2 = (1 - cw) / 2
		case Highpass:
			b0 = (1 + cw) / 2
			b1 = -(1 + cw)
			b2 = (1 + cw) / 2
		case Bandpass:
			b0 = alpha
			b1 = 0
			b2 = -alpha
		}

		sections[s] = biquad.Coefficients{
			B0: b0 / a0,
			B1: b1 / a0,
			B2: b2 / a0,
			A1: a1 / a0,
			A2: a2 / a0,
		}
	}

	return sections, nil
}

// ButterworthFilter is a running Butterworth cascade parameterized by target
// period in samples. Its coefficients are a pure function of (type, period,
// quality, order); the cascade is rebuilt (and its state discarded) whenever
// any of those change.
type ButterworthFilter struct {
	params Params
	chain  *biquad.Chain
}

// NewButterworthFilter builds a Butterworth cascade from p.
func NewButterworthFilter(p Params) (*ButterworthFilter, error) {
	coeffs, err := Coefficients(p)
	if err != nil {
		return nil, err
	}

	return &ButterworthFilter{
		params: p,
		chain:  biquad.NewChain(coeffs),
	}, nil
}

// Type returns the filter's response type.
func (f *ButterworthFilter) Type() FilterType { return f.params.Type }

// Period returns the current target period in samples.
func (f *ButterworthFilter) Period() float64 { return f.params.Period }

// Quality returns the current base quality factor.
func (f *ButterworthFilter) Quality() float64 { return f.params.Quality }

// Order returns the filter order (always even).
func (f *ButterworthFilter) Order() int { return f.params.Order }

// ProcessSample filters one sample through the cascade.
func (f *ButterworthFilter) ProcessSample(x float64) float64 {
	return f.chain.ProcessSample(x)
}

// ProcessBlock filters a block in-place through the cascade.
func (f *ButterworthFilter) ProcessBlock(buf []float64) {
	f.chain.ProcessBlock(buf)
}

// Reset clears every section's delay-line state without changing coefficients.
func (f *ButterworthFilter) Reset() {
	f.chain.Reset()
}

// Reconfigure recomputes the cascade for a new period and/or quality,
// keeping type and order. The cascade's state is discarded, matching the
// "recomputed when P or Q changes" contract.
func (f *ButterworthFilter) Reconfigure(period, quality float64) error {
	next := f.params
	next.Period = period
	next.Quality = quality

	coeffs, err := Coefficients(next)
	if err != nil {
		return err
	}

	f.params = next
	f.chain = biquad.NewChain(coeffs)
	return nil
}

// SetOrder recomputes the cascade at a new even order, keeping type, period,
// and quality. The cascade's state is discarded.
func (f *ButterworthFilter) SetOrder(order int) error {
	next := f.params
	next.Order = order

	coeffs, err := Coefficients(next)
	if err != nil {
		return err
	}

	f.params = next
	f.chain = biquad.NewChain(coeffs)
	return nil
}

// PoleZeroPairs returns the z-plane poles and zeros of every section in the
// cascade, for diagnostics such as verifying that all poles lie strictly
// inside the unit circle.
func (f *ButterworthFilter) PoleZeroPairs() []biquad.PoleZeroPair {
	return f.chain.PoleZeroPairs()
}

// MagnitudeDB returns the cascade's magnitude response in dB at freqHz,
// given the sample rate implied by the caller's period-to-Hz convention.
// Exposed for diagnostics and tests, mirroring biquad.Chain.MagnitudeDB.
func (f *ButterworthFilter) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return f.chain.MagnitudeDB(freqHz, sampleRate)
}
