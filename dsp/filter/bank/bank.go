package bank

import (
	"errors"
	"math"

	"github.com/cwbudde/octopitch/dsp/core"
	"github.com/cwbudde/octopitch/dsp/filter/design"
)

var (
	ErrInvalidPeriodRange = errors.New("bank: Pmin must be less than Pmax")
	ErrInvalidFilterCount = errors.New("bank: filter count must be at least 2")
	ErrInvalidOrder       = errors.New("bank: order must be even and at least 2")
)

// clampPercent restricts an overlap percentage to [0, 99], matching the
// bank's tolerance for out-of-range configuration rather than failing.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 99 {
		return 99
	}
	return v
}

// Params holds the construction parameters for a FilterBank.
type Params struct {
	Pmin    float64 // minimum center period, samples
	Pmax    float64 // maximum center period, samples
	Filters int     // number of bandpass filters, F >= 2
	Overlap float64 // percent overlap, clamped to [0, 99]
	Order   int     // Butterworth order per filter, even
}

// Validate checks the structural preconditions; Overlap is clamped rather
// than validated, matching the spec's clamp(rho, 0, 99) contract.
func (p Params) Validate() error {
	if !(p.Pmin < p.Pmax) {
		return ErrInvalidPeriodRange
	}
	if p.Filters < 2 {
		return ErrInvalidFilterCount
	}
	if p.Order < 2 || p.Order%2 != 0 {
		return ErrInvalidOrder
	}
	return nil
}

// FilterBank is an ordered collection of bandpass Butterworth filters at
// logarithmically spaced center periods. Energies are computed per filter
// over a snapshot buffer; find_peaks locates local energy maxima.
type FilterBank struct {
	params  Params
	ratio   float64 // r = (Pmax/Pmin)^(1/(F-1))
	quality float64 // derived Q
	periods []float64
	filters []*design.ButterworthFilter
	scratch []float64 // reused per-filter working buffer for ProcessBuffer
}

// New constructs a FilterBank, deriving center periods and a shared quality
// factor from p:
//
//	r = (Pmax/Pmin)^(1/(F-1))
//	Q = 1 / ((r-1) * (1 + clamp(rho,0,99)/100))
//	Pi = Pmin * r^i, i in [0, F)
func New(p Params) (*FilterBank, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := &FilterBank{params: p}
	if err := f.rebuild(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FilterBank) rebuild() error {
	p := f.params
	n := float64(p.Filters - 1)
	r := math.Pow(p.Pmax/p.Pmin, 1/n)
	rho := clampPercent(p.Overlap)
	q := 1 / ((r - 1) * (1 + rho/100))

	periods := make([]float64, p.Filters)
	filters := make([]*design.ButterworthFilter, p.Filters)
	for i := range periods {
		period := p.Pmin * math.Pow(r, float64(i))
		periods[i] = period

		bf, err := design.NewButterworthFilter(design.Params{
			Type:    design.Bandpass,
			Period:  period,
			Quality: q,
			Order:   p.Order,
		})
		if err != nil {
			return err
		}
		filters[i] = bf
	}

	f.ratio = r
	f.quality = q
	f.periods = periods
	f.filters = filters
	return nil
}

// Reconfigure replaces the bank's parameters and fully recomputes center
// periods, quality, and every filter's cascade.
func (f *FilterBank) Reconfigure(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	prev := f.params
	f.params = p
	if err := f.rebuild(); err != nil {
		f.params = prev
		return err
	}
	return nil
}

// NumFilters returns the number of bandpass filters, F.
func (f *FilterBank) NumFilters() int { return len(f.filters) }

// Ratio returns the derived period ratio r between adjacent filters.
func (f *FilterBank) Ratio() float64 { return f.ratio }

// Quality returns the derived shared quality factor Q.
func (f *FilterBank) Quality() float64 { return f.quality }

// Order returns the Butterworth order shared by every filter.
func (f *FilterBank) Order() int { return f.params.Order }

// Periods returns the center periods of every filter, strictly increasing.
func (f *FilterBank) Periods() []float64 { return f.periods }

// Filter returns the i-th bandpass filter for direct use (e.g. isolating a
// single peak's component from a fresh snapshot).
func (f *FilterBank) Filter(i int) *design.ButterworthFilter { return f.filters[i] }

// Reset clears every filter's delay-line state.
func (f *FilterBank) Reset() {
	for _, filt := range f.filters {
		filt.Reset()
	}
}

// ProcessBuffer resets every filter, runs xs through each independently, and
// returns the per-filter energy: sum of squared outputs divided by len(xs).
func (f *FilterBank) ProcessBuffer(xs []float64) []float64 {
	energies := make([]float64, len(f.filters))
	if len(xs) == 0 {
		return energies
	}

	f.scratch = core.EnsureLen(f.scratch, len(xs))
	for i, filt := range f.filters {
		filt.Reset()
		core.CopyInto(f.scratch, xs)
		filt.ProcessBlock(f.scratch)

		var sumSq float64
		for _, y := range f.scratch {
			sumSq += y * y
		}
		energies[i] = sumSq / float64(len(xs))
	}
	return energies
}

// EnergyDB converts a linear energy value to decibels (10*log10(energy))
// for diagnostic/display use. Energies at or below zero report
// math.Inf(-1).
func EnergyDB(energy float64) float64 {
	if energy <= 0 {
		return math.Inf(-1)
	}
	return 10 * mathLog10(energy)
}

// Peak is a candidate energy maximum found by FindPeaks, naming the
// filter's center period and its energy for that buffer.
type Peak struct {
	Index  int
	Period float64
	Energy float64
}

// FindPeaks returns every interior index i (0 < i < F-1) where energies[i]
// exceeds threshold and is strictly greater than both neighbors.
func FindPeaks(energies []float64, periods []float64, threshold float64) []Peak {
	var peaks []Peak
	for i := 1; i < len(energies)-1; i++ {
		e := energies[i]
		if e > threshold && e > energies[i-1] && e > energies[i+1] {
			peaks = append(peaks, Peak{Index: i, Period: periods[i], Energy: e})
		}
	}
	return peaks
}
