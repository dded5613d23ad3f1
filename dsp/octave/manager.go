package octave

import (
	"errors"
	"math"

	"github.com/cwbudde/octopitch/dsp/buffer"
	"github.com/cwbudde/octopitch/dsp/filter/bank"
	"github.com/cwbudde/octopitch/dsp/filter/design"
)

var (
	ErrInvalidSampleRate       = errors.New("octave: sample rate must be positive")
	ErrInvalidPeriodsInBuffer  = errors.New("octave: min periods in buffer must be positive")
	ErrInvalidDecimationCutoff = errors.New("octave: decimation lowpass could not be designed")
)

// Decimation anti-alias lowpass: a fixed cutoff near 0.4*Nyquist,
// independent of level and sample rate (see design notes on the source's
// fixed-coefficient decimator). For a cutoff fc = 0.4*(S0/2) = 0.2*S0, the
// period in samples is S0/fc = 5 regardless of S0, so one set of
// coefficients serves every level and every configured rate.
const (
	decimationLowpassPeriod  = 5.0
	decimationLowpassOrder   = 4
	decimationLowpassQuality = 1 / math.Sqrt2
)

// level is one octave-pyramid tier: its own sample-history ring, its own
// decimation lowpass state (nil at level 0, which receives raw input), and
// a write-decimation counter.
type level struct {
	ring     *buffer.Ring
	lowpass  *design.ButterworthFilter
	counter  int
	rate     float64
	decimate int // 2^k
}

// Manager is an octave-pyramid buffer manager: K levels of sample history
// at progressively halved rates, built from a single input stream, sharing
// one bandpass FilterBank used by the analyzer.
type Manager struct {
	s0       float64
	pMin     float64
	pMax     float64
	capacity int
	levels   []*level
	bank     *bank.FilterBank
}

// Params holds the construction/rebuild parameters for a Manager.
type Params struct {
	SampleRate         float64 // S0
	Pmin               float64 // minimum detectable period, samples
	Pmax               float64 // maximum detectable period, samples
	MinPeriodsInBuffer float64 // B
	NumFilters         int     // F
	Overlap            float64 // rho, percent
	Order              int     // Butterworth order, even
}

// New constructs a Manager: K = max(1, ceil(log2(Pmax/Pmin))+1) levels, each
// a ring of capacity C = 2*Pmin*B, a shared FilterBank, and — for every
// level k >= 1 — an independent decimation lowpass cascade.
func New(p Params) (*Manager, error) {
	if p.SampleRate <= 0 || math.IsNaN(p.SampleRate) || math.IsInf(p.SampleRate, 0) {
		return nil, ErrInvalidSampleRate
	}
	if p.MinPeriodsInBuffer <= 0 {
		return nil, ErrInvalidPeriodsInBuffer
	}

	fb, err := bank.New(bank.Params{
		Pmin:    p.Pmin,
		Pmax:    p.Pmax,
		Filters: p.NumFilters,
		Overlap: p.Overlap,
		Order:   p.Order,
	})
	if err != nil {
		return nil, err
	}

	k := numLevels(p.Pmin, p.Pmax)
	capacity := int(math.Round(2 * p.Pmin * p.MinPeriodsInBuffer))
	if capacity < 1 {
		capacity = 1
	}

	levels := make([]*level, k)
	for i := range levels {
		ring, err := buffer.NewRing(capacity)
		if err != nil {
			return nil, err
		}

		lv := &level{
			ring:     ring,
			rate:     p.SampleRate / math.Pow(2, float64(i)),
			decimate: 1 << uint(i),
		}

		if i >= 1 {
			lp, err := design.NewButterworthFilter(design.Params{
				Type:    design.Lowpass,
				Period:  decimationLowpassPeriod,
				Quality: decimationLowpassQuality,
				Order:   decimationLowpassOrder,
			})
			if err != nil {
				return nil, ErrInvalidDecimationCutoff
			}
			lv.lowpass = lp
		}

		levels[i] = lv
	}

	return &Manager{
		s0:       p.SampleRate,
		pMin:     p.Pmin,
		pMax:     p.Pmax,
		capacity: capacity,
		levels:   levels,
		bank:     fb,
	}, nil
}

func numLevels(pMin, pMax float64) int {
	k := int(math.Ceil(math.Log2(pMax/pMin))) + 1
	if k < 1 {
		k = 1
	}
	return k
}

// NumLevels returns K, the number of octave-pyramid levels.
func (m *Manager) NumLevels() int { return len(m.levels) }

// Capacity returns C, the fixed ring capacity shared by every level.
func (m *Manager) Capacity() int { return m.capacity }

// Bank returns the shared filter bank used by the analyzer to compute
// per-level energies.
func (m *Manager) Bank() *bank.FilterBank { return m.bank }

// LevelRate returns Sk = S0/2^k, the effective sample rate of level k.
func (m *Manager) LevelRate(k int) float64 { return m.levels[k].rate }

// LevelFilled reports whether level k's ring has accumulated a full buffer.
func (m *Manager) LevelFilled(k int) bool { return m.levels[k].ring.Filled() }

// LevelSnapshot writes level k's chronological sample history into dst,
// reusing its backing array when large enough, and returns the result.
func (m *Manager) LevelSnapshot(k int, dst []float64) []float64 {
	return m.levels[k].ring.Ordered(dst)
}

// ProcessBlock feeds xs through the pyramid in input order. Every sample is
// written to level 0 directly. For every level k >= 1, when useLowpass is
// true the sample is first run through that level's independent decimation
// lowpass (updating its state); a per-level counter tracks the input sample's
// phase and, on every 2^k-th sample starting with the first, the (possibly
// filtered) value is written to that level's ring.
func (m *Manager) ProcessBlock(xs []float64, useLowpass bool) {
	for _, x := range xs {
		m.levels[0].ring.Write(x)

		for k := 1; k < len(m.levels); k++ {
			lv := m.levels[k]

			v := x
			if useLowpass {
				v = lv.lowpass.ProcessSample(x)
			}

			if lv.counter%lv.decimate == 0 {
				lv.ring.Write(v)
			}
			lv.counter++
		}
	}
}

// Reset clears every level's ring, decimation lowpass state, and counter.
// The manager returns to the warming state: no level is filled until it
// receives a fresh full buffer's worth of samples.
func (m *Manager) Reset() {
	for _, lv := range m.levels {
		lv.ring.Clear()
		lv.counter = 0
		if lv.lowpass != nil {
			lv.lowpass.Reset()
		}
	}
}
