package analyzer

import (
	"math"
	"sort"

	"github.com/cwbudde/octopitch/dsp/buffer"
	"github.com/cwbudde/octopitch/dsp/filter/bank"
	"github.com/cwbudde/octopitch/dsp/filter/design"
	"github.com/cwbudde/octopitch/dsp/octave"
)

// harmonicQuality and harmonicOrder are the fixed parameters used to build
// every isolation filter during waveform extraction, independent of the
// detecting filter's own quality.
const (
	harmonicQuality = 8.7
	harmonicOrder   = 4
	maxHarmonics    = 5
)

// Peak is one detected frequency component, emitted with its refined
// frequency, the energy observed at the detecting filter, the fundamental
// period scaled back to the input sample rate, a harmonic-summed waveform,
// and the octave level it was found at.
type Peak struct {
	Frequency float64
	Energy    float64
	Period    float64
	Waveform  []float64
	Level     int
}

// Result is the output of one Tick: every peak found across all filled
// levels, sorted ascending by frequency, plus the elapsed time since the
// previous tick.
type Result struct {
	Peaks     []Peak
	FrameTime float64
}

// Analyzer runs the per-tick analysis pipeline over an octave.Manager's
// levels: snapshot, energy, peak-find, isolate, refine, extract.
type Analyzer struct {
	manager   *octave.Manager
	threshold float64
	prevTime  float64
	hasTicked bool

	snapshot []float64    // reused scratch for level snapshots
	pool     *buffer.Pool // pooled isolation scratch, reused across peaks/harmonics
}

// New constructs an Analyzer reading from manager, reporting energy peaks
// above threshold.
func New(manager *octave.Manager, threshold float64) *Analyzer {
	return &Analyzer{manager: manager, threshold: threshold, pool: buffer.NewPool()}
}

// SetThreshold updates the peak-detection threshold applied on the next tick.
func (a *Analyzer) SetThreshold(threshold float64) { a.threshold = threshold }

// Tick runs one analysis pass at clock time t and returns the result. The
// first call after construction or Reset reports FrameTime as 0.
func (a *Analyzer) Tick(t float64) Result {
	var peaks []Peak

	fb := a.manager.Bank()
	periods := fb.Periods()
	order := fb.Order()

	for k := 0; k < a.manager.NumLevels(); k++ {
		if !a.manager.LevelFilled(k) {
			continue
		}

		a.snapshot = a.manager.LevelSnapshot(k, a.snapshot)
		snap := a.snapshot

		energies := fb.ProcessBuffer(snap)
		found := bank.FindPeaks(energies, periods, a.threshold)
		if len(found) == 0 {
			continue
		}

		sk := a.manager.LevelRate(k)
		quality := fb.Quality()

		for _, p := range found {
			peaks = append(peaks, a.analyzePeak(snap, p, sk, quality, order, k))
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Frequency < peaks[j].Frequency })

	var frameTime float64
	if a.hasTicked {
		frameTime = t - a.prevTime
	}
	a.prevTime = t
	a.hasTicked = true

	return Result{Peaks: peaks, FrameTime: frameTime}
}

// analyzePeak isolates a single filter-bank peak, refines its frequency,
// and extracts its harmonic-summed waveform.
func (a *Analyzer) analyzePeak(snap []float64, p bank.Peak, sk, quality float64, order int, level int) Peak {
	isolation, err := design.NewButterworthFilter(design.Params{
		Type:    design.Bandpass,
		Period:  p.Period,
		Quality: quality,
		Order:   order,
	})
	if err != nil {
		// Construction only fails on invalid parameters; fall back to the
		// coarse estimate with no isolation, matching the "never abort the
		// stream" contract.
		fhat := sk / p.Period
		return Peak{
			Frequency: fhat,
			Energy:    p.Energy,
			Period:    p.Period * math.Pow(2, float64(level)),
			Level:     level,
		}
	}

	isolated := a.pool.Get(len(snap))
	copy(isolated.Samples(), snap)
	isolation.ProcessBlock(isolated.Samples())

	fhat := sk / p.Period
	fstar := refineFrequency(isolated.Samples(), fhat, sk, isolation.Quality())
	a.pool.Put(isolated)

	pStar := sk / fstar
	p0 := pStar * math.Pow(2, float64(level))

	waveform := extractHarmonicWaveform(a.pool, snap, fstar, sk)

	return Peak{
		Frequency: fstar,
		Energy:    p.Energy,
		Period:    p0,
		Waveform:  waveform,
		Level:     level,
	}
}

// Reset clears tick sequencing state; the next Tick reports FrameTime as 0.
func (a *Analyzer) Reset() {
	a.prevTime = 0
	a.hasTicked = false
}
