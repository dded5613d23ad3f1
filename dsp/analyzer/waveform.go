package analyzer

import (
	"math"

	"github.com/cwbudde/octopitch/dsp/buffer"
	"github.com/cwbudde/octopitch/dsp/filter/design"
)

// extractHarmonicWaveform builds a phase-locked, harmonic-summed waveform of
// length P0 = floor(s/fstar) from the snapshot x: the fundamental is
// isolated and phase-aligned against a reference sine, then up to four
// additional harmonics are isolated, aligned to the same offset (no
// independent re-alignment), and summed in. Isolation scratch buffers are
// borrowed from pool and returned before each call's result is used, since
// the per-harmonic filtered output is consumed immediately and never
// retained past this function.
func extractHarmonicWaveform(pool *buffer.Pool, x []float64, fstar, s float64) []float64 {
	p0 := int(math.Floor(s / fstar))
	if p0 <= 0 {
		return nil
	}

	w := make([]float64, p0)

	x1, err := isolateAtPeriod(pool, x, float64(p0))
	if err != nil || x1 == nil || x1.Len() == 0 {
		return w
	}

	window := x1.Len()
	if 5*p0 < window {
		window = 5 * p0
	}
	s0 := x1.Len() - window

	offset, ok := bestPhaseOffset(x1.Samples(), s0, p0)
	if !ok {
		pool.Put(x1)
		return w
	}

	copy(w, x1.Samples()[s0+offset:])
	pool.Put(x1)

	h := int(math.Floor(s / (2 * fstar)))
	if h > maxHarmonics {
		h = maxHarmonics
	}

	for harmonic := 2; harmonic <= h; harmonic++ {
		period := math.Floor(s / (float64(harmonic) * fstar))
		if period <= 0 {
			continue
		}

		xh, err := isolateAtPeriod(pool, x, period)
		if err != nil || xh == nil || xh.Len() != len(x) {
			continue
		}

		start := s0 + offset
		samples := xh.Samples()
		for i := 0; i < p0; i++ {
			idx := start + i
			if idx < 0 || idx >= len(samples) {
				continue
			}
			w[i] += samples[idx]
		}
		pool.Put(xh)
	}

	return w
}

// isolateAtPeriod builds a fresh bandpass Butterworth filter at the given
// period, fixed quality and order used throughout waveform extraction, and
// filters a pooled copy of x through it. The caller must return the result
// to pool once done reading it.
func isolateAtPeriod(pool *buffer.Pool, x []float64, period float64) (*buffer.Buffer, error) {
	filt, err := design.NewButterworthFilter(design.Params{
		Type:    design.Bandpass,
		Period:  period,
		Quality: harmonicQuality,
		Order:   harmonicOrder,
	})
	if err != nil {
		return nil, err
	}

	y := pool.Get(len(x))
	copy(y.Samples(), x)
	filt.ProcessBlock(y.Samples())
	return y, nil
}

// bestPhaseOffset picks delta in [0, p0) maximizing the correlation of
// x1[s0+delta:s0+delta+p0] against a reference sine of period p0, only over
// indices that remain in range.
func bestPhaseOffset(x1 []float64, s0, p0 int) (int, bool) {
	bestDelta := -1
	bestCorr := math.Inf(-1)

	for delta := 0; delta < p0; delta++ {
		var corr float64
		any := false
		for i := 0; i < p0; i++ {
			idx := s0 + delta + i
			if idx < 0 || idx >= len(x1) {
				continue
			}
			any = true
			corr += x1[idx] * math.Sin(2*math.Pi*float64(i)/float64(p0))
		}
		if !any {
			continue
		}
		if corr > bestCorr {
			bestCorr = corr
			bestDelta = delta
		}
	}

	if bestDelta < 0 {
		return 0, false
	}
	return bestDelta, true
}
