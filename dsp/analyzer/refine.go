package analyzer

import (
	"math"

	"github.com/cwbudde/octopitch/dsp/core"
)

// refineFrequency sharpens a coarse frequency estimate fhat by targeted
// autocorrelation over the isolated bandpass signal y (length L), sampled
// at rate s, detected by a filter of quality q. It returns fhat unchanged
// whenever the search range is degenerate, matching the "fall back to the
// coarse estimate" contract.
func refineFrequency(y []float64, fhat, s, q float64) float64 {
	l := len(y)
	if fhat <= 0 || l == 0 {
		return fhat
	}

	lhat := math.Floor(s / fhat)
	if lhat <= 0 || lhat >= float64(l)/3 {
		return fhat
	}

	rhoS := core.Clamp(100/q, 5, 25)
	delta := math.Ceil(lhat * rhoS / 100)

	lo := math.Max(1, lhat-delta)
	hi := math.Min(math.Floor(float64(l)/2), lhat+delta)
	if lo > hi {
		return fhat
	}

	loLag := int(lo)
	hiLag := int(hi)

	r := make([]float64, hiLag-loLag+1)
	for lag := loLag; lag <= hiLag; lag++ {
		m := l - lag
		if f := 3 * lhat; float64(m) > f {
			m = int(f)
		}
		if float64(m) < lhat/2 {
			return fhat
		}

		var sum float64
		for i := 0; i < m; i++ {
			sum += y[i] * y[i+lag]
		}
		r[lag-loLag] = sum
	}

	bestIdx := 0
	for i, v := range r {
		if v > r[bestIdx] {
			bestIdx = i
		}
	}
	bestLag := loLag + bestIdx

	if bestIdx > 0 && bestIdx < len(r)-1 {
		y1, y2, y3 := r[bestIdx-1], r[bestIdx], r[bestIdx+1]
		den := y1 - 2*y2 + y3
		if math.Abs(den) > 1e-6*math.Abs(y2) {
			delta := 0.5 * (y1 - y3) / den
			if math.Abs(delta) < 1 {
				return s / (float64(bestLag) + delta)
			}
		}
	}

	return s / float64(bestLag)
}
