package bank

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func validParams() Params {
	return Params{Pmin: 20, Pmax: 400, Filters: 8, Overlap: 50, Order: 4}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr error
	}{
		{"valid", validParams(), nil},
		{"pmin >= pmax", Params{Pmin: 400, Pmax: 400, Filters: 4, Order: 2}, ErrInvalidPeriodRange},
		{"too few filters", Params{Pmin: 20, Pmax: 400, Filters: 1, Order: 2}, ErrInvalidFilterCount},
		{"odd order", Params{Pmin: 20, Pmax: 400, Filters: 4, Order: 3}, ErrInvalidOrder},
		{"zero order", Params{Pmin: 20, Pmax: 400, Filters: 4, Order: 0}, ErrInvalidOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); err != tt.wantErr {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_DerivedPeriods(t *testing.T) {
	p := validParams()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	periods := b.Periods()
	if len(periods) != p.Filters {
		t.Fatalf("got %d periods, want %d", len(periods), p.Filters)
	}

	r := math.Pow(p.Pmax/p.Pmin, 1/float64(p.Filters-1))
	if !almostEqual(b.Ratio(), r, 1e-12) {
		t.Errorf("Ratio: got %.12f, want %.12f", b.Ratio(), r)
	}

	for i, period := range periods {
		want := p.Pmin * math.Pow(r, float64(i))
		if !almostEqual(period, want, 1e-9) {
			t.Errorf("period %d: got %.6f, want %.6f", i, period, want)
		}
	}

	// Strictly increasing.
	for i := 1; i < len(periods); i++ {
		if periods[i] <= periods[i-1] {
			t.Errorf("periods not strictly increasing at %d: %v <= %v", i, periods[i], periods[i-1])
		}
	}

	if periods[0] != p.Pmin {
		t.Errorf("first period: got %v, want Pmin=%v", periods[0], p.Pmin)
	}
}

func TestNew_DerivedQuality(t *testing.T) {
	p := validParams()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	r := b.Ratio()
	want := 1 / ((r - 1) * (1 + clampPercent(p.Overlap)/100))
	if !almostEqual(b.Quality(), want, 1e-12) {
		t.Errorf("Quality: got %.12f, want %.12f", b.Quality(), want)
	}
}

func TestNew_OverlapClamped(t *testing.T) {
	over := validParams()
	over.Overlap = 500 // out of range, clamps to 99

	under := validParams()
	under.Overlap = -10 // clamps to 0

	b1, err := New(over)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	b3, err := New(under)
	if err != nil {
		t.Fatal(err)
	}

	q99 := b1.Quality()
	r := b2.Ratio()
	want99 := 1 / ((r - 1) * (1 + 99.0/100))
	if !almostEqual(q99, want99, 1e-12) {
		t.Errorf("clamp(500)->99: got Q=%.12f, want %.12f", q99, want99)
	}

	q0 := b3.Quality()
	want0 := 1 / ((r - 1) * (1 + 0.0/100))
	if !almostEqual(q0, want0, 1e-12) {
		t.Errorf("clamp(-10)->0: got Q=%.12f, want %.12f", q0, want0)
	}
}

func TestFilterBank_NumFilters(t *testing.T) {
	b, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	if b.NumFilters() != validParams().Filters {
		t.Errorf("NumFilters: got %d, want %d", b.NumFilters(), validParams().Filters)
	}
}

func TestProcessBuffer_EnergyNonNegative(t *testing.T) {
	b, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}

	xs := make([]float64, 2000)
	for i := range xs {
		xs[i] = math.Sin(2 * math.Pi * float64(i) / 50)
	}

	energies := b.ProcessBuffer(xs)
	if len(energies) != b.NumFilters() {
		t.Fatalf("got %d energies, want %d", len(energies), b.NumFilters())
	}
	for i, e := range energies {
		if e < 0 || math.IsNaN(e) || math.IsInf(e, 0) {
			t.Errorf("energy %d invalid: %v", i, e)
		}
	}
}

func TestProcessBuffer_PeaksNearMatchingPeriod(t *testing.T) {
	// A pure sine whose period matches one of the bank's center periods
	// should produce a local energy maximum at (or very near) that filter.
	p := Params{Pmin: 20, Pmax: 200, Filters: 10, Overlap: 50, Order: 4}
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	periods := b.Periods()
	targetIdx := 5
	targetPeriod := periods[targetIdx]

	n := 4000
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Sin(2 * math.Pi * float64(i) / targetPeriod)
	}

	energies := b.ProcessBuffer(xs)

	// The targeted filter (or an immediate neighbor, since Q/period spacing
	// is coarse) should carry more energy than the bank's extremes.
	maxIdx := 0
	for i, e := range energies {
		if e > energies[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx < targetIdx-1 || maxIdx > targetIdx+1 {
		t.Errorf("energy peak at filter %d (period %.2f), want near %d (period %.2f)",
			maxIdx, periods[maxIdx], targetIdx, targetPeriod)
	}
}

func TestFindPeaks_StrictLocalMaximaAboveThreshold(t *testing.T) {
	energies := []float64{0, 1, 5, 2, 6, 1, 0}
	periods := []float64{10, 20, 30, 40, 50, 60, 70}

	peaks := FindPeaks(energies, periods, 3)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 || peaks[1].Index != 4 {
		t.Errorf("unexpected peak indices: %+v", peaks)
	}
	if peaks[0].Period != 30 || peaks[1].Period != 50 {
		t.Errorf("unexpected peak periods: %+v", peaks)
	}
}

func TestFindPeaks_EndpointsNeverReported(t *testing.T) {
	// Endpoints cannot be peaks even if they are locally maximal by value,
	// since FindPeaks only considers interior indices.
	energies := []float64{10, 1, 2, 1, 10}
	periods := []float64{1, 2, 3, 4, 5}

	peaks := FindPeaks(energies, periods, 0)
	for _, pk := range peaks {
		if pk.Index == 0 || pk.Index == len(energies)-1 {
			t.Errorf("endpoint reported as peak: %+v", pk)
		}
	}
}

func TestFindPeaks_NoneBelowThreshold(t *testing.T) {
	energies := []float64{0, 1, 2, 1, 0}
	periods := []float64{1, 2, 3, 4, 5}

	peaks := FindPeaks(energies, periods, 5)
	if len(peaks) != 0 {
		t.Errorf("got %d peaks, want 0: %+v", len(peaks), peaks)
	}
}

func TestReconfigure_RecomputesEverything(t *testing.T) {
	b, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	origPeriods := append([]float64(nil), b.Periods()...)

	next := Params{Pmin: 10, Pmax: 1000, Filters: 12, Overlap: 10, Order: 6}
	if err := b.Reconfigure(next); err != nil {
		t.Fatal(err)
	}

	if b.NumFilters() != next.Filters {
		t.Errorf("NumFilters after reconfigure: got %d, want %d", b.NumFilters(), next.Filters)
	}
	if len(b.Periods()) == len(origPeriods) && b.Periods()[0] == origPeriods[0] {
		t.Error("periods unchanged after reconfigure")
	}
}

func TestReconfigure_RejectsInvalidParams(t *testing.T) {
	b, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	bad := Params{Pmin: 400, Pmax: 20, Filters: 8, Order: 4}
	if err := b.Reconfigure(bad); err == nil {
		t.Fatal("expected error for invalid reconfigure params")
	}
	// Original bank must remain usable with its prior configuration.
	if b.NumFilters() != validParams().Filters {
		t.Errorf("bank mutated despite rejected reconfigure: NumFilters=%d", b.NumFilters())
	}
}

func TestReset_ClearsFilterState(t *testing.T) {
	b, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}

	xs := make([]float64, 500)
	for i := range xs {
		xs[i] = 1
	}
	_ = b.ProcessBuffer(xs)
	b.Reset()

	// After Reset, processing the same buffer again should reproduce
	// identical energies (ProcessBuffer already resets internally, so this
	// mainly guards against Reset panicking or leaving stale state).
	e1 := b.ProcessBuffer(xs)
	e2 := b.ProcessBuffer(xs)
	for i := range e1 {
		if !almostEqual(e1[i], e2[i], 1e-9) {
			t.Errorf("energy %d not reproducible: %v vs %v", i, e1[i], e2[i])
		}
	}
}
