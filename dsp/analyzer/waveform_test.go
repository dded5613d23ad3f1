package analyzer

import (
	"testing"

	"github.com/cwbudde/octopitch/dsp/buffer"
	"github.com/cwbudde/octopitch/internal/testutil"
)

func TestExtractHarmonicWaveform_Length(t *testing.T) {
	const sampleRate = 8000.0
	const freq = 100.0

	x := testutil.DeterministicSine(freq, sampleRate, 1.0, 4000)
	w := extractHarmonicWaveform(buffer.NewPool(), x, freq, sampleRate)

	want := int(sampleRate / freq)
	if len(w) != want {
		t.Errorf("waveform length = %d, want %d", len(w), want)
	}
}

func TestExtractHarmonicWaveform_ZeroFrequencyReturnsNil(t *testing.T) {
	x := testutil.DC(1.0, 100)
	w := extractHarmonicWaveform(buffer.NewPool(), x, 0, 8000)
	if w != nil {
		t.Errorf("expected nil waveform for zero frequency, got %v", w)
	}
}

func TestExtractHarmonicWaveform_Periodic(t *testing.T) {
	const sampleRate = 8000.0
	const freq = 200.0

	x := testutil.DeterministicSine(freq, sampleRate, 1.0, 4000)
	w := extractHarmonicWaveform(buffer.NewPool(), x, freq, sampleRate)

	if len(w) == 0 {
		t.Fatal("expected non-empty waveform")
	}

	var energy float64
	for _, v := range w {
		energy += v * v
	}
	if energy == 0 {
		t.Error("expected non-zero waveform energy for a sine input")
	}
}
