//revive:disable:var-naming
package signal

import (
	"testing"

	"github.com/cwbudde/octopitch/dsp/core"
)

func TestSineLength(t *testing.T) {
	generator := NewGenerator(core.WithSampleRate(48000))

	sine, err := generator.Sine(1000, 1, 64)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}

	if len(sine) != 64 {
		t.Fatalf("len = %d, want 64", len(sine))
	}
}

func TestWhiteNoiseDeterministic(t *testing.T) {
	generator1 := NewGeneratorWithOptions(nil, WithSeed(42))
	generator2 := NewGeneratorWithOptions(nil, WithSeed(42))

	noise1, err := generator1.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	noise2, err := generator2.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range noise1 {
		if noise1[i] != noise2[i] {
			t.Fatalf("noise mismatch at %d: %v != %v", i, noise1[i], noise2[i])
		}
	}
}

func TestSetSeed(t *testing.T) {
	generator := NewGenerator()
	generator.SetSeed(99)

	if generator.Seed() != 99 {
		t.Fatalf("Seed()=%d, want 99", generator.Seed())
	}

	whiteNoise1, err := generator.WhiteNoise(1, 8)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	generator.SetSeed(100)

	whiteNoise2, err := generator.WhiteNoise(1, 8)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	same := true

	for i := range whiteNoise1 {
		if whiteNoise1[i] != whiteNoise2[i] {
			same = false
			break
		}
	}

	if same {
		t.Fatal("expected different seeds to produce different noise")
	}
}
