// Command specdiff cross-checks the pitch analyzer's autocorrelation-refined
// peak frequencies against an independent FFT-derived estimate, reporting
// the delta per tick.
//
// Usage:
//
//	specdiff --in tone.wav --fft-size 4096
package main

import (
	"fmt"
	"math"
	"os"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/octopitch/dsp/config"
	"github.com/cwbudde/octopitch/dsp/filter/design"
)

func main() {
	inPath := pflag.StringP("in", "i", "", "path to a mono WAV file to analyze")
	fftSize := pflag.Int("fft-size", 4096, "FFT size used for the cross-check (power of two)")
	blockSize := pflag.Int("block", 256, "audio callback block size")
	pmin := pflag.Float64("pmin", 24, "minimum detectable period, samples")
	pmax := pflag.Float64("pmax", 4800, "maximum detectable period, samples")
	threshold := pflag.Float64("threshold", 0.1, "detection sensitivity [0,1]")
	searchBins := pflag.Int("search-bins", 8, "bins either side of the expected frequency to search for the FFT peak")
	checkStability := pflag.Bool("check-stability", false, "verify each reported peak's isolation filter has poles inside the unit circle")
	pflag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *inPath == "" {
		log.Error().Msg("--in is required")
		pflag.Usage()
		os.Exit(1)
	}

	features := cpu.DetectFeatures()
	log.Info().Msgf("detected CPU features: %v", features)

	samples, rate, err := loadWAV(*inPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load input")
		os.Exit(1)
	}

	plan, err := algofft.NewPlan64(*fftSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to build FFT plan")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.MinSamplesPerPeriod = *pmin
	cfg.MaxSamplesPerPeriod = *pmax
	cfg.Threshold = *threshold
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctrl, err := config.New(rate, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize analyzer")
		os.Exit(1)
	}

	binHz := rate / float64(*fftSize)

	var t float64
	blockDuration := float64(*blockSize) / rate
	for start := 0; start < len(samples); start += *blockSize {
		end := min(start+*blockSize, len(samples))
		block := samples[start:end]

		t += blockDuration
		result, ticked := ctrl.ProcessBlock(block, t)
		if !ticked {
			continue
		}
		if len(result.Peaks) == 0 {
			continue
		}

		window := fftWindow(samples, end, *fftSize)
		spectrum, err := runFFT(plan, window, *fftSize)
		if err != nil {
			log.Warn().Err(err).Msg("FFT failed for this tick, skipping")
			continue
		}

		for _, p := range result.Peaks {
			fftFreq := nearestSpectralPeak(spectrum, binHz, p.Frequency, *searchBins)
			fmt.Printf("t=%.3f analyzer=%.2fHz fft=%.2fHz delta=%.2fHz\n",
				t, p.Frequency, fftFreq, math.Abs(p.Frequency-fftFreq))

			if *checkStability {
				reportStability(p.Frequency, rate)
			}
		}
	}
}

// reportStability builds the same kind of bandpass cascade the analyzer
// isolates a peak with, at the reported frequency, and logs whether every
// pole lies inside the unit circle.
func reportStability(freqHz, sampleRate float64) {
	period := sampleRate / freqHz
	f, err := design.NewButterworthFilter(design.Params{
		Type:    design.Bandpass,
		Period:  period,
		Quality: 8.7,
		Order:   4,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not build diagnostic filter")
		return
	}

	for i, pair := range f.PoleZeroPairs() {
		for _, pole := range pair.Poles {
			mag := math.Hypot(real(pole), imag(pole))
			if mag >= 1 {
				log.Warn().Int("section", i).Str("pole", fmt.Sprintf("%v", pole)).Float64("magnitude", mag).
					Msg("unstable pole detected")
			}
		}
	}
}

func loadWAV(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("specdiff: decode WAV: %w", err)
	}

	return toMono(buf), float64(buf.Format.SampleRate), nil
}

// toMono averages interleaved channels down to a single mono stream,
// normalized to [-1, 1] by the source's bit depth.
func toMono(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	scale := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth <= 0 {
		scale = math.MaxInt16
	}

	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = (sum / float64(channels)) / scale
	}
	return out
}

// fftWindow returns the last n samples ending at end, zero-padded at the
// front if fewer than n samples have been seen yet.
func fftWindow(samples []float64, end, n int) []float64 {
	out := make([]float64, n)
	start := end - n
	if start < 0 {
		start = 0
	}

	copy(out[n-(end-start):], samples[start:end])
	return out
}

// runFFT computes the forward FFT of a real-valued window, zero-imaginary.
func runFFT(plan *algofft.Plan64, window []float64, n int) ([]complex128, error) {
	in := make([]complex128, n)
	for i, v := range window {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, err
	}
	return out, nil
}

// nearestSpectralPeak returns the frequency of the strongest magnitude bin
// within +/- searchBins of the expected frequency.
func nearestSpectralPeak(spectrum []complex128, binHz, expectedHz float64, searchBins int) float64 {
	n := len(spectrum)
	center := int(math.Round(expectedHz / binHz))

	lo := center - searchBins
	if lo < 1 {
		lo = 1
	}
	hi := center + searchBins
	if hi > n/2 {
		hi = n / 2
	}
	if lo > hi {
		return expectedHz
	}

	bestBin := lo
	bestMag := math.Inf(-1)
	for b := lo; b <= hi; b++ {
		re, im := real(spectrum[b]), imag(spectrum[b])
		mag := re*re + im*im
		if mag > bestMag {
			bestMag = mag
			bestBin = b
		}
	}

	return float64(bestBin) * binHz
}
