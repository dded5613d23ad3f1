// Command octoscope runs the octave-pyramid pitch analyzer over a mono WAV
// file (or a synthesized test tone) and prints detected frequency
// components to stdout.
//
// Usage:
//
//	octoscope -in tone.wav
//	octoscope -synth 440 -rate 48000 -seconds 2
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/octopitch/dsp/config"
	"github.com/cwbudde/octopitch/dsp/core"
	"github.com/cwbudde/octopitch/dsp/signal"
)

func main() {
	inPath := flag.String("in", "", "path to a mono WAV file to analyze")
	synthFreq := flag.Float64("synth", 0, "instead of -in, synthesize a sine at this frequency (Hz)")
	noise := flag.Bool("noise", false, "instead of -in/-synth, synthesize white noise (exercises DC/noise-floor rejection)")
	seed := flag.Int64("seed", 1, "deterministic RNG seed for -noise mode")
	sampleRate := flag.Float64("rate", 48000, "sample rate for -synth/-noise mode")
	seconds := flag.Float64("seconds", 2, "duration for -synth/-noise mode")
	blockSize := flag.Int("block", 256, "audio callback block size")
	pmin := flag.Float64("pmin", 24, "minimum detectable period, samples")
	pmax := flag.Float64("pmax", 4800, "maximum detectable period, samples")
	numFilters := flag.Int("filters", 48, "filter bank size")
	overlap := flag.Float64("overlap", 50, "filter bank percent overlap")
	order := flag.Int("order", 4, "Butterworth order (2,4,6,8)")
	threshold := flag.Float64("threshold", 0.1, "detection sensitivity [0,1]")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: octoscope [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the pitch analyzer over a WAV file or a synthesized tone.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	log.Logger = logger

	features := cpu.DetectFeatures()
	log.Info().Msgf("detected CPU features: %v", features)

	samples, rate, err := loadSamples(*inPath, *synthFreq, *noise, *seed, *sampleRate, *seconds)
	if err != nil {
		log.Error().Err(err).Msg("failed to load input")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.MinSamplesPerPeriod = *pmin
	cfg.MaxSamplesPerPeriod = *pmax
	cfg.NumFilters = *numFilters
	cfg.PercentOverlap = *overlap
	cfg.FilterOrder = *order
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

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Time\tLevel\tFrequency\tEnergy\tEnergy(dB)\tPeriod")
	fmt.Fprintln(tw, "----\t-----\t---------\t------\t----------\t------")

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

		for _, p := range result.Peaks {
			fmt.Fprintf(tw, "%.3f\t%d\t%.2f\t%.4g\t%.1f\t%.1f\n",
				t, p.Level, p.Frequency, p.Energy, core.LinearPowerToDB(p.Energy), p.Period)
		}
	}

	if err := tw.Flush(); err != nil {
		log.Error().Err(err).Msg("failed to flush output")
		os.Exit(1)
	}
}

// loadSamples returns mono float64 samples and the stream's sample rate,
// either decoded from a WAV file at inPath, synthesized as a pure sine, or
// synthesized as white noise.
func loadSamples(inPath string, synthFreq float64, noise bool, seed int64, sampleRate, seconds float64) ([]float64, float64, error) {
	if inPath != "" {
		return loadWAV(inPath)
	}

	n := int(math.Round(seconds * sampleRate))

	switch {
	case synthFreq > 0:
		gen := signal.NewGenerator(core.WithSampleRate(sampleRate))
		samples, err := gen.Sine(synthFreq, 1.0, n)
		if err != nil {
			return nil, 0, err
		}
		return samples, sampleRate, nil
	case noise:
		gen := signal.NewGeneratorWithOptions([]core.ProcessorOption{core.WithSampleRate(sampleRate)}, signal.WithSeed(seed))
		samples, err := gen.WhiteNoise(1.0, n)
		if err != nil {
			return nil, 0, err
		}
		return samples, sampleRate, nil
	default:
		return nil, 0, fmt.Errorf("octoscope: one of -in, -synth, or -noise must be given")
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
		return nil, 0, fmt.Errorf("octoscope: decode WAV: %w", err)
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

