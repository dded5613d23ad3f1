package config

import (
	"github.com/cwbudde/octopitch/dsp/analyzer"
	"github.com/cwbudde/octopitch/dsp/octave"
)

// Controller owns the manager/analyzer pair for one audio stream and applies
// Config changes atomically between ticks: a structural change tears down
// and rebuilds the manager (state returns to warming); a non-structural
// change (threshold, low-pass gating, analysis interval) takes effect on
// the manager's existing state.
type Controller struct {
	sampleRate float64
	cfg        Config

	manager  *octave.Manager
	analyzer *analyzer.Analyzer

	useLowPass   bool
	blockCounter int
}

// New constructs a Controller for the given nominal input sample rate and
// initial configuration.
func New(sampleRate float64, cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{sampleRate: sampleRate}
	if err := c.rebuild(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) rebuild(cfg Config) error {
	m, err := octave.New(octave.Params{
		SampleRate:         c.sampleRate,
		Pmin:               cfg.MinSamplesPerPeriod,
		Pmax:               cfg.MaxSamplesPerPeriod,
		MinPeriodsInBuffer: cfg.MinPeriodsInBuffer,
		NumFilters:         cfg.NumFilters,
		Overlap:            cfg.PercentOverlap,
		Order:              cfg.FilterOrder,
	})
	if err != nil {
		return err
	}

	c.manager = m
	c.analyzer = analyzer.New(m, cfg.EnergyThreshold())
	c.useLowPass = cfg.UseLowPassFilter
	c.blockCounter = 0
	c.cfg = cfg
	return nil
}

// Apply validates cfg and applies it: a rebuild occurs only when a
// structural field (period range, buffer depth, filter count/overlap/order)
// has changed; otherwise the running manager and analyzer are updated in
// place and their state is preserved. An empty-diff Apply (cfg equal to the
// current configuration) is a no-op.
func (c *Controller) Apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg == c.cfg {
		return nil
	}

	if c.cfg.requiresRebuild(cfg) {
		return c.rebuild(cfg)
	}

	c.analyzer.SetThreshold(cfg.EnergyThreshold())
	c.useLowPass = cfg.UseLowPassFilter
	c.cfg = cfg
	return nil
}

// Config returns the currently active configuration.
func (c *Controller) Config() Config { return c.cfg }

// Manager returns the controller's current octave manager, replaced
// whenever Apply triggers a structural rebuild.
func (c *Controller) Manager() *octave.Manager { return c.manager }

// Reset returns the manager to warming and the analyzer's tick sequencing
// to its initial state.
func (c *Controller) Reset() {
	c.manager.Reset()
	c.analyzer.Reset()
	c.blockCounter = 0
}

// ProcessBlock feeds one input block through the manager, honoring the
// active use_low_pass_filter gate, and runs the analyzer every
// analysis_interval blocks. It returns the analysis result and whether one
// was actually produced this call.
func (c *Controller) ProcessBlock(xs []float64, t float64) (analyzer.Result, bool) {
	c.manager.ProcessBlock(xs, c.useLowPass)

	c.blockCounter++
	if c.blockCounter < c.cfg.AnalysisInterval {
		return analyzer.Result{}, false
	}
	c.blockCounter = 0

	return c.analyzer.Tick(t), true
}
