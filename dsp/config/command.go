package config

// Update is a partial configuration change: every field is optional, and a
// nil field leaves the corresponding Config field untouched. This is the
// message-style control surface behind update_parameters(partial_cfg) —
// an empty Update is a guaranteed no-op, satisfying round-trip property #7.
type Update struct {
	MinSamplesPerPeriod *float64
	MaxSamplesPerPeriod *float64
	MinPeriodsInBuffer  *float64
	NumFilters          *int
	PercentOverlap      *float64
	FilterOrder         *int
	Threshold           *float64
	UseLowPassFilter    *bool
	AnalysisInterval    *int
}

// Merge applies u onto a copy of c, leaving every nil field unchanged.
func (u Update) Merge(c Config) Config {
	if u.MinSamplesPerPeriod != nil {
		c.MinSamplesPerPeriod = *u.MinSamplesPerPeriod
	}
	if u.MaxSamplesPerPeriod != nil {
		c.MaxSamplesPerPeriod = *u.MaxSamplesPerPeriod
	}
	if u.MinPeriodsInBuffer != nil {
		c.MinPeriodsInBuffer = *u.MinPeriodsInBuffer
	}
	if u.NumFilters != nil {
		c.NumFilters = *u.NumFilters
	}
	if u.PercentOverlap != nil {
		c.PercentOverlap = *u.PercentOverlap
	}
	if u.FilterOrder != nil {
		c.FilterOrder = *u.FilterOrder
	}
	if u.Threshold != nil {
		c.Threshold = *u.Threshold
	}
	if u.UseLowPassFilter != nil {
		c.UseLowPassFilter = *u.UseLowPassFilter
	}
	if u.AnalysisInterval != nil {
		c.AnalysisInterval = *u.AnalysisInterval
	}
	return c
}

// IsEmpty reports whether u touches no field at all.
func (u Update) IsEmpty() bool {
	return u.MinSamplesPerPeriod == nil &&
		u.MaxSamplesPerPeriod == nil &&
		u.MinPeriodsInBuffer == nil &&
		u.NumFilters == nil &&
		u.PercentOverlap == nil &&
		u.FilterOrder == nil &&
		u.Threshold == nil &&
		u.UseLowPassFilter == nil &&
		u.AnalysisInterval == nil
}

// UpdateParameters applies a partial configuration change, merging u onto
// the currently active Config and routing the result through Apply. An
// empty Update is a no-op: it neither rebuilds the manager nor mutates any
// observable state.
func (c *Controller) UpdateParameters(u Update) error {
	if u.IsEmpty() {
		return nil
	}
	return c.Apply(u.Merge(c.cfg))
}
