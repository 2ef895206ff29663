// Package designer keeps an experiment's statistical plan consistent while it is
// being edited: every parameter change recomputes the recommended sample size.
package designer

import (
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

// Statistical is the editing state of an experiment's statistical settings.
//
// Setters for confidence, power, MDE and baseline recompute the sample size and
// overwrite the stored value. SetSampleSize is a manual override that holds
// until the next parameter change. It is not safe for concurrent use.
type Statistical struct {
	cfg          domain.StatisticalConfig
	dailyTraffic int
	recommended  int
	overridden   bool
	err          error
}

// Summary is a snapshot of the plan suitable for display.
type Summary struct {
	Config          domain.StatisticalConfig `json:"config"`
	Recommended     int                      `json:"recommended_sample_size"`
	Overridden      bool                     `json:"overridden"`
	DailyTraffic    int                      `json:"daily_traffic_per_variant"`
	DurationDays    int                      `json:"estimated_duration_days"`
	Recommendations []domain.Recommendation  `json:"recommendations"`
}

// New returns a designer seeded with cfg. The sample size is recomputed
// immediately unless cfg carries a non-zero SampleSize, which is kept as an
// override.
func New(cfg domain.StatisticalConfig, dailyTrafficPerVariant int) *Statistical {
	s := &Statistical{cfg: cfg, dailyTraffic: dailyTrafficPerVariant}
	manual := cfg.SampleSize
	_ = s.recompute()
	if manual > 0 {
		s.cfg.SampleSize = manual
		s.overridden = manual != s.recommended
	}
	return s
}

func (s *Statistical) SetConfidenceLevel(level int) error {
	s.cfg.ConfidenceLevel = level
	return s.recompute()
}

func (s *Statistical) SetStatisticalPower(power int) error {
	s.cfg.StatisticalPower = power
	return s.recompute()
}

func (s *Statistical) SetMinimumDetectableEffect(mde float64) error {
	s.cfg.MinimumDetectableEffect = mde
	return s.recompute()
}

func (s *Statistical) SetBaselineConversionRate(rate float64) error {
	s.cfg.BaselineConversionRate = rate
	return s.recompute()
}

// SetSampleSize overrides the computed sample size.
func (s *Statistical) SetSampleSize(n int) {
	s.cfg.SampleSize = n
	s.overridden = true
}

// SetDailyTraffic changes the duration input. It does not touch the sample size.
func (s *Statistical) SetDailyTraffic(perVariant int) {
	s.dailyTraffic = perVariant
}

func (s *Statistical) SetSignificanceThreshold(p float64) {
	s.cfg.SignificanceThreshold = p
}

func (s *Statistical) SetEarlyStopping(enabled bool) {
	s.cfg.EarlyStoppingEnabled = enabled
}

// Config returns the current settings.
func (s *Statistical) Config() domain.StatisticalConfig {
	return s.cfg
}

// Recommended returns the last successfully computed sample size.
func (s *Statistical) Recommended() int {
	return s.recommended
}

// Err returns the error of the last recomputation, if any.
func (s *Statistical) Err() error {
	return s.err
}

// Summary returns the plan, its duration and advisory recommendations.
// Duration is based on the recommended sample size.
func (s *Statistical) Summary() Summary {
	duration := domain.EstimateDuration(s.recommended, s.dailyTraffic)
	return Summary{
		Config:          s.cfg,
		Recommended:     s.recommended,
		Overridden:      s.overridden,
		DailyTraffic:    s.dailyTraffic,
		DurationDays:    duration,
		Recommendations: domain.Recommend(s.cfg, s.recommended, duration),
	}
}

// recompute leaves the previous sample size in place when the inputs are invalid.
func (s *Statistical) recompute() error {
	n, err := domain.EstimateSampleSize(s.cfg.SampleSizeInput())
	s.err = err
	if err != nil {
		return err
	}
	s.recommended = n
	s.cfg.SampleSize = n
	s.overridden = false
	return nil
}
