package domain

import (
	"fmt"
	"math"
)

const (
	// MinimumSampleSize is the floor applied to every per-variant estimate.
	MinimumSampleSize = 100

	// LongDurationDays is the test length above which a duration warning is emitted.
	LongDurationDays = 14

	// SmallEffectPercent is the MDE below which a small-effect warning is emitted.
	SmallEffectPercent = 2.0
)

var (
	ErrUnsupportedConfidence = fmt.Errorf("%w: unsupported confidence level", ErrInvalidInput)
	ErrUnsupportedPower      = fmt.Errorf("%w: unsupported statistical power", ErrInvalidInput)
)

// Two-tailed critical values. Only these levels are accepted.
var confidenceZScores = map[int]float64{
	90: 1.645,
	95: 1.96,
	99: 2.576,
}

var powerZScores = map[int]float64{
	70: 0.524,
	80: 0.842,
	90: 1.282,
	95: 1.645,
}

// SupportedConfidenceLevels lists the accepted confidence levels in ascending order.
var SupportedConfidenceLevels = []int{90, 95, 99}

// SupportedPowerLevels lists the accepted statistical power levels in ascending order.
var SupportedPowerLevels = []int{70, 80, 90, 95}

// StatisticalConfig holds the statistical settings of an experiment.
type StatisticalConfig struct {
	ConfidenceLevel         int     `json:"confidence_level" yaml:"confidence_level"`
	StatisticalPower        int     `json:"statistical_power" yaml:"statistical_power"`
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect" yaml:"minimum_detectable_effect"`
	BaselineConversionRate  float64 `json:"baseline_conversion_rate" yaml:"baseline_conversion_rate"`
	SignificanceThreshold   float64 `json:"significance_threshold" yaml:"significance_threshold"`
	SampleSize              int     `json:"sample_size" yaml:"sample_size"`
	EarlyStoppingEnabled    bool    `json:"early_stopping_enabled" yaml:"early_stopping_enabled"`
}

// DefaultStatisticalConfig returns the settings a new experiment starts with.
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		ConfidenceLevel:         95,
		StatisticalPower:        80,
		MinimumDetectableEffect: 5,
		BaselineConversionRate:  5,
		SignificanceThreshold:   0.05,
	}
}

// SampleSizeInput returns the estimator inputs carried by the config.
func (c StatisticalConfig) SampleSizeInput() SampleSizeInput {
	return SampleSizeInput{
		ConfidenceLevel:         c.ConfidenceLevel,
		StatisticalPower:        c.StatisticalPower,
		MinimumDetectableEffect: c.MinimumDetectableEffect,
		BaselineConversionRate:  c.BaselineConversionRate,
	}
}

// SampleSizeInput are the parameters of a two-proportion sample size estimate.
// MinimumDetectableEffect is a relative lift in percent; BaselineConversionRate is a percent.
type SampleSizeInput struct {
	ConfidenceLevel         int     `json:"confidence_level"`
	StatisticalPower        int     `json:"statistical_power"`
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect"`
	BaselineConversionRate  float64 `json:"baseline_conversion_rate"`
}

// ZScoreForConfidence returns the two-tailed critical value for a confidence level.
func ZScoreForConfidence(level int) (float64, error) {
	z, ok := confidenceZScores[level]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedConfidence, level)
	}
	return z, nil
}

// ZScoreForPower returns the critical value for a statistical power level.
func ZScoreForPower(power int) (float64, error) {
	z, ok := powerZScores[power]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedPower, power)
	}
	return z, nil
}

// EstimateSampleSize computes the per-variant sample size needed to detect the
// given relative lift over the baseline, using the normal approximation for two
// proportions. The result is never below MinimumSampleSize.
//
// A non-positive MDE or baseline, a baseline above 100%, or a non-finite input
// returns ErrInvalidInput instead of dividing by a zero effect size.
func EstimateSampleSize(in SampleSizeInput) (int, error) {
	zAlpha, err := ZScoreForConfidence(in.ConfidenceLevel)
	if err != nil {
		return 0, err
	}
	zBeta, err := ZScoreForPower(in.StatisticalPower)
	if err != nil {
		return 0, err
	}

	if !isFinite(in.MinimumDetectableEffect) || in.MinimumDetectableEffect <= 0 {
		return 0, fmt.Errorf("%w: minimum detectable effect must be positive, got %v", ErrInvalidInput, in.MinimumDetectableEffect)
	}
	if !isFinite(in.BaselineConversionRate) || in.BaselineConversionRate <= 0 || in.BaselineConversionRate > 100 {
		return 0, fmt.Errorf("%w: baseline conversion rate must be in (0, 100], got %v", ErrInvalidInput, in.BaselineConversionRate)
	}

	p1 := in.BaselineConversionRate / 100
	p2 := p1 * (1 + in.MinimumDetectableEffect/100)
	pooled := (p1 + p2) / 2
	effect := math.Abs(p2 - p1)

	n := math.Pow(zAlpha+zBeta, 2) * 2 * pooled * (1 - pooled) / (effect * effect)
	if !isFinite(n) {
		return 0, fmt.Errorf("%w: sample size is not finite", ErrInvalidInput)
	}

	size := int(math.Ceil(n))
	if size < MinimumSampleSize {
		size = MinimumSampleSize
	}
	return size, nil
}

// EstimateDuration returns the number of days needed to collect sampleSize
// visitors per variant. Daily traffic below 1 is treated as 1.
func EstimateDuration(sampleSize, dailyTrafficPerVariant int) int {
	daily := max(1, dailyTrafficPerVariant)
	return int(math.Ceil(float64(sampleSize) / float64(daily)))
}

// Recommendation codes.
const (
	RecommendIncreaseSampleSize = "increase_sample_size"
	RecommendLongDuration       = "long_duration"
	RecommendSmallEffect        = "small_effect"
	RecommendStrictParameters   = "strict_parameters"
)

// Recommendation is an advisory hint about an experiment's statistical plan.
type Recommendation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Recommend returns the advisory hints for cfg given the recommended sample size
// and the estimated duration in days. cfg.SampleSize is the current (possibly
// overridden) sample size.
func Recommend(cfg StatisticalConfig, recommended, durationDays int) []Recommendation {
	var recs []Recommendation

	if cfg.SampleSize < recommended {
		recs = append(recs, Recommendation{
			Code:    RecommendIncreaseSampleSize,
			Message: fmt.Sprintf("Increase sample size to at least %d per variant for reliable results", recommended),
		})
	}
	if durationDays > LongDurationDays {
		recs = append(recs, Recommendation{
			Code:    RecommendLongDuration,
			Message: fmt.Sprintf("Test will take %d days; consider increasing traffic or the minimum detectable effect", durationDays),
		})
	}
	if cfg.MinimumDetectableEffect < SmallEffectPercent {
		recs = append(recs, Recommendation{
			Code:    RecommendSmallEffect,
			Message: "Very small effects require large samples; make sure the effect is business-relevant",
		})
	}
	if cfg.ConfidenceLevel > 95 && cfg.StatisticalPower > 90 {
		recs = append(recs, Recommendation{
			Code:    RecommendStrictParameters,
			Message: "High confidence combined with high power needs a very large sample; consider relaxing one of them",
		})
	}

	return recs
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
