package domain

import (
	"fmt"
	"strings"
	"time"
)

type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentTesting   ExperimentStatus = "testing"
	ExperimentActive    ExperimentStatus = "active"
	ExperimentPaused    ExperimentStatus = "paused"
	ExperimentCompleted ExperimentStatus = "completed"
)

// ParseExperimentStatus converts a string to an ExperimentStatus.
func ParseExperimentStatus(s string) (ExperimentStatus, error) {
	switch st := ExperimentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ExperimentDraft, ExperimentTesting, ExperimentActive, ExperimentPaused, ExperimentCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown experiment status %q", ErrInvalidInput, s)
	}
}

type Variant struct {
	ID             string `json:"id"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description,omitempty"`
	IsControl      bool   `json:"is_control"`
	TrafficPercent int    `json:"traffic_percent" validate:"gte=0,lte=100"`
}

type GoalType string

const (
	GoalConversion GoalType = "conversion"
	GoalRevenue    GoalType = "revenue"
	GoalEngagement GoalType = "engagement"
	GoalRetention  GoalType = "retention"
	GoalCustom     GoalType = "custom"
)

type GoalConfig struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Type        GoalType `json:"type" validate:"omitempty,oneof=conversion revenue engagement retention custom"`
	IsPrimary   bool     `json:"is_primary"`
	TargetValue *float64 `json:"target_value,omitempty"`
}

type TrafficConfig struct {
	AllocationPercent      int  `json:"allocation_percent" validate:"gte=0,lte=100"`
	DailyTrafficPerVariant int  `json:"daily_traffic_per_variant" validate:"gte=0"`
	RampUp                 bool `json:"ramp_up"`
}

// ExperimentConfig is an A/B test definition together with its lifecycle state.
type ExperimentConfig struct {
	ID          string            `json:"id"`
	Name        string            `json:"name" validate:"required,max=200"`
	Hypothesis  string            `json:"hypothesis,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      ExperimentStatus  `json:"status"`
	Variants    []Variant         `json:"variants" validate:"dive"`
	Audience    AudienceConfig    `json:"audience"`
	Goals       []GoalConfig      `json:"goals" validate:"dive"`
	Traffic     TrafficConfig     `json:"traffic"`
	Statistics  StatisticalConfig `json:"statistics"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	EndedAt     *time.Time        `json:"ended_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TotalTraffic returns the sum of variant traffic percentages.
func (e *ExperimentConfig) TotalTraffic() int {
	total := 0
	for _, v := range e.Variants {
		total += v.TrafficPercent
	}
	return total
}

// Validate reports the problems that prevent the experiment from starting.
func (e *ExperimentConfig) Validate() []ValidationIssue {
	issues := make([]ValidationIssue, 0)

	if strings.TrimSpace(e.Name) == "" {
		issues = append(issues, ValidationIssue{Code: CodeNameRequired, Message: "experiment name is required", Subject: "name"})
	}

	if len(e.Variants) < 2 {
		issues = append(issues, ValidationIssue{
			Code:    CodeTooFewVariants,
			Message: fmt.Sprintf("at least two variants required, got %d", len(e.Variants)),
			Subject: "variants",
		})
	}

	controls := 0
	for _, v := range e.Variants {
		if v.IsControl {
			controls++
		}
	}
	if len(e.Variants) > 0 && controls != 1 {
		issues = append(issues, ValidationIssue{
			Code:    CodeControlVariant,
			Message: fmt.Sprintf("exactly one control variant required, got %d", controls),
			Subject: "variants",
		})
	}

	if total := e.TotalTraffic(); len(e.Variants) > 0 && total != 100 {
		issues = append(issues, ValidationIssue{
			Code:    CodeTrafficSum,
			Message: fmt.Sprintf("variant traffic must sum to 100%%, got %d%%", total),
			Subject: "variants",
		})
	}

	primaries := 0
	for _, g := range e.Goals {
		if g.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		issues = append(issues, ValidationIssue{
			Code:    CodePrimaryGoal,
			Message: fmt.Sprintf("exactly one primary goal required, got %d", primaries),
			Subject: "goals",
		})
	}

	if _, err := EstimateSampleSize(e.Statistics.SampleSizeInput()); err != nil {
		issues = append(issues, ValidationIssue{Code: CodeStatisticalSettings, Message: err.Error(), Subject: "statistics"})
	}

	return issues
}

var experimentTransitions = map[ExperimentStatus][]ExperimentStatus{
	ExperimentDraft:   {ExperimentTesting, ExperimentActive},
	ExperimentTesting: {ExperimentDraft, ExperimentActive},
	ExperimentActive:  {ExperimentPaused, ExperimentCompleted},
	ExperimentPaused:  {ExperimentActive, ExperimentCompleted},
}

// CanTransition reports whether the lifecycle allows from -> to.
func (s ExperimentStatus) CanTransition(to ExperimentStatus) bool {
	for _, allowed := range experimentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Start activates the experiment. StartedAt is set on the first start only.
func (e *ExperimentConfig) Start(now time.Time) error {
	if err := e.validFor(ExperimentActive); err != nil {
		return err
	}
	if err := e.transition(ExperimentActive, now); err != nil {
		return err
	}
	if e.StartedAt == nil {
		e.StartedAt = &now
	}
	return nil
}

// Test moves a draft into QA. The definition stays editable while testing.
func (e *ExperimentConfig) Test(now time.Time) error {
	if err := e.validFor(ExperimentTesting); err != nil {
		return err
	}
	return e.transition(ExperimentTesting, now)
}

func (e *ExperimentConfig) Pause(now time.Time) error {
	return e.transition(ExperimentPaused, now)
}

// Stop completes the experiment and records its end time.
func (e *ExperimentConfig) Stop(now time.Time) error {
	if err := e.transition(ExperimentCompleted, now); err != nil {
		return err
	}
	e.EndedAt = &now
	return nil
}

// Editable reports whether the definition may still be changed.
func (e *ExperimentConfig) Editable() bool {
	return e.Status == ExperimentDraft || e.Status == ExperimentTesting || e.Status == ""
}

// validFor checks the lifecycle before the definition so that a refused
// transition is reported as such even when the definition is also invalid.
func (e *ExperimentConfig) validFor(to ExperimentStatus) error {
	if !e.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, to)
	}
	if issues := e.Validate(); len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, issues[0].Message)
	}
	return nil
}

func (e *ExperimentConfig) transition(to ExperimentStatus, now time.Time) error {
	if !e.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, to)
	}
	e.Status = to
	e.UpdatedAt = now
	return nil
}
