package domain

import (
	"errors"
	"testing"
	"time"
)

func validExperiment() *ExperimentConfig {
	return &ExperimentConfig{
		ID:     "exp-1",
		Name:   "checkout-button",
		Status: ExperimentDraft,
		Variants: []Variant{
			{ID: "control", Name: "Control", IsControl: true, TrafficPercent: 50},
			{ID: "green", Name: "Green button", TrafficPercent: 50},
		},
		Goals:      []GoalConfig{{ID: "g1", Name: "Purchase", Type: GoalConversion, IsPrimary: true}},
		Traffic:    TrafficConfig{AllocationPercent: 100, DailyTrafficPerVariant: 1000},
		Statistics: DefaultStatisticalConfig(),
	}
}

func TestExperimentConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ExperimentConfig)
		wantCode string
	}{
		{"valid", func(*ExperimentConfig) {}, ""},
		{"blank name", func(e *ExperimentConfig) { e.Name = " " }, CodeNameRequired},
		{"single variant", func(e *ExperimentConfig) {
			e.Variants = e.Variants[:1]
			e.Variants[0].TrafficPercent = 100
		}, CodeTooFewVariants},
		{"no control", func(e *ExperimentConfig) { e.Variants[0].IsControl = false }, CodeControlVariant},
		{"traffic does not sum to 100", func(e *ExperimentConfig) { e.Variants[1].TrafficPercent = 40 }, CodeTrafficSum},
		{"no primary goal", func(e *ExperimentConfig) { e.Goals[0].IsPrimary = false }, CodePrimaryGoal},
		{"zero MDE", func(e *ExperimentConfig) { e.Statistics.MinimumDetectableEffect = 0 }, CodeStatisticalSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExperiment()
			tt.mutate(e)
			issues := e.Validate()

			if tt.wantCode == "" {
				if len(issues) != 0 {
					t.Fatalf("expected no issues, got %+v", issues)
				}
				return
			}
			if countCode(issues, tt.wantCode) != 1 {
				t.Fatalf("expected one %s issue, got %+v", tt.wantCode, issues)
			}
		})
	}
}

func TestExperimentConfig_Lifecycle(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)
	t2 := t1.Add(24 * time.Hour)
	e := validExperiment()

	if err := e.Pause(t0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition pausing a draft, got %v", err)
	}

	if err := e.Start(t0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if e.Status != ExperimentActive || e.StartedAt == nil || !e.StartedAt.Equal(t0) {
		t.Fatalf("expected active with StartedAt %v, got %s %v", t0, e.Status, e.StartedAt)
	}

	if err := e.Pause(t1); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if err := e.Start(t1); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !e.StartedAt.Equal(t0) {
		t.Errorf("resume must keep original StartedAt, got %v", e.StartedAt)
	}

	if err := e.Stop(t2); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if e.Status != ExperimentCompleted || e.EndedAt == nil || !e.EndedAt.Equal(t2) {
		t.Fatalf("expected completed with EndedAt %v, got %s %v", t2, e.Status, e.EndedAt)
	}

	if err := e.Start(t2); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected completed experiment to stay completed, got %v", err)
	}
}

func TestExperimentConfig_StartRejectsInvalid(t *testing.T) {
	e := validExperiment()
	e.Variants[1].TrafficPercent = 10

	err := e.Start(time.Now())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if e.Status != ExperimentDraft {
		t.Errorf("status must not change on failed start, got %s", e.Status)
	}
}

func TestExperimentConfig_StartCompletedInvalid(t *testing.T) {
	e := validExperiment()
	e.Status = ExperimentCompleted
	e.Variants[1].TrafficPercent = 10

	if err := e.Start(time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before validation, got %v", err)
	}
}

func TestExperimentConfig_Test(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	e := validExperiment()

	if err := e.Test(t0); err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if e.Status != ExperimentTesting || !e.UpdatedAt.Equal(t0) {
		t.Fatalf("expected testing at %v, got %s %v", t0, e.Status, e.UpdatedAt)
	}
	if !e.Editable() {
		t.Error("expected testing experiment to stay editable")
	}
	if e.StartedAt != nil {
		t.Errorf("testing must not set StartedAt, got %v", e.StartedAt)
	}

	if err := e.Test(t0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition testing twice, got %v", err)
	}

	if err := e.Start(t0); err != nil {
		t.Fatalf("Start from testing failed: %v", err)
	}
	if err := e.Test(t0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition testing an active experiment, got %v", err)
	}
}

func TestExperimentConfig_TestRejectsInvalid(t *testing.T) {
	e := validExperiment()
	e.Variants[1].TrafficPercent = 10

	if err := e.Test(time.Now()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if e.Status != ExperimentDraft {
		t.Errorf("status must not change on failed test, got %s", e.Status)
	}
}

func TestParseExperimentStatus(t *testing.T) {
	if st, err := ParseExperimentStatus(" Active "); err != nil || st != ExperimentActive {
		t.Errorf("expected active, got %q %v", st, err)
	}
	if _, err := ParseExperimentStatus("archived"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
