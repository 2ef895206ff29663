package turso_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/migrate"
)

// testDB opens a fresh file-backed libSQL database with all migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	ctx := context.Background()
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

var testTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func sampleExperiment(id, name string) *domain.ExperimentConfig {
	target := 0.12
	return &domain.ExperimentConfig{
		ID:         id,
		Name:       name,
		Hypothesis: "A green button increases purchases",
		Status:     domain.ExperimentDraft,
		Variants: []domain.Variant{
			{ID: "control", Name: "Control", IsControl: true, TrafficPercent: 50},
			{ID: "green", Name: "Green", TrafficPercent: 50},
		},
		Audience: domain.AudienceConfig{
			EstimatedSize: 12500,
			SegmentIDs:    []string{"seg-new"},
			Filters:       []domain.AtomFilter{{AtomID: "atom-mobile", Operator: "equals", Value: "true"}},
		},
		Goals:      []domain.GoalConfig{{ID: "g1", Name: "Purchase", Type: domain.GoalConversion, IsPrimary: true, TargetValue: &target}},
		Traffic:    domain.TrafficConfig{AllocationPercent: 100, DailyTrafficPerVariant: 1000},
		Statistics: domain.StatisticalConfig{ConfidenceLevel: 95, StatisticalPower: 80, MinimumDetectableEffect: 5, BaselineConversionRate: 5, SignificanceThreshold: 0.05, SampleSize: 122161},
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	}
}
