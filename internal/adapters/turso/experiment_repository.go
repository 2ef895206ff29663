package turso

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

const experimentColumns = `id, name, hypothesis, description, status, variants, audience, goals, traffic, statistics, started_at, ended_at, created_at, updated_at`

type ExperimentRepository struct {
	db *sql.DB
}

func NewExperimentRepository(db *sql.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// experimentRow holds the encoded columns of an experiment.
type experimentRow struct {
	variants, audience, goals, traffic, statistics string
}

func encodeExperiment(e *domain.ExperimentConfig) (experimentRow, error) {
	var row experimentRow
	fields := []struct {
		dst *string
		src any
	}{
		{&row.variants, nonNilSlice(e.Variants)},
		{&row.audience, e.Audience},
		{&row.goals, nonNilSlice(e.Goals)},
		{&row.traffic, e.Traffic},
		{&row.statistics, e.Statistics},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return row, fmt.Errorf("failed to encode experiment: %w", err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r *ExperimentRepository) Create(ctx context.Context, e *domain.ExperimentConfig) error {
	row, err := encodeExperiment(e)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiments (`+experimentColumns+`, sample_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Name,
		util.NullString(e.Hypothesis),
		util.NullString(e.Description),
		string(e.Status),
		row.variants,
		row.audience,
		row.goals,
		row.traffic,
		row.statistics,
		util.NullTime(e.StartedAt),
		util.NullTime(e.EndedAt),
		e.CreatedAt.Format(time.RFC3339),
		e.UpdatedAt.Format(time.RFC3339),
		e.Statistics.SampleSize,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateExperiment(e, err)
		}
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	e, err := scanExperiment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return e, nil
}

func (r *ExperimentRepository) GetByName(ctx context.Context, name string) (*domain.ExperimentConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE name = ?`, name)
	e, err := scanExperiment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experiment by name: %w", err)
	}
	return e, nil
}

func (r *ExperimentRepository) List(ctx context.Context, filter ports.ExperimentFilter) ([]*domain.ExperimentConfig, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := `SELECT ` + experimentColumns + ` FROM experiments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, name"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	experiments := make([]*domain.ExperimentConfig, 0)
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	return experiments, rows.Err()
}

func (r *ExperimentRepository) Update(ctx context.Context, e *domain.ExperimentConfig) error {
	row, err := encodeExperiment(e)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE experiments SET
			name = ?, hypothesis = ?, description = ?, status = ?,
			variants = ?, audience = ?, goals = ?, traffic = ?, statistics = ?, sample_size = ?,
			started_at = ?, ended_at = ?, updated_at = ?
		WHERE id = ?`,
		e.Name,
		util.NullString(e.Hypothesis),
		util.NullString(e.Description),
		string(e.Status),
		row.variants,
		row.audience,
		row.goals,
		row.traffic,
		row.statistics,
		e.Statistics.SampleSize,
		util.NullTime(e.StartedAt),
		util.NullTime(e.EndedAt),
		e.UpdatedAt.Format(time.RFC3339),
		e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateExperiment(e, err)
		}
		return fmt.Errorf("failed to update experiment: %w", err)
	}
	return requireAffected(res, "experiment", e.ID)
}

func (r *ExperimentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	return requireAffected(res, "experiment", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperiment(s scanner) (*domain.ExperimentConfig, error) {
	var (
		e                                              domain.ExperimentConfig
		status                                         string
		hypothesis, description, startedAt, endedAt    sql.NullString
		variants, audience, goals, traffic, statistics string
		createdAt, updatedAt                           string
	)

	err := s.Scan(
		&e.ID, &e.Name, &hypothesis, &description, &status,
		&variants, &audience, &goals, &traffic, &statistics,
		&startedAt, &endedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = domain.ExperimentStatus(status)
	e.Hypothesis = hypothesis.String
	e.Description = description.String
	e.StartedAt = util.NullStringToTime(startedAt)
	e.EndedAt = util.NullStringToTime(endedAt)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	fields := []struct {
		src string
		dst any
	}{
		{variants, &e.Variants},
		{audience, &e.Audience},
		{goals, &e.Goals},
		{traffic, &e.Traffic},
		{statistics, &e.Statistics},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode experiment %s: %w", e.ID, err)
		}
	}

	return &e, nil
}

// requireAffected maps a zero-row update or delete to domain.ErrNotFound.
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func duplicateExperiment(e *domain.ExperimentConfig, err error) error {
	if strings.Contains(err.Error(), "experiments.name") {
		return fmt.Errorf("%w: experiment name %q already exists", domain.ErrInvalidInput, e.Name)
	}
	return fmt.Errorf("%w: experiment %s already exists", domain.ErrInvalidInput, e.ID)
}
