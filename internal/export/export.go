// Package export renders experiments for external analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ErrUnsupportedFormat is returned for formats that are recognised but not rendered.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported export format", domain.ErrInvalidInput)

// ParseFormat converts a user-supplied name to a Format. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatCSV, FormatJSON, FormatExcel, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidInput, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Filename returns the attachment name for an export in format f.
func (f Format) Filename() string {
	return "experiments." + string(f)
}

// Row is the flattened form of an experiment.
type Row struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Status                  string  `json:"status"`
	Hypothesis              string  `json:"hypothesis,omitempty"`
	Variants                int     `json:"variants"`
	ControlVariant          string  `json:"control_variant,omitempty"`
	PrimaryGoal             string  `json:"primary_goal,omitempty"`
	AudienceSize            int64   `json:"audience_size"`
	ConfidenceLevel         int     `json:"confidence_level"`
	StatisticalPower        int     `json:"statistical_power"`
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect"`
	BaselineConversionRate  float64 `json:"baseline_conversion_rate"`
	SampleSize              int     `json:"sample_size"`
	DailyTrafficPerVariant  int     `json:"daily_traffic_per_variant"`
	EstimatedDurationDays   int     `json:"estimated_duration_days"`
	StartedAt               string  `json:"started_at,omitempty"`
	EndedAt                 string  `json:"ended_at,omitempty"`
	CreatedAt               string  `json:"created_at"`
}

// NewRow flattens e.
func NewRow(e *domain.ExperimentConfig) Row {
	r := Row{
		ID:                      e.ID,
		Name:                    e.Name,
		Status:                  string(e.Status),
		Hypothesis:              e.Hypothesis,
		Variants:                len(e.Variants),
		AudienceSize:            e.Audience.EstimatedSize,
		ConfidenceLevel:         e.Statistics.ConfidenceLevel,
		StatisticalPower:        e.Statistics.StatisticalPower,
		MinimumDetectableEffect: e.Statistics.MinimumDetectableEffect,
		BaselineConversionRate:  e.Statistics.BaselineConversionRate,
		SampleSize:              e.Statistics.SampleSize,
		DailyTrafficPerVariant:  e.Traffic.DailyTrafficPerVariant,
		EstimatedDurationDays:   domain.EstimateDuration(e.Statistics.SampleSize, e.Traffic.DailyTrafficPerVariant),
		CreatedAt:               e.CreatedAt.Format(time.RFC3339),
	}
	for _, v := range e.Variants {
		if v.IsControl {
			r.ControlVariant = v.Name
			break
		}
	}
	for _, g := range e.Goals {
		if g.IsPrimary {
			r.PrimaryGoal = g.Name
			break
		}
	}
	if e.StartedAt != nil {
		r.StartedAt = e.StartedAt.Format(time.RFC3339)
	}
	if e.EndedAt != nil {
		r.EndedAt = e.EndedAt.Format(time.RFC3339)
	}
	return r
}

var csvHeader = []string{
	"id", "name", "status", "hypothesis", "variants", "control_variant", "primary_goal",
	"audience_size", "confidence_level", "statistical_power", "minimum_detectable_effect",
	"baseline_conversion_rate", "sample_size", "daily_traffic_per_variant",
	"estimated_duration_days", "started_at", "ended_at", "created_at",
}

func (r Row) record() []string {
	return []string{
		r.ID,
		r.Name,
		r.Status,
		r.Hypothesis,
		strconv.Itoa(r.Variants),
		r.ControlVariant,
		r.PrimaryGoal,
		strconv.FormatInt(r.AudienceSize, 10),
		strconv.Itoa(r.ConfidenceLevel),
		strconv.Itoa(r.StatisticalPower),
		strconv.FormatFloat(r.MinimumDetectableEffect, 'f', -1, 64),
		strconv.FormatFloat(r.BaselineConversionRate, 'f', -1, 64),
		strconv.Itoa(r.SampleSize),
		strconv.Itoa(r.DailyTrafficPerVariant),
		strconv.Itoa(r.EstimatedDurationDays),
		r.StartedAt,
		r.EndedAt,
		r.CreatedAt,
	}
}

// Write renders experiments to w in format f.
func Write(w io.Writer, f Format, experiments []*domain.ExperimentConfig) error {
	rows := make([]Row, 0, len(experiments))
	for _, e := range experiments {
		rows = append(rows, NewRow(e))
	}

	switch f {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatExcel, FormatPDF:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(r.record()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// IsUnsupported reports whether err was caused by an unrendered format.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}
