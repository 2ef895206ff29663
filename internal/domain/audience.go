package domain

import (
	"fmt"
	"math"
)

var (
	ErrUnknownSegment = fmt.Errorf("%w: unknown segment", ErrInvalidInput)
	ErrUnknownAtom    = fmt.Errorf("%w: unknown atom", ErrInvalidInput)
)

// Segment is a named, pre-computed audience.
type Segment struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Size        int64  `json:"size" yaml:"size"`
}

// AtomDefinition describes a filterable targeting predicate. Selectivity is the
// fraction of an audience expected to match the predicate.
type AtomDefinition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        AtomType `json:"type" yaml:"type"`
	Selectivity float64  `json:"selectivity" yaml:"selectivity"`
	Operators   []string `json:"operators,omitempty" yaml:"operators,omitempty"`
}

type AtomFilter struct {
	AtomID   string `json:"atom_id" validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    string `json:"value"`
}

type AudienceConfig struct {
	EstimatedSize       int64        `json:"estimated_size"`
	SegmentIDs          []string     `json:"segment_ids"`
	Filters             []AtomFilter `json:"filters" validate:"dive"`
	ExclusionSegmentIDs []string     `json:"exclusion_segment_ids"`
}

// AudienceDirectory resolves segment and atom IDs for audience estimation.
type AudienceDirectory interface {
	Segment(id string) (Segment, bool)
	Atom(id string) (AtomDefinition, bool)
	Population() int64
}

type AudienceEstimate struct {
	Size       int64   `json:"size"`
	Population int64   `json:"population"`
	Reach      float64 `json:"reach"`
}

// EstimateAudience approximates the number of users matched by cfg.
//
// Selected segments are summed (each ID counted once); with no segment the whole
// population is the base. Every atom filter scales the audience by its
// selectivity, and exclusion segments are removed after the same scaling.
func EstimateAudience(cfg AudienceConfig, dir AudienceDirectory) (AudienceEstimate, error) {
	population := dir.Population()

	base, err := sumSegments(cfg.SegmentIDs, dir)
	if err != nil {
		return AudienceEstimate{}, err
	}
	if len(cfg.SegmentIDs) == 0 {
		base = population
	}

	fraction := 1.0
	for _, f := range cfg.Filters {
		atom, ok := dir.Atom(f.AtomID)
		if !ok {
			return AudienceEstimate{}, fmt.Errorf("%w: %s", ErrUnknownAtom, f.AtomID)
		}
		fraction *= clamp01(atom.Selectivity)
	}

	excluded, err := sumSegments(cfg.ExclusionSegmentIDs, dir)
	if err != nil {
		return AudienceEstimate{}, err
	}

	size := int64(math.Round(float64(base)*fraction - float64(excluded)*fraction))
	size = max(0, size)

	var reach float64
	if population > 0 {
		reach = float64(size) / float64(population)
	}

	return AudienceEstimate{Size: size, Population: population, Reach: reach}, nil
}

func sumSegments(ids []string, dir AudienceDirectory) (int64, error) {
	seen := make(map[string]bool, len(ids))
	var total int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		seg, ok := dir.Segment(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSegment, id)
		}
		total += seg.Size
	}
	return total, nil
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
