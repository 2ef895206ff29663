package domain

import (
	"fmt"
	"strings"
	"time"
)

type CompositionStatus string

const (
	CompositionDraft    CompositionStatus = "draft"
	CompositionTesting  CompositionStatus = "testing"
	CompositionActive   CompositionStatus = "active"
	CompositionInactive CompositionStatus = "inactive"
)

// AtomType classifies the predicate an atom evaluates.
type AtomType string

const (
	AtomDemographic   AtomType = "demographic"
	AtomBehavioral    AtomType = "behavioral"
	AtomTransactional AtomType = "transactional"
	AtomContextual    AtomType = "contextual"
)

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// AtomNode is an atom placed on a composition canvas.
type AtomNode struct {
	ID       string   `json:"id" yaml:"id"`
	AtomID   string   `json:"atom_id,omitempty" yaml:"atom_id,omitempty"`
	Name     string   `json:"name" yaml:"name"`
	Type     AtomType `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
}

// Connection is a directed edge between two atom nodes.
type Connection struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	SourceID string `json:"source_id" yaml:"source_id"`
	TargetID string `json:"target_id" yaml:"target_id"`
}

type Composition struct {
	ID          string            `json:"id" yaml:"id,omitempty"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Status      CompositionStatus `json:"status" yaml:"status,omitempty"`
	Atoms       []AtomNode        `json:"atoms" yaml:"atoms"`
	Connections []Connection      `json:"connections" yaml:"connections"`
	CreatedAt   time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"-"`
}

// CompositionValidation is the result of validating a composition graph.
type CompositionValidation struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Score    int               `json:"score"`
}

// Score penalties.
const (
	errorPenalty   = 25
	warningPenalty = 10
)

// ValidateComposition checks a composition graph for structural problems.
//
// Orphans (atoms in no connection) are warnings and are only reported when the
// composition has more than one atom. Cycles are found by a depth-first search
// started from every atom, so each atom from which a cycle is reachable gets its
// own CIRCULAR_DEPENDENCY error.
func ValidateComposition(name string, atoms []AtomNode, connections []Connection) CompositionValidation {
	errs := make([]ValidationIssue, 0)
	warnings := make([]ValidationIssue, 0)

	if strings.TrimSpace(name) == "" {
		errs = append(errs, ValidationIssue{
			Code:    CodeNameRequired,
			Message: "composition name is required",
		})
	}

	if len(atoms) == 0 {
		errs = append(errs, ValidationIssue{
			Code:    CodeNoAtoms,
			Message: "at least one atom required",
		})
	}

	known := make(map[string]bool, len(atoms))
	for _, a := range atoms {
		if known[a.ID] {
			errs = append(errs, ValidationIssue{
				Code:    CodeDuplicateAtom,
				Message: fmt.Sprintf("atom id %q is used more than once", a.ID),
				Subject: a.ID,
			})
		}
		known[a.ID] = true
	}

	connectionIDs := make(map[string]bool, len(connections))
	connected := make(map[string]bool)
	graph := make(map[string][]string)
	for _, c := range connections {
		connected[c.SourceID] = true
		connected[c.TargetID] = true
		graph[c.SourceID] = append(graph[c.SourceID], c.TargetID)

		if c.ID != "" {
			if connectionIDs[c.ID] {
				errs = append(errs, ValidationIssue{
					Code:    CodeDuplicateConnection,
					Message: fmt.Sprintf("connection id %q is used more than once", c.ID),
					Subject: c.ID,
				})
			}
			connectionIDs[c.ID] = true
		}

		if !known[c.SourceID] || !known[c.TargetID] {
			errs = append(errs, ValidationIssue{
				Code:    CodeDanglingConnection,
				Message: fmt.Sprintf("connection %s -> %s references an unknown atom", c.SourceID, c.TargetID),
				Subject: c.ID,
			})
		}
	}

	if len(atoms) > 1 {
		for _, a := range atoms {
			if !connected[a.ID] {
				warnings = append(warnings, ValidationIssue{
					Code:    CodeOrphanAtom,
					Message: fmt.Sprintf("atom %q is not connected to any other atom", a.label()),
					Subject: a.ID,
				})
			}
		}
	}

	cycles := newCycleFinder(graph)
	for _, a := range atoms {
		if cycles.reaches(a.ID) {
			errs = append(errs, ValidationIssue{
				Code:    CodeCircularDependency,
				Message: fmt.Sprintf("circular dependency detected for atom %q", a.label()),
				Subject: a.ID,
			})
		}
	}

	return CompositionValidation{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Score:    ValidationScore(len(errs), len(warnings)),
	}
}

// ValidationScore returns max(0, 100 - 25*errors - 10*warnings).
func ValidationScore(errorCount, warningCount int) int {
	return max(0, 100-errorPenalty*errorCount-warningPenalty*warningCount)
}

type visitState uint8

const (
	unvisited visitState = iota
	onPath
	explored
)

// cycleFinder answers "is a cycle reachable from this node" for every node of
// a graph. Results of fully explored nodes are cached, so each node and edge is
// walked once no matter how many start nodes are queried.
type cycleFinder struct {
	graph  map[string][]string
	state  map[string]visitState
	cyclic map[string]bool
}

func newCycleFinder(graph map[string][]string) *cycleFinder {
	return &cycleFinder{
		graph:  graph,
		state:  make(map[string]visitState),
		cyclic: make(map[string]bool),
	}
}

// reaches reports whether a path starting at node revisits a node already on
// that path.
func (f *cycleFinder) reaches(node string) bool {
	switch f.state[node] {
	case onPath:
		return true
	case explored:
		return f.cyclic[node]
	}

	f.state[node] = onPath
	found := false
	for _, target := range f.graph[node] {
		if f.reaches(target) {
			found = true
			break
		}
	}
	f.state[node] = explored
	f.cyclic[node] = found
	return found
}

func (a AtomNode) label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Validate runs ValidateComposition over the composition's own graph.
func (c *Composition) Validate() CompositionValidation {
	return ValidateComposition(c.Name, c.Atoms, c.Connections)
}

var compositionTransitions = map[CompositionStatus][]CompositionStatus{
	CompositionDraft:    {CompositionTesting, CompositionInactive},
	CompositionTesting:  {CompositionActive, CompositionDraft, CompositionInactive},
	CompositionActive:   {CompositionInactive},
	CompositionInactive: {CompositionDraft},
}

// CanTransition reports whether the status machine allows from -> to.
func (s CompositionStatus) CanTransition(to CompositionStatus) bool {
	for _, allowed := range compositionTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanSave reports whether the composition may be persisted.
func (c *Composition) CanSave(v CompositionValidation) bool {
	return v.IsValid
}

// CanDeploy reports whether the composition may go live: it must be valid and
// currently in testing.
func (c *Composition) CanDeploy(v CompositionValidation) bool {
	return v.IsValid && c.Status == CompositionTesting
}

// StartTesting moves a valid draft composition into testing.
func (c *Composition) StartTesting(v CompositionValidation, now time.Time) error {
	if !v.IsValid {
		return ErrInvalidComposition
	}
	return c.transition(CompositionTesting, now)
}

// Deploy moves a valid composition from testing to active.
func (c *Composition) Deploy(v CompositionValidation, now time.Time) error {
	if !v.IsValid {
		return ErrInvalidComposition
	}
	if c.Status != CompositionTesting {
		return fmt.Errorf("%w: deploy requires status %s, got %s", ErrInvalidTransition, CompositionTesting, c.Status)
	}
	return c.transition(CompositionActive, now)
}

// Deactivate takes the composition out of service.
func (c *Composition) Deactivate(now time.Time) error {
	return c.transition(CompositionInactive, now)
}

// Reopen returns an inactive composition to draft.
func (c *Composition) Reopen(now time.Time) error {
	return c.transition(CompositionDraft, now)
}

func (c *Composition) transition(to CompositionStatus, now time.Time) error {
	if !c.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}
