package web

import (
	"context"
	"net/http"
	"testing"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/compositions"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

const compositionBody = `{
	"name": "Mobile buyers",
	"atoms": [
		{"id": "n1", "name": "Mobile", "type": "contextual", "position": {"x": 0, "y": 0}},
		{"id": "n2", "name": "Buyer", "type": "transactional", "position": {"x": 100, "y": 0}}
	],
	"connections": [{"id": "c1", "source_id": "n1", "target_id": "n2"}]
}`

const cyclicBody = `{
	"name": "Loop",
	"atoms": [{"id": "a", "name": "A"}, {"id": "b", "name": "B"}],
	"connections": [{"source_id": "a", "target_id": "b"}, {"source_id": "b", "target_id": "a"}]
}`

func TestHandleAPIValidateComposition(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedValid bool
		expectedScore int
	}{
		{"valid graph", compositionBody, true, 100},
		{"cycle", cyclicBody, false, 50},
		{"no atoms", `{"name":"Empty","atoms":[],"connections":[]}`, false, 75},
		{"single atom", `{"name":"One","atoms":[{"id":"a","name":"A"}],"connections":[]}`, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, nil, nil), http.MethodPost, "/api/compositions/validate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			got := decode[domain.CompositionValidation](t, rec)
			if got.IsValid != tt.expectedValid || got.Score != tt.expectedScore {
				t.Errorf("expected valid=%v score=%d, got %+v", tt.expectedValid, tt.expectedScore, got)
			}
		})
	}
}

func TestHandleAPICreateComposition(t *testing.T) {
	stored := 0
	repo := &compositions.MockRepository{
		CreateFunc: func(ctx context.Context, c *domain.Composition) error {
			stored++
			return nil
		},
	}
	s := newTestServer(t, nil, repo)

	rec := do(t, s, http.MethodPost, "/api/compositions", compositionBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[compositionResponse](t, rec)
	if got.Composition.ID == "" || got.Composition.Status != domain.CompositionDraft || !got.Validation.IsValid {
		t.Errorf("unexpected response %+v", got)
	}

	rec = do(t, s, http.MethodPost, "/api/compositions", cyclicBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for invalid graph, got %d", rec.Code)
	}
	resp := decode[errorResponse](t, rec)
	if resp.Validation == nil || len(resp.Validation.Errors) != 2 {
		t.Errorf("expected validation details in error, got %+v", resp)
	}
	if stored != 1 {
		t.Errorf("expected only the valid composition to be stored, got %d", stored)
	}
}

func TestHandleAPICompositionLifecycle(t *testing.T) {
	c := &domain.Composition{
		ID:     "comp-1",
		Name:   "Mobile buyers",
		Status: domain.CompositionDraft,
		Atoms: []domain.AtomNode{
			{ID: "n1", Name: "Mobile"},
			{ID: "n2", Name: "Buyer"},
		},
		Connections: []domain.Connection{{ID: "c1", SourceID: "n1", TargetID: "n2"}},
	}
	repo := &compositions.MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Composition, error) {
			if id != c.ID {
				return nil, nil
			}
			return c, nil
		},
	}
	s := newTestServer(t, nil, repo)

	steps := []struct {
		action         string
		expectedStatus int
		expectedState  domain.CompositionStatus
	}{
		{"deploy", http.StatusConflict, domain.CompositionDraft},
		{"test", http.StatusOK, domain.CompositionTesting},
		{"deploy", http.StatusOK, domain.CompositionActive},
		{"deactivate", http.StatusOK, domain.CompositionInactive},
	}
	for _, step := range steps {
		rec := do(t, s, http.MethodPost, "/api/compositions/comp-1/"+step.action, "")
		if rec.Code != step.expectedStatus {
			t.Fatalf("%s: expected %d, got %d: %s", step.action, step.expectedStatus, rec.Code, rec.Body.String())
		}
		if c.Status != step.expectedState {
			t.Errorf("%s: expected %s, got %s", step.action, step.expectedState, c.Status)
		}
	}

	if rec := do(t, s, http.MethodPost, "/api/compositions/missing/test", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleAPIGetAndDeleteComposition(t *testing.T) {
	c := &domain.Composition{ID: "comp-1", Name: "One", Status: domain.CompositionActive, Atoms: []domain.AtomNode{{ID: "a", Name: "A"}}}
	repo := &compositions.MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Composition, error) {
			if id != c.ID {
				return nil, nil
			}
			return c, nil
		},
	}
	s := newTestServer(t, nil, repo)

	rec := do(t, s, http.MethodGet, "/api/compositions/comp-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[compositionResponse](t, rec); got.Validation.Score != 100 {
		t.Errorf("expected score 100, got %d", got.Validation.Score)
	}

	if rec := do(t, s, http.MethodDelete, "/api/compositions/comp-1", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 deleting an active composition, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/compositions/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
