package web

import (
	"context"
	"net/http"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

type compositionResponse struct {
	Composition *domain.Composition          `json:"composition"`
	Validation  domain.CompositionValidation `json:"validation"`
}

func (s *Server) handleAPIValidateComposition(w http.ResponseWriter, r *http.Request) {
	var req domain.Composition
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.compositions.Validate(r.Context(), &req))
}

func (s *Server) handleAPIListCompositions(w http.ResponseWriter, r *http.Request) {
	list, err := s.compositions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAPICreateComposition(w http.ResponseWriter, r *http.Request) {
	var req domain.Composition
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.ID = ""
	c, v, err := s.compositions.Save(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, compositionResponse{Composition: c, Validation: v})
}

func (s *Server) handleAPIUpdateComposition(w http.ResponseWriter, r *http.Request) {
	var req domain.Composition
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.ID = r.PathValue("id")
	c, v, err := s.compositions.Save(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compositionResponse{Composition: c, Validation: v})
}

func (s *Server) handleAPIGetComposition(w http.ResponseWriter, r *http.Request) {
	c, err := s.compositions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compositionResponse{Composition: c, Validation: c.Validate()})
}

func (s *Server) handleAPIDeleteComposition(w http.ResponseWriter, r *http.Request) {
	if err := s.compositions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPITestComposition(w http.ResponseWriter, r *http.Request) {
	s.compositionTransition(w, r, s.compositions.Test)
}

func (s *Server) handleAPIDeployComposition(w http.ResponseWriter, r *http.Request) {
	s.compositionTransition(w, r, s.compositions.Deploy)
}

func (s *Server) handleAPIDeactivateComposition(w http.ResponseWriter, r *http.Request) {
	s.compositionTransition(w, r, s.compositions.Deactivate)
}

func (s *Server) compositionTransition(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (*domain.Composition, error)) {
	c, err := action(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
