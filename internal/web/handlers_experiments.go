package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/experiments"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

type experimentRequest struct {
	domain.ExperimentConfig
	ManualSampleSize bool `json:"manual_sample_size"`
}

func (s *Server) handleAPIListExperiments(w http.ResponseWriter, r *http.Request) {
	filter, err := experimentFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.experiments.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func experimentFilter(r *http.Request) (ports.ExperimentFilter, error) {
	var filter ports.ExperimentFilter
	if st := r.URL.Query().Get("status"); st != "" {
		status, err := domain.ParseExperimentStatus(st)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}
	return filter, nil
}

func (s *Server) handleAPICreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req experimentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.ID = ""
	e, err := s.experiments.Save(r.Context(), &req.ExperimentConfig, experiments.SaveOptions{ManualSampleSize: req.ManualSampleSize})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleAPIUpdateExperiment(w http.ResponseWriter, r *http.Request) {
	var req experimentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.ID = r.PathValue("id")
	e, err := s.experiments.Save(r.Context(), &req.ExperimentConfig, experiments.SaveOptions{ManualSampleSize: req.ManualSampleSize})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAPIGetExperiment(w http.ResponseWriter, r *http.Request) {
	e, err := s.experiments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*domain.ExperimentConfig
		Issues []domain.ValidationIssue `json:"issues"`
	}{e, e.Validate()})
}

func (s *Server) handleAPIDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if err := s.experiments.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPITestExperiment(w http.ResponseWriter, r *http.Request) {
	s.experimentTransition(w, r, s.experiments.Test)
}

func (s *Server) handleAPIStartExperiment(w http.ResponseWriter, r *http.Request) {
	s.experimentTransition(w, r, s.experiments.Start)
}

func (s *Server) handleAPIPauseExperiment(w http.ResponseWriter, r *http.Request) {
	s.experimentTransition(w, r, s.experiments.Pause)
}

func (s *Server) handleAPIStopExperiment(w http.ResponseWriter, r *http.Request) {
	s.experimentTransition(w, r, s.experiments.Stop)
}

func (s *Server) experimentTransition(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (*domain.ExperimentConfig, error)) {
	e, err := action(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
