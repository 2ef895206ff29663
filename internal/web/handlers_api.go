package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/designer"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

type sampleSizeRequest struct {
	ConfidenceLevel         int     `json:"confidence_level" validate:"required"`
	StatisticalPower        int     `json:"statistical_power" validate:"required"`
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect" validate:"gt=0"`
	BaselineConversionRate  float64 `json:"baseline_conversion_rate" validate:"gt=0,lte=100"`
	DailyTrafficPerVariant  int     `json:"daily_traffic_per_variant" validate:"gte=0"`
	CurrentSampleSize       int     `json:"current_sample_size" validate:"gte=0"`
}

func (s *Server) handleAPISampleSize(w http.ResponseWriter, r *http.Request) {
	var req sampleSizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg := domain.DefaultStatisticalConfig()
	cfg.ConfidenceLevel = req.ConfidenceLevel
	cfg.StatisticalPower = req.StatisticalPower
	cfg.MinimumDetectableEffect = req.MinimumDetectableEffect
	cfg.BaselineConversionRate = req.BaselineConversionRate
	cfg.SampleSize = req.CurrentSampleSize

	d := designer.New(cfg, req.DailyTrafficPerVariant)
	if err := d.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	summary := d.Summary()

	if err := s.metrics.RecordSampleSize(r.Context(), ports.SampleSizeMetrics{
		ConfidenceLevel:  cfg.ConfidenceLevel,
		StatisticalPower: cfg.StatisticalPower,
		SampleSize:       summary.Recommended,
		DurationDays:     summary.DurationDays,
	}); err != nil {
		s.log.Warn("failed to record sample size metrics", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAPIEstimateAudience(w http.ResponseWriter, r *http.Request) {
	var req domain.AudienceConfig
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	est, err := domain.EstimateAudience(req, s.directory)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleAPIListSegments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.directory.ListSegments())
}

func (s *Server) handleAPIListAtoms(w http.ResponseWriter, r *http.Request) {
	atoms := s.directory.ListAtoms()
	if t := r.URL.Query().Get("type"); t != "" {
		filtered := make([]domain.AtomDefinition, 0, len(atoms))
		for _, a := range atoms {
			if string(a.Type) == t {
				filtered = append(filtered, a)
			}
		}
		atoms = filtered
	}
	writeJSON(w, http.StatusOK, atoms)
}
