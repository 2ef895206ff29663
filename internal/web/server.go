package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/compositions"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/experiments"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// Deps are the collaborators the HTTP API serves.
type Deps struct {
	Experiments  *experiments.Service
	Compositions *compositions.Service
	Directory    ports.Directory
	Metrics      ports.MetricsExporter
	Log          *zap.Logger
}

type Server struct {
	router          *http.ServeMux
	port            int
	shutdownTimeout time.Duration
	experiments     *experiments.Service
	compositions    *compositions.Service
	directory       ports.Directory
	metrics         ports.MetricsExporter
	log             *zap.Logger
}

func NewServer(port int, shutdownTimeout time.Duration, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	s := &Server{
		router:          http.NewServeMux(),
		port:            port,
		shutdownTimeout: shutdownTimeout,
		experiments:     deps.Experiments,
		compositions:    deps.Compositions,
		directory:       deps.Directory,
		metrics:         deps.Metrics,
		log:             log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Designer
	s.router.HandleFunc("POST /api/sample-size", s.handleAPISampleSize)
	s.router.HandleFunc("POST /api/audience/estimate", s.handleAPIEstimateAudience)

	// Catalog
	s.router.HandleFunc("GET /api/segments", s.handleAPIListSegments)
	s.router.HandleFunc("GET /api/atoms", s.handleAPIListAtoms)

	// Experiments
	s.router.HandleFunc("GET /api/experiments", s.handleAPIListExperiments)
	s.router.HandleFunc("POST /api/experiments", s.handleAPICreateExperiment)
	s.router.HandleFunc("GET /api/experiments/export", s.handleAPIExportExperiments)
	s.router.HandleFunc("GET /api/experiments/{id}", s.handleAPIGetExperiment)
	s.router.HandleFunc("PUT /api/experiments/{id}", s.handleAPIUpdateExperiment)
	s.router.HandleFunc("DELETE /api/experiments/{id}", s.handleAPIDeleteExperiment)
	s.router.HandleFunc("POST /api/experiments/{id}/test", s.handleAPITestExperiment)
	s.router.HandleFunc("POST /api/experiments/{id}/start", s.handleAPIStartExperiment)
	s.router.HandleFunc("POST /api/experiments/{id}/pause", s.handleAPIPauseExperiment)
	s.router.HandleFunc("POST /api/experiments/{id}/stop", s.handleAPIStopExperiment)

	// Compositions
	s.router.HandleFunc("POST /api/compositions/validate", s.handleAPIValidateComposition)
	s.router.HandleFunc("GET /api/compositions", s.handleAPIListCompositions)
	s.router.HandleFunc("POST /api/compositions", s.handleAPICreateComposition)
	s.router.HandleFunc("GET /api/compositions/{id}", s.handleAPIGetComposition)
	s.router.HandleFunc("PUT /api/compositions/{id}", s.handleAPIUpdateComposition)
	s.router.HandleFunc("DELETE /api/compositions/{id}", s.handleAPIDeleteComposition)
	s.router.HandleFunc("POST /api/compositions/{id}/test", s.handleAPITestComposition)
	s.router.HandleFunc("POST /api/compositions/{id}/deploy", s.handleAPIDeployComposition)
	s.router.HandleFunc("POST /api/compositions/{id}/deactivate", s.handleAPIDeactivateComposition)
}

// Handler returns the routed API wrapped in request instrumentation.
func (s *Server) Handler() http.Handler {
	return instrument(s.router)
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("starting server", zap.String("addr", fmt.Sprintf("http://localhost:%d", s.port)))

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil // Graceful shutdown
	}
	return err
}
