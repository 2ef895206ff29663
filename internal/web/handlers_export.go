package web

import (
	"bytes"
	"net/http"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/export"
)

func (s *Server) handleAPIExportExperiments(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter, err := experimentFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit == 0 {
		filter.Limit = 1000
	}

	list, err := s.experiments.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Render into a buffer so unsupported formats still get a JSON error.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, list); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+format.Filename())
	_, _ = w.Write(buf.Bytes())
}
