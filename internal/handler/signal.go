package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// defaultSignalWindow is how far back ListNoCoverage looks without ?since=.
const defaultSignalWindow = 24 * time.Hour

// NoCoverageList is the GET /signals/no-coverage body.
type NoCoverageList struct {
	Since      time.Time   `json:"since"`
	RequestIDs []uuid.UUID `json:"request_ids"`
}

// ListNoCoverage handles GET /signals/no-coverage: requests published since
// ?since= (default: the last 24 hours) that matched no operator.
func (s *Server) ListNoCoverage(w http.ResponseWriter, r *http.Request) {
	if s.signals == nil {
		writeError(w, http.StatusServiceUnavailable, "signals_unavailable", "no-coverage signals are not enabled")
		return
	}
	var since *time.Time
	if err := runtime.BindQueryParameter("form", true, false, "since", r.URL.Query(), &since); err != nil {
		badParam(w, err)
		return
	}
	from := s.now().Add(-defaultSignalWindow)
	if since != nil {
		from = since.UTC()
	}

	ids, err := s.signals.NoCoverageSince(r.Context(), from)
	if err != nil {
		s.log.ErrorContext(r.Context(), "read no-coverage signals", "error", err)
		writeError(w, http.StatusServiceUnavailable, "signals_unavailable", "no-coverage signals temporarily unavailable")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, NoCoverageList{Since: from, RequestIDs: ids})
}
