package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/skusync/skusync/internal/reconcile"
	"github.com/skusync/skusync/internal/service"
	"github.com/skusync/skusync/internal/store"
)

// runResponse is the JSON shape returned by the trigger endpoints.
type runResponse struct {
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Restored       int      `json:"restored"`
	SoftDeleted    int      `json:"soft_deleted"`
	MissingDeleted int      `json:"missing_deleted"`
	Skipped        int      `json:"skipped"`
	Processed      int      `json:"processed"`
	Warnings       []string `json:"warnings,omitempty"`
}

func newRunResponse(r *reconcile.Report) runResponse {
	return runResponse{
		Created:        r.Created,
		Updated:        r.Updated,
		Restored:       r.Restored,
		SoftDeleted:    r.SoftDeleted,
		MissingDeleted: r.MissingDeleted,
		Skipped:        r.Skipped,
		Processed:      r.Processed,
		Warnings:       r.Warnings,
	}
}

// handleHealth reports service health, including database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListRuns returns recent run outcomes, newest first. The limit query
// parameter caps the result size.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, r, errors.New("limit must be a positive integer"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.SyncRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleTriggerImport starts a full-catalog import and responds with the
// run outcome once it finishes.
func (s *Server) handleTriggerImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.ImportCSV(r.Context())
	s.respondRun(w, r, report, err)
}

// handleTriggerSync starts an external API sync and responds with the run
// outcome once it finishes.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.SyncExternal(r.Context())
	s.respondRun(w, r, report, err)
}

func (s *Server) respondRun(w http.ResponseWriter, r *http.Request, report *reconcile.Report, err error) {
	switch {
	case errors.Is(err, service.ErrRunInFlight):
		s.respondError(w, r, err, http.StatusConflict)
	case err != nil:
		s.respondError(w, r, err, http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, newRunResponse(report))
	}
}
