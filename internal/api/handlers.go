package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"cppi/internal/domain"
	"cppi/internal/store"
)

// SummaryRowJSON is the JSON representation of one rebased summary row.
// Columns that could not be rebased are null.
type SummaryRowJSON struct {
	Time       time.Time `json:"time"`
	CPPI       *float64  `json:"cppi"`
	Protection *float64  `json:"protection"`
	Underlying *float64  `json:"underlying"`
}

// SummaryJSON is the JSON representation of a saved run summary.
type SummaryJSON struct {
	ID       string           `json:"id"`
	Strategy string           `json:"strategy"`
	Path     string           `json:"path"`
	Rows     []SummaryRowJSON `json:"rows"`
}

func toSummaryJSON(s domain.Summary) SummaryJSON {
	out := SummaryJSON{
		ID:       s.RealizationID,
		Strategy: s.Strategy,
		Path:     s.Path,
		Rows:     make([]SummaryRowJSON, len(s.Rows)),
	}
	for i, r := range s.Rows {
		out.Rows[i] = SummaryRowJSON{
			Time:       r.Time,
			CPPI:       jsonFloat(r.CPPI),
			Protection: jsonFloat(r.Protection),
			Underlying: jsonFloat(r.Underlying),
		}
	}
	return out
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSummaries returns saved realization IDs, optionally filtered by
// the strategy query parameter.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	ids, err := s.summaries.ListSummaries(r.Context(), r.URL.Query().Get("strategy"))
	if err != nil {
		s.logger.Error("listing summaries", "error", err)
		writeError(w, http.StatusInternalServerError, "listing summaries failed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// handleGetSummary returns one saved summary with all its rows.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	summary, err := s.summaries.LoadSummary(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "summary "+id+" not found")
		return
	}
	if err != nil {
		s.logger.Error("loading summary", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading summary failed")
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
