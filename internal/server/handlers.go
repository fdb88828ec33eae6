package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/predict"
)

// handleClients lists every client id the dataset contains.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	ids := s.table.ClientIDs()
	writeJSON(w, http.StatusOK, map[string]any{
		"clients": ids,
		"count":   len(ids),
	})
}

// handleClient serves the descriptive profile of one client, plus the most
// recent stored analysis when history is enabled.
func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	row, ok := s.table.Client(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown client id")
		return
	}

	resp := map[string]any{
		"profile": dataset.BuildProfile(row),
	}
	if s.store != nil {
		if latest, err := s.store.LatestAnalysis(id); err == nil && latest != nil {
			resp["lastAnalysis"] = latest
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnalyze runs a full analysis for one client and records it on the
// caller's session.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	analysis, err := s.analyze(r.Context(), id)
	if err != nil {
		s.analysisError(w, id, err)
		return
	}

	s.sessions.record(sessionID(r), id, analysis)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) analysisError(w http.ResponseWriter, clientID int64, err error) {
	if s.metrics != nil && !errors.Is(err, ErrUnknownClient) {
		s.metrics.AnalysisErrors.Inc()
	}

	switch {
	case errors.Is(err, ErrUnknownClient):
		writeError(w, http.StatusNotFound, "unknown client id")
	case errors.Is(err, predict.ErrNoPredictionSource):
		log.Error().Int64("clientID", clientID).Msg("no prediction source available")
		writeError(w, http.StatusServiceUnavailable, "no prediction source available")
	default:
		log.Error().Err(err).Int64("clientID", clientID).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

// handleHistory serves the stored analysis history of one client.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis history is not enabled")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	start := time.Unix(0, 0)
	end := time.Now()
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		start = t
	}

	records, err := s.store.GetAnalyses(id, start, end)
	if err != nil {
		log.Error().Err(err).Int64("clientID", id).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clientId": id,
		"analyses": records,
	})
}

// handleDistribution serves the population histogram of one feature, with
// the requesting client's own value alongside when asked for.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	bins := s.settings.HistogramBins
	if v := r.URL.Query().Get("bins"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b < 2 || b > 200 {
			writeError(w, http.StatusBadRequest, "bins must be an integer between 2 and 200")
			return
		}
		bins = b
	}

	hist, err := s.table.FeatureHistogram(name, bins)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := map[string]any{"histogram": hist}
	if v := r.URL.Query().Get("client"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid client id")
			return
		}
		row, ok := s.table.Client(id)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown client id")
			return
		}
		if value, ok := row.Values[name]; ok && !math.IsNaN(value) {
			resp["clientValue"] = value
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSession serves the caller's session state.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.snapshot(sessionID(r)))
}

// handleHealth reports liveness and dataset readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": len(s.table.ClientIDs()),
		"columns": len(s.table.Columns()),
	})
}
