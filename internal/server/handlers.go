package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SofiaKung/redflag/apimodels"
	"github.com/SofiaKung/redflag/internal/analyzer"
	"github.com/SofiaKung/redflag/internal/urlguard"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	defer r.Body.Close()

	if req.URL == "" && req.Text == "" && len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, "one of url, text or images is required", "bad_request")
		return
	}

	// The analysis core requires URL targets to be pre-validated.
	if req.URL != "" {
		normalized, err := urlguard.Validate(r.Context(), req.URL)
		if err != nil {
			slog.Warn("URL rejected by safety gate", "error", err)
			writeError(w, http.StatusBadRequest, err.Error(), "url_rejected")
			return
		}
		req.URL = normalized
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status, kind := classifyAnalysisError(err)
		writeError(w, status, err.Error(), kind)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func classifyAnalysisError(err error) (int, string) {
	var parseErr *analyzer.ParseError
	switch {
	case errors.Is(err, analyzer.ErrMaxTurnsExceeded):
		return http.StatusBadGateway, "turn_budget_exhausted"
	case errors.Is(err, analyzer.ErrModelEndpoint):
		return http.StatusBadGateway, "model_endpoint_error"
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, "parse_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, Kind: kind})
}
