package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/lead-inbox/internal/infra/integration/github"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
	"github.com/xavierca1/lead-inbox/internal/usecase"
)

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeErrorResponse maps use case and collaborator errors to HTTP:
// invalid input 400, GitHub timeout 504, GitHub non-2xx 502, anything else 500.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.C(r.Context())

	var de *usecase.DomainError
	if errors.As(err, &de) {
		resp := ErrorResponse{Error: de.Message, Code: de.Code}
		if len(de.Fields) > 0 {
			resp.Details = de.Fields
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	if errors.Is(err, github.ErrTimeout) {
		log.Error().Err(err).Msg("⏱️ GitHub não respondeu a tempo")
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "GitHub API timeout", Code: "UPSTREAM_TIMEOUT"})
		return
	}

	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		log.Error().Int("status", apiErr.StatusCode).Msg("❌ GitHub API error")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "GitHub API error", Code: "UPSTREAM_ERROR", Details: apiErr.Body})
		return
	}

	log.Error().Err(err).Msg("❌ erro interno")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL_ERROR"})
}
