// Package handlers provides HTTP handlers for the Storefront Advisor API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// ErrorResponseDTO is the body of every failed request.
type ErrorResponseDTO struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and caller-facing code. Full detail stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, logger *observability.Logger, err error) {
	status := domain.HTTPStatus(err)
	log := logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}

	writeJSON(w, status, ErrorResponseDTO{
		OK:      false,
		Error:   domain.Code(err),
		Details: domain.Details(err),
	})
}
