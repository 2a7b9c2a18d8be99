package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kalambet/mentortable/internal/table"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// consultError maps a failed consultation onto an HTTP error.
func consultError(w http.ResponseWriter, err error) {
	var verr *table.ValidationError
	switch {
	case errors.As(err, &verr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", verr.Msg)
	case errors.Is(err, table.ErrMissingAPIKey):
		httpError(w, http.StatusInternalServerError, "configuration_error", "%v", err)
	case errors.Is(err, context.DeadlineExceeded):
		httpError(w, http.StatusGatewayTimeout, "timeout_error", "Upstream LLM request timed out")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "consultation failed: %v", err)
	}
}
