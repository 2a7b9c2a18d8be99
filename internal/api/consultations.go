package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/mentortable/internal/storage"
)

// consultationDetail is a stored consultation with its full response.
type consultationDetail struct {
	storage.Consultation
	Response json.RawMessage `json:"response"`
}

func requireStore(w http.ResponseWriter, deps Deps) bool {
	if deps.Store == nil {
		httpError(w, http.StatusServiceUnavailable, "api_error", "consultation storage is disabled")
		return false
	}
	return true
}

func handleListConsultations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStore(w, deps) {
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)

		consultations, err := deps.Store.ListConsultations(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list consultations: %v", err)
			return
		}
		if consultations == nil {
			consultations = []storage.Consultation{}
		}
		writeJSON(w, consultations)
	}
}

func handleGetConsultation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStore(w, deps) {
			return
		}
		id := chi.URLParam(r, "id")

		c, err := deps.Store.GetConsultation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "consultation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get consultation: %v", err)
			return
		}

		detail := consultationDetail{Consultation: c}
		if json.Valid([]byte(c.ResponseJSON)) {
			detail.Response = json.RawMessage(c.ResponseJSON)
		}
		writeJSON(w, detail)
	}
}

func handleDeleteConsultation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStore(w, deps) {
			return
		}
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteConsultation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "consultation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete consultation: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
