// Package api exposes the mentor table over HTTP and MCP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/mentortable/internal/storage"
	"github.com/kalambet/mentortable/internal/table"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the collaborators of the HTTP handler.
type Deps struct {
	Table *table.Service
	// Store is optional; without it consultations are not logged and the
	// consultation routes answer 503.
	Store *storage.Store
	// Token guards the consultation log routes when set.
	Token string
	// RequestTimeout bounds one mentor table request end to end.
	RequestTimeout time.Duration
	// Gatherer backs GET /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewHandler returns the service router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/mentors", handleMentors(deps))
	r.Post("/api/mentor-table", handleMentorTable(deps))
	r.Post("/v1/mentor-table", handleMentorTable(deps))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Get("/consultations", handleListConsultations(deps))
		r.Get("/consultations/{id}", handleGetConsultation(deps))
		r.Delete("/consultations/{id}", handleDeleteConsultation(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleMentors(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Table.Catalog().All())
	}
}
