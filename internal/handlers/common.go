// Package handlers serves record-pair ranking over HTTP.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/marcrank/internal/catalog"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// maxRequestBytes bounds a ranking request body
const maxRequestBytes = 10 << 20

type Handler struct {
	ranker  *rank.Ranker
	catalog *catalog.Client
	metrics *Metrics
}

// New returns a handler ranking with ranker. catalogClient may be nil, in
// which case requests naming record IDs are rejected. metrics may be nil.
func New(ranker *rank.Ranker, catalogClient *catalog.Client, metrics *Metrics) *Handler {
	return &Handler{
		ranker:  ranker,
		catalog: catalogClient,
		metrics: metrics,
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rank", h.HandleRank)
	mux.HandleFunc("/api/features", h.HandleFeatures)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}
