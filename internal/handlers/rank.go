package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/marcrank/internal/marc"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// RankRequest carries either two records or two catalog record IDs
type RankRequest struct {
	Record1   *marc.Record `json:"record1,omitempty"`
	Record2   *marc.Record `json:"record2,omitempty"`
	Record1ID string       `json:"record1_id,omitempty"`
	Record2ID string       `json:"record2_id,omitempty"`
}

// RankResponse is the ranking verdict plus its full trace
type RankResponse struct {
	Preferred  int              `json:"preferred"`
	Comparison *rank.Comparison `json:"comparison"`
}

func (h *Handler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request RankRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	rec1, rec2, status, err := h.resolvePair(r, &request)
	if err != nil {
		h.metrics.ObserveRank(OutcomeError, time.Since(start).Seconds())
		h.writeError(w, err.Error(), status)
		return
	}

	comparison, err := h.ranker.Compare(rec1, rec2)
	if err != nil {
		h.metrics.ObserveRank(OutcomeError, time.Since(start).Seconds())
		h.writeError(w, "Failed to rank records: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.metrics.ObserveRank(outcomeFor(comparison.Preferred()), time.Since(start).Seconds())

	h.writeJSON(w, RankResponse{
		Preferred:  comparison.Preferred(),
		Comparison: comparison,
	})
}

func (h *Handler) resolvePair(r *http.Request, request *RankRequest) (*marc.Record, *marc.Record, int, error) {
	if request.Record1 != nil && request.Record2 != nil {
		return request.Record1, request.Record2, http.StatusOK, nil
	}

	if request.Record1ID == "" || request.Record2ID == "" {
		return nil, nil, http.StatusBadRequest, errors.New("record1 and record2, or record1_id and record2_id, are required")
	}
	if h.catalog == nil {
		return nil, nil, http.StatusBadRequest, errors.New("record IDs require a catalog (start the server with --catalog-url)")
	}

	records, err := h.catalog.FetchRecords(r.Context(), request.Record1ID, request.Record2ID)
	if err != nil {
		return nil, nil, http.StatusBadGateway, fmt.Errorf("failed to fetch records: %w", err)
	}
	return records[0], records[1], http.StatusOK, nil
}

func (h *Handler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, map[string]any{
		"features": h.ranker.Labels(),
	})
}
