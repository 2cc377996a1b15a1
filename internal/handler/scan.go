package handler

import (
	"encoding/json"
	"net/http"

	"github.com/redactqc/redactqc/internal/batchmanager"
	"github.com/redactqc/redactqc/internal/queryapi"
)

// ScanRequest is the request body for POST /api/scan (spec.md §6).
type ScanRequest struct {
	SourcePath          string   `json:"source_path"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	WorkerCount         *int     `json:"worker_count,omitempty"`
}

// StartScan handles POST /api/scan: kicks off a new batch and returns it
// in its initial pending/processing state.
func StartScan(bm *batchmanager.Manager, api *queryapi.API, defaultConfidence float64, defaultWorkers int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		if req.SourcePath == "" {
			badRequest(w, "source_path is required")
			return
		}

		confidence := defaultConfidence
		if req.ConfidenceThreshold != nil {
			confidence = *req.ConfidenceThreshold
		}
		workers := defaultWorkers
		if req.WorkerCount != nil {
			workers = *req.WorkerCount
		}

		batchID, err := bm.StartScan(req.SourcePath, confidence, workers)
		if err != nil {
			respondErr(w, err)
			return
		}

		batch, err := api.GetBatch(batchID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, batch)
	}
}
