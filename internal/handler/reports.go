package handler

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/redactqc/redactqc/internal/reports"
)

// GenerateReportRequest is the request body for POST /api/reports/generate
// (spec.md §6).
type GenerateReportRequest struct {
	BatchID string         `json:"batch_id"`
	Format  reports.Format `json:"format"`
}

type reportStatusResponse struct {
	ID     string         `json:"id"`
	Status reports.Status `json:"status"`
}

// GenerateReport handles POST /api/reports/generate. Generation runs
// synchronously and the response always reflects a terminal status, since
// the only Generator shipped (reports.CSVGenerator) completes inline.
func GenerateReport(gen reports.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		if req.BatchID == "" {
			badRequest(w, "batch_id is required")
			return
		}
		if req.Format == "" {
			req.Format = reports.FormatCSV
		}

		reportID, err := gen.Generate(r.Context(), req.BatchID, req.Format)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, reportStatusResponse{ID: reportID, Status: reports.StatusReady})
	}
}

// DownloadReport handles GET /api/reports/{id}/download, streaming the
// report file written at its on-disk convention path.
func DownloadReport(dataDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		for _, format := range []reports.Format{reports.FormatCSV, reports.FormatPDF} {
			path := reports.ReportPath(dataDir, id, format)
			if _, err := os.Stat(path); err == nil {
				http.ServeFile(w, r, path)
				return
			}
		}

		respondJSON(w, http.StatusNotFound, errorBody{Error: "NOT_FOUND", Message: "report not found: " + id})
	}
}
