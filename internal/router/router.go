package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/redactqc/redactqc/internal/batchmanager"
	"github.com/redactqc/redactqc/internal/handler"
	"github.com/redactqc/redactqc/internal/middleware"
	"github.com/redactqc/redactqc/internal/queryapi"
	"github.com/redactqc/redactqc/internal/reports"
)

// Dependencies holds every injected component the router wires into
// handlers (spec.md §6 HTTP surface).
type Dependencies struct {
	DB      handler.DBPinger
	Version string

	Metrics    *middleware.Metrics
	MetricsReg *prometheus.Registry

	BatchManager *batchmanager.Manager
	QueryAPI     *queryapi.API
	Reports      reports.Generator
	DataDir      string

	DefaultConfidence float64
	DefaultWorkers    int
}

// New creates and configures the Chi router with RedactQC's full HTTP
// surface (spec.md §6), bound strictly to 127.0.0.1 by the caller's
// http.Server.Addr.
func New(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging)
	if deps.Metrics != nil {
		r.Use(middleware.Monitoring(deps.Metrics))
	}

	r.Get("/api/health", handler.Health(deps.DB, deps.Version))
	if deps.MetricsReg != nil {
		r.Handle("/metrics", middleware.MetricsHandler(deps.MetricsReg))
	}

	timeout30s := middleware.Timeout(30 * time.Second)

	r.With(timeout30s).Post("/api/scan", handler.StartScan(deps.BatchManager, deps.QueryAPI, deps.DefaultConfidence, deps.DefaultWorkers))
	r.With(timeout30s).Get("/api/batches", handler.ListBatches(deps.QueryAPI))
	r.With(timeout30s).Get("/api/batches/{id}", handler.GetBatch(deps.QueryAPI))
	r.With(timeout30s).Delete("/api/batches/{id}", handler.DeleteBatch(deps.BatchManager))
	r.With(timeout30s).Get("/api/batches/{id}/documents", handler.ListBatchDocuments(deps.QueryAPI))

	r.With(timeout30s).Get("/api/documents/{id}", handler.GetDocument(deps.QueryAPI))
	r.With(timeout30s).Get("/api/documents/{id}/findings", handler.ListDocumentFindings(deps.QueryAPI))

	r.With(timeout30s).Get("/api/stats", handler.GlobalStats(deps.QueryAPI))
	r.With(timeout30s).Get("/api/pii-types", handler.PIITypeDistribution(deps.QueryAPI))

	// Report generation can take longer than the default timeout on large
	// batches, matching the teacher's pattern of giving export-style
	// endpoints their own budget.
	r.With(middleware.Timeout(60 * time.Second)).Post("/api/reports/generate", handler.GenerateReport(deps.Reports))
	r.With(timeout30s).Get("/api/reports/{id}/download", handler.DownloadReport(deps.DataDir))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "NOT_FOUND",
			"message": "route not found",
		})
	})

	return r
}
