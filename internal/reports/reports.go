// Package reports specifies RedactQC's report-generation boundary
// (SPEC_FULL.md §6 "Reports (interface only)"). Generator is an interface
// the handler layer depends on and a concrete implementation satisfies
// externally, the same way the teacher treats ObjectDownloader/StorageSigner
// in internal/handler/documents.go and internal/service/parser.go as
// externally-satisfied interfaces rather than something the handler builds
// itself.
package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redactqc/redactqc/internal/queryapi"
)

// Format is a requested report's output encoding (spec.md §6 POST
// /api/reports/generate).
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// Status is a report job's lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Generator produces a downloadable report for a batch. Implementations
// write to <data_dir>/reports/<report_id>.{pdf,csv} (spec.md §6 "On-disk
// layout").
type Generator interface {
	Generate(ctx context.Context, batchID string, format Format) (reportID string, err error)
}

// ReportPath returns the on-disk path for a generated report, per spec.md
// §6's "<data_dir>/reports/<report_id>.{pdf,csv}" convention.
func ReportPath(dataDir, reportID string, format Format) string {
	return filepath.Join(dataDir, "reports", fmt.Sprintf("%s.%s", reportID, format))
}

// CSVGenerator is a minimal Generator: it writes one CSV row per finding in
// the batch, synchronously, and is the only implementation RedactQC ships
// out of the box. It exists to exercise the Generator interface end-to-end;
// a richer PDF renderer is left to a future implementation of the same
// interface (see DESIGN.md).
type CSVGenerator struct {
	api     *queryapi.API
	dataDir string
	nextID  func() string
}

func NewCSVGenerator(api *queryapi.API, dataDir string, idFunc func() string) *CSVGenerator {
	return &CSVGenerator{api: api, dataDir: dataDir, nextID: idFunc}
}

// Generate writes every finding for batchID to a CSV report file and
// returns its report ID. format is accepted for interface conformance;
// anything other than FormatCSV fails with ErrUnsupportedFormat since no
// PDF renderer is wired yet (see DESIGN.md).
func (g *CSVGenerator) Generate(ctx context.Context, batchID string, format Format) (string, error) {
	if format != FormatCSV {
		return "", fmt.Errorf("reports.Generate: %w: %s", ErrUnsupportedFormat, format)
	}

	batch, err := g.api.GetBatch(batchID)
	if err != nil {
		return "", fmt.Errorf("reports.Generate: %w", err)
	}

	reportID := g.nextID()
	path := ReportPath(g.dataDir, reportID, FormatCSV)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("reports.Generate: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("reports.Generate: %w", err)
	}
	defer f.Close()

	if err := writeFindingsCSV(ctx, f, g.api, batch.ID); err != nil {
		return "", fmt.Errorf("reports.Generate: %w", err)
	}

	return reportID, nil
}
