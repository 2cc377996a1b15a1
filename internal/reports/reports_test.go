package reports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/queryapi"
	"github.com/redactqc/redactqc/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "redactqc.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGenerate_WritesCSVWithOneRowPerFinding(t *testing.T) {
	st := openTestStore(t)
	batchID, err := st.CreateBatch("batch", "/tmp/batch")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	ids, err := st.InsertDocuments(batchID, []store.DocInput{{Filename: "a.pdf", Filepath: "/tmp/batch/a.pdf"}})
	if err != nil {
		t.Fatalf("InsertDocuments: %v", err)
	}
	if err := st.RecordDocumentResult(ids[0], 1, model.DocumentCompleted, []model.Finding{
		{PIIType: model.PIIUSSSN, Confidence: 0.95, PageNumber: 1, CharOffset: 0, CharLength: 11, ContextSnippet: "SSN: 123-45-6789"},
	}); err != nil {
		t.Fatalf("RecordDocumentResult: %v", err)
	}

	api := queryapi.New(st)
	dataDir := t.TempDir()
	counter := 0
	gen := NewCSVGenerator(api, dataDir, func() string {
		counter++
		return "report-1"
	})

	reportID, err := gen.Generate(context.Background(), batchID, FormatCSV)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reportID != "report-1" {
		t.Errorf("want report id report-1, got %s", reportID)
	}

	path := ReportPath(dataDir, reportID, FormatCSV)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header + 1 finding row, got %d lines: %q", len(lines), content)
	}
	if !strings.Contains(lines[1], model.PIIUSSSN) {
		t.Errorf("want finding row to contain pii_type, got %q", lines[1])
	}
}

func TestGenerate_RejectsUnsupportedFormat(t *testing.T) {
	st := openTestStore(t)
	batchID, err := st.CreateBatch("batch", "/tmp/batch")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	api := queryapi.New(st)
	gen := NewCSVGenerator(api, t.TempDir(), func() string { return "report-1" })

	if _, err := gen.Generate(context.Background(), batchID, FormatPDF); err == nil {
		t.Fatalf("want error for unsupported format")
	}
}
