package batchmanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redactqc/redactqc/internal/config"
	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/store"
	"github.com/redactqc/redactqc/internal/workerpool"
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

func testConfig() *config.Config {
	return &config.Config{ChunkSize: 100, MinConfidence: 0.4}
}

// fakePool lets tests drive Manager.process without spawning real worker
// subprocesses. Its Submit resolves every job through a caller-supplied
// outcome function, synchronously.
type fakePool struct {
	outcomeFor func(job workerpool.Job) workerpool.Response
	cancelled  bool
	closed     bool
}

func (f *fakePool) Submit(jobs []workerpool.Job, confidenceThreshold float64, onResult func(docID string, resp workerpool.Response)) {
	for _, j := range jobs {
		onResult(j.DocID, f.outcomeFor(j))
	}
}

func (f *fakePool) Cancel() { f.cancelled = true }
func (f *fakePool) Close()  { f.closed = true }

func writeTestPDF(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write test pdf: %v", err)
	}
	return p
}

func TestStartScan_EmptyFolderCompletesImmediately(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())

	dir := t.TempDir()
	batchID, err := m.StartScan(dir, 0, 1)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	b, err := st.GetBatch(batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b.Status != model.BatchCompleted {
		t.Errorf("want status completed for empty folder, got %s", b.Status)
	}
	if b.TotalDocs != 0 {
		t.Errorf("want total_docs 0, got %d", b.TotalDocs)
	}
}

func TestStartScan_RejectsNonExistentPath(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())

	if _, err := m.StartScan(filepath.Join(t.TempDir(), "does-not-exist"), 0, 1); err == nil {
		t.Fatalf("want error for non-existent source path")
	}
}

func TestStartScan_RejectsFileNotDirectory(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())

	dir := t.TempDir()
	file := writeTestPDF(t, dir, "not-a-dir.pdf")

	if _, err := m.StartScan(file, 0, 1); err == nil {
		t.Fatalf("want error when source_path is a file, not a directory")
	}
}

func TestProcess_AllDocumentsCompletedMarksBatchCompleted(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())
	m.newPool = func(workerCount, chunkSize int) (pool, error) {
		return &fakePool{outcomeFor: func(job workerpool.Job) workerpool.Response {
			return workerpool.Response{Outcome: workerpool.OutcomeOk, PageCount: 1, Findings: []model.Finding{
				{PIIType: model.PIIUSSSN, Confidence: 0.9, CharOffset: 0, CharLength: 11},
			}}
		}}, nil
	}

	dir := t.TempDir()
	writeTestPDF(t, dir, "a.pdf")
	writeTestPDF(t, dir, "b.pdf")

	batchID, err := m.StartScan(dir, 0, 1)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	waitForBatchTerminal(t, st, batchID)

	b, err := st.GetBatch(batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b.Status != model.BatchCompleted {
		t.Fatalf("want completed, got %s", b.Status)
	}
	if b.ProcessedDocs != 2 || b.DocsWithFindings != 2 {
		t.Errorf("want processed_docs=2 docs_with_findings=2, got %+v", b)
	}
}

func TestProcess_ErrorOutcomeRecordsDocumentErrorButBatchCompletes(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())
	m.newPool = func(workerCount, chunkSize int) (pool, error) {
		return &fakePool{outcomeFor: func(job workerpool.Job) workerpool.Response {
			return workerpool.Response{Outcome: workerpool.OutcomeExtractFail, ErrMessage: "cannot open pdf"}
		}}, nil
	}

	dir := t.TempDir()
	writeTestPDF(t, dir, "bad.pdf")

	batchID, err := m.StartScan(dir, 0, 1)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	waitForBatchTerminal(t, st, batchID)

	b, err := st.GetBatch(batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b.Status != model.BatchCompleted {
		t.Errorf("a document error must not abort the batch: want completed, got %s", b.Status)
	}

	docs, _, err := st.ListDocuments(batchID, store.DocumentFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Status != model.DocumentError {
		t.Fatalf("want one document with status error, got %+v", docs)
	}
}

func TestProcess_CancelledOutcomeLeavesDocumentPending(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())
	m.newPool = func(workerCount, chunkSize int) (pool, error) {
		return &fakePool{outcomeFor: func(job workerpool.Job) workerpool.Response {
			return workerpool.Response{Outcome: workerpool.OutcomeCancelled}
		}}, nil
	}

	dir := t.TempDir()
	writeTestPDF(t, dir, "a.pdf")

	batchID, err := m.StartScan(dir, 0, 1)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	waitForBatchTerminal(t, st, batchID)

	docs, _, err := st.ListDocuments(batchID, store.DocumentFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Status != model.DocumentPending {
		t.Fatalf("want document left pending after cancellation, got %+v", docs)
	}
}

func TestDeleteBatch_CancelsThenRemoves(t *testing.T) {
	st := openTestStore(t)
	m := New(st, testConfig())

	dir := t.TempDir()
	batchID, err := m.StartScan(dir, 0, 1)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	if err := m.DeleteBatch(batchID); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if _, err := st.GetBatch(batchID); err == nil {
		t.Fatalf("want batch removed after DeleteBatch")
	}
}

// waitForBatchTerminal polls until the batch leaves pending/processing,
// since process() runs in its own goroutine.
func waitForBatchTerminal(t *testing.T, st *store.Store, batchID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b, err := st.GetBatch(batchID)
		if err != nil {
			t.Fatalf("GetBatch: %v", err)
		}
		if b.Status == model.BatchCompleted || b.Status == model.BatchError {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("batch %s did not reach a terminal status in time", batchID)
}
