package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/redactqc/redactqc/internal/batchmanager"
	"github.com/redactqc/redactqc/internal/config"
	"github.com/redactqc/redactqc/internal/queryapi"
	"github.com/redactqc/redactqc/internal/reports"
	"github.com/redactqc/redactqc/internal/store"
)

func httptestJSONBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(b)
}

func testBatchManagerConfig() *config.Config {
	return &config.Config{ChunkSize: 100, MinConfidence: 0.4}
}

type mockDB struct {
	err error
}

func (m *mockDB) Ping(ctx context.Context) error { return m.err }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "redactqc.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRouter(t *testing.T, dbErr error) http.Handler {
	t.Helper()
	st := newTestStore(t)
	api := queryapi.New(st)
	bm := batchmanager.New(st, testBatchManagerConfig())
	dataDir := t.TempDir()

	deps := &Dependencies{
		DB:                &mockDB{err: dbErr},
		Version:           "0.1.0",
		BatchManager:      bm,
		QueryAPI:          api,
		Reports:           reports.NewCSVGenerator(api, dataDir, func() string { return "report-1" }),
		DataDir:           dataDir,
		DefaultConfidence: 0.4,
		DefaultWorkers:    1,
	}
	return New(deps)
}

func TestHealth_IsPublic(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
	if body["version"] != "0.1.0" {
		t.Errorf("version = %q, want %q", body["version"], "0.1.0")
	}
}

func TestHealth_DBDown(t *testing.T) {
	r := newTestRouter(t, fmt.Errorf("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestScan_RejectsMissingSourcePath(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", httptestJSONBody(t, map[string]string{}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestScan_RejectsNonExistentSourcePath(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", httptestJSONBody(t, map[string]string{
		"source_path": "/does/not/exist",
	}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestScan_EmptyFolderReturnsCompletedBatch(t *testing.T) {
	r := newTestRouter(t, nil)
	dir := t.TempDir()

	req := httptest.NewRequest(http.MethodPost, "/api/scan", httptestJSONBody(t, map[string]string{
		"source_path": dir,
	}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Success {
		t.Errorf("want success=true")
	}
	if body.Data.Status != "completed" {
		t.Errorf("want status=completed for empty folder, got %q", body.Data.Status)
	}
}

func TestGetBatch_UnknownIDReturns404(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/batches/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "NOT_FOUND" {
		t.Errorf("want error=NOT_FOUND, got %v", body["error"])
	}
}

func TestStats_ReturnsZeroedStatsOnEmptyStore(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSecurityHeaders_AppliedToEveryResponse(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("want X-Content-Type-Options: nosniff on every response")
	}
}
