// Package batchmanager owns the batch lifecycle (spec.md §4.6): folder
// inventory, dispatch via WorkerPool, result persistence via Store, and
// cancellation/resume/deletion. Generalized from the teacher's
// PipelineService's in-process dedupe guard
// (internal/service/pipeline.go's processingMu/processing map) from a
// single-document re-entrancy guard into a per-batch in-flight registry
// tracking the live WorkerPool for each running scan.
package batchmanager

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redactqc/redactqc/internal/config"
	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/redactqcerr"
	"github.com/redactqc/redactqc/internal/store"
	"github.com/redactqc/redactqc/internal/workerpool"
)

// pool is the subset of *workerpool.Pool that Manager depends on,
// extracted so tests can substitute an in-process fake instead of
// spawning real worker subprocesses (mirrors the teacher's
// Parser/Redactor/Chunker/Embedder interface-per-dependency style in
// internal/service/pipeline.go).
type pool interface {
	Submit(jobs []workerpool.Job, confidenceThreshold float64, onResult func(docID string, resp workerpool.Response))
	Cancel()
	Close()
}

// Manager owns batch lifecycle transitions and the in-flight WorkerPool
// for every currently-processing batch.
type Manager struct {
	store   *store.Store
	cfg     *config.Config
	newPool func(workerCount, chunkSize int) (pool, error)

	mu       sync.Mutex
	inFlight map[string]*runningBatch
}

type runningBatch struct {
	pool pool
	done chan struct{}
}

func New(st *store.Store, cfg *config.Config) *Manager {
	return &Manager{
		store: st,
		cfg:   cfg,
		newPool: func(workerCount, chunkSize int) (pool, error) {
			return workerpool.NewPool(workerCount, chunkSize)
		},
		inFlight: make(map[string]*runningBatch),
	}
}

// StartScan canonicalises source_path, inventories *.pdf files, records
// Batch+Document rows in one transaction, and dispatches processing in the
// background (spec.md §4.6 "StartScan").
func (m *Manager) StartScan(sourcePath string, confidenceThreshold float64, workerCount int) (string, error) {
	canon, err := canonicalizeDir(sourcePath)
	if err != nil {
		return "", redactqcerr.NewInvalidPath(sourcePath)
	}

	paths, err := enumeratePDFs(canon)
	if err != nil {
		return "", fmt.Errorf("batchmanager.StartScan: enumerate: %w", err)
	}

	batchID, err := m.store.CreateBatch(filepath.Base(canon), canon)
	if err != nil {
		return "", fmt.Errorf("batchmanager.StartScan: create batch: %w", err)
	}

	if len(paths) == 0 {
		if err := m.store.SetBatchStatus(batchID, model.BatchCompleted); err != nil {
			return "", fmt.Errorf("batchmanager.StartScan: complete empty batch: %w", err)
		}
		return batchID, nil
	}

	docs := make([]store.DocInput, len(paths))
	for i, p := range paths {
		docs[i] = store.DocInput{Filename: filepath.Base(p), Filepath: p}
	}
	if _, err := m.store.InsertDocuments(batchID, docs); err != nil {
		return "", fmt.Errorf("batchmanager.StartScan: insert documents: %w", err)
	}

	go m.process(batchID, confidenceThreshold, workerCount)
	return batchID, nil
}

// Resume re-dispatches a batch's pending/error documents, for use after a
// process restart (spec.md §4.6 "Resume"). It is a no-op if the batch is
// already being processed in this process.
func (m *Manager) Resume(batchID string, confidenceThreshold float64, workerCount int) error {
	if _, err := m.store.GetBatch(batchID); err != nil {
		return err
	}
	if m.isInFlight(batchID) {
		return nil
	}
	go m.process(batchID, confidenceThreshold, workerCount)
	return nil
}

// CancelBatch signals the running WorkerPool (if any) and awaits drain
// (spec.md §4.6 "Cancellation/Deletion").
func (m *Manager) CancelBatch(batchID string) {
	m.mu.Lock()
	rb, ok := m.inFlight[batchID]
	m.mu.Unlock()
	if !ok {
		return
	}
	rb.pool.Cancel()
	<-rb.done
}

// DeleteBatch cancels any in-flight scan for batchID, then deletes it and
// its Documents/Findings via cascade (spec.md §4.6 "Cancellation/Deletion").
func (m *Manager) DeleteBatch(batchID string) error {
	m.CancelBatch(batchID)
	if err := m.store.DeleteBatch(batchID); err != nil {
		return fmt.Errorf("batchmanager.DeleteBatch: %w", err)
	}
	return nil
}

func (m *Manager) isInFlight(batchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[batchID]
	return ok
}

// process is the background processing loop: claim every pending/error
// document in chunks, then dispatch each chunk to the WorkerPool and
// persist each result (spec.md §4.6 "Processing loop").
func (m *Manager) process(batchID string, confidenceThreshold float64, workerCount int) {
	wp, err := m.newPool(workerCount, m.cfg.ChunkSize)
	if err != nil {
		slog.Error("batchmanager: failed to start worker pool", "batch_id", batchID, "error", err)
		if e := m.store.SetBatchStatus(batchID, model.BatchError); e != nil {
			slog.Error("batchmanager: failed to mark batch error", "batch_id", batchID, "error", e)
		}
		return
	}

	rb := &runningBatch{pool: wp, done: make(chan struct{})}
	m.mu.Lock()
	m.inFlight[batchID] = rb
	m.mu.Unlock()

	defer func() {
		wp.Close()
		m.mu.Lock()
		delete(m.inFlight, batchID)
		m.mu.Unlock()
		close(rb.done)
	}()

	if err := m.store.SetBatchStatus(batchID, model.BatchProcessing); err != nil {
		slog.Error("batchmanager: failed to set processing", "batch_id", batchID, "error", err)
	}

	// Every eligible document is claimed before any is dispatched, so a
	// document left claimable by an error or cancelled result is not
	// dispatched again in the same run.
	storeFailed := false
	var chunks [][]workerpool.Job
	for {
		jobs, err := m.claimChunk(batchID, m.cfg.ChunkSize)
		if err != nil {
			slog.Error("batchmanager: claim failed, aborting batch", "batch_id", batchID, "error", err)
			storeFailed = true
			break
		}
		if len(jobs) == 0 {
			break
		}
		chunks = append(chunks, jobs)
	}

	for _, jobs := range chunks {
		wp.Submit(jobs, confidenceThreshold, func(docID string, resp workerpool.Response) {
			if err := m.handleResult(batchID, docID, resp); err != nil {
				slog.Error("batchmanager: failed to persist result", "batch_id", batchID, "doc_id", docID, "error", err)
				storeFailed = true
			}
		})
	}

	final := model.BatchCompleted
	if storeFailed {
		final = model.BatchError
	}
	if err := m.store.SetBatchStatus(batchID, final); err != nil {
		slog.Error("batchmanager: failed to set final batch status", "batch_id", batchID, "error", err)
	}
}

// claimChunk atomically claims up to size pending/error documents for
// batchID (spec.md §4.5 "Chunking").
func (m *Manager) claimChunk(batchID string, size int) ([]workerpool.Job, error) {
	var jobs []workerpool.Job
	for len(jobs) < size {
		docID, path, ok, err := m.store.ClaimNextPending(batchID)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		jobs = append(jobs, workerpool.Job{DocID: docID, Filepath: path})
	}
	return jobs, nil
}

// handleResult persists one WorkerPool result per spec.md §4.6 "Processing
// loop": Ok completes the document with its findings, Err records an empty
// finding set with status error, Cancelled leaves the document untouched
// (claim released) so a future Resume picks it back up.
func (m *Manager) handleResult(batchID, docID string, resp workerpool.Response) error {
	switch resp.Outcome {
	case workerpool.OutcomeOk:
		return m.store.RecordDocumentResult(docID, resp.PageCount, model.DocumentCompleted, resp.Findings)
	case workerpool.OutcomeCancelled:
		return m.store.ReleaseClaim(docID)
	default:
		slog.Warn("batchmanager: document failed", "batch_id", batchID, "doc_id", docID, "outcome", resp.Outcome, "error", resp.ErrMessage)
		return m.store.RecordDocumentResult(docID, 0, model.DocumentError, nil)
	}
}

// canonicalizeDir resolves sourcePath to an absolute, symlink-free path and
// rejects anything that is not an existing directory (spec.md §4.6 step 1).
func canonicalizeDir(sourcePath string) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", sourcePath)
	}
	return resolved, nil
}

// enumeratePDFs recursively lists *.pdf files under root, case-insensitive
// deduped on the canonical filesystem path (spec.md §4.6 step 2).
func enumeratePDFs(root string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		key := strings.ToLower(resolved)
		if seen[key] {
			return nil
		}
		seen[key] = true
		out = append(out, resolved)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
