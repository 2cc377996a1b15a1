package workerpool

import (
	"context"
	"sync/atomic"

	"github.com/redactqc/redactqc/internal/config"
	"github.com/redactqc/redactqc/internal/detector"
	"github.com/redactqc/redactqc/internal/extractor"
	"github.com/redactqc/redactqc/internal/pipeline"
)

// localWorker is the subprocess-side Worker: it owns one Extractor and one
// Detector (each loaded once, amortised across every job the process
// handles) and drives Pipeline.ProcessDocument per RPC call (spec.md §4.5
// "Each worker loads its own Detector and Extractor on startup").
type localWorker struct {
	pipeline  *pipeline.Pipeline
	cancelled atomic.Bool
}

func newLocalWorker(cfg *config.Config) *localWorker {
	ext := extractor.New(cfg.NativeMinChars, cfg.OCRDPI, cfg.OCRPerPageBudgetSeconds)
	det := detector.New(detector.Config{
		ContextWindow:  cfg.ContextWindow,
		ContextBoost:   cfg.ContextBoost,
		ContextPenalty: cfg.ContextPenalty,
		ContextMax:     cfg.ContextMax,
		SnippetHardCap: cfg.SnippetHardCap,
	})
	pl := pipeline.New(pipeline.ExtractorAdapter{Extractor: ext}, det, cfg.MinConfidence)
	return &localWorker{pipeline: pl}
}

// Cancelled implements pipeline.CancelToken, polled by Pipeline between
// pages of the document currently in flight on this worker.
func (w *localWorker) Cancelled() bool { return w.cancelled.Load() }

// Cancel is invoked over RPC, concurrently with any in-flight
// ProcessDocument call on the same connection (spec.md §4.5
// "Cancellation ... sets a shared flag consulted between pages").
func (w *localWorker) Cancel() error {
	w.cancelled.Store(true)
	return nil
}

func (w *localWorker) ProcessDocument(req Request) (Response, error) {
	result := w.pipeline.ProcessDocument(context.Background(), req.DocID, req.Filepath, req.ConfidenceThreshold, w)
	return toResponse(result), nil
}

func toResponse(r pipeline.Result) Response {
	resp := Response{PageCount: r.PageCount, Findings: r.Findings}
	switch r.Outcome {
	case pipeline.Ok:
		resp.Outcome = OutcomeOk
	case pipeline.Cancelled:
		resp.Outcome = OutcomeCancelled
	case pipeline.ExtractFail:
		resp.Outcome = OutcomeExtractFail
	default:
		resp.Outcome = OutcomeInternal
	}
	if r.Err != nil {
		resp.ErrMessage = r.Err.Error()
	}
	return resp
}
