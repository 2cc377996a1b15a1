// Package pipeline orchestrates single-document processing: extract →
// detect → emit findings (spec.md §4.4). It is generalized from the
// teacher's PipelineService.ProcessDocument (internal/service/pipeline.go)
// — same step-by-step slog narration and Interface-per-stage shape — but
// re-pointed at PDF/PII extraction instead of Document-AI/chunk/embed, and
// stripped of every Store write: this Pipeline holds no durable state and
// MUST NOT touch Store (spec.md §4.4 "All persistence is performed by
// BatchManager upon receiving the Pipeline result").
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redactqc/redactqc/internal/extractor"
	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// PageText is the unit Pipeline consumes from Extractor: one page's text,
// the extraction method, and a confidence for that extraction. It mirrors
// extractor.PageText's fields with Method as a plain string;
// ExtractorAdapter below converts *extractor.Extractor's output to it.
type PageText struct {
	PageNumber int
	Text       string
	Method     string
	Confidence float64
}

// Extractor abstracts PDF page text extraction.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]PageText, error)
}

// ExtractorAdapter wraps an *extractor.Extractor to satisfy Extractor,
// translating extractor.PageText's Method type into pipeline's plain
// string so the two packages don't have to share a named type.
type ExtractorAdapter struct {
	Extractor *extractor.Extractor
}

func (a ExtractorAdapter) Extract(ctx context.Context, path string) ([]PageText, error) {
	pages, err := a.Extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]PageText, len(pages))
	for i, p := range pages {
		out[i] = PageText{
			PageNumber: p.PageNumber,
			Text:       p.Text,
			Method:     string(p.Method),
			Confidence: p.Confidence,
		}
	}
	return out, nil
}

// Detector abstracts PII detection over a single page's text.
type Detector interface {
	Detect(pageText string, pageNumber int, minConfidence float64) []model.Finding
}

// Outcome classifies how ProcessDocument finished (spec.md §4.4 step 4).
type Outcome string

const (
	Ok          Outcome = "ok"
	Cancelled   Outcome = "cancelled"
	ExtractFail Outcome = "extract_fail"
	Internal    Outcome = "internal_error"
)

// Result is what ProcessDocument returns. PageCount/Findings are only
// meaningful when Outcome == Ok. A Cancelled result carries a partial
// Findings slice that the caller MUST discard rather than persist
// (spec.md §4.4 step 3).
type Result struct {
	Outcome   Outcome
	PageCount int
	Findings  []model.Finding
	Err       error
}

// Pipeline drives Extractor then Detector for one document. It holds no
// durable state; a Pipeline value is safe to reuse across documents within
// the same worker process since Extractor/Detector are themselves
// process-local and stateless across calls (spec.md §4.5).
type Pipeline struct {
	extractor       Extractor
	detector        Detector
	confidenceFloor float64
}

// New builds a Pipeline from an Extractor and Detector. confidenceFloor is
// the configured REDACTQC_MIN_CONFIDENCE default, overridden per call by
// ProcessDocument's confidenceThreshold parameter when the caller supplies
// one greater than zero.
func New(extractor Extractor, detector Detector, confidenceFloor float64) *Pipeline {
	return &Pipeline{extractor: extractor, detector: detector, confidenceFloor: confidenceFloor}
}

// CancelToken lets a caller (BatchManager) signal mid-document cancellation
// that Pipeline polls between pages (spec.md §4.4 step 3).
type CancelToken interface {
	Cancelled() bool
}

// ProcessDocument runs the full per-document pipeline: extract → detect →
// accumulate findings, checking cancelToken after every page. It never
// calls any Store method, and the full page text for a given page is
// reachable only for the duration of that page's loop iteration — once
// Detect returns, only Findings (offsets, snippets ≤ SNIPPET_HARD_CAP,
// confidences) survive into Result (spec.md §4.4, §8 "text transience").
func (p *Pipeline) ProcessDocument(ctx context.Context, docID, filepath string, confidenceThreshold float64, cancelToken CancelToken) Result {
	threshold := confidenceThreshold
	if threshold <= 0 {
		threshold = p.confidenceFloor
	}

	slog.Info("pipeline starting", "document_id", docID)

	slog.Info("pipeline step 1: extracting pages", "document_id", docID)
	pages, err := p.extractor.Extract(ctx, filepath)
	if err != nil {
		slog.Error("pipeline extraction failed", "document_id", docID, "error", err)
		return Result{Outcome: ExtractFail, Err: redactqcerr.NewExtractFail(err.Error())}
	}
	slog.Info("pipeline pages extracted", "document_id", docID, "page_count", len(pages))

	findings := make([]model.Finding, 0)
	for _, page := range pages {
		slog.Info("pipeline step 2: detecting page",
			"document_id", docID, "page_number", page.PageNumber,
			"method", page.Method, "chars", len(page.Text))

		pageFindings, err := p.detect(page, docID, threshold)
		if err != nil {
			slog.Error("pipeline detection failed", "document_id", docID, "page_number", page.PageNumber, "error", err)
			return Result{Outcome: Internal, Err: redactqcerr.NewInternalError(err.Error())}
		}
		findings = append(findings, pageFindings...)

		if cancelToken != nil && cancelToken.Cancelled() {
			slog.Info("pipeline cancelled mid-document", "document_id", docID, "pages_processed", page.PageNumber)
			return Result{Outcome: Cancelled, Findings: findings, Err: redactqcerr.ErrCancelled}
		}
	}

	slog.Info("pipeline completed", "document_id", docID, "page_count", len(pages), "finding_count", len(findings))
	return Result{Outcome: Ok, PageCount: len(pages), Findings: findings}
}

// detect isolates a single page's Detector call so a panicking recognizer
// registry surfaces as an InternalError for the whole document rather than
// crashing the worker process (spec.md §7 "InternalError ... unexpected
// exception in pipeline").
func (p *Pipeline) detect(page PageText, docID string, threshold float64) (findings []model.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic on page %d: %v", page.PageNumber, r)
		}
	}()
	return p.detector.Detect(page.Text, page.PageNumber, threshold), nil
}
