// Package extractor turns a PDF file into page text, falling back to OCR
// per page when the native text layer is too thin (spec.md §4.2),
// generalized from the teacher's document-ingestion step
// (internal/service/document.go, internal/service/parser.go) onto the
// pack's pdf/go-fitz/gosseract stack (see DESIGN.md).
package extractor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// Method identifies how a page's text was obtained.
type Method string

const (
	MethodNative Method = "NATIVE"
	MethodOCR    Method = "OCR"
)

// PageText is one page's extraction result.
type PageText struct {
	PageNumber int
	Text       string
	Method     Method
	Confidence float64
}

// Extractor extracts page text from PDF files, falling back to OCR when
// the native text layer is too thin.
type Extractor struct {
	nativeMinChars int
	ocrDPI         int
	ocrBudget      int
	rasterizer     rasterizer
	ocrEngine      ocrEngine
}

// New builds an Extractor. nativeMinChars, ocrDPI, and ocrBudgetSeconds
// come from config.Config (spec.md §4.2 NATIVE_MIN/OCR_DPI defaults).
func New(nativeMinChars, ocrDPI, ocrBudgetSeconds int) *Extractor {
	return &Extractor{
		nativeMinChars: nativeMinChars,
		ocrDPI:         ocrDPI,
		ocrBudget:      ocrBudgetSeconds,
		rasterizer:     goFitzRasterizer{},
		ocrEngine:      tesseractEngine{},
	}
}

// Extract yields an ordered PageText sequence for the PDF at path
// (spec.md §4.2 algorithm). The returned slice's page numbers are strictly
// ascending starting at 1 (spec.md §5 "Ordering guarantees").
func (e *Extractor) Extract(ctx context.Context, path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, redactqcerr.NewExtractFail("open " + path + ": " + err.Error())
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]PageText, 0, numPages)

	for i := 1; i <= numPages; i++ {
		pages = append(pages, e.extractPage(ctx, path, reader, i))
	}

	return pages, nil
}

func (e *Extractor) extractPage(ctx context.Context, path string, reader *pdf.Reader, pageNumber int) PageText {
	native := e.nativeText(reader, pageNumber)
	return e.decideFromNative(ctx, path, pageNumber, native)
}

// decideFromNative implements the NATIVE_MIN threshold decision
// (spec.md §4.2 steps 2-3) independently of PDF parsing, so it can be
// exercised directly in tests without a real PDF reader.
func (e *Extractor) decideFromNative(ctx context.Context, path string, pageNumber int, native string) PageText {
	if n := len(strings.TrimSpace(native)); n >= e.nativeMinChars {
		return PageText{PageNumber: pageNumber, Text: native, Method: MethodNative, Confidence: 1.0}
	}

	ocrText, meanConf, err := e.ocrPage(ctx, path, pageNumber)
	if err != nil {
		slog.Warn("extractor: page ocr failed, emitting empty page",
			"page", pageNumber, "error", err)
		return PageText{PageNumber: pageNumber, Text: "", Method: MethodNative, Confidence: 0.0}
	}

	return PageText{PageNumber: pageNumber, Text: ocrText, Method: MethodOCR, Confidence: meanConf / 100}
}

// nativeText extracts the content-stream text for one page. A page with no
// content (a null dictionary, or glyphless text) yields "" rather than an
// error, per spec.md §4.2 "tolerate pages with text but no glyphs".
func (e *Extractor) nativeText(reader *pdf.Reader, pageNumber int) string {
	page := reader.Page(pageNumber)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		slog.Warn("extractor: native text extraction failed", "page", pageNumber, "error", err)
		return ""
	}
	return text
}

func (e *Extractor) ocrPage(ctx context.Context, path string, pageNumber int) (string, float64, error) {
	img, err := e.rasterizer.RenderPage(ctx, path, pageNumber, e.ocrDPI)
	if err != nil {
		return "", 0, err
	}
	defer img.Close()

	return e.ocrEngine.Recognize(ctx, img.Path(), e.ocrBudget)
}
