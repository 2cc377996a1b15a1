package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRasterizer struct {
	calls int
	err   error
}

func (f *fakeRasterizer) RenderPage(ctx context.Context, pdfPath string, pageNumber, dpi int) (rasterImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return tempImage{path: "/tmp/fake-page.png"}, nil
}

type fakeOCR struct {
	text string
	conf float64
	err  error
}

func (f *fakeOCR) Recognize(ctx context.Context, imagePath string, budgetSeconds int) (string, float64, error) {
	return f.text, f.conf, f.err
}

func newTestExtractor(raster rasterizer, ocr ocrEngine) *Extractor {
	return &Extractor{
		nativeMinChars: 50,
		ocrDPI:         300,
		ocrBudget:      60,
		rasterizer:     raster,
		ocrEngine:      ocr,
	}
}

func TestDecideFromNative_AboveThresholdUsesNative(t *testing.T) {
	raster := &fakeRasterizer{}
	e := newTestExtractor(raster, &fakeOCR{})

	native := strings.Repeat("a", 50)
	got := e.decideFromNative(context.Background(), "doc.pdf", 1, native)

	if got.Method != MethodNative {
		t.Errorf("Method = %q, want %q", got.Method, MethodNative)
	}
	if got.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", got.Confidence)
	}
	if got.Text != native {
		t.Errorf("Text = %q, want %q", got.Text, native)
	}
	if raster.calls != 0 {
		t.Errorf("rasterizer called %d times, want 0", raster.calls)
	}
}

func TestDecideFromNative_BelowThresholdFallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "Witness: Julie Terry", conf: 92}
	e := newTestExtractor(&fakeRasterizer{}, ocr)

	native := strings.Repeat("a", 49)
	got := e.decideFromNative(context.Background(), "doc.pdf", 1, native)

	if got.Method != MethodOCR {
		t.Errorf("Method = %q, want %q", got.Method, MethodOCR)
	}
	if got.Text != "Witness: Julie Terry" {
		t.Errorf("Text = %q, want OCR text", got.Text)
	}
	if got.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", got.Confidence)
	}
}

func TestDecideFromNative_EmptyNativeTriggersOCR(t *testing.T) {
	ocr := &fakeOCR{text: "ocr text", conf: 80}
	e := newTestExtractor(&fakeRasterizer{}, ocr)

	got := e.decideFromNative(context.Background(), "doc.pdf", 1, "")
	if got.Method != MethodOCR {
		t.Errorf("Method = %q, want %q", got.Method, MethodOCR)
	}
}

func TestDecideFromNative_OCRFailureYieldsEmptyNativePage(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("tesseract unavailable")}
	e := newTestExtractor(&fakeRasterizer{}, ocr)

	got := e.decideFromNative(context.Background(), "doc.pdf", 3, "")

	if got.Method != MethodNative {
		t.Errorf("Method = %q, want %q (empty-page fallback)", got.Method, MethodNative)
	}
	if got.Text != "" {
		t.Errorf("Text = %q, want empty", got.Text)
	}
	if got.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", got.Confidence)
	}
	if got.PageNumber != 3 {
		t.Errorf("PageNumber = %d, want 3", got.PageNumber)
	}
}

func TestDecideFromNative_RasterizerFailureYieldsEmptyPage(t *testing.T) {
	raster := &fakeRasterizer{err: errors.New("mupdf: cannot open")}
	e := newTestExtractor(raster, &fakeOCR{})

	got := e.decideFromNative(context.Background(), "doc.pdf", 1, "")
	if got.Method != MethodNative || got.Text != "" || got.Confidence != 0 {
		t.Errorf("got %+v, want empty NATIVE page on rasterizer failure", got)
	}
}

func TestDecideFromNative_ExactlyAtThresholdUsesNative(t *testing.T) {
	e := newTestExtractor(&fakeRasterizer{}, &fakeOCR{})

	native := strings.Repeat("b", 50)
	got := e.decideFromNative(context.Background(), "doc.pdf", 1, native)
	if got.Method != MethodNative {
		t.Errorf("Method = %q, want %q at exactly NATIVE_MIN", got.Method, MethodNative)
	}
}
