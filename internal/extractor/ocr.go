package extractor

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// rasterImage is a transient page image; Close MUST run on every exit path
// (spec.md §4.2 "Resource discipline").
type rasterImage interface {
	Path() string
	Close() error
}

type rasterizer interface {
	RenderPage(ctx context.Context, pdfPath string, pageNumber, dpi int) (rasterImage, error)
}

type ocrEngine interface {
	// Recognize returns recognized text and the mean word confidence in
	// [0,100] (spec.md §4.2 ocr_mean_word_conf).
	Recognize(ctx context.Context, imagePath string, budgetSeconds int) (string, float64, error)
}

type goFitzRasterizer struct{}

type tempImage struct {
	path string
}

func (t tempImage) Path() string { return t.path }
func (t tempImage) Close() error { return os.Remove(t.path) }

// RenderPage rasterises one page at dpi into a transient PNG file. The
// caller is responsible for closing the returned rasterImage, which
// removes the file.
func (goFitzRasterizer) RenderPage(ctx context.Context, pdfPath string, pageNumber, dpi int) (rasterImage, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open for rasterisation: %w", err)
	}
	defer doc.Close()

	// go-fitz pages are 0-indexed; the extractor's pageNumber is 1-based.
	img, err := doc.ImageDPI(pageNumber-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d at %d dpi: %w", pageNumber, dpi, err)
	}

	f, err := os.CreateTemp("", "redactqc-page-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("encode page image: %w", err)
	}

	return tempImage{path: f.Name()}, nil
}

type tesseractEngine struct{}

// Recognize runs Tesseract on imagePath, bounded by budgetSeconds
// (spec.md §5 "OCR per page: soft budget of 60s default; exceeding it
// fails the page, not the document").
func (tesseractEngine) Recognize(ctx context.Context, imagePath string, budgetSeconds int) (string, float64, error) {
	type result struct {
		text string
		conf float64
		err  error
	}

	done := make(chan result, 1)
	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetImage(imagePath); err != nil {
			done <- result{err: fmt.Errorf("set image: %w", err)}
			return
		}

		text, err := client.Text()
		if err != nil {
			done <- result{err: fmt.Errorf("recognize: %w", err)}
			return
		}

		conf, err := client.GetMeanConfidence()
		if err != nil {
			// Tesseract produced text but no confidence summary; assume a
			// conservative mid-range score rather than failing the page.
			done <- result{text: text, conf: 50}
			return
		}

		done <- result{text: text, conf: float64(conf)}
	}()

	select {
	case r := <-done:
		return r.text, r.conf, r.err
	case <-time.After(time.Duration(budgetSeconds) * time.Second):
		return "", 0, fmt.Errorf("ocr budget of %ds exceeded", budgetSeconds)
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}
