package ingestion

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

type fakeOCR struct {
	text    string
	err     error
	calls   int
	layouts []Layout
}

func (f *fakeOCR) Recognize(_ context.Context, _ []byte, layout Layout) (string, error) {
	f.calls++
	f.layouts = append(f.layouts, layout)
	return f.text, f.err
}

func (f *fakeOCR) Check(_ context.Context) error { return f.err }

type fakeRaster struct {
	err   error
	pages []int
}

func (f *fakeRaster) Rasterize(_ context.Context, _ []byte, page, dpi int) ([]byte, error) {
	f.pages = append(f.pages, page)
	if dpi != RasterDPI {
		return nil, errors.New("unexpected dpi")
	}
	return []byte("png"), f.err
}

func (f *fakeRaster) Check(_ context.Context) error { return f.err }

type fakePages struct {
	texts []string
	errs  map[int]error
}

func (f fakePages) NumPage() int { return len(f.texts) }

func (f fakePages) PageText(page int) (string, error) {
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.texts[page-1], nil
}

type memCache struct {
	data map[string]string
	sets int
}

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key, text string) error {
	m.sets++
	m.data[key] = text
	return nil
}

func newTestExtractor(ocr *fakeOCR, raster *fakeRaster, pages fakePages, opts ...Option) *Extractor {
	e := NewExtractor(ocr, raster, opts...)
	e.openPDF = func([]byte) (pageSource, error) { return pages, nil }
	return e
}

func TestNeedsOCR(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: true},
		{name: "whitespace only", text: "   \n\t ", want: true},
		{name: "exactly threshold", text: strings.Repeat("a", MinStructuredTextLength), want: true},
		{name: "one over threshold", text: strings.Repeat("a", MinStructuredTextLength+1), want: false},
		{name: "padded short text", text: "  " + strings.Repeat("b", 50) + "  ", want: true},
		{name: "multibyte runes counted once", text: strings.Repeat("é", MinStructuredTextLength), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsOCR(tt.text); got != tt.want {
				t.Errorf("NeedsOCR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractText_PDFMixesStructuredAndOCR(t *testing.T) {
	long := strings.Repeat("structured ", 20)
	ocr := &fakeOCR{text: "ocr page"}
	raster := &fakeRaster{}
	e := newTestExtractor(ocr, raster, fakePages{texts: []string{long, "short", long}})

	got := e.ExtractText(context.Background(), models.Document{Name: "cv.pdf", Format: models.FormatPDF})

	want := strings.TrimSpace(long) + "\n" + "ocr page" + "\n" + strings.TrimSpace(long) + "\n"
	if got != want {
		t.Errorf("ExtractText() = %q, want %q", got, want)
	}
	if len(raster.pages) != 1 || raster.pages[0] != 2 {
		t.Errorf("Expected only page 2 to be rasterized, got %v", raster.pages)
	}
	if len(ocr.layouts) != 1 || ocr.layouts[0] != LayoutBlock {
		t.Errorf("Expected rasterized pages to use the block layout, got %v", ocr.layouts)
	}
}

func TestExtractText_BadPageContributesEmpty(t *testing.T) {
	long := strings.Repeat("x", 150)
	ocr := &fakeOCR{err: errors.New("ocr crashed")}
	e := newTestExtractor(ocr, &fakeRaster{}, fakePages{
		texts: []string{"", long},
		errs:  map[int]error{1: errors.New("bad stream")},
	})

	got := e.ExtractText(context.Background(), models.Document{Format: models.FormatPDF})
	if got != "\n"+long+"\n" {
		t.Errorf("Expected the failing page to contribute nothing, got %q", got)
	}
}

func TestExtractText_RasterFailureSkipsOCR(t *testing.T) {
	ocr := &fakeOCR{text: "never"}
	e := newTestExtractor(ocr, &fakeRaster{err: errors.New("no pdftoppm")}, fakePages{texts: []string{""}})

	got := e.ExtractText(context.Background(), models.Document{Format: models.FormatPDF})
	if got != "\n" {
		t.Errorf("Expected single empty page, got %q", got)
	}
	if ocr.calls != 0 {
		t.Errorf("OCR should not run when rasterization fails")
	}
}

func TestExtractText_UnreadablePDF(t *testing.T) {
	e := NewExtractor(&fakeOCR{}, &fakeRaster{})
	got := e.ExtractText(context.Background(), models.Document{Format: models.FormatPDF, Data: []byte("not a pdf")})
	if got != "" {
		t.Errorf("Expected empty text for unreadable PDF, got %q", got)
	}
}

func TestExtractText_Image(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	ocr := &fakeOCR{text: "Jane Doe"}
	e := NewExtractor(ocr, &fakeRaster{})

	got := e.ExtractText(context.Background(), models.Document{Format: models.FormatPNG, Data: buf.Bytes()})
	if got != "Jane Doe" {
		t.Errorf("Expected OCR text, got %q", got)
	}
	if len(ocr.layouts) != 1 || ocr.layouts[0] != LayoutAuto {
		t.Errorf("Expected uploaded images to use the engine defaults, got %v", ocr.layouts)
	}

	got = e.ExtractText(context.Background(), models.Document{Format: models.FormatJPEG, Data: []byte("garbage")})
	if got != "" {
		t.Errorf("Expected empty text for undecodable image, got %q", got)
	}
}

func TestExtractText_UsesCache(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	ocr := &fakeOCR{text: "cached text"}
	e := newTestExtractor(ocr, &fakeRaster{}, fakePages{texts: []string{""}}, WithCache(cache))

	doc := models.Document{Format: models.FormatPDF, Data: []byte("%PDF-1.4 body")}
	first := e.ExtractText(context.Background(), doc)
	second := e.ExtractText(context.Background(), doc)

	if first != second {
		t.Errorf("Cached text differs: %q vs %q", first, second)
	}
	if ocr.calls != 1 {
		t.Errorf("Expected OCR to run once, ran %d times", ocr.calls)
	}
	if cache.sets != 1 {
		t.Errorf("Expected one cache store, got %d", cache.sets)
	}
}

func TestExtractText_FailedOCRIsNotCached(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	ocr := &fakeOCR{err: errors.New("tesseract killed")}
	e := newTestExtractor(ocr, &fakeRaster{}, fakePages{texts: []string{""}}, WithCache(cache))

	doc := models.Document{Format: models.FormatPDF, Data: []byte("%PDF-1.4 scanned")}
	first := e.ExtractText(context.Background(), doc)
	if first != "\n" {
		t.Errorf("Expected the failing page to contribute nothing, got %q", first)
	}
	if cache.sets != 0 {
		t.Fatalf("Expected no cache store after a failed OCR, got %d", cache.sets)
	}

	ocr.err = nil
	ocr.text = "recovered"
	second := e.ExtractText(context.Background(), doc)
	if second != "recovered\n" {
		t.Errorf("Expected OCR to run again once it recovered, got %q", second)
	}
	if ocr.calls != 2 {
		t.Errorf("Expected OCR to run twice, ran %d times", ocr.calls)
	}
	if cache.sets != 1 {
		t.Errorf("Expected the recovered text to be cached, got %d stores", cache.sets)
	}
}

func TestExtractText_FailedImageOCRIsNotCached(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	cache := &memCache{data: map[string]string{}}
	e := NewExtractor(&fakeOCR{err: errors.New("busy")}, &fakeRaster{}, WithCache(cache))

	got := e.ExtractText(context.Background(), models.Document{Format: models.FormatPNG, Data: buf.Bytes()})
	if got != "" || cache.sets != 0 {
		t.Errorf("Expected empty uncached text, got %q with %d stores", got, cache.sets)
	}
}

func TestTesseractArgs(t *testing.T) {
	engine := NewTesseractEngine("", "eng")

	tests := []struct {
		name   string
		layout Layout
		want   string
	}{
		{name: "auto", layout: LayoutAuto, want: "stdin stdout -l eng"},
		{name: "block", layout: LayoutBlock, want: "stdin stdout --psm 6 -c preserve_interword_spaces=1 -l eng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(engine.args(tt.layout), " "); got != tt.want {
				t.Errorf("args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreflight(t *testing.T) {
	ok := NewExtractor(&fakeOCR{}, &fakeRaster{})
	if err := ok.Preflight(context.Background()); err != nil {
		t.Errorf("Unexpected preflight error: %v", err)
	}

	missing := NewExtractor(nil, &fakeRaster{})
	err := missing.Preflight(context.Background())
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfgErr.Capability != "OCR engine" {
		t.Errorf("Unexpected capability %q", cfgErr.Capability)
	}
}

func TestTesseractCheck_MissingBinary(t *testing.T) {
	err := NewTesseractEngine("definitely-not-tesseract-binary", "").Check(context.Background())
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for missing binary, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     models.Format
		ok       bool
	}{
		{name: "pdf extension", filename: "cv.PDF", want: models.FormatPDF, ok: true},
		{name: "jpg extension", filename: "scan.jpg", want: models.FormatJPEG, ok: true},
		{name: "jpeg extension", filename: "scan.jpeg", want: models.FormatJPEG, ok: true},
		{name: "png extension", filename: "scan.png", want: models.FormatPNG, ok: true},
		{name: "pdf magic", filename: "upload", data: []byte("%PDF-1.7"), want: models.FormatPDF, ok: true},
		{name: "jpeg magic", filename: "upload", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, want: models.FormatJPEG, ok: true},
		{name: "png magic", filename: "upload", data: []byte("\x89PNG\r\n\x1a\nrest"), want: models.FormatPNG, ok: true},
		{name: "docx unsupported", filename: "cv.docx", data: []byte("PK\x03\x04"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectFormat(tt.filename, tt.data)
			if ok != tt.ok || got != tt.want {
				t.Errorf("DetectFormat() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCacheKeyIsStable(t *testing.T) {
	a := CacheKey([]byte("same"))
	if a != CacheKey([]byte("same")) {
		t.Errorf("CacheKey is not deterministic")
	}
	if a == CacheKey([]byte("other")) {
		t.Errorf("Different content produced the same key")
	}
	if len(a) != 64 {
		t.Errorf("Expected hex sha256 key, got %q", a)
	}
}
