package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

const (
	// MinStructuredTextLength is the number of runes a page's embedded text must
	// exceed before OCR is skipped for that page
	MinStructuredTextLength = 100
)

// TextCache stores extracted text keyed by document content hash
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

type pageSource interface {
	NumPage() int
	PageText(page int) (string, error)
}

// Extractor turns raw CV documents into plain text.
// Extraction never fails for a single document: unreadable input yields "".
type Extractor struct {
	ocr    OCREngine
	raster Rasterizer
	cache  TextCache
	logger *zap.Logger

	openPDF func(data []byte) (pageSource, error)
}

// Option configures an Extractor
type Option func(*Extractor)

// WithCache enables the extracted-text cache
func WithCache(cache TextCache) Option {
	return func(e *Extractor) { e.cache = cache }
}

// WithLogger sets the logger used for per-document warnings
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor backed by the given OCR engine and rasterizer
func NewExtractor(ocr OCREngine, raster Rasterizer, opts ...Option) *Extractor {
	e := &Extractor{
		ocr:     ocr,
		raster:  raster,
		logger:  zap.NewNop(),
		openPDF: openLedongthucPDF,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNop(e.logger)
	return e
}

// Preflight checks the external capabilities once, before any document is processed.
// The returned error is a *models.ConfigurationError.
func (e *Extractor) Preflight(ctx context.Context) error {
	if e.ocr == nil {
		return &models.ConfigurationError{Capability: "OCR engine", Err: fmt.Errorf("not configured")}
	}
	if err := e.ocr.Check(ctx); err != nil {
		return err
	}
	if e.raster == nil {
		return &models.ConfigurationError{Capability: "PDF rasterizer", Err: fmt.Errorf("not configured")}
	}
	return e.raster.Check(ctx)
}

// NeedsOCR reports whether a page's embedded text is too short to be trusted
func NeedsOCR(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) <= MinStructuredTextLength
}

// ExtractText returns the text of one document.
// Every PDF page contributes its text followed by a newline; pages that fail contribute nothing.
// Text is only cached when no rasterization or OCR step failed.
func (e *Extractor) ExtractText(ctx context.Context, doc models.Document) string {
	log := logger.ForDocument(e.logger, doc.Name, doc.Index)
	key := CacheKey(doc.Data)

	if e.cache != nil {
		text, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Warn("text cache lookup failed", zap.Error(err))
		} else if ok {
			log.Debug("text cache hit")
			return text
		}
	}

	var (
		text     string
		degraded bool
	)
	switch {
	case doc.Format == models.FormatPDF:
		text, degraded = e.extractPDF(ctx, doc.Data, log)
	case doc.Format.IsImage():
		text, degraded = e.extractImage(ctx, doc.Data, log)
	default:
		log.Warn("unsupported document format", zap.String("format", string(doc.Format)))
		return ""
	}

	if degraded {
		log.Debug("text not cached after a failed extraction step")
	} else if e.cache != nil && ctx.Err() == nil {
		if err := e.cache.Set(ctx, key, text); err != nil {
			log.Warn("text cache store failed", zap.Error(err))
		}
	}

	return text
}

// extractPDF reports degraded when a page lost its text to a rasterizer or OCR failure
func (e *Extractor) extractPDF(ctx context.Context, data []byte, log *zap.Logger) (string, bool) {
	pages, err := e.openPDF(data)
	if err != nil {
		log.Warn("unreadable PDF", zap.Error(err))
		return "", false
	}

	var (
		sb       strings.Builder
		degraded bool
	)
	for i := 1; i <= pages.NumPage(); i++ {
		if ctx.Err() != nil {
			break
		}
		text, failed := e.pageText(ctx, pages, data, i, log)
		degraded = degraded || failed
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), degraded
}

func (e *Extractor) pageText(ctx context.Context, pages pageSource, data []byte, page int, log *zap.Logger) (string, bool) {
	text, err := pages.PageText(page)
	if err != nil {
		log.Debug("embedded text unavailable", zap.Int("page", page), zap.Error(err))
		text = ""
	}

	text = strings.TrimSpace(text)
	if !NeedsOCR(text) {
		return text, false
	}

	img, err := e.raster.Rasterize(ctx, data, page, RasterDPI)
	if err != nil {
		log.Warn("page rasterization failed", zap.Int("page", page), zap.Error(err))
		return "", true
	}

	ocrText, err := e.ocr.Recognize(ctx, img, LayoutBlock)
	if err != nil {
		log.Warn("page OCR failed", zap.Int("page", page), zap.Error(err))
		return "", true
	}
	return ocrText, false
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, log *zap.Logger) (string, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn("unreadable image", zap.Error(err))
		return "", false
	}

	// tesseract gets a lossless copy regardless of the uploaded encoding
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Warn("image re-encoding failed", zap.Error(err))
		return "", true
	}

	text, err := e.ocr.Recognize(ctx, buf.Bytes(), LayoutAuto)
	if err != nil {
		log.Warn("image OCR failed", zap.Error(err))
		return "", true
	}
	return text, false
}

// CacheKey is the content hash used as text cache key
func CacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DetectFormat determines the document format from its extension, falling back to magic bytes
func DetectFormat(filename string, data []byte) (models.Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.FormatPDF, true
	case ".jpg", ".jpeg":
		return models.FormatJPEG, true
	case ".png":
		return models.FormatPNG, true
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return models.FormatPDF, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return models.FormatJPEG, true
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return models.FormatPNG, true
	}
	return "", false
}

type ledongthucPDF struct {
	r *pdf.Reader
}

func openLedongthucPDF(data []byte) (src pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &ledongthucPDF{r: r}, nil
}

func (p *ledongthucPDF) NumPage() int {
	return p.r.NumPage()
}

// PageText reads the embedded text of a 1-based page.
// The parser panics on some malformed content streams, which is reported as an error.
func (p *ledongthucPDF) PageText(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page %d: %v", page, r)
		}
	}()

	pg := p.r.Page(page)
	if pg.V.IsNull() {
		return "", nil
	}
	return pg.GetPlainText(nil)
}
