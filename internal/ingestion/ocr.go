package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

const (
	// RasterDPI is the resolution used when a page has to be OCRed
	RasterDPI = 400
	// DefaultTesseractBinary is the OCR engine executable looked up on PATH
	DefaultTesseractBinary = "tesseract"
	// DefaultPdftoppmBinary is the poppler rasterizer looked up on PATH
	DefaultPdftoppmBinary = "pdftoppm"
)

// Layout selects how the OCR engine segments an image
type Layout int

const (
	// LayoutAuto leaves segmentation to the engine defaults. Used for uploaded images.
	LayoutAuto Layout = iota
	// LayoutBlock reads the image as one uniform block and keeps inter-word spacing.
	// Used for rasterized PDF pages.
	LayoutBlock
)

// OCREngine turns an encoded image into text
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, layout Layout) (string, error)
	Check(ctx context.Context) error
}

// Rasterizer renders a single PDF page to a PNG image
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, page, dpi int) ([]byte, error)
	Check(ctx context.Context) error
}

// TesseractEngine runs the tesseract CLI
type TesseractEngine struct {
	Binary   string
	Language string
}

// NewTesseractEngine creates an engine using the given binary (or tesseract on PATH)
func NewTesseractEngine(binary, language string) *TesseractEngine {
	if binary == "" {
		binary = DefaultTesseractBinary
	}
	return &TesseractEngine{Binary: binary, Language: language}
}

func (t *TesseractEngine) args(layout Layout) []string {
	args := []string{"stdin", "stdout"}
	if layout == LayoutBlock {
		args = append(args, "--psm", "6", "-c", "preserve_interword_spaces=1")
	}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	return args
}

// Recognize pipes the image through tesseract and returns the recognized text
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte, layout Layout) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary, t.args(layout)...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Check verifies that the tesseract binary can be executed
func (t *TesseractEngine) Check(ctx context.Context) error {
	path, err := exec.LookPath(t.Binary)
	if err != nil {
		return &models.ConfigurationError{Capability: "OCR engine", Err: err}
	}
	if out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput(); err != nil {
		return &models.ConfigurationError{
			Capability: "OCR engine",
			Err:        fmt.Errorf("%s --version: %w: %s", path, err, strings.TrimSpace(string(out))),
		}
	}
	return nil
}

// PopplerRasterizer renders pages with poppler's pdftoppm
type PopplerRasterizer struct {
	Binary string
}

// NewPopplerRasterizer creates a rasterizer using the given binary (or pdftoppm on PATH)
func NewPopplerRasterizer(binary string) *PopplerRasterizer {
	if binary == "" {
		binary = DefaultPdftoppmBinary
	}
	return &PopplerRasterizer{Binary: binary}
}

// Rasterize renders the 1-based page of the PDF as PNG
func (p *PopplerRasterizer) Rasterize(ctx context.Context, pdf []byte, page, dpi int) ([]byte, error) {
	dir, err := os.MkdirTemp("", "cv-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	root := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.Binary,
		"-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", input, root)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w: %s", page, err, strings.TrimSpace(string(out)))
	}

	img, err := os.ReadFile(root + ".png")
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered page %d: %w", page, err)
	}
	return img, nil
}

// Check verifies that pdftoppm is installed
func (p *PopplerRasterizer) Check(_ context.Context) error {
	if _, err := exec.LookPath(p.Binary); err != nil {
		return &models.ConfigurationError{Capability: "PDF rasterizer", Err: err}
	}
	return nil
}
