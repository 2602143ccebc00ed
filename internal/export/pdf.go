package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// ExportToPDF writes the snapshot as a printable candidate report
func ExportToPDF(s models.Snapshot, outputPath string) error {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".pdf") {
		outputPath = outputPath + ".pdf"
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, s); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Clean(outputPath), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save PDF file: %w", err)
	}
	return nil
}

// WritePDF renders one block per candidate in ranking order
func WritePDF(w io.Writer, s models.Snapshot) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// core fonts are cp1252; accented names are translated, other runes become '?'
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Candidate Evaluation Report", "", 1, "", false, 0, "")
	pdf.Ln(5)

	for _, r := range ToFlatRecords(s) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("#%d  Name: %s", r.Rank, r.Name)), "", 1, "", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		line := func(text string) {
			pdf.CellFormat(0, 6, tr(text), "", 1, "", false, 0, "")
		}
		line("Email: " + r.Email)
		line("Phone: " + r.Phone)
		line(fmt.Sprintf("Experience: %d years", r.ExperienceYears))
		line(fmt.Sprintf("Skills Count: %d", r.SkillsCount))
		pdf.MultiCell(0, 6, tr("Skills: "+strings.Join(r.Skills, ", ")), "", "", false)
		line(fmt.Sprintf("Final Score: %.2f", r.FinalScore))
		if r.JobMatch != nil {
			line(fmt.Sprintf("Job Match: %.2f%%", *r.JobMatch))
		}

		pdf.Ln(4)
		pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}
