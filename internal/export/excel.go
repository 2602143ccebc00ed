package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Ranked Candidates"
)

var bandColors = map[Band]string{
	BandExcellent: "C6EFCE",
	BandGood:      "FFEB9C",
	BandFair:      "FFC7CE",
	BandPoor:      "FF9999",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportToExcel writes the snapshot to an .xlsx file
func ExportToExcel(s models.Snapshot, outputPath string) error {
	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	var buf bytes.Buffer
	if err := WriteExcel(&buf, s); err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// WriteExcel renders the workbook to w
func WriteExcel(w io.Writer, s models.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := ToFlatRecords(s)

	if err := createSummarySheet(f, summarySheet, s, rows); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createRankedCandidatesSheet(f, candidatesSheet, s.JobDescriptionPresent, rows); err != nil {
		return fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// createSummarySheet creates the summary sheet with batch details and statistics
func createSummarySheet(f *excelize.File, sheetName string, s models.Snapshot, rows []models.FlatRecord) error {
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 50)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1
	section := func(title string) {
		cell := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheetName, cell, title)
		f.SetCellStyle(sheetName, cell, fmt.Sprintf("B%d", row), headerStyle)
		f.MergeCell(sheetName, cell, fmt.Sprintf("B%d", row))
		row++
	}
	line := func(label string, value any) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), label)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), value)
		row++
	}

	section("Candidate Ranking Report")
	row++

	line("Batch:", s.BatchID)
	line("Generated:", s.CreatedAt.Format("2006-01-02 15:04:05"))
	line("Total Candidates:", len(rows))
	if s.JobDescriptionPresent {
		line("Job Description:", "provided (scores include job match)")
	} else {
		line("Job Description:", "not provided (experience and skills only)")
	}
	line("Maximum Possible Score:", MaxScore(s.JobDescriptionPresent))
	row++

	if len(rows) == 0 {
		return nil
	}

	section("Statistics:")

	counts := map[Band]int{}
	var total float64
	minScore, maxScore := rows[0].FinalScore, rows[0].FinalScore
	for _, r := range rows {
		counts[ScoreBand(r.FinalScore, s.JobDescriptionPresent)]++
		total += r.FinalScore
		minScore = min(minScore, r.FinalScore)
		maxScore = max(maxScore, r.FinalScore)
	}

	for _, b := range []Band{BandExcellent, BandGood, BandFair, BandPoor} {
		line(b.String()+":", counts[b])
	}
	row++

	line("Average Score:", fmt.Sprintf("%.2f", total/float64(len(rows))))
	line("Highest Score:", fmt.Sprintf("%.2f", maxScore))
	line("Lowest Score:", fmt.Sprintf("%.2f", minScore))
	line("Score Range:", fmt.Sprintf("%.2f", maxScore-minScore))
	line("Best Candidate:", rows[0].Name)

	return nil
}

// createRankedCandidatesSheet creates the ranked candidates sheet with color-coding
func createRankedCandidatesSheet(f *excelize.File, sheetName string, jobDescriptionPresent bool, rows []models.FlatRecord) error {
	headers := []string{"Rank", "Name", "Email", "Phone", "Experience (Years)", "Skills Count", "Skills"}
	widths := []float64{8, 25, 30, 18, 18, 12, 50}
	if jobDescriptionPresent {
		headers = append(headers, "Job Match (%)")
		widths = append(widths, 14)
	}
	headers = append(headers, "Final Score")
	widths = append(widths, 12)

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	bandStyles := make(map[Band]int, len(bandColors))
	for band, color := range bandColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return err
		}
		bandStyles[band] = style
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	for i, r := range rows {
		row := i + 2
		values := []any{r.Rank, r.Name, r.Email, r.Phone, r.ExperienceYears, r.SkillsCount, strings.Join(r.Skills, ", ")}
		if jobDescriptionPresent {
			values = append(values, *r.JobMatch)
		}
		values = append(values, r.FinalScore)

		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, first, &values); err != nil {
			return err
		}

		style := bandStyles[ScoreBand(r.FinalScore, jobDescriptionPresent)]
		f.SetCellStyle(sheetName, first, fmt.Sprintf("%s%d", lastCol, row), style)
	}

	// Enable auto-filter
	if len(rows) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}
