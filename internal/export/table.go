package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// WriteTable prints the ranked candidates as an aligned table
func WriteTable(w io.Writer, s models.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"#", "NAME", "EMAIL", "PHONE", "EXPERIENCE", "SKILLS", "SKILL LIST"}
	if s.JobDescriptionPresent {
		header = append(header, "JOB MATCH %")
	}
	header = append(header, "SCORE")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range ToFlatRecords(s) {
		cols := []string{
			fmt.Sprint(r.Rank),
			r.Name,
			dash(r.Email),
			dash(r.Phone),
			fmt.Sprint(r.ExperienceYears),
			fmt.Sprint(r.SkillsCount),
			dash(strings.Join(r.Skills, ", ")),
		}
		if r.JobMatch != nil {
			cols = append(cols, fmt.Sprintf("%.2f", *r.JobMatch))
		}
		cols = append(cols, fmt.Sprintf("%.2f", r.FinalScore))
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}

	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// WriteSnapshot saves the snapshot as JSON so a later stage can pick it up
func WriteSnapshot(path string, s models.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot
func ReadSnapshot(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return s, nil
}
