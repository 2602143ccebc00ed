// Package export renders ranked candidates for people and for the next stage of a run.
package export

import (
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/scoring"
)

// ToFlatRecords turns a snapshot into display rows, keeping its order.
// JobMatch is only set when the batch was scored against a job description.
func ToFlatRecords(s models.Snapshot) []models.FlatRecord {
	rows := make([]models.FlatRecord, 0, len(s.Records))
	for i, r := range s.Records {
		rows = append(rows, ToFlatRecord(r, i+1, s.JobDescriptionPresent))
	}
	return rows
}

// ToFlatRecord builds the display row of one candidate
func ToFlatRecord(r models.CandidateRecord, rank int, jobDescriptionPresent bool) models.FlatRecord {
	row := models.FlatRecord{
		Rank:            rank,
		Name:            r.DisplayName(),
		Email:           models.StringValue(r.Profile.Email),
		Phone:           models.StringValue(r.Profile.Phone),
		ExperienceYears: r.Profile.ExperienceYears,
		SkillsCount:     r.Profile.Skills.Len(),
		Skills:          r.Profile.Skills.List(),
		FinalScore:      r.CompositeScore,
	}
	if jobDescriptionPresent {
		match := r.RelevanceScore
		row.JobMatch = &match
	}
	return row
}

// Band classifies a score relative to the highest score reachable in the batch
type Band int

const (
	BandPoor Band = iota
	BandFair
	BandGood
	BandExcellent
)

func (b Band) String() string {
	switch b {
	case BandExcellent:
		return "Excellent"
	case BandGood:
		return "Good"
	case BandFair:
		return "Fair"
	}
	return "Poor"
}

// MaxScore is the highest composite score reachable with or without a job description
func MaxScore(jobDescriptionPresent bool) float64 {
	return scoring.FinalScore(scoring.ExperienceCap, scoring.SkillsCap, 100, jobDescriptionPresent)
}

// ScoreBand returns the band of a score: 75%, 50% and 25% of the maximum are the thresholds
func ScoreBand(score float64, jobDescriptionPresent bool) Band {
	ratio := score / MaxScore(jobDescriptionPresent)
	switch {
	case ratio >= 0.75:
		return BandExcellent
	case ratio >= 0.5:
		return BandGood
	case ratio >= 0.25:
		return BandFair
	}
	return BandPoor
}
