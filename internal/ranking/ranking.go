// Package ranking orders scored candidates and narrows them down with filters.
package ranking

import (
	"sort"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Rank returns a snapshot whose records are sorted by composite score, highest first.
// Equal scores keep their original upload order. The input snapshot is left untouched.
func Rank(s models.Snapshot) models.Snapshot {
	return s.WithRecords(Sort(s.Records))
}

// Sort returns a sorted copy of the records
func Sort(records []models.CandidateRecord) []models.CandidateRecord {
	out := make([]models.CandidateRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Best returns the top candidate of a ranked snapshot.
// ok is false when the snapshot holds no candidates.
func Best(s models.Snapshot) (best models.CandidateRecord, ok bool) {
	if len(s.Records) == 0 {
		return models.CandidateRecord{}, false
	}
	return s.Records[0], true
}

// ComputeBounds returns the ranges of the given records. Skills is the sorted union of all skill sets.
func ComputeBounds(records []models.CandidateRecord) models.Bounds {
	b := models.Bounds{Skills: []string{}}
	if len(records) == 0 {
		return b
	}

	all := models.NewSkillSet()
	for i, r := range records {
		exp, score := r.Profile.ExperienceYears, r.CompositeScore
		if i == 0 || exp < b.MinExperience {
			b.MinExperience = exp
		}
		if i == 0 || exp > b.MaxExperience {
			b.MaxExperience = exp
		}
		if i == 0 || score < b.MinScore {
			b.MinScore = score
		}
		if i == 0 || score > b.MaxScore {
			b.MaxScore = score
		}
		for _, skill := range r.Profile.Skills.List() {
			all.Add(skill)
		}
	}

	b.Skills = all.List()
	return b
}
