// Package scoring computes relevance and composite scores for candidates.
package scoring

import (
	"strings"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Scorer scores candidates against one job description shared by the whole batch
type Scorer struct {
	jobDescription string
	present        bool
}

// NewScorer creates a scorer. A blank job description disables relevance.
func NewScorer(jobDescription string) *Scorer {
	return &Scorer{
		jobDescription: jobDescription,
		present:        strings.TrimSpace(jobDescription) != "",
	}
}

// JobDescriptionPresent reports whether relevance contributes to scores
func (s *Scorer) JobDescriptionPresent() bool {
	return s.present
}

// ScoreCandidate builds the record for one document from its text and extracted profile
func (s *Scorer) ScoreCandidate(doc models.Document, text string, profile models.CandidateProfile) models.CandidateRecord {
	relevance := 0.0
	if s.present {
		relevance = Relevance(text, s.jobDescription)
	}

	return models.CandidateRecord{
		Index:          doc.Index,
		Source:         doc.Name,
		Profile:        profile,
		RelevanceScore: relevance,
		CompositeScore: FinalScore(profile.ExperienceYears, profile.Skills.Len(), relevance, s.present),
	}
}
