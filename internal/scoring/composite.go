package scoring

import "math"

const (
	ExperiencePointsPerYear = 5
	ExperienceCap           = 30
	SkillPointsPerSkill     = 5
	SkillsCap               = 20
	RelevanceWeight         = 350
)

// FinalScore combines experience, skill count and relevance into the ranking score.
// Relevance only counts when a job description was supplied, so the range is
// [0,50] without one and [0,400] with one.
func FinalScore(experienceYears, skillsCount int, relevance float64, jobDescriptionPresent bool) float64 {
	score := math.Min(float64(experienceYears*ExperiencePointsPerYear), ExperienceCap)
	score += math.Min(float64(skillsCount*SkillPointsPerSkill), SkillsCap)

	if jobDescriptionPresent {
		score += relevance / 100 * RelevanceWeight
	}

	return round2(score)
}
