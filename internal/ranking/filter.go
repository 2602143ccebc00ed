package ranking

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Filter is a single filtering step applied to ranked candidates.
// Implementations never reorder the records they keep.
type Filter interface {
	Name() string
	Apply(records []models.CandidateRecord) ([]models.CandidateRecord, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run applies the filters in order; a candidate must pass all of them.
// It returns a new snapshot and leaves the input unchanged.
func Run(s models.Snapshot, log *zap.Logger, filters ...Filter) models.Snapshot {
	log = logger.OrNop(log)

	records := s.Records
	for _, f := range filters {
		next, info := f.Apply(records)
		log.Info("filter step",
			zap.String("name", f.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		records = next
	}

	return s.WithRecords(records)
}

// Apply ranks the snapshot and then filters it with the given options
func Apply(s models.Snapshot, opts models.FilterOptions, log *zap.Logger) models.Snapshot {
	return Run(Rank(s), log, FromOptions(opts)...)
}

// FromOptions builds the filter chain described by the options.
// Zero values produce filters that keep every candidate.
func FromOptions(opts models.FilterOptions) []Filter {
	filters := []Filter{
		MinExperience(opts.MinExperience),
		MinScore(opts.MinScore),
	}
	if len(opts.RequiredSkills) > 0 {
		filters = append(filters, RequiredSkills(opts.RequiredSkills...))
	}
	return filters
}

type predicateFilter struct {
	name string
	keep func(models.CandidateRecord) bool
}

func (f predicateFilter) Name() string { return f.name }

func (f predicateFilter) Apply(records []models.CandidateRecord) ([]models.CandidateRecord, Step) {
	kept := make([]models.CandidateRecord, 0, len(records))
	for _, r := range records {
		if f.keep(r) {
			kept = append(kept, r)
		}
	}
	return kept, Step{Initial: len(records), Dropped: len(records) - len(kept), Left: len(kept)}
}

// MinExperience keeps candidates with at least the given years of experience
func MinExperience(years int) Filter {
	return predicateFilter{
		name: fmt.Sprintf("min_experience(%d)", years),
		keep: func(r models.CandidateRecord) bool { return r.Profile.ExperienceYears >= years },
	}
}

// MinScore keeps candidates whose composite score is at least the given value
func MinScore(score float64) Filter {
	return predicateFilter{
		name: fmt.Sprintf("min_score(%.2f)", score),
		keep: func(r models.CandidateRecord) bool { return r.CompositeScore >= score },
	}
}

// RequiredSkills keeps candidates having every listed skill, ignoring case.
// Blank entries are ignored.
func RequiredSkills(skills ...string) Filter {
	required := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			required = append(required, s)
		}
	}

	return predicateFilter{
		name: fmt.Sprintf("required_skills(%s)", strings.Join(required, ",")),
		keep: func(r models.CandidateRecord) bool {
			for _, s := range required {
				if !r.Profile.Skills.Has(s) {
					return false
				}
			}
			return true
		},
	}
}
