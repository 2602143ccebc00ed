package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

func record(index, exp int, score float64, skills ...string) models.CandidateRecord {
	return models.CandidateRecord{
		Index:          index,
		Profile:        models.CandidateProfile{ExperienceYears: exp, Skills: models.NewSkillSet(skills...)},
		CompositeScore: score,
	}
}

func indexes(records []models.CandidateRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Index)
	}
	return out
}

func TestRankSortsDescendingAndKeepsUploadOrderOnTies(t *testing.T) {
	snap := models.Snapshot{BatchID: "b"}.WithRecords([]models.CandidateRecord{
		record(0, 1, 20),
		record(1, 1, 45),
		record(2, 1, 20),
		record(3, 1, 45),
		record(4, 1, 30),
	})

	ranked := Rank(snap)

	assert.Equal(t, []int{1, 3, 4, 0, 2}, indexes(ranked.Records))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes(snap.Records), "input snapshot must not change")
	assert.Equal(t, "b", ranked.BatchID)
}

func TestMinExperienceFilter(t *testing.T) {
	snap := models.Snapshot{}.WithRecords([]models.CandidateRecord{
		record(0, 2, 10),
		record(1, 5, 25),
		record(2, 7, 40),
	})

	out := Apply(snap, models.FilterOptions{MinExperience: 5}, nil)

	require.Len(t, out.Records, 2)
	assert.Equal(t, []int{2, 1}, indexes(out.Records))
	assert.Equal(t, 7, out.Records[0].Profile.ExperienceYears)
	assert.Equal(t, 5, out.Records[1].Profile.ExperienceYears)
}

func TestMinScoreIsInclusive(t *testing.T) {
	records := []models.CandidateRecord{record(0, 0, 34.99), record(1, 0, 35), record(2, 0, 50)}

	kept, step := MinScore(35).Apply(records)

	assert.Equal(t, []int{1, 2}, indexes(kept))
	assert.Equal(t, Step{Initial: 3, Dropped: 1, Left: 2}, step)
}

func TestRequiredSkillsIgnoresCase(t *testing.T) {
	records := []models.CandidateRecord{
		record(0, 0, 0, "python", "sql", "Docker"),
		record(1, 0, 0, "Python"),
		record(2, 0, 0, "SQL"),
		record(3, 0, 0, "PYTHON", "Sql"),
	}

	kept, step := RequiredSkills("Python", "SQL", " ").Apply(records)

	assert.Equal(t, []int{0, 3}, indexes(kept))
	assert.Equal(t, 2, step.Dropped)
}

func TestFiltersAreConjunctive(t *testing.T) {
	snap := models.Snapshot{}.WithRecords([]models.CandidateRecord{
		record(0, 6, 50, "Go"),
		record(1, 6, 20, "Go"),
		record(2, 1, 50, "Go"),
		record(3, 6, 50, "Java"),
	})

	out := Apply(snap, models.FilterOptions{MinExperience: 3, MinScore: 40, RequiredSkills: []string{"go"}}, nil)

	assert.Equal(t, []int{0}, indexes(out.Records))
}

func TestZeroOptionsKeepEveryone(t *testing.T) {
	snap := models.Snapshot{}.WithRecords([]models.CandidateRecord{record(0, 0, 0), record(1, 3, 15)})

	out := Apply(snap, models.FilterOptions{}, nil)

	assert.Equal(t, []int{1, 0}, indexes(out.Records))
}

func TestRunLogsEachStep(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	snap := models.Snapshot{}.WithRecords([]models.CandidateRecord{record(0, 2, 10), record(1, 5, 25)})

	Run(snap, zap.New(core), MinExperience(5), MinScore(0))

	entries := observed.FilterMessage("filter step").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "min_experience(5)", entries[0].ContextMap()["name"])
	assert.Equal(t, int64(1), entries[0].ContextMap()["dropped"])
}

func TestBest(t *testing.T) {
	_, ok := Best(models.Snapshot{})
	assert.False(t, ok)

	snap := Rank(models.Snapshot{}.WithRecords([]models.CandidateRecord{record(0, 1, 5), record(1, 1, 9)}))
	best, ok := Best(snap)
	require.True(t, ok)
	assert.Equal(t, 1, best.Index)
}

func TestComputeBounds(t *testing.T) {
	b := ComputeBounds([]models.CandidateRecord{
		record(0, 4, 35, "Python", "SQL"),
		record(1, 1, 12.5, "python", "Go"),
		record(2, 9, 50),
	})

	assert.Equal(t, 1, b.MinExperience)
	assert.Equal(t, 9, b.MaxExperience)
	assert.Equal(t, 12.5, b.MinScore)
	assert.Equal(t, 50.0, b.MaxScore)
	assert.Equal(t, []string{"Go", "Python", "SQL"}, b.Skills)

	empty := ComputeBounds(nil)
	assert.Empty(t, empty.Skills)
	assert.NotNil(t, empty.Skills)
}
