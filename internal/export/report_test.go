package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score     float64
		jdPresent bool
		want      Band
	}{
		{score: 50, jdPresent: false, want: BandExcellent},
		{score: 37.5, jdPresent: false, want: BandExcellent},
		{score: 25, jdPresent: false, want: BandGood},
		{score: 12.5, jdPresent: false, want: BandFair},
		{score: 12, jdPresent: false, want: BandPoor},
		{score: 300, jdPresent: true, want: BandExcellent},
		{score: 50, jdPresent: true, want: BandPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreBand(tt.score, tt.jdPresent), "score %v jd=%v", tt.score, tt.jdPresent)
	}
}

func TestToFlatRecords(t *testing.T) {
	rows := ToFlatRecords(testSnapshot(false))
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, 2, rows[0].SkillsCount)
	assert.Nil(t, rows[0].JobMatch)
	assert.Equal(t, 2, rows[1].Rank)

	withJD := ToFlatRecords(testSnapshot(true))
	require.NotNil(t, withJD[0].JobMatch)
	assert.Equal(t, 80.0, *withJD[0].JobMatch)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, testSnapshot(true)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "JOB MATCH %")
	assert.Contains(t, lines[1], "Jane Doe")
	assert.Contains(t, lines[1], "315.00")
	assert.Contains(t, lines[2], "Unknown")

	buf.Reset()
	require.NoError(t, WriteTable(&buf, testSnapshot(false)))
	assert.NotContains(t, buf.String(), "JOB MATCH")
}

func TestExportToPDF(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report")
	require.NoError(t, ExportToPDF(testSnapshot(true), outputPath))

	data, err := os.ReadFile(outputPath + ".pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	want := testSnapshot(true)

	require.NoError(t, WriteSnapshot(path, want))
	got, err := ReadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, want.BatchID, got.BatchID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Records, 2)
	assert.Equal(t, "Jane Doe", got.Records[0].DisplayName())
	assert.True(t, got.Records[0].Profile.Skills.Has("sql"))
	assert.Equal(t, 315.0, got.Records[0].CompositeScore)
}

func TestReadSnapshotMissing(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
