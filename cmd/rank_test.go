package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

func TestLoadArgsOrdersDirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"b.pdf":     "%PDF-1.4",
		"a.png":     "\x89PNG\r\n\x1a\n",
		"notes.txt": "skip me",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	single := filepath.Join(t.TempDir(), "z.pdf")
	require.NoError(t, os.WriteFile(single, []byte("%PDF-1.4"), 0o600))

	docs, err := loadArgs([]string{single, dir})
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "z.pdf", docs[0].Name)
	assert.Equal(t, "a.png", docs[1].Name)
	assert.Equal(t, "b.pdf", docs[2].Name)
	assert.Equal(t, 2, docs[2].Index)
}

func TestDescribeBounds(t *testing.T) {
	got := describeBounds(models.Bounds{
		MinExperience: 1, MaxExperience: 6,
		MinScore: 10, MaxScore: 42.5,
		Skills: []string{"Go", "SQL"},
	})
	assert.Equal(t, "Batch: experience 1-6 years, score 10.00-42.50, skills: Go, SQL", got)

	assert.Contains(t, describeBounds(models.Bounds{Skills: []string{}}), "skills: none")
}

func TestLoadArgsMissingPath(t *testing.T) {
	_, err := loadArgs([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	out := config.OutputConfig{
		Excel:    filepath.Join(dir, "report"),
		PDF:      filepath.Join(dir, "report.pdf"),
		Snapshot: filepath.Join(dir, "snapshot.json"),
	}

	require.NoError(t, writeOutputs(out, models.Snapshot{BatchID: "b1"}, zap.NewNop()))

	for _, name := range []string{"report.xlsx", "report.pdf", "snapshot.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}
