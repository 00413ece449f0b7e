package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/valueseries"
)

func result(id, model string) benchmark.Result {
	return benchmark.Result{
		ID:        id,
		CreatedAt: time.UnixMilli(1_700_000_000_000).UTC(),
		BasicInfo: benchmark.BasicInfo{
			StartMs:       1_700_000_000_000,
			EndMs:         1_700_000_004_000,
			ModelName:     model,
			Accelerator:   "gpu",
			PrefillTokens: 256,
			DecodeTokens:  128,
			NumberOfRuns:  2,
			AppVersion:    "test",
		},
		Stats: map[benchmark.Metric]valueseries.ValueSeries{
			benchmark.MetricDecodeSpeed: valueseries.Summarize([]float64{20, 24}),
		},
	}
}

func TestJSONFileMissingFileIsEmpty(t *testing.T) {
	repo := NewJSONFile(filepath.Join(t.TempDir(), "nested", "results.json"))
	results, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestJSONFileAppendAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "results.json")
	repo := NewJSONFile(path)

	require.NoError(t, repo.Append(result("a", "m1")))
	require.NoError(t, repo.Append(result("b", "m2")))
	require.NoError(t, repo.Append(result("c", "m3")))

	reopened := NewJSONFile(path)
	results, err := reopened.GetAll()
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].ID)
	assert.Equal(t, "a", results[2].ID)
	assert.Equal(t, result("b", "m2"), results[1])

	require.NoError(t, reopened.DeleteAt(1))
	results, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c", results[0].ID)
	assert.Equal(t, "a", results[1].ID)

	err = repo.DeleteAt(5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteAt(-1), ErrNotFound)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestJSONFileEmptyAfterDeletingEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	repo := NewJSONFile(path)
	require.NoError(t, repo.Append(result("a", "m")))
	require.NoError(t, repo.DeleteAt(0))

	results, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, repo.Close())
}

func TestJSONFileRejectsInvalidDocument(t *testing.T) {
	cases := map[string]string{
		"not json":        "{",
		"missing results": `{"version":1}`,
		"wrong types":     `{"version":1,"results":[{"basicInfo":{"modelName":3,"accelerator":"cpu","numberOfRuns":1}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := NewJSONFile(path).GetAll()
			assert.Error(t, err)
		})
	}
}

func TestJSONFileAcceptsBlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))
	results, err := NewJSONFile(path).GetAll()
	require.NoError(t, err)
	assert.Empty(t, results)
}
