package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	t.Parallel()

	tmpl := DefaultTemplates()
	assert.Contains(t, tmpl.Latest, "ROW_NUMBER() OVER (PARTITION BY device")
	assert.Contains(t, tmpl.Latest, "rn <= 20")
	assert.Contains(t, tmpl.AvgMetrics, "AVG(co) AS avg_co")
	assert.Contains(t, tmpl.MaxMetrics, "MAX(co) AS max_co")
	assert.Contains(t, tmpl.AlertCounts, "co >= 0.120")
	assert.Contains(t, tmpl.HumidityCO, "GROUP BY humidity")
	assert.Contains(t, tmpl.TempDist, "COUNT(*) AS count")
}

func TestLoadTemplates_EmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	tmpl, err := LoadTemplates("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplates(), tmpl)
}

func TestLoadTemplates_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temp_dist: SELECT temp FROM processed\n"), 0o600))

	tmpl, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT temp FROM processed", tmpl.TempDist)
	// Untouched entries keep their defaults.
	assert.Equal(t, DefaultTemplates().Latest, tmpl.Latest)
}

func TestLoadTemplates_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadTemplates_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o600))

	_, err := LoadTemplates(path)
	require.Error(t, err)
}
