package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelabs/probe-api/internal/model"
)

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFixtures(t *testing.T) {
	path := writeFixtureFile(t, `
free:
  analysis_type: "Custom Scout"
  basic_seo_score: 90
deep:
  analysis_type: "Custom Deep"
`)

	fixtures, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, "Custom Scout", fixtures[model.TierFree]["analysis_type"])
	assert.Equal(t, 90, fixtures[model.TierFree]["basic_seo_score"])
	assert.Equal(t, "Custom Deep", fixtures[model.TierDeep]["analysis_type"])
}

func TestLoadFixtures_UnknownTier(t *testing.T) {
	path := writeFixtureFile(t, `
premium:
  analysis_type: "Nope"
`)

	_, err := LoadFixtures(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tier")
}

func TestLoadFixtures_MissingFile(t *testing.T) {
	_, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
