package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8470", cfg.Server.Address)
	assert.Equal(t, "submissions", cfg.Paths.SubmissionsDir)
	assert.Equal(t, "manual_grades.csv", cfg.Paths.GradesCSV)
	assert.Equal(t, "gradebook_export.xlsx", cfg.Paths.GradebookXLSX)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `server:
  address: ":9000"
paths:
  submissions_dir: /data/submissions
  grades_csv: /data/grades.csv
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "/data/submissions", cfg.Paths.SubmissionsDir)
	assert.Equal(t, "/data/grades.csv", cfg.Paths.GradesCSV)
	// Unset fields still get defaults.
	assert.Equal(t, "gradebook_export.xlsx", cfg.Paths.GradebookXLSX)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("GRADER_ADDRESS", ":7777")
	t.Setenv("GRADER_SUBMISSIONS_DIR", "/srv/pdfs")
	t.Setenv("GRADER_GRADES_CSV", "/srv/grades.csv")
	t.Setenv("GRADER_GRADEBOOK_XLSX", "/srv/out.xlsx")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "/srv/pdfs", cfg.Paths.SubmissionsDir)
	assert.Equal(t, "/srv/grades.csv", cfg.Paths.GradesCSV)
	assert.Equal(t, "/srv/out.xlsx", cfg.Paths.GradebookXLSX)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.Error(t, err)
}
