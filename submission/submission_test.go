package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfgrader-server-go/models"
)

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected models.SubmissionMeta
	}{
		{
			name: "standard three segments",
			path: "submissions/morning-Alice-20231554.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "morning",
				Name:      "Alice",
				StudentID: "20231554",
			},
		},
		{
			name: "class time containing hyphens",
			path: "上午1-2节（830-1000）-蔡俊灏-2023151554.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "上午1-2节（830-1000）",
				Name:      "蔡俊灏",
				StudentID: "2023151554",
			},
		},
		{
			name: "segments are trimmed",
			path: "morning - Alice - 20231554 .pdf",
			expected: models.SubmissionMeta{
				ClassTime: "morning",
				Name:      "Alice",
				StudentID: "20231554",
			},
		},
		{
			name: "fallback with digit run",
			path: "hw_20231554.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "hw_20231554",
				StudentID: "20231554",
			},
		},
		{
			name: "fallback picks first long digit run",
			path: "20231554_20999999.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "20231554_20999999",
				StudentID: "20231554",
			},
		},
		{
			name: "fallback with short digit run has no id",
			path: "hw_1234567.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "hw_1234567",
			},
		},
		{
			name: "two segments fall back",
			path: "morning-Alice.pdf",
			expected: models.SubmissionMeta{
				ClassTime: "morning-Alice",
			},
		},
		{
			name: "no extension",
			path: "hw_20231554",
			expected: models.SubmissionMeta{
				ClassTime: "hw_20231554",
				StudentID: "20231554",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseMeta(tc.path))
		})
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b-Bob-20230002.pdf", "a-Ann-20230001.pdf", "C-Cid-20230003.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skipped.pdf.d"), 0o755))

	paths := Scan(dir)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "C-Cid-20230003.PDF"), paths[0])
	assert.Equal(t, filepath.Join(dir, "a-Ann-20230001.pdf"), paths[1])
	assert.Equal(t, filepath.Join(dir, "b-Bob-20230002.pdf"), paths[2])
}

func TestScanMissingDir(t *testing.T) {
	assert.Empty(t, Scan(filepath.Join(t.TempDir(), "nope")))
}
