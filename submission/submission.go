package submission

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"pdfgrader-server-go/models"
)

// Matches the first run of 8 or more digits, treated as a student id when the
// filename does not follow the hyphen convention.
var studentIDRun = regexp.MustCompile(`\d{8,}`)

// ParseMeta extracts (class_time, name, student_id) from a submission path.
// The expected stem form is <class_time>-<name>-<student_id>; with three or
// more hyphen-delimited segments the last is the student id, the second to
// last the name, and everything before them (rejoined with "-") the class
// time. Shorter stems fall back to scanning for a long digit run as the id,
// with the whole stem kept as class time so the row still lands in a sheet.
func ParseMeta(path string) models.SubmissionMeta {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var meta models.SubmissionMeta
	parts := strings.Split(stem, "-")
	if len(parts) >= 3 {
		meta.StudentID = strings.TrimSpace(parts[len(parts)-1])
		meta.Name = strings.TrimSpace(parts[len(parts)-2])
		meta.ClassTime = strings.TrimSpace(strings.Join(parts[:len(parts)-2], "-"))
		return meta
	}

	if m := studentIDRun.FindString(stem); m != "" {
		meta.StudentID = m
	}
	meta.ClassTime = strings.TrimSpace(stem)
	return meta
}

// Scan lists the PDF files in dir in sorted order. A missing or unreadable
// directory yields an empty corpus rather than an error; the grader picks a
// different folder from the shell.
func Scan(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}
