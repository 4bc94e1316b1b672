package db

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"pdfgrader-server-go/models"
)

// utf8BOM is written at the head of the CSV so Excel on zh-CN machines opens
// it with the right encoding (the "utf-8-sig" convention).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVStore handles the grading record table and its flat-file persistence.
// The whole table lives in memory and is rewritten to disk after every
// upsert, so on-disk state is never older than the last successful save.
type CSVStore struct {
	path string
	rows []models.GradeRecord
}

// NewCSVStore creates a store persisting to path. Call Load before use.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the location of the persisted CSV.
func (s *CSVStore) Path() string { return s.path }

// Count returns the number of rows currently held.
func (s *CSVStore) Count() int { return len(s.rows) }

// Load reads the persisted rows into memory. A missing file means a fresh
// gradebook and is silent; an unreadable or unparseable file also starts the
// store empty but logs a warning naming the file, since the grader should
// know prior data was set aside.
func (s *CSVStore) Load() {
	s.rows = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: cannot read gradebook %s, starting empty: %v", s.path, err)
		}
		return
	}

	rows, err := parseCSV(data)
	if err != nil {
		log.Printf("Warning: gradebook %s is not a readable CSV, starting empty: %v", s.path, err)
		return
	}
	s.rows = rows
}

// parseCSV decodes the raw file into records. The BOM is stripped and
// non-UTF-8 input is retried as GBK before parsing, tolerating files
// re-saved by a zh-CN spreadsheet application.
func parseCSV(data []byte) ([]models.GradeRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode file as UTF-8 or GBK: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	// Header-driven column mapping; absent columns coerce to empty and
	// unknown columns are ignored.
	colIndex := make(map[string]int, len(lines[0]))
	for i, name := range lines[0] {
		colIndex[strings.TrimSpace(name)] = i
	}
	cell := func(line []string, col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(line) {
			return ""
		}
		return line[i]
	}

	rows := make([]models.GradeRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rec := models.GradeRecord{
			ClassTime: cell(line, "class_time"),
			Name:      cell(line, "name"),
			StudentID: strings.TrimSpace(cell(line, "student_id")),
			Q1Score:   models.CoerceScore(cell(line, "q1_score")),
			Q2Score:   models.CoerceScore(cell(line, "q2_score")),
			Comment:   cell(line, "comment"),
			File:      cell(line, "file"),
		}
		// total_score is derived, never trusted from the file.
		rec.TotalScore = rec.ComputeTotal()
		rows = append(rows, rec)
	}
	return rows, nil
}

// Upsert inserts rec, overwriting the most recent row with the same
// non-empty student id in place. Rows with an empty student id cannot be
// matched and are always appended. TotalScore is recomputed here.
func (s *CSVStore) Upsert(rec models.GradeRecord) {
	rec.StudentID = strings.TrimSpace(rec.StudentID)
	rec.TotalScore = rec.ComputeTotal()

	if rec.StudentID != "" {
		for i := len(s.rows) - 1; i >= 0; i-- {
			if s.rows[i].StudentID == rec.StudentID {
				s.rows[i] = rec
				return
			}
		}
	}
	s.rows = append(s.rows, rec)
}

// Lookup returns a copy of the most recently upserted row matching the id,
// or nil when the id is empty or unknown.
func (s *CSVStore) Lookup(studentID string) *models.GradeRecord {
	sid := strings.TrimSpace(studentID)
	if sid == "" {
		return nil
	}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].StudentID == sid {
			rec := s.rows[i]
			return &rec
		}
	}
	return nil
}

// Records returns a snapshot copy of all rows in insertion order.
func (s *CSVStore) Records() []models.GradeRecord {
	out := make([]models.GradeRecord, len(s.rows))
	copy(out, s.rows)
	return out
}

// Persist rewrites the whole table to disk with the canonical 8-column
// header and a UTF-8 BOM.
func (s *CSVStore) Persist() error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range s.rows {
		line := []string{
			rec.ClassTime,
			rec.Name,
			rec.StudentID,
			models.ScoreCell(rec.Q1Score),
			models.ScoreCell(rec.Q2Score),
			strconv.Itoa(rec.TotalScore),
			rec.Comment,
			rec.File,
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write gradebook %s: %w", s.path, err)
	}
	return nil
}

// UpsertAndPersist is the save operation the shell calls: upsert followed by
// an immediate flush, so a crash never loses more than the in-flight save.
func (s *CSVStore) UpsertAndPersist(rec models.GradeRecord) error {
	s.Upsert(rec)
	if err := s.Persist(); err != nil {
		log.Printf("Error persisting gradebook after upsert for student %q: %v", rec.StudentID, err)
		return err
	}
	return nil
}
