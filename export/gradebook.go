// Package export writes the gradebook spreadsheet: one sheet per class
// section, rows sorted by student id, missing identities and missing
// question scores highlighted.
package export

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pdfgrader-server-go/models"
)

// UngroupedSheet collects rows whose class_time is blank.
const UngroupedSheet = "未分组"

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

// Student ids that are not purely numeric sort after every numeric id.
const nonNumericIDKey = int64(1000000000000000000)

// Highlight fills, matching the gradebook's established colors: light yellow
// for a missing question score, light red for a missing identity.
const (
	fillMissing = "FFF2CC"
	fillAlert   = "FFC7CE"
)

// Widths of columns A..H (class_time .. file).
var columnWidths = []float64{24, 10, 14, 10, 10, 12, 40, 30}

// WriteGradebook builds the spreadsheet from the full record table and saves
// it to path. Output is deterministic for identical input.
func WriteGradebook(records []models.GradeRecord, path string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing gradebook workbook: %v", err)
		}
	}()

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	sections := groupBySection(records)
	labels := make([]string, 0, len(sections))
	for label := range sections {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	// The 未分组 fallback sheet is always present so an empty table still
	// produces a valid workbook.
	if len(labels) == 0 {
		labels = append(labels, UngroupedSheet)
		sections[UngroupedSheet] = nil
	}

	for _, label := range labels {
		name := sheetName(f, label)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
		if err := writeSection(f, name, sections[label], styles); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}

	// Drop the default sheet excelize starts with.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save gradebook %s: %w", path, err)
	}
	return nil
}

type sheetStyles struct {
	header  int
	body    int
	alert   int
	missing int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	body := excelize.Alignment{Vertical: "top", WrapText: true}
	s.body, err = f.NewStyle(&excelize.Style{Alignment: &body})
	if err != nil {
		return s, fmt.Errorf("failed to create body style: %w", err)
	}
	s.alert, err = f.NewStyle(&excelize.Style{
		Alignment: &body,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fillAlert}},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create alert style: %w", err)
	}
	s.missing, err = f.NewStyle(&excelize.Style{
		Alignment: &body,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fillMissing}},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create missing style: %w", err)
	}
	return s, nil
}

// groupBySection buckets records by trimmed class_time; blank sections fall
// into the 未分组 bucket.
func groupBySection(records []models.GradeRecord) map[string][]models.GradeRecord {
	sections := make(map[string][]models.GradeRecord)
	for _, rec := range records {
		label := strings.TrimSpace(rec.ClassTime)
		if label == "" {
			label = UngroupedSheet
		}
		sections[label] = append(sections[label], rec)
	}
	return sections
}

// studentIDKey orders purely numeric ids ascending; anything else gets the
// sentinel so it sorts after all numeric ids.
func studentIDKey(id string) int64 {
	s := strings.TrimSpace(id)
	if s == "" {
		return nonNumericIDKey
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nonNumericIDKey
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nonNumericIDKey
	}
	return v
}

func sortSection(records []models.GradeRecord) []models.GradeRecord {
	sorted := make([]models.GradeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := studentIDKey(sorted[i].StudentID), studentIDKey(sorted[j].StudentID)
		if ki != kj {
			return ki < kj
		}
		if sorted[i].StudentID != sorted[j].StudentID {
			return sorted[i].StudentID < sorted[j].StudentID
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// sheetName truncates the section label to the 31-character limit and
// resolves collisions with _1, _2, ... suffixes, re-truncating the base so
// the suffixed name still fits.
func sheetName(f *excelize.File, label string) string {
	base := []rune(label)
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	name := string(base)
	for k := 1; sheetExists(f, name); k++ {
		suffix := fmt.Sprintf("_%d", k)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		name = string(trimmed) + suffix
	}
	return name
}

func sheetExists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func writeSection(f *excelize.File, sheet string, records []models.GradeRecord, styles sheetStyles) error {
	header := make([]interface{}, len(models.Columns))
	for i, c := range models.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", styles.header); err != nil {
		return err
	}

	for i, w := range columnWidths {
		col := string(rune('A' + i))
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	for i, rec := range sortSection(records) {
		rowNum := i + 2
		row := []interface{}{
			rec.ClassTime,
			rec.Name,
			rec.StudentID,
			scoreValue(rec.Q1Score),
			scoreValue(rec.Q2Score),
			rec.TotalScore,
			rec.Comment,
			rec.File,
		}
		anchor := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(sheet, anchor, &row); err != nil {
			return err
		}

		rowStyle := styles.body
		if strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.StudentID) == "" {
			rowStyle = styles.alert
		}
		if err := f.SetCellStyle(sheet, anchor, fmt.Sprintf("H%d", rowNum), rowStyle); err != nil {
			return err
		}
		// Missing-score cells keep their yellow fill even on an alert row.
		if rec.Q1Score == nil {
			cell := fmt.Sprintf("D%d", rowNum)
			if err := f.SetCellStyle(sheet, cell, cell, styles.missing); err != nil {
				return err
			}
		}
		if rec.Q2Score == nil {
			cell := fmt.Sprintf("E%d", rowNum)
			if err := f.SetCellStyle(sheet, cell, cell, styles.missing); err != nil {
				return err
			}
		}
	}
	return nil
}

// scoreValue writes absent scores as empty cells rather than zeros.
func scoreValue(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
