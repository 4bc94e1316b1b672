package models

import (
	"strconv"
	"strings"
)

// Score bounds for each question.
const (
	ScoreMin = 0
	ScoreMax = 50
)

// Columns is the canonical column order of the persisted gradebook CSV and
// of the exported spreadsheet. Stored rows and exports must always carry all
// eight columns in this order.
var Columns = []string{
	"class_time",
	"name",
	"student_id",
	"q1_score",
	"q2_score",
	"total_score",
	"comment",
	"file",
}

// SubmissionMeta is the identity information recovered from a submission
// file name.
type SubmissionMeta struct {
	ClassTime string `json:"classTime"` // section/time-slot label, may be empty
	Name      string `json:"name"`      // student display name, may be empty
	StudentID string `json:"studentId"` // stable identity key, may be empty
}

// GradeRecord is one grading row: one student's scores for one submission.
// Q1Score and Q2Score are nil when the grader left the question unscored;
// TotalScore is always derived from them and never edited independently.
type GradeRecord struct {
	ClassTime  string `json:"classTime"`
	Name       string `json:"name"`
	StudentID  string `json:"studentId"`
	Q1Score    *int   `json:"q1Score"`
	Q2Score    *int   `json:"q2Score"`
	TotalScore int    `json:"totalScore"`
	Comment    string `json:"comment"`
	File       string `json:"file"`
}

// ComputeTotal returns (q1 or 0) + (q2 or 0).
func (r *GradeRecord) ComputeTotal() int {
	total := 0
	if r.Q1Score != nil {
		total += *r.Q1Score
	}
	if r.Q2Score != nil {
		total += *r.Q2Score
	}
	return total
}

// HasScore reports whether at least one of the two questions is scored.
// Records failing this check must never be saved.
func (r *GradeRecord) HasScore() bool {
	return r.Q1Score != nil || r.Q2Score != nil
}

// ClampScore forces v into [ScoreMin, ScoreMax].
func ClampScore(v int) int {
	if v < ScoreMin {
		return ScoreMin
	}
	if v > ScoreMax {
		return ScoreMax
	}
	return v
}

// CoerceScore parses a stored score cell into an optional score. Empty cells,
// "nan" leftovers and non-numeric garbage all coerce to absent; legacy float
// forms like "30.0" are accepted and truncated.
func CoerceScore(cell string) *int {
	s := strings.TrimSpace(cell)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		v := int(fv)
		return &v
	}
	return nil
}

// ScoreCell renders an optional score back into its CSV cell form.
func ScoreCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
