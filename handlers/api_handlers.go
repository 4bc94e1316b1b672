package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"pdfgrader-server-go/db"
	"pdfgrader-server-go/export"
	"pdfgrader-server-go/models"
	"pdfgrader-server-go/quickentry"
	"pdfgrader-server-go/submission"
)

// APIHandler holds the dependencies for API handlers: the record store, the
// submission corpus and the single grading session (cursor, draft scores and
// quick-entry machine). One grader, one session.
type APIHandler struct {
	Store         *db.CSVStore
	GradebookPath string

	// gin serves requests on multiple goroutines; the session state below
	// is shared between them.
	mu             sync.Mutex
	submissionsDir string
	paths          []string
	cursor         int
	machine        *quickentry.Machine
	draft          draft
}

// draft is the editable state of the currently displayed submission before
// it is saved into the store.
type draft struct {
	Q1      *int
	Q2      *int
	Comment string
}

// NewAPIHandler creates an APIHandler, scans the submissions folder and
// positions the session on the first submission.
func NewAPIHandler(store *db.CSVStore, submissionsDir, gradebookPath string) *APIHandler {
	h := &APIHandler{
		Store:          store,
		GradebookPath:  gradebookPath,
		submissionsDir: submissionsDir,
		machine:        quickentry.NewMachine(),
	}
	h.paths = submission.Scan(submissionsDir)
	h.loadSubmissionLocked(0)
	return h
}

// SubmissionCount returns the number of PDFs in the current corpus.
func (h *APIHandler) SubmissionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.paths)
}

// loadSubmissionLocked moves the cursor (clamped into range), resets the
// quick-entry machine and populates the draft from any existing record for
// the submission's student id. Callers must hold h.mu.
func (h *APIHandler) loadSubmissionLocked(idx int) {
	h.machine.Reset()
	h.draft = draft{}

	if len(h.paths) == 0 {
		h.cursor = 0
		return
	}

	if idx < 0 {
		idx = 0
	}
	if idx > len(h.paths)-1 {
		idx = len(h.paths) - 1
	}
	h.cursor = idx

	meta := submission.ParseMeta(h.paths[h.cursor])
	if rec := h.Store.Lookup(meta.StudentID); rec != nil {
		h.draft.Q1 = rec.Q1Score
		h.draft.Q2 = rec.Q2Score
		h.draft.Comment = rec.Comment
	}
}

// --- Submission Handlers ---

// ListSubmissions handles GET /api/submissions
func (h *APIHandler) ListSubmissions(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]gin.H, 0, len(h.paths))
	for i, p := range h.paths {
		meta := submission.ParseMeta(p)
		out = append(out, gin.H{
			"index":     i,
			"file":      filepath.Base(p),
			"classTime": meta.ClassTime,
			"name":      meta.Name,
			"studentId": meta.StudentID,
			"graded":    h.Store.Lookup(meta.StudentID) != nil,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetCurrent handles GET /api/session
func (h *APIHandler) GetCurrent(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, h.currentViewLocked())
}

// SetCurrent handles POST /api/session. Navigation always resets
// the quick-entry machine.
func (h *APIHandler) SetCurrent(c *gin.Context) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field 'index' is required"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadSubmissionLocked(*req.Index)
	c.JSON(http.StatusOK, h.currentViewLocked())
}

// ServeSubmissionFile handles GET /api/submissions/:index/file. The shell
// fetches the raw PDF here and owns all rendering.
func (h *APIHandler) ServeSubmissionFile(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission index"})
		return
	}

	h.mu.Lock()
	if idx < 0 || idx >= len(h.paths) {
		h.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	path := h.paths[idx]
	h.mu.Unlock()

	c.File(path)
}

// RescanSubmissions handles POST /api/session/rescan. An optional "dir"
// switches the corpus folder; the cursor returns to the first submission.
func (h *APIHandler) RescanSubmissions(c *gin.Context) {
	var req struct {
		Dir string `json:"dir"`
	}
	// body is optional; ignore bind errors on an empty body
	_ = c.ShouldBindJSON(&req)

	h.mu.Lock()
	defer h.mu.Unlock()

	if strings.TrimSpace(req.Dir) != "" {
		h.submissionsDir = strings.TrimSpace(req.Dir)
	}
	h.paths = submission.Scan(h.submissionsDir)
	h.loadSubmissionLocked(0)

	if len(h.paths) == 0 {
		log.Printf("No PDF submissions found in %s", h.submissionsDir)
	}
	c.JSON(http.StatusOK, gin.H{
		"dir":   h.submissionsDir,
		"count": len(h.paths),
	})
}

// --- Record Handlers ---

// ListRecords handles GET /api/records
func (h *APIHandler) ListRecords(c *gin.Context) {
	h.mu.Lock()
	records := h.Store.Records()
	h.mu.Unlock()
	c.JSON(http.StatusOK, records)
}

// GetRecord handles GET /api/records/:studentId
func (h *APIHandler) GetRecord(c *gin.Context) {
	studentID := c.Param("studentId")
	h.mu.Lock()
	rec := h.Store.Lookup(studentID)
	h.mu.Unlock()
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No record for this student"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpsertRecord handles POST /api/records. Saving a record with both scores
// absent is rejected and leaves the store untouched.
func (h *APIHandler) UpsertRecord(c *gin.Context) {
	var rec models.GradeRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if !rec.HasScore() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one of q1/q2 must be scored (0-50)"})
		return
	}
	clampDraftScores(&rec)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Store.UpsertAndPersist(rec); err != nil {
		log.Printf("Error in UpsertRecord handler for student %q: %v", rec.StudentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save record"})
		return
	}

	rec.TotalScore = rec.ComputeTotal()
	c.JSON(http.StatusOK, rec)
}

func clampDraftScores(rec *models.GradeRecord) {
	if rec.Q1Score != nil {
		v := models.ClampScore(*rec.Q1Score)
		rec.Q1Score = &v
	}
	if rec.Q2Score != nil {
		v := models.ClampScore(*rec.Q2Score)
		rec.Q2Score = &v
	}
}

// --- Quick-entry Handlers ---

// QuickEntryKey handles POST /api/quickentry/key. Accepted keys: single
// digits "0".."9", "enter", "backspace", "escape". The shell must not
// forward keys while its comment box has focus.
func (h *APIHandler) QuickEntryKey(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field 'key' is required"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var action quickentry.Action
	switch key := strings.ToLower(req.Key); key {
	case "enter":
		action = h.machine.HandleEnter()
	case "backspace":
		action = h.machine.HandleBackspace()
	case "escape":
		action = h.machine.HandleEscape()
	default:
		if len(key) != 1 || key[0] < '0' || key[0] > '9' {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported key: " + req.Key})
			return
		}
		action = h.machine.HandleDigit(key[0])
	}

	saved := false
	warning := ""
	switch action.Kind {
	case quickentry.ActionCommitQ1:
		v := action.Value
		h.draft.Q1 = &v
	case quickentry.ActionCommitQ2:
		v := action.Value
		h.draft.Q2 = &v
	case quickentry.ActionSaveAndNext:
		saved, warning = h.saveCurrentAndAdvanceLocked()
	}

	view := h.currentViewLocked()
	view["saved"] = saved
	if warning != "" {
		view["warning"] = warning
	}
	c.JSON(http.StatusOK, view)
}

// QuickEntryReset handles POST /api/quickentry/reset
func (h *APIHandler) QuickEntryReset(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.machine.Reset()
	c.JSON(http.StatusOK, h.currentViewLocked())
}

// SetComment handles POST /api/quickentry/comment. The comment box lives in
// the shell; its text crosses the boundary only through here.
func (h *APIHandler) SetComment(c *gin.Context) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft.Comment = req.Comment
	c.JSON(http.StatusOK, h.currentViewLocked())
}

// saveCurrentAndAdvanceLocked builds the record for the current submission
// from its parsed metadata and the draft, saves it and moves to the next
// submission. The quick-entry machine has already reset itself; navigation
// resets it again along with the draft.
func (h *APIHandler) saveCurrentAndAdvanceLocked() (saved bool, warning string) {
	if len(h.paths) == 0 {
		return false, "No submissions loaded"
	}

	path := h.paths[h.cursor]
	meta := submission.ParseMeta(path)
	rec := models.GradeRecord{
		ClassTime: meta.ClassTime,
		Name:      meta.Name,
		StudentID: meta.StudentID,
		Q1Score:   h.draft.Q1,
		Q2Score:   h.draft.Q2,
		Comment:   strings.TrimSpace(h.draft.Comment),
		File:      filepath.Base(path),
	}

	if !rec.HasScore() {
		return false, "At least one of q1/q2 must be scored (0-50)"
	}

	if err := h.Store.UpsertAndPersist(rec); err != nil {
		return false, "Failed to save record: " + err.Error()
	}
	log.Printf("Saved record: %s (%s) total=%d", rec.Name, rec.StudentID, rec.ComputeTotal())

	if h.cursor < len(h.paths)-1 {
		h.loadSubmissionLocked(h.cursor + 1)
	} else {
		// Last submission: stay put, keep showing the saved values.
		h.loadSubmissionLocked(h.cursor)
	}
	return true, ""
}

// --- Export Handler ---

// ExportGradebook handles POST /api/export. A failure is reported as one
// message; the in-memory store is unaffected and export can be retried.
func (h *APIHandler) ExportGradebook(c *gin.Context) {
	h.mu.Lock()
	records := h.Store.Records()
	h.mu.Unlock()
	if err := export.WriteGradebook(records, h.GradebookPath); err != nil {
		log.Printf("Error exporting gradebook to %s: %v", h.GradebookPath, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to export gradebook: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Export successful",
		"path":    h.GradebookPath,
		"rows":    len(records),
	})
}

// --- Views ---

// currentViewLocked renders the session for the shell: cursor, parsed
// metadata, any stored record, and the live quick-entry state. Callers must
// hold h.mu.
func (h *APIHandler) currentViewLocked() gin.H {
	view := gin.H{
		"index": h.cursor,
		"total": len(h.paths),
	}

	if len(h.paths) > 0 {
		path := h.paths[h.cursor]
		meta := submission.ParseMeta(path)
		view["file"] = filepath.Base(path)
		view["classTime"] = meta.ClassTime
		view["name"] = meta.Name
		view["studentId"] = meta.StudentID
		if rec := h.Store.Lookup(meta.StudentID); rec != nil {
			view["record"] = rec
		}
	}

	view["quick"] = h.quickViewLocked()
	return view
}

// quickViewLocked is the live preview the shell renders: the stage, the raw
// buffer, the clamped preview value, the draft fields and the effective
// total (preview value standing in for the field being typed).
func (h *APIHandler) quickViewLocked() gin.H {
	preview := h.machine.PreviewValue()

	q1, q2 := h.draft.Q1, h.draft.Q2
	if preview != nil {
		switch h.machine.Stage() {
		case quickentry.StageQ1:
			q1 = preview
		case quickentry.StageQ2:
			q2 = preview
		}
	}
	total := 0
	if q1 != nil {
		total += *q1
	}
	if q2 != nil {
		total += *q2
	}

	return gin.H{
		"stage":   h.machine.Stage().String(),
		"buffer":  h.machine.Buffer(),
		"preview": preview,
		"q1":      q1,
		"q2":      q2,
		"comment": h.draft.Comment,
		"total":   total,
	}
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
