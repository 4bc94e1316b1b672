// Package quickentry implements the keyboard-only score entry cycle: digits
// buffer into question 1, Enter commits and moves to question 2, a further
// Enter arms the save stage, and a final Enter asks the shell to save the
// current submission and advance. The machine itself performs no I/O; every
// transition returns an Action the shell (or HTTP session) applies.
package quickentry

import (
	"strconv"

	"pdfgrader-server-go/models"
)

// Stage is the position in the entry cycle.
type Stage int

const (
	StageQ1   Stage = iota + 1 // buffering digits for question 1
	StageQ2                    // buffering digits for question 2
	StageSave                  // both scores committed, Enter saves and advances
)

func (s Stage) String() string {
	switch s {
	case StageQ1:
		return "q1"
	case StageQ2:
		return "q2"
	case StageSave:
		return "save"
	default:
		return "unknown"
	}
}

// ActionKind tells the shell what a keystroke did.
type ActionKind int

const (
	ActionNone        ActionKind = iota
	ActionPreviewQ1              // buffer changed while entering q1, re-render preview
	ActionPreviewQ2              // buffer changed while entering q2, re-render preview
	ActionCommitQ1               // Value holds the committed q1 score
	ActionCommitQ2               // Value holds the committed q2 score
	ActionSaveAndNext            // save the current submission and advance
)

// Action is the outcome of one keystroke. Value is meaningful only for the
// commit kinds.
type Action struct {
	Kind  ActionKind
	Value int
}

// Machine is the quick-entry state machine. It cycles indefinitely; loading a
// new submission must call Reset.
type Machine struct {
	stage  Stage
	buffer string
}

// NewMachine returns a machine at StageQ1 with an empty buffer.
func NewMachine() *Machine {
	return &Machine{stage: StageQ1}
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage { return m.stage }

// Buffer returns the raw digit buffer, at most two characters.
func (m *Machine) Buffer() string { return m.buffer }

// PreviewValue returns the clamped value the buffer currently represents, or
// nil when the buffer is empty (the preview field should be cleared).
func (m *Machine) PreviewValue() *int {
	if m.buffer == "" || m.stage == StageSave {
		return nil
	}
	v := m.bufferValue()
	return &v
}

// HandleDigit appends a digit to the buffer. A third digit replaces the
// buffer instead of extending it, so the buffer never holds more than two
// characters. Digits are ignored in the save stage.
func (m *Machine) HandleDigit(d byte) Action {
	if d < '0' || d > '9' {
		return Action{Kind: ActionNone}
	}
	if m.stage == StageSave {
		return Action{Kind: ActionNone}
	}
	if len(m.buffer) >= 2 {
		m.buffer = string(d)
	} else {
		m.buffer += string(d)
	}
	return m.previewAction()
}

// HandleBackspace removes the last buffered digit; a no-op on an empty
// buffer aside from the preview refresh. Ignored in the save stage.
func (m *Machine) HandleBackspace() Action {
	if m.stage == StageSave {
		return Action{Kind: ActionNone}
	}
	if m.buffer != "" {
		m.buffer = m.buffer[:len(m.buffer)-1]
	}
	return m.previewAction()
}

// HandleEnter commits the buffer into the current question (an empty buffer
// commits 0) and advances the stage. In the save stage it resets the machine
// and returns ActionSaveAndNext; the shell performs the save regardless of
// whether navigation past the last submission succeeds.
func (m *Machine) HandleEnter() Action {
	switch m.stage {
	case StageQ1:
		v := m.bufferValue()
		m.buffer = ""
		m.stage = StageQ2
		return Action{Kind: ActionCommitQ1, Value: v}
	case StageQ2:
		v := m.bufferValue()
		m.buffer = ""
		m.stage = StageSave
		return Action{Kind: ActionCommitQ2, Value: v}
	default:
		m.Reset()
		return Action{Kind: ActionSaveAndNext}
	}
}

// HandleEscape unconditionally resets to StageQ1 with an empty buffer,
// discarding any uncommitted preview. Committed values are untouched; they
// live with the shell.
func (m *Machine) HandleEscape() Action {
	m.Reset()
	return Action{Kind: ActionNone}
}

// Reset returns the machine to StageQ1 with an empty buffer. Called on every
// submission navigation.
func (m *Machine) Reset() {
	m.stage = StageQ1
	m.buffer = ""
}

func (m *Machine) previewAction() Action {
	if m.stage == StageQ2 {
		return Action{Kind: ActionPreviewQ2}
	}
	return Action{Kind: ActionPreviewQ1}
}

// bufferValue interprets the buffer as a clamped score; empty means 0.
func (m *Machine) bufferValue() int {
	if m.buffer == "" {
		return 0
	}
	v, err := strconv.Atoi(m.buffer)
	if err != nil {
		v = 0
	}
	return models.ClampScore(v)
}
