package quickentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullEntryCycle(t *testing.T) {
	m := NewMachine()
	require.Equal(t, StageQ1, m.Stage())
	require.Empty(t, m.Buffer())

	assert.Equal(t, ActionPreviewQ1, m.HandleDigit('3').Kind)
	assert.Equal(t, ActionPreviewQ1, m.HandleDigit('0').Kind)
	assert.Equal(t, "30", m.Buffer())
	require.NotNil(t, m.PreviewValue())
	assert.Equal(t, 30, *m.PreviewValue())

	a := m.HandleEnter()
	assert.Equal(t, ActionCommitQ1, a.Kind)
	assert.Equal(t, 30, a.Value)
	assert.Equal(t, StageQ2, m.Stage())
	assert.Empty(t, m.Buffer())

	assert.Equal(t, ActionPreviewQ2, m.HandleDigit('7').Kind)
	a = m.HandleEnter()
	assert.Equal(t, ActionCommitQ2, a.Kind)
	assert.Equal(t, 7, a.Value)
	assert.Equal(t, StageSave, m.Stage())

	a = m.HandleEnter()
	assert.Equal(t, ActionSaveAndNext, a.Kind)
	assert.Equal(t, StageQ1, m.Stage())
	assert.Empty(t, m.Buffer())
}

func TestThirdDigitRestartsBuffer(t *testing.T) {
	m := NewMachine()
	m.HandleDigit('9')
	m.HandleDigit('9')
	require.Equal(t, "99", m.Buffer())

	m.HandleDigit('5')
	assert.Equal(t, "5", m.Buffer())
}

func TestPreviewClampsToFifty(t *testing.T) {
	m := NewMachine()
	m.HandleDigit('9')
	m.HandleDigit('9')

	// The buffer keeps the raw digits; only the value clamps.
	assert.Equal(t, "99", m.Buffer())
	require.NotNil(t, m.PreviewValue())
	assert.Equal(t, 50, *m.PreviewValue())

	a := m.HandleEnter()
	assert.Equal(t, ActionCommitQ1, a.Kind)
	assert.Equal(t, 50, a.Value)
}

func TestEmptyBufferEnterCommitsZero(t *testing.T) {
	m := NewMachine()
	a := m.HandleEnter()
	assert.Equal(t, ActionCommitQ1, a.Kind)
	assert.Equal(t, 0, a.Value)

	a = m.HandleEnter()
	assert.Equal(t, ActionCommitQ2, a.Kind)
	assert.Equal(t, 0, a.Value)
	assert.Equal(t, StageSave, m.Stage())
}

func TestBackspace(t *testing.T) {
	m := NewMachine()
	m.HandleDigit('4')
	m.HandleDigit('2')

	a := m.HandleBackspace()
	assert.Equal(t, ActionPreviewQ1, a.Kind)
	assert.Equal(t, "4", m.Buffer())

	m.HandleBackspace()
	assert.Empty(t, m.Buffer())
	assert.Nil(t, m.PreviewValue())

	// No-op on an empty buffer.
	a = m.HandleBackspace()
	assert.Equal(t, ActionPreviewQ1, a.Kind)
	assert.Empty(t, m.Buffer())
}

func TestEscapeResetsFromAnyStage(t *testing.T) {
	for _, advance := range []int{0, 1, 2} {
		m := NewMachine()
		m.HandleDigit('1')
		for i := 0; i < advance; i++ {
			m.HandleEnter()
		}

		a := m.HandleEscape()
		assert.Equal(t, ActionNone, a.Kind)
		assert.Equal(t, StageQ1, m.Stage())
		assert.Empty(t, m.Buffer())
	}
}

func TestDigitsIgnoredInSaveStage(t *testing.T) {
	m := NewMachine()
	m.HandleEnter()
	m.HandleEnter()
	require.Equal(t, StageSave, m.Stage())

	assert.Equal(t, ActionNone, m.HandleDigit('5').Kind)
	assert.Equal(t, ActionNone, m.HandleBackspace().Kind)
	assert.Empty(t, m.Buffer())
	assert.Nil(t, m.PreviewValue())
}

func TestNonDigitIgnored(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, ActionNone, m.HandleDigit('x').Kind)
	assert.Empty(t, m.Buffer())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "q1", StageQ1.String())
	assert.Equal(t, "q2", StageQ2.String())
	assert.Equal(t, "save", StageSave.String())
}
