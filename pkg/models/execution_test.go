package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExecutionState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want ExecutionState
	}{
		{"ACTIVE", ExecutionStateActive},
		{"STATE_IN_PROGRESS", ExecutionStateActive},
		{"QUEUED", ExecutionStateActive},
		{"SUCCEEDED", ExecutionStateSucceeded},
		{"STATE_SUCCEEDED", ExecutionStateSucceeded},
		{"FAILED", ExecutionStateFailed},
		{"STATE_FAILED", ExecutionStateFailed},
		{"cancelled", ExecutionStateCancelled},
		{"STATE_PAUSED", ExecutionStateUnknown},
		{"", ExecutionStateUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeExecutionState(tt.raw), tt.raw)
	}
}

func TestExecutionState_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, ExecutionStateActive.IsTerminal())
	assert.True(t, ExecutionStateSucceeded.IsTerminal())
	assert.True(t, ExecutionStateFailed.IsTerminal())
	assert.True(t, ExecutionStateCancelled.IsTerminal())
	assert.True(t, ExecutionStateUnknown.IsTerminal())
}

func TestExecutionState_FailedSpellingsShareTone(t *testing.T) {
	t.Parallel()

	short := NormalizeExecutionState("FAILED")
	prefixed := NormalizeExecutionState("STATE_FAILED")

	assert.Equal(t, short, prefixed)
	assert.Equal(t, ToneFailure, prefixed.Tone())
	assert.Equal(t, "error", prefixed.Tone().Icon())
}

func TestStepStatusForEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   StepStatus
		wantOK bool
	}{
		{"STATE_IN_PROGRESS", StepStatusRunning, true},
		{"IN_PROGRESS", StepStatusRunning, true},
		{"STATE_SUCCEEDED", StepStatusCompleted, true},
		{"SUCCEEDED", StepStatusCompleted, true},
		{"FAILED", StepStatusFailed, true},
		{"STATE_FAILED", StepStatusFailed, true},
		{"STATE_SKIPPED", "", false},
	}

	for _, tt := range tests {
		got, ok := StepStatusForEntry(tt.raw)
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestStepStatus_Tone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ToneHidden, StepStatusIdle.Tone())
	assert.Equal(t, ToneNeutral, StepStatusPending.Tone())
	assert.Equal(t, "hourglass_top", StepStatusRunning.Tone().Icon())
	assert.Equal(t, "check_circle", StepStatusCompleted.Tone().Icon())
	assert.Equal(t, ToneWarning, StepStatusSkipped.Tone())
}

func TestStepEntry_ReportedOutputs(t *testing.T) {
	t.Parallel()

	t.Run("http body", func(t *testing.T) {
		t.Parallel()

		entry := StepEntry{StepOutputs: json.RawMessage(`{"status":200,"body":{"generated_image":"gs://out.png"}}`)}

		outputs := entry.ReportedOutputs()
		assert.Len(t, outputs, 1)
		assert.JSONEq(t, `"gs://out.png"`, string(outputs["generated_image"]))
	})

	t.Run("flat", func(t *testing.T) {
		t.Parallel()

		entry := StepEntry{StepOutputs: json.RawMessage(`{"generated_text":"hi"}`)}

		assert.JSONEq(t, `"hi"`, string(entry.ReportedOutputs()["generated_text"]))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, StepEntry{}.ReportedOutputs())
	})
}
