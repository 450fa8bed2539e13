package models

import (
	"encoding/json"
	"strings"
)

// ExecutionState is the normalized state of a workflow execution.
type ExecutionState string

const (
	ExecutionStateActive    ExecutionState = "ACTIVE"
	ExecutionStateSucceeded ExecutionState = "SUCCEEDED"
	ExecutionStateFailed    ExecutionState = "FAILED"
	ExecutionStateCancelled ExecutionState = "CANCELLED"
	ExecutionStateUnknown   ExecutionState = "UNKNOWN"
)

// NormalizeExecutionState maps the short and STATE_-prefixed spellings the
// service reports to a single state.
func NormalizeExecutionState(raw string) ExecutionState {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "STATE_") {
	case "ACTIVE", "IN_PROGRESS", "QUEUED":
		return ExecutionStateActive
	case "SUCCEEDED":
		return ExecutionStateSucceeded
	case "FAILED":
		return ExecutionStateFailed
	case "CANCELLED":
		return ExecutionStateCancelled
	default:
		return ExecutionStateUnknown
	}
}

// IsTerminal reports whether polling should stop.
func (s ExecutionState) IsTerminal() bool {
	return s != ExecutionStateActive
}

// Tone classifies the state for display.
func (s ExecutionState) Tone() Tone {
	switch s {
	case ExecutionStateSucceeded:
		return ToneSuccess
	case ExecutionStateFailed:
		return ToneFailure
	case ExecutionStateActive:
		return ToneActive
	default:
		return ToneNeutral
	}
}

// StepStatusForEntry maps a step-entry state to a step status. ok is false
// when the state must leave the step's current status untouched.
func StepStatusForEntry(raw string) (StepStatus, bool) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "STATE_") {
	case "IN_PROGRESS":
		return StepStatusRunning, true
	case "SUCCEEDED":
		return StepStatusCompleted, true
	case "FAILED":
		return StepStatusFailed, true
	default:
		return "", false
	}
}

// StepEntry is the service's record of one step of an execution.
type StepEntry struct {
	StepID      string          `json:"step_id"`
	State       string          `json:"state"`
	StepInputs  json.RawMessage `json:"step_inputs,omitempty"`
	StepOutputs json.RawMessage `json:"step_outputs,omitempty"`
	StartTime   string          `json:"start_time,omitempty"`
	EndTime     string          `json:"end_time,omitempty"`
}

// ReportedOutputs decodes the outputs the step produced. HTTP call results
// carry the outputs under "body".
func (e StepEntry) ReportedOutputs() map[string]json.RawMessage {
	if len(e.StepOutputs) == 0 {
		return nil
	}

	var outputs map[string]json.RawMessage
	if err := json.Unmarshal(e.StepOutputs, &outputs); err != nil {
		return nil
	}

	if body, ok := outputs["body"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(body, &inner); err == nil && inner != nil {
			return inner
		}
	}

	return outputs
}

// Execution is the detail view of one run of a saved workflow.
type Execution struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Result      json.RawMessage `json:"result,omitempty"`
	Duration    float64         `json:"duration"`
	Error       string          `json:"error,omitempty"`
	StepEntries []StepEntry     `json:"step_entries"`
}

// NormalizedState returns the execution state in its canonical form.
func (e Execution) NormalizedState() ExecutionState {
	return NormalizeExecutionState(e.State)
}

// ExecutionSummary is one row of the execution history.
type ExecutionSummary struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Duration  float64 `json:"duration"`
}

// NormalizedState returns the row state in its canonical form.
func (s ExecutionSummary) NormalizedState() ExecutionState {
	return NormalizeExecutionState(s.State)
}

// ExecutionPage is one page of the execution history.
type ExecutionPage struct {
	Executions    []ExecutionSummary `json:"executions"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// ListExecutionsQuery selects a page of executions. An empty Status means all.
type ListExecutionsQuery struct {
	PageSize  int
	PageToken string
	Status    string
}
