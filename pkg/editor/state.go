package editor

import (
	"slices"

	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/models"
)

// Mode is fixed when the editor opens, except for the Create to Edit
// transition after the first save.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
	ModeRun
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeRun:
		return "run"
	default:
		return "unknown"
	}
}

// Route holds the navigation parameters the editor opens with.
type Route struct {
	WorkflowID string
	RunID      string
}

// Mode selects the editor mode for the route.
func (r Route) Mode() Mode {
	switch {
	case r.RunID != "":
		return ModeRun
	case r.WorkflowID != "":
		return ModeEdit
	default:
		return ModeCreate
	}
}

// State is a snapshot of the editor. Snapshots are never mutated once handed out.
type State struct {
	Mode       Mode
	WorkflowID string
	RunID      string

	Document  *document.Document
	Available [][]AvailableOutput

	Dirty        bool
	Loading      bool
	ErrorMessage string

	ExecutionID       string
	ExecutionState    models.ExecutionState
	ExecutionDuration float64
	ExecutionError    string
	StepEntries       []models.StepEntry
}

// AvailableFor returns the outputs offered to the step at index.
func (s State) AvailableFor(index int) []AvailableOutput {
	if index < 0 || index >= len(s.Available) {
		return nil
	}

	return s.Available[index]
}

// ReadOnly reports whether document edits are rejected.
func (s State) ReadOnly() bool {
	return s.Mode == ModeRun
}

func (s State) clone() State {
	if s.Document != nil {
		s.Document = s.Document.Clone()
	}

	available := make([][]AvailableOutput, len(s.Available))
	for i, outputs := range s.Available {
		available[i] = slices.Clone(outputs)
	}

	s.Available = available
	s.StepEntries = slices.Clone(s.StepEntries)

	return s
}
