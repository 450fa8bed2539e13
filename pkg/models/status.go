package models

// StepStatus is the UI-facing execution status of a single step.
type StepStatus string

const (
	StepStatusIdle      StepStatus = "idle"
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Tone is the visual classification shared by step and execution states.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneFailure Tone = "failure"
	ToneActive  Tone = "active"
	ToneNeutral Tone = "neutral"
	ToneWarning Tone = "warning"
	ToneHidden  Tone = "hidden"
)

// Icon returns the material icon name used for the tone.
func (t Tone) Icon() string {
	switch t {
	case ToneSuccess:
		return "check_circle"
	case ToneFailure:
		return "error"
	case ToneActive:
		return "hourglass_top"
	default:
		return "help_outline"
	}
}

// Tone classifies a step status for display. Idle steps carry no chip.
func (s StepStatus) Tone() Tone {
	switch s {
	case StepStatusPending:
		return ToneNeutral
	case StepStatusRunning:
		return ToneActive
	case StepStatusCompleted:
		return ToneSuccess
	case StepStatusFailed:
		return ToneFailure
	case StepStatusSkipped:
		return ToneWarning
	default:
		return ToneHidden
	}
}
