// Package models defines the data contracts shared by the workflow editor and the workflow service.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusPublished WorkflowStatus = "published"
)

// StepType identifies a step kind. The set is closed: adding a type requires a catalog entry.
type StepType string

const (
	StepTypeUserInput     StepType = "user_input"
	StepTypeGenerateText  StepType = "generate_text"
	StepTypeGenerateImage StepType = "generate_image"
	StepTypeEditImage     StepType = "edit_image"
	StepTypeCropImage     StepType = "crop_image"
	StepTypeGenerateVideo StepType = "generate_video"
	StepTypeVirtualTryOn  StepType = "virtual_try_on"
)

// UserInputStepID is the fixed step id of the synthetic user-input step.
const UserInputStepID = string(StepTypeUserInput)

// StepTypes lists every known step type, user input first.
func StepTypes() []StepType {
	return []StepType{
		StepTypeUserInput,
		StepTypeGenerateText,
		StepTypeGenerateImage,
		StepTypeEditImage,
		StepTypeCropImage,
		StepTypeGenerateVideo,
		StepTypeVirtualTryOn,
	}
}

// IsValid reports whether t belongs to the closed step type set.
func (t StepType) IsValid() bool {
	for _, known := range StepTypes() {
		if t == known {
			return true
		}
	}

	return false
}

// Step is one node of a workflow.
type Step struct {
	StepID   string                `json:"stepId"`
	Type     StepType              `json:"type"`
	Status   StepStatus            `json:"status"`
	Inputs   map[string]Value      `json:"inputs"`
	Settings map[string]Value      `json:"settings"`
	Outputs  map[string]StepOutput `json:"outputs"`
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	clone := s
	clone.Inputs = cloneValues(s.Inputs)
	clone.Settings = cloneValues(s.Settings)

	clone.Outputs = make(map[string]StepOutput, len(s.Outputs))
	for name, output := range s.Outputs {
		clone.Outputs[name] = output.Clone()
	}

	return clone
}

func cloneValues(values map[string]Value) map[string]Value {
	cloned := make(map[string]Value, len(values))
	for name, value := range values {
		cloned[name] = value.Clone()
	}

	return cloned
}

// Workflow is the persisted workflow definition.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	WorkspaceID string         `json:"workspaceId"`
	UserID      string         `json:"userId"`
	Status      WorkflowStatus `json:"status"`
	Steps       []Step         `json:"steps"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateWorkflowRequest is the body of a workflow creation call.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
	WorkspaceID string `json:"workspaceId"`
}

// UpdateWorkflowRequest is the body of a workflow update call.
type UpdateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	Steps       []Step         `json:"steps"`
	Status      WorkflowStatus `json:"status,omitempty"`
	WorkspaceID string         `json:"workspaceId"`
}

// SearchWorkflowsRequest filters the workflows of a workspace.
type SearchWorkflowsRequest struct {
	WorkspaceID string         `json:"workspace_id"          validate:"required"`
	Limit       int            `json:"limit,omitempty"`
	StartAfter  string         `json:"start_after,omitempty"`
	Name        string         `json:"name,omitempty"`
	Status      WorkflowStatus `json:"status,omitempty"`
}

// WorkflowPage is one page of a workflow search.
type WorkflowPage struct {
	Count          int        `json:"count"`
	Data           []Workflow `json:"data"`
	NextPageCursor string     `json:"next_page_cursor,omitempty"`
}

// ExecuteRequest carries the user-input values of a run.
type ExecuteRequest struct {
	Args map[string]string `json:"args"`
}

// ExecuteResponse identifies a launched execution.
type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
}
