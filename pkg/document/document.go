// Package document holds the in-editor representation of a workflow: the
// user-input output definitions kept apart from the ordered processing steps.
package document

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/go-playground/validator/v10"
)

// DefaultName is the name of a workflow that has never been renamed.
const DefaultName = "Untitled Workflow"

var (
	ErrInvalid          = errors.New("invalid workflow")
	ErrDuplicateStepID  = errors.New("duplicate step id")
	ErrReferenceSetting = errors.New("settings cannot reference outputs")
)

// OutputDefinition is a named, typed value the user supplies at run time.
type OutputDefinition struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=text image video audio"`
}

// Document is the editable workflow. The user-input step never appears in
// Steps; it is rebuilt from OutputDefinitions when persisting.
type Document struct {
	ID          string                `json:"id,omitempty"`
	Name        string                `json:"name"        validate:"required"`
	Description string                `json:"description"`
	WorkspaceID string                `json:"workspaceId"`
	UserID      string                `json:"userId,omitempty"`
	Status      models.WorkflowStatus `json:"status"      validate:"required,oneof=draft published"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`

	OutputDefinitions []OutputDefinition `json:"outputDefinitions" validate:"unique=Name,dive"`
	Steps             []models.Step      `json:"steps"`
}

// InitEmpty returns the document a new workflow starts from.
func InitEmpty() *Document {
	return &Document{
		Name:   DefaultName,
		Status: models.WorkflowStatusDraft,
		OutputDefinitions: []OutputDefinition{
			{Name: "main_prompt", Type: "text"},
			{Name: "model_image", Type: "image"},
		},
		Steps: []models.Step{},
	}
}

// LoadFrom builds a document from a persisted workflow. Output definitions are
// sorted by name because the persisted output map carries no order.
func LoadFrom(workflow models.Workflow) *Document {
	doc := &Document{
		ID:                workflow.ID,
		Name:              workflow.Name,
		Description:       workflow.Description,
		WorkspaceID:       workflow.WorkspaceID,
		UserID:            workflow.UserID,
		Status:            workflow.Status,
		CreatedAt:         workflow.CreatedAt,
		UpdatedAt:         workflow.UpdatedAt,
		OutputDefinitions: []OutputDefinition{},
		Steps:             make([]models.Step, 0, len(workflow.Steps)),
	}

	if doc.Status == "" {
		doc.Status = models.WorkflowStatusDraft
	}

	for _, step := range workflow.Steps {
		if step.Type == models.StepTypeUserInput {
			for name, output := range step.Outputs {
				doc.OutputDefinitions = append(doc.OutputDefinitions, OutputDefinition{Name: name, Type: output.Type})
			}

			continue
		}

		doc.Steps = append(doc.Steps, step.Clone())
	}

	slices.SortFunc(doc.OutputDefinitions, func(a, b OutputDefinition) int {
		return strings.Compare(a.Name, b.Name)
	})

	return doc
}

// UserInputStep synthesizes the user-input step from the output definitions.
func (d *Document) UserInputStep() models.Step {
	outputs := make(map[string]models.StepOutput, len(d.OutputDefinitions))
	for _, def := range d.OutputDefinitions {
		outputs[def.Name] = models.StepOutput{Type: def.Type}
	}

	return models.Step{
		StepID:   models.UserInputStepID,
		Type:     models.StepTypeUserInput,
		Status:   models.StepStatusIdle,
		Inputs:   map[string]models.Value{},
		Settings: map[string]models.Value{},
		Outputs:  outputs,
	}
}

// ToPersistable returns the workflow as the service stores it, user-input step first.
func (d *Document) ToPersistable() models.Workflow {
	steps := make([]models.Step, 0, len(d.Steps)+1)
	steps = append(steps, d.UserInputStep())

	for _, step := range d.Steps {
		steps = append(steps, step.Clone())
	}

	return models.Workflow{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		WorkspaceID: d.WorkspaceID,
		UserID:      d.UserID,
		Status:      d.Status,
		Steps:       steps,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// CreateRequest is the body that creates the document on the service.
func (d *Document) CreateRequest() models.CreateWorkflowRequest {
	workflow := d.ToPersistable()

	return models.CreateWorkflowRequest{
		Name:        workflow.Name,
		Description: workflow.Description,
		Steps:       workflow.Steps,
		WorkspaceID: workflow.WorkspaceID,
	}
}

// UpdateRequest is the body that replaces the stored document.
func (d *Document) UpdateRequest() models.UpdateWorkflowRequest {
	workflow := d.ToPersistable()

	return models.UpdateWorkflowRequest{
		Name:        workflow.Name,
		Description: workflow.Description,
		Steps:       workflow.Steps,
		Status:      workflow.Status,
		WorkspaceID: workflow.WorkspaceID,
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	clone := *d
	clone.OutputDefinitions = slices.Clone(d.OutputDefinitions)

	clone.Steps = make([]models.Step, len(d.Steps))
	for i, step := range d.Steps {
		clone.Steps[i] = step.Clone()
	}

	return &clone
}

// StepIndex returns the position of the step with id, or -1.
func (d *Document) StepIndex(id string) int {
	return slices.IndexFunc(d.Steps, func(s models.Step) bool { return s.StepID == id })
}

// Definition looks up an output definition by name.
func (d *Document) Definition(name string) (OutputDefinition, bool) {
	idx := slices.IndexFunc(d.OutputDefinitions, func(def OutputDefinition) bool { return def.Name == name })
	if idx < 0 {
		return OutputDefinition{}, false
	}

	return d.OutputDefinitions[idx], true
}

// Validate checks the document against its struct rules and the catalog.
// Every problem found is reported, joined under ErrInvalid.
func (d *Document) Validate(v *validator.Validate, c *catalog.Catalog) error {
	var errs []error

	if err := v.Struct(d); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(d.Steps))

	for i, step := range d.Steps {
		if step.StepID == "" {
			errs = append(errs, fmt.Errorf("step %d: missing step id", i+1))
		} else if seen[step.StepID] || step.StepID == models.UserInputStepID {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateStepID, step.StepID))
		}

		seen[step.StepID] = true

		if _, ok := c.Lookup(step.Type); !ok {
			errs = append(errs, fmt.Errorf("step %d: %w: %q", i+1, catalog.ErrInvalidType, step.Type))

			continue
		}

		for name, value := range step.Settings {
			if value.IsReference() {
				errs = append(errs, fmt.Errorf("step %s setting %s: %w", step.StepID, name, ErrReferenceSetting))
			}
		}

		if err := c.ValidateSettings(step); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
