package editor

import (
	"fmt"
	"slices"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/models"
)

// mutate applies fn to a copy of the document and installs the result as the
// next snapshot, with availability rebuilt and the document marked dirty.
func (e *Editor) mutate(op string, fn func(doc *document.Document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Mode == ModeRun {
		return actionError(op, ErrReadOnly)
	}

	doc := e.state.Document.Clone()
	if err := fn(doc); err != nil {
		return actionError(op, err)
	}

	next := e.state
	next.Document = doc
	next.Available = ComputeAvailableOutputs(doc, e.catalog)
	next.Dirty = true
	next.ErrorMessage = ""

	e.state = next
	e.revision++

	return nil
}

func checkIndex(index, length int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	return nil
}

// AddStep appends a new idle step of stepType and returns its id.
func (e *Editor) AddStep(stepType models.StepType) (string, error) {
	config, ok := e.catalog.Lookup(stepType)
	if !ok {
		return "", actionError("add step", fmt.Errorf("%w: %q", ErrUnknownStepType, stepType))
	}

	id := e.newID(stepType)

	err := e.mutate("add step", func(doc *document.Document) error {
		doc.Steps = append(doc.Steps, models.Step{
			StepID:   id,
			Type:     stepType,
			Status:   models.StepStatusIdle,
			Inputs:   map[string]models.Value{},
			Settings: config.DefaultSettings(),
			Outputs:  config.DeclaredOutputs(),
		})

		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// DeleteStep removes the step at index. References to it are left in place
// and show up in DanglingReferences.
func (e *Editor) DeleteStep(index int) error {
	return e.mutate("delete step", func(doc *document.Document) error {
		if err := checkIndex(index, len(doc.Steps)); err != nil {
			return err
		}

		doc.Steps = slices.Delete(doc.Steps, index, index+1)

		return nil
	})
}

// MoveStep moves the step at from so that it ends up at to.
func (e *Editor) MoveStep(from, to int) error {
	return e.mutate("move step", func(doc *document.Document) error {
		if err := checkIndex(from, len(doc.Steps)); err != nil {
			return err
		}

		if err := checkIndex(to, len(doc.Steps)); err != nil {
			return err
		}

		step := doc.Steps[from]
		doc.Steps = slices.Delete(doc.Steps, from, from+1)
		doc.Steps = slices.Insert(doc.Steps, to, step)

		return nil
	})
}

func (e *Editor) AddOutputDefinition(def document.OutputDefinition) error {
	return e.mutate("add output definition", func(doc *document.Document) error {
		if _, exists := doc.Definition(def.Name); exists {
			return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.Name)
		}

		doc.OutputDefinitions = append(doc.OutputDefinitions, def)

		return nil
	})
}

// UpdateOutputDefinition replaces the definition at index. Renaming leaves
// existing references to the old name dangling.
func (e *Editor) UpdateOutputDefinition(index int, def document.OutputDefinition) error {
	return e.mutate("update output definition", func(doc *document.Document) error {
		if err := checkIndex(index, len(doc.OutputDefinitions)); err != nil {
			return err
		}

		if existing, ok := doc.Definition(def.Name); ok && existing != doc.OutputDefinitions[index] {
			return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.Name)
		}

		doc.OutputDefinitions[index] = def

		return nil
	})
}

func (e *Editor) RemoveOutputDefinition(index int) error {
	return e.mutate("remove output definition", func(doc *document.Document) error {
		if err := checkIndex(index, len(doc.OutputDefinitions)); err != nil {
			return err
		}

		doc.OutputDefinitions = slices.Delete(doc.OutputDefinitions, index, index+1)

		return nil
	})
}

// SetStepInput sets an input of the step at index. References must point at
// an output currently offered to that input; an empty value clears it.
func (e *Editor) SetStepInput(index int, name string, value models.Value) error {
	return e.mutate("set step input", func(doc *document.Document) error {
		if err := checkIndex(index, len(doc.Steps)); err != nil {
			return err
		}

		step := &doc.Steps[index]

		config, ok := e.catalog.Lookup(step.Type)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStepType, step.Type)
		}

		field, ok := config.Input(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownInput, name)
		}

		if ref, isRef := value.Ref(); isRef {
			offers := compatible(ComputeAvailableOutputs(doc, e.catalog)[index], field.Type)
			if !offered(offers, ref) {
				return fmt.Errorf("%w: %s.%s", ErrOutputUnavailable, ref.Step, ref.Output)
			}
		}

		if step.Inputs == nil {
			step.Inputs = map[string]models.Value{}
		}

		if value.IsEmpty() {
			delete(step.Inputs, name)
		} else {
			step.Inputs[name] = value.Clone()
		}

		return nil
	})
}

// SetStepSetting sets a setting of the step at index. Settings only hold literals.
func (e *Editor) SetStepSetting(index int, name string, value models.Value) error {
	return e.mutate("set step setting", func(doc *document.Document) error {
		if err := checkIndex(index, len(doc.Steps)); err != nil {
			return err
		}

		if value.IsReference() {
			return document.ErrReferenceSetting
		}

		step := &doc.Steps[index]
		if step.Settings == nil {
			step.Settings = map[string]models.Value{}
		}

		step.Settings[name] = value.Clone()

		return nil
	})
}

func (e *Editor) SetName(name string) error {
	return e.mutate("set name", func(doc *document.Document) error {
		doc.Name = name

		return nil
	})
}

func (e *Editor) SetDescription(description string) error {
	return e.mutate("set description", func(doc *document.Document) error {
		doc.Description = description

		return nil
	})
}

func (e *Editor) SetWorkspaceID(workspaceID string) error {
	return e.mutate("set workspace", func(doc *document.Document) error {
		doc.WorkspaceID = workspaceID

		return nil
	})
}

// CompatibleOutputs lists the outputs the named input of the step at index accepts.
func (e *Editor) CompatibleOutputs(index int, inputName string) ([]AvailableOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.state.Document
	if err := checkIndex(index, len(doc.Steps)); err != nil {
		return nil, actionError("compatible outputs", err)
	}

	config, ok := e.catalog.Lookup(doc.Steps[index].Type)
	if !ok {
		return nil, actionError("compatible outputs", fmt.Errorf("%w: %q", ErrUnknownStepType, doc.Steps[index].Type))
	}

	field, ok := config.Input(inputName)
	if !ok {
		return nil, actionError("compatible outputs", fmt.Errorf("%w: %s", ErrUnknownInput, inputName))
	}

	return compatible(e.state.Available[index], field.Type), nil
}

// DanglingReferences reports inputs linked to outputs that no earlier step or
// user-input definition provides. They are never repaired automatically.
func (e *Editor) DanglingReferences() []DanglingReference {
	e.mu.Lock()
	defer e.mu.Unlock()

	return findDanglingReferences(e.state.Document, e.state.Available)
}

// StepConfig returns the catalog entry of the step at index.
func (e *Editor) StepConfig(index int) (catalog.StepConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.state.Document.Steps) {
		return catalog.StepConfig{}, false
	}

	return e.catalog.Lookup(e.state.Document.Steps[index].Type)
}
