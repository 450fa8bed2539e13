package editor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/models"
)

// AvailableOutput is an output a step input may reference.
type AvailableOutput struct {
	Label  string `json:"label"`
	Step   string `json:"step"`
	Output string `json:"output"`
	Type   string `json:"type"`
}

// Reference returns the input value that links to this output.
func (o AvailableOutput) Reference() models.Value {
	return models.Reference(o.Step, o.Output)
}

// ComputeAvailableOutputs lists, for every step index i, the user-input
// outputs followed by the catalog-declared outputs of steps 0..i-1. The lists
// are rebuilt from scratch on every call.
func ComputeAvailableOutputs(doc *document.Document, c *catalog.Catalog) [][]AvailableOutput {
	userOutputs := make([]AvailableOutput, 0, len(doc.OutputDefinitions))
	for _, def := range doc.OutputDefinitions {
		userOutputs = append(userOutputs, AvailableOutput{
			Label:  "User Input: " + def.Name,
			Step:   models.UserInputStepID,
			Output: def.Name,
			Type:   def.Type,
		})
	}

	available := make([][]AvailableOutput, len(doc.Steps))

	var prior []AvailableOutput

	for i, step := range doc.Steps {
		outputs := make([]AvailableOutput, 0, len(userOutputs)+len(prior))
		outputs = append(outputs, userOutputs...)
		outputs = append(outputs, prior...)
		available[i] = outputs

		config, ok := c.Lookup(step.Type)
		if !ok {
			continue
		}

		for _, output := range config.Outputs {
			prior = append(prior, AvailableOutput{
				Label:  fmt.Sprintf("Step %d: %s", i+1, output.Label),
				Step:   step.StepID,
				Output: output.Name,
				Type:   output.Type,
			})
		}
	}

	return available
}

// compatible filters outputs down to those an input of inputType accepts.
func compatible(outputs []AvailableOutput, inputType catalog.InputType) []AvailableOutput {
	var matches []AvailableOutput

	for _, output := range outputs {
		if catalog.Accepts(inputType, output.Type) {
			matches = append(matches, output)
		}
	}

	return matches
}

// DanglingReference is an input that links to an output no earlier step provides.
type DanglingReference struct {
	StepIndex int
	StepID    string
	Input     string
	Ref       models.OutputReference
}

func findDanglingReferences(doc *document.Document, available [][]AvailableOutput) []DanglingReference {
	var dangling []DanglingReference

	for i, step := range doc.Steps {
		for name, value := range step.Inputs {
			ref, ok := value.Ref()
			if !ok || offered(available[i], ref) {
				continue
			}

			dangling = append(dangling, DanglingReference{StepIndex: i, StepID: step.StepID, Input: name, Ref: ref})
		}
	}

	slices.SortFunc(dangling, func(a, b DanglingReference) int {
		if a.StepIndex != b.StepIndex {
			return a.StepIndex - b.StepIndex
		}

		return strings.Compare(a.Input, b.Input)
	})

	return dangling
}

func offered(outputs []AvailableOutput, ref models.OutputReference) bool {
	for _, output := range outputs {
		if output.Step == ref.Step && output.Output == ref.Output {
			return true
		}
	}

	return false
}
