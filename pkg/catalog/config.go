package catalog

import (
	"slices"

	"github.com/dukex/flowstudio/pkg/models"
)

// InputType is the editor widget kind of a step input.
type InputType string

const (
	InputText     InputType = "text"
	InputTextarea InputType = "textarea"
	InputSelect   InputType = "select"
	InputImage    InputType = "image"
)

// SettingType is the editor widget kind of a step setting.
type SettingType string

const (
	SettingText     SettingType = "text"
	SettingTextarea SettingType = "textarea"
	SettingSelect   SettingType = "select"
	SettingCheckbox SettingType = "checkbox"
	SettingSlider   SettingType = "slider"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// InputField declares a step input. Inputs hold a literal or a linked output.
type InputField struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     InputType `json:"type"`
	Required bool      `json:"required"`
	Options  []Option  `json:"options,omitempty"`
}

// SettingField declares a step setting and its default.
type SettingField struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Type    SettingType  `json:"type"`
	Default models.Value `json:"defaultValue"`
	Options []Option     `json:"options,omitempty"`
}

// OutputField declares a typed step output.
type OutputField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// StepConfig is the declarative schema of a step type.
type StepConfig struct {
	Type        models.StepType `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Inputs      []InputField    `json:"inputs"`
	Settings    []SettingField  `json:"settings"`
	Outputs     []OutputField   `json:"outputs"`
}

// DefaultSettings returns the default value of every setting.
func (c StepConfig) DefaultSettings() map[string]models.Value {
	defaults := make(map[string]models.Value, len(c.Settings))
	for _, setting := range c.Settings {
		defaults[setting.Name] = setting.Default.Clone()
	}

	return defaults
}

// DeclaredOutputs returns the {type} map a freshly added step carries.
func (c StepConfig) DeclaredOutputs() map[string]models.StepOutput {
	outputs := make(map[string]models.StepOutput, len(c.Outputs))
	for _, output := range c.Outputs {
		outputs[output.Name] = models.StepOutput{Type: output.Type}
	}

	return outputs
}

// Input looks up an input field by name.
func (c StepConfig) Input(name string) (InputField, bool) {
	idx := slices.IndexFunc(c.Inputs, func(f InputField) bool { return f.Name == name })
	if idx < 0 {
		return InputField{}, false
	}

	return c.Inputs[idx], true
}

// Setting looks up a setting field by name.
func (c StepConfig) Setting(name string) (SettingField, bool) {
	idx := slices.IndexFunc(c.Settings, func(f SettingField) bool { return f.Name == name })
	if idx < 0 {
		return SettingField{}, false
	}

	return c.Settings[idx], true
}

func (c StepConfig) clone() StepConfig {
	clone := c
	clone.Inputs = make([]InputField, len(c.Inputs))

	for i, input := range c.Inputs {
		input.Options = slices.Clone(input.Options)
		clone.Inputs[i] = input
	}

	clone.Settings = make([]SettingField, len(c.Settings))

	for i, setting := range c.Settings {
		setting.Options = slices.Clone(setting.Options)
		setting.Default = setting.Default.Clone()
		clone.Settings[i] = setting
	}

	clone.Outputs = slices.Clone(c.Outputs)

	return clone
}

// Accepts reports whether an output of outputType can feed an input of inputType.
// Text outputs also feed textarea inputs.
func Accepts(inputType InputType, outputType string) bool {
	if string(inputType) == outputType {
		return true
	}

	return inputType == InputTextarea && outputType == string(InputText)
}
