package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowstudio/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidSettings = errors.New("invalid settings")

// JSONSchema is the subset of JSON Schema used to describe step settings.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Title                string               `json:"title,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	AdditionalProperties bool                 `json:"additionalProperties"`
}

// Property describes a single setting.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// SettingsSchema derives the JSON schema of the step's settings.
func (c StepConfig) SettingsSchema() *JSONSchema {
	schema := &JSONSchema{
		Type:                 "object",
		Title:                c.Title,
		Properties:           make(map[string]*Property, len(c.Settings)),
		AdditionalProperties: true,
	}

	for _, setting := range c.Settings {
		property := &Property{
			Type:        schemaType(setting.Type),
			Description: setting.Label,
			Default:     setting.Default.Interface(),
		}

		if setting.Type == SettingSelect {
			for _, option := range setting.Options {
				property.Enum = append(property.Enum, option.Value)
			}
		}

		schema.Properties[setting.Name] = property
	}

	return schema
}

func schemaType(settingType SettingType) string {
	switch settingType {
	case SettingCheckbox:
		return "boolean"
	case SettingSlider:
		return "number"
	default:
		return "string"
	}
}

// ValidateSettings checks a step's settings against its catalog schema.
// Unset values are skipped and setting names the catalog does not declare are
// accepted.
func (c *Catalog) ValidateSettings(step models.Step) error {
	config, ok := c.configs[step.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidType, step.Type)
	}

	data := make(map[string]any, len(step.Settings))
	for name, value := range step.Settings {
		if value.IsEmpty() {
			continue
		}

		data[name] = value.Interface()
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(config.SettingsSchema()),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%w: step %s: %s", ErrInvalidSettings, step.StepID, strings.Join(messages, "; "))
	}

	return nil
}
