// Package catalog provides the immutable, type-indexed table of step schemas.
package catalog

import (
	"errors"
	"fmt"

	"github.com/dukex/flowstudio/pkg/models"
)

var (
	ErrDuplicateType = errors.New("duplicate step type")
	ErrInvalidType   = errors.New("invalid step type")
)

// Catalog maps step types to their StepConfig. It is never mutated after
// construction and lookups return copies, so a single instance can be shared.
type Catalog struct {
	order   []models.StepType
	configs map[models.StepType]StepConfig
}

// New builds a catalog from configs, keeping their order for the palette.
func New(configs ...StepConfig) (*Catalog, error) {
	c := &Catalog{
		order:   make([]models.StepType, 0, len(configs)),
		configs: make(map[models.StepType]StepConfig, len(configs)),
	}

	for _, config := range configs {
		if !config.Type.IsValid() || config.Type == models.StepTypeUserInput {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, config.Type)
		}

		if _, exists := c.configs[config.Type]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateType, config.Type)
		}

		c.order = append(c.order, config.Type)
		c.configs[config.Type] = config.clone()
	}

	return c, nil
}

// Lookup returns the config registered for stepType.
func (c *Catalog) Lookup(stepType models.StepType) (StepConfig, bool) {
	config, ok := c.configs[stepType]
	if !ok {
		return StepConfig{}, false
	}

	return config.clone(), true
}

// Types returns the registered step types in palette order.
func (c *Catalog) Types() []models.StepType {
	types := make([]models.StepType, len(c.order))
	copy(types, c.order)

	return types
}

// PaletteEntry is one option of the add-step picker.
type PaletteEntry struct {
	Type        models.StepType `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

// Palette lists the step types a user can add.
func (c *Catalog) Palette() []PaletteEntry {
	entries := make([]PaletteEntry, 0, len(c.order))
	for _, stepType := range c.order {
		config := c.configs[stepType]
		entries = append(entries, PaletteEntry{
			Type:        config.Type,
			Title:       config.Title,
			Description: config.Description,
			Icon:        config.Icon,
		})
	}

	return entries
}

// Icon returns the icon of a step type, including the user-input step.
func (c *Catalog) Icon(stepType models.StepType) string {
	if stepType == models.StepTypeUserInput {
		return "input"
	}

	if config, ok := c.configs[stepType]; ok {
		return config.Icon
	}

	return "help_outline"
}
