package catalog

import (
	"testing"

	"github.com/dukex/flowstudio/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Types(t *testing.T) {
	t.Parallel()

	c := Default()

	assert.Equal(t, []models.StepType{
		models.StepTypeGenerateText,
		models.StepTypeGenerateImage,
		models.StepTypeEditImage,
		models.StepTypeCropImage,
		models.StepTypeGenerateVideo,
		models.StepTypeVirtualTryOn,
	}, c.Types())

	_, ok := c.Lookup(models.StepTypeUserInput)
	assert.False(t, ok, "user input is not a catalog step")
}

func TestNew_RejectsBadTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		configs []StepConfig
		wantErr error
	}{
		{
			name:    "duplicate type",
			configs: []StepConfig{{Type: models.StepTypeCropImage}, {Type: models.StepTypeCropImage}},
			wantErr: ErrDuplicateType,
		},
		{
			name:    "unknown type",
			configs: []StepConfig{{Type: "upscale_image"}},
			wantErr: ErrInvalidType,
		},
		{
			name:    "user input",
			configs: []StepConfig{{Type: models.StepTypeUserInput}},
			wantErr: ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tt.configs...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, c)
		})
	}
}

func TestCatalog_LookupReturnsCopy(t *testing.T) {
	t.Parallel()

	c := Default()

	config, ok := c.Lookup(models.StepTypeGenerateImage)
	require.True(t, ok)

	config.Title = "changed"
	config.Settings[0].Options[0].Value = "changed"
	config.Outputs = nil

	again, ok := c.Lookup(models.StepTypeGenerateImage)
	require.True(t, ok)
	assert.Equal(t, "Generate Image", again.Title)
	assert.Equal(t, ModelNanoBananaPro, again.Settings[0].Options[0].Value)
	assert.Len(t, again.Outputs, 1)
}

func TestStepConfig_Defaults(t *testing.T) {
	t.Parallel()

	config, ok := Default().Lookup(models.StepTypeCropImage)
	require.True(t, ok)

	settings := config.DefaultSettings()
	assert.True(t, settings["crop_aspect_ratio"].Equal(models.Text("1:1")))
	assert.True(t, settings["background_color"].Equal(models.Text("#FFFFFF")))
	assert.True(t, settings["fill_aspect_ratio"].Equal(models.Bool(false)))

	assert.Equal(t, map[string]models.StepOutput{
		"cropped_image": {Type: "image"},
	}, config.DeclaredOutputs())
}

func TestCatalog_Palette(t *testing.T) {
	t.Parallel()

	palette := Default().Palette()
	require.Len(t, palette, 6)

	assert.Equal(t, PaletteEntry{
		Type:        models.StepTypeVirtualTryOn,
		Title:       "Virtual Try-On",
		Description: "Applies a garment to a model image.",
		Icon:        "accessibility_new",
	}, palette[5])
}

func TestCatalog_Icon(t *testing.T) {
	t.Parallel()

	c := Default()

	assert.Equal(t, "input", c.Icon(models.StepTypeUserInput))
	assert.Equal(t, "movie", c.Icon(models.StepTypeGenerateVideo))
	assert.Equal(t, "help_outline", c.Icon("upscale_image"))
}

func TestAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		inputType  InputType
		outputType string
		want       bool
	}{
		{InputImage, "image", true},
		{InputTextarea, "text", true},
		{InputText, "text", true},
		{InputTextarea, "image", false},
		{InputImage, "text", false},
		{InputImage, "video", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Accepts(tt.inputType, tt.outputType), "%s <- %s", tt.inputType, tt.outputType)
	}
}

func TestCatalog_ValidateSettings(t *testing.T) {
	t.Parallel()

	c := Default()

	tests := []struct {
		name     string
		step     models.Step
		wantErr  error
		contains string
	}{
		{
			name: "defaults are valid",
			step: models.Step{
				StepID:   "img",
				Type:     models.StepTypeGenerateImage,
				Settings: mustLookup(t, c, models.StepTypeGenerateImage).DefaultSettings(),
			},
		},
		{
			name: "unknown setting names are accepted",
			step: models.Step{
				StepID:   "txt",
				Type:     models.StepTypeGenerateText,
				Settings: map[string]models.Value{"seed": models.Number(42)},
			},
		},
		{
			name: "value outside the options",
			step: models.Step{
				StepID:   "img",
				Type:     models.StepTypeGenerateImage,
				Settings: map[string]models.Value{"aspect_ratio": models.Text("2:1")},
			},
			wantErr:  ErrInvalidSettings,
			contains: "aspect_ratio",
		},
		{
			name: "checkbox holding text",
			step: models.Step{
				StepID:   "crop",
				Type:     models.StepTypeCropImage,
				Settings: map[string]models.Value{"fill_aspect_ratio": models.Text("yes")},
			},
			wantErr:  ErrInvalidSettings,
			contains: "fill_aspect_ratio",
		},
		{
			name: "reference in a setting",
			step: models.Step{
				StepID:   "txt",
				Type:     models.StepTypeGenerateText,
				Settings: map[string]models.Value{"model": models.Reference(models.UserInputStepID, "main_prompt")},
			},
			wantErr: ErrInvalidSettings,
		},
		{
			name:    "unknown step type",
			step:    models.Step{StepID: "x", Type: models.StepTypeUserInput},
			wantErr: ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := c.ValidateSettings(tt.step)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func mustLookup(t *testing.T, c *Catalog, stepType models.StepType) StepConfig {
	t.Helper()

	config, ok := c.Lookup(stepType)
	require.True(t, ok)

	return config
}
