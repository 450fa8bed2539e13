package catalog

import "github.com/dukex/flowstudio/pkg/models"

// Image generation models offered by image steps.
const (
	ModelNanoBananaPro = "gemini-3-pro-image-preview"
	ModelNanoBanana    = "gemini-2.5-flash-image-preview"
	ModelImagen4       = "imagen-4.0-generate-001"
	ModelImagen4Ultra  = "imagen-4.0-ultra-generate-001"
	ModelImagen4Fast   = "imagen-4.0-fast-generate-001"
	ModelImagen3Fast   = "imagen-3.0-fast-generate-001"
	ModelImagen3       = "imagen-3.0-generate-002"
)

var imageModels = []Option{
	{Value: ModelNanoBananaPro, Label: "Nano Banana Pro"},
	{Value: ModelNanoBanana, Label: "Nano Banana"},
	{Value: ModelImagen4, Label: "Imagen 4"},
	{Value: ModelImagen4Ultra, Label: "Imagen 4 Ultra"},
	{Value: ModelImagen4Fast, Label: "Imagen 4 Fast"},
	{Value: ModelImagen3, Label: "Imagen 3"},
	{Value: ModelImagen3Fast, Label: "Imagen 3 Fast"},
}

// MustNew is like New but panics on an invalid table.
func MustNew(configs ...StepConfig) *Catalog {
	c, err := New(configs...)
	if err != nil {
		panic(err)
	}

	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return MustNew(
		generateText(),
		generateImage(),
		editImage(),
		cropImage(),
		generateVideo(),
		virtualTryOn(),
	)
}

func generateText() StepConfig {
	return StepConfig{
		Type:        models.StepTypeGenerateText,
		Title:       "Generate Text",
		Description: "Generates text content using a large language model.",
		Icon:        "edit_note",
		Inputs: []InputField{
			{Name: "prompt", Label: "Prompt", Type: InputTextarea, Required: true},
		},
		Settings: []SettingField{
			{
				Name:  "model",
				Label: "Model",
				Type:  SettingSelect,
				Options: []Option{
					{Value: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
					{Value: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
				},
				Default: models.Text("gemini-1.5-pro"),
			},
			{Name: "temperature", Label: "Temperature", Type: SettingSlider, Default: models.Number(0.7)},
		},
		Outputs: []OutputField{
			{Name: "generated_text", Label: "generated_text", Type: "text"},
		},
	}
}

func generateImage() StepConfig {
	return StepConfig{
		Type:        models.StepTypeGenerateImage,
		Title:       "Generate Image",
		Description: "Generates an image from a text prompt.",
		Icon:        "image",
		Inputs: []InputField{
			{Name: "prompt", Label: "Prompt", Type: InputTextarea, Required: true},
		},
		Settings: []SettingField{
			{Name: "model", Label: "Model", Type: SettingSelect, Options: imageModels, Default: models.Text(ModelImagen4)},
			{
				Name:  "aspect_ratio",
				Label: "Aspect Ratio",
				Type:  SettingSelect,
				Options: []Option{
					{Value: "1:1", Label: "1:1 (Square)"},
					{Value: "16:9", Label: "16:9 (Landscape)"},
					{Value: "9:16", Label: "9:16 (Portrait)"},
					{Value: "4:3", Label: "4:3"},
					{Value: "3:4", Label: "3:4"},
				},
				Default: models.Text("1:1"),
			},
			{Name: "brand_guidelines", Label: "Use Brand Guidelines", Type: SettingCheckbox, Default: models.Bool(true)},
		},
		Outputs: []OutputField{
			{Name: "generated_image", Label: "generated_image", Type: "image"},
		},
	}
}

func editImage() StepConfig {
	return StepConfig{
		Type:        models.StepTypeEditImage,
		Title:       "Edit Image",
		Description: "Modifies an image using an editing or inpainting model.",
		Icon:        "auto_fix_high",
		Inputs: []InputField{
			{Name: "input_images", Label: "Input Image", Type: InputImage, Required: true},
			{Name: "prompt", Label: "Edit Prompt", Type: InputTextarea, Required: true},
		},
		Settings: []SettingField{
			{
				Name:  "model",
				Label: "Model",
				Type:  SettingSelect,
				Options: []Option{
					{Value: ModelNanoBananaPro, Label: "Nano Banana Pro"},
					{Value: ModelNanoBanana, Label: "Nano Banana"},
				},
				Default: models.Text(ModelNanoBanana),
			},
			{
				Name:    "aspect_ratio",
				Label:   "Aspect Ratio",
				Type:    SettingSelect,
				Options: []Option{{Value: "1:1", Label: "1:1 (Square)"}},
				Default: models.Text("1:1"),
			},
			{Name: "brand_guidelines", Label: "Use Brand Guidelines", Type: SettingCheckbox, Default: models.Bool(true)},
		},
		Outputs: []OutputField{
			{Name: "edited_image", Label: "edited_image", Type: "image"},
		},
	}
}

func cropImage() StepConfig {
	return StepConfig{
		Type:        models.StepTypeCropImage,
		Title:       "Crop Image",
		Description: "Crops an image to a specific aspect ratio or dimension.",
		Icon:        "crop",
		Inputs: []InputField{
			{Name: "input_image", Label: "Input Image", Type: InputImage, Required: true},
		},
		Settings: []SettingField{
			{
				Name:  "crop_aspect_ratio",
				Label: "Target Ratio",
				Type:  SettingSelect,
				Options: []Option{
					{Value: "1:1", Label: "1:1 (Square)"},
					{Value: "16:9", Label: "16:9"},
					{Value: "9:16", Label: "9:16"},
					{Value: "4:3", Label: "4:3"},
				},
				Default: models.Text("1:1"),
			},
			{Name: "background_color", Label: "Fill Color", Type: SettingText, Default: models.Text("#FFFFFF")},
			{Name: "fill_aspect_ratio", Label: "Fill if does not fit", Type: SettingCheckbox, Default: models.Bool(false)},
		},
		Outputs: []OutputField{
			{Name: "cropped_image", Label: "cropped_image", Type: "image"},
		},
	}
}

func generateVideo() StepConfig {
	return StepConfig{
		Type:        models.StepTypeGenerateVideo,
		Title:       "Generate Video",
		Description: "Generates a video clip from a prompt or image.",
		Icon:        "movie",
		Inputs: []InputField{
			{Name: "prompt", Label: "Prompt", Type: InputTextarea, Required: true},
			{Name: "input_image", Label: "Input Image (Optional)", Type: InputImage},
		},
		Settings: []SettingField{
			{
				Name:    "model",
				Label:   "Model",
				Type:    SettingSelect,
				Options: []Option{{Value: "veo-3.0-generate-001", Label: "Veo 3.0"}},
				Default: models.Text("veo-3.0-generate-001"),
			},
			{
				Name:  "aspect_ratio",
				Label: "Aspect Ratio",
				Type:  SettingSelect,
				Options: []Option{
					{Value: "16:9", Label: "16:9"},
					{Value: "9:16", Label: "9:16"},
				},
				Default: models.Text("16:9"),
			},
		},
		Outputs: []OutputField{
			{Name: "generated_video", Label: "generated_video", Type: "video"},
		},
	}
}

func virtualTryOn() StepConfig {
	return StepConfig{
		Type:        models.StepTypeVirtualTryOn,
		Title:       "Virtual Try-On",
		Description: "Applies a garment to a model image.",
		Icon:        "accessibility_new",
		Inputs: []InputField{
			{Name: "model_image", Label: "Model Image", Type: InputImage, Required: true},
			{Name: "top_image", Label: "Top Image", Type: InputImage},
			{Name: "bottom_image", Label: "Bottom Image", Type: InputImage},
			{Name: "dress_image", Label: "Dress Image", Type: InputImage},
			{Name: "shoes_image", Label: "Shoes Image", Type: InputImage},
		},
		Settings: []SettingField{
			{Name: "save_output_to_gallery", Label: "Save Output to Gallery", Type: SettingCheckbox, Default: models.Bool(false)},
		},
		Outputs: []OutputField{
			{Name: "generated_image", Label: "generated_image", Type: "image"},
		},
	}
}
