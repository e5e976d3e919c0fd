package bootstrap

import (
	"fmt"
	"strings"

	"drone-vision/internal/domain"
)

// visionModelCatalog lists the hosted models the detection service can
// run. These execute remotely, so selection is a settings change only.
var visionModelCatalog = []domain.VisionModelOption{
	{
		ID:          "qwen2.5-vl-72b-instruct",
		Name:        "Qwen2.5-VL 72B",
		Description: "Highest detection accuracy, slowest responses.",
	},
	{
		ID:          "qwen2.5-vl-32b-instruct",
		Name:        "Qwen2.5-VL 32B",
		Description: "Strong accuracy at moderate latency.",
	},
	{
		ID:          "qwen2.5-vl-7b-instruct",
		Name:        "Qwen2.5-VL 7B",
		Description: "Faster responses, reduced accuracy on small targets.",
	},
	{
		ID:          "qwen2.5-vl-3b-instruct",
		Name:        "Qwen2.5-VL 3B",
		Description: "Fastest option for quick previews.",
	},
	{
		ID:          "qwen-vl-max",
		Name:        "Qwen-VL Max",
		Description: "Legacy flagship vision model.",
	},
	{
		ID:          "qwen-vl-plus",
		Name:        "Qwen-VL Plus",
		Description: "Legacy balanced vision model.",
	},
}

// GetVisionModels returns the model presets with the currently persisted
// choice marked.
func (a *App) GetVisionModels() []domain.VisionModelOption {
	models := make([]domain.VisionModelOption, len(visionModelCatalog))
	copy(models, visionModelCatalog)

	current := a.GetSettings().ModelName
	for i := range models {
		models[i].Selected = models[i].ID == current
	}
	return models
}

// SelectVisionModel persists modelID as the detection model and refreshes
// diagnostics.
func (a *App) SelectVisionModel(modelID string) (domain.Settings, error) {
	id := strings.TrimSpace(modelID)
	if id == "" {
		return domain.Settings{}, fmt.Errorf("model id is required")
	}
	if _, found := visionModelByID(id); !found {
		return domain.Settings{}, fmt.Errorf("unknown model id: %s", id)
	}

	settings := a.Store.Load()
	settings.ModelName = id
	return a.SaveSettings(settings)
}

func visionModelByID(id string) (domain.VisionModelOption, bool) {
	for _, model := range visionModelCatalog {
		if model.ID == id {
			return model, true
		}
	}
	return domain.VisionModelOption{}, false
}
