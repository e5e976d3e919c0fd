package bootstrap

import (
	"testing"
)

// TestVisionModelByID verifies known model lookup.
func TestVisionModelByID(t *testing.T) {
	model, found := visionModelByID("qwen2.5-vl-7b-instruct")
	if !found {
		t.Fatal("expected qwen2.5-vl-7b-instruct to exist")
	}
	if model.Name != "Qwen2.5-VL 7B" {
		t.Fatalf("name = %s, want Qwen2.5-VL 7B", model.Name)
	}

	if _, found := visionModelByID("llava-1.6-34b"); found {
		t.Fatal("unexpected model match")
	}
}

func TestGetVisionModelsMarksSelected(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	models := app.GetVisionModels()
	if len(models) == 0 {
		t.Fatal("empty catalog")
	}

	var selected []string
	for _, model := range models {
		if model.Selected {
			selected = append(selected, model.ID)
		}
	}
	if len(selected) != 1 || selected[0] != "qwen2.5-vl-72b-instruct" {
		t.Fatalf("selected = %v, want only the default model", selected)
	}
}

func TestSelectVisionModelPersists(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	saved, err := app.SelectVisionModel("qwen2.5-vl-3b-instruct")
	if err != nil {
		t.Fatalf("SelectVisionModel: %v", err)
	}
	if saved.ModelName != "qwen2.5-vl-3b-instruct" {
		t.Errorf("modelName = %s", saved.ModelName)
	}

	if got := app.GetSettings().ModelName; got != "qwen2.5-vl-3b-instruct" {
		t.Errorf("persisted modelName = %s", got)
	}
}

func TestSelectVisionModelRejectsUnknown(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	if _, err := app.SelectVisionModel("gpt-4o"); err == nil {
		t.Fatal("expected an error for an unknown model id")
	}
	if _, err := app.SelectVisionModel("  "); err == nil {
		t.Fatal("expected an error for a blank model id")
	}
}
