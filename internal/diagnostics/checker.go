package diagnostics

import (
	"fmt"
	"strings"
	"time"

	"drone-vision/internal/domain"
)

// Checker validates user settings before a job is allowed to start.
type Checker struct{}

// NewChecker builds a settings checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Run executes all configuration checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		checkCredential(settings.Credential),
		checkModelName(settings.ModelName),
		checkTimeout(settings.TimeoutSeconds),
		checkConfidence(settings.DefaultConfidence),
		checkTracker(settings.DefaultTrackerKind),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkCredential verifies an API credential has been configured.
func checkCredential(credential string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "credential",
		Name: "API credential",
	}

	if strings.TrimSpace(credential) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "API credential is not configured."
		item.Hint = "Enter a credential in settings before starting a detection or tracking job."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Credential is configured."
	return item
}

// checkModelName verifies a detection model has been selected.
func checkModelName(modelName string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "model_name",
		Name: "Model name",
	}

	if strings.TrimSpace(modelName) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Model name is empty."
		item.Hint = "Pick a vision model name in settings."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using model %s", modelName)
	return item
}

// checkTimeout validates the request timeout range.
func checkTimeout(seconds int) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "timeout",
		Name: "Request timeout",
	}

	if seconds <= 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Timeout must be positive, got %d.", seconds)
		item.Hint = "Long video jobs usually need 120 seconds or more."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Timeout set to %d seconds.", seconds)
	return item
}

// checkConfidence validates the default confidence threshold range.
func checkConfidence(confidence float64) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "confidence",
		Name: "Confidence threshold",
	}

	if confidence < 0 || confidence > 1 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Confidence threshold %.2f is outside [0,1].", confidence)
		item.Hint = "Use a value between 0 and 1; 0.3 is the usual starting point."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Confidence threshold %.2f.", confidence)
	return item
}

// checkTracker verifies the configured tracker kind is supported.
func checkTracker(kind domain.TrackerKind) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tracker",
		Name: "Tracker algorithm",
	}

	if !domain.IsSupportedTracker(kind) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown tracker kind %q.", kind)
		item.Hint = "Supported trackers are MIL, KCF and CSRT."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Tracker %s selected.", kind)
	return item
}
