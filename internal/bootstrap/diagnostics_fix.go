package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"drone-vision/internal/config"
	"drone-vision/internal/domain"
)

// FixDiagnostic applies an automatic remediation for one failed
// configuration item and returns the refreshed report. Value checks are
// fixed by resetting the offending field to its default; the credential
// cannot be invented, so its remediation is a live verification against
// the service instead.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings := a.Store.Load()
	defaults := config.DefaultSettings()

	switch id {
	case "credential":
		if strings.TrimSpace(settings.Credential) == "" {
			return domain.DiagnosticReport{}, fmt.Errorf("credential must be entered manually in settings")
		}
		ack, err := a.client.TestCredential(context.Background(), settings.Credential, settings.ModelName)
		if err != nil {
			return domain.DiagnosticReport{}, fmt.Errorf("verify credential: %w", err)
		}
		if !ack.Success {
			message := ack.Error
			if message == "" {
				message = "service rejected the credential"
			}
			return domain.DiagnosticReport{}, fmt.Errorf("verify credential: %s", message)
		}
		return a.RefreshDiagnostics(), nil
	case "model_name":
		settings.ModelName = defaults.ModelName
	case "timeout":
		settings.TimeoutSeconds = defaults.TimeoutSeconds
	case "confidence":
		settings.DefaultConfidence = defaults.DefaultConfidence
	case "tracker":
		settings.DefaultTrackerKind = defaults.DefaultTrackerKind
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unknown diagnostic item: %s", id)
	}

	if _, err := a.SaveSettings(settings); err != nil {
		return domain.DiagnosticReport{}, err
	}
	return a.GetDiagnostics(), nil
}
