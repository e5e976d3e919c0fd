package diagnostics

import (
	"testing"

	"drone-vision/internal/domain"
)

// TestCheckerRunAllPass validates happy-path report for complete settings.
func TestCheckerRunAllPass(t *testing.T) {
	checker := NewChecker()

	report := checker.Run(domain.Settings{
		Credential:         "sk-test",
		ModelName:          "qwen2.5-vl-72b-instruct",
		TimeoutSeconds:     120,
		DefaultConfidence:  0.3,
		MaxImageSizePixels: 1024,
		DefaultTrackerKind: domain.TrackerMIL,
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if len(report.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(report.Items))
	}
}

// TestCheckerRunEmptySettingsFails validates failure reporting per check.
func TestCheckerRunEmptySettingsFails(t *testing.T) {
	checker := NewChecker()

	report := checker.Run(domain.Settings{
		DefaultConfidence:  1.5,
		DefaultTrackerKind: "BOOSTING",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "credential", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "model_name", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "timeout", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "confidence", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tracker", domain.DiagnosticStatusFail)
}

// TestCheckerRunMissingCredentialOnly keeps other checks passing.
func TestCheckerRunMissingCredentialOnly(t *testing.T) {
	checker := NewChecker()

	report := checker.Run(domain.Settings{
		ModelName:          "qwen2.5-vl-72b-instruct",
		TimeoutSeconds:     60,
		DefaultConfidence:  0.5,
		MaxImageSizePixels: 1024,
		DefaultTrackerKind: domain.TrackerKCF,
	})

	assertStatusByID(t, report, "credential", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "model_name", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "tracker", domain.DiagnosticStatusPass)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
