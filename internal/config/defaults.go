package config

import (
	"math"
	"strings"

	"drone-vision/internal/domain"
)

const (
	defaultModelName     = "qwen2.5-vl-72b-instruct"
	defaultTimeoutSec    = 120
	defaultConfidence    = 0.3
	defaultMaxImageSize  = 1024
	maxTimeoutSec        = 3600
	maxImageSizeCeilingP = 8192
)

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Credential:         "",
		ModelName:          defaultModelName,
		TimeoutSeconds:     defaultTimeoutSec,
		DefaultConfidence:  defaultConfidence,
		MaxImageSizePixels: defaultMaxImageSize,
		DefaultTrackerKind: domain.TrackerMIL,
	}
}

// Normalize coerces absent or out-of-range fields to documented defaults.
// The result always satisfies the settings invariants; Save persists only
// normalized values so Load(Save(s)) round-trips to Normalize(s).
func Normalize(settings domain.Settings) domain.Settings {
	settings.Credential = strings.TrimSpace(settings.Credential)

	settings.ModelName = strings.TrimSpace(settings.ModelName)
	if settings.ModelName == "" {
		settings.ModelName = defaultModelName
	}

	if settings.TimeoutSeconds <= 0 || settings.TimeoutSeconds > maxTimeoutSec {
		settings.TimeoutSeconds = defaultTimeoutSec
	}

	if math.IsNaN(settings.DefaultConfidence) ||
		settings.DefaultConfidence < 0 || settings.DefaultConfidence > 1 {
		settings.DefaultConfidence = defaultConfidence
	}

	if settings.MaxImageSizePixels <= 0 || settings.MaxImageSizePixels > maxImageSizeCeilingP {
		settings.MaxImageSizePixels = defaultMaxImageSize
	}

	if !domain.IsSupportedTracker(settings.DefaultTrackerKind) {
		settings.DefaultTrackerKind = domain.TrackerMIL
	}

	return settings
}
