// Package normalize maps arbitrary, partial, or malformed service
// payloads into fully-populated canonical models. Every function here is
// total: for any input, including nil and wrong-typed fields, the output
// satisfies the target model's invariants. Malformed data never escapes
// this package as an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"drone-vision/internal/domain"
)

const unknownTimeDisplay = "unknown time"

// timestampLayouts are the raw timestamp shapes the service has been
// seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Detection shapes a raw image detection payload into a DetectionResult.
func Detection(raw json.RawMessage) domain.DetectionResult {
	fields := asMap(decode(raw))

	result := domain.DetectionResult{
		Success:          safeBool(fields["success"]),
		TotalPersons:     safeCount(fields["totalPersons"]),
		OutputImagePath:  safeString(fields["outputImagePath"], ""),
		ProcessingTimeMs: int64(safeNumber(firstPresent(fields, "processingTimeMs", "processingTime"), 0)),
		ErrorMessage:     safeString(firstPresent(fields, "error", "errorMessage"), ""),
		Detections:       []domain.Detection{},
	}
	if result.ProcessingTimeMs < 0 {
		result.ProcessingTimeMs = 0
	}

	items, _ := fields["detections"].([]any)
	for _, item := range items {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		confidence := clampUnit(safeNumber(entry["confidence"], 0))
		result.Detections = append(result.Detections, domain.Detection{
			Confidence:        confidence,
			ConfidenceDisplay: FormatConfidence(confidence),
			Box:               boundingBox(entry["bbox"]),
		})
	}

	if result.TotalPersons == 0 && len(result.Detections) > 0 {
		result.TotalPersons = len(result.Detections)
	}
	return result
}

// Tracking shapes a raw video tracking payload into a TrackingResult.
// The service returns this either flat or nested under a "result" field;
// top-level values win when both are present.
func Tracking(raw json.RawMessage) domain.TrackingResult {
	top := asMap(decode(raw))
	nested := asMap(top["result"])

	pick := func(key string) any {
		if top != nil {
			if value, ok := top[key]; ok && value != nil {
				return value
			}
		}
		if nested != nil {
			return nested[key]
		}
		return nil
	}

	result := domain.TrackingResult{
		Success:          safeBool(pick("success")),
		TotalFrames:      safeCount(pick("totalFrames")),
		MaxPersonCount:   safeCount(pick("maxPersonCount")),
		APICallCount:     safeCount(pick("apiCallCount")),
		DedupOperations:  safeCount(pick("dedupOperations")),
		OutputVideoPath:  safeString(pick("outputVideoPath"), ""),
		ProcessingTimeMs: int64(safeNumber(pick("processingTimeMs"), 0)),
		ErrorMessage:     safeString(firstPresentPick(pick, "error", "errorMessage"), ""),
	}
	if result.ProcessingTimeMs < 0 {
		result.ProcessingTimeMs = 0
	}
	return result
}

// HistoryItem shapes one raw history row into a HistoryRecord. The
// fallback index seeds the id for rows that carry none.
func HistoryItem(value any, fallbackIndex int) domain.HistoryRecord {
	record := domain.HistoryRecord{
		ID:               int64(fallbackIndex + 1),
		MediaKind:        "unknown",
		FileName:         "unknown",
		Status:           domain.RecordStatusUnknown,
		CreatedAtDisplay: unknownTimeDisplay,
	}

	fields := asMap(value)
	if fields == nil {
		return record
	}

	if id := int64(safeNumber(fields["id"], 0)); id > 0 {
		record.ID = id
	}
	if kind := safeString(fields["type"], ""); kind != "" {
		record.MediaKind = kind
	}
	if name := safeString(firstPresent(fields, "fileName", "name"), ""); name != "" {
		record.FileName = name
	}

	record.PersonCount = safeCount(firstPresent(fields, "personCount", "persons"))
	if seconds := safeNumber(fields["processingTime"], 0); seconds > 0 {
		record.ProcessingTimeSeconds = seconds
	}
	record.Status = recordStatus(safeString(fields["status"], ""))
	record.CreatedAtDisplay = displayTime(fields)

	return record
}

// Stats shapes the raw dashboard payload into DashboardStats.
func Stats(raw json.RawMessage) domain.DashboardStats {
	fields := asMap(decode(raw))

	stats := domain.DashboardStats{
		TotalImages:      safeCount(fields["totalImages"]),
		TotalVideos:      safeCount(fields["totalVideos"]),
		TotalPersons:     safeCount(fields["totalPersons"]),
		APICalls:         safeCount(fields["apiCalls"]),
		RecentActivities: []domain.Activity{},
	}

	items, _ := fields["recentActivities"].([]any)
	for _, item := range items {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		stats.RecentActivities = append(stats.RecentActivities, domain.Activity{
			Kind:    safeString(entry["type"], "unknown"),
			Name:    safeString(entry["name"], "unknown"),
			Persons: safeCount(entry["persons"]),
			Time:    safeString(entry["time"], ""),
			Status:  safeString(entry["status"], "unknown"),
		})
	}
	return stats
}

// FormatConfidence renders a [0,1] confidence as a clamped percentage.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", clampUnit(confidence)*100)
}

// decode parses raw JSON, tolerating empty and invalid input.
func decode(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

// asMap coerces a decoded value to an object, or nil.
func asMap(value any) map[string]any {
	fields, _ := value.(map[string]any)
	return fields
}

// firstPresent returns the first non-nil value among the named keys.
func firstPresent(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := fields[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// firstPresentPick is firstPresent over a pick function.
func firstPresentPick(pick func(string) any, keys ...string) any {
	for _, key := range keys {
		if value := pick(key); value != nil {
			return value
		}
	}
	return nil
}

// safeNumber coerces numbers and numeric strings, otherwise the default.
func safeNumber(value any, def float64) float64 {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(parsed) {
			return parsed
		}
	}
	return def
}

// safeCount coerces a non-negative integer count.
func safeCount(value any) int {
	n := int(safeNumber(value, 0))
	if n < 0 {
		return 0
	}
	return n
}

// safeString coerces a string field, otherwise the default.
func safeString(value any, def string) string {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

// safeBool coerces a boolean field, treating anything else as false.
func safeBool(value any) bool {
	b, _ := value.(bool)
	return b
}

// clampUnit bounds a value to [0,1].
func clampUnit(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// boundingBox reads a [x1, y1, x2, y2] array, defaulting missing or
// short arrays to zeroes.
func boundingBox(value any) domain.BoundingBox {
	coords, _ := value.([]any)
	box := domain.BoundingBox{}
	read := func(i int) float64 {
		if i < len(coords) {
			return safeNumber(coords[i], 0)
		}
		return 0
	}
	box.X1 = read(0)
	box.Y1 = read(1)
	box.X2 = read(2)
	box.Y2 = read(3)
	return box
}

// recordStatus maps loose status strings onto the canonical set.
func recordStatus(status string) domain.RecordStatus {
	switch strings.ToLower(status) {
	case "success":
		return domain.RecordStatusSuccess
	case "processing":
		return domain.RecordStatusProcessing
	case "failed", "error":
		return domain.RecordStatusFailed
	default:
		return domain.RecordStatusUnknown
	}
}

// displayTime prefers a pre-formatted display string, then a parseable
// raw timestamp, then the unknown-time placeholder.
func displayTime(fields map[string]any) string {
	if display := safeString(fields["createdAtStr"], ""); display != "" {
		return display
	}

	raw := fields["createdAt"]
	switch v := raw.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return parsed.Local().Format("2006-01-02 15:04:05")
			}
		}
	case float64:
		if v > 0 {
			seconds := int64(v)
			if v > 1e12 { // millisecond epoch
				seconds = int64(v / 1000)
			}
			return time.Unix(seconds, 0).Local().Format("2006-01-02 15:04:05")
		}
	}
	return unknownTimeDisplay
}
