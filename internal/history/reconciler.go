// Package history fetches past jobs from the service and shapes them for
// the history view. The service's list shape is inconsistent (bare array,
// wrapped in "data", or absent), so everything is coerced defensively and
// one malformed row never hides the rest.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"drone-vision/internal/api"
	"drone-vision/internal/domain"
	"drone-vision/internal/normalize"
)

// Service is the slice of the API client the reconciler depends on.
type Service interface {
	History(ctx context.Context, filter, status, date string) (json.RawMessage, error)
	DeleteHistory(ctx context.Context, kind string, id int64) (api.Ack, error)
}

// Filter narrows the history list. Zero values mean "all".
type Filter struct {
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Date   string `json:"date"`
}

// Reconciler lists and deletes history records.
type Reconciler struct {
	service Service
}

// NewReconciler creates a reconciler over the given service client.
func NewReconciler(service Service) *Reconciler {
	return &Reconciler{service: service}
}

// List fetches history records matching the filter. The result is never
// nil; a response that is not a list yields an empty slice, and rows that
// are not objects are skipped.
func (r *Reconciler) List(ctx context.Context, filter Filter) ([]domain.HistoryRecord, error) {
	raw, err := r.service.History(ctx, orAll(filter.Kind), orAll(filter.Status), filter.Date)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	records := make([]domain.HistoryRecord, 0)
	for i, item := range extractItems(raw) {
		if _, ok := item.(map[string]any); !ok {
			continue
		}
		record := normalize.HistoryItem(item, i)
		if matches(record, filter) {
			records = append(records, record)
		}
	}
	return records, nil
}

// Delete removes one record by kind and id, surfacing the server verdict.
func (r *Reconciler) Delete(ctx context.Context, kind string, id int64) error {
	ack, err := r.service.DeleteHistory(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	if !ack.Success {
		if ack.Error != "" {
			return fmt.Errorf("delete history record: %s", ack.Error)
		}
		return fmt.Errorf("delete history record: rejected by service")
	}
	return nil
}

// extractItems pulls the record list out of whatever shape the service
// returned: a bare array, {data: [...]}, {data: null}, or anything else.
func extractItems(raw json.RawMessage) []any {
	if len(raw) == 0 {
		return nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}

	switch v := value.(type) {
	case []any:
		return v
	case map[string]any:
		items, _ := v["data"].([]any)
		return items
	default:
		return nil
	}
}

// matches applies the client-side filter to a normalized record.
func matches(record domain.HistoryRecord, filter Filter) bool {
	if kind := strings.ToLower(filter.Kind); kind != "" && kind != "all" {
		if !strings.EqualFold(record.MediaKind, kind) {
			return false
		}
	}
	if status := strings.ToLower(filter.Status); status != "" && status != "all" {
		if string(record.Status) != status {
			return false
		}
	}
	if filter.Date != "" && record.CreatedAtDisplay != "unknown time" {
		if !strings.HasPrefix(record.CreatedAtDisplay, filter.Date) {
			return false
		}
	}
	return true
}

// orAll maps an empty filter value to the service's "all" wildcard.
func orAll(value string) string {
	if strings.TrimSpace(value) == "" {
		return "all"
	}
	return value
}
