package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"drone-vision/internal/api"
	"drone-vision/internal/domain"
)

// fakeService returns canned history payloads.
type fakeService struct {
	raw       json.RawMessage
	err       error
	deleteAck api.Ack
	deleteErr error

	gotFilter string
	gotStatus string
	gotKind   string
	gotID     int64
}

func (f *fakeService) History(_ context.Context, filter, status, _ string) (json.RawMessage, error) {
	f.gotFilter = filter
	f.gotStatus = status
	return f.raw, f.err
}

func (f *fakeService) DeleteHistory(_ context.Context, kind string, id int64) (api.Ack, error) {
	f.gotKind = kind
	f.gotID = id
	return f.deleteAck, f.deleteErr
}

// TestListBareArray verifies the plain list shape.
func TestListBareArray(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`[
		{"id": 1, "type": "image", "fileName": "a.jpg", "personCount": 3, "status": "success"},
		{"id": 2, "type": "video", "fileName": "b.mp4", "personCount": 5, "status": "failed"}
	]`)}

	records, err := NewReconciler(service).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].FileName != "a.jpg" || records[1].Status != domain.RecordStatusFailed {
		t.Fatalf("unexpected records: %+v", records)
	}
}

// TestListWrappedData verifies the {data: [...]} shape.
func TestListWrappedData(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`{"success": true, "data": [{"id": 9, "type": "image"}], "total": 1}`)}

	records, err := NewReconciler(service).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != 9 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

// TestListNullDataYieldsEmpty verifies {data: null} coerces to an empty
// list with no error.
func TestListNullDataYieldsEmpty(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`{"data": null}`)}

	records, err := NewReconciler(service).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if records == nil {
		t.Fatal("records must not be nil")
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

// TestListSkipsMalformedRows verifies partial-failure isolation.
func TestListSkipsMalformedRows(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`[
		{"id": 1, "type": "image", "fileName": "good.jpg"},
		"garbage",
		null,
		{"id": 2, "type": "video", "fileName": "also-good.mp4"}
	]`)}

	records, err := NewReconciler(service).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (bad rows skipped)", len(records))
	}
}

// TestListAppliesClientSideFilters verifies kind and status narrowing.
func TestListAppliesClientSideFilters(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`[
		{"id": 1, "type": "image", "status": "success"},
		{"id": 2, "type": "video", "status": "success"},
		{"id": 3, "type": "image", "status": "failed"}
	]`)}

	records, err := NewReconciler(service).List(context.Background(), Filter{Kind: "image", Status: "success"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if service.gotFilter != "image" || service.gotStatus != "success" {
		t.Fatalf("filters not forwarded: %q %q", service.gotFilter, service.gotStatus)
	}
}

// TestListDefaultsFilterToAll verifies the wildcard mapping.
func TestListDefaultsFilterToAll(t *testing.T) {
	service := &fakeService{raw: json.RawMessage(`[]`)}
	if _, err := NewReconciler(service).List(context.Background(), Filter{}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if service.gotFilter != "all" || service.gotStatus != "all" {
		t.Fatalf("defaults not applied: %q %q", service.gotFilter, service.gotStatus)
	}
}

// TestListPropagatesFetchError verifies transport failures surface.
func TestListPropagatesFetchError(t *testing.T) {
	service := &fakeService{err: errors.New("connection refused")}
	if _, err := NewReconciler(service).List(context.Background(), Filter{}); err == nil {
		t.Fatal("expected fetch error")
	}
}

// TestDelete verifies the server verdict handling.
func TestDelete(t *testing.T) {
	service := &fakeService{deleteAck: api.Ack{Success: true}}
	reconciler := NewReconciler(service)

	if err := reconciler.Delete(context.Background(), "video", 42); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if service.gotKind != "video" || service.gotID != 42 {
		t.Fatalf("delete args: %q %d", service.gotKind, service.gotID)
	}

	service.deleteAck = api.Ack{Success: false, Error: "record locked"}
	err := reconciler.Delete(context.Background(), "video", 42)
	if err == nil || err.Error() != "delete history record: record locked" {
		t.Fatalf("error = %v", err)
	}
}
