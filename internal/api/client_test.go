package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestClientUploadImage verifies the multipart upload round trip.
func TestClientUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/image" {
			t.Errorf("path = %s, want /upload/image", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "aerial.jpg" {
			t.Errorf("filename = %s, want aerial.jpg", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"filePath": "/srv/uploads/aerial.jpg"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "aerial.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	client := NewClient(server.URL, 5*time.Second, nil)
	uploaded, err := client.UploadImage(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if uploaded.FilePath != "/srv/uploads/aerial.jpg" {
		t.Fatalf("filePath = %q", uploaded.FilePath)
	}
}

// TestClientDetectImageSendsBearer verifies auth header and body shape.
func TestClientDetectImageSendsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req DetectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.ImagePath != "/srv/uploads/aerial.jpg" || req.ConfThreshold != 0.3 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{"success":true,"totalPersons":3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	raw, err := client.DetectImage(context.Background(), "sk-test", DetectRequest{
		ImagePath:     "/srv/uploads/aerial.jpg",
		ConfThreshold: 0.3,
		MaxImageSize:  1024,
	})
	if err != nil {
		t.Fatalf("DetectImage() error = %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if body["totalPersons"].(float64) != 3 {
		t.Fatalf("totalPersons = %v", body["totalPersons"])
	}
}

// TestClientRemoteErrorKeepsServerMessage verifies non-2xx mapping.
func TestClientRemoteErrorKeepsServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"tracker initialization failed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	_, err := client.TrackVideo(context.Background(), TrackRequest{VideoSource: "clip.mp4"})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want RemoteError", err)
	}
	if remoteErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", remoteErr.StatusCode)
	}
	if remoteErr.Message != "tracker initialization failed" {
		t.Fatalf("message = %q", remoteErr.Message)
	}
}

// TestClientTransportError verifies unreachable-host mapping.
func TestClientTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := client.DashboardStats(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

// TestClientHistoryQuery verifies filter parameters are forwarded.
func TestClientHistoryQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("filter") != "image" || q.Get("status") != "success" || q.Get("date") != "2026-09-01" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	if _, err := client.History(context.Background(), "image", "success", "2026-09-01"); err != nil {
		t.Fatalf("History() error = %v", err)
	}
}

// TestClientDeleteHistory verifies method, path, and ack decoding.
func TestClientDeleteHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/data/history/video/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	ack, err := client.DeleteHistory(context.Background(), "video", 42)
	if err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	if !ack.Success {
		t.Fatal("expected success ack")
	}
}

// TestClientTestCredential verifies the credential check round trip.
func TestClientTestCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["apiKey"] != "sk-test" || body["model"] != "qwen2.5-vl-72b-instruct" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Write([]byte(`{"success":false,"error":"invalid credential"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	ack, err := client.TestCredential(context.Background(), "sk-test", "qwen2.5-vl-72b-instruct")
	if err != nil {
		t.Fatalf("TestCredential() error = %v", err)
	}
	if ack.Success || ack.Error != "invalid credential" {
		t.Fatalf("ack = %+v", ack)
	}
}
