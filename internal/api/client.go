// Package api is the HTTP client for the remote detection/tracking
// service. It returns raw JSON payloads so the normalizer can absorb the
// service's inconsistent response shapes in one place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DetectRequest is the image detection request body.
type DetectRequest struct {
	ImagePath     string  `json:"imagePath"`
	ConfThreshold float64 `json:"confThreshold"`
	MaxImageSize  int     `json:"maxImageSize"`
}

// TrackRequest is the video tracking request body. The credential rides
// in the body for this endpoint, matching the service contract.
type TrackRequest struct {
	VideoSource     string  `json:"videoSource"`
	APIKey          string  `json:"apiKey"`
	ConfThreshold   float64 `json:"confThreshold"`
	TrackerType     string  `json:"trackerType"`
	EnableAutoDedup bool    `json:"enableAutoDedup"`
}

// UploadResponse carries the server-side path of an uploaded file.
type UploadResponse struct {
	FilePath string `json:"filePath"`
}

// Ack is the generic {success, error} response for mutating endpoints.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client calls the remote detection service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a service client. timeout bounds every request; the
// coordinator enforces nothing further client-side.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetTimeout applies a new per-request timeout, used after settings saves.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// UploadImage sends the staged image as multipart form data.
func (c *Client) UploadImage(ctx context.Context, path string) (UploadResponse, error) {
	return c.uploadFile(ctx, c.baseURL+"/upload/image", path)
}

// UploadVideo sends the staged video as multipart form data.
func (c *Client) UploadVideo(ctx context.Context, path string) (UploadResponse, error) {
	return c.uploadFile(ctx, c.baseURL+"/upload/video", path)
}

// DetectImage requests person detection for an uploaded image. The raw
// body is returned for normalization.
func (c *Client) DetectImage(ctx context.Context, credential string, req DetectRequest) (json.RawMessage, error) {
	headers := map[string]string{"Authorization": "Bearer " + credential}
	return c.postJSON(ctx, c.baseURL+"/image/detect", req, headers)
}

// TrackVideo requests person tracking for an uploaded video. The raw
// body is returned for normalization; it may be flat or nested.
func (c *Client) TrackVideo(ctx context.Context, req TrackRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, c.baseURL+"/video/track", req, nil)
}

// DashboardStats fetches service-wide counters for the dashboard view.
func (c *Client) DashboardStats(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, c.baseURL+"/data/dashboard/stats")
}

// History fetches past jobs filtered by kind, status, and date.
func (c *Client) History(ctx context.Context, filter, status, date string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("filter", filter)
	query.Set("status", status)
	query.Set("date", date)
	return c.getJSON(ctx, c.baseURL+"/data/history?"+query.Encode())
}

// DeleteHistory removes one history record by kind and id.
func (c *Client) DeleteHistory(ctx context.Context, kind string, id int64) (Ack, error) {
	target := fmt.Sprintf("%s/data/history/%s/%d", c.baseURL, kind, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return Ack{}, &TransportError{Op: "delete history", Err: err}
	}

	raw, err := c.do(req)
	if err != nil {
		return Ack{}, err
	}

	var ack Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return Ack{}, &TransportError{Op: "decode delete response", Err: err}
	}
	return ack, nil
}

// TestCredential verifies a credential and model pair with the service.
func (c *Client) TestCredential(ctx context.Context, credential, model string) (Ack, error) {
	body := map[string]string{"apiKey": credential, "model": model}
	raw, err := c.postJSON(ctx, c.baseURL+"/test", body, nil)
	if err != nil {
		return Ack{}, err
	}

	var ack Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return Ack{}, &TransportError{Op: "decode test response", Err: err}
	}
	return ack, nil
}

// uploadFile streams one local file as a multipart "file" field.
func (c *Client) uploadFile(ctx context.Context, target, path string) (UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return UploadResponse{}, &TransportError{Op: "open upload file", Err: err}
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResponse{}, &TransportError{Op: "create form file", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResponse{}, &TransportError{Op: "copy file data", Err: err}
	}
	if err := writer.Close(); err != nil {
		return UploadResponse{}, &TransportError{Op: "finalize form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return UploadResponse{}, &TransportError{Op: "create upload request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return UploadResponse{}, err
	}

	var uploaded UploadResponse
	if err := json.Unmarshal(raw, &uploaded); err != nil {
		return UploadResponse{}, &TransportError{Op: "decode upload response", Err: err}
	}
	return uploaded, nil
}

// postJSON sends a JSON body and returns the raw response payload.
func (c *Client) postJSON(ctx context.Context, target string, body any, headers map[string]string) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.do(req)
}

// getJSON fetches the raw response payload for a GET endpoint.
func (c *Client) getJSON(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	return c.do(req)
}

// do executes a request, maps non-2xx statuses to RemoteError, and logs
// the round trip.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return nil, &TransportError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response body", Err: err}
	}

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(raw, resp.Status),
		}
	}

	return raw, nil
}

// remoteMessage prefers a server-provided error field over the status text.
func remoteMessage(raw []byte, statusText string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return statusText
}
