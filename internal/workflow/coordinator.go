// Package workflow drives a submission through its stages: staged file,
// upload, remote processing, terminal result. The remote service exposes
// no progress channel, so each stage plays a synthetic ramp that fills
// the gap between confirmed milestones; displayed progress is always the
// maximum of the two, and every ramp is torn down before a terminal
// transition so a stale timer can never overwrite the final value.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drone-vision/internal/api"
	"drone-vision/internal/domain"
	"drone-vision/internal/jobs"
	"drone-vision/internal/normalize"
	"drone-vision/internal/progress"
	"drone-vision/internal/staging"
)

// Service is the slice of the API client the coordinator depends on.
type Service interface {
	UploadImage(ctx context.Context, path string) (api.UploadResponse, error)
	UploadVideo(ctx context.Context, path string) (api.UploadResponse, error)
	DetectImage(ctx context.Context, credential string, req api.DetectRequest) (json.RawMessage, error)
	TrackVideo(ctx context.Context, req api.TrackRequest) (json.RawMessage, error)
}

// ImageParams are the tunables for one image detection submission.
type ImageParams struct {
	Credential    string  `json:"credential"`
	ConfThreshold float64 `json:"confThreshold"`
	MaxImageSize  int     `json:"maxImageSize"`
}

// VideoParams are the tunables for one video tracking submission.
type VideoParams struct {
	Credential      string             `json:"credential"`
	ConfThreshold   float64            `json:"confThreshold"`
	TrackerKind     domain.TrackerKind `json:"trackerKind"`
	EnableAutoDedup bool               `json:"enableAutoDedup"`
}

// Event is pushed to the UI whenever a job's visible state changes.
type Event struct {
	JobID     string           `json:"jobId"`
	MediaKind domain.MediaKind `json:"mediaKind"`
	Stage     domain.JobStage  `json:"stage"`
	Progress  float64          `json:"progress"`
	Level     jobs.LogLevel    `json:"level,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// upload ramp windows: the ceiling is a bounded estimate, decoupled from
// real transfer completion.
const (
	imageUploadRampStart = 10
	imageUploadRampEnd   = 50
	videoUploadRampStart = 5
	videoUploadRampEnd   = 20

	imageUploadMilestone = 60
	videoUploadMilestone = 20

	defaultUploadRampDuration = 2 * time.Second
)

// defaultImageCheckpoints play during image remote processing.
var defaultImageCheckpoints = []progress.Checkpoint{
	{Percent: 65, Message: "Preparing image...", Delay: 300 * time.Millisecond},
	{Percent: 75, Message: "Calling detection API...", Delay: 700 * time.Millisecond},
	{Percent: 85, Message: "Rendering detections...", Delay: time.Second},
}

// defaultVideoCheckpoints play during video remote processing.
var defaultVideoCheckpoints = []progress.Checkpoint{
	{Percent: 25, Message: "Initializing video processing...", Delay: time.Second},
	{Percent: 35, Message: "Analyzing video frames...", Delay: 2 * time.Second},
	{Percent: 50, Message: "Calling detection API...", Delay: 3 * time.Second},
	{Percent: 65, Message: "Initializing trackers...", Delay: 2 * time.Second},
	{Percent: 80, Message: "Processing tracking data...", Delay: 2500 * time.Millisecond},
	{Percent: 90, Message: "Generating result video...", Delay: 2 * time.Second},
	{Percent: 95, Message: "Saving results...", Delay: time.Second},
}

// Coordinator owns the two job state machines and runs submissions
// asynchronously. One submission per media kind may be in flight.
type Coordinator struct {
	jobs      *jobs.Manager
	log       *jobs.EventLog
	service   Service
	estimator *progress.Estimator
	logger    *zap.Logger

	uploadRampDuration time.Duration
	imageCheckpoints   []progress.Checkpoint
	videoCheckpoints   []progress.Checkpoint

	mu            sync.Mutex
	onEvent       func(Event)
	rampCancels   map[domain.MediaKind]context.CancelFunc
	lastDetection *domain.DetectionResult
	lastTracking  *domain.TrackingResult
}

// NewCoordinator creates a coordinator with production timings.
func NewCoordinator(manager *jobs.Manager, log *jobs.EventLog, service Service, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		jobs:               manager,
		log:                log,
		service:            service,
		estimator:          progress.NewEstimator(),
		logger:             logger,
		uploadRampDuration: defaultUploadRampDuration,
		imageCheckpoints:   defaultImageCheckpoints,
		videoCheckpoints:   defaultVideoCheckpoints,
		rampCancels:        make(map[domain.MediaKind]context.CancelFunc),
	}
}

// SetEventSink registers the UI push callback.
func (c *Coordinator) SetEventSink(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// SubmitImage starts an image detection job for the staged file. It
// fails fast with jobs.ErrJobAlreadyRunning while an image job is in
// flight, leaving that job untouched.
func (c *Coordinator) SubmitImage(staged staging.StagedFile, params ImageParams) (domain.Job, error) {
	jobID := newJobID()
	if err := c.jobs.Begin(domain.MediaKindImage, jobID, staged.Path); err != nil {
		return domain.Job{}, err
	}
	// Enter uploading before returning so a racing second submit is
	// guaranteed to hit the guard.
	if err := c.jobs.Transition(domain.MediaKindImage, domain.JobStageUploading); err != nil {
		return domain.Job{}, err
	}

	go c.runImageJob(jobID, staged, params)
	return c.jobs.Current(domain.MediaKindImage), nil
}

// SubmitVideo starts a video tracking job for the staged file, with the
// same guard per media kind.
func (c *Coordinator) SubmitVideo(staged staging.StagedFile, params VideoParams) (domain.Job, error) {
	jobID := newJobID()
	if err := c.jobs.Begin(domain.MediaKindVideo, jobID, staged.Path); err != nil {
		return domain.Job{}, err
	}
	if err := c.jobs.Transition(domain.MediaKindVideo, domain.JobStageUploading); err != nil {
		return domain.Job{}, err
	}

	go c.runVideoJob(jobID, staged, params)
	return c.jobs.Current(domain.MediaKindVideo), nil
}

// CurrentJob returns a snapshot of the live job for kind.
func (c *Coordinator) CurrentJob(kind domain.MediaKind) domain.Job {
	return c.jobs.Current(kind)
}

// Progress returns displayed progress: the maximum of the last confirmed
// milestone and the current ramp value.
func (c *Coordinator) Progress(kind domain.MediaKind) float64 {
	return c.jobs.Progress(kind)
}

// LastDetection returns the most recent completed detection result.
func (c *Coordinator) LastDetection() (domain.DetectionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastDetection == nil {
		return domain.DetectionResult{}, false
	}
	return *c.lastDetection, true
}

// LastTracking returns the most recent completed tracking result.
func (c *Coordinator) LastTracking() (domain.TrackingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastTracking == nil {
		return domain.TrackingResult{}, false
	}
	return *c.lastTracking, true
}

// runImageJob executes the image workflow to a terminal stage.
func (c *Coordinator) runImageJob(jobID string, staged staging.StagedFile, params ImageParams) {
	ctx := context.Background()
	kind := domain.MediaKindImage

	c.jobs.ConfirmMilestone(kind, imageUploadRampStart)
	c.appendLog(jobID, kind, jobs.LogLevelInfo, "Starting image detection...")

	c.startRamp(kind, imageUploadRampStart, imageUploadRampEnd)

	uploaded, err := c.service.UploadImage(ctx, staged.Path)
	if err != nil {
		c.failJob(jobID, kind, "Image detection failed", err)
		return
	}

	c.stopRamp(kind)
	c.jobs.ConfirmMilestone(kind, imageUploadMilestone)
	if err := c.jobs.Transition(kind, domain.JobStageProcessing); err != nil {
		c.logger.Error("transition failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	c.appendLog(jobID, kind, jobs.LogLevelInfo, "Image uploaded, starting detection...")

	c.startCheckpoints(jobID, kind, c.imageCheckpoints)

	raw, err := c.service.DetectImage(ctx, params.Credential, api.DetectRequest{
		ImagePath:     uploaded.FilePath,
		ConfThreshold: params.ConfThreshold,
		MaxImageSize:  params.MaxImageSize,
	})
	c.stopRamp(kind)
	if err != nil {
		c.failJob(jobID, kind, "Image detection failed", err)
		return
	}

	result := normalize.Detection(raw)
	c.mu.Lock()
	c.lastDetection = &result
	c.mu.Unlock()

	if !result.Success {
		message := result.ErrorMessage
		if message == "" {
			message = "detection rejected by service"
		}
		c.failJob(jobID, kind, "Image detection failed", fmt.Errorf("%s", message))
		return
	}

	if err := c.jobs.Complete(kind); err != nil {
		c.logger.Error("complete failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	c.appendLog(jobID, kind, jobs.LogLevelSuccess,
		fmt.Sprintf("Image detection completed: %d persons found", result.TotalPersons))
}

// runVideoJob executes the video workflow to a terminal stage.
func (c *Coordinator) runVideoJob(jobID string, staged staging.StagedFile, params VideoParams) {
	ctx := context.Background()
	kind := domain.MediaKindVideo

	c.jobs.ConfirmMilestone(kind, videoUploadRampStart)
	c.appendLog(jobID, kind, jobs.LogLevelInfo, "Starting video upload and processing...")

	c.startRamp(kind, videoUploadRampStart, videoUploadRampEnd)

	uploaded, err := c.service.UploadVideo(ctx, staged.Path)
	if err != nil {
		c.failJob(jobID, kind, "Video tracking failed", err)
		return
	}

	c.stopRamp(kind)
	c.jobs.ConfirmMilestone(kind, videoUploadMilestone)
	if err := c.jobs.Transition(kind, domain.JobStageProcessing); err != nil {
		c.logger.Error("transition failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	c.appendLog(jobID, kind, jobs.LogLevelInfo, "Video uploaded, starting tracking...")

	c.startCheckpoints(jobID, kind, c.videoCheckpoints)

	raw, err := c.service.TrackVideo(ctx, api.TrackRequest{
		VideoSource:     uploaded.FilePath,
		APIKey:          params.Credential,
		ConfThreshold:   params.ConfThreshold,
		TrackerType:     string(params.TrackerKind),
		EnableAutoDedup: params.EnableAutoDedup,
	})
	c.stopRamp(kind)
	if err != nil {
		c.failJob(jobID, kind, "Video tracking failed", err)
		return
	}

	result := normalize.Tracking(raw)
	c.mu.Lock()
	c.lastTracking = &result
	c.mu.Unlock()

	if !result.Success {
		message := result.ErrorMessage
		if message == "" {
			message = "tracking rejected by service"
		}
		c.failJob(jobID, kind, "Video tracking failed", fmt.Errorf("%s", message))
		return
	}

	if err := c.jobs.Complete(kind); err != nil {
		c.logger.Error("complete failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	c.appendLog(jobID, kind, jobs.LogLevelSuccess, "Video tracking completed")
}

// startRamp launches the upload ramp for kind, replacing any pending one.
func (c *Coordinator) startRamp(kind domain.MediaKind, start, end float64) {
	ctx := c.resetRampContext(kind)
	jobID := c.jobs.Current(kind).ID

	go c.estimator.Ramp(ctx, start, end, c.uploadRampDuration, func(percent float64) {
		c.jobs.AdvanceRamp(kind, percent)
		c.emit(jobID, kind, "", "")
	})
}

// startCheckpoints launches the processing phase sequence for kind.
func (c *Coordinator) startCheckpoints(jobID string, kind domain.MediaKind, steps []progress.Checkpoint) {
	ctx := c.resetRampContext(kind)

	go c.estimator.PlayCheckpoints(ctx, steps, func(percent float64, message string) {
		c.jobs.AdvanceRamp(kind, percent)
		c.appendLog(jobID, kind, jobs.LogLevelInfo, message)
	})
}

// resetRampContext cancels kind's pending ramp and arms a fresh one.
func (c *Coordinator) resetRampContext(kind domain.MediaKind) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.rampCancels[kind]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.rampCancels[kind] = cancel
	return ctx
}

// stopRamp tears down kind's pending ramp so a stale tick cannot fire
// after a milestone or terminal transition.
func (c *Coordinator) stopRamp(kind domain.MediaKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.rampCancels[kind]; ok {
		cancel()
		delete(c.rampCancels, kind)
	}
}

// failJob moves kind's job to failed, freezing progress, and logs why.
func (c *Coordinator) failJob(jobID string, kind domain.MediaKind, prefix string, cause error) {
	c.stopRamp(kind)

	message := fmt.Sprintf("%s: %v", prefix, cause)
	if err := c.jobs.Fail(kind, cause.Error()); err != nil {
		c.logger.Error("fail transition rejected", zap.String("jobId", jobID), zap.Error(err))
	}
	c.logger.Warn("job failed",
		zap.String("jobId", jobID),
		zap.String("mediaKind", string(kind)),
		zap.Error(cause),
	)
	c.appendLog(jobID, kind, jobs.LogLevelError, message)
}

// appendLog records a user-visible log line and pushes an event.
func (c *Coordinator) appendLog(jobID string, kind domain.MediaKind, level jobs.LogLevel, message string) {
	c.log.Append(jobs.Entry{
		JobID:     jobID,
		MediaKind: kind,
		Level:     level,
		Message:   message,
	})
	c.emit(jobID, kind, level, message)
}

// emit pushes the current job snapshot to the UI sink, if registered.
func (c *Coordinator) emit(jobID string, kind domain.MediaKind, level jobs.LogLevel, message string) {
	c.mu.Lock()
	sink := c.onEvent
	c.mu.Unlock()
	if sink == nil {
		return
	}

	job := c.jobs.Current(kind)
	sink(Event{
		JobID:     jobID,
		MediaKind: kind,
		Stage:     job.Stage,
		Progress:  job.ProgressPercent,
		Level:     level,
		Message:   message,
	})
}

// newJobID mints a unique job identifier.
func newJobID() string {
	return "job-" + uuid.NewString()
}
