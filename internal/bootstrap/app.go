package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"drone-vision/internal/api"
	"drone-vision/internal/config"
	"drone-vision/internal/diagnostics"
	"drone-vision/internal/domain"
	"drone-vision/internal/history"
	"drone-vision/internal/jobs"
	"drone-vision/internal/normalize"
	"drone-vision/internal/staging"
	"drone-vision/internal/workflow"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	defaultServiceBaseURL = "http://localhost:8080/api/drone"
	serviceBaseURLEnv     = "DRONE_VISION_SERVICE_URL"
)

var imageDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Images",
		Pattern:     "*.jpg;*.jpeg;*.png;*.gif",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Videos",
		Pattern:     "*.mp4;*.avi;*.mov;*.mkv;*.webm",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, staging, jobs, the workflow coordinator, and
// UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport

	assets      fs.FS
	checker     *diagnostics.Checker
	client      *api.Client
	stager      *staging.Stager
	coordinator *workflow.Coordinator
	reconciler  *history.Reconciler
	eventLog    *jobs.EventLog
	logger      *zap.Logger

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".drone-vision", "settings.json"))
	settings := store.Load()

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	client := api.NewClient(serviceBaseURL(), settingsTimeout(settings), logger)
	manager := jobs.NewManager()
	eventLog := jobs.NewEventLog(0)
	coordinator := workflow.NewCoordinator(manager, eventLog, client, logger)

	app := &App{
		Settings:    settings,
		Store:       store,
		Jobs:        manager,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		client:      client,
		stager:      staging.NewStager(),
		coordinator: coordinator,
		reconciler:  history.NewReconciler(client),
		eventLog:    eventLog,
		logger:      logger,
	}
	coordinator.SetEventSink(app.pushEvent)

	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Drone Vision",
		Width:       1280,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			a.runtimeCtx = nil
			a.mu.Unlock()
			_ = a.logger.Sync()
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached configuration report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() domain.Settings {
	settings := a.Store.Load()

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings
}

// SaveSettings persists settings, applies the new timeout to the service
// client, and refreshes diagnostics. The persisted, coerced values are
// returned so the UI reflects what was actually stored.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	saved, err := a.Store.Save(settings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.client.SetTimeout(settingsTimeout(saved))

	a.mu.Lock()
	a.Settings = saved
	a.Diagnostics = a.checker.Run(saved)
	a.mu.Unlock()

	return saved, nil
}

// RefreshDiagnostics reloads settings and reruns configuration checks.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	settings := a.Store.Load()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	return a.Diagnostics
}

// PickImageFile opens a native file dialog for image selection.
func (a *App) PickImageFile() (string, error) {
	return a.pickFile("Select image file", imageDialogFilter)
}

// PickVideoFile opens a native file dialog for video selection.
func (a *App) PickVideoFile() (string, error) {
	return a.pickFile("Select video file", videoDialogFilter)
}

// StageImage validates and stages a local image for submission.
func (a *App) StageImage(path string) (staging.StagedFile, error) {
	return a.stager.Stage(strings.TrimSpace(path), domain.MediaKindImage)
}

// StageVideo validates and stages a local video for submission.
func (a *App) StageVideo(path string) (staging.StagedFile, error) {
	return a.stager.Stage(strings.TrimSpace(path), domain.MediaKindVideo)
}

// ClearStaged drops the staged file for the given media kind.
func (a *App) ClearStaged(kind domain.MediaKind) {
	a.stager.Clear(kind)
}

// StartImageDetection submits the staged image using current settings.
func (a *App) StartImageDetection() (domain.Job, error) {
	staged, ok := a.stager.Current(domain.MediaKindImage)
	if !ok {
		return domain.Job{}, fmt.Errorf("no image staged")
	}

	settings := a.GetSettings()
	return a.coordinator.SubmitImage(staged, workflow.ImageParams{
		Credential:    settings.Credential,
		ConfThreshold: settings.DefaultConfidence,
		MaxImageSize:  settings.MaxImageSizePixels,
	})
}

// StartVideoTracking submits the staged video using current settings.
func (a *App) StartVideoTracking(tracker domain.TrackerKind, enableAutoDedup bool) (domain.Job, error) {
	staged, ok := a.stager.Current(domain.MediaKindVideo)
	if !ok {
		return domain.Job{}, fmt.Errorf("no video staged")
	}

	settings := a.GetSettings()
	if !domain.IsSupportedTracker(tracker) {
		tracker = settings.DefaultTrackerKind
	}

	return a.coordinator.SubmitVideo(staged, workflow.VideoParams{
		Credential:      settings.Credential,
		ConfThreshold:   settings.DefaultConfidence,
		TrackerKind:     tracker,
		EnableAutoDedup: enableAutoDedup,
	})
}

// CurrentJob returns a snapshot of the live job for kind.
func (a *App) CurrentJob(kind domain.MediaKind) domain.Job {
	return a.coordinator.CurrentJob(kind)
}

// CurrentProgress returns displayed progress for kind.
func (a *App) CurrentProgress(kind domain.MediaKind) float64 {
	return a.coordinator.Progress(kind)
}

// LastDetectionResult returns the most recent image detection outcome,
// or nil when no job has finished yet.
func (a *App) LastDetectionResult() *domain.DetectionResult {
	result, ok := a.coordinator.LastDetection()
	if !ok {
		return nil
	}
	return &result
}

// LastTrackingResult returns the most recent video tracking outcome, or
// nil when no job has finished yet.
func (a *App) LastTrackingResult() *domain.TrackingResult {
	result, ok := a.coordinator.LastTracking()
	if !ok {
		return nil
	}
	return &result
}

// LogEvents returns all log entries with sequence greater than sinceSeq.
func (a *App) LogEvents(sinceSeq int64) []jobs.Entry {
	return a.eventLog.Since(sinceSeq)
}

// LoadDashboard fetches service-wide stats, falling back to placeholder
// numbers when the service is unreachable so the dashboard always renders.
func (a *App) LoadDashboard() domain.DashboardStats {
	raw, err := a.client.DashboardStats(context.Background())
	if err != nil {
		a.logger.Warn("dashboard stats unavailable", zap.Error(err))
		return placeholderStats()
	}
	return normalize.Stats(raw)
}

// LoadHistory lists past jobs, filtered client-side as well as server-side.
func (a *App) LoadHistory(kind, status, date string) ([]domain.HistoryRecord, error) {
	return a.reconciler.List(context.Background(), history.Filter{
		Kind:   kind,
		Status: status,
		Date:   date,
	})
}

// DeleteHistoryRecord removes one history record on the service.
func (a *App) DeleteHistoryRecord(kind string, id int64) error {
	return a.reconciler.Delete(context.Background(), kind, id)
}

// TestCredential verifies the credential and model against the service.
func (a *App) TestCredential(credential, model string) (api.Ack, error) {
	return a.client.TestCredential(context.Background(), strings.TrimSpace(credential), model)
}

// pickFile opens a native file dialog and returns the chosen path.
func (a *App) pickFile(title string, filters []wailsruntime.FileFilter) (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   title,
		Filters: filters,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// pushEvent forwards coordinator events to the frontend.
func (a *App) pushEvent(event workflow.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", event)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// serviceBaseURL resolves the detection service endpoint.
func serviceBaseURL() string {
	if url := strings.TrimSpace(os.Getenv(serviceBaseURLEnv)); url != "" {
		return strings.TrimRight(url, "/")
	}
	return defaultServiceBaseURL
}

func settingsTimeout(settings domain.Settings) time.Duration {
	return time.Duration(settings.TimeoutSeconds) * time.Second
}

// placeholderStats keeps the dashboard populated when the stats endpoint
// fails.
func placeholderStats() domain.DashboardStats {
	return domain.DashboardStats{
		TotalImages:  156,
		TotalVideos:  23,
		TotalPersons: 892,
		APICalls:     445,
		RecentActivities: []domain.Activity{
			{Kind: "image", Name: "drone_image_001.jpg", Persons: 3, Time: "2 minutes ago", Status: "success"},
			{Kind: "video", Name: "surveillance_video.mp4", Persons: 5, Time: "10 minutes ago", Status: "success"},
			{Kind: "image", Name: "aerial_shot.png", Persons: 1, Time: "1 hour ago", Status: "success"},
		},
	}
}
