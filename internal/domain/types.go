package domain

// MediaKind selects which of the two analysis workflows a job runs.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// JobStage tracks each lifecycle phase for a single analysis job.
type JobStage string

const (
	JobStageIdle       JobStage = "idle"
	JobStageStaged     JobStage = "staged"
	JobStageUploading  JobStage = "uploading"
	JobStageProcessing JobStage = "processing"
	JobStageCompleted  JobStage = "completed"
	JobStageFailed     JobStage = "failed"
)

// TrackerKind names the tracker algorithm used for video jobs.
type TrackerKind string

const (
	TrackerMIL  TrackerKind = "MIL"
	TrackerKCF  TrackerKind = "KCF"
	TrackerCSRT TrackerKind = "CSRT"
)

// SupportedTrackers lists tracker kinds accepted by the remote service.
var SupportedTrackers = []TrackerKind{TrackerMIL, TrackerKCF, TrackerCSRT}

// IsSupportedTracker reports whether kind is a known tracker algorithm.
func IsSupportedTracker(kind TrackerKind) bool {
	for _, t := range SupportedTrackers {
		if t == kind {
			return true
		}
	}
	return false
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	Credential         string      `json:"credential"`
	ModelName          string      `json:"modelName"`
	TimeoutSeconds     int         `json:"timeoutSeconds"`
	DefaultConfidence  float64     `json:"defaultConfidence"`
	MaxImageSizePixels int         `json:"maxImageSizePixels"`
	DefaultTrackerKind TrackerKind `json:"defaultTrackerKind"`
}

// Job stores identity, lifecycle stage, and outcome for one analysis run.
type Job struct {
	ID              string    `json:"id"`
	MediaKind       MediaKind `json:"mediaKind"`
	Stage           JobStage  `json:"stage"`
	ProgressPercent float64   `json:"progressPercent"`
	SourceFile      string    `json:"sourceFile"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}
