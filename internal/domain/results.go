package domain

// BoundingBox is a detection rectangle in image coordinates, stored as
// its two corners the way the service reports them.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is one detected person with model confidence in [0,1].
type Detection struct {
	Confidence        float64     `json:"confidence"`
	ConfidenceDisplay string      `json:"confidenceDisplay"`
	Box               BoundingBox `json:"box"`
}

// DetectionResult is the canonical outcome of an image detection job.
type DetectionResult struct {
	Success          bool        `json:"success"`
	TotalPersons     int         `json:"totalPersons"`
	Detections       []Detection `json:"detections"`
	OutputImagePath  string      `json:"outputImagePath,omitempty"`
	ProcessingTimeMs int64       `json:"processingTimeMs"`
	ErrorMessage     string      `json:"errorMessage,omitempty"`
}

// TrackingResult is the canonical outcome of a video tracking job.
type TrackingResult struct {
	Success          bool   `json:"success"`
	TotalFrames      int    `json:"totalFrames"`
	MaxPersonCount   int    `json:"maxPersonCount"`
	APICallCount     int    `json:"apiCallCount"`
	DedupOperations  int    `json:"dedupOperations"`
	OutputVideoPath  string `json:"outputVideoPath,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

// RecordStatus classifies a history record's outcome.
type RecordStatus string

const (
	RecordStatusSuccess    RecordStatus = "success"
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusFailed     RecordStatus = "failed"
	RecordStatusUnknown    RecordStatus = "unknown"
)

// HistoryRecord is one past job as shown in the history view. Every field
// carries a safe default so a malformed server row still renders.
type HistoryRecord struct {
	ID                    int64        `json:"id"`
	MediaKind             string       `json:"mediaKind"`
	FileName              string       `json:"fileName"`
	PersonCount           int          `json:"personCount"`
	ProcessingTimeSeconds float64      `json:"processingTimeSeconds"`
	Status                RecordStatus `json:"status"`
	CreatedAtDisplay      string       `json:"createdAtDisplay"`
}

// Activity is one recent-activity row on the dashboard.
type Activity struct {
	Kind    string `json:"type"`
	Name    string `json:"name"`
	Persons int    `json:"persons"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

// DashboardStats aggregates service-wide counters for the dashboard view.
type DashboardStats struct {
	TotalImages      int        `json:"totalImages"`
	TotalVideos      int        `json:"totalVideos"`
	TotalPersons     int        `json:"totalPersons"`
	APICalls         int        `json:"apiCalls"`
	RecentActivities []Activity `json:"recentActivities"`
}
