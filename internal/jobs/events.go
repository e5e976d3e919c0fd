package jobs

import (
	"sync"
	"time"

	"drone-vision/internal/domain"
)

// LogLevel classifies event log lines shown in the UI.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// defaultLogCapacity bounds the log to the last 100 lines.
const defaultLogCapacity = 100

// Entry is one timestamped log line consumed by UI subscribers.
type Entry struct {
	Seq       int64            `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	JobID     string           `json:"jobId,omitempty"`
	MediaKind domain.MediaKind `json:"mediaKind,omitempty"`
	Level     LogLevel         `json:"level"`
	Message   string           `json:"message"`
}

// EventLog stores recent log lines and provides incremental reads. Once
// the capacity is exceeded the oldest entries are evicted first.
type EventLog struct {
	mu         sync.RWMutex
	nextSeq    int64
	maxEntries int
	entries    []Entry
}

// NewEventLog creates a bounded in-memory event log.
func NewEventLog(maxEntries int) *EventLog {
	if maxEntries <= 0 {
		maxEntries = defaultLogCapacity
	}

	return &EventLog{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

// Append adds one entry and assigns sequence and timestamp.
func (l *EventLog) Append(entry Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq++
	entry.Seq = l.nextSeq
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Level == "" {
		entry.Level = LogLevelInfo
	}

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxEntries {
		trim := len(l.entries) - l.maxEntries
		l.entries = append([]Entry(nil), l.entries[trim:]...)
	}

	return entry
}

// Since returns entries with sequence strictly greater than seq.
func (l *EventLog) Since(seq int64) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}

	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.Seq > seq {
			out = append(out, entry)
		}
	}
	return out
}

// Snapshot returns a copy of the retained entries, oldest first.
func (l *EventLog) Snapshot() []Entry {
	return l.Since(0)
}
