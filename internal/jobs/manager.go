package jobs

import (
	"errors"
	"fmt"
	"sync"

	"drone-vision/internal/domain"
)

// ErrJobAlreadyRunning is returned when submitting while the same media
// kind's job is still uploading or processing.
var ErrJobAlreadyRunning = errors.New("job already running")

// jobState is one media kind's live job plus its progress bookkeeping.
// Displayed progress is max(confirmed, ramp): a confirmed milestone comes
// from a completed network step and may never regress, while ramp is the
// synthetic estimate that fills the gaps between milestones.
type jobState struct {
	job       domain.Job
	confirmed float64
	ramp      float64
}

// Manager tracks one independent job state machine per media kind.
type Manager struct {
	mu    sync.RWMutex
	slots map[domain.MediaKind]*jobState
}

// NewManager creates a manager with both media kinds idle.
func NewManager() *Manager {
	return &Manager{
		slots: map[domain.MediaKind]*jobState{
			domain.MediaKindImage: {job: domain.Job{MediaKind: domain.MediaKindImage, Stage: domain.JobStageIdle}},
			domain.MediaKindVideo: {job: domain.Job{MediaKind: domain.MediaKindVideo, Stage: domain.JobStageIdle}},
		},
	}
}

// Begin creates a new job for kind and moves it to the staged stage.
// A second submission while that kind is uploading or processing is
// rejected with ErrJobAlreadyRunning and leaves the live job untouched.
func (m *Manager) Begin(kind domain.MediaKind, jobID, sourceFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if isRunning(slot.job.Stage) {
		return ErrJobAlreadyRunning
	}

	*slot = jobState{job: domain.Job{
		ID:         jobID,
		MediaKind:  kind,
		Stage:      domain.JobStageStaged,
		SourceFile: sourceFile,
	}}
	return nil
}

// Transition validates and applies a stage transition for kind's job.
func (m *Manager) Transition(kind domain.MediaKind, stage domain.JobStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if slot.job.ID == "" && stage != domain.JobStageIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if stage == slot.job.Stage {
		return nil
	}
	if !isValidTransition(slot.job.Stage, stage) {
		return fmt.Errorf("invalid transition: %s -> %s", slot.job.Stage, stage)
	}

	slot.job.Stage = stage
	return nil
}

// ConfirmMilestone records progress confirmed by a completed network step.
// Milestones only move forward.
func (m *Manager) ConfirmMilestone(kind domain.MediaKind, percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if isTerminal(slot.job.Stage) {
		return
	}
	if percent > slot.confirmed {
		slot.confirmed = clampPercent(percent)
	}
	slot.job.ProgressPercent = displayedProgress(slot)
}

// AdvanceRamp records a synthetic progress estimate. Stale ramp callbacks
// are dropped once the job reached a terminal stage, and a ramp can never
// pull displayed progress below an already confirmed milestone.
func (m *Manager) AdvanceRamp(kind domain.MediaKind, percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if isTerminal(slot.job.Stage) {
		return
	}
	if percent > slot.ramp {
		slot.ramp = clampPercent(percent)
	}
	slot.job.ProgressPercent = displayedProgress(slot)
}

// Complete moves kind's job to completed and forces progress to 100.
func (m *Manager) Complete(kind domain.MediaKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if !isValidTransition(slot.job.Stage, domain.JobStageCompleted) {
		return fmt.Errorf("invalid transition: %s -> %s", slot.job.Stage, domain.JobStageCompleted)
	}

	slot.job.Stage = domain.JobStageCompleted
	slot.confirmed = 100
	slot.job.ProgressPercent = 100
	return nil
}

// Fail moves kind's job to failed, freezing progress at its last value.
func (m *Manager) Fail(kind domain.MediaKind, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slot(kind)
	if !isValidTransition(slot.job.Stage, domain.JobStageFailed) {
		return fmt.Errorf("invalid transition: %s -> %s", slot.job.Stage, domain.JobStageFailed)
	}

	slot.job.Stage = domain.JobStageFailed
	slot.job.ErrorMessage = message
	return nil
}

// Current returns a snapshot of kind's job.
func (m *Manager) Current(kind domain.MediaKind) domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot(kind).job
}

// Progress returns the displayed progress for kind's job.
func (m *Manager) Progress(kind domain.MediaKind) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot(kind).job.ProgressPercent
}

// IsRunning reports whether kind's job is uploading or processing.
func (m *Manager) IsRunning(kind domain.MediaKind) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.slot(kind).job.Stage)
}

// slot returns the state for kind, creating an idle one for unknown kinds.
func (m *Manager) slot(kind domain.MediaKind) *jobState {
	slot, ok := m.slots[kind]
	if !ok {
		slot = &jobState{job: domain.Job{MediaKind: kind, Stage: domain.JobStageIdle}}
		m.slots[kind] = slot
	}
	return slot
}

// displayedProgress combines confirmed milestone and ramp estimate.
func displayedProgress(slot *jobState) float64 {
	if slot.confirmed > slot.ramp {
		return slot.confirmed
	}
	return slot.ramp
}

// clampPercent bounds a progress value to [0,100].
func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// isRunning checks if a stage represents an in-flight submission.
func isRunning(stage domain.JobStage) bool {
	switch stage {
	case domain.JobStageUploading, domain.JobStageProcessing:
		return true
	default:
		return false
	}
}

// isTerminal checks if a stage is completed or failed.
func isTerminal(stage domain.JobStage) bool {
	return stage == domain.JobStageCompleted || stage == domain.JobStageFailed
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStage) bool {
	switch from {
	case domain.JobStageIdle:
		return to == domain.JobStageStaged
	case domain.JobStageStaged:
		return to == domain.JobStageUploading || to == domain.JobStageFailed
	case domain.JobStageUploading:
		return to == domain.JobStageProcessing || to == domain.JobStageFailed
	case domain.JobStageProcessing:
		return to == domain.JobStageCompleted || to == domain.JobStageFailed
	case domain.JobStageCompleted, domain.JobStageFailed:
		return to == domain.JobStageStaged || to == domain.JobStageIdle
	default:
		return false
	}
}
