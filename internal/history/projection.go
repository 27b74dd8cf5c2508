// Package history provides event sourcing primitives for generation job tracking.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	jobStatusRunning   = "running"
	jobStatusCompleted = "completed"
)

// JobSummary is a read model summarizing a completed or in-progress generation job.
type JobSummary struct {
	JobID          string           `json:"job_id"`
	Repository     string           `json:"repository"`
	Status         string           `json:"status"` // "running", "completed", "failed"
	Trigger        string           `json:"trigger,omitempty"`
	Generation     string           `json:"generation,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Duration       time.Duration    `json:"duration,omitempty"`
	Outcome        string           `json:"outcome,omitempty"`
	Score          int              `json:"score,omitempty"`
	Iterations     int              `json:"iterations,omitempty"`
	Branch         string           `json:"branch,omitempty"`
	CommitSHA      string           `json:"commit_sha,omitempty"`
	Files          int              `json:"files,omitempty"`
	ErrorStage     string           `json:"error_stage,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	StageDurations map[string]int64 `json:"stage_durations_ms,omitempty"`
}

// JobHistoryProjection maintains an in-memory view of generation history,
// rebuilt from the persisted event stream at startup and kept current by
// Apply.
type JobHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	jobs     map[string]*JobSummary // jobID -> summary
	history  []*JobSummary          // ordered by start time, newest first
	maxSize  int
	lastSync time.Time
}

// NewJobHistoryProjection creates a new projection backed by the given store.
func NewJobHistoryProjection(store Store, maxHistorySize int) *JobHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &JobHistoryProjection{
		store:   store,
		jobs:    make(map[string]*JobSummary),
		history: make([]*JobSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild replays every stored event into a fresh in-memory state. The
// daemon calls this once at startup before serving history queries.
func (p *JobHistoryProjection) Rebuild(ctx context.Context) error {
	// End bound padded an hour to absorb clock skew between writers.
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Reset state
	p.jobs = make(map[string]*JobSummary)
	p.history = make([]*JobSummary, 0, p.maxSize)

	for _, event := range events {
		p.applyEventLocked(event)
	}

	p.sortHistoryLocked()

	// Trim to max size
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}

	// Prevent unbounded growth: keep only bounded history + any running jobs.
	p.pruneJobsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply folds one live event into the projection as it is emitted.
func (p *JobHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

// applyEventLocked updates state for one event. Caller holds p.mu.
func (p *JobHistoryProjection) applyEventLocked(event Event) {
	jobID := event.JobID()
	if jobID == "" || jobID == "unknown" {
		return
	}

	summary, exists := p.jobs[jobID]
	if !exists {
		summary = &JobSummary{
			JobID:      jobID,
			Repository: event.Repository(),
			Status:     jobStatusRunning,
			StartedAt:  event.Timestamp(),
		}
		p.jobs[jobID] = summary
	}

	// Update summary based on event type
	switch event.Type() {
	case "GenerationStarted":
		summary.StartedAt = event.Timestamp()
		summary.Status = jobStatusRunning
		var payload struct {
			Repository string `json:"repository"`
			Trigger    string `json:"trigger"`
			Generation string `json:"generation"`
			Reason     string `json:"reason"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if payload.Repository != "" {
				summary.Repository = payload.Repository
			}
			summary.Trigger = payload.Trigger
			summary.Generation = payload.Generation
			summary.Reason = payload.Reason
		}

	case "StageCompleted":
		var payload struct {
			Stage      string `json:"stage"`
			DurationMS int64  `json:"duration_ms"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.Stage != "" {
			if summary.StageDurations == nil {
				summary.StageDurations = make(map[string]int64)
			}
			summary.StageDurations[payload.Stage] = payload.DurationMS
		}

	case "SitePublished":
		var payload struct {
			Branch string `json:"branch"`
			Commit string `json:"commit"`
			Files  int    `json:"files"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Branch = payload.Branch
			summary.CommitSHA = payload.Commit
			summary.Files = payload.Files
		}

	case "GenerationCompleted":
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = jobStatusCompleted
		var payload struct {
			Outcome    string `json:"outcome"`
			Score      int    `json:"score"`
			Iterations int    `json:"iterations"`
			DurationMS int64  `json:"duration_ms"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Outcome = payload.Outcome
			summary.Score = payload.Score
			summary.Iterations = payload.Iterations
			if payload.DurationMS > 0 {
				summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
			}
		}
		p.addToHistoryLocked(summary)

	case "GenerationFailed":
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = "failed"
		var payload struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
		p.addToHistoryLocked(summary)
	}
}

// addToHistoryLocked adds a finished job to history if not already present.
func (p *JobHistoryProjection) addToHistoryLocked(summary *JobSummary) {
	// Check if already in history
	for _, h := range p.history {
		if h.JobID == summary.JobID {
			return
		}
	}

	// Add to history
	p.history = append([]*JobSummary{summary}, p.history...)

	// Trim to max size
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}

	// Prevent unbounded growth: keep only bounded history + any running jobs.
	p.pruneJobsLocked()
}

// pruneJobsLocked removes finished jobs not present in the bounded history.
// It keeps any jobs that are still marked as running.
// Caller must hold p.mu (write lock).
func (p *JobHistoryProjection) pruneJobsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		if h != nil {
			keep[h.JobID] = struct{}{}
		}
	}

	for id, summary := range p.jobs {
		if summary != nil && summary.Status == jobStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.jobs, id)
		}
	}
}

// sortHistoryLocked orders history newest first by start time.
func (p *JobHistoryProjection) sortHistoryLocked() {
	// history never exceeds maxSize entries
	for i := 1; i < len(p.history); i++ {
		for j := i; j > 0 && p.history[j].StartedAt.After(p.history[j-1].StartedAt); j-- {
			p.history[j], p.history[j-1] = p.history[j-1], p.history[j]
		}
	}
}

// GetHistory returns the job history, newest first.
func (p *JobHistoryProjection) GetHistory() []*JobSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*JobSummary, len(p.history))
	copy(result, p.history)
	return result
}

// GetRepositoryHistory returns the job history for one repository, newest first.
func (p *JobHistoryProjection) GetRepositoryHistory(repository string) []*JobSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []*JobSummary
	for _, h := range p.history {
		if h.Repository == repository {
			result = append(result, h)
		}
	}
	return result
}

// GetJob returns the summary for a specific job.
func (p *JobHistoryProjection) GetJob(jobID string) (*JobSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.jobs[jobID]
	if !exists {
		return nil, false
	}

	// Return a copy
	cp := *summary
	return &cp, true
}

// GetActiveJobs returns all currently running jobs.
func (p *JobHistoryProjection) GetActiveJobs() []*JobSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var active []*JobSummary
	for _, summary := range p.jobs {
		if summary.Status == jobStatusRunning {
			cp := *summary
			active = append(active, &cp)
		}
	}
	return active
}

// GetLastCompletedJob returns the most recently finished job (success or failure).
func (p *JobHistoryProjection) GetLastCompletedJob() *JobSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return nil
	}

	// History is sorted newest first
	cp := *p.history[0]
	return &cp
}

// LastSyncTime reports when the last Rebuild finished.
func (p *JobHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
