package notify

import "time"

// Lifecycle statuses carried in GenerationEvent and appended to the
// configured subject prefix, e.g. gitlyte.events.completed.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// GenerationEvent represents a generation job state change.
// This event is published to NATS for downstream processing (e.g., chat
// notifications or dashboards).
type GenerationEvent struct {
	Status     string `json:"status"` // "started", "completed", "failed"
	JobID      string `json:"job_id"`
	Repository string `json:"repository"` // owner/name

	// Trigger context
	Trigger    string `json:"trigger,omitempty"`    // merged_pr, push, comment, manual, schedule
	Generation string `json:"generation,omitempty"` // full, preview

	// Result (completed jobs)
	Outcome    string `json:"outcome,omitempty"`
	Score      int    `json:"score,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Commit     string `json:"commit,omitempty"`

	// Failure (failed jobs)
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`

	DurationMS int64     `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
