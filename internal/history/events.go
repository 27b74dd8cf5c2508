package history

import (
	"encoding/json"
	"time"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
)

// GenerationStartedMeta contains typed metadata for generation start events.
type GenerationStartedMeta struct {
	Trigger    string `json:"trigger"`    // trigger type (auto, manual, label, comment)
	Generation string `json:"generation"` // generation type (full, preview, force)
	Reason     string `json:"reason,omitempty"`
}

// GenerationStarted is emitted when a generation job begins.
type GenerationStarted struct {
	BaseEvent
	Meta GenerationStartedMeta `json:"meta"`
}

// NewGenerationStarted creates a GenerationStarted event.
func NewGenerationStarted(jobID, repository string, meta GenerationStartedMeta) (*GenerationStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"repository": repository,
		"trigger":    meta.Trigger,
		"generation": meta.Generation,
		"reason":     meta.Reason,
	})
	if err != nil {
		return nil, glerrors.InternalError("failed to marshal GenerationStarted payload", err).
			WithContext("job_id", jobID)
	}

	return &GenerationStarted{
		BaseEvent: BaseEvent{
			EventJobID:      jobID,
			EventRepository: repository,
			EventType:       "GenerationStarted",
			EventTimestamp:  time.Now(),
			EventPayload:    payload,
		},
		Meta: meta,
	}, nil
}

// StageCompleted is emitted when one pipeline stage finishes.
type StageCompleted struct {
	BaseEvent
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ms"`
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(jobID, repository, stage string, duration time.Duration) (*StageCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"stage":       stage,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, glerrors.InternalError("failed to marshal StageCompleted payload", err).
			WithContext("job_id", jobID).
			WithContext("stage", stage)
	}

	return &StageCompleted{
		BaseEvent: BaseEvent{
			EventJobID:      jobID,
			EventRepository: repository,
			EventType:       "StageCompleted",
			EventTimestamp:  time.Now(),
			EventPayload:    payload,
		},
		Stage:    stage,
		Duration: duration,
	}, nil
}

// SitePublished is emitted when a bundle lands on the pages branch.
type SitePublished struct {
	BaseEvent
	Branch string `json:"branch"`
	Commit string `json:"commit"`
	Files  int    `json:"files"`
}

// NewSitePublished creates a SitePublished event.
func NewSitePublished(jobID, repository, branch, commit string, files int) (*SitePublished, error) {
	payload, err := json.Marshal(map[string]any{
		"branch": branch,
		"commit": commit,
		"files":  files,
	})
	if err != nil {
		return nil, glerrors.InternalError("failed to marshal SitePublished payload", err).
			WithContext("job_id", jobID)
	}

	return &SitePublished{
		BaseEvent: BaseEvent{
			EventJobID:      jobID,
			EventRepository: repository,
			EventType:       "SitePublished",
			EventTimestamp:  time.Now(),
			EventPayload:    payload,
		},
		Branch: branch,
		Commit: commit,
		Files:  files,
	}, nil
}

// GenerationCompleted is emitted when a generation job finishes successfully.
type GenerationCompleted struct {
	BaseEvent
	Outcome    string        `json:"outcome"`
	Score      int           `json:"score"`
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration_ms"`
}

// NewGenerationCompleted creates a GenerationCompleted event.
func NewGenerationCompleted(jobID, repository, outcome string, score, iterations int, duration time.Duration) (*GenerationCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"outcome":     outcome,
		"score":       score,
		"iterations":  iterations,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, glerrors.InternalError("failed to marshal GenerationCompleted payload", err).
			WithContext("job_id", jobID)
	}

	return &GenerationCompleted{
		BaseEvent: BaseEvent{
			EventJobID:      jobID,
			EventRepository: repository,
			EventType:       "GenerationCompleted",
			EventTimestamp:  time.Now(),
			EventPayload:    payload,
		},
		Outcome:    outcome,
		Score:      score,
		Iterations: iterations,
		Duration:   duration,
	}, nil
}

// GenerationFailed is emitted when a generation job fails.
type GenerationFailed struct {
	BaseEvent
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewGenerationFailed creates a GenerationFailed event.
func NewGenerationFailed(jobID, repository, stage, errorMsg string) (*GenerationFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"stage": stage,
		"error": errorMsg,
	})
	if err != nil {
		return nil, glerrors.InternalError("failed to marshal GenerationFailed payload", err).
			WithContext("job_id", jobID).
			WithContext("stage", stage)
	}

	return &GenerationFailed{
		BaseEvent: BaseEvent{
			EventJobID:      jobID,
			EventRepository: repository,
			EventType:       "GenerationFailed",
			EventTimestamp:  time.Now(),
			EventPayload:    payload,
		},
		Stage: stage,
		Error: errorMsg,
	}, nil
}
