package server

import (
	"time"

	"github.com/wadakatu/gitlyte/internal/history"
)

// WebhookResponse acknowledges a webhook delivery. Status is one of
// "queued", "ignored", "replied" or "pong".
type WebhookResponse struct {
	Status    string    `json:"status"`
	JobID     string    `json:"job_id,omitempty"`
	Command   string    `json:"command,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Uptime      float64   `json:"uptime"`
	ActiveJobs  int       `json:"active_jobs"`
	QueueLength int       `json:"queue_length"`
}

// StatusResponse reports the daemon's runtime state.
type StatusResponse struct {
	Status      string          `json:"status"`
	StartTime   time.Time       `json:"start_time"`
	Uptime      float64         `json:"uptime"`
	QueueLength int             `json:"queue_length"`
	ActiveJobs  []ActiveJobInfo `json:"active_jobs"`
	Config      ConfigSummary   `json:"config"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ActiveJobInfo describes one running generation job.
type ActiveJobInfo struct {
	ID         string     `json:"id"`
	Repository string     `json:"repository"`
	Trigger    string     `json:"trigger"`
	Generation string     `json:"generation"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// ConfigSummary is a sanitized view of the daemon configuration.
type ConfigSummary struct {
	Workers        int  `json:"workers"`
	QueueSize      int  `json:"queue_size"`
	Schedules      int  `json:"schedules"`
	HistoryEnabled bool `json:"history_enabled"`
	NotifyEnabled  bool `json:"notify_enabled"`
	WatchEnabled   bool `json:"watch_enabled"`
}

// HistoryResponse lists recent generation runs, newest first.
type HistoryResponse struct {
	Status    string                `json:"status"`
	Count     int                   `json:"count"`
	Jobs      []*history.JobSummary `json:"jobs"`
	Timestamp time.Time             `json:"timestamp"`
}
