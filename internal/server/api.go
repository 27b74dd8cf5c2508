package server

import (
	"net/http"
	"time"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/history"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := glerrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", http.MethodGet)
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	active := s.queue.GetActiveJobs()
	jobs := make([]ActiveJobInfo, 0, len(active))
	for _, j := range active {
		jobs = append(jobs, ActiveJobInfo{
			ID:         j.ID,
			Repository: j.Slug(),
			Trigger:    string(j.Trigger),
			Generation: string(j.Generation),
			StartedAt:  j.StartedAt,
		})
	}

	resp := StatusResponse{
		Status:      "running",
		StartTime:   s.startTime,
		Uptime:      time.Since(s.startTime).Seconds(),
		QueueLength: s.queue.Length(),
		ActiveJobs:  jobs,
		Config:      s.configSummary(),
		Timestamp:   time.Now().UTC(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			glerrors.WrapError(err, glerrors.CategoryInternal, "failed to write status response"))
	}
}

func (s *Server) configSummary() ConfigSummary {
	summary := ConfigSummary{
		Schedules:      len(s.cfg.Schedules),
		HistoryEnabled: s.cfg.History.Enabled,
		NotifyEnabled:  s.cfg.Notify.Enabled,
	}
	if s.cfg.Daemon != nil {
		summary.Workers = s.cfg.Daemon.Queue.Workers
		summary.QueueSize = s.cfg.Daemon.Queue.Size
		summary.WatchEnabled = s.cfg.Daemon.Watch
	}
	return summary
}

// handleHistory serves completed job summaries. With the event-sourced
// projection enabled it answers from there, optionally filtered by
// ?repository=owner/name; otherwise it falls back to the queue's in-memory
// ring.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := glerrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", http.MethodGet)
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var jobs []*history.JobSummary
	if s.projection != nil {
		if repo := r.URL.Query().Get("repository"); repo != "" {
			jobs = s.projection.GetRepositoryHistory(repo)
		} else {
			jobs = s.projection.GetHistory()
		}
	} else {
		jobs = s.queueHistory()
	}

	resp := HistoryResponse{
		Status:    "ok",
		Count:     len(jobs),
		Jobs:      jobs,
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			glerrors.WrapError(err, glerrors.CategoryInternal, "failed to write history response"))
	}
}

func (s *Server) queueHistory() []*history.JobSummary {
	ring := s.queue.GetHistory()
	jobs := make([]*history.JobSummary, 0, len(ring))
	for _, j := range ring {
		summary := &history.JobSummary{
			JobID:        j.ID,
			Repository:   j.Slug(),
			Status:       string(j.Status),
			Trigger:      string(j.Trigger),
			Generation:   string(j.Generation),
			Reason:       j.Reason,
			StartedAt:    j.CreatedAt,
			CompletedAt:  j.CompletedAt,
			Duration:     j.Duration,
			ErrorMessage: j.Error,
		}
		if j.StartedAt != nil {
			summary.StartedAt = *j.StartedAt
		}
		jobs = append(jobs, summary)
	}
	return jobs
}
