package server

import (
	"net/http"
	"time"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/version"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := glerrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", http.MethodGet)
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Version:     version.Version,
		Uptime:      time.Since(s.startTime).Seconds(),
		ActiveJobs:  len(s.queue.GetActiveJobs()),
		QueueLength: s.queue.Length(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			glerrors.WrapError(err, glerrors.CategoryInternal, "failed to write health response"))
	}
}
