package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter maps classified errors onto HTTP status codes, JSON
// payloads, and log levels.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter wires the adapter to the given logger, falling back to
// slog.Default for nil.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON body written for failed requests.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor picks the response status for err by category. Anything
// unclassified is a 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if gle, ok := err.(*GitLyteError); ok {
		switch gle.Category {
		case CategoryValidation, CategoryConfig:
			return http.StatusBadRequest
		case CategoryAuth:
			return http.StatusUnauthorized
		case CategoryNetwork, CategoryGitHub, CategoryLLM:
			return http.StatusBadGateway
		case CategoryContent, CategoryGeneration, CategoryPublish:
			return http.StatusUnprocessableEntity
		case CategoryDaemon, CategoryGuard:
			return http.StatusServiceUnavailable
		case CategoryInternal:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

// WriteErrorResponse sends the JSON payload for err and logs it at the
// severity-derived level.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.FormatErrorResponse(err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{\"error\":\"internal error\"}"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	if gle, ok := err.(*GitLyteError); ok {
		lvl := a.slogLevelFor(gle.Severity)
		a.logger.Log(r.Context(), lvl, gle.Error())
		return
	}
	a.logger.Error(err.Error())
}

// FormatErrorResponse builds the payload, copying category, context, and
// retryability from classified errors.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{Error: ""}
	}
	if gle, ok := err.(*GitLyteError); ok {
		resp := HTTPErrorResponse{Error: gle.Message, Code: string(gle.Category)}
		if len(gle.Context) > 0 {
			resp.Details = map[string]any(gle.Context)
		}
		if gle.Retryable {
			resp.Retryable = true
		}
		return resp
	}
	return HTTPErrorResponse{Error: err.Error()}
}

func (a *HTTPErrorAdapter) slogLevelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
