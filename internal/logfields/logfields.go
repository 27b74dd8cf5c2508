package logfields

import "log/slog"

// Field name constants shared by every package that logs, so the same
// attribute never appears under two spellings.
const (
	KeyJobID       = "job_id"
	KeyJobType     = "job_type"
	KeyJobPriority = "job_priority"
	KeyJobStatus   = "job_status"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyScheduleID  = "schedule_id"
	KeySchedule    = "schedule_name"
	KeyRepo        = "repository"
	KeySection     = "section"
	KeyTrigger     = "trigger"
	KeyGeneration  = "generation"
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyOperation   = "operation"
	KeyIteration   = "iteration"
	KeyScore       = "score"
	KeyBranch      = "branch"
	KeyEvent       = "event"
	KeyWorker      = "worker"
	KeyMethod      = "method"
	KeyPath        = "path"
	KeyStatus      = "status"
	KeyResponseSz  = "response_size"
	KeyRemoteAddr  = "remote_addr"
	KeyUserAgent   = "user_agent"
	KeyRequestID   = "request_id"
	KeyURL         = "url"
	KeyError       = "error"
)

// One slog.Attr helper per field, so call sites stay short and typed.
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func JobType(t string) slog.Attr      { return slog.String(KeyJobType, t) }
func JobPriority(p int) slog.Attr     { return slog.Int(KeyJobPriority, p) }
func JobStatus(s string) slog.Attr    { return slog.String(KeyJobStatus, s) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Generation(g string) slog.Attr   { return slog.String(KeyGeneration, g) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Iteration(i int) slog.Attr       { return slog.Int(KeyIteration, i) }
func Score(s int) slog.Attr           { return slog.Int(KeyScore, s) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr    { return slog.Int(KeyResponseSz, n) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
