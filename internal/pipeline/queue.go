package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wadakatu/gitlyte/internal/config"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/trigger"
)

// JobStatus represents the current status of a generation job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents a single generation job in the queue.
type Job struct {
	ID         string                 `json:"id"`
	Owner      string                 `json:"owner"`
	Repo       string                 `json:"repo"`
	Trigger    trigger.Type           `json:"trigger"`
	Generation trigger.GenerationType `json:"generation"`
	Reason     string                 `json:"reason,omitempty"`
	// PRNumber is the pull request to comment preview locations on;
	// zero when the trigger carries no PR context.
	PRNumber    int           `json:"pr_number,omitempty"`
	Status      JobStatus     `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`

	cancel context.CancelFunc
}

// Slug returns the owner/name repository identifier.
func (j *Job) Slug() string { return j.Owner + "/" + j.Repo }

// NewJob builds a queued job with a fresh ID from a positive trigger decision.
func NewJob(owner, repo string, decision trigger.Decision) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Owner:      owner,
		Repo:       repo,
		Trigger:    decision.TriggerType,
		Generation: decision.GenerationType,
		Reason:     decision.Reason,
		CreatedAt:  time.Now(),
	}
}

// Runner executes one generation job end to end.
type Runner interface {
	Run(ctx context.Context, job *Job) error
}

// Queue manages the queue of generation jobs.
type Queue struct {
	jobs        chan *Job
	workers     int
	maxSize     int
	mu          sync.RWMutex
	active      map[string]*Job
	history     []*Job
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	runner      Runner
	rec         metrics.Recorder
}

// NewQueue creates a generation queue feeding the given runner.
func NewQueue(cfg config.QueueConfig, runner Runner) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSize := cfg.Size
	if maxSize <= 0 {
		maxSize = 50
	}
	historySize := cfg.HistoryLimit
	if historySize <= 0 {
		historySize = 100
	}

	return &Queue{
		jobs:        make(chan *Job, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		active:      make(map[string]*Job),
		history:     make([]*Job, 0),
		historySize: historySize,
		stopChan:    make(chan struct{}),
		runner:      runner,
		rec:         metrics.NoopRecorder{},
	}
}

// WithRecorder swaps in a metrics recorder.
func (q *Queue) WithRecorder(rec metrics.Recorder) *Queue {
	if rec != nil {
		q.rec = rec
	}
	return q
}

// Start launches the configured number of worker goroutines.
func (q *Queue) Start(ctx context.Context) {
	slog.Info("Starting generation queue", "workers", q.workers, "max_size", q.maxSize)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop gracefully shuts down the queue.
func (q *Queue) Stop(ctx context.Context) {
	slog.Info("Stopping generation queue")

	close(q.stopChan)

	// Cancel all active jobs
	q.mu.Lock()
	for _, job := range q.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	slog.Info("Generation queue stopped")
}

// Enqueue adds a new job without blocking. A full queue is an error the
// webhook layer surfaces as 503.
func (q *Queue) Enqueue(job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	job.Status = JobStatusQueued

	select {
	case q.jobs <- job:
		q.rec.SetQueueDepth(len(q.jobs))
		slog.Info("Generation job enqueued",
			logfields.JobID(job.ID),
			logfields.Repository(job.Slug()),
			logfields.Trigger(string(job.Trigger)),
			logfields.Generation(string(job.Generation)))
		return nil
	default:
		return fmt.Errorf("generation queue is full")
	}
}

// Length reports how many jobs are waiting for a worker.
func (q *Queue) Length() int {
	return len(q.jobs)
}

// GetActiveJobs returns a copy of currently active jobs.
func (q *Queue) GetActiveJobs() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make([]*Job, 0, len(q.active))
	for _, job := range q.active {
		active = append(active, job)
	}
	return active
}

// GetHistory returns recent completed jobs.
func (q *Queue) GetHistory() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	history := make([]*Job, len(q.history))
	copy(history, q.history)
	return history
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, workerID string) {
	defer q.wg.Done()

	slog.Debug("Generation worker started", logfields.Worker(workerID))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Generation worker stopped by context", logfields.Worker(workerID))
			return
		case <-q.stopChan:
			slog.Debug("Generation worker stopped by stop signal", logfields.Worker(workerID))
			return
		case job := <-q.jobs:
			if job != nil {
				q.processJob(ctx, job, workerID)
			}
		}
	}
}

// processJob handles the execution of a single generation job.
func (q *Queue) processJob(ctx context.Context, job *Job, workerID string) {
	// Per-job context so Stop can interrupt in-flight work
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	// Mark job as running
	startTime := time.Now()
	job.StartedAt = &startTime
	job.Status = JobStatusRunning

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()
	q.rec.SetQueueDepth(len(q.jobs))

	slog.Info("Generation job started",
		logfields.JobID(job.ID),
		logfields.Repository(job.Slug()),
		logfields.Worker(workerID))

	// Execute the pipeline
	err := q.runner.Run(jobCtx, job)

	// Mark job as finished
	endTime := time.Now()
	job.CompletedAt = &endTime
	job.Duration = endTime.Sub(*job.StartedAt)

	q.mu.Lock()
	delete(q.active, job.ID)
	q.addToHistory(job)
	q.mu.Unlock()

	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		slog.Error("Generation job failed",
			logfields.JobID(job.ID),
			logfields.Repository(job.Slug()),
			slog.Duration("duration", job.Duration),
			logfields.Error(err))
	} else {
		job.Status = JobStatusCompleted
		slog.Info("Generation job completed",
			logfields.JobID(job.ID),
			logfields.Repository(job.Slug()),
			slog.Duration("duration", job.Duration))
	}
}

// addToHistory adds a finished job to the history, maintaining the size limit.
func (q *Queue) addToHistory(job *Job) {
	q.history = append(q.history, job)

	// Maintain history size limit
	if len(q.history) > q.historySize {
		// Remove oldest entries
		copy(q.history, q.history[len(q.history)-q.historySize:])
		q.history = q.history[:q.historySize]
	}
}
