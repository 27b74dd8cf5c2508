package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/wadakatu/gitlyte/internal/history"
	"github.com/wadakatu/gitlyte/internal/logfields"
)

// Emitter persists job lifecycle events to the history store and keeps the
// in-memory projection current. A nil emitter is a no-op so the orchestrator
// never branches on whether history is enabled.
type Emitter struct {
	store      history.Store
	projection *history.JobHistoryProjection
}

// NewEmitter creates an emitter over the given store and projection.
// Either may be nil.
func NewEmitter(store history.Store, projection *history.JobHistoryProjection) *Emitter {
	return &Emitter{store: store, projection: projection}
}

// EmitStarted records the beginning of a job.
func (e *Emitter) EmitStarted(job *Job) {
	event, err := history.NewGenerationStarted(job.ID, job.Slug(), history.GenerationStartedMeta{
		Trigger:    string(job.Trigger),
		Generation: string(job.Generation),
		Reason:     job.Reason,
	})
	e.emit(event, err)
}

// EmitStage records one finished pipeline stage.
func (e *Emitter) EmitStage(job *Job, stage string, duration time.Duration) {
	event, err := history.NewStageCompleted(job.ID, job.Slug(), stage, duration)
	e.emit(event, err)
}

// EmitPublished records a successful bundle publish.
func (e *Emitter) EmitPublished(job *Job, branch, commit string, files int) {
	event, err := history.NewSitePublished(job.ID, job.Slug(), branch, commit, files)
	e.emit(event, err)
}

// EmitCompleted records a successful run.
func (e *Emitter) EmitCompleted(job *Job, outcome string, score, iterations int, duration time.Duration) {
	event, err := history.NewGenerationCompleted(job.ID, job.Slug(), outcome, score, iterations, duration)
	e.emit(event, err)
}

// EmitFailed records a failed run with the stage that broke it.
func (e *Emitter) EmitFailed(job *Job, stage string, cause error) {
	event, err := history.NewGenerationFailed(job.ID, job.Slug(), stage, cause.Error())
	e.emit(event, err)
}

// emit persists one event and applies it to the projection. Event emission
// never fails a run; persistence problems are logged and dropped.
func (e *Emitter) emit(event history.Event, err error) {
	if e == nil {
		return
	}
	if err != nil {
		slog.Warn("Failed to create history event", logfields.Error(err))
		return
	}

	if e.store != nil {
		// The job context may already be canceled when a failure event is
		// emitted; persistence gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if appendErr := e.store.Append(ctx, event.JobID(), event.Repository(), event.Type(), event.Payload(), event.Metadata()); appendErr != nil {
			slog.Warn("Failed to persist history event",
				logfields.JobID(event.JobID()),
				logfields.Event(event.Type()),
				logfields.Error(appendErr))
		}
	}

	if e.projection != nil {
		e.projection.Apply(event)
	}
}
