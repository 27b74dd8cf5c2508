// Package pipeline turns trigger decisions into published sites: a bounded
// job queue feeding an orchestrator that takes each job through analyze,
// plan, generate, assemble, optionally refine, and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wadakatu/gitlyte/internal/analysis"
	"github.com/wadakatu/gitlyte/internal/config"
	"github.com/wadakatu/gitlyte/internal/deploy"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/notify"
	"github.com/wadakatu/gitlyte/internal/refine"
	"github.com/wadakatu/gitlyte/internal/site"
	"github.com/wadakatu/gitlyte/internal/trigger"
)

// Stage names used in logs, metrics, history events and failure reporting.
const (
	StageAnalyze  = "analyze"
	StagePlan     = "plan"
	StageGenerate = "generate"
	StageAssemble = "assemble"
	StageRefine   = "refine"
	StagePublish  = "publish"
)

// stageError ties a failure to the pipeline stage it occurred in, so every
// failed run surfaces one message naming the broken stage.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("generation failed at stage %q: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error { return e.err }

// failedStage extracts the stage name from a run error.
func failedStage(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}

// runResult carries the facts a successful run reports.
type runResult struct {
	outcome    string
	score      int
	iterations int
	branch     string
	commit     string
	files      int
}

// pipelineSnapshot is the consistent set of collaborators one run works
// against, taken when the run starts so config reloads never mix settings
// mid-job.
type pipelineSnapshot struct {
	cfg       *config.Config
	planner   *site.Planner
	generator *site.Generator
	refiner   *refine.Refiner
	publisher *deploy.Publisher
}

// Orchestrator runs the generation pipeline for queued jobs.
type Orchestrator struct {
	gh       *github.Client
	analyzer *analysis.RemoteAnalyzer
	guard    *deploy.Guard
	emitter  *Emitter
	notifier *notify.Notifier
	rec      metrics.Recorder

	mu        sync.RWMutex
	cfg       *config.Config
	planner   *site.Planner
	generator *site.Generator
	refiner   *refine.Refiner
	publisher *deploy.Publisher
}

// NewOrchestrator wires the pipeline collaborators from config.
func NewOrchestrator(cfg *config.Config, gh *github.Client, client llm.Client, rec metrics.Recorder) *Orchestrator {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	o := &Orchestrator{
		gh:       gh,
		analyzer: analysis.NewRemoteAnalyzer(gh),
		guard:    deploy.NewGuard(gh, cfg.GuardPollInterval(), cfg.GuardMaxWait()).WithRecorder(rec),
		rec:      rec,
	}
	o.ApplyConfig(cfg, client)
	return o
}

// WithEmitter attaches the history event emitter.
func (o *Orchestrator) WithEmitter(e *Emitter) *Orchestrator {
	o.emitter = e
	return o
}

// WithNotifier attaches the lifecycle notifier.
func (o *Orchestrator) WithNotifier(n *notify.Notifier) *Orchestrator {
	o.notifier = n
	return o
}

// ApplyConfig swaps the reloadable settings and the generation client built
// from them. Safe while jobs run; each job works against the snapshot taken
// when it started.
func (o *Orchestrator) ApplyConfig(cfg *config.Config, client llm.Client) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg = cfg
	if client != nil {
		o.planner = site.NewPlanner(client).WithRecorder(o.rec)
		o.generator = site.NewGenerator(client, cfg.LLM.SectionConcurrency).WithRecorder(o.rec)
		o.refiner = refine.NewRefiner(client).WithRecorder(o.rec)
	}
	o.publisher = deploy.NewPublisher(o.gh, cfg.Publish).WithRecorder(o.rec)
}

func (o *Orchestrator) snapshot() pipelineSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return pipelineSnapshot{
		cfg:       o.cfg,
		planner:   o.planner,
		generator: o.generator,
		refiner:   o.refiner,
		publisher: o.publisher,
	}
}

// Run executes the pipeline for one job. Any stage failure aborts the run;
// nothing is committed unless publish succeeds.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	snap := o.snapshot()
	started := time.Now()

	slog.Info("Generation run started",
		logfields.JobID(job.ID),
		logfields.Repository(job.Slug()),
		logfields.Trigger(string(job.Trigger)),
		logfields.Generation(string(job.Generation)))

	o.emitter.EmitStarted(job)
	o.notifyEvent(&notify.GenerationEvent{
		Status:     notify.StatusStarted,
		JobID:      job.ID,
		Repository: job.Slug(),
		Trigger:    string(job.Trigger),
		Generation: string(job.Generation),
	})

	result, err := o.run(ctx, snap, job)
	duration := time.Since(started)

	if err != nil {
		stage := failedStage(err)
		label := metrics.ResultFailed
		if ctx.Err() != nil {
			label = metrics.ResultCanceled
		}
		o.rec.ObserveGenerationDuration(label, duration)
		o.emitter.EmitFailed(job, stage, err)
		o.notifyEvent(&notify.GenerationEvent{
			Status:     notify.StatusFailed,
			JobID:      job.ID,
			Repository: job.Slug(),
			Stage:      stage,
			Error:      err.Error(),
			DurationMS: duration.Milliseconds(),
		})
		return err
	}

	o.rec.ObserveGenerationDuration(metrics.ResultSuccess, duration)
	o.emitter.EmitCompleted(job, result.outcome, result.score, result.iterations, duration)
	o.notifyEvent(&notify.GenerationEvent{
		Status:     notify.StatusCompleted,
		JobID:      job.ID,
		Repository: job.Slug(),
		Outcome:    result.outcome,
		Score:      result.score,
		Iterations: result.iterations,
		Branch:     result.branch,
		Commit:     result.commit,
		DurationMS: duration.Milliseconds(),
	})

	slog.Info("Generation run completed",
		logfields.JobID(job.ID),
		logfields.Repository(job.Slug()),
		slog.Duration("duration", duration),
		logfields.Score(result.score),
		logfields.Branch(result.branch))
	return nil
}

func (o *Orchestrator) run(ctx context.Context, snap pipelineSnapshot, job *Job) (*runResult, error) {
	// Analyze: repository facts plus the in-repo configuration.
	stageStart := time.Now()
	an, err := o.analyzer.Analyze(ctx, job.Owner, job.Repo)
	if err != nil {
		return nil, &stageError{stage: StageAnalyze, err: err}
	}
	rc, rcErr := o.gh.FetchRepoConfig(ctx, job.Owner, job.Repo, "")
	if rcErr != nil {
		if rc == nil {
			return nil, &stageError{stage: StageAnalyze, err: rcErr}
		}
		slog.Warn("Repository config malformed, using defaults",
			logfields.Repository(job.Slug()),
			logfields.Error(rcErr))
	}
	o.finishStage(job, StageAnalyze, stageStart)

	genCtx := &site.GenerationContext{Analysis: an, Config: rc}

	// Plan
	stageStart = time.Now()
	plan, err := snap.planner.Plan(ctx, genCtx)
	if err != nil {
		return nil, &stageError{stage: StagePlan, err: err}
	}
	o.finishStage(job, StagePlan, stageStart)
	slog.Info("Section plan ready",
		logfields.JobID(job.ID),
		slog.Any("sections", plan.Sections))

	// Generate
	stageStart = time.Now()
	sections, err := snap.generator.GenerateAll(ctx, plan, genCtx)
	if err != nil {
		return nil, &stageError{stage: StageGenerate, err: err}
	}
	o.finishStage(job, StageGenerate, stageStart)

	// Assemble
	stageStart = time.Now()
	document := site.Assemble(sections, genCtx)
	docsPage := ""
	if genCtx.WantsDocsPage() {
		docsPage, err = site.RenderDocsPage(genCtx)
		if err != nil {
			slog.Warn("Docs page rendering failed, omitting docs page",
				logfields.JobID(job.ID),
				logfields.Error(err))
			docsPage = ""
		}
	}
	o.finishStage(job, StageAssemble, stageStart)

	// Refine (optional). Evaluation and refinement failures abort the run;
	// a corrupted best-candidate comparison must never reach publish.
	score, iterations := 0, 0
	if snap.cfg.Refinement.Enabled {
		stageStart = time.Now()
		refined, refineErr := snap.refiner.SelfRefine(ctx, document, refine.Config{
			MaxIterations:      snap.cfg.Refinement.MaxIterations,
			TargetScore:        snap.cfg.Refinement.TargetScore,
			ProjectName:        an.Name,
			ProjectDescription: an.Description,
		})
		if refineErr != nil {
			return nil, &stageError{stage: StageRefine, err: refineErr}
		}
		document = refined.HTML
		score = refined.Evaluation.Score
		iterations = refined.Iterations
		o.rec.ObserveRefinementIterations(refined.Iterations)
		o.finishStage(job, StageRefine, stageStart)
		slog.Info("Refinement finished",
			logfields.JobID(job.ID),
			logfields.Score(score),
			logfields.Iteration(refined.Iterations),
			slog.Bool("improved", refined.Improved))
	}

	// Publish, serialized behind the deployment guard.
	stageStart = time.Now()
	bundle := site.BuildBundle(document, docsPage)
	branch := snap.cfg.Publish.Branch
	if job.Generation == trigger.GenerationPreview {
		branch = snap.cfg.Publish.PreviewBranch
	}

	target := deploy.Target{Owner: job.Owner, Repo: job.Repo, Environment: "github-pages"}
	var pub *deploy.Result
	err = o.guard.WithGuard(ctx, target, func(ctx context.Context) error {
		var publishErr error
		pub, publishErr = snap.publisher.Publish(ctx, deploy.Request{
			Owner:  job.Owner,
			Repo:   job.Repo,
			Branch: branch,
			Bundle: bundle,
		})
		return publishErr
	})
	if err != nil {
		return nil, &stageError{stage: StagePublish, err: err}
	}
	o.finishStage(job, StagePublish, stageStart)
	o.emitter.EmitPublished(job, pub.Branch, pub.CommitSHA, len(bundle))

	outcome := "published"
	if job.Generation == trigger.GenerationPreview {
		outcome = "preview"
		o.commentPreviewLocation(ctx, snap, job, pub)
	}

	return &runResult{
		outcome:    outcome,
		score:      score,
		iterations: iterations,
		branch:     pub.Branch,
		commit:     pub.CommitSHA,
		files:      len(bundle),
	}, nil
}

// commentPreviewLocation tells the PR where its preview landed. Failures
// degrade to a log line; the site is already published.
func (o *Orchestrator) commentPreviewLocation(ctx context.Context, snap pipelineSnapshot, job *Job, pub *deploy.Result) {
	if job.PRNumber <= 0 {
		return
	}
	comment := deploy.PreviewComment(snap.cfg.GitHub.BaseURL, job.Owner, job.Repo, pub)
	if err := o.gh.CreateIssueComment(ctx, job.Owner, job.Repo, job.PRNumber, comment); err != nil {
		slog.Warn("Failed to post preview comment",
			logfields.JobID(job.ID),
			logfields.Repository(job.Slug()),
			logfields.Error(err))
	}
}

// finishStage records one successful stage in metrics, history and logs.
func (o *Orchestrator) finishStage(job *Job, stage string, start time.Time) {
	d := time.Since(start)
	o.rec.ObserveStageDuration(stage, d)
	o.emitter.EmitStage(job, stage, d)
	slog.Info("Stage completed",
		logfields.JobID(job.ID),
		logfields.Stage(stage),
		slog.Duration("duration", d))
}

// notifyEvent publishes one lifecycle event, logging failures instead of
// propagating them.
func (o *Orchestrator) notifyEvent(event *notify.GenerationEvent) {
	if err := o.notifier.Publish(event); err != nil {
		slog.Warn("Failed to publish lifecycle event",
			logfields.JobID(event.JobID),
			logfields.Error(err))
	}
}
