// Package deploy serializes and executes publication of generated site bundles.
// The guard half watches remote deployment activity before a publish starts;
// the publisher half turns a bundle into a commit on the pages branch.
package deploy

import (
	"context"
	"log/slog"
	"time"

	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
)

// State is the deployment activity of a publish target at one poll. It is
// derived fresh on every poll and never cached across polls.
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
)

// Deployment statuses that count as activity in flight.
var busyStatuses = map[string]bool{
	"queued":      true,
	"pending":     true,
	"in_progress": true,
}

// DeploymentAPI is the slice of the GitHub client the guard polls.
type DeploymentAPI interface {
	ListDeployments(ctx context.Context, owner, repo, environment string) ([]github.Deployment, error)
	ListDeploymentStatuses(ctx context.Context, owner, repo string, deploymentID int64) ([]github.DeploymentStatus, error)
}

// Target identifies the repository environment publishes are serialized against.
type Target struct {
	Owner       string
	Repo        string
	Environment string
}

func (t Target) slug() string { return t.Owner + "/" + t.Repo }

// Guard provides advisory mutual exclusion around publication. The remote
// hosting system offers no lock primitive, so the guard polls deployment
// status and waits for in-flight activity to settle; the residual race
// between the last poll and the publish itself is accepted.
type Guard struct {
	api          DeploymentAPI
	pollInterval time.Duration
	maxWait      time.Duration
	rec          metrics.Recorder
}

// NewGuard builds a guard with the given poll interval and wait budget.
// Non-positive durations fall back to 10s / 2m.
func NewGuard(api DeploymentAPI, pollInterval, maxWait time.Duration) *Guard {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 2 * time.Minute
	}
	return &Guard{api: api, pollInterval: pollInterval, maxWait: maxWait, rec: metrics.NoopRecorder{}}
}

// WithRecorder swaps in a metrics recorder.
func (g *Guard) WithRecorder(rec metrics.Recorder) *Guard {
	if rec != nil {
		g.rec = rec
	}
	return g
}

// WithGuard waits for the target's deployment activity to settle, then runs
// action exactly once. A wait budget overrun is logged and the action still
// runs; only context cancellation prevents it.
func (g *Guard) WithGuard(ctx context.Context, target Target, action func(context.Context) error) error {
	start := time.Now()
	if err := g.awaitIdle(ctx, target); err != nil {
		return err
	}
	g.rec.ObserveGuardWait(time.Since(start))
	return action(ctx)
}

// awaitIdle blocks until the target reports idle or the wait budget elapses.
// The only error it returns is context cancellation.
func (g *Guard) awaitIdle(ctx context.Context, target Target) error {
	if g.Poll(ctx, target) == StateIdle {
		return nil
	}
	slog.Info("deployment in progress, waiting before publish",
		logfields.Repository(target.slug()),
		slog.String("environment", target.Environment),
		slog.Duration("max_wait", g.maxWait))

	deadline := time.Now().Add(g.maxWait)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if g.Poll(ctx, target) == StateIdle {
				return nil
			}
			if !time.Now().Before(deadline) {
				slog.Warn("wait budget exhausted with deployment still in progress, proceeding",
					logfields.Repository(target.slug()),
					slog.Duration("waited", g.maxWait))
				return nil
			}
		}
	}
}

// Poll queries the target's current deployment state. A failed status query
// reports idle: the guard is advisory and must never block publication on a
// monitoring failure.
func (g *Guard) Poll(ctx context.Context, target Target) State {
	deployments, err := g.api.ListDeployments(ctx, target.Owner, target.Repo, target.Environment)
	if err != nil {
		slog.Debug("deployment listing failed, treating target as idle",
			logfields.Repository(target.slug()), logfields.Error(err))
		return StateIdle
	}
	if len(deployments) == 0 {
		return StateIdle
	}
	// Deployments are returned most recent first.
	latest := deployments[0]
	statuses, err := g.api.ListDeploymentStatuses(ctx, target.Owner, target.Repo, latest.ID)
	if err != nil {
		slog.Debug("deployment status query failed, treating target as idle",
			logfields.Repository(target.slug()), logfields.Error(err))
		return StateIdle
	}
	if len(statuses) == 0 {
		return StateIdle
	}
	if busyStatuses[statuses[0].State] {
		return StateInProgress
	}
	return StateIdle
}
