package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/pipeline"
	"github.com/wadakatu/gitlyte/internal/trigger"
)

// handleWebhook receives GitHub webhook deliveries. Every delivery is
// signature-checked when a secret is configured; events that cannot trigger
// generation are acknowledged with 200 so the sender never marks them failed,
// and accepted jobs answer 202 with the job id.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := glerrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", http.MethodPost)
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityWarning, "failed to read webhook payload"))
		return
	}

	if secret := s.cfg.GitHub.WebhookSecret; secret != "" {
		signature := r.Header.Get("X-Hub-Signature-256")
		if signature == "" {
			signature = r.Header.Get("X-Hub-Signature")
		}
		if !github.ValidateSignature(body, signature, secret) {
			s.errorAdapter.WriteErrorResponse(w, r,
				glerrors.New(glerrors.CategoryAuth, glerrors.SeverityWarning, "webhook signature validation failed"))
			return
		}
	} else {
		slog.Debug("Webhook secret not configured, skipping signature validation")
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "ping" {
		s.respond(w, r, &WebhookResponse{Status: "pong", Timestamp: time.Now().UTC()})
		return
	}
	switch eventType {
	case "push", "pull_request", "issue_comment":
	default:
		slog.Debug("Ignoring unsupported webhook event", logfields.Event(eventType))
		s.respond(w, r, ignoredResponse("unsupported event type: "+eventType))
		return
	}

	event, err := github.ParseWebhookEvent(eventType, body)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp, err := s.dispatchEvent(r.Context(), event)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	s.respond(w, r, resp)
}

// respond writes a webhook acknowledgement, 202 for queued jobs and 200 for
// everything else.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *WebhookResponse) {
	status := http.StatusOK
	if resp.Status == "queued" {
		status = http.StatusAccepted
	}
	if err := writeJSONPretty(w, r, status, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			glerrors.WrapError(err, glerrors.CategoryInternal, "failed to write webhook response"))
	}
}

func ignoredResponse(reason string) *WebhookResponse {
	return &WebhookResponse{Status: "ignored", Reason: reason, Timestamp: time.Now().UTC()}
}

func (s *Server) dispatchEvent(ctx context.Context, event *github.Event) (*WebhookResponse, error) {
	switch {
	case event.Push != nil:
		return s.handlePushEvent(ctx, event.Push)
	case event.PullRequest != nil:
		return s.handlePullRequestEvent(ctx, event.PullRequest)
	case event.IssueComment != nil:
		return s.handleCommentEvent(ctx, event.IssueComment)
	}
	return ignoredResponse("event carries no payload"), nil
}

func (s *Server) handlePushEvent(ctx context.Context, ev *github.PushEvent) (*WebhookResponse, error) {
	if ev.Deleted {
		return ignoredResponse("branch deleted"), nil
	}
	repo := ev.Repository
	rc := s.repoConfigFor(ctx, repo.Owner.Login, repo.Name)
	decision := trigger.ResolveOnPush(ev.Branch(), repo.DefaultBranch, ev.ChangedPaths(), rc)
	return s.enqueueDecision(repo, decision, 0)
}

func (s *Server) handlePullRequestEvent(ctx context.Context, ev *github.PullRequestEvent) (*WebhookResponse, error) {
	if !ev.IsMergedPR() {
		return ignoredResponse("not a merged pull request"), nil
	}
	repo := ev.Repository
	rc := s.repoConfigFor(ctx, repo.Owner.Login, repo.Name)

	base := ev.PullRequest.Base.Ref
	if !slices.Contains(rc.MergeBranches(repo.DefaultBranch), base) {
		return ignoredResponse("base branch not configured for generation: " + base), nil
	}

	decision := trigger.ResolveOnMerge(trigger.Change{Labels: ev.PullRequest.LabelNames()}, rc)
	return s.enqueueDecision(repo, decision, ev.PullRequest.Number)
}

func (s *Server) handleCommentEvent(ctx context.Context, ev *github.IssueCommentEvent) (*WebhookResponse, error) {
	if ev.Action != "created" {
		return ignoredResponse("comment action ignored: " + ev.Action), nil
	}
	cmd := trigger.ParseComment(ev.Comment.Body)
	if cmd == nil {
		return ignoredResponse("no valid command found"), nil
	}

	repo := ev.Repository
	rc := s.repoConfigFor(ctx, repo.Owner.Login, repo.Name)

	// Informational verbs are answered in place and never enqueue work.
	switch cmd.Verb {
	case trigger.VerbConfig:
		if err := s.replyConfig(ctx, ev, rc); err != nil {
			return nil, err
		}
		return repliedResponse(string(cmd.Verb)), nil
	case trigger.VerbHelp:
		if err := s.replyHelp(ctx, ev); err != nil {
			return nil, err
		}
		return repliedResponse(string(cmd.Verb)), nil
	}

	decision := trigger.ResolveOnComment(ev.Comment.Body, rc)
	prNumber := 0
	if ev.Issue.PullRequest != nil {
		prNumber = ev.Issue.Number
	}
	return s.enqueueDecision(repo, decision, prNumber)
}

func repliedResponse(command string) *WebhookResponse {
	return &WebhookResponse{Status: "replied", Command: command, Timestamp: time.Now().UTC()}
}

// repoConfigFor fetches the repository's gitlyte.json, degrading to defaults
// so a configuration problem never drops an event.
func (s *Server) repoConfigFor(ctx context.Context, owner, repo string) *config.RepoConfig {
	rc, err := s.gh.FetchRepoConfig(ctx, owner, repo, "")
	if err != nil {
		if rc == nil {
			slog.Warn("Repository config unavailable, using defaults",
				logfields.Repository(owner+"/"+repo),
				logfields.Error(err))
			return config.DefaultRepoConfig()
		}
		slog.Warn("Repository config malformed, using defaults",
			logfields.Repository(owner+"/"+repo),
			logfields.Error(err))
	}
	return rc
}

// enqueueDecision turns a positive trigger decision into a queued job. A full
// queue surfaces as a daemon error so the delivery is answered with 503.
func (s *Server) enqueueDecision(repo github.Repository, decision trigger.Decision, prNumber int) (*WebhookResponse, error) {
	slug := repo.Owner.Login + "/" + repo.Name
	if !decision.ShouldGenerate {
		slog.Info("Generation skipped",
			logfields.Repository(slug),
			logfields.Trigger(string(decision.TriggerType)),
			slog.String("reason", decision.Reason))
		return ignoredResponse(decision.Reason), nil
	}

	job := pipeline.NewJob(repo.Owner.Login, repo.Name, decision)
	job.PRNumber = prNumber
	if err := s.queue.Enqueue(job); err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryDaemon, glerrors.SeverityWarning, "cannot accept generation job")
	}

	slog.Info("Generation job enqueued",
		logfields.JobID(job.ID),
		logfields.Repository(slug),
		logfields.Trigger(string(decision.TriggerType)),
		logfields.Generation(string(decision.GenerationType)),
		slog.String("reason", decision.Reason))

	return &WebhookResponse{
		Status:    "queued",
		JobID:     job.ID,
		Reason:    decision.Reason,
		Timestamp: time.Now().UTC(),
	}, nil
}
