package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/retry"
	"github.com/wadakatu/gitlyte/internal/site"
)

const blobFileMode = "100644"

// GitDataAPI is the slice of the GitHub client the publisher commits through.
type GitDataAPI interface {
	GetBranchSHA(ctx context.Context, owner, repo, branch string) (string, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.CommitInfo, error)
	CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error)
	CreateTree(ctx context.Context, owner, repo string, entries []github.TreeEntry, baseTree string) (string, error)
	CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parents []string, committer *github.Committer) (string, error)
	UpdateRef(ctx context.Context, owner, repo, branch, sha string, force bool) error
	CreateRef(ctx context.Context, owner, repo, branch, sha string) error
}

// Request describes one publish: which repository, which branch, and the
// bundle to commit. An empty Branch falls back to the configured pages branch.
type Request struct {
	Owner   string
	Repo    string
	Branch  string
	Message string
	Bundle  site.Bundle
}

// Result reports where the bundle landed.
type Result struct {
	CommitSHA     string
	Branch        string
	BranchCreated bool
	Attempts      int
}

// Publisher commits generated bundles to a pages branch via the git data API.
// Transient GitHub failures are retried under the configured policy; the
// generation core upstream never retries, so the policy lives here.
type Publisher struct {
	api    GitDataAPI
	cfg    config.PublishConfig
	policy retry.Policy
	rec    metrics.Recorder
}

func NewPublisher(api GitDataAPI, cfg config.PublishConfig) *Publisher {
	return &Publisher{
		api:    api,
		cfg:    cfg,
		policy: retry.FromPublishConfig(cfg),
		rec:    metrics.NoopRecorder{},
	}
}

// WithRecorder swaps in a metrics recorder.
func (p *Publisher) WithRecorder(rec metrics.Recorder) *Publisher {
	if rec != nil {
		p.rec = rec
	}
	return p
}

// Publish commits the bundle, retrying transient failures. Permanent failures
// and context cancellation abort immediately.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	if len(req.Bundle) == 0 {
		return nil, glerrors.New(glerrors.CategoryPublish, glerrors.SeverityError, "bundle is empty")
	}
	branch := req.Branch
	if branch == "" {
		branch = p.cfg.Branch
	}
	message := req.Message
	if message == "" {
		message = "gitlyte: update generated site"
	}
	slug := req.Owner + "/" + req.Repo

	var lastErr error
	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			p.rec.IncPublishRetry()
			slog.Warn("retrying publish",
				logfields.Repository(slug), logfields.Branch(branch), slog.Int("attempt", attempt))
		}
		result, err := p.publishOnce(ctx, req.Owner, req.Repo, branch, message, req.Bundle)
		if err == nil {
			result.Attempts = attempt + 1
			return result, nil
		}
		lastErr = err
		if !glerrors.IsRetryable(err) {
			break
		}
		if attempt == p.policy.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, p.policy.Delay(attempt+1)); err != nil {
			return nil, err
		}
	}
	return nil, glerrors.PublishFailed(slug, lastErr).WithContext("branch", branch)
}

// publishOnce performs one blobs -> tree -> commit -> ref cycle. Nothing is
// visible on the branch until the final ref update, so a failure anywhere
// leaves the branch untouched.
func (p *Publisher) publishOnce(ctx context.Context, owner, repo, branch, message string, bundle site.Bundle) (*Result, error) {
	baseSHA, err := p.api.GetBranchSHA(ctx, owner, repo, branch)
	branchExists := true
	if err != nil {
		if !errors.Is(err, github.ErrNotFound) {
			return nil, err
		}
		branchExists = false
		baseSHA = ""
	}

	// Base the new tree on the parent commit so files gitlyte does not own
	// (CNAME, .nojekyll) survive a publish.
	baseTree := ""
	if branchExists {
		commit, err := p.api.GetCommit(ctx, owner, repo, baseSHA)
		if err != nil {
			return nil, err
		}
		baseTree = commit.Tree.SHA
	}

	paths := make([]string, 0, len(bundle))
	for path := range bundle {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]github.TreeEntry, 0, len(paths))
	for _, path := range paths {
		blobSHA, err := p.api.CreateBlob(ctx, owner, repo, bundle[path])
		if err != nil {
			return nil, err
		}
		entries = append(entries, github.TreeEntry{Path: path, Mode: blobFileMode, Type: "blob", SHA: blobSHA})
	}

	treeSHA, err := p.api.CreateTree(ctx, owner, repo, entries, baseTree)
	if err != nil {
		return nil, err
	}

	var parents []string
	if branchExists {
		parents = []string{baseSHA}
	}
	committer := &github.Committer{Name: p.cfg.CommitterName, Email: p.cfg.CommitterEmail}
	commitSHA, err := p.api.CreateCommit(ctx, owner, repo, message, treeSHA, parents, committer)
	if err != nil {
		return nil, err
	}

	if branchExists {
		// Force keeps the branch publishable after out-of-band pushes; the
		// branch holds generated artifacts, not history worth preserving.
		if err := p.api.UpdateRef(ctx, owner, repo, branch, commitSHA, true); err != nil {
			return nil, err
		}
	} else {
		if err := p.api.CreateRef(ctx, owner, repo, branch, commitSHA); err != nil {
			return nil, err
		}
	}

	slog.Info("published site bundle",
		logfields.Repository(owner+"/"+repo),
		logfields.Branch(branch),
		slog.Int("files", len(bundle)),
		slog.String("commit", shortSHA(commitSHA)))
	return &Result{CommitSHA: commitSHA, Branch: branch, BranchCreated: !branchExists}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

// PreviewComment renders the PR comment posted after a preview publish.
func PreviewComment(baseURL, owner, repo string, result *Result) string {
	branchURL := fmt.Sprintf("%s/%s/%s/tree/%s", baseURL, owner, repo, result.Branch)
	return fmt.Sprintf("Preview site generated on branch [`%s`](%s) (commit `%s`).",
		result.Branch, branchURL, shortSHA(result.CommitSHA))
}
