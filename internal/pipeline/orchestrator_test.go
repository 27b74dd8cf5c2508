package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/history"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/trigger"
)

// captureRecorder counts recorder calls so tests can assert instrumentation
// without a registry.
type captureRecorder struct {
	mu          sync.Mutex
	generations map[metrics.ResultLabel]int
	stages      []string
	iterations  []int
	queueDepths []int
	guardWaits  int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{generations: make(map[metrics.ResultLabel]int)}
}

func (c *captureRecorder) ObserveGenerationDuration(outcome metrics.ResultLabel, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[outcome]++
}

func (c *captureRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, stage)
}

func (c *captureRecorder) ObserveSectionDuration(string, time.Duration) {}
func (c *captureRecorder) IncLLMCall(string, string)                    {}

func (c *captureRecorder) ObserveRefinementIterations(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iterations = append(c.iterations, n)
}

func (c *captureRecorder) ObserveGuardWait(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guardWaits++
}

func (c *captureRecorder) IncPublishRetry() {}

func (c *captureRecorder) SetQueueDepth(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueDepths = append(c.queueDepths, n)
}

func (c *captureRecorder) stageNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.stages))
	copy(out, c.stages)
	return out
}

func (c *captureRecorder) generationCount(outcome metrics.ResultLabel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[outcome]
}

// fakeGitHub serves just enough of the GitHub API for a full pipeline run
// against the octo/widget repository.
type fakeGitHub struct {
	mu          sync.Mutex
	blobs       int
	createdRefs map[string]string // branch -> commit SHA
	comments    []string
	repoErrors  int // remaining 500 responses for repository metadata
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{createdRefs: make(map[string]string)}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		switch {
		case r.Method == http.MethodGet && path == "/repos/octo/widget":
			if f.repoErrors > 0 {
				f.repoErrors--
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{
				"name":             "widget",
				"full_name":        "octo/widget",
				"description":      "A demo widget",
				"html_url":         "https://github.com/octo/widget",
				"default_branch":   "main",
				"language":         "Go",
				"stargazers_count": 42,
			})
		case r.Method == http.MethodGet && path == "/repos/octo/widget/languages":
			writeJSON(w, map[string]int{"Go": 1200})
		case r.Method == http.MethodGet && path == "/repos/octo/widget/readme":
			writeJSON(w, map[string]string{
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte("# Widget\n\nA demo widget.")),
			})
		case r.Method == http.MethodGet && strings.HasPrefix(path, "/repos/octo/widget/contents/"):
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet && path == "/repos/octo/widget/deployments":
			writeJSON(w, []github.Deployment{})
		case r.Method == http.MethodGet && strings.HasPrefix(path, "/repos/octo/widget/git/ref/heads/"):
			// No pages branch yet; publishing creates an orphan branch.
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && path == "/repos/octo/widget/git/blobs":
			f.blobs++
			writeJSON(w, map[string]string{"sha": fmt.Sprintf("blob-%d", f.blobs)})
		case r.Method == http.MethodPost && path == "/repos/octo/widget/git/trees":
			writeJSON(w, map[string]string{"sha": "tree-1"})
		case r.Method == http.MethodPost && path == "/repos/octo/widget/git/commits":
			writeJSON(w, map[string]string{"sha": "commit-1"})
		case r.Method == http.MethodPost && path == "/repos/octo/widget/git/refs":
			var req struct {
				Ref string `json:"ref"`
				SHA string `json:"sha"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.createdRefs[strings.TrimPrefix(req.Ref, "refs/heads/")] = req.SHA
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && strings.HasPrefix(path, "/repos/octo/widget/issues/"):
			var req struct {
				Body string `json:"body"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.comments = append(f.comments, req.Body)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeGitHub) refSHA(branch string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.createdRefs[branch]
	return sha, ok
}

func (f *fakeGitHub) commentBodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.comments))
	copy(out, f.comments)
	return out
}

func pipelineTestConfig() *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{
			BaseURL: "https://github.com",
			Token:   "test-token",
		},
		LLM: config.LLMConfig{
			Provider:           config.ProviderMock,
			SectionConcurrency: 2,
		},
		Refinement: config.RefinementConfig{
			Enabled:       true,
			MaxIterations: 2,
			TargetScore:   8,
		},
		Guard: config.GuardConfig{PollInterval: "10ms", MaxWait: "100ms"},
		Publish: config.PublishConfig{
			Branch:            "gh-pages",
			PreviewBranch:     "gitlyte-preview",
			CommitterName:     "gitlyte",
			CommitterEmail:    "gitlyte@users.noreply.github.com",
			RetryBackoff:      config.RetryBackoffFixed,
			RetryInitialDelay: "1ms",
			RetryMaxDelay:     "2ms",
		},
	}
}

func newTestRig(t *testing.T, cfg *config.Config, fake *fakeGitHub) (*Orchestrator, *history.JobHistoryProjection, history.Store, *captureRecorder) {
	t.Helper()

	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	cfg.GitHub.APIURL = server.URL

	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	projection := history.NewJobHistoryProjection(store, 10)

	rec := newCaptureRecorder()
	orch := NewOrchestrator(cfg, github.NewClient(cfg.GitHub), llm.NewMockClient(), rec).
		WithEmitter(NewEmitter(store, projection))
	return orch, projection, store, rec
}

func TestRunFullPipelinePublishes(t *testing.T) {
	fake := newFakeGitHub()
	orch, projection, store, rec := newTestRig(t, pipelineTestConfig(), fake)

	job := NewJob("octo", "widget", testDecision())
	if err := orch.Run(t.Context(), job); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sha, ok := fake.refSHA("gh-pages")
	if !ok {
		t.Fatal("expected gh-pages ref to be created")
	}
	if sha != "commit-1" {
		t.Errorf("expected ref at commit-1, got %s", sha)
	}

	summary, exists := projection.GetJob(job.ID)
	if !exists {
		t.Fatal("expected job in projection")
	}
	if summary.Status != "completed" {
		t.Errorf("expected status completed, got %q", summary.Status)
	}
	if summary.Outcome != "published" {
		t.Errorf("expected outcome published, got %q", summary.Outcome)
	}
	if summary.Branch != "gh-pages" || summary.CommitSHA != "commit-1" {
		t.Errorf("unexpected publish facts: branch=%q commit=%q", summary.Branch, summary.CommitSHA)
	}

	wantStages := []string{StageAnalyze, StagePlan, StageGenerate, StageAssemble, StageRefine, StagePublish}
	for _, stage := range wantStages {
		if _, ok := summary.StageDurations[stage]; !ok {
			t.Errorf("expected stage %q in summary durations", stage)
		}
	}

	if got := rec.generationCount(metrics.ResultSuccess); got != 1 {
		t.Errorf("expected 1 successful generation recorded, got %d", got)
	}
	if got := len(rec.stageNames()); got != len(wantStages) {
		t.Errorf("expected %d stage observations, got %d (%v)", len(wantStages), got, rec.stageNames())
	}

	// started + six stages + published + completed
	events, err := store.GetByJobID(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("failed to read events: %v", err)
	}
	if len(events) != 9 {
		t.Errorf("expected 9 history events, got %d", len(events))
	}
}

func TestRunPreviewPublishesToPreviewBranchAndComments(t *testing.T) {
	fake := newFakeGitHub()
	orch, projection, _, _ := newTestRig(t, pipelineTestConfig(), fake)

	job := NewJob("octo", "widget", trigger.Decision{
		ShouldGenerate: true,
		TriggerType:    trigger.TypeComment,
		GenerationType: trigger.GenerationPreview,
		Reason:         "preview command",
	})
	job.PRNumber = 7

	if err := orch.Run(t.Context(), job); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := fake.refSHA("gitlyte-preview"); !ok {
		t.Fatal("expected gitlyte-preview ref to be created")
	}
	if _, ok := fake.refSHA("gh-pages"); ok {
		t.Error("preview run must not touch the pages branch")
	}

	comments := fake.commentBodies()
	if len(comments) != 1 {
		t.Fatalf("expected 1 preview comment, got %d", len(comments))
	}
	if !strings.Contains(comments[0], "gitlyte-preview") {
		t.Errorf("expected comment to name the preview branch, got %q", comments[0])
	}

	summary, _ := projection.GetJob(job.ID)
	if summary.Outcome != "preview" {
		t.Errorf("expected outcome preview, got %q", summary.Outcome)
	}
}

func TestRunFailureNamesStage(t *testing.T) {
	fake := newFakeGitHub()
	fake.repoErrors = 1
	orch, projection, _, rec := newTestRig(t, pipelineTestConfig(), fake)

	job := NewJob("octo", "widget", testDecision())
	err := orch.Run(t.Context(), job)
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(err.Error(), `stage "analyze"`) {
		t.Errorf("expected error to name the analyze stage, got %q", err.Error())
	}

	summary, exists := projection.GetJob(job.ID)
	if !exists {
		t.Fatal("expected job in projection")
	}
	if summary.Status != "failed" {
		t.Errorf("expected status failed, got %q", summary.Status)
	}
	if summary.ErrorStage != StageAnalyze {
		t.Errorf("expected error stage analyze, got %q", summary.ErrorStage)
	}

	if got := rec.generationCount(metrics.ResultFailed); got != 1 {
		t.Errorf("expected 1 failed generation recorded, got %d", got)
	}
	if _, ok := fake.refSHA("gh-pages"); ok {
		t.Error("failed run must not publish")
	}
}

func TestRunSkipsRefineWhenDisabled(t *testing.T) {
	fake := newFakeGitHub()
	cfg := pipelineTestConfig()
	cfg.Refinement.Enabled = false
	orch, projection, _, rec := newTestRig(t, cfg, fake)

	job := NewJob("octo", "widget", testDecision())
	if err := orch.Run(t.Context(), job); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, stage := range rec.stageNames() {
		if stage == StageRefine {
			t.Error("refine stage must not run when refinement is disabled")
		}
	}

	summary, _ := projection.GetJob(job.ID)
	if summary.Score != 0 || summary.Iterations != 0 {
		t.Errorf("expected zero score and iterations, got %d/%d", summary.Score, summary.Iterations)
	}
}
