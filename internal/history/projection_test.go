package history

import (
	"context"
	"testing"
	"time"
)

func TestJobHistoryProjection_ApplyEvents(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewJobHistoryProjection(store, 10)

	// Apply GenerationStarted event
	jobID := "job-123"
	startEvent, err := NewGenerationStarted(jobID, testRepository, GenerationStartedMeta{Trigger: "merged_pr", Generation: "full"})
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(startEvent)

	// Check job is tracked
	summary, exists := projection.GetJob(jobID)
	if !exists {
		t.Fatal("Expected job to exist")
	}
	if summary.Status != "running" {
		t.Errorf("Expected status 'running', got %q", summary.Status)
	}
	if summary.Repository != testRepository {
		t.Errorf("Expected repository %q, got %q", testRepository, summary.Repository)
	}
	if summary.Trigger != "merged_pr" {
		t.Errorf("Expected trigger 'merged_pr', got %q", summary.Trigger)
	}

	// Apply StageCompleted event
	stageEvent, err := NewStageCompleted(jobID, testRepository, "analyze", 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(stageEvent)

	summary, _ = projection.GetJob(jobID)
	if summary.StageDurations["analyze"] != 300 {
		t.Errorf("Expected analyze stage duration 300ms, got %d", summary.StageDurations["analyze"])
	}

	// Apply SitePublished event
	publishEvent, err := NewSitePublished(jobID, testRepository, "gh-pages", "abc123", 2)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(publishEvent)

	summary, _ = projection.GetJob(jobID)
	if summary.Branch != "gh-pages" {
		t.Errorf("Expected branch 'gh-pages', got %q", summary.Branch)
	}
	if summary.CommitSHA != "abc123" {
		t.Errorf("Expected commit 'abc123', got %q", summary.CommitSHA)
	}

	// Apply GenerationCompleted event
	completeEvent, err := NewGenerationCompleted(jobID, testRepository, "published", 9, 1, 40*time.Second)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(completeEvent)

	summary, _ = projection.GetJob(jobID)
	if summary.Status != "completed" {
		t.Errorf("Expected status 'completed', got %q", summary.Status)
	}
	if summary.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
	if summary.Score != 9 {
		t.Errorf("Expected score 9, got %d", summary.Score)
	}
	if summary.Duration != 40*time.Second {
		t.Errorf("Expected duration 40s, got %v", summary.Duration)
	}

	// Check history
	history := projection.GetHistory()
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	if history[0].JobID != jobID {
		t.Errorf("Expected job ID %q, got %q", jobID, history[0].JobID)
	}
}

func TestJobHistoryProjection_GenerationFailed(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewJobHistoryProjection(store, 10)

	jobID := "job-failed"
	startEvent, _ := NewGenerationStarted(jobID, testRepository, GenerationStartedMeta{})
	projection.Apply(startEvent)

	failEvent, _ := NewGenerationFailed(jobID, testRepository, "publish", "ref update rejected")
	projection.Apply(failEvent)

	summary, exists := projection.GetJob(jobID)
	if !exists {
		t.Fatal("Expected job to exist")
	}
	if summary.Status != "failed" {
		t.Errorf("Expected status 'failed', got %q", summary.Status)
	}
	if summary.ErrorStage != "publish" {
		t.Errorf("Expected error stage 'publish', got %q", summary.ErrorStage)
	}
	if summary.ErrorMessage != "ref update rejected" {
		t.Errorf("Expected error message 'ref update rejected', got %q", summary.ErrorMessage)
	}
}

func TestJobHistoryProjection_Rebuild(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	// Store some events directly
	jobID := "job-rebuild-test"
	startEvent, _ := NewGenerationStarted(jobID, testRepository, GenerationStartedMeta{Trigger: "manual"})
	if err := store.Append(ctx, jobID, testRepository, startEvent.Type(), startEvent.Payload(), nil); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	stageEvent, _ := NewStageCompleted(jobID, testRepository, "plan", 200*time.Millisecond)
	if err := store.Append(ctx, jobID, testRepository, stageEvent.Type(), stageEvent.Payload(), nil); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	completeEvent, _ := NewGenerationCompleted(jobID, testRepository, "published", 8, 0, 3*time.Second)
	if err := store.Append(ctx, jobID, testRepository, completeEvent.Type(), completeEvent.Payload(), nil); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	// Create a fresh projection and rebuild from store
	projection := NewJobHistoryProjection(store, 10)
	if err := projection.Rebuild(ctx); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}

	// Verify the projection state
	summary, exists := projection.GetJob(jobID)
	if !exists {
		t.Fatal("Expected job to exist after rebuild")
	}
	if summary.Status != "completed" {
		t.Errorf("Expected status 'completed', got %q", summary.Status)
	}
	if summary.Trigger != "manual" {
		t.Errorf("Expected trigger 'manual', got %q", summary.Trigger)
	}
	if summary.StageDurations["plan"] != 200 {
		t.Errorf("Expected plan stage duration 200ms, got %d", summary.StageDurations["plan"])
	}

	// Verify history
	history := projection.GetHistory()
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
}

func TestJobHistoryProjection_HistoryLimit(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	// Create projection with small max size
	projection := NewJobHistoryProjection(store, 3)

	// Add 5 completed jobs
	for i := 0; i < 5; i++ {
		jobID := "job-" + string(rune('a'+i))
		startEvent, _ := NewGenerationStarted(jobID, testRepository, GenerationStartedMeta{})
		projection.Apply(startEvent)

		completeEvent, _ := NewGenerationCompleted(jobID, testRepository, "published", 8, 0, time.Second)
		projection.Apply(completeEvent)
	}

	// History should be limited to 3
	history := projection.GetHistory()
	if len(history) != 3 {
		t.Errorf("Expected history length 3, got %d", len(history))
	}
}

func TestJobHistoryProjection_GetActiveJobs(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewJobHistoryProjection(store, 10)

	// No active jobs initially
	active := projection.GetActiveJobs()
	if len(active) != 0 {
		t.Error("Expected no active jobs initially")
	}

	// Start a job
	startEvent, _ := NewGenerationStarted("active-job", testRepository, GenerationStartedMeta{})
	projection.Apply(startEvent)

	active = projection.GetActiveJobs()
	if len(active) != 1 {
		t.Fatalf("Expected 1 active job, got %d", len(active))
	}
	if active[0].JobID != "active-job" {
		t.Errorf("Expected job ID 'active-job', got %q", active[0].JobID)
	}

	// Complete the job
	completeEvent, _ := NewGenerationCompleted("active-job", testRepository, "published", 8, 0, time.Second)
	projection.Apply(completeEvent)

	active = projection.GetActiveJobs()
	if len(active) != 0 {
		t.Error("Expected no active jobs after completion")
	}
}

func TestJobHistoryProjection_GetRepositoryHistory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewJobHistoryProjection(store, 10)

	repos := []string{"octo/alpha", "octo/beta", "octo/alpha"}
	for i, repo := range repos {
		jobID := "job-" + string(rune('a'+i))
		startEvent, _ := NewGenerationStarted(jobID, repo, GenerationStartedMeta{})
		projection.Apply(startEvent)

		completeEvent, _ := NewGenerationCompleted(jobID, repo, "published", 8, 0, time.Second)
		projection.Apply(completeEvent)
	}

	alpha := projection.GetRepositoryHistory("octo/alpha")
	if len(alpha) != 2 {
		t.Fatalf("Expected 2 entries for octo/alpha, got %d", len(alpha))
	}
	for _, h := range alpha {
		if h.Repository != "octo/alpha" {
			t.Errorf("Expected repository octo/alpha, got %q", h.Repository)
		}
	}
}
