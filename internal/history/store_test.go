package history

import (
	"bytes"
	"testing"
	"time"
)

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	// Create in-memory store
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	jobID := testJobID
	repository := testRepository
	eventType := "TestEvent"
	payload := []byte(`{"test": "data"}`)
	metadata := map[string]string{"key": "value"}

	// Test Append
	err = store.Append(ctx, jobID, repository, eventType, payload, metadata)
	if err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	// Test GetByJobID
	events, err := store.GetByJobID(ctx, jobID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.JobID() != jobID {
		t.Errorf("expected job_id %s, got %s", jobID, event.JobID())
	}
	if event.Repository() != repository {
		t.Errorf("expected repository %s, got %s", repository, event.Repository())
	}
	if event.Type() != eventType {
		t.Errorf("expected event_type %s, got %s", eventType, event.Type())
	}
	if !bytes.Equal(event.Payload(), payload) {
		t.Errorf("expected payload %s, got %s", payload, event.Payload())
	}
	if event.Metadata()["key"] != "value" {
		t.Errorf("expected metadata key=value, got %v", event.Metadata())
	}
}

func TestEventStoreGetRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	now := time.Now()

	// Add events
	for range 3 {
		eventErr := store.Append(ctx, "job-1", testRepository, "Event", []byte("data"), nil)
		if eventErr != nil {
			t.Fatalf("failed to append event: %v", eventErr)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Query range
	start := now.Add(-1 * time.Hour)
	end := now.Add(1 * time.Hour)
	events, err := store.GetRange(ctx, start, end)
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}

	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}
}

func TestEventStoreMultipleJobs(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()

	// Add events for different jobs
	_ = store.Append(ctx, "job-1", testRepository, "Event1", []byte("data1"), nil)
	_ = store.Append(ctx, "job-2", testRepository, "Event2", []byte("data2"), nil)
	_ = store.Append(ctx, "job-1", testRepository, "Event3", []byte("data3"), nil)

	// Query job-1
	events, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(events) != 2 {
		t.Errorf("expected 2 events for job-1, got %d", len(events))
	}

	// Query job-2
	events, err = store.GetByJobID(ctx, "job-2")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(events) != 1 {
		t.Errorf("expected 1 event for job-2, got %d", len(events))
	}
}

func TestEventStoreGetByRepository(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()

	_ = store.Append(ctx, "job-1", "octo/alpha", "Event", []byte("a"), nil)
	_ = store.Append(ctx, "job-2", "octo/beta", "Event", []byte("b"), nil)
	_ = store.Append(ctx, "job-3", "octo/alpha", "Event", []byte("c"), nil)

	events, err := store.GetByRepository(ctx, "octo/alpha")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events for octo/alpha, got %d", len(events))
	}
	for _, event := range events {
		if event.Repository() != "octo/alpha" {
			t.Errorf("expected repository octo/alpha, got %s", event.Repository())
		}
	}
}
