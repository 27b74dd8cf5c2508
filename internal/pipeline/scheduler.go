package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wadakatu/gitlyte/internal/config"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/trigger"
)

// Scheduler wraps a gocron scheduler that enqueues periodic full
// regenerations for configured repositories.
type Scheduler struct {
	scheduler gocron.Scheduler
	enqueuer  interface {
		Enqueue(job *Job) error
	}
}

// NewScheduler creates a scheduler feeding the given queue.
func NewScheduler(enqueuer interface{ Enqueue(job *Job) error }) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		enqueuer:  enqueuer,
	}, nil
}

// AddSchedules registers one periodic job per schedule entry. Invalid entries
// are logged and skipped so one bad line never disables the rest.
func (s *Scheduler) AddSchedules(schedules []config.ScheduleConfig) {
	for _, sc := range schedules {
		owner, repo, ok := strings.Cut(sc.Repository, "/")
		if !ok || owner == "" || repo == "" {
			slog.Warn("Skipping schedule with invalid repository",
				logfields.Repository(sc.Repository))
			continue
		}

		interval, err := time.ParseDuration(sc.Interval)
		if err != nil || interval <= 0 {
			slog.Warn("Skipping schedule with invalid interval",
				logfields.Repository(sc.Repository),
				slog.String("interval", sc.Interval))
			continue
		}

		_, err = s.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(s.enqueueRegeneration, owner, repo),
			gocron.WithName(fmt.Sprintf("regenerate-%s-%s", owner, repo)),
		)
		if err != nil {
			slog.Warn("Failed to create schedule",
				logfields.Repository(sc.Repository),
				logfields.Error(err))
			continue
		}

		slog.Info("Scheduled periodic regeneration",
			logfields.Repository(sc.Repository),
			slog.Duration("interval", interval))
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop halts cron evaluation and waits for the library's shutdown.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// enqueueRegeneration is called by gocron to enqueue a scheduled run.
func (s *Scheduler) enqueueRegeneration(owner, repo string) {
	job := NewJob(owner, repo, trigger.Decision{
		ShouldGenerate: true,
		TriggerType:    trigger.TypeManual,
		GenerationType: trigger.GenerationFull,
		Reason:         "scheduled regeneration",
	})

	if err := s.enqueuer.Enqueue(job); err != nil {
		slog.Error("Failed to enqueue scheduled regeneration",
			logfields.Repository(owner+"/"+repo),
			logfields.Error(err))
	}
}
