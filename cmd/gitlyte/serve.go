// Package main provides the entry point and service wiring for the gitlyte CLI.
// It assembles the generation pipeline, job queue, HTTP servers, and optional
// history, notification, scheduling, and config-watching services for serve mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wadakatu/gitlyte/internal/config"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/history"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/notify"
	"github.com/wadakatu/gitlyte/internal/pipeline"
	"github.com/wadakatu/gitlyte/internal/server"
	"github.com/wadakatu/gitlyte/internal/version"
)

// service holds every long-lived component of serve mode. Optional pieces
// (scheduler, watcher, history store, notifier) are nil when not configured.
type service struct {
	configPath string

	mu  sync.RWMutex
	cfg *config.Config

	orch     *pipeline.Orchestrator
	queue    *pipeline.Queue
	sched    *pipeline.Scheduler
	server   *server.Server
	watcher  *server.ConfigWatcher
	store    *history.SQLiteStore
	notifier *notify.Notifier
}

// newService wires the full serve-mode dependency graph from configuration.
func newService(ctx context.Context, cfg *config.Config, configPath string) (*service, error) {
	if cfg.Daemon == nil {
		return nil, errors.New("daemon configuration required (add a daemon section to the config)")
	}

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-generation client: %w", err)
	}
	gh := github.NewClient(cfg.GitHub)

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	svc := &service{configPath: configPath, cfg: cfg}

	var projection *history.JobHistoryProjection
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		svc.store = store
		projection = history.NewJobHistoryProjection(store, cfg.Daemon.Queue.HistoryLimit)
		if err := projection.Rebuild(ctx); err != nil {
			slog.Warn("Failed to rebuild job history projection", logfields.Error(err))
		}
	}

	orch := pipeline.NewOrchestrator(cfg, gh, client, rec)
	if svc.store != nil {
		orch = orch.WithEmitter(pipeline.NewEmitter(svc.store, projection))
	}
	if cfg.Notify.Enabled {
		notifier, err := notify.NewNotifier(&cfg.Notify)
		if err != nil {
			closeErr := svc.closeStores()
			return nil, errors.Join(fmt.Errorf("failed to connect notifier: %w", err), closeErr)
		}
		svc.notifier = notifier
		orch = orch.WithNotifier(notifier)
	}
	svc.orch = orch

	svc.queue = pipeline.NewQueue(cfg.Daemon.Queue, orch).WithRecorder(rec)

	if len(cfg.Schedules) > 0 {
		sched, err := pipeline.NewScheduler(svc.queue)
		if err != nil {
			closeErr := svc.closeStores()
			return nil, errors.Join(fmt.Errorf("failed to create scheduler: %w", err), closeErr)
		}
		sched.AddSchedules(cfg.Schedules)
		svc.sched = sched
	}

	svc.server = server.New(cfg, gh, svc.queue, server.Options{
		Projection:     projection,
		MetricsHandler: metricsHandler,
	})

	if cfg.Daemon.Watch {
		watcher, err := server.NewConfigWatcher(configPath, svc)
		if err != nil {
			closeErr := svc.closeStores()
			return nil, errors.Join(fmt.Errorf("failed to create config watcher: %w", err), closeErr)
		}
		svc.watcher = watcher
	}

	return svc, nil
}

// Start brings up the queue workers, scheduler, HTTP servers, and config
// watcher. On error the caller is expected to Stop the service.
func (s *service) Start(ctx context.Context) error {
	s.queue.Start(ctx)

	if s.sched != nil {
		s.sched.Start()
	}

	if err := s.server.Start(ctx); err != nil {
		return err
	}

	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start config watcher: %w", err)
		}
	}
	return nil
}

// Stop shuts down in reverse start order so no new work arrives while
// in-flight jobs are canceled and drained.
func (s *service) Stop(ctx context.Context) error {
	var errs []error

	if s.watcher != nil {
		if err := s.watcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("config watcher: %w", err))
		}
	}
	if err := s.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http servers: %w", err))
	}
	if s.sched != nil {
		if err := s.sched.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}
	s.queue.Stop(ctx)

	if err := s.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// closeStores releases the external connections behind the optional services.
func (s *service) closeStores() error {
	var errs []error
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
		s.notifier = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history store: %w", err))
		}
		s.store = nil
	}
	return errors.Join(errs...)
}

// GetConfig returns the currently active configuration.
func (s *service) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ReloadConfig applies a validated configuration to the running pipeline.
// Generation, refinement, guard, and publish settings take effect on the
// next job; HTTP ports and queue sizing keep their startup values.
func (s *service) ReloadConfig(ctx context.Context, cfg *config.Config) error {
	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create text-generation client: %w", err)
	}

	s.orch.ApplyConfig(cfg, client)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func runServe(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := newService(ctx, cfg, CLI.Config)
	if err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if stopErr := svc.Stop(stopCtx); stopErr != nil {
			slog.Warn("Cleanup after failed start reported errors", logfields.Error(stopErr))
		}
		return err
	}

	slog.Info("gitlyte started, waiting for shutdown signal...",
		slog.String("version", version.Version),
		slog.Int("webhook_port", cfg.Daemon.HTTP.WebhookPort),
		slog.Int("admin_port", cfg.Daemon.HTTP.AdminPort))

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := svc.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop cleanly: %w", err)
	}

	slog.Info("gitlyte stopped successfully")
	return nil
}
