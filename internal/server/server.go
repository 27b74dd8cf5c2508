// Package server hosts the gitlyte daemon's HTTP surfaces: the webhook
// receiver that turns repository events into queued generation jobs, and the
// admin endpoints for health, metrics and run history. It also watches the
// service configuration file and applies reloadable settings on change.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/history"
	"github.com/wadakatu/gitlyte/internal/pipeline"
)

// GitHubAPI is the slice of the GitHub client the webhook handlers need.
type GitHubAPI interface {
	FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*config.RepoConfig, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
}

// JobQueue accepts generation jobs and reports queue state.
type JobQueue interface {
	Enqueue(job *pipeline.Job) error
	Length() int
	GetActiveJobs() []*pipeline.Job
	GetHistory() []*pipeline.Job
}

// Options carries the optional collaborators of the server.
type Options struct {
	// Projection serves /api/history when the persistent event store is
	// enabled; nil falls back to the queue's in-memory ring.
	Projection *history.JobHistoryProjection
	// MetricsHandler serves the metrics endpoint when monitoring is enabled.
	MetricsHandler http.Handler
}

// Server manages the webhook and admin HTTP servers.
type Server struct {
	cfg        *config.Config
	gh         GitHubAPI
	queue      JobQueue
	projection *history.JobHistoryProjection
	metrics    http.Handler

	errorAdapter *glerrors.HTTPErrorAdapter
	mchain       func(http.Handler) http.Handler

	webhookServer *http.Server
	adminServer   *http.Server
	startTime     time.Time
}

// New constructs the HTTP server wiring.
func New(cfg *config.Config, gh GitHubAPI, queue JobQueue, opts Options) *Server {
	adapter := glerrors.NewHTTPErrorAdapter(slog.Default())
	return &Server{
		cfg:          cfg,
		gh:           gh,
		queue:        queue,
		projection:   opts.Projection,
		metrics:      opts.MetricsHandler,
		errorAdapter: adapter,
		mchain:       Chain(slog.Default(), adapter),
		startTime:    time.Now(),
	}
}

// Start binds and starts the webhook and admin servers. Both ports are bound
// up front so a conflict surfaces as one aggregate error instead of partial
// startup.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Daemon == nil {
		return errors.New("daemon configuration required for HTTP servers")
	}

	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "webhook", port: s.cfg.Daemon.HTTP.WebhookPort},
		{name: "admin", port: s.cfg.Daemon.HTTP.AdminPort},
	}
	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		addr := fmt.Sprintf(":%d", binds[i].port)
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.startWebhookServer(binds[0].ln)
	s.startAdminServer(binds[1].ln)

	slog.Info("HTTP servers started",
		slog.Int("webhook_port", s.cfg.Daemon.HTTP.WebhookPort),
		slog.Int("admin_port", s.cfg.Daemon.HTTP.AdminPort))
	return nil
}

// Stop gracefully shuts down both servers in reverse start order.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.webhookServer != nil {
		if err := s.webhookServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("webhook server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

func (s *Server) startWebhookServer(ln net.Listener) {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)

	s.webhookServer = &http.Server{
		Handler:      s.mchain(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.serve("webhook", s.webhookServer, ln)
}

func (s *Server) startAdminServer(ln net.Listener) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/history", s.handleHistory)
	if s.metricsEnabled() {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, s.metrics)
	}

	s.adminServer = &http.Server{
		Handler:      s.mchain(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.serve("admin", s.adminServer, ln)
}

func (s *Server) metricsEnabled() bool {
	return s.metrics != nil &&
		s.cfg.Monitoring != nil &&
		s.cfg.Monitoring.Metrics.Enabled &&
		s.cfg.Monitoring.Metrics.Path != ""
}

// serve launches an http.Server on its pre-bound listener.
func (s *Server) serve(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
}
