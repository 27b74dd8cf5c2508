package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/wadakatu/gitlyte/internal/analysis"
	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
	"github.com/wadakatu/gitlyte/internal/pipeline"
	"github.com/wadakatu/gitlyte/internal/site"
	"github.com/wadakatu/gitlyte/internal/trigger"
	"github.com/wadakatu/gitlyte/internal/version"
	"github.com/wadakatu/gitlyte/internal/workspace"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gitlyte.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve struct{} `cmd:"" help:"Start the webhook server and generation workers"`

	Generate struct {
		Repository string `arg:"" help:"Repository to generate, as owner/name"`
		Preview    bool   `help:"Publish to the preview branch instead of the pages branch"`
	} `cmd:"" help:"Generate and publish the site for one repository"`

	Preview struct {
		Path   string `arg:"" optional:"" default:"." help:"Local repository checkout to generate from"`
		Output string `short:"o" help:"Output directory for the generated site (defaults to temp)"`
		Serve  bool   `help:"Serve the generated site over HTTP until interrupted"`
		Port   int    `default:"8090" help:"Preview server port"`
	} `cmd:"" help:"Generate a site from a local checkout without publishing"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	// Logging is configured twice: a plain handler first so configuration
	// load failures are visible, then again from the loaded config.
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "serve":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			exitWithError(err)
		}
		setupLogging(cfg, CLI.Verbose)
		if err := runServe(cfg); err != nil {
			exitWithError(err)
		}
	case "generate <repository>":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			exitWithError(err)
		}
		setupLogging(cfg, CLI.Verbose)
		if err := runGenerate(cfg, CLI.Generate.Repository, CLI.Generate.Preview); err != nil {
			exitWithError(err)
		}
	case "preview", "preview <path>":
		if err := runPreview(CLI.Preview.Path, CLI.Preview.Output, CLI.Preview.Serve, CLI.Preview.Port); err != nil {
			exitWithError(err)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			exitWithError(err)
		}
	}
}

// exitWithError prints the error in CLI form and terminates the process with
// the exit code mapped from its category.
func exitWithError(err error) {
	glerrors.NewCLIErrorAdapter(CLI.Verbose, nil).HandleError(err)
}

// setupLogging applies the configured log level and format. Verbose wins
// over the configured level.
func setupLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	if cfg.Monitoring != nil {
		switch cfg.Monitoring.Logging.Level {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Monitoring != nil && cfg.Monitoring.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", logfields.Path(configPath), slog.Bool("force", force))
	return config.Init(configPath, force)
}

// runGenerate runs the full pipeline once for a single repository, outside
// the queue. Used for first-time setup and for regenerating after config
// changes without waiting for a repository event.
func runGenerate(cfg *config.Config, repository string, preview bool) error {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("repository must be owner/name, got %q", repository)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create text-generation client: %w", err)
	}
	gh := github.NewClient(cfg.GitHub)

	generation := trigger.GenerationFull
	if preview {
		generation = trigger.GenerationPreview
	}
	job := pipeline.NewJob(owner, name, trigger.Decision{
		ShouldGenerate: true,
		TriggerType:    trigger.TypeManual,
		GenerationType: generation,
		Reason:         "manual CLI invocation",
	})

	slog.Info("Starting one-shot generation",
		logfields.Repository(job.Slug()),
		logfields.Generation(string(job.Generation)))

	orch := pipeline.NewOrchestrator(cfg, gh, client, metrics.NoopRecorder{})
	return orch.Run(ctx, job)
}

// runPreview generates a site from a local checkout and writes it to disk,
// optionally serving it. Nothing is published; the server configuration is
// only consulted for the text-generation provider and falls back to the
// mock provider when absent.
func runPreview(path, output string, serve bool, port int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Warn("Configuration not loaded, previewing with the mock text-generation provider",
			logfields.Error(err))
		cfg = &config.Config{LLM: config.LLMConfig{Provider: config.ProviderMock}}
	}

	bundle, err := buildLocalBundle(ctx, cfg, path)
	if err != nil {
		return err
	}

	var ws *workspace.Manager
	if output != "" {
		ws = workspace.NewOutputManager(output)
	} else {
		ws = workspace.NewManager("")
	}
	if err := ws.Create(); err != nil {
		return err
	}
	if err := ws.WriteBundle(bundle); err != nil {
		return err
	}
	fmt.Println("Preview site written to:", ws.GetPath())

	if !serve {
		return nil
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up preview directory", logfields.Error(err))
		}
	}()
	return servePreview(ctx, ws.GetPath(), port)
}

// buildLocalBundle runs analysis, planning, section generation, and assembly
// against a local directory. A gitlyte.json in the checkout is honored the
// same way the server honors the repository copy.
func buildLocalBundle(ctx context.Context, cfg *config.Config, dir string) (site.Bundle, error) {
	an, err := analysis.AnalyzeLocal(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", dir, err)
	}

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-generation client: %w", err)
	}

	genCtx := &site.GenerationContext{Analysis: an, Config: localRepoConfig(dir)}

	planner := site.NewPlanner(client)
	plan, err := planner.Plan(ctx, genCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to plan sections: %w", err)
	}
	slog.Info("Section plan ready", slog.Int("sections", len(plan.Sections)))

	generator := site.NewGenerator(client, cfg.LLM.SectionConcurrency)
	sections, err := generator.GenerateAll(ctx, plan, genCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate sections: %w", err)
	}

	document := site.Assemble(sections, genCtx)

	docsPage := ""
	if genCtx.WantsDocsPage() {
		docsPage, err = site.RenderDocsPage(genCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render docs page: %w", err)
		}
	}

	return site.BuildBundle(document, docsPage), nil
}

// localRepoConfig reads gitlyte.json from the checkout, degrading to
// defaults when the file is missing or malformed.
func localRepoConfig(dir string) *config.RepoConfig {
	data, err := os.ReadFile(filepath.Join(dir, github.RepoConfigPath))
	if err != nil {
		return config.DefaultRepoConfig()
	}
	rc, err := config.ParseRepoConfig(data)
	if err != nil {
		slog.Warn("Local repository config malformed, using defaults", logfields.Error(err))
	}
	return rc
}

// servePreview serves the generated site until the context is canceled.
func servePreview(ctx context.Context, dir string, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", logfields.URL(fmt.Sprintf("http://localhost:%d", port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	return srv.Shutdown(stopCtx)
}
