package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter turns classified errors into exit codes and terminal output.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter builds an adapter. Verbose mode prints the full
// technical rendering instead of the shortened one.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor maps err to the process exit code, 0 for nil.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if gle, ok := err.(*GitLyteError); ok {
		return a.exitCodeFromGitLyte(gle)
	}

	return 1
}

// exitCodeFromGitLyte maps GitLyteError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromGitLyte(err *GitLyteError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryAuth:
		return 5 // Auth error
	case CategoryNetwork, CategoryGitHub, CategoryLLM:
		return 8 // External system error
	case CategoryContent, CategoryGeneration, CategoryPublish:
		return 11 // Generation error
	case CategoryDaemon, CategoryGuard:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError renders err for the terminal.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if gle, ok := err.(*GitLyteError); ok {
		return a.formatGitLyte(gle)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatGitLyte drops the category prefix for operator-input errors, where
// the message alone reads better.
func (a *CLIErrorAdapter) formatGitLyte(err *GitLyteError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryAuth:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError prints err to stderr and terminates the process with its
// exit code. A nil err is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog limits logging to internal and daemon faults unless verbose.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if gle, ok := err.(*GitLyteError); ok {
		return gle.Category == CategoryInternal ||
			gle.Category == CategoryDaemon ||
			gle.Severity == SeverityFatal
	}

	return true
}

// logError emits the structured record for err.
func (a *CLIErrorAdapter) logError(err error) {
	if gle, ok := err.(*GitLyteError); ok {
		level := a.slogLevelFromSeverity(gle.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(gle.Category)),
		}
		if gle.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, gle.Message, attrs...)
		return
	}

	a.logger.Error("Foreign error", "error", err)
}

// slogLevelFromSeverity picks the log level for a severity.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
