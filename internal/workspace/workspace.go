package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/site"
)

// Manager handles local output directories for generated bundles.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool // fixed caller-chosen directory, never removed by Cleanup
}

// NewManager creates a manager that writes into a fresh timestamped directory
// under baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir:    baseDir,
		persistent: false,
	}
}

// NewOutputManager creates a manager that writes into the given directory and
// leaves it in place on Cleanup.
func NewOutputManager(dir string) *Manager {
	return &Manager{
		baseDir:    dir,
		dir:        dir,
		persistent: true,
	}
}

// Create creates the output directory.
// Ephemeral mode creates a timestamped directory; output mode ensures the
// fixed directory exists.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		slog.Info("Using output directory", logfields.Path(m.dir))
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	dir := filepath.Join(m.baseDir, fmt.Sprintf("gitlyte-%s", timestamp))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	m.dir = dir
	slog.Info("Created output directory", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the output directory.
func (m *Manager) GetPath() string {
	return m.dir
}

// WriteBundle writes every path of the bundle beneath the output directory,
// creating intermediate directories as needed. Paths that would escape the
// directory are rejected.
func (m *Manager) WriteBundle(bundle site.Bundle) error {
	if m.dir == "" {
		return fmt.Errorf("output directory not created")
	}

	for path, content := range bundle {
		clean := filepath.Clean(path)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("bundle path escapes output directory: %s", path)
		}
		dst := filepath.Join(m.dir, clean)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return fmt.Errorf("failed to create bundle subdirectory: %w", err)
		}
		if err := os.WriteFile(dst, content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", clean, err)
		}
	}

	slog.Info("Wrote site bundle", logfields.Path(m.dir), slog.Int("files", len(bundle)))
	return nil
}

// Cleanup removes the output directory.
// Output mode keeps the directory (the caller asked for it by path);
// ephemeral mode removes the timestamped directory.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}

	if m.persistent {
		slog.Debug("Keeping output directory", logfields.Path(m.dir))
		return nil
	}

	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clean up output directory: %w", err)
	}

	slog.Info("Removed output directory", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
