package config

import (
	"encoding/json"
	"fmt"
)

// RepoConfig is the per-repository configuration document (gitlyte.json),
// fetched from the target repository's default branch. Every key is optional
// and defaults independently; a missing or malformed file behaves like an
// empty document.
type RepoConfig struct {
	Generation GenerationConfig `json:"generation"`
	Site       SiteConfig       `json:"site"`
	Design     DesignConfig     `json:"design"`
	Logo       LogoConfig       `json:"logo"`
}

// GenerationConfig controls when generation runs.
type GenerationConfig struct {
	Trigger  string      `json:"trigger,omitempty"`  // auto|manual|label
	Branches []string    `json:"branches,omitempty"` // base branches that may trigger on merge
	Labels   []string    `json:"labels,omitempty"`   // labels that trigger on merge when configured
	Push     *PushConfig `json:"push,omitempty"`
}

// PushConfig controls push-event generation. Enabled is a pointer so that
// "unset" and "explicitly disabled" stay distinguishable: push generation is
// disabled only when explicitly configured off.
type PushConfig struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	Branches    []string `json:"branches,omitempty"`
	IgnorePaths []string `json:"ignorePaths,omitempty"`
}

// SiteConfig carries layout and page selection hints for generation.
type SiteConfig struct {
	Layout       string   `json:"layout,omitempty"`
	Pages        []string `json:"pages,omitempty"` // extra pages, e.g. "docs"
	Instructions string   `json:"instructions,omitempty"`
}

// DesignConfig carries theme and color hints for generation.
type DesignConfig struct {
	Theme  string       `json:"theme,omitempty"` // light|dark
	Colors *ColorConfig `json:"colors,omitempty"`
}

// ColorConfig holds optional brand color overrides.
type ColorConfig struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
}

// LogoConfig holds optional logo and favicon references.
type LogoConfig struct {
	URL        string `json:"url,omitempty"`
	FaviconURL string `json:"faviconUrl,omitempty"`
}

// DefaultRepoConfig returns the configuration used when a repository carries
// no gitlyte.json or the file cannot be parsed.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{}
}

// ParseRepoConfig decodes a gitlyte.json document. On malformed input it
// returns the default configuration together with the parse error so callers
// can log and degrade instead of aborting event handling.
func ParseRepoConfig(data []byte) (*RepoConfig, error) {
	if len(data) == 0 {
		return DefaultRepoConfig(), nil
	}
	var rc RepoConfig
	if err := json.Unmarshal(data, &rc); err != nil {
		return DefaultRepoConfig(), fmt.Errorf("failed to parse repository config: %w", err)
	}
	return &rc, nil
}

// TriggerMode returns the normalized trigger mode; unknown values normalize
// to empty, which callers treat as "no match".
func (rc *RepoConfig) TriggerMode() TriggerMode {
	if rc == nil {
		return ""
	}
	return NormalizeTriggerMode(rc.Generation.Trigger)
}

// ThemeMode returns the normalized theme, defaulting to light.
func (rc *RepoConfig) ThemeMode() ThemeMode {
	if rc == nil {
		return ThemeLight
	}
	return NormalizeThemeMode(rc.Design.Theme)
}

// PushEnabled reports whether push-event generation is active. Only an
// explicit {"enabled": false} disables it.
func (rc *RepoConfig) PushEnabled() bool {
	if rc == nil || rc.Generation.Push == nil || rc.Generation.Push.Enabled == nil {
		return true
	}
	return *rc.Generation.Push.Enabled
}

// PushBranches returns the configured push branch set, falling back to the
// provided default branch when unconfigured.
func (rc *RepoConfig) PushBranches(defaultBranch string) []string {
	if rc == nil || rc.Generation.Push == nil || len(rc.Generation.Push.Branches) == 0 {
		return []string{defaultBranch}
	}
	return rc.Generation.Push.Branches
}

// PushIgnorePaths returns the configured ignore prefixes (may be empty).
func (rc *RepoConfig) PushIgnorePaths() []string {
	if rc == nil || rc.Generation.Push == nil {
		return nil
	}
	return rc.Generation.Push.IgnorePaths
}

// MergeBranches returns the base branches that may trigger generation on
// merge, falling back to the provided default branch when unconfigured.
func (rc *RepoConfig) MergeBranches(defaultBranch string) []string {
	if rc == nil || len(rc.Generation.Branches) == 0 {
		return []string{defaultBranch}
	}
	return rc.Generation.Branches
}
