// Package site turns a repository analysis into a static showcase page:
// planning the section list, generating section HTML concurrently, and
// assembling the fragments into a single themed document.
package site

import (
	"fmt"
	"strings"

	"github.com/wadakatu/gitlyte/internal/analysis"
	"github.com/wadakatu/gitlyte/internal/config"
)

// GenerationContext bundles the inputs every generation prompt shares.
type GenerationContext struct {
	Analysis *analysis.Analysis
	Config   *config.RepoConfig
}

// Theme returns the resolved theme mode (light unless configured dark).
func (gc *GenerationContext) Theme() config.ThemeMode {
	return gc.Config.ThemeMode()
}

// Layout returns the configured layout hint, defaulting to "standard".
func (gc *GenerationContext) Layout() string {
	if gc.Config != nil && gc.Config.Site.Layout != "" {
		return gc.Config.Site.Layout
	}
	return "standard"
}

// Instructions returns free-form operator instructions for the generator.
func (gc *GenerationContext) Instructions() string {
	if gc.Config == nil {
		return ""
	}
	return gc.Config.Site.Instructions
}

// WantsDocsPage reports whether the bundle should include a README docs page.
func (gc *GenerationContext) WantsDocsPage() bool {
	if gc.Config == nil {
		return false
	}
	for _, page := range gc.Config.Site.Pages {
		if page == "docs" {
			return true
		}
	}
	return false
}

// repoFacts renders the repository analysis as a prompt block.
func (gc *GenerationContext) repoFacts() string {
	a := gc.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n", displayName(a))
	if a.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", a.Description)
	}
	if primary := a.PrimaryLanguage(); primary != "" {
		fmt.Fprintf(&b, "Primary language: %s\n", primary)
	}
	if langs := a.LanguageNames(); len(langs) > 1 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}
	if len(a.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(a.Topics, ", "))
	}
	if a.Stars > 0 {
		fmt.Fprintf(&b, "Stars: %d\n", a.Stars)
	}
	if a.License != "" {
		fmt.Fprintf(&b, "License: %s\n", a.License)
	}
	if a.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n", a.Homepage)
	}
	fmt.Fprintf(&b, "Layout: %s\n", gc.Layout())
	fmt.Fprintf(&b, "Theme: %s\n", gc.Theme())
	if instructions := gc.Instructions(); instructions != "" {
		fmt.Fprintf(&b, "Custom instructions: %s\n", instructions)
	}
	return b.String()
}

func displayName(a *analysis.Analysis) string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Name
}
