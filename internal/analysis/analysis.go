// Package analysis collects the repository facts that generation prompts are
// built from. Server mode analyzes through the GitHub API; the preview command
// analyzes a local working tree instead.
package analysis

import (
	"sort"
	"strings"
)

// Analysis is the condensed repository picture handed to the section planner
// and generator prompts.
type Analysis struct {
	Name          string
	FullName      string
	Description   string
	Homepage      string
	HTMLURL       string
	DefaultBranch string
	License       string
	Topics        []string
	Languages     map[string]int
	Stars         int
	Forks         int
	OpenIssues    int
	CommitCount   int
	Readme        string
}

// readmeExcerptLimit bounds how much README text is embedded in prompts.
const readmeExcerptLimit = 2000

// PrimaryLanguage returns the language with the largest byte count.
func (a *Analysis) PrimaryLanguage() string {
	if len(a.Languages) == 0 {
		return ""
	}
	type langCount struct {
		name  string
		bytes int
	}
	counts := make([]langCount, 0, len(a.Languages))
	for name, n := range a.Languages {
		counts = append(counts, langCount{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].bytes != counts[j].bytes {
			return counts[i].bytes > counts[j].bytes
		}
		return counts[i].name < counts[j].name
	})
	return counts[0].name
}

// LanguageNames returns languages ordered by byte count, largest first.
func (a *Analysis) LanguageNames() []string {
	type langCount struct {
		name  string
		bytes int
	}
	counts := make([]langCount, 0, len(a.Languages))
	for name, n := range a.Languages {
		counts = append(counts, langCount{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].bytes != counts[j].bytes {
			return counts[i].bytes > counts[j].bytes
		}
		return counts[i].name < counts[j].name
	})
	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.name
	}
	return names
}

// ReadmeExcerpt returns the README truncated for prompt embedding. Truncation
// happens on a rune boundary so multi-byte content stays valid.
func (a *Analysis) ReadmeExcerpt() string {
	return truncateRunes(a.Readme, readmeExcerptLimit)
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
