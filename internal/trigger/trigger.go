// Package trigger classifies repository events into generation decisions.
// Every resolver is pure: it never calls a remote service and cannot fail.
// Malformed configuration degrades to "do not generate" so event handlers
// never crash on user-supplied config.
package trigger

import "github.com/wadakatu/gitlyte/internal/config"

// Control labels recognized on merged pull requests.
const (
	LabelSkip    = "gitlyte:skip"
	LabelForce   = "gitlyte:force"
	LabelManual  = "gitlyte:manual"
	LabelPreview = "gitlyte:preview"
)

// Type identifies what caused a generation decision.
type Type string

const (
	TypeAuto    Type = "auto"
	TypeManual  Type = "manual"
	TypeLabel   Type = "label"
	TypeComment Type = "comment"
	TypeSkip    Type = "skip"
)

// GenerationType selects the kind of run a positive decision starts.
type GenerationType string

const (
	GenerationFull    GenerationType = "full"
	GenerationPreview GenerationType = "preview"
	GenerationForce   GenerationType = "force"
)

// Decision is the immutable result of one resolution pass. It is recomputed
// per event and never persisted.
type Decision struct {
	ShouldGenerate bool
	TriggerType    Type
	GenerationType GenerationType
	Reason         string
}

// Change carries the merged-PR facts resolution depends on.
type Change struct {
	Labels []string
}

func (c Change) hasLabel(name string) bool {
	for _, l := range c.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// ResolveOnMerge resolves a merged pull request. Precedence, highest first:
// skip label, force label, manual label, preview label, configuration rule,
// default no-generation. Evaluation stops at the first matching rule.
func ResolveOnMerge(change Change, rc *config.RepoConfig) Decision {
	switch {
	case change.hasLabel(LabelSkip):
		return Decision{
			TriggerType: TypeSkip,
			Reason:      "skip label present",
		}
	case change.hasLabel(LabelForce):
		return Decision{
			ShouldGenerate: true,
			TriggerType:    TypeLabel,
			GenerationType: GenerationForce,
			Reason:         "force label present",
		}
	case change.hasLabel(LabelManual):
		return Decision{
			ShouldGenerate: true,
			TriggerType:    TypeManual,
			GenerationType: GenerationFull,
			Reason:         "manual label present",
		}
	case change.hasLabel(LabelPreview):
		return Decision{
			ShouldGenerate: true,
			TriggerType:    TypeLabel,
			GenerationType: GenerationPreview,
			Reason:         "preview label present",
		}
	}

	if rc.TriggerMode() == config.TriggerManual {
		return Decision{
			TriggerType: TypeManual,
			Reason:      "trigger mode is manual",
		}
	}
	if labels := configuredLabels(rc); len(labels) > 0 {
		for _, l := range change.Labels {
			if labels[l] {
				return Decision{
					ShouldGenerate: true,
					TriggerType:    TypeLabel,
					GenerationType: GenerationFull,
					Reason:         "configured label matched: " + l,
				}
			}
		}
	}

	return Decision{
		TriggerType: TypeAuto,
		Reason:      "no trigger conditions met",
	}
}

func configuredLabels(rc *config.RepoConfig) map[string]bool {
	if rc == nil || len(rc.Generation.Labels) == 0 {
		return nil
	}
	set := make(map[string]bool, len(rc.Generation.Labels))
	for _, l := range rc.Generation.Labels {
		set[l] = true
	}
	return set
}

// ResolveOnComment resolves an operator comment. Informational verbs (config,
// help) never generate; their replies are handled by the caller.
func ResolveOnComment(body string, rc *config.RepoConfig) Decision {
	cmd := ParseComment(body)
	if cmd == nil {
		return Decision{
			TriggerType: TypeComment,
			Reason:      "no valid command found",
		}
	}

	switch cmd.Verb {
	case VerbGenerate:
		generation := GenerationFull
		if cmd.Options["force"] == "true" {
			generation = GenerationForce
		}
		return Decision{
			ShouldGenerate: true,
			TriggerType:    TypeComment,
			GenerationType: generation,
			Reason:         "generate command",
		}
	case VerbPreview:
		return Decision{
			ShouldGenerate: true,
			TriggerType:    TypeComment,
			GenerationType: GenerationPreview,
			Reason:         "preview command",
		}
	default:
		return Decision{
			TriggerType: TypeComment,
			Reason:      "informational command: " + string(cmd.Verb),
		}
	}
}

// ResolveOnPush resolves a push event. Push generation is active unless
// explicitly disabled; the branch set defaults to the repository's default
// branch. An empty changed-path list generates (irrelevance cannot be proven).
func ResolveOnPush(branch, defaultBranch string, changedPaths []string, rc *config.RepoConfig) Decision {
	if !rc.PushEnabled() {
		return Decision{
			TriggerType: TypeAuto,
			Reason:      "push generation disabled",
		}
	}

	branchMatch := false
	for _, b := range rc.PushBranches(defaultBranch) {
		if b == branch {
			branchMatch = true
			break
		}
	}
	if !branchMatch {
		return Decision{
			TriggerType: TypeAuto,
			Reason:      "branch not configured for push generation: " + branch,
		}
	}

	ignorePrefixes := rc.PushIgnorePaths()
	if len(ignorePrefixes) > 0 && len(changedPaths) > 0 && allIgnored(changedPaths, ignorePrefixes) {
		return Decision{
			TriggerType: TypeAuto,
			Reason:      "all changed paths ignored",
		}
	}

	return Decision{
		ShouldGenerate: true,
		TriggerType:    TypeAuto,
		GenerationType: GenerationFull,
		Reason:         "push to " + branch,
	}
}

func allIgnored(paths, prefixes []string) bool {
	for _, p := range paths {
		ignored := false
		for _, prefix := range prefixes {
			if hasPathPrefix(p, prefix) {
				ignored = true
				break
			}
		}
		if !ignored {
			return false
		}
	}
	return true
}

// hasPathPrefix matches on path-segment boundaries: "docs" covers
// "docs/guide.md" but not "docs-site/x".
func hasPathPrefix(p, prefix string) bool {
	if prefix == "" {
		return false
	}
	if p == prefix {
		return true
	}
	if len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		return len(p) >= len(prefix) && p[:len(prefix)] == prefix
	}
	return len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/'
}
