package site

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
)

// SectionPlan is the ordered section list a site is generated from.
// First entry is always "hero", last is always "footer", no duplicates.
type SectionPlan struct {
	Sections  []string `json:"sections"`
	Reasoning string   `json:"reasoning"`
}

const plannerSystem = "You are a web designer planning a one-page showcase " +
	"site for a software repository. Respond with JSON only."

const plannerPromptFormat = `Plan the sections of a single-page showcase website for this repository.

%s
README excerpt:
%s

Choose 3 to 7 section identifiers (lowercase, hyphenated) that fit this
project, for example: hero, features, installation, usage, architecture,
contributing, footer.

Respond with a JSON object: {"sections": ["hero", ...], "reasoning": "..."}`

// Planner asks the model for a section plan.
type Planner struct {
	client llm.Client
	rec    metrics.Recorder
}

// NewPlanner returns a planner using the given generation client.
func NewPlanner(client llm.Client) *Planner {
	return &Planner{client: client, rec: metrics.NoopRecorder{}}
}

// WithRecorder swaps in a metrics recorder.
func (p *Planner) WithRecorder(rec metrics.Recorder) *Planner {
	if rec != nil {
		p.rec = rec
	}
	return p
}

// Plan issues one generation request and normalizes the result. A response
// that cannot be parsed falls back to the minimal plan; only provider errors
// propagate. Planning never aborts generation over malformed text.
func (p *Planner) Plan(ctx context.Context, genCtx *GenerationContext) (*SectionPlan, error) {
	prompt := fmt.Sprintf(plannerPromptFormat, genCtx.repoFacts(), genCtx.Analysis.ReadmeExcerpt())

	raw, err := p.client.GenerateText(ctx, llm.Request{
		System:      plannerSystem,
		Prompt:      prompt,
		Temperature: 0.3,
	})
	if err != nil {
		p.rec.IncLLMCall("plan", metrics.CallError)
		return nil, err
	}
	p.rec.IncLLMCall("plan", metrics.CallSuccess)

	plan, err := llm.ParseJSON[SectionPlan](raw)
	if err != nil {
		slog.Warn("section plan not parseable, using fallback plan",
			logfields.Repository(displayName(genCtx.Analysis)), logfields.Error(err))
		return FallbackPlan(err.Error()), nil
	}
	if len(plan.Sections) == 0 {
		slog.Warn("section plan empty, using fallback plan",
			logfields.Repository(displayName(genCtx.Analysis)))
		return FallbackPlan("plan contained no sections"), nil
	}

	normalizePlan(&plan)
	return &plan, nil
}

// FallbackPlan is the minimal plan used when the planner response is
// unusable. The reasoning records why so the degradation stays visible.
func FallbackPlan(cause string) *SectionPlan {
	return &SectionPlan{
		Sections:  []string{"hero", "features", "footer"},
		Reasoning: "fallback plan: " + cause,
	}
}

// normalizePlan enforces the plan invariants regardless of model output:
// cleaned identifiers, no duplicates, hero first, footer last.
func normalizePlan(plan *SectionPlan) {
	seen := map[string]bool{}
	cleaned := make([]string, 0, len(plan.Sections))
	for _, s := range plan.Sections {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || s == "hero" || s == "footer" || seen[s] {
			continue
		}
		seen[s] = true
		cleaned = append(cleaned, s)
	}

	sections := make([]string, 0, len(cleaned)+2)
	sections = append(sections, "hero")
	sections = append(sections, cleaned...)
	sections = append(sections, "footer")
	plan.Sections = sections
}
