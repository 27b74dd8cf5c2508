package site

import (
	"context"
	"fmt"
	"sync"
	"time"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/metrics"
)

// GeneratedSection is one HTML fragment. Order is the section's position in
// the plan: fragments are generated concurrently, so completion order carries
// no meaning and must never be used for placement.
type GeneratedSection struct {
	Type  string
	HTML  string
	Order int
}

const sectionSystem = "You are a front-end developer writing one section of a " +
	"static single-page showcase site. Output a self-contained HTML fragment " +
	"with inline-friendly class names. No markdown, no explanations."

const sectionPromptFormat = `Write the HTML for one section of a showcase website.

%s
Section type: %s
The fragment must be wrapped in <section id="%s"> ... </section> and use the
CSS custom properties --color-bg, --color-surface, --color-text, --color-muted,
--color-primary and --color-border for all colors.`

// Generator fans out one generation task per planned section.
type Generator struct {
	client      llm.Client
	concurrency int
	rec         metrics.Recorder
}

// NewGenerator returns a section generator. Concurrency below 1 is raised
// to 1.
func NewGenerator(client llm.Client, concurrency int) *Generator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Generator{client: client, concurrency: concurrency, rec: metrics.NoopRecorder{}}
}

// WithRecorder swaps in a metrics recorder.
func (g *Generator) WithRecorder(rec metrics.Recorder) *Generator {
	if rec != nil {
		g.rec = rec
	}
	return g
}

type sectionResult struct {
	section GeneratedSection
	err     error
}

// GenerateAll generates every planned section concurrently and returns the
// fragments tagged with their plan positions. Any failed section fails the
// whole call with an error naming the section type; partial output is not
// returned.
func (g *Generator) GenerateAll(ctx context.Context, plan *SectionPlan, genCtx *GenerationContext) ([]GeneratedSection, error) {
	if plan == nil || len(plan.Sections) == 0 {
		return nil, glerrors.New(glerrors.CategoryGeneration, glerrors.SeverityError, "no sections planned")
	}

	concurrency := g.concurrency
	if concurrency > len(plan.Sections) {
		concurrency = len(plan.Sections)
	}

	sem := make(chan struct{}, concurrency)
	results := make([]sectionResult, len(plan.Sections))

	var wg sync.WaitGroup
	for i, sectionType := range plan.Sections {
		wg.Add(1)
		go func(order int, sectionType string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			html, err := g.generateSection(ctx, sectionType, genCtx)
			results[order] = sectionResult{
				section: GeneratedSection{Type: sectionType, HTML: html, Order: order},
				err:     err,
			}
		}(i, sectionType)
	}
	wg.Wait()

	sections := make([]GeneratedSection, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		sections[i] = r.section
	}
	return sections, nil
}

func (g *Generator) generateSection(ctx context.Context, sectionType string, genCtx *GenerationContext) (string, error) {
	prompt := fmt.Sprintf(sectionPromptFormat, genCtx.repoFacts(), sectionType, sectionType)

	start := time.Now()
	raw, err := g.client.GenerateText(ctx, llm.Request{
		System:      sectionSystem,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	g.rec.ObserveSectionDuration(sectionType, time.Since(start))
	if err != nil {
		g.rec.IncLLMCall("section", metrics.CallError)
		if gle, ok := err.(*glerrors.GitLyteError); ok {
			return "", gle.WithContext("section", sectionType)
		}
		return "", err
	}
	g.rec.IncLLMCall("section", metrics.CallSuccess)

	return sanitizeSection(sectionType, raw)
}
