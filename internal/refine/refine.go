// Package refine implements the evaluate-refine loop that lifts generated
// documents toward a target quality score. Scores are not monotonic across
// iterations, so the loop tracks the best candidate ever seen and returns
// that, never the last iteration's output.
package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/logfields"
	"github.com/wadakatu/gitlyte/internal/metrics"
)

// improvedBaseline is the fixed score a result must exceed to count as
// improved. It is deliberately independent of the configurable target score.
const improvedBaseline = 5

// minRefinedLength guards against a refinement response collapsing into a
// fragment; an implausibly short document is never accepted.
const minRefinedLength = 50

// Config carries the loop bounds and the project context embedded in prompts.
type Config struct {
	MaxIterations      int
	TargetScore        int
	ProjectName        string
	ProjectDescription string
}

// RefinementResult is the outcome of one SelfRefine run.
type RefinementResult struct {
	HTML       string
	Evaluation EvaluationResult
	Iterations int
	Improved   bool
}

// Refiner runs the loop against a generation client.
type Refiner struct {
	client llm.Client
	rec    metrics.Recorder
}

// NewRefiner returns a refiner using the given generation client.
func NewRefiner(client llm.Client) *Refiner {
	return &Refiner{client: client, rec: metrics.NoopRecorder{}}
}

// WithRecorder swaps in a metrics recorder.
func (r *Refiner) WithRecorder(rec metrics.Recorder) *Refiner {
	if rec != nil {
		r.rec = rec
	}
	return r
}

// SelfRefine evaluates the document and refines it until the target score is
// reached or the iteration budget is spent. MaxIterations of zero means one
// evaluation and no refinement. Evaluation parse failures and empty
// refinements are hard failures; a neutral default would corrupt the
// best-candidate comparison.
func (r *Refiner) SelfRefine(ctx context.Context, initialHTML string, cfg Config) (*RefinementResult, error) {
	evaluation, err := r.evaluateHTML(ctx, initialHTML, cfg)
	if err != nil {
		return nil, err
	}

	bestHTML := initialHTML
	bestEval := evaluation
	iterations := 0

	current := initialHTML
	currentEval := evaluation
	for currentEval.Score < cfg.TargetScore && iterations < cfg.MaxIterations {
		iterations++

		refined, err := r.refineHTML(ctx, current, currentEval, cfg, iterations)
		if err != nil {
			return nil, err
		}

		refinedEval, err := r.evaluateHTML(ctx, refined, cfg)
		if err != nil {
			return nil, err
		}

		slog.Debug("refinement iteration complete",
			logfields.Iteration(iterations),
			logfields.Score(refinedEval.Score))

		if refinedEval.Score > bestEval.Score {
			bestHTML = refined
			bestEval = refinedEval
		}
		current = refined
		currentEval = refinedEval
	}

	return &RefinementResult{
		HTML:       bestHTML,
		Evaluation: bestEval,
		Iterations: iterations,
		Improved:   bestEval.Score > improvedBaseline,
	}, nil
}

const refineSystem = "You are a senior front-end developer improving a " +
	"static showcase page. Return the complete HTML document only, no " +
	"markdown, no commentary."

const refinePromptFormat = `Improve this showcase website for %s.
%s
The previous review scored it %d/10 and said:
%s

Address these specific improvements:
%s

Return the complete HTML document with the improvements applied. Keep
everything that already works; do not drop sections.

%s`

func (r *Refiner) refineHTML(ctx context.Context, html string, evaluation EvaluationResult, cfg Config, iteration int) (string, error) {
	improvements := "- (none listed)"
	if len(evaluation.Improvements) > 0 {
		improvements = "- " + strings.Join(evaluation.Improvements, "\n- ")
	}

	prompt := fmt.Sprintf(refinePromptFormat,
		cfg.ProjectName, projectLine(cfg), evaluation.Score, evaluation.Feedback, improvements, html)

	raw, err := r.client.GenerateText(ctx, llm.Request{
		System:      refineSystem,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		r.rec.IncLLMCall("refine", metrics.CallError)
		return "", err
	}
	r.rec.IncLLMCall("refine", metrics.CallSuccess)

	refined := strings.TrimSpace(llm.StripMarkdownFences(raw))
	if len(refined) < minRefinedLength {
		return "", glerrors.RefinementEmpty(iteration)
	}
	return refined, nil
}

func projectLine(cfg Config) string {
	if cfg.ProjectDescription == "" {
		return ""
	}
	return "Project: " + cfg.ProjectDescription + "\n"
}
