package refine

import (
	"context"
	"fmt"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/llm"
	"github.com/wadakatu/gitlyte/internal/metrics"
)

// EvaluationResult is one structured review of a document.
type EvaluationResult struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

const evaluateSystem = "You are a strict design reviewer scoring showcase " +
	"websites. Respond with JSON only."

const evaluatePromptFormat = `Review this showcase website for %s.
%s
Score it on a 1-10 scale considering: visual design, content quality, user
experience, technical quality, and brand alignment.

Respond with a JSON object:
{"score": <integer 1-10>, "feedback": "...", "strengths": ["..."], "improvements": ["..."]}

%s`

// evaluateHTML issues one review request. A response that does not parse as a
// valid evaluation is a hard failure: substituting a neutral score would
// corrupt the best-candidate comparison in the refinement loop.
func (r *Refiner) evaluateHTML(ctx context.Context, html string, cfg Config) (EvaluationResult, error) {
	prompt := fmt.Sprintf(evaluatePromptFormat, cfg.ProjectName, projectLine(cfg), html)

	raw, err := r.client.GenerateText(ctx, llm.Request{
		System:      evaluateSystem,
		Prompt:      prompt,
		Temperature: 0.2,
	})
	if err != nil {
		r.rec.IncLLMCall("evaluate", metrics.CallError)
		return EvaluationResult{}, err
	}
	r.rec.IncLLMCall("evaluate", metrics.CallSuccess)

	evaluation, err := llm.ParseJSON[EvaluationResult](raw)
	if err != nil {
		return EvaluationResult{}, glerrors.EvaluationParseFailed(err)
	}
	if evaluation.Score < 1 || evaluation.Score > 10 {
		return EvaluationResult{}, glerrors.EvaluationParseFailed(
			fmt.Errorf("score %d outside 1-10", evaluation.Score))
	}
	return evaluation, nil
}
