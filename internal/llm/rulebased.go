package llm

import (
	"context"
	"strings"
)

// RuleBased is a deterministic generator used when no model API is
// configured. It is an explicit, named backend reported by the status
// tool, never an implicit fallback after a transport error.
type RuleBased struct{}

func NewRuleBased() *RuleBased { return &RuleBased{} }

func (r *RuleBased) Generate(_ context.Context, prompt, _ string) (string, error) {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "characteristic") || strings.Contains(lower, "fake news"):
		return `Based on the provided sources, fake news typically shows sensational headlines, missing or questionable source citations, emotionally manipulative language, and claims presented without context. Compare any article against these markers and cross-reference it with credible outlets before trusting it. [1]`, nil
	case strings.Contains(lower, "difference") || strings.Contains(lower, "compare"):
		return `Based on the sources, real news carries credible attribution, verified facts and professional writing standards, while fake news relies on unverified claims, emotional framing and content engineered to spread quickly. The retrieved documents illustrate both patterns. [1]`, nil
	case strings.Contains(lower, "detect") || strings.Contains(lower, "method"):
		return `Based on the sources, useful detection steps are: verify the outlet and author, cross-reference the claim with independent reports, check dates and URLs, and watch for emotionally loaded language. The retrieved documents can be used to practice these checks. [1]`, nil
	default:
		return `Based on the provided sources, I can compare the retrieved passages against known fake and real news patterns. The documents above are the most relevant matches for your question; review the cited passages [1], [2] for the supporting detail.`, nil
	}
}

func (r *RuleBased) ModelName() string { return "rule-based" }
