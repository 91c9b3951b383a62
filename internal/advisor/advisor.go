// Package advisor owns the generative calling discipline: it decides whether
// to call the external backend or the local deterministic substitute, retries
// transient failures with backoff, and resolves every failure path into a
// usable answer.  Callers can never observe a hard failure.
package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"feverscan/internal/llm"
	"feverscan/internal/risk"
	"feverscan/pkg"
)

// ReferenceData provides the background-dataset summary embedded in prompts.
type ReferenceData interface {
	Summary() string
}

// Advisor produces diagnosis and follow-up texts.  A nil Generator puts the
// advisor in local-fallback mode: no external call is ever attempted.
type Advisor struct {
	gen    llm.Generator
	ref    ReferenceData
	policy retryPolicy
	log    *slog.Logger
}

// New constructs an Advisor.  gen may be nil for local-fallback mode; ref may
// be nil when no reference dataset is available.
func New(gen llm.Generator, ref ReferenceData, attempts int, baseDelay time.Duration, log *slog.Logger) *Advisor {
	if log == nil {
		log = slog.Default()
	}
	return &Advisor{
		gen:    gen,
		ref:    ref,
		policy: defaultRetryPolicy(attempts, baseDelay),
		log:    log,
	}
}

// LocalOnly reports whether the advisor runs without an external backend.
func (a *Advisor) LocalOnly() bool { return a.gen == nil }

// Diagnose turns a completed answer set into diagnosis text and reports which
// mode produced it.
func (a *Advisor) Diagnose(ctx context.Context, answers []pkg.Answer) (string, pkg.Mode) {
	fallback := func() string { return risk.Score(answers).Rationale }
	if a.gen == nil {
		return fallback(), pkg.ModeFallback
	}
	prompt := a.diagnosisPrompt(answers)
	out, err := a.policy.do(ctx, func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, prompt)
	})
	if err != nil {
		a.log.Warn("diagnosis generation failed, using local fallback", "error", err)
		return fallback(), pkg.ModeFallback
	}
	return out, pkg.ModeProduction
}

// AnswerFollowup answers an open question about dengue fever.
func (a *Advisor) AnswerFollowup(ctx context.Context, question string) (string, pkg.Mode) {
	if a.gen == nil {
		return routeFollowup(question), pkg.ModeFallback
	}
	prompt := a.followupPrompt(question)
	out, err := a.policy.do(ctx, func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, prompt)
	})
	if err != nil {
		a.log.Warn("follow-up generation failed, using local fallback", "error", err)
		return routeFollowup(question), pkg.ModeFallback
	}
	return out, pkg.ModeProduction
}

// diagnosisPrompt builds the compact keyword-summarized prompt: one
// "label: answer" line per answered question plus the reference summary.
func (a *Advisor) diagnosisPrompt(answers []pkg.Answer) string {
	var b strings.Builder
	b.WriteString(diagnosisPromptHeader)
	for _, ans := range answers {
		b.WriteString("- ")
		b.WriteString(symptomLabel(ans.Question))
		b.WriteString(": ")
		b.WriteString(ans.Value)
		b.WriteString("\n")
	}
	a.writeReference(&b)
	b.WriteString(diagnosisPromptFooter)
	return b.String()
}

func (a *Advisor) followupPrompt(question string) string {
	var b strings.Builder
	b.WriteString(followupPromptHeader)
	b.WriteString(question)
	b.WriteString("\n")
	a.writeReference(&b)
	b.WriteString(followupPromptFooter)
	return b.String()
}

func (a *Advisor) writeReference(b *strings.Builder) {
	if a.ref == nil {
		return
	}
	if summary := a.ref.Summary(); summary != "" {
		b.WriteString(referenceHeader)
		b.WriteString(summary)
		b.WriteString("\n")
	}
}

// symptomLabel maps a question to its canonical short label.  Unmatched
// questions fall back to the question text itself.
func symptomLabel(question string) string {
	q := strings.ToLower(question)
	for _, r := range symptomLabelRules {
		if strings.Contains(q, r.keyword) {
			return r.label
		}
	}
	return question
}

// routeFollowup picks the canned fallback block for a question.
func routeFollowup(question string) string {
	q := strings.ToLower(question)
	for _, r := range followupRoutes {
		if strings.Contains(q, r.keyword) {
			return r.answer
		}
	}
	return genericAnswerPrefix + strings.TrimSpace(question) + genericAnswerSuffix
}
