package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"feverscan/internal/llm"
	"feverscan/internal/risk"
	"feverscan/pkg"
)

// fakeGenerator fails a fixed number of times before succeeding.
type fakeGenerator struct {
	calls   int
	failN   int
	failErr error
	reply   string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failN {
		return "", f.failErr
	}
	return f.reply, nil
}

type staticRef struct{ s string }

func (r staticRef) Summary() string { return r.s }

// newTestAdvisor wires an advisor whose sleeps are recorded instead of slept.
func newTestAdvisor(gen llm.Generator) (*Advisor, *[]time.Duration) {
	a := New(gen, staticRef{s: "ringkasan data"}, 3, time.Second, nil)
	var slept []time.Duration
	a.policy.sleep = func(d time.Duration) { slept = append(slept, d) }
	a.policy.jitter = func() float64 { return 0 }
	return a, &slept
}

func sampleAnswers() []pkg.Answer {
	return []pkg.Answer{
		{Question: "Apakah Anda mengalami demam tinggi secara tiba-tiba (di atas 38°C)?", Value: "Tidak"},
		{Question: "Sudah berapa hari Anda mengalami demam?", Value: "1 hari"},
	}
}

func TestDiagnoseSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: "hasil analisis"}
	a, _ := newTestAdvisor(gen)

	text, mode := a.Diagnose(context.Background(), sampleAnswers())
	if text != "hasil analisis" || mode != pkg.ModeProduction {
		t.Fatalf("got (%q, %s), want production reply", text, mode)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call, got %d", gen.calls)
	}
}

func TestDiagnoseQuotaExhaustionFallsBack(t *testing.T) {
	gen := &fakeGenerator{failN: 99, failErr: fmt.Errorf("%w: 429", llm.ErrQuotaExceeded)}
	a, slept := newTestAdvisor(gen)

	answers := sampleAnswers()
	text, mode := a.Diagnose(context.Background(), answers)
	if mode != pkg.ModeFallback {
		t.Fatalf("expected fallback mode, got %s", mode)
	}
	if want := risk.Score(answers).Rationale; text != want {
		t.Fatalf("fallback text should come from the risk scorer")
	}
	if gen.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", gen.calls)
	}
	// Exponential backoff without jitter: 1s, 2s; no sleep after the last
	// attempt.
	if len(*slept) != 2 || (*slept)[0] != time.Second || (*slept)[1] != 2*time.Second {
		t.Fatalf("unexpected backoff schedule: %v", *slept)
	}
}

func TestDiagnoseQuotaThenSuccess(t *testing.T) {
	gen := &fakeGenerator{failN: 2, failErr: fmt.Errorf("%w", llm.ErrQuotaExceeded), reply: "ok"}
	a, _ := newTestAdvisor(gen)

	text, mode := a.Diagnose(context.Background(), sampleAnswers())
	if text != "ok" || mode != pkg.ModeProduction {
		t.Fatalf("third attempt should succeed, got (%q, %s)", text, mode)
	}
}

func TestDiagnoseTimeoutUsesLinearBackoff(t *testing.T) {
	gen := &fakeGenerator{failN: 99, failErr: fmt.Errorf("%w", llm.ErrTimeout)}
	a, slept := newTestAdvisor(gen)

	_, mode := a.Diagnose(context.Background(), sampleAnswers())
	if mode != pkg.ModeFallback {
		t.Fatalf("expected fallback mode, got %s", mode)
	}
	if len(*slept) != 2 || (*slept)[0] != time.Second || (*slept)[1] != 2*time.Second {
		t.Fatalf("unexpected timeout backoff schedule: %v", *slept)
	}
}

func TestDiagnoseUnknownErrorFailsFast(t *testing.T) {
	gen := &fakeGenerator{failN: 99, failErr: errors.New("connection refused")}
	a, slept := newTestAdvisor(gen)

	_, mode := a.Diagnose(context.Background(), sampleAnswers())
	if mode != pkg.ModeFallback {
		t.Fatalf("expected fallback mode, got %s", mode)
	}
	if gen.calls != 1 {
		t.Fatalf("unknown errors must not be retried, got %d calls", gen.calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("unknown errors must not sleep, slept %v", *slept)
	}
}

func TestLocalModeSkipsGenerator(t *testing.T) {
	a, _ := newTestAdvisor(nil)
	if !a.LocalOnly() {
		t.Fatal("nil generator should mean local-only mode")
	}
	answers := sampleAnswers()
	text, mode := a.Diagnose(context.Background(), answers)
	if mode != pkg.ModeFallback || text != risk.Score(answers).Rationale {
		t.Fatalf("local mode should return scorer output, got (%q, %s)", text, mode)
	}
}

func TestAnswerFollowupRouting(t *testing.T) {
	a, _ := newTestAdvisor(nil)

	cases := []struct {
		question string
		contains string
	}{
		{"Bagaimana pencegahan demam berdarah?", "3M"},
		{"Apa saja gejala DBD?", "Demam tinggi mendadak"},
		{"Apa pengobatan untuk DBD?", "parasetamol"},
		{"Berapa umur nyamuk?", "Berapa umur nyamuk?"},
	}
	for _, tc := range cases {
		text, mode := a.AnswerFollowup(context.Background(), tc.question)
		if mode != pkg.ModeFallback {
			t.Fatalf("%q: expected fallback mode", tc.question)
		}
		if !strings.Contains(text, tc.contains) {
			t.Errorf("%q: answer %q does not contain %q", tc.question, text, tc.contains)
		}
	}
}

func TestDiagnosisPromptUsesSymptomLabels(t *testing.T) {
	a, _ := newTestAdvisor(&fakeGenerator{reply: "ok"})
	prompt := a.diagnosisPrompt(sampleAnswers())

	if !strings.Contains(prompt, "demam tinggi: Tidak") {
		t.Errorf("prompt missing canonical fever label:\n%s", prompt)
	}
	if !strings.Contains(prompt, "durasi demam: 1 hari") {
		t.Errorf("prompt missing duration label:\n%s", prompt)
	}
	if !strings.Contains(prompt, "ringkasan data") {
		t.Errorf("prompt missing reference summary:\n%s", prompt)
	}
}
