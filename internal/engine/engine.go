// Package engine owns the session state machine: progress through the fixed
// question sequence, the transition into diagnosis, the open follow-up phase,
// restart, and rehydration from persisted history.  The engine is presentation
// agnostic: any front end drives it through the same transition methods and
// renders the transcript it returns.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"feverscan/internal/questions"
	"feverscan/pkg"
)

// Adviser produces diagnosis and follow-up texts.  Implementations never
// fail; the mode reports whether the text came from the backend or the local
// fallback.
type Adviser interface {
	Diagnose(ctx context.Context, answers []pkg.Answer) (string, pkg.Mode)
	AnswerFollowup(ctx context.Context, question string) (string, pkg.Mode)
}

// Limiter gates calls into the adviser.  On denial it reports how long the
// caller has to wait.
type Limiter interface {
	TryAcquire() (bool, time.Duration)
}

// HistoryStore persists diagnosis and follow-up records and serves recent
// history for session resumption.
type HistoryStore interface {
	Append(ctx context.Context, rec *pkg.HistoryRecord) (int64, error)
	Recent(ctx context.Context, userID string, limit int) ([]pkg.HistoryRecord, error)
}

// ErrEmptyInput rejects whitespace-only freeform input; the state is
// unchanged and the active prompt stays active.
var ErrEmptyInput = errors.New("engine: empty input")

// ErrWrongPhase rejects an action that is not valid in the current phase.
var ErrWrongPhase = errors.New("engine: action not valid in this phase")

// RateLimitedError reports a denied adviser call with the remaining wait.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("engine: rate limited, retry in %s", e.Wait.Round(time.Second))
}

// Result is what the presentation layer renders after an accepted action.
type Result struct {
	// Transcript is the full transcript after the action.
	Transcript []pkg.Message
	// Saved is false when the action produced a record that could not be
	// persisted; the answer is still shown.
	Saved bool
	// Restarted is true when the action was a restart (including via the
	// sentinel).
	Restarted bool
}

// Engine is one user's conversation session.  It is not safe for concurrent
// use: one user action fully resolves before the next is accepted.
type Engine struct {
	userID     string
	phase      pkg.Phase
	current    int
	answers    []pkg.Answer
	transcript []pkg.Message

	adviser Adviser
	limiter Limiter
	store   HistoryStore
	log     *slog.Logger
}

// New creates a session in Intake(0) with the greeting and first question
// already on the transcript.  The user ID is generated once and survives
// restarts.
func New(adviser Adviser, limiter Limiter, store HistoryStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		userID:  uuid.New().String(),
		adviser: adviser,
		limiter: limiter,
		store:   store,
		log:     log,
	}
	e.seed()
	return e
}

// Resume rehydrates a session directly into Followup from a persisted
// record, bypassing intake.  This is how picking an entry from the history
// list restores a past conversation.
func Resume(adviser Adviser, limiter Limiter, store HistoryStore, rec pkg.HistoryRecord, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		userID:  rec.UserID,
		adviser: adviser,
		limiter: limiter,
		store:   store,
		log:     log,
		phase:   pkg.PhaseFollowup,
		current: questions.Count(),
	}
	switch rec.Type {
	case pkg.RecordDiagnosis:
		e.answers = append(e.answers, rec.Responses...)
		e.append(pkg.RoleAssistant, rec.Diagnosis)
		e.append(pkg.RoleAssistant, FollowupInvitation)
	case pkg.RecordFollowup:
		e.append(pkg.RoleUser, rec.Question)
		e.append(pkg.RoleAssistant, rec.AnswerText)
	}
	return e
}

func (e *Engine) seed() {
	e.phase = pkg.PhaseIntake
	e.current = 0
	e.answers = nil
	e.transcript = nil
	e.append(pkg.RoleAssistant, Greeting)
	e.append(pkg.RoleAssistant, questions.At(0).Text)
}

func (e *Engine) append(role pkg.Role, content string) {
	e.transcript = append(e.transcript, pkg.Message{Role: role, Content: content})
}

// UserID returns the stable session user identifier.
func (e *Engine) UserID() string { return e.userID }

// Phase returns the current phase.
func (e *Engine) Phase() pkg.Phase { return e.phase }

// Transcript returns a copy of the transcript.
func (e *Engine) Transcript() []pkg.Message {
	out := make([]pkg.Message, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Answers returns a copy of the answers recorded so far, in question order.
func (e *Engine) Answers() []pkg.Answer {
	out := make([]pkg.Answer, len(e.answers))
	copy(out, e.answers)
	return out
}

// CurrentQuestion returns the active intake question, or ok=false outside
// intake.
func (e *Engine) CurrentQuestion() (pkg.Question, bool) {
	if e.phase != pkg.PhaseIntake || questions.IsTerminal(e.current) {
		return pkg.Question{}, false
	}
	return questions.At(e.current), true
}

// SelectOption answers the active question with one of its quick-reply
// options.
func (e *Engine) SelectOption(ctx context.Context, idx int) (*Result, error) {
	q, ok := e.CurrentQuestion()
	if !ok {
		return nil, ErrWrongPhase
	}
	if idx < 0 || idx >= len(q.Options) {
		return nil, fmt.Errorf("engine: option %d out of range for question %d", idx, e.current)
	}
	return e.answer(ctx, q.Options[idx])
}

// SubmitFreeform answers the active question with arbitrary text.  Blank
// input is rejected with no state change.
func (e *Engine) SubmitFreeform(ctx context.Context, text string) (*Result, error) {
	if _, ok := e.CurrentQuestion(); !ok {
		return nil, ErrWrongPhase
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	return e.answer(ctx, text)
}

// answer records the accepted value and advances the state machine.  The
// final answer triggers the diagnosis; a rate-limit denial there leaves the
// question active and records nothing.
func (e *Engine) answer(ctx context.Context, value string) (*Result, error) {
	final := e.current == questions.Count()-1
	if final {
		if ok, wait := e.limiter.TryAcquire(); !ok {
			return nil, &RateLimitedError{Wait: wait}
		}
	}

	e.answers = append(e.answers, pkg.Answer{Question: questions.At(e.current).Text, Value: value})
	e.append(pkg.RoleUser, value)
	e.current++

	if !final {
		e.append(pkg.RoleAssistant, questions.At(e.current).Text)
		return &Result{Transcript: e.Transcript(), Saved: true}, nil
	}
	return e.diagnose(ctx)
}

// diagnose runs the transient Diagnosing phase: it resolves to Followup on
// success or fallback, never to an error.
func (e *Engine) diagnose(ctx context.Context) (*Result, error) {
	e.phase = pkg.PhaseDiagnosing
	text, mode := e.adviser.Diagnose(ctx, e.answers)
	e.append(pkg.RoleAssistant, text)
	e.append(pkg.RoleAssistant, FollowupInvitation)
	e.phase = pkg.PhaseFollowup

	saved := e.persist(ctx, &pkg.HistoryRecord{
		UserID:    e.userID,
		Type:      pkg.RecordDiagnosis,
		Responses: e.Answers(),
		Diagnosis: text,
		Mode:      mode,
	})
	return &Result{Transcript: e.Transcript(), Saved: saved}, nil
}

// SubmitFollowup handles an open question in the Followup phase.  The restart
// sentinel restarts the questionnaire instead of being answered.
func (e *Engine) SubmitFollowup(ctx context.Context, text string) (*Result, error) {
	if e.phase != pkg.PhaseFollowup {
		return nil, ErrWrongPhase
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if strings.EqualFold(text, RestartSentinel) {
		return e.Restart(), nil
	}
	if ok, wait := e.limiter.TryAcquire(); !ok {
		return nil, &RateLimitedError{Wait: wait}
	}

	e.append(pkg.RoleUser, text)
	answer, mode := e.adviser.AnswerFollowup(ctx, text)
	e.append(pkg.RoleAssistant, answer)

	saved := e.persist(ctx, &pkg.HistoryRecord{
		UserID:     e.userID,
		Type:       pkg.RecordFollowup,
		Question:   text,
		AnswerText: answer,
		Mode:       mode,
	})
	return &Result{Transcript: e.Transcript(), Saved: saved}, nil
}

// Restart clears the session back to Intake(0), preserving the user ID.
// Available as an explicit action at any time.
func (e *Engine) Restart() *Result {
	e.seed()
	return &Result{Transcript: e.Transcript(), Saved: true, Restarted: true}
}

// persist appends a record, degrading to "shown but not saved" on storage
// failure.
func (e *Engine) persist(ctx context.Context, rec *pkg.HistoryRecord) bool {
	if e.store == nil {
		return true
	}
	if _, err := e.store.Append(ctx, rec); err != nil {
		e.log.Warn("history write failed, result shown unsaved",
			"user_id", e.userID, "type", rec.Type, "error", err)
		e.append(pkg.RoleAssistant, saveFailedNotice)
		return false
	}
	return true
}
