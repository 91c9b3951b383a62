package pkg

import "time"

// Question is one entry of the fixed intake questionnaire.  Its identity is
// its position in the question bank; the options are the quick-reply choices
// offered to the user alongside free text.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Answer pairs a question with the value the user gave, either one of the
// question's options or freeform text.
type Answer struct {
	Question string `json:"question"`
	Value    string `json:"value"`
}

// Phase describes where a session is in the conversation flow.
type Phase string

const (
	// PhaseIntake: the engine is walking through the question bank.
	PhaseIntake Phase = "intake"
	// PhaseDiagnosing is transient: it only exists while the diagnosis call
	// is in flight and always resolves to PhaseFollowup.
	PhaseDiagnosing Phase = "diagnosing"
	// PhaseFollowup: diagnosis delivered, open questions and restart allowed.
	PhaseFollowup Phase = "followup"
)

// Role describes who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat bubble in a session transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RiskTier is the qualitative dengue risk level produced by the scorer.
// Values are the Indonesian labels shown to the user.
type RiskTier string

const (
	TierLow    RiskTier = "Rendah"
	TierMedium RiskTier = "Sedang"
	TierHigh   RiskTier = "Tinggi"
)

// Mode tags a persisted record with how its text was produced.
type Mode string

const (
	// ModeProduction means the text came from the generative backend.
	ModeProduction Mode = "production"
	// ModeFallback means the text came from the local deterministic substitute.
	ModeFallback Mode = "fallback"
)

// RecordType distinguishes the two kinds of history records.
type RecordType string

const (
	RecordDiagnosis RecordType = "dengue_diagnosis"
	RecordFollowup  RecordType = "followup_question"
)

// HistoryRecord is one persisted diagnosis or follow-up event.  For a
// diagnosis the Responses and Diagnosis fields are set; for a follow-up the
// Question and AnswerText fields are set.  Records are immutable once
// written.
type HistoryRecord struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	Type       RecordType `json:"type"`
	Responses  []Answer   `json:"responses,omitempty"`
	Diagnosis  string     `json:"diagnosis,omitempty"`
	Question   string     `json:"question,omitempty"`
	AnswerText string     `json:"answer,omitempty"`
	Mode       Mode       `json:"mode"`
	CreatedAt  time.Time  `json:"created_at"`
}

// User is an account able to sign in to the scanner.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserActivity tracks per-user usage counters.  It is upserted on every
// history write and keyed by the session user ID.
type UserActivity struct {
	UserID         string    `json:"user_id"`
	DiagnosisCount int       `json:"diagnosis_count"`
	QuestionCount  int       `json:"question_count"`
	LastActivity   time.Time `json:"last_activity"`
}
