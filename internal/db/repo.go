// Package db is the Postgres-backed store for history records, user
// accounts, and per-user activity counters.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"feverscan/pkg"
)

// ErrStorageUnavailable wraps failures to reach the backing database.  The
// engine degrades to "shown but not saved" when it sees this.
var ErrStorageUnavailable = errors.New("db: storage unavailable")

// Repository wraps database operations for history, users, and activity.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB.  The caller
// owns the connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// payload is the JSONB shape stored per history record.
type payload struct {
	Responses []pkg.Answer `json:"responses,omitempty"`
	Diagnosis string       `json:"diagnosis,omitempty"`
	Question  string       `json:"question,omitempty"`
	Answer    string       `json:"answer,omitempty"`
}

// Append inserts a history record and bumps the matching activity counter in
// one transaction, so a failed counter update cannot strand a history row
// the caller was told is unsaved.  Records are append-only; nothing here
// ever updates a history row.
func (r *Repository) Append(ctx context.Context, rec *pkg.HistoryRecord) (int64, error) {
	body, err := json.Marshal(payload{
		Responses: rec.Responses,
		Diagnosis: rec.Diagnosis,
		Question:  rec.Question,
		Answer:    rec.AnswerText,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO history (user_id, type, payload, mode)
         VALUES ($1, $2, $3, $4)
         RETURNING id, created_at`,
		rec.UserID, rec.Type, body, rec.Mode,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: insert history: %v", ErrStorageUnavailable, err)
	}
	if err := upsertActivity(ctx, tx, rec.UserID, rec.Type); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrStorageUnavailable, err)
	}
	return rec.ID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertActivity increments the counter matching the record type and
// refreshes the last-activity timestamp, creating the row if absent.  The
// increment is atomic, so independent sessions can upsert concurrently.
func (r *Repository) UpsertActivity(ctx context.Context, userID string, t pkg.RecordType) error {
	return upsertActivity(ctx, r.DB, userID, t)
}

func upsertActivity(ctx context.Context, db execer, userID string, t pkg.RecordType) error {
	diagDelta, questionDelta := 0, 0
	if t == pkg.RecordDiagnosis {
		diagDelta = 1
	} else {
		questionDelta = 1
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, diagnosis_count, question_count, last_activity)
         VALUES ($1, $2, $3, NOW())
         ON CONFLICT (user_id) DO UPDATE
         SET diagnosis_count = user_activity.diagnosis_count + EXCLUDED.diagnosis_count,
             question_count  = user_activity.question_count + EXCLUDED.question_count,
             last_activity   = NOW()`,
		userID, diagDelta, questionDelta,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert activity: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Recent returns up to limit history records for a user, most recent first.
// No records is not an error.
func (r *Repository) Recent(ctx context.Context, userID string, limit int) ([]pkg.HistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, type, payload, mode, created_at
         FROM history
         WHERE user_id = $1
         ORDER BY created_at DESC
         LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []pkg.HistoryRecord
	for rows.Next() {
		var rec pkg.HistoryRecord
		var body []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &body, &rec.Mode, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("unmarshal payload for record %d: %w", rec.ID, err)
		}
		rec.Responses = p.Responses
		rec.Diagnosis = p.Diagnosis
		rec.Question = p.Question
		rec.AnswerText = p.Answer
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetActivity returns the usage counters for a user, or nil when the user
// has no recorded activity.
func (r *Repository) GetActivity(ctx context.Context, userID string) (*pkg.UserActivity, error) {
	var a pkg.UserActivity
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, diagnosis_count, question_count, last_activity
         FROM user_activity
         WHERE user_id = $1`, userID,
	).Scan(&a.UserID, &a.DiagnosisCount, &a.QuestionCount, &a.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query activity: %v", ErrStorageUnavailable, err)
	}
	return &a, nil
}

// CreateUser inserts an account.  Duplicate usernames surface as an error
// for the sign-up form to display.
func (r *Repository) CreateUser(ctx context.Context, u *pkg.User) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)`,
		u.Username, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by username, or nil when it does not exist.
func (r *Repository) GetUser(ctx context.Context, username string) (*pkg.User, error) {
	var u pkg.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at
         FROM users
         WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query user: %v", ErrStorageUnavailable, err)
	}
	return &u, nil
}
