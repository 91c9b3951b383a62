// Package auth is the credential collaborator: bcrypt-hashed passwords over
// the users table.  It deliberately stays this small; there is no session
// token model beyond the HTTP layer's cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"feverscan/pkg"
)

// UserStore is the slice of the repository auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *pkg.User) error
	GetUser(ctx context.Context, username string) (*pkg.User, error)
}

var (
	// ErrFieldsRequired rejects blank usernames or passwords.
	ErrFieldsRequired = errors.New("auth: all fields are required")
	// ErrPasswordMismatch rejects a sign-up whose confirmation differs.
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	// ErrUsernameTaken rejects a duplicate sign-up.
	ErrUsernameTaken = errors.New("auth: username already taken")
)

// Service registers and authenticates accounts.
type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Register creates an account after validating the form fields.
func (s *Service) Register(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if existing, err := s.store.GetUser(ctx, username); err != nil {
		return err
	} else if existing != nil {
		return ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateUser(ctx, &pkg.User{Username: username, PasswordHash: string(hash)})
}

// Authenticate reports whether the credentials match an account.  Lookup
// failures are returned separately so the caller can distinguish "wrong
// password" from "store down".
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil, nil
}
