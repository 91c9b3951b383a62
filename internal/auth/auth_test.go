package auth

import (
	"context"
	"errors"
	"testing"

	"feverscan/pkg"
)

type memUsers struct {
	users map[string]*pkg.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*pkg.User{}} }

func (m *memUsers) CreateUser(ctx context.Context, u *pkg.User) error {
	m.users[u.Username] = u
	return nil
}

func (m *memUsers) GetUser(ctx context.Context, username string) (*pkg.User, error) {
	return m.users[username], nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := NewService(newMemUsers())
	ctx := context.Background()

	if err := s.Register(ctx, "user1", "rahasia", "rahasia"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	ok, err := s.Authenticate(ctx, "user1", "rahasia")
	if err != nil || !ok {
		t.Fatalf("expected successful sign-in, got ok=%v err=%v", ok, err)
	}
	ok, err = s.Authenticate(ctx, "user1", "salah")
	if err != nil || ok {
		t.Fatalf("wrong password must not authenticate, got ok=%v err=%v", ok, err)
	}
	ok, _ = s.Authenticate(ctx, "nobody", "rahasia")
	if ok {
		t.Fatal("unknown user must not authenticate")
	}
}

func TestRegisterValidation(t *testing.T) {
	s := NewService(newMemUsers())
	ctx := context.Background()

	if err := s.Register(ctx, "", "a", "a"); !errors.Is(err, ErrFieldsRequired) {
		t.Fatalf("expected ErrFieldsRequired, got %v", err)
	}
	if err := s.Register(ctx, "u", "a", "b"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := s.Register(ctx, "u", "a", "a"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Register(ctx, "u", "a", "a"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}
