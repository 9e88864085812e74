package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Email: "Ada@Example.com", Password: "correct-horse", DisplayName: "Ada"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Email: "a@b.com", Password: "wrong"}); err == nil {
		t.Fatal("expected authentication failure")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "not-an-email", Password: "correct-horse"}); err == nil {
		t.Fatal("expected email validation failure")
	}
	if _, err := svc.Register(ctx, Credentials{Email: "a@b.com", Password: "short"}); err == nil {
		t.Fatal("expected password validation failure")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "a@b.com", Password: "other-password"}); err == nil {
		t.Fatal("expected duplicate email rejection")
	}
}
