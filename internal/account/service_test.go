package account

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	user, err := svc.Register(ctx, Credentials{Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected user id")
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
	if authed.LastLogin.IsZero() {
		t.Fatal("expected last login to be recorded")
	}

	if _, err := svc.Authenticate(ctx, Credentials{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "", Password: "hunter22"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("empty email: expected invalid email, got %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "no-at-sign", Password: "hunter22"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("missing @: expected invalid email, got %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "bob@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Email: "bob@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "bob@example.com", Password: "hunter22"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestPINLifecycle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Email: "carol@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.VerifyPIN(ctx, user.ID, "1234"); !errors.Is(err, ErrPINNotSet) {
		t.Fatalf("expected PIN not set, got %v", err)
	}

	for _, pin := range []string{"123", "123456789", "12a4", ""} {
		if err := svc.SetPIN(ctx, user.ID, pin); !errors.Is(err, ErrInvalidPIN) {
			t.Fatalf("SetPIN(%q): expected invalid PIN, got %v", pin, err)
		}
	}

	if err := svc.SetPIN(ctx, user.ID, "4321"); err != nil {
		t.Fatalf("set PIN: %v", err)
	}
	if err := svc.VerifyPIN(ctx, user.ID, "4321"); err != nil {
		t.Fatalf("verify PIN: %v", err)
	}
	if err := svc.VerifyPIN(ctx, user.ID, "0000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong PIN: expected invalid credentials, got %v", err)
	}
}

func TestPaymentMethods(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Email: "dave@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.AddPaymentMethod(ctx, user.ID, "crypto", "BTC"); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected invalid method, got %v", err)
	}

	if _, err := svc.AddPaymentMethod(ctx, user.ID, MethodCard, "**** 4242"); err != nil {
		t.Fatalf("add card: %v", err)
	}
	if _, err := svc.AddPaymentMethod(ctx, user.ID, MethodPaypal, "dave@example.com"); err != nil {
		t.Fatalf("add paypal: %v", err)
	}

	methods, err := svc.ListPaymentMethods(ctx, user.ID)
	if err != nil {
		t.Fatalf("list methods: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(methods))
	}
	if methods[0].Kind != MethodCard {
		t.Fatalf("expected card first, got %s", methods[0].Kind)
	}

	if _, err := svc.ListPaymentMethods(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
