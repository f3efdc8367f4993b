package auth

import (
	"context"
	"testing"
	"time"

	"github.com/vault-pay/vault_pay/internal/account"
	"github.com/vault-pay/vault_pay/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "test-secret",
		RefreshSecret:   "test-refresh",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	repo := account.NewMemoryRepository()
	accounts := account.NewService(repo)
	svc := NewService(testConfig(), repo)

	ctx := context.Background()
	user, err := accounts.Register(ctx, account.Credentials{Email: "eve@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	verified, err := svc.Verify(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, verified.ID)
	}

	access, expiresIn, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || expiresIn <= 0 {
		t.Fatalf("unexpected refresh result: %q %d", access, expiresIn)
	}

	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Verify(ctx, pair.AccessToken); err == nil {
		t.Fatal("expected access token to be invalidated after logout")
	}
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatal("expected refresh token to be invalidated after logout")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	repo := account.NewMemoryRepository()
	accounts := account.NewService(repo)
	svc := NewService(testConfig(), repo)

	ctx := context.Background()
	user, err := accounts.Register(ctx, account.Credentials{Email: "mallory@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, _, err := sign(user.ID, user.TokenVersion, []byte("other-secret"), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(ctx, token); err == nil {
		t.Fatal("expected verification failure for foreign signature")
	}
}
