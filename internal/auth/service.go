package auth

import (
	"context"
	"errors"
	"time"

	"github.com/vault-pay/vault_pay/internal/account"
	"github.com/vault-pay/vault_pay/internal/config"
)

// Service issues and refreshes token pairs bound to an account's token version.
type Service struct {
	cfg  config.Config
	repo account.Repository
}

// NewService builds an auth service.
func NewService(cfg config.Config, repo account.Repository) *Service {
	return &Service{cfg: cfg, repo: repo}
}

// TokenPair bundles the tokens returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues an access/refresh pair for an already-authenticated user.
func (s *Service) Login(user account.User) (TokenPair, error) {
	access, accessExp, err := sign(user.ID, user.TokenVersion, []byte(s.cfg.JWTSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := sign(user.ID, user.TokenVersion, []byte(s.cfg.RefreshSecret), s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

// Refresh verifies the refresh token and returns a new access token if the
// token version still matches.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := Parse(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, errors.New("invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", 0, errors.New("user not found")
	}
	if user.TokenVersion != claims.Version {
		return "", 0, errors.New("token version invalidated")
	}

	access, _, err := sign(user.ID, user.TokenVersion, []byte(s.cfg.JWTSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return access, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1)
}

// Verify parses an access token and checks it against the stored token version.
func (s *Service) Verify(ctx context.Context, tokenStr string) (account.User, error) {
	claims, err := Parse(tokenStr, []byte(s.cfg.JWTSecret))
	if err != nil {
		return account.User{}, errors.New("invalid token")
	}
	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return account.User{}, errors.New("user not found")
	}
	if user.TokenVersion != claims.Version {
		return account.User{}, errors.New("token invalidated")
	}
	return user, nil
}
