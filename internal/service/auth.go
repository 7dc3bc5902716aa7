package service

import (
	"context"
	"fmt"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// AuthService owns the refresh token lifecycle: issuing the pair, persisting
// the refresh token in the user's single slot, rotating it on refresh and
// clearing it on logout.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
}

func NewAuthService(users repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

// GenerateTokenPair issues both tokens and overwrites the user's stored
// refresh token. The write is a narrow single-field update; concurrent calls
// for the same user resolve by last-write-wins.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64) (*model.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.tokens.AccessTokenMaxAge(),
	}, nil
}

// RefreshTokens validates the presented refresh token against its signature
// and against the user's stored slot, then rotates a new pair. A validly
// signed token that no longer matches the slot means it was rotated out or
// revoked by logout; it is rejected the same way as a bad signature.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw string) (*model.TokenPair, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshTokenRaw)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshTokenRaw {
		return nil, model.ErrTokenInvalid
	}

	return s.GenerateTokenPair(ctx, user.ID)
}

// Logout clears the user's refresh token slot. Always succeeds for an
// existing user, even when no token was stored.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}
