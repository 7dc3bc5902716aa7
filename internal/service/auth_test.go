package service

import (
	"context"
	"errors"
	"testing"

	"vidtube/internal/model"
)

// slotRepo wires the refresh-token slot of a single user through the mock so
// issue/rotate/revoke tests observe the persisted state.
func slotRepo(user *model.User) *mockUserRepository {
	repo := &mockUserRepository{}
	repo.getByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		if id != user.ID {
			return nil, model.ErrUserNotFound
		}
		return user, nil
	}
	repo.updateRefreshFn = func(ctx context.Context, id int64, token string) error {
		user.RefreshToken = &token
		return nil
	}
	repo.clearRefreshFn = func(ctx context.Context, id int64) error {
		user.RefreshToken = nil
		return nil
	}
	return repo
}

func TestAuthService_GenerateTokenPair_PersistsRefreshToken(t *testing.T) {
	user := &model.User{ID: 42}
	repo := slotRepo(user)
	svc := NewAuthService(repo, newTestTokenService())

	pair, err := svc.GenerateTokenPair(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens should be issued")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}
	if user.RefreshToken == nil || *user.RefreshToken != pair.RefreshToken {
		t.Error("stored slot should hold exactly the issued refresh token")
	}
}

func TestAuthService_RefreshTokens_RotatesPair(t *testing.T) {
	user := &model.User{ID: 42}
	repo := slotRepo(user)
	svc := NewAuthService(repo, newTestTokenService())

	first, err := svc.GenerateTokenPair(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	second, err := svc.RefreshTokens(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if second.AccessToken == "" || second.RefreshToken == "" {
		t.Fatal("rotation should issue a full pair")
	}
	if user.RefreshToken == nil || *user.RefreshToken != second.RefreshToken {
		t.Error("stored slot should hold the rotated refresh token")
	}
	if len(repo.updateRefreshCalls) != 2 {
		t.Errorf("UpdateRefreshToken called %d times, want 2", len(repo.updateRefreshCalls))
	}
}

func TestAuthService_RefreshTokens_RejectsRotatedOutToken(t *testing.T) {
	user := &model.User{ID: 42}
	repo := slotRepo(user)
	svc := NewAuthService(repo, newTestTokenService())

	stale, err := svc.GenerateTokenPair(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// A later login overwrites the slot; the old token remains validly
	// signed but no longer matches.
	overwritten := "some-other-stored-token"
	user.RefreshToken = &overwritten

	_, err = svc.RefreshTokens(context.Background(), stale.RefreshToken)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("error = %v, want %v", err, model.ErrTokenInvalid)
	}
}

func TestAuthService_RefreshTokens_RejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, newTestTokenService())

	_, err := svc.RefreshTokens(context.Background(), "not-a-jwt")
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("error = %v, want %v", err, model.ErrTokenInvalid)
	}
}

func TestAuthService_RefreshTokens_RejectsDeletedUser(t *testing.T) {
	tokens := newTestTokenService()
	svc := NewAuthService(&mockUserRepository{}, tokens)

	raw, err := tokens.GenerateRefreshToken(42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	_, err = svc.RefreshTokens(context.Background(), raw)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("error = %v, want %v", err, model.ErrTokenInvalid)
	}
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	user := &model.User{ID: 42}
	repo := slotRepo(user)
	svc := NewAuthService(repo, newTestTokenService())

	pair, err := svc.GenerateTokenPair(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if err := svc.Logout(context.Background(), 42); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.RefreshToken != nil {
		t.Error("logout should clear the stored refresh token")
	}

	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("refresh after logout: error = %v, want %v", err, model.ErrTokenInvalid)
	}
}

func TestAuthService_Logout_IdempotentWithoutStoredToken(t *testing.T) {
	user := &model.User{ID: 42}
	repo := slotRepo(user)
	svc := NewAuthService(repo, newTestTokenService())

	if err := svc.Logout(context.Background(), 42); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.clearRefreshCalls) != 1 {
		t.Errorf("ClearRefreshToken called %d times, want 1", len(repo.clearRefreshCalls))
	}
}
