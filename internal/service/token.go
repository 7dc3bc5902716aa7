package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vidtube/internal/config"
	"vidtube/internal/model"
)

// TokenService signs and verifies the two JWT kinds. It holds the secrets and
// TTLs from configuration and has no side effects of its own.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     time.Duration(cfg.AccessTokenMaxAge) * time.Second,
		refreshTTL:    time.Duration(cfg.RefreshTokenMaxAge) * time.Second,
	}
}

// AccessTokenMaxAge returns the access token lifetime in whole seconds.
func (s *TokenService) AccessTokenMaxAge() int {
	return int(s.accessTTL.Seconds())
}

// RefreshTokenMaxAge returns the refresh token lifetime in whole seconds.
func (s *TokenService) RefreshTokenMaxAge() int {
	return int(s.refreshTTL.Seconds())
}

// GenerateAccessToken signs a short-lived access token for the user.
func (s *TokenService) GenerateAccessToken(userID int64) (string, error) {
	return sign(userID, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken signs a long-lived refresh token for the user.
func (s *TokenService) GenerateRefreshToken(userID int64) (string, error) {
	return sign(userID, s.refreshSecret, s.refreshTTL)
}

// VerifyAccessToken validates signature and expiry and returns the user ID.
func (s *TokenService) VerifyAccessToken(raw string) (int64, error) {
	return verify(raw, s.accessSecret)
}

// VerifyRefreshToken validates signature and expiry and returns the user ID.
func (s *TokenService) VerifyRefreshToken(raw string) (int64, error) {
	return verify(raw, s.refreshSecret)
}

func sign(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func verify(raw string, secret []byte) (int64, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, model.ErrTokenExpired
		default:
			return 0, model.ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, model.ErrTokenInvalid
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, model.ErrTokenInvalid
	}

	return int64(userIDFloat), nil
}
