package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"
)

// bodyPeekLimit caps how much of a request body is buffered when looking
// for a token in the body
const bodyPeekLimit = 1 << 20

// TokenVerifier validates an access token and returns the claimed user ID.
type TokenVerifier interface {
	VerifyAccessToken(raw string) (int64, error)
}

// UserResolver loads the user behind a validated token.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Auth validates the access token on every protected request. The token is
// taken from, in order: the access_token cookie, an access_token field in
// a JSON body, or a Bearer authorization header. The claimed user must
// still exist; the resolved identity is attached to the request context.
func Auth(tokens TokenVerifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			userID, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				if err == model.ErrTokenExpired {
					httputil.WriteUnauthorized(w, "Access token has expired")
					return
				}
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	// 1. Access token cookie (web browsers)
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// 2. access_token field in a JSON body (cookie-incapable clients that
	// POST the token). The body is buffered and restored so the handler
	// can still read it.
	if token := peekBodyToken(r); token != "" {
		return token
	}

	// 3. Bearer authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}

func peekBodyToken(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, bodyPeekLimit))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.AccessToken
}

// GetUserFromContext extracts the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok
}
