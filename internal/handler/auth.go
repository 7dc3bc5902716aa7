package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// Register handles multipart sign-up with a mandatory avatar and an
// optional cover image.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	maxFormSize := int64(2*model.MaxImageSizeBytes) + 1024*1024 // two files plus form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequest(w, "Uploaded files exceed the 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	// Remove multipart temp files regardless of outcome, a rejected attempt
	// must not leave local files behind
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := model.RegisterRequest{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is missing")
		return
	}
	defer avatarFile.Close()
	avatar := service.Upload{File: avatarFile, Header: avatarHeader}

	var cover *service.Upload
	coverFile, coverHeader, err := r.FormFile("cover_image")
	if err == nil {
		defer coverFile.Close()
		cover = &service.Upload{File: coverFile, Header: coverHeader}
	} else if err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid cover image upload")
		return
	}

	user, err := h.userService.Register(r.Context(), &req, avatar, cover)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, user, "user registered successfully")
}

// Login authenticates by username or email and issues the token pair.
// Tokens travel both in the body and as httpOnly cookies.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	h.setAuthCookies(w, tokenPair)

	response := model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}
	httputil.WriteSuccess(w, http.StatusOK, response, "user logged in successfully")
}

// Refresh rotates the token pair. The incoming refresh token comes from the
// refresh_token cookie or the request body.
// POST /refresh-token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie("refresh_token"); err == nil && cookie.Value != "" {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		httputil.WriteUnauthorized(w, "Refresh token is required")
		return
	}

	tokenPair, err := h.authService.RefreshTokens(r.Context(), refreshToken)
	if err != nil {
		httputil.WriteUnauthorized(w, "Invalid refresh token")
		return
	}

	h.setAuthCookies(w, tokenPair)
	httputil.WriteSuccess(w, http.StatusOK, tokenPair, "access token refreshed successfully")
}

// Logout clears the stored refresh token and both cookies.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		httputil.WriteInternalError(w, "Failed to logout")
		return
	}

	h.clearAuthCookies(w)
	httputil.WriteSuccess(w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// ChangePassword verifies the old password before setting the new one.
// PATCH /update-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), user.ID, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, struct{}{}, "password changed successfully")
}

// Me returns the currently authenticated user.
// GET /current-user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user, "current user details")
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   h.config.AccessTokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   h.config.RefreshTokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}
