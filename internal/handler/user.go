package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UpdateAccount updates full name and email.
// PATCH /account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateAccount(r.Context(), user.ID, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, updated, "account details updated successfully")
}

// UpdateAvatar replaces the avatar. The upload happens before the record is
// touched, so a failed upload leaves the profile unchanged.
// PATCH /avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.userService.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage replaces the cover image.
// PATCH /cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "cover_image", h.userService.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID int64, up service.Upload) (*model.User, error),
	message string,
) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // one file plus form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequest(w, "Uploaded file exceeds the 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.WriteBadRequest(w, "File is required")
		return
	}
	defer file.Close()

	updated, err := update(r.Context(), user.ID, service.Upload{File: file, Header: header})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, updated, message)
}

// ChannelProfile returns the aggregated channel view of a username.
// GET /c/{username}
func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	username := chi.URLParam(r, "username")
	viewerID := user.ID

	profile, err := h.userService.GetChannelProfile(r.Context(), username, &viewerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory returns the authenticated user's watch history.
// GET /history
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	history, err := h.userService.GetWatchHistory(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, history, "watch history fetched successfully")
}
