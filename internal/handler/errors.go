package handler

import (
	"errors"
	"log"
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
)

// writeDomainError maps domain sentinel errors onto the response envelope.
// Anything unmapped is an internal fault; the raw error is logged, never
// sent to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUserExists):
		httputil.WriteConflict(w, "User with email or username already exists")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "Uploaded file exceeds the 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	case errors.Is(err, model.ErrUploadFailed):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenInvalid),
		errors.Is(err, model.ErrTokenMalformed), errors.Is(err, model.ErrMissingToken):
		httputil.WriteUnauthorized(w, "Invalid or expired token")
	default:
		log.Printf("[ERROR] %v", err)
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
