package model

import (
	"errors"
	"time"
)

// User represents a user account in the system
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	AvatarURL      string    `db:"avatar_url" json:"avatar_url"`
	AvatarKey      string    `db:"avatar_key" json:"-"`
	CoverImageURL  *string   `db:"cover_image_url" json:"cover_image_url"`
	CoverImageKey  *string   `db:"cover_image_key" json:"-"`
	RefreshToken   *string   `db:"refresh_token" json:"-"` // single valid refresh token per user
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterRequest represents the text fields needed to register a new user.
// The avatar file is mandatory and handled separately as multipart data.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the data needed to log in.
// Either username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body for PATCH /update-password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UpdateAccountRequest is the body for PATCH /account
type UpdateAccountRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

var (
	// ErrValidation is returned when required fields are missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the username or email is already taken
	ErrUserExists = errors.New("user with email or username already exists")

	// ErrInvalidCredentials is returned when a password check fails
	ErrInvalidCredentials = errors.New("invalid credentials")
)
