package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
)

const userColumns = `id, username, email, full_name, password_hashed, avatar_url, avatar_key,
       cover_image_url, cover_image_key, refresh_token, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, full_name, password_hashed, avatar_url, avatar_key,
		                   cover_image_url, cover_image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.FullName,
		u.PasswordHashed,
		u.AvatarURL,
		u.AvatarKey,
		u.CoverImageURL,
		u.CoverImageKey,
	)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

// GetByUsernameOrEmail retrieves a user matching either identifier.
// When both identify different records, whichever the database returns
// first wins; the caller checks the password against that record.
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $2 LIMIT 1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return &u, nil
}

// ExistsByUsernameOrEmail checks if a username or email is already taken
func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username, email)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// UpdateAccountDetails updates the mutable profile text fields
func (r *userRepository) UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error {
	query := `UPDATE users SET full_name = $2, email = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, fullName, email)
	if err != nil {
		return fmt.Errorf("failed to update account details: %w", err)
	}
	return ensureRowUpdated(result)
}

// UpdateRefreshToken overwrites the user's single refresh token slot
func (r *userRepository) UpdateRefreshToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return ensureRowUpdated(result)
}

// ClearRefreshToken unsets the refresh token slot on logout
func (r *userRepository) ClearRefreshToken(ctx context.Context, id int64) error {
	query := `UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return ensureRowUpdated(result)
}

// UpdatePassword stores a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	query := `UPDATE users SET password_hashed = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, passwordHashed)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return ensureRowUpdated(result)
}

// UpdateAvatar sets a new avatar reference. The previous remote object is
// intentionally left in place.
func (r *userRepository) UpdateAvatar(ctx context.Context, id int64, url, key string) error {
	query := `UPDATE users SET avatar_url = $2, avatar_key = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, url, key)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return ensureRowUpdated(result)
}

// UpdateCoverImage sets a new cover image reference
func (r *userRepository) UpdateCoverImage(ctx context.Context, id int64, url, key string) error {
	query := `UPDATE users SET cover_image_url = $2, cover_image_key = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, url, key)
	if err != nil {
		return fmt.Errorf("failed to update cover image: %w", err)
	}
	return ensureRowUpdated(result)
}

func ensureRowUpdated(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
