package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/cache"
	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// UserService orchestrates the account workflows: registration with
// compensating media deletion, login, password change, profile updates,
// channel aggregation and watch history.
type UserService struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	videos   repository.VideoRepository
	media    MediaUploader
	profiles *cache.ProfileCache // nil disables caching
	validate *validator.Validate
}

func NewUserService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	videos repository.VideoRepository,
	media MediaUploader,
	profiles *cache.ProfileCache,
) *UserService {
	return &UserService{
		users:    users,
		subs:     subs,
		videos:   videos,
		media:    media,
		profiles: profiles,
		validate: validator.New(),
	}
}

// Register creates a new account. Order matters: text validation, then
// uniqueness, then uploads, then the record commit. Nothing is uploaded
// before uniqueness passes, and a failed commit deletes every object that
// was uploaded for this attempt so no orphaned media survives.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest, avatar Upload, cover *Upload) (*model.User, error) {
	normalizeRegisterRequest(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.ErrUserExists
	}

	avatarUpload, err := s.media.UploadAvatar(ctx, avatar.File, avatar.Header)
	if err != nil {
		return nil, wrapUploadErr(err, "avatar")
	}

	var coverUpload *model.UploadResult
	if cover != nil {
		coverUpload, err = s.media.UploadCoverImage(ctx, cover.File, cover.Header)
		if err != nil {
			s.rollbackUploads(ctx, avatarUpload, nil)
			return nil, wrapUploadErr(err, "cover image")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.rollbackUploads(ctx, avatarUpload, coverUpload)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		PasswordHashed: string(hashedPassword),
		AvatarURL:      avatarUpload.URL,
		AvatarKey:      avatarUpload.Key,
	}
	if coverUpload != nil {
		user.CoverImageURL = &coverUpload.URL
		user.CoverImageKey = &coverUpload.Key
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.rollbackUploads(ctx, avatarUpload, coverUpload)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created user: %w", err)
	}

	return created, nil
}

// rollbackUploads deletes the remote objects from a failed registration.
// Best-effort: a failed delete is logged and never escalated, the
// registration error is reported regardless.
func (s *UserService) rollbackUploads(ctx context.Context, uploads ...*model.UploadResult) {
	for _, upload := range uploads {
		if upload == nil {
			continue
		}
		if err := s.media.DeleteObject(ctx, upload.Key); err != nil {
			log.Printf("[UserService] rollback delete FAILED: key=%s err=%v", upload.Key, err)
		}
	}
}

func wrapUploadErr(err error, what string) error {
	switch err {
	case model.ErrFileTooLarge, model.ErrInvalidImageType:
		return err
	default:
		return fmt.Errorf("%w: %s", model.ErrUploadFailed, what)
	}
}

// Login authenticates by username or email. The lookup matches either
// identifier; whichever record it returns is checked against the password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: password is required", model.ErrValidation)
	}
	if req.Username == "" && req.Email == "" {
		return nil, fmt.Errorf("%w: username or email is required", model.ErrValidation)
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// ChangePassword verifies the old password before re-hashing the new one.
// The write touches only the password hash.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: old and new password are required", model.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.OldPassword)); err != nil {
		return model.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

// UpdateAccount updates the profile text fields and returns the fresh record.
func (s *UserService) UpdateAccount(ctx context.Context, userID int64, req *model.UpdateAccountRequest) (*model.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: full name and email are required", model.ErrValidation)
	}

	if err := s.users.UpdateAccountDetails(ctx, userID, req.FullName, req.Email); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, userID)
}

// UpdateAvatar uploads the replacement first; only a successful upload
// mutates the record. The old remote object is left in place.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, up Upload) (*model.User, error) {
	upload, err := s.media.UploadAvatar(ctx, up.File, up.Header)
	if err != nil {
		return nil, wrapUploadErr(err, "avatar")
	}

	if err := s.users.UpdateAvatar(ctx, userID, upload.URL, upload.Key); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, userID)
}

// UpdateCoverImage mirrors UpdateAvatar for the cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID int64, up Upload) (*model.User, error) {
	upload, err := s.media.UploadCoverImage(ctx, up.File, up.Header)
	if err != nil {
		return nil, wrapUploadErr(err, "cover image")
	}

	if err := s.users.UpdateCoverImage(ctx, userID, upload.URL, upload.Key); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, userID)
}

// GetChannelProfile aggregates the channel view of a username: subscriber
// count, subscribed-to count and whether the viewer subscribes. Results are
// cached briefly per username+viewer when Redis is configured.
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID *int64) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", model.ErrValidation)
	}

	if s.profiles != nil {
		if profile, ok := s.profiles.Get(ctx, username, viewerID); ok {
			return profile, nil
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	subscribers, err := s.subs.CountSubscribers(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	subscribedTo, err := s.subs.CountSubscribedTo(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &model.ChannelProfile{
		ID:                        user.ID,
		Username:                  user.Username,
		FullName:                  user.FullName,
		Email:                     user.Email,
		AvatarURL:                 user.AvatarURL,
		CoverImageURL:             user.CoverImageURL,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
	}

	if viewerID != nil {
		isSubscribed, err := s.subs.IsSubscribed(ctx, *viewerID, user.ID)
		if err == nil {
			profile.IsSubscribed = isSubscribed
		}
	}

	if s.profiles != nil {
		s.profiles.Set(ctx, username, viewerID, profile)
	}

	return profile, nil
}

// GetWatchHistory returns the user's watched videos with owner projections.
func (s *UserService) GetWatchHistory(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error) {
	return s.videos.GetWatchHistory(ctx, userID)
}

func normalizeRegisterRequest(req *model.RegisterRequest) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.Password = strings.TrimSpace(req.Password)
}
