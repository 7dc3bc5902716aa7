package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/model"
)

// Mocks implement the repository and gateway interfaces with fn fields so
// each test defines exactly the behavior it needs, and with call tracking
// so tests can assert what was (and was not) invoked.

type mockUserRepository struct {
	createFn            func(ctx context.Context, user *model.User) error
	getByIDFn           func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn     func(ctx context.Context, username string) (*model.User, error)
	getByIdentifiersFn  func(ctx context.Context, username, email string) (*model.User, error)
	existsFn            func(ctx context.Context, username, email string) (bool, error)
	updateRefreshFn     func(ctx context.Context, id int64, token string) error
	clearRefreshFn      func(ctx context.Context, id int64) error
	updatePasswordFn    func(ctx context.Context, id int64, passwordHashed string) error
	updateAccountFn     func(ctx context.Context, id int64, fullName, email string) error
	updateAvatarFn      func(ctx context.Context, id int64, url, key string) error
	updateCoverFn       func(ctx context.Context, id int64, url, key string) error
	createCalls         []*model.User
	updateRefreshCalls  []string
	clearRefreshCalls   []int64
	updatePasswordCalls []string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	if m.getByIdentifiersFn != nil {
		return m.getByIdentifiersFn(ctx, username, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, username, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(ctx, id, fullName, email)
	}
	return nil
}

func (m *mockUserRepository) UpdateRefreshToken(ctx context.Context, id int64, token string) error {
	m.updateRefreshCalls = append(m.updateRefreshCalls, token)
	if m.updateRefreshFn != nil {
		return m.updateRefreshFn(ctx, id, token)
	}
	return nil
}

func (m *mockUserRepository) ClearRefreshToken(ctx context.Context, id int64) error {
	m.clearRefreshCalls = append(m.clearRefreshCalls, id)
	if m.clearRefreshFn != nil {
		return m.clearRefreshFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	m.updatePasswordCalls = append(m.updatePasswordCalls, passwordHashed)
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, id int64, url, key string) error {
	if m.updateAvatarFn != nil {
		return m.updateAvatarFn(ctx, id, url, key)
	}
	return nil
}

func (m *mockUserRepository) UpdateCoverImage(ctx context.Context, id int64, url, key string) error {
	if m.updateCoverFn != nil {
		return m.updateCoverFn(ctx, id, url, key)
	}
	return nil
}

type mockSubscriptionRepository struct {
	countSubscribersFn  func(ctx context.Context, channelID int64) (int, error)
	countSubscribedToFn func(ctx context.Context, subscriberID int64) (int, error)
	isSubscribedFn      func(ctx context.Context, subscriberID, channelID int64) (bool, error)
}

func (m *mockSubscriptionRepository) CountSubscribers(ctx context.Context, channelID int64) (int, error) {
	if m.countSubscribersFn != nil {
		return m.countSubscribersFn(ctx, channelID)
	}
	return 0, nil
}

func (m *mockSubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID int64) (int, error) {
	if m.countSubscribedToFn != nil {
		return m.countSubscribedToFn(ctx, subscriberID)
	}
	return 0, nil
}

func (m *mockSubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	if m.isSubscribedFn != nil {
		return m.isSubscribedFn(ctx, subscriberID, channelID)
	}
	return false, nil
}

type mockVideoRepository struct {
	getWatchHistoryFn func(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error)
}

func (m *mockVideoRepository) GetWatchHistory(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error) {
	if m.getWatchHistoryFn != nil {
		return m.getWatchHistoryFn(ctx, userID)
	}
	return nil, nil
}

type mockMediaUploader struct {
	uploadAvatarFn func(ctx context.Context) (*model.UploadResult, error)
	uploadCoverFn  func(ctx context.Context) (*model.UploadResult, error)
	avatarCalls    int
	coverCalls     int
	deleteCalls    []string
}

func (m *mockMediaUploader) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	m.avatarCalls++
	if m.uploadAvatarFn != nil {
		return m.uploadAvatarFn(ctx)
	}
	return &model.UploadResult{URL: "https://cdn.example.com/avatars/a.jpg", Key: "avatars/a.jpg"}, nil
}

func (m *mockMediaUploader) UploadCoverImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	m.coverCalls++
	if m.uploadCoverFn != nil {
		return m.uploadCoverFn(ctx)
	}
	return &model.UploadResult{URL: "https://cdn.example.com/covers/c.jpg", Key: "covers/c.jpg"}, nil
}

func (m *mockMediaUploader) DeleteObject(ctx context.Context, key string) error {
	m.deleteCalls = append(m.deleteCalls, key)
	return nil
}

func newTestUserService(users *mockUserRepository, subs *mockSubscriptionRepository, videos *mockVideoRepository, media *mockMediaUploader) *UserService {
	if users == nil {
		users = &mockUserRepository{}
	}
	if subs == nil {
		subs = &mockSubscriptionRepository{}
	}
	if videos == nil {
		videos = &mockVideoRepository{}
	}
	if media == nil {
		media = &mockMediaUploader{}
	}
	return NewUserService(users, subs, videos, media, nil)
}

func validRegisterRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		FullName: "Test User",
		Email:    "test@example.com",
		Username: "testuser",
		Password: "securepassword123",
	}
}

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	mockRepo.getByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		if len(mockRepo.createCalls) == 0 {
			return nil, model.ErrUserNotFound
		}
		return mockRepo.createCalls[0], nil
	}
	mockMedia := &mockMediaUploader{}
	svc := newTestUserService(mockRepo, nil, nil, mockMedia)

	req := validRegisterRequest()
	user, err := svc.Register(context.Background(), req, Upload{}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Username != "testuser" {
		t.Errorf("username = %q, want %q", user.Username, "testuser")
	}
	if user.AvatarURL == "" || user.AvatarKey == "" {
		t.Error("expected avatar reference on created user")
	}
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte("securepassword123")); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	// Responses never carry credentials
	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	for _, hidden := range []string{"password", "refresh_token", "securepassword123"} {
		if strings.Contains(string(data), hidden) {
			t.Errorf("serialized user leaks %q: %s", hidden, data)
		}
	}

	if mockMedia.avatarCalls != 1 {
		t.Errorf("UploadAvatar called %d times, want 1", mockMedia.avatarCalls)
	}
	if len(mockMedia.deleteCalls) != 0 {
		t.Errorf("DeleteObject called %d times, want 0", len(mockMedia.deleteCalls))
	}
}

func TestUserService_Register_NormalizesIdentity(t *testing.T) {
	mockRepo := &mockUserRepository{}
	mockRepo.getByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		return mockRepo.createCalls[0], nil
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	req := &model.RegisterRequest{
		FullName: "  Test User  ",
		Email:    " Test@Example.COM ",
		Username: "  TestUser ",
		Password: "securepassword123",
	}
	user, err := svc.Register(context.Background(), req, Upload{}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Username != "testuser" {
		t.Errorf("username = %q, want lowercased trimmed %q", user.Username, "testuser")
	}
	if user.Email != "test@example.com" {
		t.Errorf("email = %q, want lowercased trimmed %q", user.Email, "test@example.com")
	}
	if user.FullName != "Test User" {
		t.Errorf("full name = %q, want trimmed %q", user.FullName, "Test User")
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	mockMedia := &mockMediaUploader{}
	svc := newTestUserService(nil, nil, nil, mockMedia)

	req := validRegisterRequest()
	req.FullName = "   "

	_, err := svc.Register(context.Background(), req, Upload{}, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("error = %v, want %v", err, model.ErrValidation)
	}
	if mockMedia.avatarCalls != 0 {
		t.Error("nothing should be uploaded when validation fails")
	}
}

func TestUserService_Register_Conflict(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsFn: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	}
	mockMedia := &mockMediaUploader{}
	svc := newTestUserService(mockRepo, nil, nil, mockMedia)

	_, err := svc.Register(context.Background(), validRegisterRequest(), Upload{}, nil)
	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("error = %v, want %v", err, model.ErrUserExists)
	}

	// Uniqueness is checked before any storage call
	if mockMedia.avatarCalls != 0 || mockMedia.coverCalls != 0 {
		t.Error("no uploads should happen for a conflicting registration")
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("no record should be created for a conflicting registration")
	}
}

func TestUserService_Register_AvatarUploadFails(t *testing.T) {
	mockRepo := &mockUserRepository{}
	mockMedia := &mockMediaUploader{
		uploadAvatarFn: func(ctx context.Context) (*model.UploadResult, error) {
			return nil, fmt.Errorf("r2 unreachable")
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, mockMedia)

	cover := &Upload{}
	_, err := svc.Register(context.Background(), validRegisterRequest(), Upload{}, cover)
	if !errors.Is(err, model.ErrUploadFailed) {
		t.Errorf("error = %v, want %v", err, model.ErrUploadFailed)
	}

	if mockMedia.coverCalls != 0 {
		t.Error("cover upload should not be attempted after avatar upload fails")
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("no record should be created after a failed avatar upload")
	}
	if len(mockMedia.deleteCalls) != 0 {
		t.Error("nothing was committed, nothing should be deleted")
	}
}

func TestUserService_Register_CoverUploadFails(t *testing.T) {
	mockRepo := &mockUserRepository{}
	mockMedia := &mockMediaUploader{
		uploadCoverFn: func(ctx context.Context) (*model.UploadResult, error) {
			return nil, fmt.Errorf("r2 unreachable")
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, mockMedia)

	_, err := svc.Register(context.Background(), validRegisterRequest(), Upload{}, &Upload{})
	if !errors.Is(err, model.ErrUploadFailed) {
		t.Errorf("error = %v, want %v", err, model.ErrUploadFailed)
	}

	// The already-uploaded avatar must not be orphaned
	if len(mockMedia.deleteCalls) != 1 {
		t.Fatalf("DeleteObject called %d times, want 1", len(mockMedia.deleteCalls))
	}
	if mockMedia.deleteCalls[0] != "avatars/a.jpg" {
		t.Errorf("deleted key = %q, want the uploaded avatar key", mockMedia.deleteCalls[0])
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("no record should be created after a failed cover upload")
	}
}

func TestUserService_Register_CommitFailureDeletesBothUploads(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return fmt.Errorf("insert failed: connection reset")
		},
	}
	mockMedia := &mockMediaUploader{}
	svc := newTestUserService(mockRepo, nil, nil, mockMedia)

	_, err := svc.Register(context.Background(), validRegisterRequest(), Upload{}, &Upload{})
	if err == nil {
		t.Fatal("expected registration to fail when the record commit fails")
	}

	if len(mockMedia.deleteCalls) != 2 {
		t.Fatalf("DeleteObject called %d times, want 2 (avatar and cover)", len(mockMedia.deleteCalls))
	}
	deleted := map[string]bool{}
	for _, key := range mockMedia.deleteCalls {
		deleted[key] = true
	}
	if !deleted["avatars/a.jpg"] || !deleted["covers/c.jpg"] {
		t.Errorf("deleted keys = %v, want both uploaded objects", mockMedia.deleteCalls)
	}
}

func TestUserService_Login_ByEmail(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	stored := &model.User{ID: 42, Username: "testuser", Email: "test@example.com", PasswordHashed: string(hashed)}

	mockRepo := &mockUserRepository{
		getByIdentifiersFn: func(ctx context.Context, username, email string) (*model.User, error) {
			if email == "test@example.com" {
				return stored, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	user, err := svc.Login(context.Background(), &model.LoginRequest{Email: "Test@Example.com", Password: "correct-password"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("user id = %d, want 42", user.ID)
	}
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByIdentifiersFn: func(ctx context.Context, username, email string) (*model.User, error) {
			return &model.User{ID: 42, PasswordHashed: string(hashed)}, nil
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "testuser", Password: "wrong"})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
	}
}

func TestUserService_Login_UnknownIdentity(t *testing.T) {
	svc := newTestUserService(&mockUserRepository{}, nil, nil, nil)

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "ghost", Password: "whatever"})
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestUserService_ChangePassword_WrongOldPassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 42, PasswordHashed: string(hashed)}, nil
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	err := svc.ChangePassword(context.Background(), 42, &model.ChangePasswordRequest{
		OldPassword: "not-the-old-password",
		NewPassword: "new-password",
	})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
	}
	if len(mockRepo.updatePasswordCalls) != 0 {
		t.Error("stored hash must stay unchanged when the old password is wrong")
	}
}

func TestUserService_ChangePassword_Success(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 42, PasswordHashed: string(hashed)}, nil
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	err := svc.ChangePassword(context.Background(), 42, &model.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "new-password",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(mockRepo.updatePasswordCalls) != 1 {
		t.Fatalf("UpdatePassword called %d times, want 1", len(mockRepo.updatePasswordCalls))
	}
	// Subsequent login only works with the new password
	newHash := mockRepo.updatePasswordCalls[0]
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new-password")); err != nil {
		t.Error("stored hash should match the new password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("old-password")); err == nil {
		t.Error("stored hash should no longer match the old password")
	}
}

func TestUserService_GetChannelProfile_Aggregation(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			if username != "channelowner" {
				return nil, model.ErrUserNotFound
			}
			return &model.User{ID: 7, Username: "channelowner", FullName: "Channel Owner", Email: "owner@example.com"}, nil
		},
	}
	mockSubs := &mockSubscriptionRepository{
		countSubscribersFn: func(ctx context.Context, channelID int64) (int, error) {
			return 3, nil
		},
		countSubscribedToFn: func(ctx context.Context, subscriberID int64) (int, error) {
			return 1, nil
		},
		isSubscribedFn: func(ctx context.Context, subscriberID, channelID int64) (bool, error) {
			return subscriberID == 99 && channelID == 7, nil
		},
	}
	svc := newTestUserService(mockRepo, mockSubs, nil, nil)

	viewer := int64(99)
	profile, err := svc.GetChannelProfile(context.Background(), "channelowner", &viewer)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if profile.SubscribersCount != 3 {
		t.Errorf("subscribers count = %d, want 3", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedToCount != 1 {
		t.Errorf("subscribed-to count = %d, want 1", profile.ChannelsSubscribedToCount)
	}
	if !profile.IsSubscribed {
		t.Error("viewer 99 subscribes to the channel, is_subscribed should be true")
	}

	stranger := int64(100)
	profile, err = svc.GetChannelProfile(context.Background(), "channelowner", &stranger)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if profile.IsSubscribed {
		t.Error("viewer 100 does not subscribe, is_subscribed should be false")
	}
}

func TestUserService_GetChannelProfile_UnknownUsername(t *testing.T) {
	svc := newTestUserService(&mockUserRepository{}, nil, nil, nil)

	viewer := int64(1)
	_, err := svc.GetChannelProfile(context.Background(), "ghostchannel", &viewer)
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestUserService_GetWatchHistory(t *testing.T) {
	mockVideos := &mockVideoRepository{
		getWatchHistoryFn: func(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error) {
			return []model.WatchHistoryEntry{
				{ID: 1, Title: "first", Owner: model.VideoOwner{Username: "uploader", FullName: "Up Loader", AvatarURL: "https://cdn.example.com/avatars/u.jpg"}},
			}, nil
		},
	}
	svc := newTestUserService(nil, nil, mockVideos, nil)

	history, err := svc.GetWatchHistory(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Owner.Username != "uploader" {
		t.Errorf("owner projection username = %q, want %q", history[0].Owner.Username, "uploader")
	}
}
