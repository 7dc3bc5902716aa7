package repository

import (
	"context"

	"vidtube/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error

	// Narrow single-field writes. These bypass full-record validation on
	// purpose: only the named field changes, nothing else is touched.
	UpdateRefreshToken(ctx context.Context, id int64, token string) error
	ClearRefreshToken(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHashed string) error
	UpdateAvatar(ctx context.Context, id int64, url, key string) error
	UpdateCoverImage(ctx context.Context, id int64, url, key string) error
}

type SubscriptionRepository interface {
	// CountSubscribers counts subscriptions where the user is the channel
	CountSubscribers(ctx context.Context, channelID int64) (int, error)
	// CountSubscribedTo counts subscriptions where the user is the subscriber
	CountSubscribedTo(ctx context.Context, subscriberID int64) (int, error)
	// IsSubscribed checks whether subscriberID subscribes to channelID
	IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error)
}

type VideoRepository interface {
	// GetWatchHistory returns the user's watched videos, newest first,
	// each enriched with a minimal owner projection
	GetWatchHistory(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error)
}
