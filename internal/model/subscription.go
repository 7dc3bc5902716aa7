package model

import "time"

// Subscription links a subscriber to a channel (a user viewed as a channel).
type Subscription struct {
	SubscriberID int64     `db:"subscriber_id" json:"subscriber_id"`
	ChannelID    int64     `db:"channel_id" json:"channel_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChannelProfile is the aggregated public view of a user as a channel.
type ChannelProfile struct {
	ID                        int64   `json:"id"`
	Username                  string  `json:"username"`
	FullName                  string  `json:"full_name"`
	Email                     string  `json:"email"`
	AvatarURL                 string  `json:"avatar_url"`
	CoverImageURL             *string `json:"cover_image_url"`
	SubscribersCount          int     `json:"subscribers_count"`
	ChannelsSubscribedToCount int     `json:"channels_subscribed_to_count"`
	IsSubscribed              bool    `json:"is_subscribed"`
}
