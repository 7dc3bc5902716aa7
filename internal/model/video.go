package model

import "time"

// VideoOwner is the minimal uploader projection attached to history entries.
type VideoOwner struct {
	FullName  string `json:"full_name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// WatchHistoryEntry is a watched video enriched with its owner projection.
type WatchHistoryEntry struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	VideoURL     string     `json:"video_url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Duration     float64    `json:"duration"`
	Views        int64      `json:"views"`
	CreatedAt    time.Time  `json:"created_at"`
	WatchedAt    time.Time  `json:"watched_at"`
	Owner        VideoOwner `json:"owner"`
}
