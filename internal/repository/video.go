package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
)

type videoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepository{db: db}
}

// GetWatchHistory joins the user's watch history with videos and their
// uploaders, newest watch first.
func (r *videoRepository) GetWatchHistory(ctx context.Context, userID int64) ([]model.WatchHistoryEntry, error) {
	query := `
		SELECT v.id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration, v.views,
		       v.created_at, wh.watched_at,
		       o.full_name AS owner_full_name, o.username AS owner_username, o.avatar_url AS owner_avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at DESC
	`

	type historyRow struct {
		ID             int64     `db:"id"`
		Title          string    `db:"title"`
		Description    *string   `db:"description"`
		VideoURL       string    `db:"video_url"`
		ThumbnailURL   string    `db:"thumbnail_url"`
		Duration       float64   `db:"duration"`
		Views          int64     `db:"views"`
		CreatedAt      time.Time `db:"created_at"`
		WatchedAt      time.Time `db:"watched_at"`
		OwnerFullName  string    `db:"owner_full_name"`
		OwnerUsername  string    `db:"owner_username"`
		OwnerAvatarURL string    `db:"owner_avatar_url"`
	}

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get watch history: %w", err)
	}

	entries := make([]model.WatchHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, model.WatchHistoryEntry{
			ID:           row.ID,
			Title:        row.Title,
			Description:  row.Description,
			VideoURL:     row.VideoURL,
			ThumbnailURL: row.ThumbnailURL,
			Duration:     row.Duration,
			Views:        row.Views,
			CreatedAt:    row.CreatedAt,
			WatchedAt:    row.WatchedAt,
			Owner: model.VideoOwner{
				FullName:  row.OwnerFullName,
				Username:  row.OwnerUsername,
				AvatarURL: row.OwnerAvatarURL,
			},
		})
	}

	return entries, nil
}
