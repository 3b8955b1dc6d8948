package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/samhotchkiss/trackshare/internal/models"
)

// NotificationStore reads the rows that become a user's notifications and
// persists which of them the user has read.
type NotificationStore struct {
	db Querier
}

// NewNotificationStore creates a new NotificationStore with the given database connection.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// ListFriendRequests returns pending friendships addressed to userID, joined
// to the requester's profile.
func (s *NotificationStore) ListFriendRequests(ctx context.Context, userID string, limit int) ([]models.Friendship, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Friendship{}, nil
	}

	query := "SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at, f.updated_at, " + joinedProfileColumns("o") +
		" FROM friendships f" +
		" LEFT JOIN profiles o ON o.id = f.user_id" +
		" WHERE f.friend_id = $1 AND f.status = $2" +
		" ORDER BY f.created_at DESC LIMIT $3"
	return queryFriendships(ctx, s.db, query, []interface{}{userID, models.FriendshipPending, limit})
}

// ListLikesReceived returns likes other users left on userID's posts.
func (s *NotificationStore) ListLikesReceived(ctx context.Context, userID string, limit int) ([]models.Like, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Like{}, nil
	}

	query := "SELECT l.id, l.user_id, l.post_id, l.created_at, " + joinedPostColumns + ", " + joinedProfileColumns("a") +
		" FROM likes l" +
		" JOIN posts p ON p.id = l.post_id" +
		" LEFT JOIN profiles a ON a.id = l.user_id" +
		" WHERE p.user_id = $1 AND l.user_id <> $1" +
		" ORDER BY l.created_at DESC LIMIT $2"
	return queryLikes(ctx, s.db, query, []interface{}{userID, limit})
}

// ListCommentsReceived returns comments other users left on userID's posts.
func (s *NotificationStore) ListCommentsReceived(ctx context.Context, userID string, limit int) ([]models.Comment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Comment{}, nil
	}

	query := "SELECT c.id, c.user_id, c.post_id, c.content, c.created_at, " + joinedPostColumns + ", " + joinedProfileColumns("a") +
		" FROM comments c" +
		" JOIN posts p ON p.id = c.post_id" +
		" LEFT JOIN profiles a ON a.id = c.user_id" +
		" WHERE p.user_id = $1 AND c.user_id <> $1" +
		" ORDER BY c.created_at DESC LIMIT $2"
	return queryComments(ctx, s.db, query, []interface{}{userID, limit})
}

// ReadIDs returns the subset of notificationIDs that userID has marked read.
func (s *NotificationStore) ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	read := make(map[string]bool)
	if len(notificationIDs) == 0 {
		return read, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT notification_id FROM notification_state
		WHERE user_id = $1 AND notification_id = ANY($2)`,
		userID,
		pq.Array(notificationIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan notification state: %w", err)
		}
		read[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading notification state: %w", err)
	}
	return read, nil
}

// MarkRead records notificationIDs as read for userID and returns how many
// were newly marked. Ids that are already read are left untouched.
func (s *NotificationStore) MarkRead(ctx context.Context, userID string, notificationIDs []string, at time.Time) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(notificationIDs))
	seen := make(map[string]struct{}, len(notificationIDs))
	for _, id := range notificationIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO notification_state (user_id, notification_id, read_at)
		SELECT $1, id, $3 FROM unnest($2::text[]) AS id
		ON CONFLICT (user_id, notification_id) DO NOTHING`,
		userID,
		pq.Array(ids),
		at.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked notifications: %w", err)
	}
	return int(affected), nil
}
