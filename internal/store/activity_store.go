package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samhotchkiss/trackshare/internal/models"
)

// ActivityStore reads the rows behind a user's activity history: what the
// user posted, liked, commented on, and who they became friends with.
type ActivityStore struct {
	db Querier
}

// NewActivityStore creates a new ActivityStore with the given database connection.
func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// ListPosts returns posts created by userID, newest first.
func (s *ActivityStore) ListPosts(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Post, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Post{}, nil
	}

	query, args := buildPostListQuery(userID, r, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading posts: %w", err)
	}
	return posts, nil
}

// ListLikes returns likes given by userID. The liked post is nil when it has
// since been deleted.
func (s *ActivityStore) ListLikes(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Like, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Like{}, nil
	}

	query, args := buildGivenLikesQuery(userID, r, limit)
	return queryLikes(ctx, s.db, query, args)
}

// ListComments returns comments written by userID.
func (s *ActivityStore) ListComments(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Comment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Comment{}, nil
	}

	query, args := buildWrittenCommentsQuery(userID, r, limit)
	return queryComments(ctx, s.db, query, args)
}

// ListFriendships returns accepted friendships on either side of userID,
// joined to the other user's profile.
func (s *ActivityStore) ListFriendships(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Friendship, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Friendship{}, nil
	}

	query, args := buildAcceptedFriendshipsQuery(userID, r, limit)
	return queryFriendships(ctx, s.db, query, args)
}

// CountPosts counts posts by userID in the range.
func (s *ActivityStore) CountPosts(ctx context.Context, userID string, r models.DateRange) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	conditions, args := appendDateRange([]string{"user_id = $1"}, []interface{}{userID}, "created_at", r)
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM posts WHERE "+strings.Join(conditions, " AND "), args)
}

// CountLikes counts likes given by userID in the range.
func (s *ActivityStore) CountLikes(ctx context.Context, userID string, r models.DateRange) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	conditions, args := appendDateRange([]string{"user_id = $1"}, []interface{}{userID}, "created_at", r)
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM likes WHERE "+strings.Join(conditions, " AND "), args)
}

// CountComments counts comments written by userID in the range.
func (s *ActivityStore) CountComments(ctx context.Context, userID string, r models.DateRange) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	conditions, args := appendDateRange([]string{"user_id = $1"}, []interface{}{userID}, "created_at", r)
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM comments WHERE "+strings.Join(conditions, " AND "), args)
}

// CountFriends counts accepted friendships involving userID in the range.
func (s *ActivityStore) CountFriends(ctx context.Context, userID string, r models.DateRange) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	conditions := []string{"(user_id = $1 OR friend_id = $1)", "status = $2"}
	args := []interface{}{userID, models.FriendshipAccepted}
	conditions, args = appendDateRange(conditions, args, "created_at", r)
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM friendships WHERE "+strings.Join(conditions, " AND "), args)
}

func buildPostListQuery(userID string, r models.DateRange, limit int) (string, []interface{}) {
	conditions, args := appendDateRange([]string{"user_id = $1"}, []interface{}{userID}, "created_at", r)
	args = append(args, limit)

	query := "SELECT " + postColumns + " FROM posts WHERE " +
		strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	return query, args
}

func buildGivenLikesQuery(userID string, r models.DateRange, limit int) (string, []interface{}) {
	conditions, args := appendDateRange([]string{"l.user_id = $1"}, []interface{}{userID}, "l.created_at", r)
	args = append(args, limit)

	query := "SELECT l.id, l.user_id, l.post_id, l.created_at, " + joinedPostColumns + ", " + joinedProfileColumns("a") +
		" FROM likes l" +
		" LEFT JOIN posts p ON p.id = l.post_id" +
		" LEFT JOIN profiles a ON a.id = l.user_id" +
		" WHERE " + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d", len(args))
	return query, args
}

func buildWrittenCommentsQuery(userID string, r models.DateRange, limit int) (string, []interface{}) {
	conditions, args := appendDateRange([]string{"c.user_id = $1"}, []interface{}{userID}, "c.created_at", r)
	args = append(args, limit)

	query := "SELECT c.id, c.user_id, c.post_id, c.content, c.created_at, " + joinedPostColumns + ", " + joinedProfileColumns("a") +
		" FROM comments c" +
		" LEFT JOIN posts p ON p.id = c.post_id" +
		" LEFT JOIN profiles a ON a.id = c.user_id" +
		" WHERE " + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d", len(args))
	return query, args
}

func buildAcceptedFriendshipsQuery(userID string, r models.DateRange, limit int) (string, []interface{}) {
	conditions := []string{"(f.user_id = $1 OR f.friend_id = $1)", "f.status = $2"}
	args := []interface{}{userID, models.FriendshipAccepted}
	conditions, args = appendDateRange(conditions, args, "f.created_at", r)
	args = append(args, limit)

	query := "SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at, f.updated_at, " + joinedProfileColumns("o") +
		" FROM friendships f" +
		" LEFT JOIN profiles o ON o.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END" +
		" WHERE " + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY f.created_at DESC LIMIT $%d", len(args))
	return query, args
}

func queryLikes(ctx context.Context, q Querier, query string, args []interface{}) ([]models.Like, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	likes := make([]models.Like, 0)
	for rows.Next() {
		like, err := scanLike(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading likes: %w", err)
	}
	return likes, nil
}

func queryComments(ctx context.Context, q Querier, query string, args []interface{}) ([]models.Comment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading comments: %w", err)
	}
	return comments, nil
}

func queryFriendships(ctx context.Context, q Querier, query string, args []interface{}) ([]models.Friendship, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	friendships := make([]models.Friendship, 0)
	for rows.Next() {
		friendship, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, friendship)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading friendships: %w", err)
	}
	return friendships, nil
}
