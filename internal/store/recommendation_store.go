package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/samhotchkiss/trackshare/internal/models"
)

// RecommendationStore reads the candidate tracks behind each recommendation
// strategy. Engagement on a candidate is its like count unless noted.
type RecommendationStore struct {
	db Querier
}

// NewRecommendationStore creates a new RecommendationStore with the given database connection.
func NewRecommendationStore(db *sql.DB) *RecommendationStore {
	return &RecommendationStore{db: db}
}

const candidateColumns = "p.id, p.track_title, p.artist, p.album, p.artwork_url, p.track_url, p.genre, p.popularity, p.explicit, p.created_at"

// TopArtists returns the artists userID has posted or liked most often.
func (s *RecommendationStore) TopArtists(ctx context.Context, userID string, limit int) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []string{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT artist FROM (
			SELECT artist FROM posts WHERE user_id = $1
			UNION ALL
			SELECT p.artist FROM likes l JOIN posts p ON p.id = l.post_id WHERE l.user_id = $1
		) history
		GROUP BY artist
		ORDER BY COUNT(*) DESC, artist ASC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top artists: %w", err)
	}
	defer rows.Close()

	artists := make([]string, 0, limit)
	for rows.Next() {
		var artist string
		if err := rows.Scan(&artist); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading top artists: %w", err)
	}
	return artists, nil
}

// TopGenre returns the genre userID has posted or liked most often, or
// ErrNotFound when none of their tracks carry a genre.
func (s *RecommendationStore) TopGenre(ctx context.Context, userID string) (string, error) {
	if err := requireUser(userID); err != nil {
		return "", err
	}

	var genre string
	err := s.db.QueryRowContext(ctx, `SELECT genre FROM (
			SELECT genre FROM posts WHERE user_id = $1 AND genre IS NOT NULL AND genre <> ''
			UNION ALL
			SELECT p.genre FROM likes l JOIN posts p ON p.id = l.post_id
			WHERE l.user_id = $1 AND p.genre IS NOT NULL AND p.genre <> ''
		) history
		GROUP BY genre
		ORDER BY COUNT(*) DESC, genre ASC
		LIMIT 1`, userID).Scan(&genre)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load top genre: %w", err)
	}
	return genre, nil
}

// PostsByArtists returns tracks by any of artists shared by users other than
// userID, most liked first.
func (s *RecommendationStore) PostsByArtists(ctx context.Context, userID string, artists []string, limit int) ([]models.TrackCandidate, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 || len(artists) == 0 {
		return []models.TrackCandidate{}, nil
	}

	query := "SELECT " + candidateColumns + ", COUNT(l.id) AS engagement" +
		" FROM posts p LEFT JOIN likes l ON l.post_id = p.id" +
		" WHERE p.artist = ANY($2) AND p.user_id <> $1" +
		" GROUP BY p.id" +
		" ORDER BY engagement DESC, p.created_at DESC LIMIT $3"
	return s.queryCandidates(ctx, query, []interface{}{userID, pq.Array(artists), limit})
}

// FriendTracks returns tracks that userID's accepted friends posted or liked
// since the given time. Engagement counts friend interactions.
func (s *RecommendationStore) FriendTracks(ctx context.Context, userID string, since time.Time, limit int) ([]models.TrackCandidate, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.TrackCandidate{}, nil
	}

	query := `WITH friends AS (
			SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END AS id
			FROM friendships
			WHERE (user_id = $1 OR friend_id = $1) AND status = $2
		), touches AS (
			SELECT p.id AS post_id FROM posts p JOIN friends f ON f.id = p.user_id WHERE p.created_at >= $3
			UNION ALL
			SELECT l.post_id FROM likes l JOIN friends f ON f.id = l.user_id
			WHERE l.created_at >= $3 AND l.post_id IS NOT NULL
		)
		SELECT ` + candidateColumns + `, COUNT(*) AS engagement
		FROM touches t JOIN posts p ON p.id = t.post_id
		WHERE p.user_id <> $1
		GROUP BY p.id
		ORDER BY engagement DESC, p.created_at DESC
		LIMIT $4`
	return s.queryCandidates(ctx, query, []interface{}{userID, models.FriendshipAccepted, since.UTC(), limit})
}

// MoodTracks returns tracks tagged with mood, and with energy when it is
// non-empty, shared by users other than userID. Matching ignores case.
func (s *RecommendationStore) MoodTracks(ctx context.Context, userID, mood, energy string, limit int) ([]models.TrackCandidate, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return nil, fmt.Errorf("%w: mood is required", ErrInvalidInput)
	}
	if limit <= 0 {
		return []models.TrackCandidate{}, nil
	}

	conditions := []string{"p.user_id <> $1", "LOWER(p.mood) = LOWER($2)"}
	args := []interface{}{userID, mood}
	if energy = strings.TrimSpace(energy); energy != "" {
		args = append(args, energy)
		conditions = append(conditions, fmt.Sprintf("LOWER(p.energy) = LOWER($%d)", len(args)))
	}
	args = append(args, limit)

	query := "SELECT " + candidateColumns + ", COUNT(l.id) AS engagement" +
		" FROM posts p LEFT JOIN likes l ON l.post_id = p.id" +
		" WHERE " + strings.Join(conditions, " AND ") +
		" GROUP BY p.id" +
		fmt.Sprintf(" ORDER BY engagement DESC, p.created_at DESC LIMIT $%d", len(args))
	return s.queryCandidates(ctx, query, args)
}

// Trending returns the most liked tracks shared since the given time across
// all users.
func (s *RecommendationStore) Trending(ctx context.Context, since time.Time, limit int) ([]models.TrackCandidate, error) {
	if limit <= 0 {
		return []models.TrackCandidate{}, nil
	}

	query := "SELECT " + candidateColumns + ", COUNT(l.id) AS engagement" +
		" FROM posts p LEFT JOIN likes l ON l.post_id = p.id" +
		" WHERE p.created_at >= $1" +
		" GROUP BY p.id" +
		" ORDER BY engagement DESC, p.popularity DESC, p.created_at DESC LIMIT $2"
	return s.queryCandidates(ctx, query, []interface{}{since.UTC(), limit})
}

func (s *RecommendationStore) queryCandidates(ctx context.Context, query string, args []interface{}) ([]models.TrackCandidate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list track candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.TrackCandidate, 0)
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading track candidates: %w", err)
	}
	return candidates, nil
}

func scanCandidate(scanner interface{ Scan(...any) error }) (models.TrackCandidate, error) {
	var candidate models.TrackCandidate
	var album, artwork, trackURL, genre sql.NullString

	err := scanner.Scan(
		&candidate.PostID,
		&candidate.Title,
		&candidate.Artist,
		&album,
		&artwork,
		&trackURL,
		&genre,
		&candidate.Popularity,
		&candidate.Explicit,
		&candidate.CreatedAt,
		&candidate.Engagement,
	)
	if err != nil {
		return candidate, err
	}

	candidate.Album = album.String
	candidate.ArtworkURL = artwork.String
	candidate.TrackURL = trackURL.String
	candidate.Genre = genre.String
	return candidate, nil
}
