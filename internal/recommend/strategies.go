package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samhotchkiss/trackshare/internal/catalog"
	"github.com/samhotchkiss/trackshare/internal/models"
	"github.com/samhotchkiss/trackshare/internal/store"
)

// Per-strategy caps.
const (
	capSimilarArtist    = 5
	capTrendingFriends  = 5
	capGenreExploration = 3
	capMoodBased        = 1

	topArtistCount = 5
	trendingWindow = 7 * 24 * time.Hour
)

// ErrCatalogUnavailable is returned by genre exploration without a catalog client.
var ErrCatalogUnavailable = errors.New("catalog search is not configured")

// Request carries the caller's recommendation parameters.
type Request struct {
	UserID string
	Genre  string
	Mood   string
	Energy string
	Offset int
	Limit  int
	// TrendingOnly skips personalized strategies.
	TrendingOnly bool
}

// Strategy produces up to limit recommendations for a request.
type Strategy interface {
	Type() Type
	Cap() int
	Recommend(ctx context.Context, req Request, limit int) ([]Record, error)
}

// TrackStore reads the candidates each strategy ranks.
type TrackStore interface {
	TopArtists(ctx context.Context, userID string, limit int) ([]string, error)
	TopGenre(ctx context.Context, userID string) (string, error)
	PostsByArtists(ctx context.Context, userID string, artists []string, limit int) ([]models.TrackCandidate, error)
	FriendTracks(ctx context.Context, userID string, since time.Time, limit int) ([]models.TrackCandidate, error)
	MoodTracks(ctx context.Context, userID, mood, energy string, limit int) ([]models.TrackCandidate, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]models.TrackCandidate, error)
}

// GenreSearcher searches an external catalog by genre.
type GenreSearcher interface {
	SearchGenre(ctx context.Context, genre string, limit int) ([]catalog.Track, error)
}

// SimilarArtist recommends other users' tracks by the artists the user
// posts and likes most.
type SimilarArtist struct {
	Store TrackStore
}

func (s *SimilarArtist) Type() Type { return TypeSimilarArtist }
func (s *SimilarArtist) Cap() int   { return capSimilarArtist }

func (s *SimilarArtist) Recommend(ctx context.Context, req Request, limit int) ([]Record, error) {
	artists, err := s.Store.TopArtists(ctx, req.UserID, topArtistCount)
	if err != nil {
		return nil, fmt.Errorf("load top artists: %w", err)
	}
	if len(artists) == 0 {
		return []Record{}, nil
	}

	candidates, err := s.Store.PostsByArtists(ctx, req.UserID, artists, limit)
	if err != nil {
		return nil, fmt.Errorf("load tracks by artists: %w", err)
	}

	records := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		reason := fmt.Sprintf("Because you listen to %s", c.Artist)
		records = append(records, fromCandidate(c, TypeSimilarArtist, reason, confidenceSimilarArtist))
	}
	return records, nil
}

// TrendingFriends recommends what accepted friends posted or liked this week.
type TrendingFriends struct {
	Store TrackStore
	Now   func() time.Time
}

func (s *TrendingFriends) Type() Type { return TypeTrendingFriends }
func (s *TrendingFriends) Cap() int   { return capTrendingFriends }

func (s *TrendingFriends) Recommend(ctx context.Context, req Request, limit int) ([]Record, error) {
	candidates, err := s.Store.FriendTracks(ctx, req.UserID, nowOr(s.Now).Add(-trendingWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("load friend tracks: %w", err)
	}

	records := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		reason := "Popular with your friends this week"
		if c.Engagement > 1 {
			reason = fmt.Sprintf("%d plays and likes from your friends this week", c.Engagement)
		}
		records = append(records, fromCandidate(c, TypeTrendingFriends, reason, confidenceTrendingFriends))
	}
	return records, nil
}

// GenreExploration searches the catalog for the requested genre, or the
// user's most frequent one.
type GenreExploration struct {
	Store   TrackStore
	Catalog GenreSearcher
}

func (s *GenreExploration) Type() Type { return TypeGenreExploration }
func (s *GenreExploration) Cap() int   { return capGenreExploration }

func (s *GenreExploration) Recommend(ctx context.Context, req Request, limit int) ([]Record, error) {
	if s.Catalog == nil {
		return nil, ErrCatalogUnavailable
	}

	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		top, err := s.Store.TopGenre(ctx, req.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return []Record{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load top genre: %w", err)
		}
		genre = top
	}

	tracks, err := s.Catalog.SearchGenre(ctx, genre, limit)
	if err != nil {
		return nil, fmt.Errorf("search genre %q: %w", genre, err)
	}

	records := make([]Record, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, Record{
			ID:         t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			Album:      t.Album,
			Artwork:    t.ArtworkURL,
			URL:        t.URL,
			Popularity: t.Popularity,
			Explicit:   t.Explicit,
			Reason:     fmt.Sprintf("Explore more %s", genre),
			Type:       TypeGenreExploration,
			Confidence: confidenceGenreExploration,
		})
	}
	return records, nil
}

// MoodBased recommends the most liked track matching the requested mood.
type MoodBased struct {
	Store TrackStore
}

func (s *MoodBased) Type() Type { return TypeMoodBased }
func (s *MoodBased) Cap() int   { return capMoodBased }

func (s *MoodBased) Recommend(ctx context.Context, req Request, limit int) ([]Record, error) {
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		return []Record{}, nil
	}

	candidates, err := s.Store.MoodTracks(ctx, req.UserID, mood, req.Energy, limit)
	if err != nil {
		return nil, fmt.Errorf("load mood tracks: %w", err)
	}

	records := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		reason := fmt.Sprintf("Matches your %s mood", strings.ToLower(mood))
		records = append(records, fromCandidate(c, TypeMoodBased, reason, confidenceMoodBased))
	}
	return records, nil
}

// Trending recommends the most liked tracks across all users this week. It
// backs the fallback and type=trending.
type Trending struct {
	Store  TrackStore
	Ranker *Ranker
	Now    func() time.Time
	// Limit bounds how many tracks are loaded.
	Limit int
}

const defaultTrendingLimit = 100

func (s *Trending) Type() Type { return TypeTrending }

func (s *Trending) Cap() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return defaultTrendingLimit
}

func (s *Trending) Recommend(ctx context.Context, _ Request, limit int) ([]Record, error) {
	candidates, err := s.Store.Trending(ctx, nowOr(s.Now).Add(-trendingWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("load trending tracks: %w", err)
	}

	ranker := s.Ranker
	if ranker == nil {
		ranker = NewRanker()
		if s.Now != nil {
			ranker.Now = s.Now
		}
	}

	ranked := ranker.Rank(candidates)
	records := make([]Record, 0, len(ranked))
	for _, c := range ranked {
		records = append(records, fromCandidate(c, TypeTrending, "Trending on TrackShare this week", confidenceTrending))
	}
	return records, nil
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
