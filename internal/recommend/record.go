// Package recommend blends personalized recommendation strategies into one
// deduplicated list, falling back to trending tracks.
package recommend

import "github.com/samhotchkiss/trackshare/internal/models"

// Type names the strategy that produced a recommendation.
type Type string

const (
	TypeTrending         Type = "trending"
	TypeSimilarArtist    Type = "similar_artist"
	TypeTrendingFriends  Type = "trending_friends"
	TypeGenreExploration Type = "genre_exploration"
	TypeMoodBased        Type = "mood_based"
)

// Confidence per strategy.
const (
	confidenceSimilarArtist    = 0.85
	confidenceTrendingFriends  = 0.8
	confidenceMoodBased        = 0.7
	confidenceGenreExploration = 0.6
	confidenceTrending         = 0.5
)

// Record is one recommended track.
type Record struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Artwork    string  `json:"artwork"`
	URL        string  `json:"url"`
	Popularity int     `json:"popularity"`
	Explicit   bool    `json:"explicit"`
	Reason     string  `json:"recommendation_reason"`
	Type       Type    `json:"recommendation_type"`
	Confidence float64 `json:"confidence"`
}

// DedupKey identifies the same track across strategies. It is case-sensitive.
func (r Record) DedupKey() string {
	return r.Title + "_" + r.Artist
}

func fromCandidate(c models.TrackCandidate, t Type, reason string, confidence float64) Record {
	return Record{
		ID:         c.PostID,
		Title:      c.Title,
		Artist:     c.Artist,
		Album:      c.Album,
		Artwork:    c.ArtworkURL,
		URL:        c.TrackURL,
		Popularity: c.Popularity,
		Explicit:   c.Explicit,
		Reason:     reason,
		Type:       t,
		Confidence: confidence,
	}
}
