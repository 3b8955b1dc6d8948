// Package catalog talks to third-party music catalogs: Spotify search for
// genre exploration and provider oEmbed endpoints for share links.
//
// Spotify API response types follow https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/config"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/metrics"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when catalog credentials are missing.
var ErrNotConfigured = errors.New("catalog credentials are not configured")

const maxSearchLimit = 50

// Track is catalog metadata for one track.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artwork_url"`
	URL        string `json:"url"`
	Popularity int    `json:"popularity"`
	Explicit   bool   `json:"explicit"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []spotifyArtist   `json:"artists"`
	Album        spotifyAlbum      `json:"album"`
	Explicit     bool              `json:"explicit"`
	Popularity   int               `json:"popularity"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyClient searches the Spotify catalog with an app-level token.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient builds a client that authenticates with the client
// credentials grant. The token is fetched lazily and refreshed by oauth2.
func NewSpotifyClient(ctx context.Context, cfg config.SpotifyConfig, logger *log.Logger) (*SpotifyClient, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return newSpotifyClient(cfg.APIBaseURL, creds.Client(ctx), cfg.RateLimit, logger), nil
}

func newSpotifyClient(baseURL string, httpClient *http.Client, ratePerSecond float64, logger *log.Logger) *SpotifyClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	return &SpotifyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:     logging.OrDiscard(logger).With("client", "spotify"),
	}
}

// SearchTracks runs a track search. query uses Spotify's field filter
// syntax, e.g. genre:"shoegaze".
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		return []Track{}, nil
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var resp spotifySearchResponse
	if err := c.doRequest(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, nil
}

// SearchGenre searches tracks tagged with genre.
func (c *SpotifyClient) SearchGenre(ctx context.Context, genre string, limit int) ([]Track, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil, errors.New("genre is required")
	}
	return c.SearchTracks(ctx, fmt.Sprintf("genre:%q", genre), limit)
}

// doRequest performs a rate-limited GET against the Spotify API.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if c.limiter.Tokens() < 1 {
		metrics.RecordThrottle("spotify")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("spotify request rejected", "status", resp.StatusCode, "endpoint", endpoint)
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (t spotifyTrack) toTrack() Track {
	track := Track{
		ID:         t.ID,
		Title:      t.Name,
		Album:      t.Album.Name,
		URL:        t.ExternalURLs["spotify"],
		Popularity: t.Popularity,
		Explicit:   t.Explicit,
	}
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	track.Artist = strings.Join(names, ", ")
	if len(t.Album.Images) > 0 {
		track.ArtworkURL = t.Album.Images[0].URL
	}
	return track
}
