// Package share turns streaming-service track URLs into expiring share links.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samhotchkiss/trackshare/internal/catalog"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/models"
)

// ErrUnsupportedURL is returned for URLs that match no known provider.
var ErrUnsupportedURL = errors.New("unsupported track url")

// Provider keys.
const (
	ProviderSpotify      = "spotify"
	ProviderAppleMusic   = "apple_music"
	ProviderYouTubeMusic = "youtube_music"
	ProviderYouTube      = "youtube"
	ProviderDeezer       = "deezer"
)

type providerPattern struct {
	name    string
	pattern *regexp.Regexp
}

// Checked in order; YouTube Music must precede YouTube.
var providerPatterns = []providerPattern{
	{ProviderSpotify, regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-z]+/)?track/[A-Za-z0-9]+`)},
	{ProviderAppleMusic, regexp.MustCompile(`^https?://music\.apple\.com/[a-z]{2}/(?:album|song)/`)},
	{ProviderYouTubeMusic, regexp.MustCompile(`^https?://music\.youtube\.com/watch\?(?:.*&)?v=[\w-]+`)},
	{ProviderYouTube, regexp.MustCompile(`^https?://(?:(?:www|m)\.youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)[\w-]+`)},
	{ProviderDeezer, regexp.MustCompile(`^https?://(?:www\.)?deezer\.com/(?:[a-z]{2}/)?track/\d+`)},
}

// DetectProvider returns the provider key for rawURL.
func DetectProvider(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	for _, p := range providerPatterns {
		if p.pattern.MatchString(trimmed) {
			return p.name, nil
		}
	}
	return "", ErrUnsupportedURL
}

// Track is the preview stored with a share link.
type Track struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Artwork  string `json:"artwork,omitempty"`
	Provider string `json:"provider"`
	Embed    string `json:"embed_html,omitempty"`
}

// Share is a resolved share link.
type Share struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	SourceURL string    `json:"source_url"`
	URL       string    `json:"share_url"`
	Track     Track     `json:"track"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkStore persists share links.
type LinkStore interface {
	Create(ctx context.Context, link models.ShareLink) (*models.ShareLink, error)
	Get(ctx context.Context, id string, now time.Time) (*models.ShareLink, error)
}

// MetadataFetcher looks up track metadata for a provider URL.
type MetadataFetcher interface {
	Fetch(ctx context.Context, provider, trackURL string) (*catalog.OEmbed, error)
}

// Service creates and resolves share links.
type Service struct {
	store   LinkStore
	oembed  MetadataFetcher
	ttl     time.Duration
	baseURL string
	logger  *log.Logger

	Now func() time.Time
}

// NewService creates a Service. oembed may be nil.
func NewService(store LinkStore, oembed MetadataFetcher, ttl time.Duration, baseURL string, logger *log.Logger) *Service {
	return &Service{
		store:   store,
		oembed:  oembed,
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.OrDiscard(logger),
		Now:     time.Now,
	}
}

// Create persists a share link for rawURL.
func (s *Service) Create(ctx context.Context, rawURL string) (*Share, error) {
	rawURL = strings.TrimSpace(rawURL)
	provider, err := DetectProvider(rawURL)
	if err != nil {
		return nil, err
	}

	track := Track{Provider: provider}
	if s.oembed != nil {
		embed, err := s.oembed.Fetch(ctx, provider, rawURL)
		switch {
		case errors.Is(err, catalog.ErrNoOEmbed):
		case err != nil:
			s.logger.Warn("oembed lookup failed", "provider", provider, "err", err)
		default:
			track.Title = embed.Title
			track.Artist = embed.AuthorName
			track.Artwork = embed.ThumbnailURL
			track.Embed = embed.HTML
		}
	}

	payload, err := json.Marshal(track)
	if err != nil {
		return nil, fmt.Errorf("failed to encode share payload: %w", err)
	}

	now := s.Now().UTC()
	link, err := s.store.Create(ctx, models.ShareLink{
		ID:        uuid.NewString(),
		Provider:  provider,
		SourceURL: rawURL,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return nil, err
	}
	return s.toShare(link)
}

// Get returns an unexpired share link.
func (s *Service) Get(ctx context.Context, id string) (*Share, error) {
	link, err := s.store.Get(ctx, id, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.toShare(link)
}

func (s *Service) toShare(link *models.ShareLink) (*Share, error) {
	out := &Share{
		ID:        link.ID,
		Provider:  link.Provider,
		SourceURL: link.SourceURL,
		URL:       s.baseURL + "/share/" + link.ID,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
		Track:     Track{Provider: link.Provider},
	}
	if len(link.Payload) > 0 {
		if err := json.Unmarshal(link.Payload, &out.Track); err != nil {
			return nil, fmt.Errorf("failed to decode share payload: %w", err)
		}
	}
	return out, nil
}
