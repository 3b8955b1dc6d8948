package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samhotchkiss/trackshare/internal/metrics"
	"golang.org/x/time/rate"
)

// ErrNoOEmbed is returned for providers without an oEmbed endpoint.
var ErrNoOEmbed = errors.New("provider has no oEmbed endpoint")

// DefaultOEmbedEndpoints maps provider keys to their oEmbed endpoints.
var DefaultOEmbedEndpoints = map[string]string{
	"spotify":       "https://open.spotify.com/oembed",
	"youtube":       "https://www.youtube.com/oembed",
	"youtube_music": "https://www.youtube.com/oembed",
	"deezer":        "https://api.deezer.com/oembed",
}

// OEmbed is the subset of an oEmbed response used for share previews.
type OEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// OEmbedClient fetches oEmbed metadata for track URLs.
type OEmbedClient struct {
	endpoints  map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOEmbedClient creates a client. A nil endpoints map uses DefaultOEmbedEndpoints.
func NewOEmbedClient(endpoints map[string]string, httpClient *http.Client) *OEmbedClient {
	if endpoints == nil {
		endpoints = DefaultOEmbedEndpoints
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OEmbedClient{
		endpoints:  endpoints,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
}

// Fetch returns oEmbed metadata for trackURL from provider's endpoint.
func (c *OEmbedClient) Fetch(ctx context.Context, provider, trackURL string) (*OEmbed, error) {
	endpoint, ok := c.endpoints[provider]
	if !ok || endpoint == "" {
		return nil, ErrNoOEmbed
	}

	if c.limiter.Tokens() < 1 {
		metrics.RecordThrottle("oembed")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("url", trackURL)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oembed %s: status %d", provider, resp.StatusCode)
	}

	var embed OEmbed
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &embed, nil
}
