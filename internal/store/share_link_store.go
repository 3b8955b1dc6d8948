package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samhotchkiss/trackshare/internal/models"
)

// ShareLinkStore persists expiring track share links.
type ShareLinkStore struct {
	db Querier
}

// NewShareLinkStore creates a new ShareLinkStore with the given database connection.
func NewShareLinkStore(db *sql.DB) *ShareLinkStore {
	return &ShareLinkStore{db: db}
}

const shareLinkColumns = "id, provider, source_url, payload, created_at, expires_at"

// Create inserts a share link.
func (s *ShareLinkStore) Create(ctx context.Context, link models.ShareLink) (*models.ShareLink, error) {
	if strings.TrimSpace(link.ID) == "" {
		return nil, fmt.Errorf("%w: share id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(link.SourceURL) == "" {
		return nil, fmt.Errorf("%w: source url is required", ErrInvalidInput)
	}
	if !link.ExpiresAt.After(link.CreatedAt) {
		return nil, fmt.Errorf("%w: share link must expire after it is created", ErrInvalidInput)
	}

	payload := link.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	created, err := scanShareLink(s.db.QueryRowContext(
		ctx,
		`INSERT INTO share_links (id, provider, source_url, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+shareLinkColumns,
		link.ID,
		link.Provider,
		link.SourceURL,
		payload,
		link.CreatedAt.UTC(),
		link.ExpiresAt.UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}
	return &created, nil
}

// Get returns the share link with id. Links past their expiry at now are
// reported as ErrNotFound even before the sweeper removes them.
func (s *ShareLinkStore) Get(ctx context.Context, id string, now time.Time) (*models.ShareLink, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	link, err := scanShareLink(s.db.QueryRowContext(
		ctx,
		"SELECT "+shareLinkColumns+" FROM share_links WHERE id = $1 AND expires_at > $2",
		id,
		now.UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &link, nil
}

// DeleteExpired removes links that expired at or before now and returns how
// many were deleted.
func (s *ShareLinkStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM share_links WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted share links: %w", err)
	}
	return int(affected), nil
}

func scanShareLink(scanner interface{ Scan(...any) error }) (models.ShareLink, error) {
	var link models.ShareLink
	err := scanner.Scan(
		&link.ID,
		&link.Provider,
		&link.SourceURL,
		&link.Payload,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	return link, err
}
