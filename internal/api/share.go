package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/share"
	"github.com/samhotchkiss/trackshare/internal/store"
)

const maxShareBodyBytes = 16 << 10

// ShareManager creates and resolves share links.
type ShareManager interface {
	Create(ctx context.Context, rawURL string) (*share.Share, error)
	Get(ctx context.Context, id string) (*share.Share, error)
}

type createShareRequest struct {
	URL string `json:"url"`
}

// CreateShareResponse is the body of POST /api/share.
type CreateShareResponse struct {
	Success   bool        `json:"success"`
	ShareID   string      `json:"share_id"`
	ShareURL  string      `json:"share_url"`
	ExpiresAt time.Time   `json:"expires_at"`
	Track     share.Track `json:"track"`
}

// GetShareResponse is the body of GET /api/share/{id}.
type GetShareResponse struct {
	Success bool         `json:"success"`
	Share   *share.Share `json:"share"`
}

// ShareHandler serves share-link creation and lookup.
type ShareHandler struct {
	Service ShareManager
	Logger  *log.Logger
}

// Create handles POST /api/share.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxShareBodyBytes)).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		sendError(w, http.StatusBadRequest, "url is required")
		return
	}

	created, err := h.Service.Create(r.Context(), req.URL)
	if errors.Is(err, share.ErrUnsupportedURL) {
		sendError(w, http.StatusBadRequest, "Unsupported track URL")
		return
	}
	if err != nil {
		logging.OrDiscard(h.Logger).Error("create share failed", "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to create share link")
		return
	}

	sendJSON(w, http.StatusCreated, CreateShareResponse{
		Success:   true,
		ShareID:   created.ID,
		ShareURL:  created.URL,
		ExpiresAt: created.ExpiresAt,
		Track:     created.Track,
	})
}

// Get handles GET /api/share/{id}.
func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	found, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		sendError(w, http.StatusNotFound, "Share link not found")
		return
	}
	if err != nil {
		logging.OrDiscard(h.Logger).Error("get share failed", "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to load share link")
		return
	}

	sendJSON(w, http.StatusOK, GetShareResponse{Success: true, Share: found})
}
