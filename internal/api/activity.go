package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/feed"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/models"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ActivityLister builds activity pages.
type ActivityLister interface {
	History(ctx context.Context, q feed.ActivityQuery) (feed.ActivityResult, error)
}

// ActivityResponse is the body of GET /api/activity.
type ActivityResponse struct {
	Success    bool                  `json:"success"`
	Activities []feed.ActivityRecord `json:"activities"`
	Total      int                   `json:"total"`
	HasMore    bool                  `json:"has_more"`
	Stats      *feed.Stats           `json:"stats,omitempty"`
}

// ActivityHandler serves a user's own activity history.
type ActivityHandler struct {
	Service ActivityLister
	Logger  *log.Logger
}

// List handles GET /api/activity.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	query := r.URL.Query()
	q := feed.ActivityQuery{UserID: middleware.UserFromContext(r.Context())}

	switch kind := strings.ToLower(strings.TrimSpace(query.Get("type"))); {
	case kind == "" || kind == "all":
	case feed.ValidCategory(kind):
		q.Categories = []string{kind}
	default:
		sendError(w, http.StatusBadRequest, "invalid type: must be one of all, posts, likes, comments, friends")
		return
	}

	limit, err := parseLimit(query.Get("limit"), defaultActivityLimit, maxActivityLimit)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := parseOffset(query.Get("offset"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	q.Limit = limit
	q.Offset = offset

	dateRange, msg := parseDateRange(query.Get("start_date"), query.Get("end_date"))
	if msg != "" {
		sendError(w, http.StatusBadRequest, msg)
		return
	}
	q.Range = dateRange
	q.IncludeStats = parseBool(query.Get("include_stats"))

	result, err := h.Service.History(r.Context(), q)
	if err != nil {
		logging.OrDiscard(h.Logger).Error("activity request failed", "user_id", q.UserID, "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to load activity")
		return
	}

	sendJSON(w, http.StatusOK, ActivityResponse{
		Success:    true,
		Activities: result.Page.Records,
		Total:      result.Page.Total,
		HasMore:    result.Page.HasMore,
		Stats:      result.Stats,
	})
}

// parseDateRange returns a client-facing message when the bounds are invalid.
func parseDateRange(startRaw, endRaw string) (models.DateRange, string) {
	var r models.DateRange
	if s := strings.TrimSpace(startRaw); s != "" {
		t, err := parseDateTime(s)
		if err != nil {
			return r, "invalid start_date"
		}
		r.Start = &t
	}
	if s := strings.TrimSpace(endRaw); s != "" {
		t, err := parseEndDate(s)
		if err != nil {
			return r, "invalid end_date"
		}
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return r, "start_date must not be after end_date"
	}
	return r, ""
}
