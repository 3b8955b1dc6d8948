package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/feed"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/ws"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
	maxMarkReadBodyBytes     = 64 << 10
)

// NotificationManager lists notifications and records read state.
type NotificationManager interface {
	List(ctx context.Context, q feed.NotificationQuery) (feed.NotificationResult, error)
	MarkRead(ctx context.Context, userID string, ids []string, all bool) (int, error)
}

// NotificationBroadcaster pushes read-state changes to a user's sessions.
type NotificationBroadcaster interface {
	NotificationsRead(userID string, event ws.NotificationsRead) error
}

// NotificationsResponse is the body of GET /api/notifications.
type NotificationsResponse struct {
	Success       bool                      `json:"success"`
	Notifications []feed.NotificationRecord `json:"notifications"`
	UnreadCount   int                       `json:"unread_count"`
	Total         int                       `json:"total"`
	HasMore       bool                      `json:"has_more"`
}

type markReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
	MarkAll         bool     `json:"mark_all"`
}

// MarkReadResponse is the body of POST /api/notifications.
type MarkReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Marked  int    `json:"marked"`
}

// NotificationsHandler serves the notification list and mark-as-read.
type NotificationsHandler struct {
	Service     NotificationManager
	Broadcaster NotificationBroadcaster
	Logger      *log.Logger
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"), defaultNotificationLimit, maxNotificationLimit)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := parseOffset(query.Get("offset"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	userID := middleware.UserFromContext(r.Context())
	result, err := h.Service.List(r.Context(), feed.NotificationQuery{
		UserID:     userID,
		Offset:     offset,
		Limit:      limit,
		UnreadOnly: parseBool(query.Get("unread_only")),
	})
	if err != nil {
		logging.OrDiscard(h.Logger).Error("notifications request failed", "user_id", userID, "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	sendJSON(w, http.StatusOK, NotificationsResponse{
		Success:       true,
		Notifications: result.Page.Records,
		UnreadCount:   result.UnreadCount,
		Total:         result.Page.Total,
		HasMore:       result.Page.HasMore,
	})
}

// MarkRead handles POST /api/notifications.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMarkReadBodyBytes)).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ids := make([]string, 0, len(req.NotificationIDs))
	for _, id := range req.NotificationIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if !req.MarkAll && len(ids) == 0 {
		sendError(w, http.StatusBadRequest, "notification_ids or mark_all is required")
		return
	}

	logger := logging.OrDiscard(h.Logger)
	userID := middleware.UserFromContext(r.Context())
	marked, err := h.Service.MarkRead(r.Context(), userID, ids, req.MarkAll)
	if err != nil {
		logger.Error("mark read request failed", "user_id", userID, "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	h.broadcastUnread(r.Context(), userID, ids, req.MarkAll, logger)

	message := "Notifications marked as read"
	if req.MarkAll {
		message = "All notifications marked as read"
	}
	sendJSON(w, http.StatusOK, MarkReadResponse{Success: true, Message: message, Marked: marked})
}

func (h *NotificationsHandler) broadcastUnread(ctx context.Context, userID string, ids []string, all bool, logger *log.Logger) {
	if h.Broadcaster == nil {
		return
	}
	result, err := h.Service.List(ctx, feed.NotificationQuery{UserID: userID, Limit: 0})
	if err != nil {
		logger.Warn("unread count unavailable for broadcast", "user_id", userID, "err", err)
		return
	}
	event := ws.NotificationsRead{UnreadCount: result.UnreadCount, All: all}
	if !all {
		event.IDs = ids
	}
	if err := h.Broadcaster.NotificationsRead(userID, event); err != nil {
		logger.Warn("notification broadcast failed", "user_id", userID, "err", err)
	}
}
