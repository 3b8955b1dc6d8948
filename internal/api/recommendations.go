package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/recommend"
)

const (
	defaultRecommendationLimit = 20
	maxRecommendationLimit     = 50
)

// Recommender produces blended recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Result, error)
}

// RecommendationsResponse is the body of GET /api/recommendations.
type RecommendationsResponse struct {
	Success         bool               `json:"success"`
	Recommendations []recommend.Record `json:"recommendations"`
	Total           int                `json:"total"`
	HasMore         bool               `json:"has_more"`
}

// RecommendationsHandler serves personalized track recommendations.
type RecommendationsHandler struct {
	Service Recommender
	Logger  *log.Logger
}

// List handles GET /api/recommendations.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		sendError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	query := r.URL.Query()
	req := recommend.Request{
		UserID: middleware.UserFromContext(r.Context()),
		Genre:  strings.TrimSpace(query.Get("genre")),
		Mood:   strings.TrimSpace(query.Get("mood")),
		Energy: strings.TrimSpace(query.Get("energy")),
	}

	switch strings.ToLower(strings.TrimSpace(query.Get("type"))) {
	case "", "mixed":
	case string(recommend.TypeTrending):
		req.TrendingOnly = true
	default:
		sendError(w, http.StatusBadRequest, "invalid type: must be mixed or trending")
		return
	}

	limit, err := parseLimit(query.Get("limit"), defaultRecommendationLimit, maxRecommendationLimit)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := parseOffset(query.Get("offset"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	req.Limit = limit
	req.Offset = offset

	result, err := h.Service.Recommend(r.Context(), req)
	if err != nil {
		logging.OrDiscard(h.Logger).Error("recommendations request failed", "user_id", req.UserID, "err", err)
		sendError(w, http.StatusInternalServerError, "Failed to generate recommendations")
		return
	}

	sendJSON(w, http.StatusOK, RecommendationsResponse{
		Success:         true,
		Recommendations: result.Records,
		Total:           result.Total,
		HasMore:         result.HasMore,
	})
}
