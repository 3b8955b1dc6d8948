package feed

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/models"
)

// DefaultFetchCap bounds how many rows each category contributes before the
// merge. It is larger than any page so totals stay meaningful.
const DefaultFetchCap = 500

// ActivityReader loads the rows behind an activity history.
type ActivityReader interface {
	ActivityCounter
	ListPosts(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Post, error)
	ListLikes(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Like, error)
	ListComments(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Comment, error)
	ListFriendships(ctx context.Context, userID string, r models.DateRange, limit int) ([]models.Friendship, error)
}

// ActivityQuery selects a window of a user's activity history.
type ActivityQuery struct {
	UserID       string
	Categories   []string
	Range        models.DateRange
	Offset       int
	Limit        int
	IncludeStats bool
}

// ActivityResult is one page of activity, with stats when requested.
type ActivityResult struct {
	Page  Page[ActivityRecord]
	Stats *Stats
}

// ActivityService builds activity histories.
type ActivityService struct {
	reader     ActivityReader
	aggregator *Aggregator
	fetchCap   int
	logger     *log.Logger
}

// NewActivityService creates an ActivityService. fetchCap <= 0 uses DefaultFetchCap.
func NewActivityService(reader ActivityReader, aggregator *Aggregator, fetchCap int, logger *log.Logger) *ActivityService {
	if fetchCap <= 0 {
		fetchCap = DefaultFetchCap
	}
	return &ActivityService{
		reader:     reader,
		aggregator: aggregator,
		fetchCap:   fetchCap,
		logger:     logging.OrDiscard(logger),
	}
}

// History merges the requested categories and returns the page at
// q.Offset. It fails only when every requested category failed.
func (s *ActivityService) History(ctx context.Context, q ActivityQuery) (ActivityResult, error) {
	categories := q.Categories
	if len(categories) == 0 {
		categories = ActivityCategories
	}

	sources := make([]Source[ActivityRecord], 0, len(categories))
	for _, category := range categories {
		src, err := s.source(category, q)
		if err != nil {
			return ActivityResult{}, err
		}
		sources = append(sources, src)
	}

	gathered, err := Gather(ctx, s.aggregator, sources)
	if err != nil {
		s.logger.Error("activity history unavailable", "user_id", q.UserID, "err", err)
		return ActivityResult{}, err
	}

	merged := FilterRange(Merge(gathered.Lists...), q.Range)
	result := ActivityResult{Page: Paginate(merged, q.Offset, q.Limit)}
	if q.IncludeStats {
		stats := Summarize(ctx, s.reader, q.UserID, q.Range, s.logger)
		result.Stats = &stats
	}
	return result, nil
}

func (s *ActivityService) source(category string, q ActivityQuery) (Source[ActivityRecord], error) {
	name := "activity." + category
	switch category {
	case CategoryPosts:
		return Adapt(name, func(ctx context.Context) ([]models.Post, error) {
			return s.reader.ListPosts(ctx, q.UserID, q.Range, s.fetchCap)
		}, NormalizePost), nil
	case CategoryLikes:
		return Adapt(name, func(ctx context.Context) ([]models.Like, error) {
			return s.reader.ListLikes(ctx, q.UserID, q.Range, s.fetchCap)
		}, NormalizeLike), nil
	case CategoryComments:
		return Adapt(name, func(ctx context.Context) ([]models.Comment, error) {
			return s.reader.ListComments(ctx, q.UserID, q.Range, s.fetchCap)
		}, NormalizeComment), nil
	case CategoryFriends:
		return Adapt(name, func(ctx context.Context) ([]models.Friendship, error) {
			return s.reader.ListFriendships(ctx, q.UserID, q.Range, s.fetchCap)
		}, NormalizeFriendship), nil
	default:
		return Source[ActivityRecord]{}, fmt.Errorf("unknown activity category %q", category)
	}
}

// ValidCategory reports whether c is an activity category.
func ValidCategory(c string) bool {
	for _, known := range ActivityCategories {
		if c == known {
			return true
		}
	}
	return false
}
