package feed

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/models"
	"golang.org/x/sync/errgroup"
)

// Stats counts a user's activity over a date range, independent of any page.
type Stats struct {
	PostsCreated int `json:"posts_created"`
	LikesGiven   int `json:"likes_given"`
	CommentsMade int `json:"comments_made"`
	FriendsAdded int `json:"friends_added"`
}

// ActivityCounter counts activity rows per category.
type ActivityCounter interface {
	CountPosts(ctx context.Context, userID string, r models.DateRange) (int, error)
	CountLikes(ctx context.Context, userID string, r models.DateRange) (int, error)
	CountComments(ctx context.Context, userID string, r models.DateRange) (int, error)
	CountFriends(ctx context.Context, userID string, r models.DateRange) (int, error)
}

// Summarize counts each category. A failed count is logged and reported as 0.
func Summarize(ctx context.Context, counter ActivityCounter, userID string, r models.DateRange, logger *log.Logger) Stats {
	logger = logging.OrDiscard(logger)

	var stats Stats
	counts := []struct {
		name  string
		count func(context.Context, string, models.DateRange) (int, error)
		dest  *int
	}{
		{CategoryPosts, counter.CountPosts, &stats.PostsCreated},
		{CategoryLikes, counter.CountLikes, &stats.LikesGiven},
		{CategoryComments, counter.CountComments, &stats.CommentsMade},
		{CategoryFriends, counter.CountFriends, &stats.FriendsAdded},
	}

	var g errgroup.Group
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := c.count(ctx, userID, r)
			if err != nil {
				logger.Warn("activity count failed", "category", c.name, "err", err)
				return nil
			}
			*c.dest = n
			return nil
		})
	}
	_ = g.Wait()

	return stats
}
