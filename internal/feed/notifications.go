package feed

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/models"
)

// NotificationReader loads notification rows and their read state.
type NotificationReader interface {
	ListFriendRequests(ctx context.Context, userID string, limit int) ([]models.Friendship, error)
	ListLikesReceived(ctx context.Context, userID string, limit int) ([]models.Like, error)
	ListCommentsReceived(ctx context.Context, userID string, limit int) ([]models.Comment, error)
	ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error)
	MarkRead(ctx context.Context, userID string, notificationIDs []string, at time.Time) (int, error)
}

// NotificationQuery selects a window of a user's notifications.
type NotificationQuery struct {
	UserID     string
	Offset     int
	Limit      int
	UnreadOnly bool
}

// NotificationResult is one page of notifications. UnreadCount covers every
// notification, not just the page.
type NotificationResult struct {
	Page        Page[NotificationRecord]
	UnreadCount int
}

// NotificationService builds notification lists and records read state.
type NotificationService struct {
	reader     NotificationReader
	aggregator *Aggregator
	fetchCap   int
	logger     *log.Logger
	Now        func() time.Time
}

// NewNotificationService creates a NotificationService. fetchCap <= 0 uses DefaultFetchCap.
func NewNotificationService(reader NotificationReader, aggregator *Aggregator, fetchCap int, logger *log.Logger) *NotificationService {
	if fetchCap <= 0 {
		fetchCap = DefaultFetchCap
	}
	return &NotificationService{
		reader:     reader,
		aggregator: aggregator,
		fetchCap:   fetchCap,
		logger:     logging.OrDiscard(logger),
		Now:        time.Now,
	}
}

// List merges every notification kind, applies read state, and returns the
// page at q.Offset.
func (s *NotificationService) List(ctx context.Context, q NotificationQuery) (NotificationResult, error) {
	merged, err := s.collect(ctx, q.UserID)
	if err != nil {
		return NotificationResult{}, err
	}

	ids := make([]string, 0, len(merged))
	for _, n := range merged {
		ids = append(ids, n.ID)
	}
	read, err := s.reader.ReadIDs(ctx, q.UserID, ids)
	if err != nil {
		s.logger.Warn("notification read state unavailable", "user_id", q.UserID, "err", err)
		read = nil
	}

	unread := 0
	visible := make([]NotificationRecord, 0, len(merged))
	for _, n := range merged {
		n.Read = read[n.ID]
		if !n.Read {
			unread++
		} else if q.UnreadOnly {
			continue
		}
		visible = append(visible, n)
	}

	return NotificationResult{
		Page:        Paginate(visible, q.Offset, q.Limit),
		UnreadCount: unread,
	}, nil
}

// MarkRead records ids as read. With all set, every current notification is
// marked and ids is ignored. It returns how many were newly marked.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string, all bool) (int, error) {
	if all {
		merged, err := s.collect(ctx, userID)
		if err != nil {
			return 0, err
		}
		ids = make([]string, 0, len(merged))
		for _, n := range merged {
			ids = append(ids, n.ID)
		}
	}

	marked, err := s.reader.MarkRead(ctx, userID, ids, s.Now())
	if err != nil {
		s.logger.Error("mark notifications read failed", "user_id", userID, "err", err)
		return 0, err
	}
	return marked, nil
}

func (s *NotificationService) collect(ctx context.Context, userID string) ([]NotificationRecord, error) {
	sources := []Source[NotificationRecord]{
		Adapt("notifications.friend_request", func(ctx context.Context) ([]models.Friendship, error) {
			return s.reader.ListFriendRequests(ctx, userID, s.fetchCap)
		}, NormalizeFriendRequest),
		Adapt("notifications.like", func(ctx context.Context) ([]models.Like, error) {
			return s.reader.ListLikesReceived(ctx, userID, s.fetchCap)
		}, NormalizeLikeNotification),
		Adapt("notifications.comment", func(ctx context.Context) ([]models.Comment, error) {
			return s.reader.ListCommentsReceived(ctx, userID, s.fetchCap)
		}, NormalizeCommentNotification),
	}

	gathered, err := Gather(ctx, s.aggregator, sources)
	if err != nil {
		s.logger.Error("notifications unavailable", "user_id", userID, "err", err)
		return nil, err
	}
	return Merge(gathered.Lists...), nil
}
