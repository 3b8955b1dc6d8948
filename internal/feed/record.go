// Package feed merges per-category datastore rows into the activity and
// notification timelines.
package feed

import "time"

// ActivityType identifies what a user did.
type ActivityType string

const (
	ActivityPostCreated ActivityType = "post_created"
	ActivityLikeGiven   ActivityType = "like_given"
	ActivityCommentMade ActivityType = "comment_made"
	ActivityFriendAdded ActivityType = "friend_added"
)

// Activity categories accepted by the type filter.
const (
	CategoryPosts    = "posts"
	CategoryLikes    = "likes"
	CategoryComments = "comments"
	CategoryFriends  = "friends"
)

// ActivityCategories lists categories in merge order.
var ActivityCategories = []string{CategoryPosts, CategoryLikes, CategoryComments, CategoryFriends}

// ActivityRecord is one entry in a user's activity history.
type ActivityRecord struct {
	ID          string         `json:"id"`
	Type        ActivityType   `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   time.Time      `json:"timestamp"`
	Icon        string         `json:"icon"`
}

func (r ActivityRecord) SortTime() time.Time { return r.Timestamp }

// NotificationType identifies why a user is being notified.
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
)

// NotificationTypes lists notification kinds in merge order.
var NotificationTypes = []NotificationType{NotificationFriendRequest, NotificationLike, NotificationComment}

// NotificationRecord is one entry in a user's notification list.
type NotificationRecord struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Avatar    string           `json:"avatar"`
	UserID    string           `json:"user_id"`
	PostID    *string          `json:"post_id,omitempty"`
	Content   *string          `json:"content,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

func (r NotificationRecord) SortTime() time.Time { return r.CreatedAt }

// Timestamped is implemented by records that can be merged and paginated.
type Timestamped interface {
	SortTime() time.Time
}

// Icons per activity type.
const (
	iconPost    = "🎵"
	iconLike    = "❤️"
	iconComment = "💬"
	iconFriend  = "👥"
)

func shortCode(t ActivityType) string {
	switch t {
	case ActivityPostCreated:
		return "post"
	case ActivityLikeGiven:
		return "like"
	case ActivityCommentMade:
		return "comment"
	case ActivityFriendAdded:
		return "friend"
	default:
		return string(t)
	}
}
