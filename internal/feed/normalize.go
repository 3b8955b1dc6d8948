package feed

import (
	"fmt"

	"github.com/samhotchkiss/trackshare/internal/models"
)

const (
	deletedPost     = "a deleted post"
	unknownActor    = "Someone"
	maxPreviewRunes = 80
)

// NormalizePost maps a post the user shared.
func NormalizePost(post models.Post) ActivityRecord {
	metadata := map[string]any{
		"post_id":     post.ID,
		"track_title": post.TrackTitle,
		"artist":      post.Artist,
	}
	putString(metadata, "album", post.Album)
	putString(metadata, "artwork_url", post.ArtworkURL)
	putString(metadata, "track_url", post.TrackURL)
	putString(metadata, "provider", post.Provider)
	putString(metadata, "caption", post.Caption)

	return ActivityRecord{
		ID:          activityID(ActivityPostCreated, post.ID),
		Type:        ActivityPostCreated,
		Title:       "Shared a track",
		Description: trackLabel(&post),
		Metadata:    metadata,
		Timestamp:   post.CreatedAt,
		Icon:        iconPost,
	}
}

// NormalizeLike maps a like the user gave.
func NormalizeLike(like models.Like) ActivityRecord {
	metadata := map[string]any{}
	putString(metadata, "post_id", like.PostID)
	putPost(metadata, like.Post)

	return ActivityRecord{
		ID:          activityID(ActivityLikeGiven, like.ID),
		Type:        ActivityLikeGiven,
		Title:       "Liked a track",
		Description: "Liked " + trackLabel(like.Post),
		Metadata:    metadata,
		Timestamp:   like.CreatedAt,
		Icon:        iconLike,
	}
}

// NormalizeComment maps a comment the user wrote.
func NormalizeComment(comment models.Comment) ActivityRecord {
	metadata := map[string]any{"content": comment.Content}
	putString(metadata, "post_id", comment.PostID)
	putPost(metadata, comment.Post)

	description := "Commented on " + trackLabel(comment.Post)
	if preview := truncate(comment.Content, maxPreviewRunes); preview != "" {
		description += ": " + preview
	}

	return ActivityRecord{
		ID:          activityID(ActivityCommentMade, comment.ID),
		Type:        ActivityCommentMade,
		Title:       "Commented on a track",
		Description: description,
		Metadata:    metadata,
		Timestamp:   comment.CreatedAt,
		Icon:        iconComment,
	}
}

// NormalizeFriendship maps an accepted friendship.
func NormalizeFriendship(friendship models.Friendship) ActivityRecord {
	metadata := map[string]any{}
	if friendship.Other != nil {
		metadata["friend_id"] = friendship.Other.ID
		metadata["friend_username"] = friendship.Other.Username
		putString(metadata, "friend_avatar_url", friendship.Other.AvatarURL)
	}

	return ActivityRecord{
		ID:          activityID(ActivityFriendAdded, friendship.ID),
		Type:        ActivityFriendAdded,
		Title:       "New friend",
		Description: "Became friends with " + actorName(friendship.Other),
		Metadata:    metadata,
		Timestamp:   friendship.CreatedAt,
		Icon:        iconFriend,
	}
}

// NormalizeFriendRequest maps a pending request addressed to the user.
func NormalizeFriendRequest(friendship models.Friendship) NotificationRecord {
	return NotificationRecord{
		ID:        notificationID(NotificationFriendRequest, friendship.ID),
		Type:      NotificationFriendRequest,
		Title:     "New friend request",
		Message:   actorName(friendship.Other) + " sent you a friend request",
		Avatar:    actorAvatar(friendship.Other),
		UserID:    friendship.UserID,
		CreatedAt: friendship.CreatedAt,
	}
}

// NormalizeLikeNotification maps a like another user left on the user's post.
func NormalizeLikeNotification(like models.Like) NotificationRecord {
	return NotificationRecord{
		ID:        notificationID(NotificationLike, like.ID),
		Type:      NotificationLike,
		Title:     "New like",
		Message:   fmt.Sprintf("%s liked %s", actorName(like.Actor), ownPostLabel(like.Post)),
		Avatar:    actorAvatar(like.Actor),
		UserID:    like.UserID,
		PostID:    like.PostID,
		CreatedAt: like.CreatedAt,
	}
}

// NormalizeCommentNotification maps a comment another user left on the user's post.
func NormalizeCommentNotification(comment models.Comment) NotificationRecord {
	content := comment.Content
	return NotificationRecord{
		ID:        notificationID(NotificationComment, comment.ID),
		Type:      NotificationComment,
		Title:     "New comment",
		Message:   fmt.Sprintf("%s commented on %s", actorName(comment.Actor), ownPostLabel(comment.Post)),
		Avatar:    actorAvatar(comment.Actor),
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		Content:   &content,
		CreatedAt: comment.CreatedAt,
	}
}

func activityID(t ActivityType, rowID string) string {
	return shortCode(t) + "_" + rowID
}

func notificationID(t NotificationType, rowID string) string {
	return string(t) + "_" + rowID
}

func trackLabel(post *models.Post) string {
	if post == nil {
		return deletedPost
	}
	switch {
	case post.TrackTitle != "" && post.Artist != "":
		return fmt.Sprintf("%q by %s", post.TrackTitle, post.Artist)
	case post.TrackTitle != "":
		return fmt.Sprintf("%q", post.TrackTitle)
	default:
		return "a track"
	}
}

func ownPostLabel(post *models.Post) string {
	if post == nil {
		return deletedPost
	}
	return "your post " + trackLabel(post)
}

func actorName(profile *models.Profile) string {
	if name := profile.Name(); name != "" {
		return name
	}
	return unknownActor
}

func actorAvatar(profile *models.Profile) string {
	if profile == nil || profile.AvatarURL == nil {
		return ""
	}
	return *profile.AvatarURL
}

func putString(metadata map[string]any, key string, value *string) {
	if value != nil && *value != "" {
		metadata[key] = *value
	}
}

func putPost(metadata map[string]any, post *models.Post) {
	if post == nil {
		metadata["post_deleted"] = true
		return
	}
	metadata["track_title"] = post.TrackTitle
	metadata["artist"] = post.Artist
	putString(metadata, "artwork_url", post.ArtworkURL)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
