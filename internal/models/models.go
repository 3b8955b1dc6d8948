// Package models defines the datastore rows shared by the store and the
// feed/recommendation layers.
//
// Joined relations that may be missing (a post deleted after it was liked, a
// profile removed after a friendship was accepted) are pointers; callers must
// handle nil rather than assume the join succeeded.
package models

import "time"

// DateRange is an optional inclusive bound on a row's created_at column.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Profile is the public part of a user account.
type Profile struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Name returns the best human-readable name for the profile.
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.Username
}

// Post is a shared track.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TrackTitle string    `json:"track_title"`
	Artist     string    `json:"artist"`
	Album      *string   `json:"album,omitempty"`
	ArtworkURL *string   `json:"artwork_url,omitempty"`
	TrackURL   *string   `json:"track_url,omitempty"`
	Provider   *string   `json:"provider,omitempty"`
	Genre      *string   `json:"genre,omitempty"`
	Mood       *string   `json:"mood,omitempty"`
	Energy     *string   `json:"energy,omitempty"`
	Caption    *string   `json:"caption,omitempty"`
	Popularity int       `json:"popularity"`
	Explicit   bool      `json:"explicit"`
	CreatedAt  time.Time `json:"created_at"`
}

// Like is a like on a post. Post is nil when the post no longer exists.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    *string   `json:"post_id,omitempty"`
	Post      *Post     `json:"post,omitempty"`
	Actor     *Profile  `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a comment on a post. Post is nil when the post no longer exists.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    *string   `json:"post_id,omitempty"`
	Post      *Post     `json:"post,omitempty"`
	Actor     *Profile  `json:"actor,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Friendship links two users. Other is the profile on the far side from the
// user the row was loaded for.
type Friendship struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	Status    string    `json:"status"`
	Other     *Profile  `json:"other,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FriendshipStatus constants.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// TrackCandidate is a track considered for recommendation, with the
// engagement count that ranked it.
type TrackCandidate struct {
	PostID     string
	Title      string
	Artist     string
	Album      string
	ArtworkURL string
	TrackURL   string
	Genre      string
	Popularity int
	Explicit   bool
	Engagement int
	CreatedAt  time.Time
}

// ShareLink is a persisted, expiring track share.
type ShareLink struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	SourceURL string    `json:"source_url"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
