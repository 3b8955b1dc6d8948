package store

import (
	"database/sql"

	"github.com/samhotchkiss/trackshare/internal/models"
)

const postColumns = "id, user_id, track_title, artist, album, artwork_url, track_url, provider, genre, mood, energy, caption, popularity, explicit, created_at"

// joinedPostColumns selects post columns through a LEFT JOIN aliased p.
const joinedPostColumns = "p.id, p.user_id, p.track_title, p.artist, p.album, p.artwork_url, p.track_url, p.provider, p.genre, p.mood, p.energy, p.caption, p.popularity, p.explicit, p.created_at"

// joinedProfileColumns selects profile columns through a LEFT JOIN with the given alias.
func joinedProfileColumns(alias string) string {
	return alias + ".id, " + alias + ".username, " + alias + ".display_name, " + alias + ".avatar_url"
}

func scanPost(scanner interface{ Scan(...any) error }) (models.Post, error) {
	var post models.Post
	var album, artwork, trackURL, provider, genre, mood, energy, caption sql.NullString

	err := scanner.Scan(
		&post.ID,
		&post.UserID,
		&post.TrackTitle,
		&post.Artist,
		&album,
		&artwork,
		&trackURL,
		&provider,
		&genre,
		&mood,
		&energy,
		&caption,
		&post.Popularity,
		&post.Explicit,
		&post.CreatedAt,
	)
	if err != nil {
		return post, err
	}

	post.Album = stringPtr(album)
	post.ArtworkURL = stringPtr(artwork)
	post.TrackURL = stringPtr(trackURL)
	post.Provider = stringPtr(provider)
	post.Genre = stringPtr(genre)
	post.Mood = stringPtr(mood)
	post.Energy = stringPtr(energy)
	post.Caption = stringPtr(caption)
	return post, nil
}

// nullablePost holds scan targets for a LEFT JOINed post.
type nullablePost struct {
	id, userID, title, artist                               sql.NullString
	album, artwork, trackURL, provider, genre, mood, energy sql.NullString
	caption                                                 sql.NullString
	popularity                                              sql.NullInt64
	explicit                                                sql.NullBool
	createdAt                                               sql.NullTime
}

func (n *nullablePost) targets() []any {
	return []any{
		&n.id, &n.userID, &n.title, &n.artist, &n.album, &n.artwork, &n.trackURL,
		&n.provider, &n.genre, &n.mood, &n.energy, &n.caption, &n.popularity,
		&n.explicit, &n.createdAt,
	}
}

func (n *nullablePost) model() *models.Post {
	if !n.id.Valid {
		return nil
	}
	post := &models.Post{
		ID:         n.id.String,
		UserID:     n.userID.String,
		TrackTitle: n.title.String,
		Artist:     n.artist.String,
		Album:      stringPtr(n.album),
		ArtworkURL: stringPtr(n.artwork),
		TrackURL:   stringPtr(n.trackURL),
		Provider:   stringPtr(n.provider),
		Genre:      stringPtr(n.genre),
		Mood:       stringPtr(n.mood),
		Energy:     stringPtr(n.energy),
		Caption:    stringPtr(n.caption),
		Popularity: int(n.popularity.Int64),
		Explicit:   n.explicit.Bool,
	}
	if n.createdAt.Valid {
		post.CreatedAt = n.createdAt.Time
	}
	return post
}

// nullableProfile holds scan targets for a LEFT JOINed profile.
type nullableProfile struct {
	id, username, displayName, avatarURL sql.NullString
}

func (n *nullableProfile) targets() []any {
	return []any{&n.id, &n.username, &n.displayName, &n.avatarURL}
}

func (n *nullableProfile) model() *models.Profile {
	if !n.id.Valid {
		return nil
	}
	return &models.Profile{
		ID:          n.id.String,
		Username:    n.username.String,
		DisplayName: stringPtr(n.displayName),
		AvatarURL:   stringPtr(n.avatarURL),
	}
}

func scanLike(scanner interface{ Scan(...any) error }) (models.Like, error) {
	var like models.Like
	var postID sql.NullString
	var post nullablePost
	var actor nullableProfile

	dest := []any{&like.ID, &like.UserID, &postID, &like.CreatedAt}
	dest = append(dest, post.targets()...)
	dest = append(dest, actor.targets()...)
	if err := scanner.Scan(dest...); err != nil {
		return like, err
	}

	like.PostID = stringPtr(postID)
	like.Post = post.model()
	like.Actor = actor.model()
	return like, nil
}

func scanComment(scanner interface{ Scan(...any) error }) (models.Comment, error) {
	var comment models.Comment
	var postID sql.NullString
	var post nullablePost
	var actor nullableProfile

	dest := []any{&comment.ID, &comment.UserID, &postID, &comment.Content, &comment.CreatedAt}
	dest = append(dest, post.targets()...)
	dest = append(dest, actor.targets()...)
	if err := scanner.Scan(dest...); err != nil {
		return comment, err
	}

	comment.PostID = stringPtr(postID)
	comment.Post = post.model()
	comment.Actor = actor.model()
	return comment, nil
}

func scanFriendship(scanner interface{ Scan(...any) error }) (models.Friendship, error) {
	var friendship models.Friendship
	var other nullableProfile

	dest := []any{
		&friendship.ID,
		&friendship.UserID,
		&friendship.FriendID,
		&friendship.Status,
		&friendship.CreatedAt,
		&friendship.UpdatedAt,
	}
	dest = append(dest, other.targets()...)
	if err := scanner.Scan(dest...); err != nil {
		return friendship, err
	}

	friendship.Other = other.model()
	return friendship, nil
}
