package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samhotchkiss/trackshare/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStore_ListPostsNewestFirstWithinRange(t *testing.T) {
	db := setupTestDatabase(t, getTestDatabaseURL(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	userID := createTestProfile(t, db, "posts-user")
	otherID := createTestProfile(t, db, "posts-other")
	oldest := createTestPost(t, db, userID, testPost{title: "Old", artist: "A", created: base.Add(-48 * time.Hour)})
	middle := createTestPost(t, db, userID, testPost{title: "Mid", artist: "A", created: base.Add(-24 * time.Hour)})
	newest := createTestPost(t, db, userID, testPost{title: "New", artist: "A", created: base})
	createTestPost(t, db, otherID, testPost{title: "Not mine", artist: "B", created: base})

	s := NewActivityStore(db)

	posts, err := s.ListPosts(ctx, userID, models.DateRange{}, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{newest, middle, oldest}, []string{posts[0].ID, posts[1].ID, posts[2].ID})

	start := base.Add(-24 * time.Hour)
	posts, err = s.ListPosts(ctx, userID, models.DateRange{Start: &start}, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	posts, err = s.ListPosts(ctx, userID, models.DateRange{}, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, newest, posts[0].ID)

	count, err := s.CountPosts(ctx, userID, models.DateRange{Start: &start})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestActivityStore_ListLikesToleratesDeletedPost(t *testing.T) {
	db := setupTestDatabase(t, getTestDatabaseURL(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	userID := createTestProfile(t, db, "likes-user")
	authorID := createTestProfile(t, db, "likes-author")
	kept := createTestPost(t, db, authorID, testPost{title: "Kept", artist: "A", created: now})
	gone := createTestPost(t, db, authorID, testPost{title: "Gone", artist: "A", created: now})
	createTestLike(t, db, userID, kept, now.Add(time.Minute))
	createTestLike(t, db, userID, gone, now.Add(2*time.Minute))

	_, err := db.Exec("DELETE FROM posts WHERE id = $1", gone)
	require.NoError(t, err)

	likes, err := NewActivityStore(db).ListLikes(ctx, userID, models.DateRange{}, 10)
	require.NoError(t, err)
	require.Len(t, likes, 2)

	assert.Nil(t, likes[0].Post)
	assert.Nil(t, likes[0].PostID)
	require.NotNil(t, likes[1].Post)
	assert.Equal(t, "Kept", likes[1].Post.TrackTitle)
}

func TestActivityStore_ListFriendshipsJoinsOtherSide(t *testing.T) {
	db := setupTestDatabase(t, getTestDatabaseURL(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	userID := createTestProfile(t, db, "friends-user")
	requester := createTestProfile(t, db, "friends-requester")
	addressee := createTestProfile(t, db, "friends-addressee")
	pending := createTestProfile(t, db, "friends-pending")
	createTestFriendship(t, db, requester, userID, models.FriendshipAccepted, now)
	createTestFriendship(t, db, userID, addressee, models.FriendshipAccepted, now.Add(time.Minute))
	createTestFriendship(t, db, pending, userID, models.FriendshipPending, now.Add(2*time.Minute))

	s := NewActivityStore(db)
	friendships, err := s.ListFriendships(ctx, userID, models.DateRange{}, 10)
	require.NoError(t, err)
	require.Len(t, friendships, 2)
	require.NotNil(t, friendships[0].Other)
	require.NotNil(t, friendships[1].Other)
	assert.Equal(t, addressee, friendships[0].Other.ID)
	assert.Equal(t, requester, friendships[1].Other.ID)

	count, err := s.CountFriends(ctx, userID, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestActivityStore_RequiresUser(t *testing.T) {
	s := &ActivityStore{}
	_, err := s.ListPosts(context.Background(), "  ", models.DateRange{}, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = s.CountComments(context.Background(), "", models.DateRange{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestActivityStore_ZeroLimitSkipsQuery(t *testing.T) {
	s := &ActivityStore{}
	posts, err := s.ListPosts(context.Background(), "user-1", models.DateRange{}, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestBuildGivenLikesQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildGivenLikesQuery("user-1", models.DateRange{Start: &start, End: &end}, 25)

	assert.Contains(t, query, "LEFT JOIN posts p ON p.id = l.post_id")
	assert.Contains(t, query, "l.created_at >= $2")
	assert.Contains(t, query, "l.created_at <= $3")
	assert.True(t, strings.HasSuffix(query, "ORDER BY l.created_at DESC LIMIT $4"))
	assert.Equal(t, []interface{}{"user-1", start, end, 25}, args)
}
