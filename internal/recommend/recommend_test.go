package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samhotchkiss/trackshare/internal/catalog"
	"github.com/samhotchkiss/trackshare/internal/feed"
	"github.com/samhotchkiss/trackshare/internal/models"
	"github.com/samhotchkiss/trackshare/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeTrackStore struct {
	mu sync.Mutex

	artists    []string
	artistsErr error
	genre      string
	genreErr   error
	byArtist   []models.TrackCandidate
	byArtErr   error
	friends    []models.TrackCandidate
	friendsErr error
	mood       []models.TrackCandidate
	moodErr    error
	trending   []models.TrackCandidate
	trendErr   error

	calls       []string
	friendSince time.Time
	moodArgs    [2]string
}

func (f *fakeTrackStore) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeTrackStore) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeTrackStore) TopArtists(_ context.Context, _ string, _ int) ([]string, error) {
	f.record("TopArtists")
	return f.artists, f.artistsErr
}

func (f *fakeTrackStore) TopGenre(_ context.Context, _ string) (string, error) {
	f.record("TopGenre")
	return f.genre, f.genreErr
}

func (f *fakeTrackStore) PostsByArtists(_ context.Context, _ string, _ []string, limit int) ([]models.TrackCandidate, error) {
	f.record("PostsByArtists")
	return capCandidates(f.byArtist, limit), f.byArtErr
}

func (f *fakeTrackStore) FriendTracks(_ context.Context, _ string, since time.Time, limit int) ([]models.TrackCandidate, error) {
	f.record("FriendTracks")
	f.mu.Lock()
	f.friendSince = since
	f.mu.Unlock()
	return capCandidates(f.friends, limit), f.friendsErr
}

func (f *fakeTrackStore) MoodTracks(_ context.Context, _ string, mood, energy string, limit int) ([]models.TrackCandidate, error) {
	f.record("MoodTracks")
	f.mu.Lock()
	f.moodArgs = [2]string{mood, energy}
	f.mu.Unlock()
	return capCandidates(f.mood, limit), f.moodErr
}

func (f *fakeTrackStore) Trending(_ context.Context, _ time.Time, limit int) ([]models.TrackCandidate, error) {
	f.record("Trending")
	return capCandidates(f.trending, limit), f.trendErr
}

func capCandidates(in []models.TrackCandidate, limit int) []models.TrackCandidate {
	if limit >= 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

type fakeSearcher struct {
	tracks []catalog.Track
	err    error
	genre  string
}

func (f *fakeSearcher) SearchGenre(_ context.Context, genre string, limit int) ([]catalog.Track, error) {
	f.genre = genre
	if f.err != nil {
		return nil, f.err
	}
	if len(f.tracks) > limit {
		return f.tracks[:limit], nil
	}
	return f.tracks, nil
}

func candidates(prefix string, n int) []models.TrackCandidate {
	out := make([]models.TrackCandidate, n)
	for i := range out {
		out[i] = models.TrackCandidate{
			PostID:    fmt.Sprintf("%s-%d", prefix, i),
			Title:     fmt.Sprintf("%s song %d", prefix, i),
			Artist:    prefix + " artist",
			CreatedAt: testNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func newTestBlender(ts *fakeTrackStore, searcher GenreSearcher) *Blender {
	now := func() time.Time { return testNow }
	return NewBlender(
		DefaultStrategies(ts, searcher, now),
		&Trending{Store: ts, Now: now},
		feed.NewAggregator(time.Second, nil),
		nil,
	)
}

func TestBlenderConcatenatesInStrategyOrderWithCaps(t *testing.T) {
	ts := &fakeTrackStore{
		artists:  []string{"similar artist"},
		byArtist: candidates("similar", 8),
		friends:  candidates("friend", 8),
		mood:     candidates("mood", 4),
		trending: candidates("trend", 3),
	}
	searcher := &fakeSearcher{tracks: []catalog.Track{
		{ID: "g0", Title: "genre 0", Artist: "g"},
		{ID: "g1", Title: "genre 1", Artist: "g"},
		{ID: "g2", Title: "genre 2", Artist: "g"},
		{ID: "g3", Title: "genre 3", Artist: "g"},
	}}

	res, err := newTestBlender(ts, searcher).Recommend(context.Background(), Request{
		UserID: "u1",
		Genre:  "shoegaze",
		Mood:   "Chill",
		Limit:  50,
	})
	require.NoError(t, err)

	assert.False(t, res.FellBack)
	assert.Equal(t, 14, res.Total)
	assert.False(t, res.HasMore)

	counts := map[Type]int{}
	var order []Type
	for _, r := range res.Records {
		if counts[r.Type] == 0 {
			order = append(order, r.Type)
		}
		counts[r.Type]++
	}
	assert.Equal(t, []Type{TypeSimilarArtist, TypeTrendingFriends, TypeGenreExploration, TypeMoodBased}, order)
	assert.Equal(t, 5, counts[TypeSimilarArtist])
	assert.Equal(t, 5, counts[TypeTrendingFriends])
	assert.Equal(t, 3, counts[TypeGenreExploration])
	assert.Equal(t, 1, counts[TypeMoodBased])

	assert.Equal(t, "shoegaze", searcher.genre)
	assert.Equal(t, [2]string{"Chill", ""}, ts.moodArgs)
	assert.Equal(t, testNow.Add(-7*24*time.Hour), ts.friendSince)
	assert.False(t, ts.called("Trending"))
	assert.False(t, ts.called("TopGenre"))

	first := res.Records[0]
	assert.Equal(t, 0.85, first.Confidence)
	assert.Equal(t, "Because you listen to similar artist", first.Reason)
}

func TestBlenderDeduplicatesFirstSeenWins(t *testing.T) {
	shared := models.TrackCandidate{PostID: "p1", Title: "Same", Artist: "Band"}
	ts := &fakeTrackStore{
		artists:  []string{"Band"},
		byArtist: []models.TrackCandidate{shared},
		friends: []models.TrackCandidate{
			{PostID: "p2", Title: "Same", Artist: "Band"},
			{PostID: "p3", Title: "same", Artist: "Band"},
		},
	}

	res, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{UserID: "u1", Limit: 20})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "p1", res.Records[0].ID)
	assert.Equal(t, TypeSimilarArtist, res.Records[0].Type)
	assert.Equal(t, "p3", res.Records[1].ID)
}

func TestBlenderPartialFailureKeepsOtherStrategies(t *testing.T) {
	ts := &fakeTrackStore{
		artistsErr: errors.New("db down"),
		friends:    candidates("friend", 2),
		trending:   candidates("trend", 2),
	}

	res, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{UserID: "u1", Limit: 20})
	require.NoError(t, err)
	assert.False(t, res.FellBack)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.Equal(t, TypeTrendingFriends, r.Type)
	}
	assert.False(t, ts.called("Trending"))
}

func TestBlenderFallsBackWhenEmpty(t *testing.T) {
	ts := &fakeTrackStore{trending: candidates("trend", 3)}

	res, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{UserID: "u1", Limit: 20})
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	require.Len(t, res.Records, 3)
	for _, r := range res.Records {
		assert.Equal(t, TypeTrending, r.Type)
		assert.Equal(t, 0.5, r.Confidence)
	}
}

func TestBlenderFallsBackWhenAllStrategiesFail(t *testing.T) {
	boom := errors.New("boom")
	ts := &fakeTrackStore{
		artistsErr: boom,
		friendsErr: boom,
		moodErr:    boom,
		trending:   candidates("trend", 1),
	}

	res, err := newTestBlender(ts, &fakeSearcher{err: boom}).Recommend(context.Background(), Request{
		UserID: "u1",
		Genre:  "jazz",
		Mood:   "calm",
		Limit:  20,
	})
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	require.Len(t, res.Records, 1)
}

func TestBlenderErrorsWhenEverythingFails(t *testing.T) {
	boom := errors.New("boom")
	ts := &fakeTrackStore{
		artistsErr: boom,
		friendsErr: boom,
		moodErr:    boom,
		trendErr:   boom,
	}

	_, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{UserID: "u1", Mood: "calm", Limit: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllStrategiesFailed))
}

func TestBlenderEmptyWhenFallbackFailsAfterEmptyStrategies(t *testing.T) {
	ts := &fakeTrackStore{trendErr: errors.New("boom")}

	res, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{UserID: "u1", Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Equal(t, 0, res.Total)
	assert.False(t, res.FellBack)
}

func TestBlenderTrendingOnlySkipsPersonalizedStrategies(t *testing.T) {
	ts := &fakeTrackStore{
		artists:  []string{"x"},
		byArtist: candidates("similar", 2),
		friends:  candidates("friend", 2),
		trending: candidates("trend", 4),
	}

	res, err := newTestBlender(ts, nil).Recommend(context.Background(), Request{
		UserID:       "u1",
		Mood:         "happy",
		Limit:        2,
		TrendingOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.True(t, res.HasMore)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.Equal(t, TypeTrending, r.Type)
	}
	assert.False(t, ts.called("TopArtists"))
	assert.False(t, ts.called("FriendTracks"))
	assert.False(t, ts.called("MoodTracks"))
	assert.True(t, ts.called("Trending"))
}

func TestBlenderWindowsBlendedList(t *testing.T) {
	ts := &fakeTrackStore{
		artists:  []string{"x"},
		byArtist: candidates("similar", 5),
		friends:  candidates("friend", 5),
	}
	b := newTestBlender(ts, nil)

	full, err := b.Recommend(context.Background(), Request{UserID: "u1", Limit: 50})
	require.NoError(t, err)
	require.Len(t, full.Records, 10)

	page, err := b.Recommend(context.Background(), Request{UserID: "u1", Offset: 3, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	assert.True(t, page.HasMore)
	assert.Equal(t, full.Records[3:7], page.Records)

	empty, err := b.Recommend(context.Background(), Request{UserID: "u1", Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, empty.Records)
	assert.Equal(t, 10, empty.Total)
}

func TestGenreExplorationUsesTopGenre(t *testing.T) {
	ts := &fakeTrackStore{genre: "dream pop"}
	searcher := &fakeSearcher{tracks: []catalog.Track{{ID: "c1", Title: "Space Song", Artist: "Beach House", URL: "https://open.spotify.com/track/c1"}}}
	s := &GenreExploration{Store: ts, Catalog: searcher}

	records, err := s.Recommend(context.Background(), Request{UserID: "u1"}, s.Cap())
	require.NoError(t, err)
	assert.Equal(t, "dream pop", searcher.genre)
	require.Len(t, records, 1)
	assert.Equal(t, "Explore more dream pop", records[0].Reason)
	assert.Equal(t, 0.6, records[0].Confidence)
	assert.Equal(t, "https://open.spotify.com/track/c1", records[0].URL)
}

func TestGenreExplorationWithoutHistoryIsEmpty(t *testing.T) {
	ts := &fakeTrackStore{genreErr: store.ErrNotFound}
	s := &GenreExploration{Store: ts, Catalog: &fakeSearcher{}}

	records, err := s.Recommend(context.Background(), Request{UserID: "u1"}, 3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenreExplorationWithoutCatalogFails(t *testing.T) {
	s := &GenreExploration{Store: &fakeTrackStore{}}
	_, err := s.Recommend(context.Background(), Request{UserID: "u1", Genre: "jazz"}, 3)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

func TestMoodBasedSkipsWithoutMood(t *testing.T) {
	ts := &fakeTrackStore{mood: candidates("mood", 1)}
	s := &MoodBased{Store: ts}

	records, err := s.Recommend(context.Background(), Request{UserID: "u1", Mood: "  "}, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, ts.called("MoodTracks"))

	records, err = s.Recommend(context.Background(), Request{UserID: "u1", Mood: "Upbeat", Energy: "high"}, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Matches your upbeat mood", records[0].Reason)
	assert.Equal(t, [2]string{"Upbeat", "high"}, ts.moodArgs)
}

func TestSimilarArtistWithoutHistoryIsEmpty(t *testing.T) {
	ts := &fakeTrackStore{}
	s := &SimilarArtist{Store: ts}

	records, err := s.Recommend(context.Background(), Request{UserID: "u1"}, 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, ts.called("PostsByArtists"))
}

func TestTrendingFriendsReason(t *testing.T) {
	ts := &fakeTrackStore{friends: []models.TrackCandidate{
		{PostID: "a", Title: "A", Artist: "x", Engagement: 3},
		{PostID: "b", Title: "B", Artist: "x", Engagement: 1},
	}}
	s := &TrendingFriends{Store: ts, Now: func() time.Time { return testNow }}

	records, err := s.Recommend(context.Background(), Request{UserID: "u1"}, 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "3 plays and likes from your friends this week", records[0].Reason)
	assert.Equal(t, "Popular with your friends this week", records[1].Reason)
}

func TestDedupAndWindow(t *testing.T) {
	in := []Record{
		{ID: "1", Title: "A", Artist: "x"},
		{ID: "2", Title: "B", Artist: "x"},
		{ID: "3", Title: "A", Artist: "x"},
		{ID: "4", Title: "A", Artist: "y"},
	}
	out := Dedup(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"1", "2", "4"}, []string{out[0].ID, out[1].ID, out[2].ID})

	w := Window(out, 1, 1)
	assert.Equal(t, 3, w.Total)
	assert.True(t, w.HasMore)
	require.Len(t, w.Records, 1)
	assert.Equal(t, "2", w.Records[0].ID)

	w = Window(out, 5, 10)
	assert.Empty(t, w.Records)
	assert.False(t, w.HasMore)
}
