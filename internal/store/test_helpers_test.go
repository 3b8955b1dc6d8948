package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

const testDBURLKey = "TRACKSHARE_TEST_DATABASE_URL"

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	connStr := os.Getenv(testDBURLKey)
	if connStr == "" {
		t.Skipf("set %s to a dedicated test database", testDBURLKey)
	}
	return connStr
}

func getMigrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	return dir
}

func setupTestDatabase(t *testing.T, connStr string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	m, err := migrate.New("file://"+getMigrationsDir(t), connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = m.Close()
	})

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func createTestProfile(t *testing.T, db *sql.DB, username string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		"INSERT INTO profiles (username, display_name) VALUES ($1, $2) RETURNING id",
		username,
		"Display "+username,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

type testPost struct {
	title   string
	artist  string
	genre   string
	mood    string
	energy  string
	created time.Time
}

func createTestPost(t *testing.T, db *sql.DB, userID string, p testPost) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO posts (user_id, track_title, artist, genre, mood, energy, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7) RETURNING id`,
		userID, p.title, p.artist, p.genre, p.mood, p.energy, p.created,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestLike(t *testing.T, db *sql.DB, userID, postID string, created time.Time) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		"INSERT INTO likes (user_id, post_id, created_at) VALUES ($1, $2, $3) RETURNING id",
		userID, postID, created,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestComment(t *testing.T, db *sql.DB, userID, postID, content string, created time.Time) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		"INSERT INTO comments (user_id, post_id, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		userID, postID, content, created,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestFriendship(t *testing.T, db *sql.DB, userID, friendID, status string, created time.Time) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO friendships (user_id, friend_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		userID, friendID, status, created,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
