package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/samhotchkiss/trackshare/internal/config"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/store"
)

type seedPost struct {
	title, artist, genre, mood, energy string
	popularity                         int
	age                                time.Duration
}

var demoPosts = map[string][]seedPost{
	"maya": {
		{"Only Shallow", "My Bloody Valentine", "shoegaze", "dreamy", "high", 61, 48 * time.Hour},
		{"Alison", "Slowdive", "shoegaze", "calm", "low", 58, 20 * time.Hour},
	},
	"jon": {
		{"When the Sun Hits", "Slowdive", "shoegaze", "dreamy", "medium", 64, 6 * time.Hour},
		{"Teen Age Riot", "Sonic Youth", "indie", "energetic", "high", 66, 3 * time.Hour},
		{"Blue Monday", "New Order", "synthpop", "energetic", "high", 72, time.Hour},
	},
}

func main() {
	logger := logging.New(os.Stderr, "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer db.Close()

	ids, err := seed(ctx, db, time.Now().UTC())
	if err != nil {
		logger.Fatal("seed failed", "err", err)
	}
	logger.Info("seeded demo data", "profiles", len(ids))

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; skipping demo tokens")
		for username, id := range ids {
			fmt.Printf("%s\t%s\n", username, id)
		}
		return
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	for _, username := range []string{"maya", "jon"} {
		token, err := auth.IssueToken(ids[username], 7*24*time.Hour)
		if err != nil {
			logger.Fatal("issue token", "err", err)
		}
		fmt.Printf("%s\t%s\t%s\n", username, ids[username], token)
	}
}

func seed(ctx context.Context, db *sql.DB, now time.Time) (map[string]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := map[string]string{}
	for _, username := range []string{"maya", "jon"} {
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO profiles (username, display_name)
			VALUES ($1, $2)
			ON CONFLICT (username) DO UPDATE SET display_name = EXCLUDED.display_name
			RETURNING id`,
			username, "Demo "+username,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("create profile %s: %w", username, err)
		}
		ids[username] = id
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO friendships (user_id, friend_id, status, created_at, updated_at)
		VALUES ($1, $2, 'accepted', $3, $3)
		ON CONFLICT (user_id, friend_id) DO NOTHING`,
		ids["maya"], ids["jon"], now.Add(-72*time.Hour),
	); err != nil {
		return nil, fmt.Errorf("create friendship: %w", err)
	}

	postIDs := map[string][]string{}
	for username, posts := range demoPosts {
		for _, p := range posts {
			var id string
			err := tx.QueryRowContext(ctx, `
				INSERT INTO posts (user_id, track_title, artist, genre, mood, energy, popularity, provider, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 'spotify', $8)
				RETURNING id`,
				ids[username], p.title, p.artist, p.genre, p.mood, p.energy, p.popularity, now.Add(-p.age),
			).Scan(&id)
			if err != nil {
				return nil, fmt.Errorf("create post %q: %w", p.title, err)
			}
			postIDs[username] = append(postIDs[username], id)
		}
	}

	for _, postID := range postIDs["jon"] {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO likes (user_id, post_id, created_at) VALUES ($1, $2, $3)",
			ids["maya"], postID, now.Add(-30*time.Minute),
		); err != nil {
			return nil, fmt.Errorf("create like: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO comments (user_id, post_id, content, created_at) VALUES ($1, $2, $3, $4)",
		ids["jon"], postIDs["maya"][0], "this one never gets old", now.Add(-10*time.Minute),
	); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}
