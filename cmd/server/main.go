package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/api"
	"github.com/samhotchkiss/trackshare/internal/automigrate"
	"github.com/samhotchkiss/trackshare/internal/catalog"
	"github.com/samhotchkiss/trackshare/internal/config"
	"github.com/samhotchkiss/trackshare/internal/feed"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/recommend"
	"github.com/samhotchkiss/trackshare/internal/scheduler"
	"github.com/samhotchkiss/trackshare/internal/share"
	"github.com/samhotchkiss/trackshare/internal/store"
	"github.com/samhotchkiss/trackshare/internal/ws"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		if cfg.AutoMigrate {
			if err := automigrate.Run(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
				return err
			}
		}
		conn, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		db = conn
	} else {
		logger.Warn("DATABASE_URL not set; data endpoints will answer 503")
	}

	wired, err := newApp(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	go wired.hub.Run(ctx)
	if wired.sweeper != nil {
		go wired.sweeper.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wired.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	logger.Info("TrackShare starting", "port", cfg.Port, "env", cfg.Environment)
	return serve(ctx, srv, shutdownTimeout)
}

type app struct {
	handler http.Handler
	hub     *ws.Hub
	sweeper *scheduler.ShareLinkSweeper
}

// newApp wires services onto the router. A nil db leaves the data routes
// unconfigured.
func newApp(ctx context.Context, cfg config.Config, db *sql.DB, logger *log.Logger) (*app, error) {
	hub := ws.NewHub()
	deps := api.RouterDeps{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret),
		Hub:            hub,
		AllowedOrigins: cfg.WSAllowedOrigins,
		Version:        os.Getenv("VERSION"),
		Logger:         logger,
	}
	out := &app{hub: hub}

	if db != nil {
		aggregator := feed.NewAggregator(cfg.SourceTimeout, logger)

		activityStore := store.NewActivityStore(db)
		notificationStore := store.NewNotificationStore(db)
		recommendationStore := store.NewRecommendationStore(db)
		shareLinks := store.NewShareLinkStore(db)

		var searcher recommend.GenreSearcher
		spotify, err := catalog.NewSpotifyClient(ctx, cfg.Spotify, logger)
		switch {
		case errors.Is(err, catalog.ErrNotConfigured):
			logger.Info("spotify catalog disabled; genre exploration will report no catalog")
		case err != nil:
			return nil, err
		default:
			searcher = spotify
		}

		deps.Activity = feed.NewActivityService(activityStore, aggregator, cfg.ActivityFetchCap, logger)
		deps.Notifications = feed.NewNotificationService(notificationStore, aggregator, cfg.ActivityFetchCap, logger)
		deps.Recommendations = recommend.NewBlender(
			recommend.DefaultStrategies(recommendationStore, searcher, nil),
			&recommend.Trending{Store: recommendationStore},
			aggregator,
			logger,
		)
		deps.Shares = share.NewService(shareLinks, catalog.NewOEmbedClient(nil, nil), cfg.Share.TTL, cfg.Share.BaseURL, logger)

		schedule, err := scheduler.ParseSchedule(cfg.Share.SweepSchedule, cfg.Share.SweepInterval, cfg.Share.SweepTimezone)
		if err != nil {
			return nil, fmt.Errorf("share sweep schedule: %w", err)
		}
		out.sweeper = scheduler.NewShareLinkSweeper(shareLinks, schedule, logger)
	}

	out.handler = api.NewRouter(deps)
	return out, nil
}

// serve runs srv until ctx ends, then drains connections for up to timeout.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
