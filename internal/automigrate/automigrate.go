// Package automigrate runs pending database migrations on startup.
package automigrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/samhotchkiss/trackshare/internal/logging"
)

// ErrDirty is returned when a previous migration failed half-way. Fix the
// schema by hand and run `migrate force <version>`.
var ErrDirty = errors.New("database schema is dirty")

// New builds a migrator over the migrations in dir. The caller must Close it.
func New(databaseURL, dir string) (*migrate.Migrate, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	sourceURL, err := SourceURL(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrator: %w", err)
	}
	return m, nil
}

// SourceURL converts a migrations directory into a file:// source URL.
func SourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("read migrations dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("migrations dir %s is not a directory", abs)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Run applies all pending up migrations from dir.
func Run(databaseURL, dir string, logger *log.Logger) error {
	logger = logging.OrDiscard(logger).With("component", "automigrate")

	m, err := New(databaseURL, dir)
	if err != nil {
		return err
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Warn("close migrator", "source_err", sourceErr, "db_err", dbErr)
		}
	}()

	before, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, before)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database up to date", "version", before)
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("applied migrations", "from", before, "to", after)
	return nil
}
