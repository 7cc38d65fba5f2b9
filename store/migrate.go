// store/migrate.go
package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFS embed.FS

// migrateUp applies the embedded migrations in migrations/<dir> to databaseURL.
func migrateUp(dir, databaseURL string) error {
	src, err := iofs.New(migrationFS, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", dir, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init %s migrations: %w", dir, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", dir, err)
	}
	return nil
}

// sqliteMigrationURL builds a golang-migrate URL for a sqlite file.
func sqliteMigrationURL(path string) string {
	return "sqlite://" + path
}

// pgxMigrationURL rewrites a postgres URL to the pgx/v5 migrate scheme.
func pgxMigrationURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
