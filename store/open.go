// store/open.go
package store

import (
	"context"
	"fmt"

	"github.com/ViniZap4/saga-studio/config"
)

// Open returns the Backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath())
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, true)
	default:
		return nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
}

// OpenReadOnly is Open for inspection commands: the sqlite backend skips the
// data directory lock so it works next to a running server.
func OpenReadOnly(ctx context.Context, cfg *config.Config) (Backend, error) {
	if cfg.Store == config.StoreSQLite {
		return OpenSQLiteReadOnly(cfg.SQLitePath())
	}
	return Open(ctx, cfg)
}
