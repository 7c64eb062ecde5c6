// Package storage opens the Result Store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/config"
	"github.com/hamed0406/sitechecker/internal/repo"
	"github.com/hamed0406/sitechecker/internal/repo/memory"
	"github.com/hamed0406/sitechecker/internal/repo/postgres"
	"github.com/hamed0406/sitechecker/internal/repo/sqlite"
)

// Open returns a ready store; the caller owns Close. The schema is not
// touched here, callers run EnsureSchema.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (repo.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		log.Info("store_open", zap.String("driver", config.DriverSQLite), zap.String("path", cfg.Path))
		st, err := sqlite.Open(ctx, cfg.Path, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		log.Info("store_open", zap.String("driver", config.DriverPostgres))
		st, err := postgres.New(ctx, cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		log.Warn("store_open", zap.String("driver", config.DriverMemory), zap.String("note", "rows are lost on exit"))
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
