package main

import (
	"context"
	"fmt"

	"github.com/dtroode/recipebox-server/internal/config"
	"github.com/dtroode/recipebox-server/internal/database"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
	"github.com/dtroode/recipebox-server/internal/repository/memory"
	"github.com/dtroode/recipebox-server/internal/repository/sqlstore"
)

// openConnection opens the SQL database for the configured driver.
// It returns nil for the memory driver.
func openConnection(ctx context.Context, cfg config.Config) (*database.Connection, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return database.NewPostgres(ctx, cfg.Database.DSN)
	case config.DriverSQLite:
		return database.NewSQLite(ctx, cfg.SQLite.Path)
	case config.DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openStore returns the account store for the configured driver with its schema migrated,
// and a close function for the underlying connection.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (model.AccountStore, func() error, error) {
	conn, err := openConnection(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	if conn == nil {
		log.Warn("using in-memory store, accounts are lost on restart")
		return memory.NewAccountStore(), func() error { return nil }, nil
	}

	if err := database.Migrate(ctx, conn.DB, conn.Dialect, log); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return sqlstore.NewAccountRepository(conn.DB, conn.Dialect), conn.Close, nil
}
