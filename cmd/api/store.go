package main

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/repository"
	"go.uber.org/zap"
)

// openStore подключает хранилище ссылок по DB_DRIVER и применяет схему
func openStore(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (repository.LinkRepository, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := repository.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.MigrateSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("Connected to SQLite", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLiteLinkRepository(db), func() { _ = db.Close() }, nil

	case "postgres":
		db, err := repository.NewPostgresDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.MigratePostgres(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		return repository.NewLinkRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
