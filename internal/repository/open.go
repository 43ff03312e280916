package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/config"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/repository/file"
	"github.com/Rrens/admission-chat/internal/repository/memory"
	"github.com/Rrens/admission-chat/internal/repository/mongo"
	"github.com/Rrens/admission-chat/internal/repository/postgres"
	"github.com/Rrens/admission-chat/internal/repository/redis"
	"github.com/Rrens/admission-chat/internal/repository/sqldb"
)

// Open connects the key-value backend selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config) (domain.KVStore, error) {
	driver := cfg.Storage.Driver
	log.Info().Str("driver", driver).Msg("Opening chat history storage")

	switch driver {
	case "", "memory":
		return memory.NewStore(), nil

	case "file":
		return file.NewStore(cfg.Storage.Path)

	case "sqlite":
		path := cfg.Storage.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "chat.db")
		}
		return sqldb.OpenSQLite(ctx, path)

	case "mysql":
		return sqldb.OpenMySQL(ctx, cfg.Storage.DSN)

	case "postgres":
		if cfg.Database.Migrations {
			if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil

	case "redis":
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redis.NewOwnedStore(client), nil

	case "mongo":
		return mongo.Connect(ctx, cfg.Mongo)

	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
