package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/cache"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
// Services receive it explicitly instead of reaching into globals.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
	}
}
