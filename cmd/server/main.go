package main

import (
	"context"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/cache"
	"github.com/orbitlabs/orbit-server/internal/config"
	"github.com/orbitlabs/orbit-server/internal/db"
	"github.com/orbitlabs/orbit-server/internal/logger"
	"github.com/orbitlabs/orbit-server/internal/realtime"
	"github.com/orbitlabs/orbit-server/internal/server"
	"github.com/orbitlabs/orbit-server/internal/service/chat"
	"github.com/orbitlabs/orbit-server/internal/service/connect"
	"github.com/orbitlabs/orbit-server/internal/service/discovery"
	"github.com/orbitlabs/orbit-server/internal/service/onboarding"
	"github.com/orbitlabs/orbit-server/internal/service/rooms"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	hub := realtime.NewHub()
	placement := rooms.NewService(appCtx, nil)

	registrars := []server.Registrar{
		discovery.NewRegistrar(appCtx),
		connect.NewRegistrar(appCtx),
		rooms.NewRegistrar(appCtx, placement),
		onboarding.NewRegistrar(appCtx, placement),
		chat.NewRegistrar(appCtx, hub),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedDemoData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
