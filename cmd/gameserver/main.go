// Package main provides the arena server binary: the HTTP and websocket
// API in front of the combat engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arenaserver"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/game/session"
	"github.com/cory-johannsen/arena/internal/identity"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage"
	filestore "github.com/cory-johannsen/arena/internal/storage/file"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	redisstore "github.com/cory-johannsen/arena/internal/storage/redis"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cryptoSrc := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(cryptoSrc, logger)

	// Load NPC templates and resolve the configured spawn list.
	var templates []*npc.Template
	if len(cfg.NPC.Spawns) > 0 {
		tmplStart := time.Now()
		loaded, err := npc.LoadTemplates(cfg.NPC.TemplatesDir)
		if err != nil {
			logger.Fatal("loading npc templates", zap.Error(err))
		}
		templates, err = selectTemplates(loaded, cfg.NPC.Spawns)
		if err != nil {
			logger.Fatal("resolving npc spawns", zap.Error(err))
		}
		logger.Info("npc templates loaded",
			zap.Int("available", len(loaded)),
			zap.Int("spawned", len(templates)),
			zap.Duration("elapsed", time.Since(tmplStart)),
		)
	}
	controller := npc.NewController(templates, logger)
	spawner := npc.NewSpawner(templates, logger)

	// Select the snapshot and account stores by configured backend.
	// Postgres holds accounts in its own table; the file and redis
	// backends share the JSON account file.
	var (
		store    storage.Store
		accounts identity.AccountStore
		pool     *postgres.Pool
	)
	storeStart := time.Now()
	switch cfg.Storage.Backend {
	case "file":
		fs, err := filestore.New(cfg.Storage.FileDir, logger)
		if err != nil {
			logger.Fatal("opening file store", zap.Error(err))
		}
		store = fs
		accounts, err = identity.NewFileStore(cfg.Storage.AccountsFile)
		if err != nil {
			logger.Fatal("opening account store", zap.Error(err))
		}

	case "postgres":
		pool, err = postgres.NewPool(ctx, cfg.Storage.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		store = postgres.NewSnapshotRepository(pool.DB())
		accounts = postgres.NewAccountRepository(pool.DB())

	case "redis":
		rs, err := redisstore.New(ctx, cfg.Storage.Redis)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		store = rs
		accounts, err = identity.NewFileStore(cfg.Storage.AccountsFile)
		if err != nil {
			logger.Fatal("opening account store", zap.Error(err))
		}
	}
	logger.Info("storage ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.Duration("elapsed", time.Since(storeStart)),
	)

	ids := identity.NewService(accounts)
	engine := combat.NewEngine(cfg.Arena, roller, controller, spawner, store, logger)

	restored, err := engine.RestoreAll(ctx)
	if err != nil {
		logger.Fatal("restoring games", zap.Error(err))
	}

	// The default game serves every request that names no game_id. The
	// oldest restored game keeps that role across restarts.
	var defaultGame *combat.Game
	if games := engine.Games(); len(games) > 0 {
		defaultGame = games[0]
	} else {
		defaultGame, err = engine.CreateGame(ctx, "Arena")
		if err != nil {
			logger.Fatal("creating default game", zap.Error(err))
		}
	}

	srv := arenaserver.NewServer(arenaserver.Options{
		Server:        cfg.Server,
		Arena:         cfg.Arena,
		Engine:        engine,
		DefaultGameID: defaultGame.ID(),
		Identity:      ids,
		Sessions:      session.NewManager(),
		Logger:        logger,
	})

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	lifecycle.Add("http", srv)

	if pool != nil {
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
	}

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("default_game_id", defaultGame.ID()),
		zap.Int("restored_games", restored),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// selectTemplates resolves the configured spawn list against the loaded
// template set, preserving spawn order.
func selectTemplates(loaded []*npc.Template, spawns []config.NPCSpawnConfig) ([]*npc.Template, error) {
	byID := make(map[string]*npc.Template, len(loaded))
	for _, tmpl := range loaded {
		byID[tmpl.ID] = tmpl
	}

	out := make([]*npc.Template, 0, len(spawns))
	for _, sc := range spawns {
		tmpl, ok := byID[sc.Template]
		if !ok {
			return nil, fmt.Errorf("npc.spawns references unknown template %q", sc.Template)
		}
		out = append(out, tmpl)
	}
	return out, nil
}
