package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/config"
	"devboard-trash/internal/database"
	"devboard-trash/internal/event"
	"devboard-trash/internal/handler"
	"devboard-trash/internal/livestore"
	"devboard-trash/internal/metrics"
	"devboard-trash/internal/middleware"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/restore"
	"devboard-trash/internal/retention"
	"devboard-trash/internal/router"
	"devboard-trash/internal/service"
	"devboard-trash/internal/snapshot"
	"devboard-trash/internal/sweeper"
	"devboard-trash/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	pool := db.Pool
	tombstoneRepo := repository.NewTombstoneRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	blobs, err := blob.NewLocalStore(cfg.BlobRoot)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	codecs, err := snapshot.NewRegistry(
		snapshot.NewAccountCodec(blobs),
		snapshot.NewJobPostingCodec(),
		snapshot.NewChallengeCodec(),
		snapshot.NewArticleCodec(blobs),
		snapshot.NewThreadCodec(),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build snapshot registry: %w", err)
	}

	stores, err := livestore.NewRegistry(
		livestore.NewAccountStore(pool),
		livestore.NewJobPostingStore(pool),
		livestore.NewChallengeStore(pool),
		livestore.NewArticleStore(pool),
		livestore.NewThreadStore(pool),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build live store registry: %w", err)
	}

	overrides := make(map[model.ItemType]time.Duration, len(cfg.RetentionOverrides))
	for name, window := range cfg.RetentionOverrides {
		overrides[model.ItemType(name)] = window
	}
	policy, err := retention.NewPolicy(cfg.RetentionDefault, overrides)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build retention policy: %w", err)
	}

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	trashMetrics := metrics.NewTrashMetrics()
	restoreEngine := restore.NewEngine(tombstoneRepo, codecs, stores, db)
	sw := sweeper.NewSweeper(tombstoneRepo, codecs, trashMetrics, cfg.SweepBatchSize)

	trashService := service.NewTrashService(tombstoneRepo, codecs, stores, policy, restoreEngine, sw, db, bus, trashMetrics)
	auditService := service.NewAuditService(auditRepo)

	trashHandler := handler.NewTrashHandler(trashService, auditService)
	auditHandler := handler.NewAuditHandler(auditService)

	appRouter := router.New(cfg, authMiddleware, authHandler, trashHandler, auditHandler, hub)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go sw.StartTicker(sweepCtx, cfg.SweepInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				sweepCancel()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		// Still run cleanup before reporting.
		for _, cleanup := range a.cleanupFuncs {
			cleanup()
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
