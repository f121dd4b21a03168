package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/commonsclub/groups-api/internal/adapters/httpapi"
	"github.com/commonsclub/groups-api/internal/adapters/memory"
	"github.com/commonsclub/groups-api/internal/adapters/postgres"
	pgapprepo "github.com/commonsclub/groups-api/internal/adapters/postgres/apprepo"
	pggrouprepo "github.com/commonsclub/groups-api/internal/adapters/postgres/grouprepo"
	pgmembershiprepo "github.com/commonsclub/groups-api/internal/adapters/postgres/membershiprepo"
	pguserrepo "github.com/commonsclub/groups-api/internal/adapters/postgres/userrepo"
	"github.com/commonsclub/groups-api/internal/app/applications"
	"github.com/commonsclub/groups-api/internal/app/directory"
	"github.com/commonsclub/groups-api/internal/app/groups"
	"github.com/commonsclub/groups-api/internal/platform/config"
	apprepoport "github.com/commonsclub/groups-api/internal/ports/out/apprepo"
	grouprepoport "github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	membershiprepoport "github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
	userrepoport "github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log config: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var (
		userRepo       userrepoport.Repository
		groupRepo      grouprepoport.Repository
		membershipRepo membershiprepoport.Repository
		appRepo        apprepoport.Repository
		cleanup        func()
	)

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			logger.Fatal("postgres setup failed", zap.Error(err))
		}
		cleanup = pool.Close

		userRepo = pguserrepo.NewRepo(pool)
		groupRepo = pggrouprepo.NewRepo(pool)
		membershipRepo = pgmembershiprepo.NewRepo(pool)
		appRepo = pgapprepo.NewRepo(pool)
	default:
		store := memory.NewStore()
		userRepo = store.Users()
		groupRepo = store.Groups()
		membershipRepo = store.Memberships()
		appRepo = store.Applications()
	}

	if cleanup != nil {
		defer cleanup()
	}

	directorySvc := directory.NewService(userRepo)
	groupSvc := groups.NewService(groupRepo, membershipRepo, userRepo)
	applicationSvc := applications.NewService(appRepo, userRepo)

	api := httpapi.NewServer(directorySvc, groupSvc, applicationSvc)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening",
			zap.String("addr", cfg.Addr),
			zap.String("storage", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownGraceSeconds)*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
