package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	"github.com/probelab/probelab-app/internal/app/task"
	"github.com/probelab/probelab-app/internal/infra/persistence/database"
	"github.com/probelab/probelab-app/internal/infra/persistence/sqldb"
	"github.com/probelab/probelab-app/internal/infra/router"
	"github.com/probelab/probelab-app/pkg/config"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	auth_handler "github.com/probelab/probelab-app/pkg/handler/auth"
	export_handler "github.com/probelab/probelab-app/pkg/handler/export"
	probe_handler "github.com/probelab/probelab-app/pkg/handler/probe"
	series_handler "github.com/probelab/probelab-app/pkg/handler/series"
	snapshot_handler "github.com/probelab/probelab-app/pkg/handler/snapshot"
	status_handler "github.com/probelab/probelab-app/pkg/handler/status"
	"github.com/probelab/probelab-app/pkg/idgen"
	export_service "github.com/probelab/probelab-app/pkg/service/export"
	probe_service "github.com/probelab/probelab-app/pkg/service/probe"
	series_service "github.com/probelab/probelab-app/pkg/service/series"
	snapshot_service "github.com/probelab/probelab-app/pkg/service/snapshot"
	status_service "github.com/probelab/probelab-app/pkg/service/status"
	user_service "github.com/probelab/probelab-app/pkg/service/user"
	"github.com/probelab/probelab-app/pkg/service/utility"
)

// App bundles the long-lived components of the server process.
type App struct {
	cfg       *config.Config
	engine    *gin.Engine
	scheduler *task.Scheduler
	sqlDB     *sql.DB
}

// Run builds the application and blocks until shutdown.
func Run() {
	app, err := buildApp(context.Background())
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	app.serve()
}

// buildApp assembles the app in phases: config, storage, repositories,
// identity, services, HTTP surface.
func buildApp(ctx context.Context) (*App, error) {
	// Phase 1: configuration.
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Phase 2: storage.
	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	driver := cfg.GetString(config.KeyDBType)
	switch driver {
	case "", "sqlite":
		driver = "sqlite3"
	case "postgresql":
		driver = "postgres"
	}

	redisClient := database.NewRedisClient(ctx, cfg)
	cacheSvc := utility.NewCacheServiceWithFallback(redisClient)

	// Phase 3: repositories.
	probeRepo := sqldb.NewProbeRepository(db, driver)
	statusRepo := sqldb.NewStatusRepository(db, driver)
	priorityRepo := sqldb.NewPriorityRepository(db, driver)
	snapshotRepo := sqldb.NewSnapshotRepository(db, driver)
	userRepo := sqldb.NewUserRepository(db, driver)
	settingRepo := sqldb.NewSettingRepository(db, driver)

	// Phase 4: identity. The public ID alphabet seed is minted once and
	// persisted so IDs stay stable across restarts.
	if err := initPublicIDs(ctx, settingRepo); err != nil {
		return nil, err
	}
	jwtSecret, err := loadJWTSecret(ctx, cfg, settingRepo)
	if err != nil {
		return nil, err
	}

	// Phase 5: services.
	snapshotSvc, err := snapshot_service.NewService(snapshotRepo, probeRepo,
		storageDir(cfg, config.KeySnapshotDir, "data/snapshots"))
	if err != nil {
		return nil, err
	}
	probeSvc := probe_service.NewService(probeRepo, statusRepo, snapshotSvc, cacheSvc)
	seriesSvc := series_service.NewService(series_service.NewExpander(), probeRepo, snapshotSvc, cacheSvc)
	statusSvc := status_service.NewService(statusRepo, priorityRepo)
	exportSvc, err := export_service.NewService(probeRepo, snapshotSvc,
		storageDir(cfg, config.KeyExportDir, "data/exports"))
	if err != nil {
		return nil, err
	}
	userSvc := user_service.NewService(userRepo, jwtSecret)

	if err := userSvc.EnsureAdmin(ctx,
		cfg.GetString(config.KeyAdminEmail), cfg.GetString(config.KeyAdminPassword)); err != nil {
		return nil, err
	}

	// Phase 6: HTTP surface and background jobs.
	mw := middleware.NewMiddleware(jwtSecret)
	r := router.NewRouter(
		auth_handler.NewHandler(userSvc),
		probe_handler.NewHandler(probeSvc),
		series_handler.NewHandler(seriesSvc),
		status_handler.NewHandler(statusSvc),
		snapshot_handler.NewHandler(snapshotSvc),
		export_handler.NewHandler(exportSvc),
		mw,
	)

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	r.Setup(engine)

	scheduler := task.NewScheduler(probeSvc, snapshotSvc)
	scheduler.RegisterJobs()

	return &App{
		cfg:       cfg,
		engine:    engine,
		scheduler: scheduler,
		sqlDB:     db,
	}, nil
}

// serve runs the HTTP server and the scheduler until SIGINT/SIGTERM.
func (a *App) serve() {
	port := a.cfg.GetInt(config.KeyServerPort)
	if port == 0 {
		port = 8091
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: a.engine,
	}

	a.scheduler.Start()

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if err := a.sqlDB.Close(); err != nil {
		log.Printf("closing database: %v", err)
	}
	log.Println("bye")
}

const (
	settingPublicIDSeed = "public_id_seed"
	settingJWTSecret    = "jwt_secret"
)

func initPublicIDs(ctx context.Context, settings repository.SettingRepository) error {
	seed, err := settings.Get(ctx, settingPublicIDSeed)
	if errors.Is(err, repository.ErrNotFound) {
		seed, err = idgen.GenerateRandomSeed()
		if err != nil {
			return fmt.Errorf("generating public id seed: %w", err)
		}
		if err = settings.Set(ctx, settingPublicIDSeed, seed); err != nil {
			return fmt.Errorf("persisting public id seed: %w", err)
		}
	} else if err != nil {
		return err
	}
	return idgen.InitEncoder(seed)
}

// loadJWTSecret prefers the configured secret and otherwise mints one,
// persisted so sessions survive restarts.
func loadJWTSecret(ctx context.Context, cfg *config.Config, settings repository.SettingRepository) ([]byte, error) {
	if secret := cfg.GetString(config.KeyJWTSecret); secret != "" {
		return []byte(secret), nil
	}

	stored, err := settings.Get(ctx, settingJWTSecret)
	if err == nil {
		return []byte(stored), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating jwt secret: %w", err)
	}
	secret := hex.EncodeToString(raw)
	if err := settings.Set(ctx, settingJWTSecret, secret); err != nil {
		return nil, fmt.Errorf("persisting jwt secret: %w", err)
	}
	return []byte(secret), nil
}

func storageDir(cfg *config.Config, key, fallback string) string {
	if dir := cfg.GetString(key); dir != "" {
		return dir
	}
	return fallback
}
