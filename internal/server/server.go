package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"vaultboard/internal/config"
	"vaultboard/internal/handler"
	"vaultboard/internal/middleware"
	"vaultboard/internal/model"
	"vaultboard/internal/notify"
	"vaultboard/internal/reconcile"
	"vaultboard/internal/repository"
	"vaultboard/internal/watcher"
	"vaultboard/migrations"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	Watcher *watcher.Controller
	Hub     *notify.Hub
}

func Init(cfg *config.Config) (*Server, error) {
	logger := setupLogger(cfg)

	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("❌ failed to run migrations: %w", err)
	}
	log.Println("✅ Database schema is up to date")

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	boardRepo := repository.NewBoardRepository(db)
	cardRepo := repository.NewCardRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	// Initialize the sync engine and the file watcher. The writer reports
	// its writes to the watcher so the watch loop never reconciles our own
	// edits twice.
	recon := reconcile.NewReconciler(syncRepo, cfg.VaultDir, logger)
	hub := notify.NewHub(logger)
	ctrl := watcher.New(recon, hub, cfg.VaultDir, cfg.WatchDebounce, cfg.ReplayDelay, logger)
	writer := reconcile.NewFileWriter(cfg.VaultDir, ctrl, logger)

	// Initialize handlers
	authHandler, err := handler.NewAuthHandler(cfg.AdminPassword, []byte(cfg.JWTSecret), cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to initialize auth: %w", err)
	}
	boardHandler := handler.NewBoardHandler(boardRepo, writer, recon, syncRepo, ctrl, hub)
	cardHandler := handler.NewCardHandler(cardRepo, boardRepo, writer, recon, hub)
	wsHandler := handler.NewWSHandler(hub, []byte(cfg.JWTSecret))

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.GET("/ws", wsHandler.Subscribe)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Board routes
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards", boardHandler.GetAll)
		authorized.GET("/boards/:id", boardHandler.GetByID)
		authorized.PUT("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)
		authorized.POST("/boards/:id/sync", boardHandler.Sync)

		// Card routes
		authorized.GET("/boards/:id/cards", cardHandler.GetByBoardID)
		authorized.POST("/boards/:id/cards", cardHandler.Create)
		authorized.PUT("/cards/:id", cardHandler.Update)
		authorized.DELETE("/cards/:id", cardHandler.Delete)
		authorized.POST("/cards/:id/move", cardHandler.Move)
	}

	// Bring the database in line with the vault and start watching
	boards, err := boardRepo.GetAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("❌ failed to load boards: %w", err)
	}
	if err := ctrl.Start(boards); err != nil {
		return nil, fmt.Errorf("❌ failed to start watcher: %w", err)
	}
	if err := syncAll(context.Background(), recon, boards); err != nil {
		logger.WithError(err).Warn("⚠️  Initial sync finished with errors")
	}

	return &Server{
		Engine:  r,
		DB:      db,
		Config:  cfg,
		Watcher: ctrl,
		Hub:     hub,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	s.Watcher.Stop()
	s.Hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}

func setupLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return log.StandardLogger()
}

func runMigrations(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// syncAll reconciles every board once, a few at a time. Per-board failures
// are collected rather than aborting the rest; one bad file must not keep
// the other boards stale.
func syncAll(ctx context.Context, recon *reconcile.Reconciler, boards []model.Board) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	var errs *multierror.Error
	for _, board := range boards {
		g.Go(func() error {
			if _, err := recon.Reconcile(ctx, board); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("board %s: %w", board.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs.ErrorOrNil()
}
