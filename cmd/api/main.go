package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/hashlink/internal/config"
	"github.com/SergeiKhy/hashlink/internal/handler"
	"github.com/SergeiKhy/hashlink/internal/repository"
	"github.com/SergeiKhy/hashlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Подключение к БД
	linkRepo, closeDB, err := openLinkRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to open link store", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer closeDB()
	logger.Info("Link store ready", zap.String("driver", cfg.DB.Driver))

	// Подключение к Redis (опционально)
	cacheRepo := repository.NewNopCache()
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		cacheRepo = repository.NewCacheRepository(redis)
		logger.Info("Connected to Redis")
	}

	// Инициализация сервисов
	linkService := service.NewLinkService(linkRepo, cacheRepo, service.LinkServiceConfig{
		CacheTTL: cfg.Redis.TTL,
		Logger:   logger,
	})
	redirectService := service.NewRedirectService(linkRepo, cacheRepo, cfg.Redis.TTL, logger)

	if len(cfg.Auth.APIKeys) > 0 {
		logger.Info("API key authentication enabled for /stats", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	}

	// Настройка роутера
	router := handler.NewRouter(linkService, redirectService, cfg.Auth.APIKeys, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	return zcfg.Build()
}

// openLinkRepository connects to the configured store and applies migrations.
func openLinkRepository(cfg *config.Config) (repository.LinkRepository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewLinkRepository(db), db.Close, nil

	default:
		db, err := repository.NewSQLiteDB(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewSQLiteLinkRepository(db), func() { db.Close() }, nil
	}
}
