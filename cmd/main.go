package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/config"
	"github.com/LeoDhali007/TaskVerse/internal/handler"
	"github.com/LeoDhali007/TaskVerse/internal/handler/middleware"
	"github.com/LeoDhali007/TaskVerse/internal/realtime"
	"github.com/LeoDhali007/TaskVerse/internal/repository/postgres"
	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/objstore"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := initDB(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database connected")

	redisClient, err := initRedis(cfg)
	if err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("redis connected")

	store, err := objstore.New(context.Background(), objstore.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		PresignTTL:    cfg.Storage.PresignTTL,
	})
	if err != nil {
		logger.Fatal("object storage init failed", zap.Error(err))
	}
	logger.Info("object storage connected", zap.String("bucket", cfg.Storage.Bucket))

	codec, err := token.NewCodec(
		[]byte(cfg.JWT.AccessSecret),
		[]byte(cfg.JWT.RefreshSecret),
		cfg.JWT.AccessTTL,
		cfg.JWT.RefreshTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
	)
	if err != nil {
		logger.Fatal("token codec init failed", zap.Error(err))
	}

	validate := validator.New()

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	hub := realtime.NewHub(logger)
	presence := realtime.NewPresence(redisClient)
	notifier := realtime.NewNotifier(hub, taskRepo, logger)

	authService := service.NewAuthService(userRepo, sessionRepo, codec, logger)
	userService := service.NewUserService(userRepo, sessionRepo, taskRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, taskRepo, logger)
	taskService := service.NewTaskService(taskRepo, categoryRepo, userRepo, notifier, logger)
	uploadService := service.NewUploadService(store, logger)

	authHandler := handler.NewAuthHandler(authService, validate)
	userHandler := handler.NewUserHandler(userService, validate)
	categoryHandler := handler.NewCategoryHandler(categoryService, validate)
	taskHandler := handler.NewTaskHandler(taskService, uploadService, validate)
	uploadHandler := handler.NewUploadHandler(uploadService, validate)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	app := fiber.New(fiber.Config{
		AppName:      "TaskVerse API v1.0",
		ErrorHandler: errorHandler(logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(middleware.Recovery(logger))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.CORS(cfg.CORS))
	app.Use(middleware.RateLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))

	handler.SetupRoutes(
		app,
		authHandler,
		userHandler,
		categoryHandler,
		taskHandler,
		uploadHandler,
		healthHandler,
		middleware.Protected(codec, userRepo),
		middleware.RateLimit(cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow),
	)

	gateway := realtime.NewGateway(logger, hub, presence, codec, userRepo, taskRepo, cfg.Realtime, cfg.CORS.AllowedOrigins)
	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", gateway)
	wsServer := &http.Server{
		Addr:    ":" + cfg.Realtime.Port,
		Handler: wsMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("api listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Error("api server failed", zap.Error(err))
			stop()
		}
	}()

	go func() {
		logger.Info("websocket gateway listening", zap.String("addr", wsServer.Addr))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("websocket shutdown failed", zap.Error(err))
	}

	logger.Info("stopped")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// errorHandler is the last resort for errors no handler mapped. Everything
// leaves in the standard envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error",
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   "request_failed",
			"message": message,
		})
	}
}

// initDB connects to PostgreSQL with retry, so the service survives the
// database coming up slightly later in compose environments.
func initDB(cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}
		logger.Warn("database connect failed",
			zap.Int("attempt", i+1),
			zap.Int("max", maxRetries),
			zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
