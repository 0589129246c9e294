package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"writerid-portal/internal/config"
	"writerid-portal/internal/models"
	"writerid-portal/internal/queue"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/router"
	"writerid-portal/internal/storage"
	"writerid-portal/internal/utils"
	"writerid-portal/pkg/executor"
	"writerid-portal/pkg/redis_limiter"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to the config file")
	flag.Parse()

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.Log)

	db, err := models.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialise database")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis is not reachable")
		}
		cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(ctx, cfg.Storage)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("failed to initialise blob storage")
	}

	sender, err := queue.New(cfg.Queue, redisClient)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialise queue")
	}

	var limiter executor.Limiter
	if cfg.Executor.Limiter == "redis" && redisClient != nil {
		limiter = redis_limiter.NewRedisLimiter(redisClient, cfg.Executor.MaxConcurrency, "writerid:executor", 2*cfg.Executor.GetTimeout(), logger)
	} else {
		limiter = executor.NewConcurrencyLimiter(cfg.Executor.MaxConcurrency)
	}
	predictor := executor.NewClient(cfg.Executor.PredictURL(), cfg.Executor.APIKey, cfg.Executor.GetTimeout(), limiter)

	jwtManager := utils.NewJWTManager(
		cfg.JWT.SecretKey,
		cfg.JWT.Algorithm,
		cfg.JWT.GetExpireDuration(),
	)

	r := router.SetupRouter(router.Deps{
		Config:     cfg,
		Logger:     logger,
		JWTManager: jwtManager,
		UnitOfWork: repository.NewUnitOfWork(db),
		Store:      store,
		Queue:      sender,
		Predictor:  predictor,
	})

	addr := cfg.Server.GetAddress()
	logger.WithFields(logrus.Fields{
		"addr":     addr,
		"database": cfg.Database.Driver,
		"storage":  cfg.Storage.Backend,
		"queue":    cfg.Queue.Backend,
	}).Info("server starting")

	if err := r.Run(addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
