package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WRITERID_JWT_SECRET_KEY.
const EnvPrefix = "WRITERID"

// LoadConfig reads configFile (or searches ./config.yaml and ./config/config.yaml when empty),
// applies environment overrides and validates the result.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so env overrides work without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.production_mode", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./database/writerid.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.expire_minutes", 180)

	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Authorization", "Content-Type", "X-API-Key"})

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.upload_prefix", "samples/")
	v.SetDefault("storage.access_expiry_hours", 72)

	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.name", "writerid-task-queue")
	v.SetDefault("queue.sqs_queue_url", "")
	v.SetDefault("queue.aws_region", "us-east-1")
	v.SetDefault("queue.aws_endpoint", "")

	v.SetDefault("executor.base_url", "http://localhost:5000")
	v.SetDefault("executor.predict_path", "/predict")
	v.SetDefault("executor.api_key", "")
	v.SetDefault("executor.timeout_seconds", 300)
	v.SetDefault("executor.max_concurrency", 4)
	v.SetDefault("executor.limiter", "memory")

	v.SetDefault("external_api.api_key", "")
	v.SetDefault("external_api.header", "X-API-Key")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key must be set")
	}

	if cfg.ExternalAPI.APIKey == "" {
		return errors.New("external_api.api_key must be set")
	}

	switch cfg.Database.Driver {
	case "sqlite":
		dbDir := filepath.Dir(cfg.Database.Path)
		if _, err := os.Stat(dbDir); os.IsNotExist(err) {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn must be set for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	switch cfg.Storage.Backend {
	case "minio", "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if cfg.Storage.UploadPrefix == "" {
		return errors.New("storage.upload_prefix must not be empty")
	}

	switch cfg.Queue.Backend {
	case "memory":
	case "redis":
		if !cfg.Redis.Enabled() {
			return errors.New("queue backend redis requires redis.host")
		}
	case "sqs":
		if cfg.Queue.SQSQueueURL == "" {
			return errors.New("queue.sqs_queue_url must be set for sqs")
		}
	default:
		return fmt.Errorf("unknown queue backend: %s", cfg.Queue.Backend)
	}

	if cfg.Executor.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid executor timeout: %d", cfg.Executor.TimeoutSeconds)
	}
	if cfg.Executor.MaxConcurrency <= 0 {
		return fmt.Errorf("invalid executor max_concurrency: %d", cfg.Executor.MaxConcurrency)
	}
	if cfg.Executor.Limiter == "redis" && !cfg.Redis.Enabled() {
		return errors.New("executor limiter redis requires redis.host")
	}

	return nil
}
