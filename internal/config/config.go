package config

import (
	"fmt"
	"time"
)

// Config is the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Executor    ExecutorConfig    `mapstructure:"executor"`
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// GetAddress returns host:port.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the SQL backend. Path is used by sqlite, DSN by postgres.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig configures the redis client. An empty host disables redis.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether a redis host is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// GetAddress returns host:port.
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig configures bearer sessions.
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	Algorithm     string `mapstructure:"algorithm"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// GetExpireDuration returns the token lifetime.
func (j *JWTConfig) GetExpireDuration() time.Duration {
	return time.Duration(j.ExpireMinutes) * time.Minute
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// StorageConfig configures the blob store.
type StorageConfig struct {
	Backend           string `mapstructure:"backend"`
	Endpoint          string `mapstructure:"endpoint"`
	AccessKey         string `mapstructure:"access_key"`
	SecretKey         string `mapstructure:"secret_key"`
	Region            string `mapstructure:"region"`
	UseSSL            bool   `mapstructure:"use_ssl"`
	UploadPrefix      string `mapstructure:"upload_prefix"`
	AccessExpiryHours int    `mapstructure:"access_expiry_hours"`
}

// GetAccessExpiry returns how long generated access URLs stay valid.
func (s *StorageConfig) GetAccessExpiry() time.Duration {
	return time.Duration(s.AccessExpiryHours) * time.Hour
}

// QueueConfig configures the work queue shared with the executor.
type QueueConfig struct {
	Backend     string `mapstructure:"backend"`
	Name        string `mapstructure:"name"`
	SQSQueueURL string `mapstructure:"sqs_queue_url"`
	AWSRegion   string `mapstructure:"aws_region"`
	AWSEndpoint string `mapstructure:"aws_endpoint"`
}

// ExecutorConfig configures the synchronous prediction client.
type ExecutorConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	PredictPath    string `mapstructure:"predict_path"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	Limiter        string `mapstructure:"limiter"`
}

// GetTimeout returns the per-call timeout.
func (e *ExecutorConfig) GetTimeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// PredictURL joins the base url and predict path.
func (e *ExecutorConfig) PredictURL() string {
	return e.BaseURL + e.PredictPath
}

// ExternalAPIConfig holds the key the executor presents on callbacks.
type ExternalAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Header string `mapstructure:"header"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
