package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/avatar"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Avatar     AvatarConfig     `mapstructure:"avatar"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	GinMode            string `mapstructure:"gin_mode"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// AuthConfig selects how bearer tokens are verified. "remote" asks the
// identity backend, "static" checks against a fixed token table.
type AuthConfig struct {
	Mode         string            `mapstructure:"mode"`
	UserInfoURL  string            `mapstructure:"user_info_url"`
	APIKey       string            `mapstructure:"api_key"`
	TimeoutSec   int               `mapstructure:"timeout_sec"`
	StaticTokens map[string]string `mapstructure:"static_tokens"`
	StaticDomain string            `mapstructure:"static_email_domain"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	SourceDir     string `mapstructure:"source_dir"`
	AvatarDir     string `mapstructure:"avatar_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type AvatarConfig struct {
	avatar.Config `mapstructure:",squash"`

	AllowedContentTypes []string `mapstructure:"allowed_content_types"`
	MaxDPR              float64  `mapstructure:"max_dpr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(appConfig)
	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("storage_type", appConfig.Storage.Type).
		Str("auth_mode", appConfig.Auth.Mode).
		Int("max_upload_size_mb", appConfig.Server.MaxUploadSizeMB).
		Float64("aspect", appConfig.Avatar.Aspect).
		Int("quality", appConfig.Avatar.Quality).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.MaxUploadSizeMB == 0 {
		cfg.Server.MaxUploadSizeMB = 5
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "remote"
	}
	if cfg.Auth.TimeoutSec == 0 {
		cfg.Auth.TimeoutSec = 5
	}
	if cfg.Storage.SourceDir == "" {
		cfg.Storage.SourceDir = "sources"
	}
	if cfg.Storage.AvatarDir == "" {
		cfg.Storage.AvatarDir = "avatars"
	}
	if len(cfg.Avatar.AllowedContentTypes) == 0 {
		cfg.Avatar.AllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}
	}
	if cfg.Avatar.MaxDPR == 0 {
		cfg.Avatar.MaxDPR = 4
	}
	cfg.Avatar.Config = cfg.Avatar.Config.WithDefaults()
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}
	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}

	// Auth
	switch cfg.Auth.Mode {
	case "remote":
		if cfg.Auth.UserInfoURL == "" {
			return fmt.Errorf("auth.user_info_url is required for remote auth")
		}
	case "static":
		if len(cfg.Auth.StaticTokens) == 0 {
			return fmt.Errorf("auth.static_tokens must contain at least one token for static auth")
		}
	default:
		return fmt.Errorf("auth.mode must be 'remote' or 'static'")
	}

	// Database
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}

	// Migrations
	if cfg.Migrations.Path == "" {
		return fmt.Errorf("migrations.path is required")
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if cfg.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}

	// Storage
	if cfg.Storage.Type == "" {
		return fmt.Errorf("storage.type is required (local|s3)")
	}
	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	}

	// Avatar
	if err := cfg.Avatar.Validate(); err != nil {
		return fmt.Errorf("avatar: %w", err)
	}
	for _, ct := range cfg.Avatar.AllowedContentTypes {
		if !strings.HasPrefix(ct, "image/") {
			return fmt.Errorf("avatar.allowed_content_types: %q is not an image type", ct)
		}
	}
	if cfg.Avatar.MaxDPR < 1 {
		return fmt.Errorf("avatar.max_dpr must be at least 1")
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}
