package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/imgsqueeze/model"
)

// EnvPrefix is prepended to every environment variable, e.g. IMGSQUEEZE_SERVER_PORT.
const EnvPrefix = "IMGSQUEEZE"

// Config is application configuration.
type Config struct {
	Env        string           `mapstructure:"env"`
	LogLevel   string           `mapstructure:"log_level"`
	Server     ServerConfig     `mapstructure:"server"`
	Session    SessionConfig    `mapstructure:"session"`
	Compressor CompressorConfig `mapstructure:"compressor"`
	S3         S3Config         `mapstructure:"s3"`
}

// ServerConfig holds http server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	Cookie          string        `mapstructure:"cookie"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CompressorConfig holds compression routine settings.
type CompressorConfig struct {
	DefaultQuality int `mapstructure:"default_quality"`
	MaxIteration   int `mapstructure:"max_iteration"`
	Workers        int `mapstructure:"workers"`
}

// S3Config holds S3 save target settings.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Addr returns listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Development reports whether development environment is configured.
func (c *Config) Development() bool {
	return c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_upload_bytes", 32*1024*1024) // 32MB

	v.SetDefault("session.cookie", "imgsqueeze_session")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.cleanup_interval", "1m")

	v.SetDefault("compressor.default_quality", model.DefaultQuality)
	v.SetDefault("compressor.max_iteration", 10)
	v.SetDefault("compressor.workers", 0)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
}

// Load reads configuration from defaults, optional .env files and environment.
// Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d is not in range [1-65535]", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if !model.ValidQuality(cfg.Compressor.DefaultQuality) {
		return fmt.Errorf("default quality %d is not in range [%d-%d]",
			cfg.Compressor.DefaultQuality, model.MinQuality, model.MaxQuality)
	}
	if cfg.Compressor.MaxIteration <= 0 {
		return errors.New("max iteration must be positive")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Session.Cookie == "" {
		return errors.New("session cookie name is required")
	}
	return nil
}
