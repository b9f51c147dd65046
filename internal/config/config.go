package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jejak/backend/internal/repository"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	S3       S3Config       `mapstructure:"s3"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedOrigins is a comma separated CORS origin list; "*" allows any.
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Address is the host:port the HTTP server binds to.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Origins splits AllowedOrigins.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	URL            string `mapstructure:"url"`
	Name           string `mapstructure:"name"` // mongo database name
	MaxConnections int    `mapstructure:"max_connections"`
	Migrate        bool   `mapstructure:"migrate"`
}

type StoreConfig struct {
	// StrictPhases makes reads fail on a malformed phase document instead
	// of returning the workout with no phases.
	StrictPhases bool `mapstructure:"strict_phases"`
}

// Policy maps the flag to the repository decode policy.
func (s StoreConfig) Policy() repository.PhaseDecodePolicy {
	if s.StrictPhases {
		return repository.Strict
	}
	return repository.Lenient
}

type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"` // empty disables caching
	TTL       time.Duration `mapstructure:"ttl"`
}

type CatalogConfig struct {
	// Path is a local file or an s3://bucket/key URL. Empty selects the
	// catalog built into the binary.
	Path string `mapstructure:"path"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
// Outside production a .env file in path is loaded first; variables already
// set in the environment win over it.
func LoadConfig(path string) (config Config, err error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load(filepath.Join(path, ".env"))
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.port -> SERVER_PORT, database.url -> DATABASE_URL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.name", "jejak")
	v.SetDefault("database.max_connections", 5)
	v.SetDefault("database.migrate", true)
	v.SetDefault("store.strict_phases", false)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("catalog.path", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, config.Validate()
}

// Validate reports settings the process cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url (DATABASE_URL) must be set for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
