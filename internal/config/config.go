// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. AGILETRACK_DB_HOST.
const EnvPrefix = "AGILETRACK"

// DefaultJWTSecret is the development signing key. Release mode refuses it.
const DefaultJWTSecret = "your-secret-key"

type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

type Config struct {
	Mode    Mode   `split_words:"true" default:"debug"`
	BaseURL string `split_words:"true" default:"http://localhost:8080"`

	Database Database `envconfig:"DB"`
	JWT      JWT      `envconfig:"JWT"`
	Server   Server   `envconfig:"SERVER"`
	Log      Log      `envconfig:"LOG"`
	Cache    Cache    `envconfig:"CACHE"`
	Redis    Redis    `envconfig:"REDIS"`
	Sendgrid Sendgrid `envconfig:"SENDGRID"`
}

type Database struct {
	// Driver is one of postgres, mysql or sqlite.
	Driver     string `split_words:"true" default:"postgres"`
	Host       string `split_words:"true" default:"localhost"`
	Port       string `split_words:"true" default:"5432"`
	User       string `split_words:"true" default:"postgres"`
	Password   string `split_words:"true"`
	Name       string `split_words:"true" default:"agiletrack"`
	SSLMode    string `split_words:"true" default:"disable"`
	SearchPath string `split_words:"true" default:"public"`
	// Path is the database file for the sqlite driver.
	Path string `split_words:"true" default:"agiletrack.db"`

	MaxOpenConns    int           `split_words:"true" default:"25"`
	MaxIdleConns    int           `split_words:"true" default:"25"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"5m"`
}

type JWT struct {
	Secret       string        `split_words:"true" default:"your-secret-key"`
	ExpiryPeriod time.Duration `split_words:"true" default:"24h"`
}

type Server struct {
	Port           string        `split_words:"true" default:"8080"`
	ReadTimeout    time.Duration `split_words:"true" default:"15s"`
	WriteTimeout   time.Duration `split_words:"true" default:"15s"`
	RequestTimeout time.Duration `split_words:"true" default:"30s"`
	AllowedOrigins []string      `split_words:"true" default:"https://*,http://*"`
}

type Log struct {
	Level      string `split_words:"true" default:"info"`
	FilePath   string `split_words:"true"`
	MaxSize    int    `split_words:"true" default:"100"`
	MaxBackups int    `split_words:"true" default:"5"`
	MaxAge     int    `split_words:"true" default:"30"`
	Compress   bool   `split_words:"true" default:"true"`
}

type Cache struct {
	TTL         time.Duration `split_words:"true" default:"5m"`
	CleanupFreq time.Duration `split_words:"true" default:"1m"`
}

type Redis struct {
	// Addr enables the redis-backed cache when set.
	Addr     string `split_words:"true"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

type Sendgrid struct {
	APIKey   string `split_words:"true"`
	From     string `split_words:"true" default:"noreply@agiletrack.local"`
	FromName string `split_words:"true" default:"AgileTrack"`
}

// Load reads the configuration from AGILETRACK_* environment variables,
// applying defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Mode != ModeDebug && c.Mode != ModeRelease {
		return fmt.Errorf("unsupported mode %q", c.Mode)
	}
	if c.Mode == ModeRelease && c.JWT.Secret == DefaultJWTSecret {
		return fmt.Errorf("jwt secret must be set in release mode")
	}
	return nil
}
