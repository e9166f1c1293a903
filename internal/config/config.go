package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "FRESHBASKET"

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string `envconfig:"ENV" default:"dev"`
	ServerPort string `envconfig:"PORT" default:"5000"`
	HealthPath string `envconfig:"HEALTH_PATH" default:"/health"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"json"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath   string `envconfig:"DB_PATH" default:"freshbasket.db"`
	MySQLDSN string `envconfig:"MYSQL_DSN"`
	ResetDB  bool   `envconfig:"RESET_DB" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	SessionCookie   string        `envconfig:"SESSION_COOKIE" default:"fb_session"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	AuthCookie      string        `envconfig:"AUTH_COOKIE" default:"fb_auth"`
	JWTSecret       string        `envconfig:"JWT_SECRET" default:"change-me"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"1m"`

	// LegacyAdminAccess grants admin operations to any authenticated session.
	LegacyAdminAccess bool   `envconfig:"LEGACY_ADMIN_ACCESS" default:"false"`
	AdminEmail        string `envconfig:"ADMIN_EMAIL"`
	AdminPassword     string `envconfig:"ADMIN_PASSWORD"`

	SwaggerHost string `envconfig:"SWAGGER_HOST"`
}

// Load builds Config from an optional .env file and the environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverSQLite:
		path, err := filepath.Abs(c.DBPath)
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
		c.DBPath = path
	case DriverMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("%s_MYSQL_DSN is required when DB_DRIVER=mysql", EnvPrefix)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if !strings.HasPrefix(c.HealthPath, "/") {
		c.HealthPath = "/" + c.HealthPath
	}
	return nil
}

// IsProd reports whether the service runs in production mode.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}
