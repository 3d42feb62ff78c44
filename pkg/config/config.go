package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the datahub engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8084"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Control-plane database (PostgreSQL). Tenant partitions are created on
	// the same server, one database per tenant.
	Database DatabaseConfig `yaml:"database"`

	// Redis cache for control-plane tenant lookups (optional).
	Redis RedisConfig `yaml:"redis"`

	// Migration source directories.
	Migrations MigrationsConfig `yaml:"migrations"`

	// Catalog seed file applied to freshly provisioned partitions.
	CatalogSeedPath string `yaml:"catalog_seed_path" env:"CATALOG_SEED_PATH" env-default:"seed/catalog.yaml"`

	// DefaultTimezone is used when a tenant has no timezone configured.
	DefaultTimezone string `yaml:"default_timezone" env:"DEFAULT_TIMEZONE" env-default:"Europe/Berlin"`
}

// DatabaseConfig holds PostgreSQL configuration for the control-plane
// database and for per-tenant partition connections.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"datahub"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"datahub_control"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis cache configuration. Leave Host empty to disable.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// MigrationsConfig holds the filesystem locations of the migration sources.
type MigrationsConfig struct {
	// ControlDir migrates the control-plane database at startup.
	ControlDir string `yaml:"control_dir" env:"MIGRATIONS_CONTROL_DIR" env-default:"migrations/control"`
	// TenantDir migrates each tenant partition during provisioning.
	TenantDir string `yaml:"tenant_dir" env:"MIGRATIONS_TENANT_DIR" env-default:"migrations/tenant"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string for the
// control-plane database.
func (c *DatabaseConfig) ConnectionString() string {
	return c.ConnectionStringFor(c.Database)
}

// ConnectionStringFor returns a connection string for the named database on
// the same server. Used by the storage router to open tenant partitions.
func (c *DatabaseConfig) ConnectionStringFor(database string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, database, c.SSLMode,
	)
}
