package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const (
	StateBackendFile     = "file"
	StateBackendSQLite   = "sqlite"
	StateBackendPostgres = "postgres"
)

type APIConfig struct {
	BaseURL   string `env:"RIDERS_API_BASE_URL,default=http://localhost:3000"`
	PageLimit int    `env:"PAGE_LIMIT,default=50"`
}

type HttpClientConfig struct {
	Timeout time.Duration `env:"HTTP_CLIENT_TIMEOUT,default=10s"`
}

type AuthConfig struct {
	SupabaseURL     string        `env:"SUPABASE_URL"`
	SupabaseAnonKey string        `env:"SUPABASE_ANON_KEY"`
	RefreshSkew     time.Duration `env:"SESSION_REFRESH_SKEW,default=60s"`
}

type StateConfig struct {
	Backend    string `env:"STATE_BACKEND,default=file"`
	Dir        string `env:"STATE_DIR"`
	SQLitePath string `env:"STATE_SQLITE_PATH"`
	Owner      string `env:"STATE_OWNER,default=default"`
}

type DatabaseConfig struct {
	User    string `env:"DB_USER"`
	Pass    string `env:"DB_PASS"`
	Name    string `env:"DB_NAME"`
	Port    int    `env:"DB_PORT,default=5432"`
	Host    string `env:"DB_HOST"`
	SSLMode string `env:"DB_SSLMODE,default=require"`
}

// StorageConfig configures the optional Azure mirror of the local state.
type StorageConfig struct {
	ContainerName string `env:"STORAGE_CONTAINER_NAME"`
	AccountName   string `env:"STORAGE_ACCOUNT_NAME"`
	AccountKey    string `env:"STORAGE_ACCOUNT_KEY"`
}

type StravaAppConfig struct {
	ClientID     string `env:"STRAVA_CLIENT_ID"`
	ClientSecret string `env:"STRAVA_CLIENT_SECRET"`
	CallbackPort int    `env:"STRAVA_CALLBACK_PORT,default=8089"`
}

func (dbc DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		dbc.User,
		dbc.Pass,
		dbc.Host,
		dbc.Port,
		dbc.Name,
		dbc.SSLMode,
	)
}

func (sc StorageConfig) Enabled() bool {
	return sc.AccountName != "" && sc.AccountKey != "" && sc.ContainerName != ""
}

type Config struct {
	API        APIConfig
	HttpClient HttpClientConfig
	Auth       AuthConfig
	State      StateConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Strava     StravaAppConfig
	LogLevel   string `env:"LOG_LEVEL,default=info"`
}

// GetConfig reads the configuration from the environment.
func GetConfig(ctx context.Context) (*Config, error) {
	return GetConfigFrom(ctx, envconfig.OsLookuper())
}

func GetConfigFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config
	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.State.Backend {
	case StateBackendFile, StateBackendSQLite:
	case StateBackendPostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("STATE_BACKEND=postgres requires DB_HOST, DB_NAME and DB_USER")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.State.Backend)
	}
	if c.API.PageLimit <= 0 {
		return fmt.Errorf("PAGE_LIMIT must be positive, got %d", c.API.PageLimit)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// StateDir is where local state lives, defaulting to the user config dir.
func (c *Config) StateDir() (string, error) {
	if c.State.Dir != "" {
		return c.State.Dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating state directory: %w", err)
	}
	return filepath.Join(dir, "riders"), nil
}

// ConfigureLogging sends logs to stderr at the configured level.
func ConfigureLogging(c *Config) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}
