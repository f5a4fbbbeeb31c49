package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	GameLog  GameLogConfig
	Database DatabaseConfig
	State    StateConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Notify   NotifyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"garagewatch"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// GameLogConfig holds settings for the rotating game log directory.
type GameLogConfig struct {
	Dir        string `envconfig:"GAMELOG_DIR" default:"./Logs"`
	FilePrefix string `envconfig:"GAMELOG_PREFIX" default:"chest_ownership_"`
	FileSuffix string `envconfig:"GAMELOG_SUFFIX" default:".log"`
	ScratchDir string `envconfig:"GAMELOG_SCRATCH_DIR" default:""`
}

// DatabaseConfig holds MySQL connection settings for the game-state store.
// The engine only ever reads from it.
type DatabaseConfig struct {
	Host         string        `envconfig:"DB_HOST" default:"localhost"`
	Port         int           `envconfig:"DB_PORT" default:"3306"`
	Name         string        `envconfig:"DB_NAME" default:"gameworld"`
	User         string        `envconfig:"DB_USER" default:"root"`
	Password     string        `envconfig:"DB_PASS" default:""`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`
}

// StateConfig holds durable state store settings.
type StateConfig struct {
	Type string `envconfig:"STATE_STORE_TYPE" default:"jsonfile"` // jsonfile or sqlite
	Dir  string `envconfig:"STATE_STORE_DIR" default:"./data"`
	Path string `envconfig:"STATE_STORE_PATH" default:"./data/state.db"`
}

// CacheConfig holds Redis settings for the cooldown guard.
type CacheConfig struct {
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// EngineConfig holds reconciliation engine settings.
type EngineConfig struct {
	PollInterval   time.Duration `envconfig:"ENGINE_POLL_INTERVAL" default:"30s"`
	CooldownWindow time.Duration `envconfig:"ENGINE_COOLDOWN_WINDOW" default:"2m"`
	PendingTTL     time.Duration `envconfig:"ENGINE_PENDING_TTL" default:"24h"`
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	BaseURL   string        `envconfig:"NOTIFY_BASE_URL" default:""`
	ChannelID string        `envconfig:"NOTIFY_CHANNEL_ID" default:""`
	AuthToken string        `envconfig:"NOTIFY_AUTH_TOKEN" default:""`
	Timeout   time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
