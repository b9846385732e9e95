package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config keeps runtime settings for the API process.
type Config struct {
	Port            int           `env:"PORT,default=5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	DBDriver          string `env:"DB_DRIVER,default=sqlite"`
	DatabaseURL       string `env:"DATABASE_URL,default=task_manager.db"`
	MongoURI          string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase     string `env:"MONGO_DATABASE,default=taskmanager"`
	MongoTransactions bool   `env:"MONGO_TRANSACTIONS,default=false"`

	JWTSecret     string        `env:"JWT_SECRET,required"`
	JWTTTL        time.Duration `env:"JWT_TTL,default=720h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=10m"`

	// CORSOrigins is the raw comma-separated list, split into
	// CORSAllowedOrigins by LoadFile. envdecode itself splits slices on ';'.
	CORSOrigins        string  `env:"CORS_ALLOWED_ORIGINS,default=*"`
	CORSAllowedOrigins []string
	AuthRateLimit      float64 `env:"AUTH_RATE_LIMIT,default=5"`
	AuthRateBurst      int     `env:"AUTH_RATE_BURST,default=10"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	TelegramToken      string        `env:"TELEGRAM_TOKEN"`
	ReportTime         string        `env:"REPORT_TIME,default=09:00"`
	TokenPurgeInterval time.Duration `env:"TOKEN_PURGE_INTERVAL,default=1h"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. Variables already present
// in the environment win over the file.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.CORSAllowedOrigins = splitList(cfg.CORSOrigins)

	return cfg, cfg.validate()
}

// splitList splits a comma-separated value and drops empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL and RESET_TOKEN_TTL must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// BotEnabled reports whether the Telegram reminder bot should run.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
