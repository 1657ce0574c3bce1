package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Server configures the ledger system of record. An empty DSN selects the
// in-memory repositories.
type Server struct {
	Addr          string   `env:"FARM_LEDGER_ADDR" envDefault:":8080"`
	DSN           string   `env:"FARM_DB_DSN"`
	MigrationsDir string   `env:"FARM_MIGRATIONS_DIR" envDefault:"./db/migrations"`
	SeedFarmID    int64    `env:"FARM_SEED_FARM_ID" envDefault:"1"`
	SeedSessionID string   `env:"FARM_SEED_SESSION_ID" envDefault:"demo-session"`
	LogLevel      string   `env:"FARM_LOG_LEVEL" envDefault:"info"`
	CORSOrigins   []string `env:"FARM_CORS_ORIGINS" envSeparator:","`

	DBMaxOpenConns    int           `env:"FARM_DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"FARM_DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"FARM_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBSlowThreshold   time.Duration `env:"FARM_DB_SLOW_THRESHOLD" envDefault:"200ms"`
}

// Farm configures a session host. An empty SessionID runs an anonymous
// session that never talks to the ledger.
type Farm struct {
	Addr              string        `env:"FARM_ADDR" envDefault:":8081"`
	LedgerURL         string        `env:"FARM_LEDGER_URL" envDefault:"http://127.0.0.1:8080"`
	FarmID            int64         `env:"FARM_ID"`
	SessionID         string        `env:"FARM_SESSION_ID"`
	Signature         string        `env:"FARM_SIGNATURE"`
	Sender            string        `env:"FARM_SENDER"`
	AutosaveInterval  time.Duration `env:"FARM_AUTOSAVE_INTERVAL" envDefault:"10s"`
	MinSaveDuration   time.Duration `env:"FARM_MIN_SAVE_DURATION" envDefault:"1s"`
	RequestTimeout    time.Duration `env:"FARM_REQUEST_TIMEOUT" envDefault:"15s"`
	AnonymousReadOnly bool          `env:"FARM_ANONYMOUS_READONLY"`
	LogLevel          string        `env:"FARM_LOG_LEVEL" envDefault:"info"`
	CORSOrigins       []string      `env:"FARM_CORS_ORIGINS" envSeparator:","`
}
