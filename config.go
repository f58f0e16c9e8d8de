package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds server settings
type Config struct {
	Addr      string
	ClientDir string
	PublicURL string // base URL encoded in invite QR codes
	MaxRooms  int

	DBDriver  string // sqlite, postgres or mysql
	DBDSN     string // empty disables the journal and accounts
	JWTSecret string // empty loads or creates one in the database

	LogFile  string // empty logs to stdout only
	LogLevel string
}

func defaultConfig() Config {
	return Config{
		Addr:      ":8080",
		ClientDir: "client",
		PublicURL: "http://localhost:8080",
		MaxRooms:  defaultMaxRooms,
		DBDriver:  "sqlite",
		LogLevel:  "info",
	}
}

// LoadConfig applies defaults, then the .env file (ARENA_ENV_FILE overrides its
// path), then ARENA_* environment variables, then command-line flags
func LoadConfig(args []string) (Config, error) {
	cfg := defaultConfig()

	envFile := os.Getenv("ARENA_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}

	envString(&cfg.Addr, "ARENA_ADDR")
	envString(&cfg.ClientDir, "ARENA_CLIENT_DIR")
	envString(&cfg.PublicURL, "ARENA_PUBLIC_URL")
	envString(&cfg.DBDriver, "ARENA_DB_DRIVER")
	envString(&cfg.DBDSN, "ARENA_DB_DSN")
	envString(&cfg.JWTSecret, "ARENA_JWT_SECRET")
	envString(&cfg.LogFile, "ARENA_LOG_FILE")
	envString(&cfg.LogLevel, "ARENA_LOG_LEVEL")
	if v := os.Getenv("ARENA_MAX_ROOMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("ARENA_MAX_ROOMS: %w", err)
		}
		cfg.MaxRooms = n
	}

	fset := flag.NewFlagSet("wizardarena", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fset.StringVar(&cfg.ClientDir, "client", cfg.ClientDir, "Path to client directory")
	fset.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Public base URL used in room invites")
	fset.IntVar(&cfg.MaxRooms, "max-rooms", cfg.MaxRooms, "Maximum number of concurrent rooms")
	fset.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Journal database driver (sqlite, postgres, mysql)")
	fset.StringVar(&cfg.DBDSN, "db", cfg.DBDSN, "Journal database DSN, empty to disable")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Rolling log file, empty for stdout only")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would fail later at startup
func (c Config) Validate() error {
	if _, err := DialectFor(c.DBDriver); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxRooms <= 0 {
		return fmt.Errorf("config: max rooms must be positive, got %d", c.MaxRooms)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
