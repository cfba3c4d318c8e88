package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server defaults.
const (
	DefaultAddr       = ":3000"
	DefaultTokenTTL   = 30 * 24 * time.Hour
	DefaultRateLimit  = 100
	DefaultRateWindow = 15 * time.Minute
	DefaultEnv        = "development"
	DefaultDBDriver   = "sqlite"

	devJWTSecret = "your-secret-key-change-in-production"
)

// Server holds the resolved account service settings.
type Server struct {
	Addr       string
	Env        string
	DBDriver   string
	DBDSN      string
	JWTSecret  string
	TokenTTL   time.Duration
	RateLimit  int
	RateWindow time.Duration
	StaticDir  string
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; the returned bool reports whether one was read.
func LoadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// ResolveServer merges defaults, the [server] section and the environment
// (PORT, ENV, DB_DRIVER, DB_DSN, JWT_SECRET), later sources winning.
func ResolveServer(file ServerConfig) (Server, error) {
	cfg := Server{
		Addr:       DefaultAddr,
		Env:        DefaultEnv,
		DBDriver:   DefaultDBDriver,
		DBDSN:      DefaultDBPath(),
		TokenTTL:   DefaultTokenTTL,
		RateLimit:  DefaultRateLimit,
		RateWindow: DefaultRateWindow,
	}
	if file.Addr != nil {
		cfg.Addr = *file.Addr
	}
	if file.Env != nil {
		cfg.Env = *file.Env
	}
	if file.DBDriver != nil {
		cfg.DBDriver = *file.DBDriver
	}
	if file.DBDSN != nil {
		cfg.DBDSN = *file.DBDSN
	}
	if file.RateLimit != nil {
		cfg.RateLimit = *file.RateLimit
	}
	if file.StaticDir != nil {
		cfg.StaticDir = *file.StaticDir
	}
	if file.TokenTTL != nil {
		ttl, err := time.ParseDuration(*file.TokenTTL)
		if err != nil {
			return Server{}, fmt.Errorf("invalid token-ttl: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if file.RateWindow != nil {
		window, err := time.ParseDuration(*file.RateWindow)
		if err != nil {
			return Server{}, fmt.Errorf("invalid rate-window: %w", err)
		}
		cfg.RateWindow = window
	}

	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return Server{}, fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Addr = ":" + port
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.DBDriver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DBDSN = dsn
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return Server{}, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if cfg.TokenTTL <= 0 {
		return Server{}, fmt.Errorf("token-ttl must be > 0")
	}
	if cfg.RateLimit <= 0 {
		return Server{}, fmt.Errorf("rate-limit must be > 0")
	}
	if cfg.RateWindow <= 0 {
		return Server{}, fmt.Errorf("rate-window must be > 0")
	}
	return cfg, nil
}
