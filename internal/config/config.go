package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"multisweeper/internal/game"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	LogLevel      string
	LogJSON       bool
	AllowedOrigin string

	// optional: result history is disabled without it
	DatabaseURL string

	// optional: rate limits are kept in memory without it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Board defaults and limits
	DefaultWidth  int
	DefaultHeight int
	DefaultMines  int
	MaxWidth      int
	MaxHeight     int

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	WSSendBuffer       int
	WSActionRateLimit  int
	WSActionRateWindow time.Duration
	APIRateLimit       int
	APIRateWindow      time.Duration
}

// Load reads .env (if present) and the environment. Missing or unparsable
// numbers fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		AppPort:       port,
		LogLevel:      logLevel,
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intEnv("REDIS_DB", 0, 0),

		DefaultWidth:  intEnv("DEFAULT_WIDTH", 10, 1),
		DefaultHeight: intEnv("DEFAULT_HEIGHT", 10, 1),
		DefaultMines:  intEnv("DEFAULT_MINES", 15, 1),
		MaxWidth:      intEnv("MAX_WIDTH", 64, 1),
		MaxHeight:     intEnv("MAX_HEIGHT", 64, 1),

		SessionIdleTimeout:   secondsEnv("SESSION_IDLE_TIMEOUT_SECONDS", 600),
		SessionSweepInterval: secondsEnv("SESSION_SWEEP_INTERVAL_SECONDS", 60),

		WSSendBuffer:       intEnv("WS_SEND_BUFFER", 64, 1),
		WSActionRateLimit:  intEnv("WS_ACTION_RATE_LIMIT", 120, 0),
		WSActionRateWindow: secondsEnv("WS_ACTION_RATE_WINDOW_SECONDS", 60),
		APIRateLimit:       intEnv("API_RATE_LIMIT", 60, 0),
		APIRateWindow:      secondsEnv("API_RATE_WINDOW_SECONDS", 60),
	}
}

// DefaultBoard is the board used when a client omits its dimensions.
func (c *Config) DefaultBoard() game.Config {
	return game.Config{Width: c.DefaultWidth, Height: c.DefaultHeight, Mines: c.DefaultMines}
}

// Validate checks that the default board is playable within the size limits.
func (c *Config) Validate() error {
	if err := c.DefaultBoard().Validate(); err != nil {
		return fmt.Errorf("default board: %w", err)
	}
	if c.DefaultWidth > c.MaxWidth || c.DefaultHeight > c.MaxHeight {
		return fmt.Errorf("default board %dx%d exceeds max %dx%d",
			c.DefaultWidth, c.DefaultHeight, c.MaxWidth, c.MaxHeight)
	}
	return nil
}

// intEnv returns the named variable if it parses and is at least min.
func intEnv(key string, def, min int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	return n
}

func secondsEnv(key string, def int) time.Duration {
	return time.Duration(intEnv(key, def, 1)) * time.Second
}
