package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"multisweeper/internal/config"
	"multisweeper/internal/db"
	httpServer "multisweeper/internal/http"
	"multisweeper/internal/logger"
	"multisweeper/internal/ratelimit"
	"multisweeper/internal/repository"
	"multisweeper/internal/session"
	"multisweeper/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		dbPool = pool
		defer dbPool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, game results will not be stored")
	}

	rdb, err := ratelimit.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// rate limits fall back to per-process counters
		logger.Warn("redis unavailable, using in-memory rate limits", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	hub := ws.NewHub()
	opts := session.Options{
		IdleTimeout:   cfg.SessionIdleTimeout,
		SweepInterval: cfg.SessionSweepInterval,
		MaxWidth:      cfg.MaxWidth,
		MaxHeight:     cfg.MaxHeight,
	}
	if dbPool != nil {
		opts.Recorder = repository.NewGameResultRepository(dbPool)
	}
	registry := session.NewRegistry(hub, opts)
	registry.StartCleanup(ctx)

	wsServer := ws.NewServer(hub, registry, ws.Options{
		Defaults:      cfg.DefaultBoard(),
		SendBuffer:    cfg.WSSendBuffer,
		AllowedOrigin: cfg.AllowedOrigin,
		Limiter:       newLimiter(rdb, "ws", cfg.WSActionRateLimit, cfg.WSActionRateWindow),
	})

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for a frontend served from a different origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		DB:         dbPool,
		Redis:      rdb,
		Registry:   registry,
		Hub:        hub,
		WS:         wsServer,
		APILimiter: newLimiter(rdb, "api", cfg.APIRateLimit, cfg.APIRateWindow),
		Version:    version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// websocket connections are hijacked and not covered by Shutdown
	hub.Close()
	registry.Close()

	logger.Info("server exited")
}

func newLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) *ratelimit.Limiter {
	if max <= 0 {
		return nil
	}
	return ratelimit.New(rdb, prefix, max, window)
}
