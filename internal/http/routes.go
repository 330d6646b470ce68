package http

import (
	"multisweeper/internal/http/handlers"
	"multisweeper/internal/http/middleware"
	"multisweeper/internal/ratelimit"
	"multisweeper/internal/repository"
	"multisweeper/internal/session"
	"multisweeper/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps are the components the routes are served from. DB and Redis are
// optional.
type Deps struct {
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Registry   *session.Registry
	Hub        *ws.Hub
	WS         *ws.Server
	APILimiter *ratelimit.Limiter
	Version    string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.Metrics())

	var results *repository.GameResultRepository
	if d.DB != nil {
		results = repository.NewGameResultRepository(d.DB)
	}
	h := handlers.NewHandler(d.Registry, results)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Redis, d.Registry, d.Hub, d.Version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(d.APILimiter))
	{
		v1.GET("/games", h.ListGames)
		v1.GET("/games/:id", h.GetGame)
		v1.GET("/results", h.ListResults)
		v1.GET("/results/stats", h.ResultStats)
	}

	// WebSocket game protocol
	r.GET("/ws", d.WS.HandleWS())
}
