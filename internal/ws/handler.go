package ws

import (
	"net/http"

	"multisweeper/internal/game"
	"multisweeper/internal/logger"
	"multisweeper/internal/ratelimit"
	"multisweeper/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Options struct {
	// Defaults fill in board fields a new_game or join_game message omits.
	Defaults      game.Config
	SendBuffer    int
	AllowedOrigin string
	// Limiter caps inbound messages per connection; nil disables it.
	Limiter *ratelimit.Limiter
}

// Server wires websocket connections to the session registry.
type Server struct {
	hub      *Hub
	registry *session.Registry
	opts     Options
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, registry *session.Registry, opts Options) *Server {
	s := &Server{
		hub:      hub,
		registry: registry,
		opts:     opts,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if opts.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == opts.AllowedOrigin
		},
	}
	return s
}

// HandleWS upgrades the request and serves the connection in the background.
func (s *Server) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err, "remote", c.ClientIP())
			return
		}

		client := newClient(conn, s, s.opts.SendBuffer)
		go client.run()
	}
}
