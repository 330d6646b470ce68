package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"multisweeper/internal/game"
	"multisweeper/internal/logger"
	"multisweeper/internal/session"
)

// limiterTimeout bounds the rate limiter round trip made for every frame.
const limiterTimeout = 500 * time.Millisecond

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// dispatch handles one inbound frame. Successful changes reach every
// participant through the session's publish; everything else is answered to
// c alone.
func (s *Server) dispatch(c *Client, raw []byte) {
	msg, err := decode(raw)
	if err != nil {
		s.replyError(c, msg, err)
		return
	}

	if !s.allow(c, msg) {
		s.replyError(c, msg, ErrRateLimited)
		return
	}

	// the session has already queued the resulting state, for every
	// participant or for c alone when nothing changed
	if _, _, err := s.handle(c, msg); err != nil {
		s.replyError(c, msg, err)
		return
	}
	actionsTotal.WithLabelValues(msg.Type, "ok").Inc()
}

// allow checks the per-connection budget. Limiter errors fail open.
func (s *Server) allow(c *Client, msg InboundMessage) bool {
	ctx, cancel := context.WithTimeout(context.Background(), limiterTimeout)
	defer cancel()

	ok, err := s.opts.Limiter.Allow(ctx, "ws:"+msg.Type, c.ID)
	if err != nil {
		logger.Warn("ws rate limiter error", "conn_id", c.ID, "error", err)
		return true
	}
	return ok
}

func decode(raw []byte) (InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return InboundMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case "":
		return msg, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	case MsgNewGame:
	case MsgJoinGame, MsgRestart, MsgLeaveGame:
		if msg.GameID == "" {
			return msg, fmt.Errorf("%w: %s requires gameId", ErrMalformedMessage, msg.Type)
		}
	case MsgReveal, MsgFlag:
		if msg.GameID == "" || msg.Row == nil || msg.Col == nil {
			return msg, fmt.Errorf("%w: %s requires gameId, row and col", ErrMalformedMessage, msg.Type)
		}
	default:
		return msg, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, msg.Type)
	}
	return msg, nil
}

func (s *Server) handle(c *Client, msg InboundMessage) (session.Snapshot, bool, error) {
	switch msg.Type {
	case MsgNewGame:
		cfg := s.withDefaults(msg.config())
		sess, err := s.registry.CreateUnique(cfg)
		if err != nil {
			return session.Snapshot{}, false, err
		}
		logger.Info("game created", "game_id", sess.ID, "conn_id", c.ID,
			"width", cfg.Width, "height", cfg.Height, "mines", cfg.Mines)
		return s.join(c, sess.ID, cfg)

	case MsgJoinGame:
		return s.join(c, msg.GameID, s.withDefaults(msg.config()))

	case MsgReveal:
		return s.registry.Apply(msg.GameID, c.ID, session.Reveal(*msg.Row, *msg.Col))

	case MsgFlag:
		return s.registry.Apply(msg.GameID, c.ID, session.Flag(*msg.Row, *msg.Col))

	case MsgRestart:
		return s.registry.Apply(msg.GameID, c.ID, session.Restart(msg.config()))

	case MsgLeaveGame:
		sess, err := s.registry.Get(msg.GameID)
		if err != nil {
			return session.Snapshot{}, false, err
		}
		if !sess.Leave(c.ID) {
			return session.Snapshot{}, false, session.ErrNotAParticipant
		}
		if c.gameID == msg.GameID {
			c.gameID = ""
		}
		return session.Snapshot{}, true, nil
	}
	return session.Snapshot{}, false, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, msg.Type)
}

// join moves c into gameID, leaving the game it was in before. A connection
// belongs to at most one game.
func (s *Server) join(c *Client, gameID string, cfg game.Config) (session.Snapshot, bool, error) {
	snap, changed, err := s.registry.Join(gameID, c.ID, cfg)
	if err != nil {
		return session.Snapshot{}, false, err
	}
	if c.gameID != "" && c.gameID != gameID {
		s.registry.Leave(c.gameID, c.ID)
	}
	c.gameID = gameID
	return snap, changed, nil
}

func (s *Server) withDefaults(cfg game.Config) game.Config {
	if cfg.IsZero() {
		return s.opts.Defaults
	}
	if cfg.Width == 0 {
		cfg.Width = s.opts.Defaults.Width
	}
	if cfg.Height == 0 {
		cfg.Height = s.opts.Defaults.Height
	}
	if cfg.Mines == 0 {
		cfg.Mines = s.opts.Defaults.Mines
	}
	return cfg
}

func (s *Server) replyError(c *Client, msg InboundMessage, err error) {
	code := errorCode(err)
	actionsTotal.WithLabelValues(metricType(msg.Type), code).Inc()

	text := err.Error()
	if code == CodeInternal {
		logger.Error("ws action failed", "conn_id", c.ID, "type", msg.Type, "game_id", msg.GameID, "error", err)
		text = "internal error"
	} else {
		logger.Debug("ws action rejected", "conn_id", c.ID, "type", msg.Type, "game_id", msg.GameID, "error", err)
	}

	s.hub.Send(c.ID, ErrorPayload{
		Type:    MsgError,
		Message: text,
		Code:    code,
		Request: msg.Type,
		GameID:  msg.GameID,
	})
}

// metricType keeps client supplied garbage out of metric labels.
func metricType(t string) string {
	switch t {
	case MsgNewGame, MsgJoinGame, MsgReveal, MsgFlag, MsgRestart, MsgLeaveGame:
		return t
	}
	return "unknown"
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, game.ErrInvalidCoordinate):
		return CodeInvalidCoordinate
	case errors.Is(err, game.ErrGameOver):
		return CodeGameOver
	case errors.Is(err, session.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, session.ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, session.ErrNotAParticipant):
		return CodeNotAParticipant
	case errors.Is(err, ErrMalformedMessage),
		errors.Is(err, session.ErrInvalidGameID),
		errors.Is(err, session.ErrUnknownAction):
		return CodeMalformedMessage
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
