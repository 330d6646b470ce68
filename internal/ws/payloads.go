package ws

import (
	"multisweeper/internal/game"
	"multisweeper/internal/session"
)

// client → server. All messages share one flat shape; fields a type does
// not use are ignored.
type InboundMessage struct {
	Type      string `json:"type"`
	GameID    string `json:"gameId,omitempty"`
	Row       *int   `json:"row,omitempty"`
	Col       *int   `json:"col,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	MineCount int    `json:"mineCount,omitempty"`
}

func (m InboundMessage) config() game.Config {
	return game.Config{Width: m.Width, Height: m.Height, Mines: m.MineCount}
}

// server → client
type ReadyPayload struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

type GameStatePayload struct {
	Type string `json:"type"`
	session.Snapshot
}

type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Request string `json:"request,omitempty"` // type of the message that failed
	GameID  string `json:"gameId,omitempty"`
}
