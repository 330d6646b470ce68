package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"multisweeper/internal/game"
	httpserver "multisweeper/internal/http"
	"multisweeper/internal/session"
	"multisweeper/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".sql") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

type server struct {
	url      string
	registry *session.Registry
}

// startServer runs the full route set. db may be nil.
func startServer(t *testing.T, db *pgxpool.Pool, recorder session.ResultRecorder) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	registry := session.NewRegistry(hub, session.Options{MaxWidth: 64, MaxHeight: 64, Recorder: recorder})
	wsServer := ws.NewServer(hub, registry, ws.Options{Defaults: game.Config{Width: 10, Height: 10, Mines: 15}})

	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{
		DB:       db,
		Registry: registry,
		Hub:      hub,
		WS:       wsServer,
		Version:  "test",
	})
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
		registry.Close()
	})

	return &server{url: ts.URL, registry: registry}
}

type wsMsg struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connectionId"`
	Code         string          `json:"code"`
	GameID       string          `json:"gameId"`
	Version      uint64          `json:"version"`
	Status       game.Status     `json:"status"`
	Participants int             `json:"participants"`
	Width        int             `json:"width"`
	Revealed     int             `json:"revealed"`
	Cells        []game.CellView `json:"cells"`
}

type player struct {
	t    *testing.T
	conn *websocket.Conn
	in   chan wsMsg
}

func connect(t *testing.T, s *server) *player {
	t.Helper()
	url := strings.Replace(s.url, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// start a single reader goroutine per connection to avoid concurrent ReadMessage calls
	in := make(chan wsMsg, 64)
	go func() {
		defer close(in)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m wsMsg
			if json.Unmarshal(raw, &m) == nil {
				in <- m
			}
		}
	}()

	p := &player{t: t, conn: conn, in: in}
	p.await(ws.MsgReady)
	return p
}

func (p *player) send(v map[string]any) {
	p.t.Helper()
	if err := p.conn.WriteJSON(v); err != nil {
		p.t.Fatalf("write: %v", err)
	}
}

// await returns the next message, which must be of type typ.
func (p *player) await(typ string) wsMsg {
	p.t.Helper()
	select {
	case m, ok := <-p.in:
		if !ok {
			p.t.Fatalf("connection closed while waiting for %s", typ)
		}
		if m.Type != typ {
			p.t.Fatalf("got %+v; want %s", m, typ)
		}
		return m
	case <-time.After(3 * time.Second):
		p.t.Fatalf("timeout waiting for %s", typ)
	}
	return wsMsg{}
}
