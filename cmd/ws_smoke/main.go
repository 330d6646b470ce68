package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	width     int
	height    int
	mines     int
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ws_smoke",
	Short: "Play one shared move against a running server",
	Long: `ws_smoke opens two websocket connections to a running server,
creates a game with the first, joins it with the second, reveals the
centre cell and checks that the second connection sees the reveal.

	ws_smoke --url ws://127.0.0.1:8080/ws -w 9 -h 9 -m 10
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	// -h is --height, so help gets no shorthand
	rootCmd.Flags().Bool("help", false, "Help for this command")

	rootCmd.Flags().StringVarP(&serverURL, "url", "u", "ws://127.0.0.1:8080/ws", "Websocket endpoint of the server")
	rootCmd.Flags().IntVarP(&width, "width", "w", 9, "Width of the board, in cells")
	rootCmd.Flags().IntVarP(&height, "height", "h", 9, "Height of the board, in cells")
	rootCmd.Flags().IntVarP(&mines, "mines", "m", 10, "Number of mines")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Second, "How long to wait for each message")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type message struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	GameID       string `json:"gameId"`
	Version      uint64 `json:"version"`
	Status       string `json:"status"`
	Participants int    `json:"participants"`
	Revealed     int    `json:"revealed"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

func run() error {
	connA, err := dial("A")
	if err != nil {
		return err
	}
	defer connA.Close()

	connB, err := dial("B")
	if err != nil {
		return err
	}
	defer connB.Close()

	if err := connA.WriteJSON(map[string]any{"type": "new_game", "width": width, "height": height, "mineCount": mines}); err != nil {
		return fmt.Errorf("write A: %w", err)
	}
	created, err := await(connA, "A", "game_state")
	if err != nil {
		return err
	}
	log.Printf("A created game %s (%dx%d, %d mines)", created.GameID, width, height, mines)

	if err := connB.WriteJSON(map[string]any{"type": "join_game", "gameId": created.GameID}); err != nil {
		return fmt.Errorf("write B: %w", err)
	}
	if _, err := await(connB, "B", "game_state"); err != nil {
		return err
	}
	// A is told about the new participant
	if _, err := await(connA, "A", "game_state"); err != nil {
		return err
	}

	row, col := height/2, width/2
	if err := connA.WriteJSON(map[string]any{"type": "reveal", "gameId": created.GameID, "row": row, "col": col}); err != nil {
		return fmt.Errorf("write A: %w", err)
	}
	seen, err := await(connB, "B", "game_state")
	if err != nil {
		return err
	}
	if seen.Status == "pending" || seen.Revealed == 0 {
		return fmt.Errorf("B did not observe the reveal: status=%s revealed=%d", seen.Status, seen.Revealed)
	}

	log.Printf("B observed A's reveal at (%d,%d): status=%s revealed=%d version=%d",
		row, col, seen.Status, seen.Revealed, seen.Version)
	log.Println("smoke test finished")
	return nil
}

func dial(name string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", name, err)
	}
	ready, err := await(conn, name, "ready")
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("%s connected as %s", name, ready.ConnectionID)
	return conn, nil
}

// await reads until a message of type typ arrives. An error message from the
// server fails the run.
func await(conn *websocket.Conn, name, typ string) (message, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return message{}, fmt.Errorf("%s waiting for %s: %w", name, typ, err)
		}
		var m message
		if err := json.Unmarshal(raw, &m); err != nil {
			return message{}, fmt.Errorf("%s: bad message %q: %w", name, raw, err)
		}
		if m.Type == "error" {
			return message{}, fmt.Errorf("%s: server error %s: %s", name, m.Code, m.Message)
		}
		if m.Type == typ {
			return m, nil
		}
	}
}
