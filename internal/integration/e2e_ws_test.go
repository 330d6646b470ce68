package integration

import (
	"context"
	"testing"
	"time"

	"multisweeper/internal/domain"
	"multisweeper/internal/game"
	"multisweeper/internal/repository"
)

func TestE2E_WS_SharedBoard(t *testing.T) {
	s := startServer(t, nil, nil)
	a, b := connect(t, s), connect(t, s)

	a.send(map[string]any{"type": "new_game", "width": 9, "height": 9, "mineCount": 10})
	created := a.await("game_state")

	b.send(map[string]any{"type": "join_game", "gameId": created.GameID})
	b.await("game_state")
	a.await("game_state")

	a.send(map[string]any{"type": "reveal", "gameId": created.GameID, "row": 4, "col": 4})
	a.await("game_state")
	seen := b.await("game_state")

	if seen.Status == game.StatusPending || seen.Revealed < 9 {
		t.Fatalf("B state after A's reveal = status %s, revealed %d", seen.Status, seen.Revealed)
	}
	if v := seen.Cells[4*seen.Width+4]; v.State != "revealed" || v.Adjacent == nil || *v.Adjacent != 0 {
		t.Fatalf("centre cell = %+v", v)
	}

	// every mine stays hidden while the game is running
	if seen.Status == game.StatusInProgress {
		for _, v := range seen.Cells {
			if v.Mine != nil && *v.Mine {
				t.Fatalf("mine disclosed at (%d,%d) during play", v.Row, v.Col)
			}
		}
	}
}

func TestE2E_WS_OutOfBounds(t *testing.T) {
	s := startServer(t, nil, nil)
	a := connect(t, s)

	a.send(map[string]any{"type": "new_game"})
	created := a.await("game_state")

	a.send(map[string]any{"type": "reveal", "gameId": created.GameID, "row": -1, "col": 0})
	if e := a.await("error"); e.Code != "invalid_coordinate" {
		t.Fatalf("error = %+v", e)
	}

	sess, err := s.registry.Get(created.GameID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap := sess.Snapshot(); snap.Status != game.StatusPending || snap.Version != created.Version {
		t.Fatalf("session changed after rejected reveal: status %s version %d", snap.Status, snap.Version)
	}
}

func TestE2E_WS_ResultStored(t *testing.T) {
	db := openDB(t)
	repo := repository.NewGameResultRepository(db)
	s := startServer(t, db, repo)
	a := connect(t, s)

	// a 3x3 board with 8 mines is won by its first reveal
	a.send(map[string]any{"type": "new_game", "width": 3, "height": 3, "mineCount": 8})
	created := a.await("game_state")
	a.send(map[string]any{"type": "reveal", "gameId": created.GameID, "row": 1, "col": 1})
	if st := a.await("game_state"); st.Status != game.StatusWon {
		t.Fatalf("status = %s; want won", st.Status)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		results, err := repo.ListByGame(context.Background(), created.GameID)
		if err != nil {
			t.Fatalf("ListByGame: %v", err)
		}
		if len(results) == 1 {
			if results[0].Outcome != domain.GameOutcomeWon || results[0].MineCount != 8 {
				t.Fatalf("result = %+v", results[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("result not stored")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
