package integration

import (
	"context"
	"testing"
	"time"

	"multisweeper/internal/domain"
	"multisweeper/internal/repository"

	"github.com/google/uuid"
)

func TestGameResultRepository_RecordAndList(t *testing.T) {
	db := openDB(t)
	repo := repository.NewGameResultRepository(db)
	ctx := context.Background()

	gameID := "it-" + uuid.NewString()
	started := time.Now().Add(-2 * time.Minute).UTC().Truncate(time.Microsecond)

	won := &domain.GameResult{
		GameID: gameID, Outcome: domain.GameOutcomeWon,
		Width: 9, Height: 9, MineCount: 10, Revealed: 71, Participants: 2,
		FinishedBy: "conn-a", StartedAt: started, FinishedAt: started.Add(time.Minute),
	}
	if err := repo.RecordResult(ctx, won); err != nil {
		t.Fatalf("record won: %v", err)
	}
	if won.ID == 0 || won.CreatedAt.IsZero() {
		t.Fatalf("id/created_at not filled: %+v", won)
	}

	lost := &domain.GameResult{
		GameID: gameID, Outcome: domain.GameOutcomeLost,
		Width: 9, Height: 9, MineCount: 10, Revealed: 12, Participants: 2,
		FinishedBy: "conn-b", StartedAt: started.Add(time.Minute), FinishedAt: started.Add(90 * time.Second),
	}
	if err := repo.RecordResult(ctx, lost); err != nil {
		t.Fatalf("record lost: %v", err)
	}

	results, err := repo.ListByGame(ctx, gameID)
	if err != nil {
		t.Fatalf("ListByGame: %v", err)
	}
	if len(results) != 2 || results[0].ID != lost.ID || results[1].ID != won.ID {
		t.Fatalf("results = %+v", results)
	}
	if d := results[1].Duration(); d != time.Minute {
		t.Fatalf("duration = %v; want 1m", d)
	}

	recent, err := repo.ListRecent(ctx, 1000)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) == 0 {
		t.Fatalf("ListRecent returned nothing")
	}

	stats, err := repo.Stats(ctx, started.Add(-time.Second))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalGames < 2 || stats.Wins < 1 || stats.Losses < 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
