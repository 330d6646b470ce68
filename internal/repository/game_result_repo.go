package repository

import (
	"context"
	"time"

	"multisweeper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameResultRepository struct {
	db *pgxpool.Pool
}

func NewGameResultRepository(db *pgxpool.Pool) *GameResultRepository {
	return &GameResultRepository{db: db}
}

// RecordResult stores a finished board and fills in its id and created_at.
func (r *GameResultRepository) RecordResult(ctx context.Context, res *domain.GameResult) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO game_results
			(game_id, outcome, width, height, mine_count, revealed, participants, finished_by, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		res.GameID,
		res.Outcome,
		res.Width,
		res.Height,
		res.MineCount,
		res.Revealed,
		res.Participants,
		res.FinishedBy,
		res.StartedAt,
		res.FinishedAt,
	).Scan(&res.ID, &res.CreatedAt)
}

const resultColumns = `id, game_id, outcome, width, height, mine_count, revealed,
		participants, finished_by, started_at, finished_at, created_at`

// ListRecent returns the latest finished boards, newest first.
func (r *GameResultRepository) ListRecent(ctx context.Context, limit int) ([]*domain.GameResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM game_results
		 ORDER BY finished_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// ListByGame returns every finished board of one game id; a restarted game
// has one row per finished board.
func (r *GameResultRepository) ListByGame(ctx context.Context, gameID string) ([]*domain.GameResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM game_results
		 WHERE game_id = $1
		 ORDER BY finished_at DESC, id DESC`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// ResultStats - aggregate over finished boards
type ResultStats struct {
	TotalGames      int     `json:"totalGames"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	AvgDurationSecs float64 `json:"avgDurationSeconds"`
}

func (r *GameResultRepository) Stats(ctx context.Context, since time.Time) (*ResultStats, error) {
	stats := &ResultStats{}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) as total_games,
			COUNT(*) FILTER (WHERE outcome = 'won') as wins,
			COUNT(*) FILTER (WHERE outcome = 'lost') as losses,
			COALESCE(AVG(EXTRACT(EPOCH FROM finished_at - started_at)), 0)::float8 as avg_duration
		 FROM game_results
		 WHERE finished_at >= $1`,
		since,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.AvgDurationSecs)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanResults(rows pgx.Rows) ([]*domain.GameResult, error) {
	result := make([]*domain.GameResult, 0)

	for rows.Next() {
		var gr domain.GameResult
		if err := rows.Scan(
			&gr.ID, &gr.GameID, &gr.Outcome, &gr.Width, &gr.Height, &gr.MineCount, &gr.Revealed,
			&gr.Participants, &gr.FinishedBy, &gr.StartedAt, &gr.FinishedAt, &gr.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &gr)
	}

	return result, rows.Err()
}
