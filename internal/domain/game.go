package domain

import "time"

// GameOutcome - how a finished board ended
type GameOutcome string

const (
	GameOutcomeWon  GameOutcome = "won"
	GameOutcomeLost GameOutcome = "lost"
)

// GameResult - one finished board. A session that is restarted and played
// again produces one row per finished board.
type GameResult struct {
	ID           int64       `db:"id" json:"id"`
	GameID       string      `db:"game_id" json:"gameId"`
	Outcome      GameOutcome `db:"outcome" json:"outcome"`
	Width        int         `db:"width" json:"width"`
	Height       int         `db:"height" json:"height"`
	MineCount    int         `db:"mine_count" json:"mineCount"`
	Revealed     int         `db:"revealed" json:"revealed"`
	Participants int         `db:"participants" json:"participants"`
	FinishedBy   string      `db:"finished_by" json:"finishedBy"` // connection that made the last move
	StartedAt    time.Time   `db:"started_at" json:"startedAt"`
	FinishedAt   time.Time   `db:"finished_at" json:"finishedAt"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
}

// Duration is the wall time from board creation to the final move.
func (r *GameResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
