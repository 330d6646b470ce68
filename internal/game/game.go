package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid board config")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrGameOver          = errors.New("game is over")
)

// Status is the lifecycle of a board. It only moves forward:
// pending -> in_progress -> won | lost.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

type CellState uint8

const (
	Hidden CellState = iota
	Revealed
	Flagged
)

func (s CellState) String() string {
	switch s {
	case Revealed:
		return "revealed"
	case Flagged:
		return "flagged"
	default:
		return "hidden"
	}
}

// maxCells caps width*height so a single request cannot allocate an unbounded grid.
const maxCells = 1 << 20

// Config describes the board a game is played on.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Mines  int `json:"mineCount"`
}

func (c Config) IsZero() bool {
	return c.Width == 0 && c.Height == 0 && c.Mines == 0
}

func (c Config) Cells() int {
	return c.Width * c.Height
}

// Validate checks 0 < mines < width*height with both dimensions positive.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if int64(c.Width)*int64(c.Height) > maxCells {
		return fmt.Errorf("%w: board %dx%d exceeds %d cells", ErrInvalidConfig, c.Width, c.Height, maxCells)
	}
	if c.Mines <= 0 {
		return fmt.Errorf("%w: mine count must be positive, got %d", ErrInvalidConfig, c.Mines)
	}
	if c.Mines >= c.Cells() {
		return fmt.Errorf("%w: %d mines do not fit a %dx%d board", ErrInvalidConfig, c.Mines, c.Width, c.Height)
	}
	return nil
}
