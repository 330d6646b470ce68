package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Cell is one square of the grid. Adjacent is fixed once mines are placed.
type Cell struct {
	Row      int
	Col      int
	Mine     bool
	Adjacent int
	State    CellState
}

// Board is the authoritative minesweeper grid. It is not safe for concurrent
// use; the owning session serializes access.
type Board struct {
	cfg      Config
	cells    []Cell // row-major
	status   Status
	revealed int
	flags    int
	rng      *rand.Rand
}

// New returns a pending board with every cell hidden. Mines are placed on the
// first reveal. A nil rng falls back to a time-seeded source.
func New(cfg Config, rng *rand.Rand) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}

	cells := make([]Cell, cfg.Cells())
	for i := range cells {
		cells[i].Row = i / cfg.Width
		cells[i].Col = i % cfg.Width
	}

	return &Board{
		cfg:    cfg,
		cells:  cells,
		status: StatusPending,
		rng:    rng,
	}, nil
}

func (b *Board) Config() Config { return b.cfg }
func (b *Board) Status() Status { return b.status }
func (b *Board) Flags() int     { return b.flags }

// RevealedCount is the number of revealed non-mine cells.
func (b *Board) RevealedCount() int { return b.revealed }

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.cfg.Height && col >= 0 && col < b.cfg.Width
}

// Cell returns a copy of the cell at (row, col).
func (b *Board) Cell(row, col int) (Cell, error) {
	idx, err := b.index(row, col)
	if err != nil {
		return Cell{}, err
	}
	return b.cells[idx], nil
}

func (b *Board) index(row, col int) (int, error) {
	if !b.InBounds(row, col) {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d board", ErrInvalidCoordinate, row, col, b.cfg.Width, b.cfg.Height)
	}
	return row*b.cfg.Width + col, nil
}

// forEachNeighbor calls fn with the index of every in-bounds cell around idx.
func (b *Board) forEachNeighbor(idx int, fn func(int)) {
	row, col := idx/b.cfg.Width, idx%b.cfg.Width
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if b.InBounds(r, c) {
				fn(r*b.cfg.Width + c)
			}
		}
	}
}

// placeMines scatters the configured mines uniformly over every cell outside
// the safe zone around first, then fills in adjacency counts.
func (b *Board) placeMines(first int) {
	safe := make([]bool, len(b.cells))
	safe[first] = true
	b.forEachNeighbor(first, func(n int) { safe[n] = true })

	candidates := make([]int, 0, len(b.cells))
	for i := range b.cells {
		if !safe[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < b.cfg.Mines {
		// Too dense for a full safe zone: keep only the clicked cell clear.
		candidates = candidates[:0]
		for i := range b.cells {
			if i != first {
				candidates = append(candidates, i)
			}
		}
	}

	// Partial Fisher-Yates: the first Mines entries become a uniform sample.
	for i := 0; i < b.cfg.Mines; i++ {
		j := i + b.rng.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		b.cells[candidates[i]].Mine = true
	}

	b.countAdjacent()
}

func (b *Board) countAdjacent() {
	for i := range b.cells {
		if !b.cells[i].Mine {
			continue
		}
		b.forEachNeighbor(i, func(n int) { b.cells[n].Adjacent++ })
	}
}

// Reveal opens the cell at (row, col). The first reveal of a board places the
// mines. changed is false when the target was already revealed or flagged.
func (b *Board) Reveal(row, col int) (changed bool, err error) {
	idx, err := b.index(row, col)
	if err != nil {
		return false, err
	}
	if b.status.IsTerminal() {
		return false, ErrGameOver
	}

	if b.cells[idx].State != Hidden {
		return false, nil
	}

	if b.status == StatusPending {
		b.placeMines(idx)
		b.status = StatusInProgress
	}

	if b.cells[idx].Mine {
		b.cells[idx].State = Revealed
		b.status = StatusLost
		return true, nil
	}

	b.flood(idx)

	if b.revealed == b.cfg.Cells()-b.cfg.Mines {
		b.win()
	}
	return true, nil
}

// ToggleFlag switches a hidden cell to flagged and back. Revealed cells are
// left untouched.
func (b *Board) ToggleFlag(row, col int) (changed bool, err error) {
	idx, err := b.index(row, col)
	if err != nil {
		return false, err
	}
	if b.status.IsTerminal() {
		return false, ErrGameOver
	}

	cell := &b.cells[idx]
	switch cell.State {
	case Hidden:
		cell.State = Flagged
		b.flags++
	case Flagged:
		cell.State = Hidden
		b.flags--
	default:
		return false, nil
	}
	return true, nil
}

// win marks every remaining mine as flagged for display.
func (b *Board) win() {
	b.status = StatusWon
	for i := range b.cells {
		c := &b.cells[i]
		if c.Mine && c.State == Hidden {
			c.State = Flagged
			b.flags++
		}
	}
}
