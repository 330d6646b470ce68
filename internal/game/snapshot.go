package game

// CellView is the client-safe view of one cell. Adjacent and Mine are nil
// while the cell's contents are still secret.
type CellView struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	State    string `json:"state"`
	Adjacent *int   `json:"adjacent,omitempty"`
	Mine     *bool  `json:"mine,omitempty"`
}

// Snapshot is a redacted, point-in-time copy of a board.
type Snapshot struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	MineCount int        `json:"mineCount"`
	Status    Status     `json:"status"`
	Flags     int        `json:"flags"`
	Revealed  int        `json:"revealed"`
	Cells     []CellView `json:"cells"`
}

// Snapshot copies the board for transmission. Mine positions are only
// disclosed for revealed cells, or for every mine once the game has ended.
func (b *Board) Snapshot() Snapshot {
	snap := Snapshot{
		Width:     b.cfg.Width,
		Height:    b.cfg.Height,
		MineCount: b.cfg.Mines,
		Status:    b.status,
		Flags:     b.flags,
		Revealed:  b.revealed,
		Cells:     make([]CellView, len(b.cells)),
	}

	terminal := b.status.IsTerminal()
	for i, c := range b.cells {
		v := CellView{Row: c.Row, Col: c.Col, State: c.State.String()}

		switch {
		case c.State == Revealed && c.Mine:
			v.Mine = boolPtr(true)
		case c.State == Revealed:
			v.Mine = boolPtr(false)
			v.Adjacent = intPtr(c.Adjacent)
		case terminal && c.Mine:
			v.Mine = boolPtr(true)
		}

		snap.Cells[i] = v
	}
	return snap
}

// At returns the view of (row, col); it assumes the coordinate is in range.
func (s Snapshot) At(row, col int) CellView {
	return s.Cells[row*s.Width+col]
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
