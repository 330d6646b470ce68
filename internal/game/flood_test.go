package game

import "testing"

// revealedSet returns the coordinates of every revealed cell.
func revealedSet(b *Board) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for _, c := range b.cells {
		if c.State == Revealed {
			out[[2]int{c.Row, c.Col}] = true
		}
	}
	return out
}

func TestFloodStopsAtMineWall(t *testing.T) {
	// Column 2 is solid mines: the zero region is column 0, column 1 is its border.
	b := boardWithMines(t, 5, 5,
		[2]int{0, 2}, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2}, [2]int{4, 2})

	if _, err := b.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	got := revealedSet(b)
	if len(got) != 10 {
		t.Fatalf("revealed %d cells; want 10: %v", len(got), got)
	}
	for row := 0; row < 5; row++ {
		for _, col := range []int{0, 1} {
			if !got[[2]int{row, col}] {
				t.Fatalf("(%d,%d) not revealed", row, col)
			}
		}
		for _, col := range []int{3, 4} {
			if got[[2]int{row, col}] {
				t.Fatalf("(%d,%d) revealed past the border", row, col)
			}
		}
	}
	if b.Status() != StatusInProgress {
		t.Fatalf("status = %s; want in_progress", b.Status())
	}
}

func TestFloodRevealsZeroRegionAndBorder(t *testing.T) {
	for seed := uint64(1); seed <= 30; seed++ {
		b := mustBoard(t, Config{Width: 20, Height: 14, Mines: 35}, seed)
		if _, err := b.Reveal(7, 10); err != nil {
			t.Fatalf("Reveal: %v", err)
		}

		// Reference: the connected zero region containing the start, plus
		// every cell touching it.
		want := make(map[[2]int]bool)
		var visit func(row, col int)
		visit = func(row, col int) {
			key := [2]int{row, col}
			if want[key] {
				return
			}
			want[key] = true
			if b.cells[row*20+col].Adjacent != 0 {
				return
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r, c := row+dr, col+dc
					if b.InBounds(r, c) {
						visit(r, c)
					}
				}
			}
		}
		visit(7, 10)

		if b.Status() == StatusWon {
			continue
		}
		got := revealedSet(b)
		if len(got) != len(want) {
			t.Fatalf("seed %d: revealed %d cells; want %d", seed, len(got), len(want))
		}
		for key := range want {
			if !got[key] {
				t.Fatalf("seed %d: %v should be revealed", seed, key)
			}
		}
		if b.RevealedCount() != len(want) {
			t.Fatalf("seed %d: RevealedCount = %d; want %d", seed, b.RevealedCount(), len(want))
		}
	}
}

func TestFloodSkipsFlaggedCells(t *testing.T) {
	b := boardWithMines(t, 5, 5, [2]int{4, 4})
	if _, err := b.ToggleFlag(0, 4); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}

	if _, err := b.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	if c, _ := b.Cell(0, 4); c.State != Flagged {
		t.Fatalf("flagged cell state = %s; want flagged", c.State)
	}
	// Everything except the mine and the flag is open, so the game is not won yet.
	if b.RevealedCount() != 23 {
		t.Fatalf("revealed = %d; want 23", b.RevealedCount())
	}
	if b.Status() != StatusInProgress {
		t.Fatalf("status = %s; want in_progress", b.Status())
	}

	if _, err := b.ToggleFlag(0, 4); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if _, err := b.Reveal(0, 4); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if b.Status() != StatusWon {
		t.Fatalf("status = %s; want won", b.Status())
	}
}

func TestFloodLargeBoardDoesNotRecurse(t *testing.T) {
	b := boardWithMines(t, 1000, 1000, [2]int{999, 999})

	if _, err := b.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if b.Status() != StatusWon {
		t.Fatalf("status = %s; want won", b.Status())
	}
}
