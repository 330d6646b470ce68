package game

import "github.com/gammazero/deque"

// flood reveals start and, while it keeps meeting zero-count cells, their
// neighbours. Non-zero cells on the border are revealed but never expanded.
// Flagged cells are skipped. Every cell is queued at most once, so a reveal
// costs O(width*height) regardless of board shape.
//
// Traversal order is breadth-first but callers must not depend on it; only
// the final revealed set is defined.
func (b *Board) flood(start int) {
	queued := make([]bool, len(b.cells))

	var queue deque.Deque[int]
	queue.PushBack(start)
	queued[start] = true

	for queue.Len() > 0 {
		idx := queue.PopFront()
		cell := &b.cells[idx]
		if cell.State != Hidden || cell.Mine {
			continue
		}

		cell.State = Revealed
		b.revealed++

		if cell.Adjacent != 0 {
			continue
		}
		b.forEachNeighbor(idx, func(n int) {
			if queued[n] || b.cells[n].State != Hidden {
				return
			}
			queued[n] = true
			queue.PushBack(n)
		})
	}
}
