package ratelimit

import (
	"sync"
	"time"
)

type windowEntry struct {
	start time.Time
	count int64
}

// window is the in-memory fixed-window counter used without Redis.
type window struct {
	mu      sync.Mutex
	size    time.Duration
	now     func() time.Time
	entries map[string]*windowEntry
	pruned  time.Time
}

func newWindow(size time.Duration, now func() time.Time) *window {
	return &window{
		size:    size,
		now:     now,
		entries: make(map[string]*windowEntry),
		pruned:  now(),
	}
}

func (w *window) hit(ident string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.pruned) > w.size {
		for k, e := range w.entries {
			if now.Sub(e.start) > w.size {
				delete(w.entries, k)
			}
		}
		w.pruned = now
	}

	e, ok := w.entries[ident]
	if !ok || now.Sub(e.start) > w.size {
		w.entries[ident] = &windowEntry{start: now, count: 1}
		return 1
	}
	e.count++
	return e.count
}
