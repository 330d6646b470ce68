package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode"

	"multisweeper/internal/domain"
	"multisweeper/internal/game"
	"multisweeper/internal/logger"

	"github.com/google/uuid"
)

const maxGameIDLen = 64

var ErrInvalidGameID = errors.New("invalid game id")

// ResultRecorder stores finished games. Implemented by the result repository.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r *domain.GameResult) error
}

type Options struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	// MaxWidth and MaxHeight bound client supplied board sizes; zero means
	// only the engine's own limits apply.
	MaxWidth  int
	MaxHeight int
	Recorder  ResultRecorder
}

// Registry owns every live session, keyed by game id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	opts      Options
	publisher Publisher
	now       func() time.Time
	newBoard  func(game.Config) (*game.Board, error)

	recordTimeout time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

func NewRegistry(publisher Publisher, opts Options) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	r := &Registry{
		sessions:      make(map[string]*Session),
		opts:          opts,
		publisher:     publisher,
		now:           time.Now,
		recordTimeout: 5 * time.Second,
		stop:          make(chan struct{}),
	}
	r.newBoard = r.buildBoard
	return r
}

func (r *Registry) buildBoard(cfg game.Config) (*game.Board, error) {
	if r.opts.MaxWidth > 0 && cfg.Width > r.opts.MaxWidth {
		return nil, fmt.Errorf("%w: width %d exceeds limit %d", game.ErrInvalidConfig, cfg.Width, r.opts.MaxWidth)
	}
	if r.opts.MaxHeight > 0 && cfg.Height > r.opts.MaxHeight {
		return nil, fmt.Errorf("%w: height %d exceeds limit %d", game.ErrInvalidConfig, cfg.Height, r.opts.MaxHeight)
	}
	return game.New(cfg, nil)
}

func validateID(id string) error {
	if id == "" || len(id) > maxGameIDLen {
		return fmt.Errorf("%w: length must be 1..%d", ErrInvalidGameID, maxGameIDLen)
	}
	for _, r := range id {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q", ErrInvalidGameID, id)
		}
	}
	return nil
}

// GetOrCreate returns the session for id, creating it with cfg when absent.
// cfg is ignored for an existing session. The insert happens under the
// registry lock, so concurrent callers for one id share a single session.
func (r *Registry) GetOrCreate(id string, cfg game.Config) (s *Session, created bool, err error) {
	if err := validateID(id); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, false, nil
	}
	s, err = r.insertLocked(id, cfg)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Create fails with ErrAlreadyExists when id is taken.
func (r *Registry) Create(id string, cfg game.Config) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	return r.insertLocked(id, cfg)
}

// CreateUnique creates a session under a fresh random id.
func (r *Registry) CreateUnique(cfg game.Config) (*Session, error) {
	for {
		s, err := r.Create(uuid.NewString(), cfg)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		return s, err
	}
}

func (r *Registry) insertLocked(id string, cfg game.Config) (*Session, error) {
	board, err := r.newBoard(cfg)
	if err != nil {
		return nil, err
	}
	s := newSession(id, board, r)
	r.sessions[id] = s
	sessionsActive.Set(float64(len(r.sessions)))
	logger.Debug("session created", "game_id", id, "width", cfg.Width, "height", cfg.Height, "mines", cfg.Mines)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Join adds connID to the session for id, creating the session when absent.
// A join that loses the race against eviction retries and lands in a new
// session, so it never joins a session that is no longer registered.
func (r *Registry) Join(id, connID string, cfg game.Config) (Snapshot, bool, error) {
	for {
		s, _, err := r.GetOrCreate(id, cfg)
		if err != nil {
			return Snapshot{}, false, err
		}
		snap, changed, err := s.Join(connID)
		if errors.Is(err, ErrSessionClosed) {
			continue
		}
		return snap, changed, err
	}
}

// Leave is a no-op for unknown ids.
func (r *Registry) Leave(id, connID string) bool {
	s, err := r.Get(id)
	if err != nil {
		return false
	}
	return s.Leave(connID)
}

func (r *Registry) Apply(id, connID string, a Action) (Snapshot, bool, error) {
	s, err := r.Get(id)
	if err != nil {
		return Snapshot{}, false, err
	}
	snap, changed, err := s.Apply(connID, a)
	if errors.Is(err, ErrSessionClosed) {
		return Snapshot{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snap, changed, err
}

// Remove evicts id if it has no participants. It reports whether the session
// was removed. A concurrent join either lands first and keeps the session, or
// observes it closed and recreates it.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id, r.now(), 0)
}

// sweep evicts every empty session idle for longer than the idle timeout.
func (r *Registry) sweep(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id := range r.sessions {
		if r.removeLocked(id, now, r.opts.IdleTimeout) {
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// removeLocked evicts id when it has no participants and, for a positive
// idle, has been inactive for longer than idle. The participant count is read
// under the session lock so a racing join is never lost. Requires the
// registry lock.
func (r *Registry) removeLocked(id string, now time.Time, idle time.Duration) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.participants) > 0 {
		return false
	}
	if idle > 0 && now.Sub(s.lastActive) <= idle {
		return false
	}

	s.closed = true
	delete(r.sessions, id)
	sessionsActive.Set(float64(len(r.sessions)))
	sessionsEvicted.Inc()
	logger.Debug("session evicted", "game_id", id)
	return true
}

// StartCleanup runs the idle sweep until ctx is done or Close is called.
func (r *Registry) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.opts.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if ids := r.sweep(r.now()); len(ids) > 0 {
					logger.Info("cleaned up idle games", "count", len(ids))
				}
			}
		}
	}()
}

// recordResult hands a finished game to the recorder without holding the
// session lock.
func (r *Registry) recordResult(res domain.GameResult) {
	rec := r.opts.Recorder
	if rec == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.recordTimeout)
		defer cancel()
		if err := rec.RecordResult(ctx, &res); err != nil {
			logger.Error("failed to record game result", "error", err, "game_id", res.GameID, "outcome", res.Outcome)
			return
		}
		logger.Info("game finished", "game_id", res.GameID, "outcome", res.Outcome, "duration", res.Duration())
	}()
}

// List returns summaries sorted by creation time, newest first.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].GameID < out[j].GameID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the sweeper, closes every session and waits for pending result
// writes. Joins after Close create fresh sessions; callers stop accepting
// connections first.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	for id, s := range r.sessions {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		delete(r.sessions, id)
	}
	sessionsActive.Set(0)
	r.mu.Unlock()

	r.wg.Wait()
}
