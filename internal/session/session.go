package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"multisweeper/internal/domain"
	"multisweeper/internal/game"
)

var (
	ErrNotFound        = errors.New("game not found")
	ErrAlreadyExists   = errors.New("game already exists")
	ErrNotAParticipant = errors.New("connection has not joined this game")
	ErrSessionClosed   = errors.New("game session closed")
	ErrUnknownAction   = errors.New("unknown action")
)

type ActionKind string

const (
	ActionReveal  ActionKind = "reveal"
	ActionFlag    ActionKind = "flag"
	ActionRestart ActionKind = "restart"
)

// Action is one player move against a session's board.
type Action struct {
	Kind   ActionKind
	Row    int
	Col    int
	Config game.Config // restart only; zero fields reuse the current board's values
}

func Reveal(row, col int) Action { return Action{Kind: ActionReveal, Row: row, Col: col} }
func Flag(row, col int) Action   { return Action{Kind: ActionFlag, Row: row, Col: col} }
func Restart(cfg game.Config) Action {
	return Action{Kind: ActionRestart, Config: cfg}
}

// Snapshot is a board snapshot stamped with the session it came from.
// Version increases by one for every published change of the session.
type Snapshot struct {
	GameID       string `json:"gameId"`
	Version      uint64 `json:"version"`
	Participants int    `json:"participants"`
	game.Snapshot
}

// Publisher delivers a snapshot to the given participants and reports the
// ones it could not reach.
type Publisher interface {
	Publish(snap Snapshot, participants []string) (dead []string)
}

// Session is one game: a board plus the connections watching it. All methods
// are serialized by the session mutex; different sessions never share a lock.
type Session struct {
	ID string

	mu           sync.Mutex
	board        *game.Board
	participants map[string]struct{}
	createdAt    time.Time
	startedAt    time.Time
	lastActive   time.Time
	version      uint64
	closed       bool

	newBoard  func(game.Config) (*game.Board, error)
	publisher Publisher
	onFinish  func(domain.GameResult)
	now       func() time.Time
}

func newSession(id string, board *game.Board, r *Registry) *Session {
	now := r.now()
	return &Session{
		ID:           id,
		board:        board,
		participants: make(map[string]struct{}),
		createdAt:    now,
		startedAt:    now,
		lastActive:   now,
		newBoard:     r.newBoard,
		publisher:    r.publisher,
		onFinish:     r.recordResult,
		now:          r.now,
	}
}

// Join adds connID to the participants and publishes the new state to
// everyone. Joining twice returns changed == false and sends the current state
// to connID alone. A finished board can still be joined.
func (s *Session) Join(connID string) (snap Snapshot, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, false, ErrSessionClosed
	}
	if _, ok := s.participants[connID]; ok {
		return s.replyLocked(connID), false, nil
	}

	s.participants[connID] = struct{}{}
	s.lastActive = s.now()
	return s.publishLocked(), true, nil
}

// Leave removes connID. The remaining participants receive the new state.
// It reports whether connID was a participant.
func (s *Session) Leave(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connID]; !ok {
		return false
	}
	delete(s.participants, connID)
	s.lastActive = s.now()

	if !s.closed && len(s.participants) > 0 {
		s.publishLocked()
	}
	return true
}

// Apply runs a move for connID. The resulting snapshot has already been
// handed to the publisher before Apply returns: to every participant when the
// board changed, to connID alone when it did not. Either way each connection
// receives the session's snapshots in the order moves were applied.
func (s *Session) Apply(connID string, a Action) (snap Snapshot, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, false, ErrSessionClosed
	}
	if _, ok := s.participants[connID]; !ok {
		return Snapshot{}, false, ErrNotAParticipant
	}

	before := s.board.Status()

	switch a.Kind {
	case ActionReveal:
		changed, err = s.board.Reveal(a.Row, a.Col)
	case ActionFlag:
		changed, err = s.board.ToggleFlag(a.Row, a.Col)
	case ActionRestart:
		err = s.restartLocked(a.Config)
		changed = err == nil
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return Snapshot{}, false, err
	}

	s.lastActive = s.now()
	if !changed {
		return s.replyLocked(connID), false, nil
	}

	if after := s.board.Status(); after.IsTerminal() && !before.IsTerminal() {
		s.finishLocked(connID)
	}
	return s.publishLocked(), true, nil
}

// restartLocked swaps in a fresh board. Zero fields of cfg keep the current
// board's value.
func (s *Session) restartLocked(cfg game.Config) error {
	cur := s.board.Config()
	if cfg.Width == 0 {
		cfg.Width = cur.Width
	}
	if cfg.Height == 0 {
		cfg.Height = cur.Height
	}
	if cfg.Mines == 0 {
		cfg.Mines = cur.Mines
	}
	board, err := s.newBoard(cfg)
	if err != nil {
		return err
	}
	s.board = board
	s.startedAt = s.now()
	return nil
}

func (s *Session) finishLocked(connID string) {
	status := s.board.Status()
	finishedGames.WithLabelValues(string(status)).Inc()

	if s.onFinish == nil {
		return
	}
	cfg := s.board.Config()
	s.onFinish(domain.GameResult{
		GameID:       s.ID,
		Outcome:      domain.GameOutcome(status),
		Width:        cfg.Width,
		Height:       cfg.Height,
		MineCount:    cfg.Mines,
		Revealed:     s.board.RevealedCount(),
		Participants: len(s.participants),
		FinishedBy:   connID,
		StartedAt:    s.startedAt,
		FinishedAt:   s.now(),
	})
}

// publishLocked bumps the version and pushes the snapshot to every
// participant. Participants the publisher reports dead are dropped.
func (s *Session) publishLocked() Snapshot {
	s.version++
	snap := s.snapshotLocked()
	if s.publisher == nil {
		return snap
	}

	dead := s.publisher.Publish(snap, s.participantsLocked())
	for _, id := range dead {
		delete(s.participants, id)
	}
	return snap
}

// replyLocked sends the unchanged state to connID only. The version is not
// bumped.
func (s *Session) replyLocked(connID string) Snapshot {
	snap := s.snapshotLocked()
	if s.publisher == nil {
		return snap
	}

	for _, id := range s.publisher.Publish(snap, []string{connID}) {
		delete(s.participants, id)
	}
	return snap
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		GameID:       s.ID,
		Version:      s.version,
		Participants: len(s.participants),
		Snapshot:     s.board.Snapshot(),
	}
}

func (s *Session) participantsLocked() []string {
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the current state without publishing it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participantsLocked()
}

func (s *Session) HasParticipant(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.participants[connID]
	return ok
}

// Summary is the listing view used by the HTTP API.
type Summary struct {
	GameID       string      `json:"gameId"`
	Status       game.Status `json:"status"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	MineCount    int         `json:"mineCount"`
	Participants int         `json:"participants"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastActive   time.Time   `json:"lastActive"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.board.Config()
	return Summary{
		GameID:       s.ID,
		Status:       s.board.Status(),
		Width:        cfg.Width,
		Height:       cfg.Height,
		MineCount:    cfg.Mines,
		Participants: len(s.participants),
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
	}
}
