package game

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Status is the lifecycle state reported to persistence.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is one game of Least Count: the roster, the round in progress and
// the undo history. It is not safe for concurrent use; callers serialize
// operations on a Session.
type Session struct {
	cfg          Config
	threshold    int
	players      []*Player
	currentRound int
	lastRound    []int // Scores recorded by the most recent commit, by roster index
	undo         *undoStack
	id           string
}

// Option configures a Session during creation.
type Option func(*sessionOptions)

type sessionOptions struct {
	cfg   Config
	names []string
}

// WithConfig replaces the default rules.
func WithConfig(cfg Config) Option {
	return func(o *sessionOptions) {
		o.cfg = cfg
	}
}

// WithPlayers starts the session with the given roster instead of
// Config.DefaultPlayers.
func WithPlayers(names ...string) Option {
	return func(o *sessionOptions) {
		o.names = names
	}
}

func buildOptions(opts []Option) (sessionOptions, error) {
	o := sessionOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// New creates a session at round 1.
//
//	s, err := game.New(game.WithPlayers("Asha", "Ravi", "Meera"))
//	s.SetPendingScore(0, 12)
//	eliminated, err := s.CommitRound()
func New(opts ...Option) (*Session, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	names := o.names
	if names == nil {
		names = o.cfg.DefaultPlayers
	}
	if len(names) < o.cfg.MinPlayers {
		return nil, fmt.Errorf("%w: %d players, need at least %d", ErrTooFewPlayers, len(names), o.cfg.MinPlayers)
	}

	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: player %d", ErrEmptyName, i+1)
		}
	}

	s := &Session{
		cfg:          o.cfg,
		threshold:    o.cfg.EliminationThreshold,
		currentRound: 1,
		undo:         newUndoStack(o.cfg.UndoLimit),
	}
	s.seat(names)
	return s, nil
}

// seat replaces the roster with names, which must already be non-blank.
func (s *Session) seat(names []string) {
	s.players = make([]*Player, 0, len(names))
	for _, name := range names {
		s.players = append(s.players, &Player{Name: strings.TrimSpace(name), Avatar: s.NextAvatar()})
	}
}

// Config returns the rules the session was created with.
func (s *Session) Config() Config {
	return s.cfg
}

// ID returns the session identifier, or "" if none has been assigned.
func (s *Session) ID() string {
	return s.id
}

// EnsureID assigns an identifier from generate the first time it is called
// and returns the session's identifier.
func (s *Session) EnsureID(generate func() string) string {
	if s.id == "" {
		s.id = generate()
	}
	return s.id
}

// CurrentRound is the 1-based number of the round in progress.
func (s *Session) CurrentRound() int {
	return s.currentRound
}

// CompletedRounds is the number of committed rounds.
func (s *Session) CompletedRounds() int {
	return s.currentRound - 1
}

// Threshold returns the current elimination threshold.
func (s *Session) Threshold() int {
	return s.threshold
}

// UndoDepth returns how many actions can currently be undone.
func (s *Session) UndoDepth() int {
	return s.undo.len()
}

// CanUndo reports whether Undo would succeed.
func (s *Session) CanUndo() bool {
	return s.undo.len() > 0
}

// Len returns the roster size.
func (s *Session) Len() int {
	return len(s.players)
}

// Players returns a copy of the roster in turn order.
func (s *Session) Players() []Player {
	out := make([]Player, len(s.players))
	for i, p := range s.players {
		out[i] = *p.clone()
	}
	return out
}

// Player returns a copy of the player at index.
func (s *Session) Player(index int) (Player, error) {
	if err := s.checkIndex(index); err != nil {
		return Player{}, err
	}
	return *s.players[index].clone(), nil
}

// LastRoundScores returns the scores recorded by the most recent commit,
// indexed like the roster. It is empty before the first commit.
func (s *Session) LastRoundScores() []int {
	return slices.Clone(s.lastRound)
}

// ActivePlayers yields the players who are not eliminated, in roster order.
func (s *Session) ActivePlayers() iter.Seq[Player] {
	return func(yield func(Player) bool) {
		for _, p := range s.players {
			if p.Eliminated {
				continue
			}
			if !yield(*p.clone()) {
				return
			}
		}
	}
}

// ActiveCount returns the number of players still in the game.
func (s *Session) ActiveCount() int {
	n := 0
	for _, p := range s.players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

// Winner returns the only remaining active player when exactly one is left.
func (s *Session) Winner() (Player, bool) {
	var winner *Player
	for _, p := range s.players {
		if p.Eliminated {
			continue
		}
		if winner != nil {
			return Player{}, false
		}
		winner = p
	}
	if winner == nil {
		return Player{}, false
	}
	return *winner.clone(), true
}

// Over reports whether at most one player remains active.
func (s *Session) Over() bool {
	return s.ActiveCount() <= 1
}

// Status reports StatusCompleted once the game is over.
func (s *Session) Status() Status {
	if s.Over() {
		return StatusCompleted
	}
	return StatusActive
}

// NextAvatar picks the first avatar not used by the roster, cycling through
// the pool by roster size once every avatar is taken.
func (s *Session) NextAvatar() string {
	pool := s.cfg.Avatars
	if len(pool) == 0 {
		return ""
	}
	used := make(map[string]bool, len(s.players))
	for _, p := range s.players {
		used[p.Avatar] = true
	}
	for _, avatar := range pool {
		if !used[avatar] {
			return avatar
		}
	}
	return pool[len(s.players)%len(pool)]
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.players) {
		return fmt.Errorf("%w: %d (roster has %d)", ErrPlayerIndex, index, len(s.players))
	}
	return nil
}
