package game

import (
	"fmt"
	"slices"
	"strings"
)

// Record is the serializable form of a Session handed to persistence. It
// carries everything needed to rebuild the session except undo history.
type Record struct {
	ID           string         `json:"id"`
	CurrentRound int            `json:"currentRound"`
	Status       Status         `json:"status"`
	Threshold    int            `json:"eliminationThreshold"`
	Players      []PlayerRecord `json:"players"`
}

// PlayerRecord is one player inside a Record.
type PlayerRecord struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	History    []int  `json:"roundHistory"`
	Total      int    `json:"totalScore"`
	Eliminated bool   `json:"eliminated"`
	Pending    int    `json:"pending,omitempty"`
}

// Summary describes a completed game for the leaderboard.
type Summary struct {
	WinnerName   string
	TotalRounds  int
	FinalScore   int
	PlayersCount int
}

// Record captures the session for persistence.
func (s *Session) Record() Record {
	rec := Record{
		ID:           s.id,
		CurrentRound: s.currentRound,
		Status:       s.Status(),
		Threshold:    s.threshold,
		Players:      make([]PlayerRecord, len(s.players)),
	}
	for i, p := range s.players {
		rec.Players[i] = PlayerRecord{
			Name:       p.Name,
			Avatar:     p.Avatar,
			History:    slices.Clone(p.History),
			Total:      p.Total,
			Eliminated: p.Eliminated,
			Pending:    p.Pending,
		}
	}
	if rec.Players == nil {
		rec.Players = []PlayerRecord{}
	}
	return rec
}

// Restore rebuilds a session from a record. The record's threshold wins over
// the configured one when set. Totals must match histories; elimination is
// re-derived.
func Restore(rec Record, opts ...Option) (*Session, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(o.cfg.MinPlayers); err != nil {
		return nil, err
	}

	threshold := o.cfg.EliminationThreshold
	if rec.Threshold > 0 {
		threshold = rec.Threshold
	}
	s := &Session{
		cfg:          o.cfg,
		threshold:    threshold,
		currentRound: rec.CurrentRound,
		undo:         newUndoStack(o.cfg.UndoLimit),
		id:           rec.ID,
		players:      make([]*Player, len(rec.Players)),
	}
	for i, pr := range rec.Players {
		p := &Player{
			Name:    strings.TrimSpace(pr.Name),
			Avatar:  pr.Avatar,
			History: slices.Clone(pr.History),
		}
		p.settle(threshold)
		if p.Active() {
			p.Pending = pr.Pending
		}
		s.players[i] = p
	}
	return s, nil
}

// Validate checks the structural invariants of a record.
func (r Record) Validate(minPlayers int) error {
	if len(r.Players) < minPlayers {
		return fmt.Errorf("%w: %d players, need at least %d", ErrInvalidRecord, len(r.Players), minPlayers)
	}
	if r.CurrentRound < 1 {
		return fmt.Errorf("%w: current round %d", ErrInvalidRecord, r.CurrentRound)
	}
	rounds := r.CurrentRound - 1
	for i, p := range r.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: player %d has no name", ErrInvalidRecord, i+1)
		}
		if p.Pending < 0 {
			return fmt.Errorf("%w: player %q pending score %d", ErrInvalidRecord, p.Name, p.Pending)
		}
		if len(p.History) != rounds {
			return fmt.Errorf("%w: player %q has %d rounds, want %d", ErrInvalidRecord, p.Name, len(p.History), rounds)
		}
		sum := 0
		for round, score := range p.History {
			if score < 0 {
				return fmt.Errorf("%w: player %q round %d score %d", ErrInvalidRecord, p.Name, round+1, score)
			}
			sum += score
		}
		if sum != p.Total {
			return fmt.Errorf("%w: player %q total %d, rounds sum to %d", ErrInvalidRecord, p.Name, p.Total, sum)
		}
	}
	return nil
}

// Summarize describes the game for the leaderboard. The winner is the only
// active player; if nobody is left active the first player in roster order
// is reported.
func (s *Session) Summarize() Summary {
	winner, ok := s.Winner()
	if !ok {
		for p := range s.ActivePlayers() {
			winner, ok = p, true
			break
		}
	}
	if !ok && len(s.players) > 0 {
		winner = *s.players[0].clone()
	}
	return Summary{
		WinnerName:   winner.Name,
		TotalRounds:  s.CompletedRounds(),
		FinalScore:   winner.Total,
		PlayersCount: len(s.players),
	}
}
