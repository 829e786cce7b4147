package game

import (
	"fmt"
	"strings"
)

const (
	DefaultEliminationThreshold = 100
	DefaultMaxRoundScore        = 50
	DefaultUndoLimit            = 10
	DefaultMinPlayers           = 2
)

// Config enumerates the rules a Session is created with.
type Config struct {
	// EliminationThreshold is the cumulative score at which a player is out.
	EliminationThreshold int
	// MaxRoundScore caps a single round's score. Zero disables the cap.
	MaxRoundScore int
	// UndoLimit is the number of snapshots kept for undo.
	UndoLimit int
	// MinPlayers is the roster floor enforced by RemovePlayer.
	MinPlayers int
	// DefaultPlayers is the roster used by New and ResetAll.
	DefaultPlayers []string
	// Avatars is the pool NextAvatar draws from.
	Avatars []string
}

// DefaultConfig returns the standard Least Count rules with four
// placeholder players.
func DefaultConfig() Config {
	return Config{
		EliminationThreshold: DefaultEliminationThreshold,
		MaxRoundScore:        DefaultMaxRoundScore,
		UndoLimit:            DefaultUndoLimit,
		MinPlayers:           DefaultMinPlayers,
		DefaultPlayers:       []string{"Player 1", "Player 2", "Player 3", "Player 4"},
		Avatars: []string{
			"avatars/avatars.png",
			"avatars/boy.png",
			"avatars/male-cartoon.png",
			"avatars/male.png",
			"avatars/man.png",
			"avatars/people.png",
			"avatars/user.png",
			"avatars/avatar.png",
		},
	}
}

// Validate reports the first rule that makes the configuration unusable.
func (c Config) Validate() error {
	if c.EliminationThreshold <= 0 {
		return fmt.Errorf("%w: elimination threshold %d must be positive", ErrInvalidConfig, c.EliminationThreshold)
	}
	if c.MaxRoundScore < 0 {
		return fmt.Errorf("%w: max round score %d must not be negative", ErrInvalidConfig, c.MaxRoundScore)
	}
	if c.UndoLimit < 1 {
		return fmt.Errorf("%w: undo limit must be at least 1", ErrInvalidConfig)
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("%w: min players must be at least 1", ErrInvalidConfig)
	}
	if len(c.DefaultPlayers) < c.MinPlayers {
		return fmt.Errorf("%w: %d default players, need at least %d", ErrInvalidConfig, len(c.DefaultPlayers), c.MinPlayers)
	}
	for i, name := range c.DefaultPlayers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: default player %d has no name", ErrInvalidConfig, i+1)
		}
	}
	return nil
}

// checkScore applies the per-round score rules shared by pending and
// historical edits.
func (c Config) checkScore(value int) error {
	if value < 0 {
		return ErrNegativeScore
	}
	if c.MaxRoundScore > 0 && value > c.MaxRoundScore {
		return fmt.Errorf("%w: %d > %d", ErrScoreTooHigh, value, c.MaxRoundScore)
	}
	return nil
}
