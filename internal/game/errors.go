package game

import "errors"

// Validation and caller-misuse failures. Every operation checks its
// preconditions before writing state, so a returned error always means the
// session is unchanged.
var (
	ErrNoScores         = errors.New("no scores entered for this round")
	ErrTooFewPlayers    = errors.New("minimum number of players reached")
	ErrPlayerIndex      = errors.New("player index out of range")
	ErrRoundIndex       = errors.New("round index out of range")
	ErrNegativeScore    = errors.New("score must not be negative")
	ErrScoreTooHigh     = errors.New("score exceeds the per-round maximum")
	ErrInvalidThreshold = errors.New("elimination threshold must be positive")
	ErrEmptyName        = errors.New("player name must not be empty")
	ErrInvalidRecord    = errors.New("invalid session record")
	ErrInvalidConfig    = errors.New("invalid game configuration")
)
