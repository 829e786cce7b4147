// Package game implements the Least Count scoring engine.
//
// The main type is Session, which owns the roster, the round in progress,
// elimination against a configurable threshold, retroactive edits of
// committed rounds and a bounded undo history.
//
// # Basic Usage
//
//	s, _ := game.New() // Player 1..4, threshold 100
//	s.SetPendingScore(0, 40)
//	s.SetPendingScore(2, 12)
//	out, err := s.CommitRound()
//	if errors.Is(err, game.ErrNoScores) {
//	    // nothing was entered, nothing changed
//	}
//	if winner, ok := s.Winner(); ok {
//	    fmt.Println(winner.Name, "wins")
//	}
//
// # Invariants
//
// For every player Total equals the sum of History and Eliminated equals
// Total >= Threshold(). Every player's History has CurrentRound()-1 entries:
// a commit appends to all players, including eliminated ones (who record a
// zero), and players added mid-game start with zeros for the rounds they
// missed.
//
// AddPlayer, RemovePlayer, CommitRound and EditHistoricalScore push a
// snapshot before mutating; Undo pops them in LIFO order. Failed operations
// never change the session.
//
// A Session is not safe for concurrent use.
package game
