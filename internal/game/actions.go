package game

import (
	"fmt"
	"slices"
	"strings"
)

// AddPlayer appends a player with no score. Players joining after the first
// round get a zero for every committed round so histories stay aligned.
// An empty avatar is filled from NextAvatar.
func (s *Session) AddPlayer(name, avatar string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if avatar == "" {
		avatar = s.NextAvatar()
	}

	s.save()
	s.players = append(s.players, &Player{
		Name:    name,
		Avatar:  avatar,
		History: make([]int, s.CompletedRounds()),
	})
	if len(s.lastRound) > 0 {
		s.lastRound = append(s.lastRound, 0)
	}
	return nil
}

// RemovePlayer drops the player at index. It fails with ErrTooFewPlayers
// when the roster is already at the configured floor.
func (s *Session) RemovePlayer(index int) error {
	if len(s.players) <= s.cfg.MinPlayers {
		return ErrTooFewPlayers
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}

	s.save()
	s.players = slices.Delete(s.players, index, index+1)
	if index < len(s.lastRound) {
		s.lastRound = slices.Delete(s.lastRound, index, index+1)
	}
	return nil
}

// RenamePlayer sets a new display name and returns the name in effect. A
// blank name leaves the previous one in place.
func (s *Session) RenamePlayer(index int, name string) (string, error) {
	if err := s.checkIndex(index); err != nil {
		return "", err
	}
	p := s.players[index]
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	return p.Name, nil
}

// SetPendingScore overwrites the score for the round in progress. It is a
// no-op for eliminated players.
func (s *Session) SetPendingScore(index, value int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if err := s.cfg.checkScore(value); err != nil {
		return err
	}
	p := s.players[index]
	if p.Eliminated {
		return nil
	}
	p.Pending = value
	return nil
}

// CommitRound records the round in progress and returns the names of the
// players it eliminated, in roster order. The slice is non-nil on success.
// It fails with ErrNoScores when no active player has a pending score.
//
// Every player gets a history entry, so eliminated players record a zero and
// round indexes stay the same across the roster.
func (s *Session) CommitRound() ([]string, error) {
	scored := false
	for _, p := range s.players {
		if !p.Eliminated && p.Pending > 0 {
			scored = true
			break
		}
	}
	if !scored {
		return nil, ErrNoScores
	}

	s.save()
	eliminated := []string{}
	s.lastRound = make([]int, len(s.players))
	for i, p := range s.players {
		score := p.Pending
		if p.Eliminated {
			score = 0
		}
		p.History = append(p.History, score)
		p.Total += score
		if p.judge(s.threshold) {
			eliminated = append(eliminated, p.Name)
		}
		s.lastRound[i] = score
		p.Pending = 0
	}
	s.currentRound++
	return eliminated, nil
}

// Undo restores the state captured before the most recent undoable action
// and reports whether there was one. Elimination is re-derived against the
// current threshold, which undo does not roll back.
func (s *Session) Undo() bool {
	snap, ok := s.undo.pop()
	if !ok {
		return false
	}
	s.players = snap.players
	s.currentRound = snap.currentRound
	s.lastRound = snap.lastRound
	for _, p := range s.players {
		p.judge(s.threshold)
	}
	return true
}

// ResetScores clears every score and the undo history and returns to round
// 1, keeping the roster.
func (s *Session) ResetScores() {
	for _, p := range s.players {
		p.Pending = 0
		p.Total = 0
		p.History = nil
		p.Eliminated = false
	}
	s.currentRound = 1
	s.lastRound = nil
	s.undo.clear()
}

// ResetAll is ResetScores plus a return to the configured default roster.
func (s *Session) ResetAll() {
	s.players = nil
	s.seat(s.cfg.DefaultPlayers)
	s.currentRound = 1
	s.lastRound = nil
	s.undo.clear()
}

// UpdateEliminationThreshold changes the threshold and re-derives every
// player's elimination from their existing total.
func (s *Session) UpdateEliminationThreshold(threshold int) error {
	if threshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}
	s.threshold = threshold
	for _, p := range s.players {
		p.judge(threshold)
	}
	return nil
}

// EditHistoricalScore overwrites one committed round for one player, then
// recomputes that player's total and elimination. No other player changes.
func (s *Session) EditHistoricalScore(playerIndex, roundIndex, value int) error {
	if err := s.checkIndex(playerIndex); err != nil {
		return err
	}
	p := s.players[playerIndex]
	if roundIndex < 0 || roundIndex >= len(p.History) {
		return fmt.Errorf("%w: %d (player has %d rounds)", ErrRoundIndex, roundIndex, len(p.History))
	}
	if err := s.cfg.checkScore(value); err != nil {
		return err
	}

	s.save()
	p.History[roundIndex] = value
	p.settle(s.threshold)
	if roundIndex == len(p.History)-1 && playerIndex < len(s.lastRound) {
		s.lastRound[playerIndex] = value
	}
	return nil
}
