package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, "Asha", "Ravi", "Meera")
	s.EnsureID(func() string { return "game_abc" })
	require.NoError(t, s.UpdateEliminationThreshold(60))
	commitScores(t, s, 30, 10, 45)
	commitScores(t, s, 35, 10)

	rec := s.Record()
	assert.Equal(t, "game_abc", rec.ID)
	assert.Equal(t, 3, rec.CurrentRound)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, 60, rec.Threshold)
	assert.Equal(t, PlayerRecord{Name: "Asha", Avatar: rec.Players[0].Avatar, History: []int{30, 35}, Total: 65, Eliminated: true}, rec.Players[0])

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Restore(decoded)
	require.NoError(t, err)
	assert.Equal(t, rec, restored.Record())
	assert.Equal(t, "game_abc", restored.ID())
	assert.Equal(t, 0, restored.UndoDepth())
	requireInvariants(t, restored)
}

func TestRecordJSONShape(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, "Asha", "Ravi")
	commitScores(t, s, 4)

	data, err := json.Marshal(s.Record())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "id")
	assert.Contains(t, raw, "currentRound")
	assert.Equal(t, "active", raw["status"])

	players := raw["players"].([]any)
	first := players[0].(map[string]any)
	assert.Equal(t, "Asha", first["name"])
	assert.Equal(t, []any{4.0}, first["roundHistory"])
	assert.Equal(t, 4.0, first["totalScore"])
	assert.Equal(t, false, first["eliminated"])
	assert.NotContains(t, first, "pending", "zero pending is omitted")
}

func TestRestoreRejectsInconsistentRecords(t *testing.T) {
	t.Parallel()

	valid := func() Record {
		return Record{
			CurrentRound: 2,
			Players: []PlayerRecord{
				{Name: "Asha", History: []int{10}, Total: 10},
				{Name: "Ravi", History: []int{0}, Total: 0},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"too few players", func(r *Record) { r.Players = r.Players[:1] }},
		{"round zero", func(r *Record) { r.CurrentRound = 0 }},
		{"ragged history", func(r *Record) { r.Players[1].History = nil }},
		{"total mismatch", func(r *Record) { r.Players[0].Total = 11 }},
		{"negative score", func(r *Record) { r.Players[0].History[0] = -10; r.Players[0].Total = -10 }},
		{"blank name", func(r *Record) { r.Players[0].Name = " " }},
		{"negative pending", func(r *Record) { r.Players[1].Pending = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := valid()
			tt.mutate(&rec)
			_, err := Restore(rec)
			require.ErrorIs(t, err, ErrInvalidRecord)
		})
	}

	s, err := Restore(valid())
	require.NoError(t, err)
	assert.Equal(t, DefaultEliminationThreshold, s.Threshold(), "zero threshold falls back to config")
}

func TestRecordKeepsPendingScores(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, "Asha", "Ravi", "Meera")
	commitScores(t, s, 10, 45)
	require.NoError(t, s.SetPendingScore(0, 7))
	require.NoError(t, s.SetPendingScore(2, 3))

	rec := s.Record()
	assert.Equal(t, 7, rec.Players[0].Pending)
	assert.Equal(t, 3, rec.Players[2].Pending)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Restore(decoded)
	require.NoError(t, err)
	players := restored.Players()
	assert.Equal(t, 7, players[0].Pending)
	assert.Equal(t, 0, players[1].Pending)
	assert.Equal(t, 3, players[2].Pending)

	_, err = restored.CommitRound()
	require.NoError(t, err)
	assert.Equal(t, []int{10, 7}, restored.Players()[0].History)
	requireInvariants(t, restored)
}

func TestRestoreDropsPendingOfEliminatedPlayers(t *testing.T) {
	t.Parallel()

	rec := Record{
		CurrentRound: 2,
		Threshold:    20,
		Players: []PlayerRecord{
			{Name: "Asha", History: []int{25}, Total: 25, Pending: 4},
			{Name: "Ravi", History: []int{5}, Total: 5, Pending: 6},
		},
	}
	s, err := Restore(rec)
	require.NoError(t, err)

	players := s.Players()
	assert.True(t, players[0].Eliminated)
	assert.Equal(t, 0, players[0].Pending)
	assert.Equal(t, 6, players[1].Pending)
}

func TestRestoreRederivesElimination(t *testing.T) {
	t.Parallel()

	rec := Record{
		CurrentRound: 2,
		Threshold:    20,
		Players: []PlayerRecord{
			{Name: "Asha", History: []int{25}, Total: 25, Eliminated: false},
			{Name: "Ravi", History: []int{5}, Total: 5, Eliminated: true},
		},
	}
	s, err := Restore(rec)
	require.NoError(t, err)

	players := s.Players()
	assert.True(t, players[0].Eliminated)
	assert.False(t, players[1].Eliminated)
	winner, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, "Ravi", winner.Name)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, "Asha", "Ravi", "Meera")
	require.NoError(t, s.UpdateEliminationThreshold(50))
	commitScores(t, s, 50, 20, 50)
	commitScores(t, s, 0, 5, 50)

	sum := s.Summarize()
	assert.Equal(t, Summary{WinnerName: "Ravi", TotalRounds: 2, FinalScore: 25, PlayersCount: 3}, sum)
}

func TestSummarizeEveryoneOut(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, "Asha", "Ravi")
	require.NoError(t, s.UpdateEliminationThreshold(10))
	commitScores(t, s, 12, 30)

	sum := s.Summarize()
	assert.Equal(t, "Asha", sum.WinnerName)
	assert.Equal(t, 12, sum.FinalScore)
	assert.Equal(t, StatusCompleted, s.Status())
}
