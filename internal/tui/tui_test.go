package tui

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/gameid"
	"github.com/lox/leastcount/internal/store"
	"github.com/lox/leastcount/internal/store/filestore"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}) // Quiet logger for tests
}

func newTestModel(t *testing.T, names ...string) (*Model, *filestore.Store) {
	t.Helper()
	if len(names) == 0 {
		names = []string{"Asha", "Ravi", "Meera"}
	}
	session, err := game.New(game.WithPlayers(names...))
	require.NoError(t, err)

	st, err := filestore.Open(t.TempDir())
	require.NoError(t, err)

	clock := quartz.NewMock(t)
	m := NewModel(context.Background(), session, Options{
		Store:        st,
		Logger:       quietLogger(),
		Clock:        clock,
		IDs:          gameid.NewGenerator(clock, nil),
		MinThreshold: 50,
		MaxThreshold: 500,
	})
	return m, st
}

// run executes line and delivers every resulting store message.
func run(t *testing.T, m *Model, line string) {
	t.Helper()
	drain(m, m.execute(line))
}

func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case savedMsg, recordedMsg:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

// exec runs cmd, unwrapping a batch that holds a single command.
func exec(cmd tea.Cmd) tea.Msg {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok && len(batch) == 1 {
		return exec(batch[0])
	}
	return msg
}

// recordingStore notes the round of every saved record.
type recordingStore struct {
	store.Store
	rounds []int
}

func (r *recordingStore) SaveSession(ctx context.Context, rec game.Record) error {
	r.rounds = append(r.rounds, rec.CurrentRound)
	return r.Store.SaveSession(ctx, rec)
}

func lastLog(m *Model) string {
	entries := m.Log()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1]
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  command
	}{
		{"", command{}},
		{"   ", command{}},
		{"commit", command{name: "commit", args: []string{}}},
		{"SCORE 1 12", command{name: "score", args: []string{"1", "12"}}},
		{"  rename 2  Kiran Rao ", command{name: "rename", args: []string{"2", "Kiran", "Rao"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseCommand(tt.input))
		})
	}
}

func TestScoreAndCommitSaves(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t)

	run(t, m, "score 1 10")
	assert.Equal(t, "Asha: 10 pending", lastLog(m))
	run(t, m, "s 3 4")

	run(t, m, "commit")
	assert.Contains(t, m.Log(), "Round 1 committed")

	s := m.Session()
	assert.Equal(t, 2, s.CurrentRound())
	require.NoError(t, gameid.Validate(s.ID()))

	rec, err := st.LoadSession(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentRound)
	assert.Equal(t, []int{10}, rec.Players[0].History)
	assert.Equal(t, []int{0}, rec.Players[1].History)
	assert.Equal(t, []int{4}, rec.Players[2].History)
}

func TestInvalidCommandsLeaveSessionUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{"dance", `Unknown command "dance"`},
		{"score 0 5", game.ErrPlayerIndex.Error()},
		{"score 4 5", game.ErrPlayerIndex.Error()},
		{"score x 5", "player must be a number"},
		{"score 1 -1", game.ErrNegativeScore.Error()},
		{"score 1 51", game.ErrScoreTooHigh.Error()},
		{"score 1", "usage"},
		{"commit", game.ErrNoScores.Error()},
		{"edit 1 1 5", game.ErrRoundIndex.Error()},
		{"threshold 20", "between 50 and 500"},
		{"threshold lots", "threshold must be a number"},
		{"add", "usage"},
		{"reset everything", "usage"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			m, _ := newTestModel(t)
			before := m.Session().Record()

			run(t, m, tt.line)

			assert.Contains(t, lastLog(m), tt.want)
			assert.Equal(t, before, m.Session().Record())
		})
	}
}

func TestUndoCommand(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	run(t, m, "undo")
	assert.Equal(t, "Nothing to undo", lastLog(m))

	run(t, m, "score 2 7")
	run(t, m, "commit")
	run(t, m, "undo")

	s := m.Session()
	assert.Equal(t, 1, s.CurrentRound())
	p, err := s.Player(1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Total)
}

func TestRosterCommands(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	run(t, m, "add Kiran Rao")
	assert.Equal(t, "Kiran Rao joined as player 4", lastLog(m))

	run(t, m, "rename 1 Asha K")
	assert.Equal(t, "Asha is now Asha K", lastLog(m))

	run(t, m, "remove 2")
	assert.Equal(t, "Ravi removed", lastLog(m))

	names := []string{}
	for _, p := range m.Session().Players() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Asha K", "Meera", "Kiran Rao"}, names)
}

func TestRemoveRespectsPlayerFloor(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t, "Asha", "Ravi")

	run(t, m, "remove 1")
	assert.Contains(t, lastLog(m), game.ErrTooFewPlayers.Error())
	assert.Equal(t, 2, m.Session().Len())
}

func TestEditAndThreshold(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	run(t, m, "score 1 20")
	run(t, m, "commit")
	run(t, m, "edit 1 1 30")
	assert.Equal(t, "Asha round 1 set to 30, total 30", lastLog(m))

	run(t, m, "threshold 200")
	assert.Equal(t, 200, m.Session().Threshold())
}

func TestGameOverRecordsLeaderboardOnce(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t, "Asha", "Ravi")
	ctx := context.Background()

	run(t, m, "score 1 50")
	run(t, m, "score 2 1")
	run(t, m, "commit")
	run(t, m, "score 1 50")
	run(t, m, "commit")

	require.True(t, m.Session().Over())
	assert.Contains(t, m.Log(), "Asha is out!")
	assert.Contains(t, m.Log(), "Ravi wins the game!")

	entries, err := st.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ravi", entries[0].WinnerName)
	assert.Equal(t, 2, entries[0].TotalRounds)
	assert.Equal(t, 1, entries[0].FinalScore)
	assert.Equal(t, 2, entries[0].PlayersCount)

	rec, err := st.LoadSession(ctx, m.Session().ID())
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, rec.Status)

	// Replaying the final round does not add a second entry.
	run(t, m, "undo")
	run(t, m, "commit")
	entries, err = st.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A reset starts a new game that is recorded again.
	run(t, m, "reset")
	run(t, m, "score 2 50")
	run(t, m, "commit")
	run(t, m, "score 2 50")
	run(t, m, "score 1 3")
	run(t, m, "commit")
	entries, err = st.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Asha", entries[0].WinnerName)
}

func TestSaveAndShare(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t)

	run(t, m, "save")
	id := m.Session().ID()
	assert.Equal(t, "Saved "+id, lastLog(m))

	run(t, m, "share")
	assert.Contains(t, m.Log(), "Resume with: leastcount play --resume "+id)

	_, err := st.LoadSession(context.Background(), id)
	require.NoError(t, err)
}

func TestEnterKeyRunsCommand(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	m.input.SetValue("score 3 9")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Meera: 9 pending", lastLog(m))
	assert.Empty(t, m.input.Value())
}

func TestSavesRunOneAtATime(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t)
	rec := &recordingStore{Store: st}
	m.store = rec

	run(t, m, "score 1 10")
	commitSave := m.execute("commit")
	require.NotNil(t, commitSave)
	assert.Nil(t, m.execute("undo"), "undo save waits for the commit save")

	drain(m, commitSave)

	assert.Equal(t, []int{2, 1}, rec.rounds)
	assert.False(t, m.saving)
	saved, err := st.LoadSession(context.Background(), m.Session().ID())
	require.NoError(t, err)
	assert.Equal(t, m.Session().CurrentRound(), saved.CurrentRound)
	assert.Equal(t, m.Session().Record(), saved)
}

func TestQueuedSavesCollapseToNewest(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t)
	rec := &recordingStore{Store: st}
	m.store = rec

	first := m.execute("save")
	require.NotNil(t, first)
	run(t, m, "add Kiran")
	run(t, m, "add Dev")

	drain(m, first)

	assert.Equal(t, []int{1, 1}, rec.rounds, "two queued saves are sent as one")
	saved, err := st.LoadSession(context.Background(), m.Session().ID())
	require.NoError(t, err)
	assert.Len(t, saved.Players, 5)
	assert.Contains(t, m.Log(), "Saved "+m.Session().ID())
}

func TestQuit(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())

	_, next := m.Update(cmd())
	require.NotNil(t, next)
	assert.IsType(t, tea.QuitMsg{}, next())
}

func TestQuitWaitsForInFlightSave(t *testing.T) {
	t.Parallel()
	m, st := newTestModel(t)

	run(t, m, "score 1 10")
	commitSave := m.execute("commit")
	require.NotNil(t, commitSave)
	run(t, m, "undo")

	assert.Nil(t, m.execute("quit"), "quit waits for the running save")

	_, finalSave := m.Update(exec(commitSave))
	require.NotNil(t, finalSave)
	_, next := m.Update(finalSave())
	require.NotNil(t, next)
	assert.IsType(t, tea.QuitMsg{}, next())

	saved, err := st.LoadSession(context.Background(), m.Session().ID())
	require.NoError(t, err)
	assert.Equal(t, 1, saved.CurrentRound)
}

func TestQuitWithoutStore(t *testing.T) {
	t.Parallel()
	session, err := game.New(game.WithPlayers("Asha", "Ravi"))
	require.NoError(t, err)
	m := NewModel(context.Background(), session, Options{Logger: quietLogger()})

	cmd := m.execute("quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	run(t, m, "score 1 12")
	view := m.View()
	assert.Contains(t, view, "LEAST COUNT")
	assert.Contains(t, view, "Round 1")
	assert.Contains(t, view, "Asha")
	assert.Contains(t, view, "+12")
}

func TestRenderScoreboard(t *testing.T) {
	t.Parallel()

	s, err := game.New(game.WithPlayers("Asha", "Ravi"))
	require.NoError(t, err)
	for range 8 {
		require.NoError(t, s.SetPendingScore(0, 1))
		_, err := s.CommitRound()
		require.NoError(t, err)
	}

	board := RenderScoreboard(s)
	assert.Contains(t, board, "Round 9")
	assert.Contains(t, board, "R8")
	assert.Contains(t, board, "R3")
	assert.NotContains(t, board, "R2 ", "only recent rounds are shown")
	assert.Contains(t, board, "threshold 100")
}

func TestShareText(t *testing.T) {
	t.Parallel()

	s, err := game.New(game.WithPlayers("Asha", "Ravi"))
	require.NoError(t, err)
	s.EnsureID(func() string { return "game_test" })
	require.NoError(t, s.SetPendingScore(1, 40))
	_, err = s.CommitRound()
	require.NoError(t, err)

	lines := strings.Split(ShareText(s), "\n")
	assert.Equal(t, []string{
		"Least Count game game_test, round 2",
		"1. Asha 0",
		"2. Ravi 40",
		"Resume with: leastcount play --resume game_test",
	}, lines)
}
