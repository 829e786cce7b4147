package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/store"
)

// command is one parsed line from the input pane.
type command struct {
	name string
	args []string
}

func parseCommand(input string) command {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return command{}
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}
}

type handler func(m *Model, args []string) (tea.Cmd, error)

var handlers = map[string]handler{
	"score":     (*Model).cmdScore,
	"s":         (*Model).cmdScore,
	"commit":    (*Model).cmdCommit,
	"c":         (*Model).cmdCommit,
	"undo":      (*Model).cmdUndo,
	"u":         (*Model).cmdUndo,
	"add":       (*Model).cmdAdd,
	"remove":    (*Model).cmdRemove,
	"rename":    (*Model).cmdRename,
	"edit":      (*Model).cmdEdit,
	"threshold": (*Model).cmdThreshold,
	"reset":     (*Model).cmdReset,
	"save":      (*Model).cmdSave,
	"share":     (*Model).cmdShare,
	"help":      (*Model).cmdHelp,
	"?":         (*Model).cmdHelp,
	"quit":      (*Model).cmdQuit,
	"exit":      (*Model).cmdQuit,
}

var helpLines = []string{
	"score <player> <points>   set a pending score (alias s)",
	"commit                    commit the round (alias c)",
	"undo                      undo the last change (alias u)",
	"add <name>                add a player",
	"remove <player>           remove a player",
	"rename <player> <name>    rename a player",
	"edit <player> <round> <n> correct a committed round",
	"threshold <n>             change the elimination threshold",
	"reset | reset all         clear scores, or restore the default roster",
	"save | share              save the game, or save and print a resume line",
	"quit                      save and exit",
}

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// execute parses and runs one input line.
func (m *Model) execute(line string) tea.Cmd {
	cmd := parseCommand(line)
	if cmd.name == "" {
		return nil
	}
	h, ok := handlers[cmd.name]
	if !ok {
		m.addLog(logError, fmt.Sprintf("Unknown command %q, type help for a list", cmd.name))
		return nil
	}
	next, err := h(m, cmd.args)
	if err != nil {
		m.logger.Debug("Command failed", "command", cmd.name, "error", err)
		m.addLog(logError, err.Error())
		return nil
	}
	return next
}

// playerArg converts a 1-based player number into an index.
func (m *Model) playerArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("player must be a number, got %q", arg)
	}
	return n - 1, nil
}

func intArg(what, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", what, arg)
	}
	return n, nil
}

func (m *Model) cmdScore(args []string) (tea.Cmd, error) {
	if len(args) != 2 {
		return nil, usage("score <player> <points>")
	}
	i, err := m.playerArg(args[0])
	if err != nil {
		return nil, err
	}
	points, err := intArg("points", args[1])
	if err != nil {
		return nil, err
	}
	if err := m.session.SetPendingScore(i, points); err != nil {
		return nil, err
	}
	p, _ := m.session.Player(i)
	if !p.Active() {
		m.addLog(logWarning, fmt.Sprintf("%s is out, score ignored", p.Name))
		return nil, nil
	}
	m.addLog(logInfo, fmt.Sprintf("%s: %d pending", p.Name, points))
	return nil, nil
}

func (m *Model) cmdCommit(args []string) (tea.Cmd, error) {
	round := m.session.CurrentRound()
	out, err := m.session.CommitRound()
	if err != nil {
		return nil, err
	}
	m.logger.Info("Round committed", "round", round, "eliminated", len(out))
	m.addLog(logSuccess, fmt.Sprintf("Round %d committed", round))
	for _, name := range out {
		m.addLog(logWarning, fmt.Sprintf("%s is out!", name))
	}

	cmds := []tea.Cmd{m.saveCmd(false)}
	if m.session.Over() {
		if winner, ok := m.session.Winner(); ok {
			m.addLog(logSuccess, fmt.Sprintf("%s wins the game!", winner.Name))
		} else {
			m.addLog(logWarning, "Everyone is out, no winner this time")
		}
		m.addLog(logInfo, "Type reset to play again")
		cmds = append(cmds, m.recordResultCmd())
	}
	return tea.Batch(cmds...), nil
}

func (m *Model) cmdUndo(args []string) (tea.Cmd, error) {
	if !m.session.Undo() {
		m.addLog(logWarning, "Nothing to undo")
		return nil, nil
	}
	m.addLog(logInfo, "Undone")
	return m.saveCmd(false), nil
}

func (m *Model) cmdAdd(args []string) (tea.Cmd, error) {
	if len(args) == 0 {
		return nil, usage("add <name>")
	}
	name := strings.Join(args, " ")
	if err := m.session.AddPlayer(name, ""); err != nil {
		return nil, err
	}
	m.addLog(logSuccess, fmt.Sprintf("%s joined as player %d", name, m.session.Len()))
	return m.saveCmd(false), nil
}

func (m *Model) cmdRemove(args []string) (tea.Cmd, error) {
	if len(args) != 1 {
		return nil, usage("remove <player>")
	}
	i, err := m.playerArg(args[0])
	if err != nil {
		return nil, err
	}
	p, err := m.session.Player(i)
	if err != nil && !errors.Is(err, game.ErrPlayerIndex) {
		return nil, err
	}
	if err := m.session.RemovePlayer(i); err != nil {
		return nil, err
	}
	m.addLog(logInfo, fmt.Sprintf("%s removed", p.Name))
	return m.saveCmd(false), nil
}

func (m *Model) cmdRename(args []string) (tea.Cmd, error) {
	if len(args) < 2 {
		return nil, usage("rename <player> <name>")
	}
	i, err := m.playerArg(args[0])
	if err != nil {
		return nil, err
	}
	old, err := m.session.Player(i)
	if err != nil {
		return nil, err
	}
	name, err := m.session.RenamePlayer(i, strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	m.addLog(logInfo, fmt.Sprintf("%s is now %s", old.Name, name))
	return m.saveCmd(false), nil
}

func (m *Model) cmdEdit(args []string) (tea.Cmd, error) {
	if len(args) != 3 {
		return nil, usage("edit <player> <round> <points>")
	}
	i, err := m.playerArg(args[0])
	if err != nil {
		return nil, err
	}
	round, err := intArg("round", args[1])
	if err != nil {
		return nil, err
	}
	points, err := intArg("points", args[2])
	if err != nil {
		return nil, err
	}
	if err := m.session.EditHistoricalScore(i, round-1, points); err != nil {
		return nil, err
	}
	p, _ := m.session.Player(i)
	m.addLog(logInfo, fmt.Sprintf("%s round %d set to %d, total %d", p.Name, round, points, p.Total))
	return m.saveCmd(false), nil
}

func (m *Model) cmdThreshold(args []string) (tea.Cmd, error) {
	if len(args) != 1 {
		return nil, usage("threshold <points>")
	}
	n, err := intArg("threshold", args[0])
	if err != nil {
		return nil, err
	}
	if n < m.minThreshold || n > m.maxThreshold {
		return nil, fmt.Errorf("threshold must be between %d and %d", m.minThreshold, m.maxThreshold)
	}
	if err := m.session.UpdateEliminationThreshold(n); err != nil {
		return nil, err
	}
	m.addLog(logInfo, fmt.Sprintf("Elimination threshold is now %d", n))
	return m.saveCmd(false), nil
}

func (m *Model) cmdReset(args []string) (tea.Cmd, error) {
	switch {
	case len(args) == 0:
		m.session.ResetScores()
		m.addLog(logInfo, "Scores reset")
	case len(args) == 1 && strings.EqualFold(args[0], "all"):
		m.session.ResetAll()
		m.addLog(logInfo, "Game reset to the default players")
	default:
		return nil, usage("reset [all]")
	}
	m.recorded = false
	return m.saveCmd(false), nil
}

func (m *Model) cmdSave(args []string) (tea.Cmd, error) {
	return m.saveCmd(true), nil
}

func (m *Model) cmdShare(args []string) (tea.Cmd, error) {
	save := m.saveCmd(true)
	for line := range strings.Lines(ShareText(m.session)) {
		m.addLog(logInfo, strings.TrimRight(line, "\n"))
	}
	return save, nil
}

func (m *Model) cmdHelp(args []string) (tea.Cmd, error) {
	for _, line := range helpLines {
		m.addLog(logInfo, line)
	}
	return nil, nil
}

func (m *Model) cmdQuit(args []string) (tea.Cmd, error) {
	return m.quit(), nil
}

// saveCmd persists a copy of the session taken now. Only one save runs at a
// time; while one is in flight the newest copy waits in m.dirty and is sent
// when the running save reports back.
func (m *Model) saveCmd(explicit bool) tea.Cmd {
	if m.store == nil {
		return nil
	}
	m.session.EnsureID(m.ids.Generate)
	rec := m.session.Record()
	if m.saving {
		m.dirty = &rec
		m.dirtyExplicit = m.dirtyExplicit || explicit
		return nil
	}
	return m.persist(rec, explicit)
}

func (m *Model) persist(rec game.Record, explicit bool) tea.Cmd {
	m.saving = true
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		return savedMsg{id: rec.ID, explicit: explicit, err: st.SaveSession(ctx, rec)}
	}
}

// saveDone sends the queued copy, if any, once a save has reported back.
func (m *Model) saveDone() tea.Cmd {
	m.saving = false
	if m.dirty != nil {
		rec, explicit := *m.dirty, m.dirtyExplicit
		m.dirty, m.dirtyExplicit = nil, false
		return m.persist(rec, explicit)
	}
	if m.quitting {
		return tea.Quit
	}
	return nil
}

// recordResultCmd adds the finished game to the leaderboard once.
func (m *Model) recordResultCmd() tea.Cmd {
	if m.store == nil || m.recorded {
		return nil
	}
	m.recorded = true
	entry := store.NewLeaderboardEntry(m.session.Summarize(), m.clock)
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		return recordedMsg{entry: entry, err: st.AddLeaderboardEntry(ctx, entry)}
	}
}
