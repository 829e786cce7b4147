package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/gameid"
	"github.com/lox/leastcount/internal/store"
)

const storeTimeout = 10 * time.Second

type logKind int

const (
	logInfo logKind = iota
	logSuccess
	logWarning
	logError
)

type logEntry struct {
	kind logKind
	text string
}

func (e logEntry) render() string {
	switch e.kind {
	case logSuccess:
		return SuccessStyle.Render(e.text)
	case logWarning:
		return WarningStyle.Render(e.text)
	case logError:
		return ErrorStyle.Render(e.text)
	default:
		return GameLogStyle.Render(e.text)
	}
}

// savedMsg reports the result of a session save.
type savedMsg struct {
	id       string
	explicit bool
	err      error
}

// recordedMsg reports the result of a leaderboard write.
type recordedMsg struct {
	entry store.LeaderboardEntry
	err   error
}

// Options configure a Model. Zero values select defaults.
type Options struct {
	// Store persists sessions. A nil store disables saving.
	Store  store.Store
	Logger *log.Logger
	Clock  quartz.Clock
	IDs    *gameid.Generator
	// MinThreshold and MaxThreshold bound the threshold command.
	MinThreshold int
	MaxThreshold int
}

// Model is the Bubble Tea model for a scoring session.
type Model struct {
	ctx     context.Context
	session *game.Session
	store   store.Store
	logger  *log.Logger
	clock   quartz.Clock
	ids     *gameid.Generator

	minThreshold int
	maxThreshold int

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	gameLog       []logEntry
	recorded      bool // leaderboard entry written for the current game
	saving        bool // a savedMsg is outstanding
	dirty         *game.Record
	dirtyExplicit bool
	quitting      bool
	focusedPane   int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

// NewModel creates a model driving session.
func NewModel(ctx context.Context, session *game.Session, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.IDs == nil {
		opts.IDs = gameid.NewGenerator(opts.Clock, nil)
	}
	if opts.MinThreshold <= 0 {
		opts.MinThreshold = 1
	}
	if opts.MaxThreshold < opts.MinThreshold {
		opts.MaxThreshold = int(^uint(0) >> 1)
	}

	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "score 1 12, commit, undo, help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctx:          ctx,
		session:      session,
		store:        opts.Store,
		logger:       opts.Logger.WithPrefix("tui"),
		clock:        opts.Clock,
		ids:          opts.IDs,
		minThreshold: opts.MinThreshold,
		maxThreshold: opts.MaxThreshold,
		logViewport:  vp,
		input:        ti,
		focusedPane:  1,
		// A resumed game that already finished has been recorded.
		recorded: session.Over(),
	}
	m.addLog(logInfo, fmt.Sprintf("Round %d. Type help for commands.", session.CurrentRound()))
	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to save session", "id", msg.id, "error", msg.err)
			m.addLog(logError, fmt.Sprintf("Save failed: %v", msg.err))
		} else if msg.explicit {
			m.addLog(logSuccess, fmt.Sprintf("Saved %s", msg.id))
		}
		return m, m.saveDone()

	case recordedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to record result", "error", msg.err)
			m.addLog(logError, fmt.Sprintf("Leaderboard update failed: %v", msg.err))
		} else {
			m.logger.Info("Result recorded", "winner", msg.entry.WinnerName, "rounds", msg.entry.TotalRounds)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if cmd := m.execute(line); cmd != nil {
					cmds = append(cmds, cmd)
				}
				if m.quitting {
					return m, tea.Batch(cmds...)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// quit saves the session and exits once every save has reported back.
func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if cmd := m.saveCmd(false); cmd != nil || m.saving {
		return cmd
	}
	return tea.Quit
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := HeaderStyle.Width(m.width).Render(" LEAST COUNT  " + m.session.ID())

	board := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(1, m.width-2)).
		Render(RenderScoreboard(m.session))

	inputContent := m.renderInputPane()
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(1, m.width-2))
	if m.focusedPane == 1 {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	inputPane := inputStyle.Render(inputContent)

	used := lipgloss.Height(header) + lipgloss.Height(board) + lipgloss.Height(inputPane)
	m.logViewport.Width = max(1, m.width-2)
	m.logViewport.Height = max(1, m.height-used-2)
	m.logViewport.SetContent(m.renderLog())
	if !m.initialized && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(m.logViewport.Height)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, board, logPane, inputPane)
}

func (m *Model) renderLog() string {
	lines := make([]string, len(m.gameLog))
	for i, e := range m.gameLog {
		lines[i] = e.render()
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderInputPane() string {
	var content strings.Builder
	content.WriteString(m.input.View())
	content.WriteString("\n")
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to run • Ctrl+C to quit"))
	}
	return content.String()
}

// addLog appends an entry to the game log and scrolls to it.
func (m *Model) addLog(kind logKind, text string) {
	m.gameLog = append(m.gameLog, logEntry{kind: kind, text: text})
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.SetContent(m.renderLog())
		m.logViewport.GotoBottom()
	}
}

// Log returns the unstyled log entries.
func (m *Model) Log() []string {
	out := make([]string, len(m.gameLog))
	for i, e := range m.gameLog {
		out[i] = e.text
	}
	return out
}

// Session returns the session being scored.
func (m *Model) Session() *game.Session {
	return m.session
}
