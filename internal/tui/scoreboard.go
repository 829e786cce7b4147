package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/leastcount/internal/game"
)

// historyColumns is how many of the most recent rounds the scoreboard shows.
const historyColumns = 6

const barWidth = 12

// RenderScoreboard draws the roster with recent round history, pending
// scores and totals coloured by tier.
func RenderScoreboard(s *game.Session) string {
	players := s.Players()
	completed := s.CompletedRounds()
	first := max(0, completed-historyColumns)

	headers := []string{"#", "Player"}
	for r := first; r < completed; r++ {
		headers = append(headers, "R"+strconv.Itoa(r+1))
	}
	headers = append(headers, "Pending", "Total", "")

	rows := make([][]string, 0, len(players))
	for i, p := range players {
		tier := game.TierFor(p.Total, s.Threshold())

		name := PlayerNameStyle.Render(p.Name)
		if p.Eliminated {
			name = EliminatedStyle.Render(p.Name)
		}
		row := []string{strconv.Itoa(i + 1), name}
		for r := first; r < completed; r++ {
			row = append(row, strconv.Itoa(p.History[r]))
		}

		pending := ""
		if p.Active() && p.Pending > 0 {
			pending = PendingStyle.Render("+" + strconv.Itoa(p.Pending))
		}
		row = append(row,
			pending,
			TierStyle(tier).Render(strconv.Itoa(p.Total)),
			renderBar(p.Total, s.Threshold(), tier),
		)
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(RoundInfoStyle)
			}
			return style
		})

	var b strings.Builder
	b.WriteString(RoundInfoStyle.Render(fmt.Sprintf("Round %d", s.CurrentRound())))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  threshold %d  %d/%d active",
		s.Threshold(), s.ActiveCount(), s.Len())))
	b.WriteString("\n")
	b.WriteString(t.String())
	if winner, ok := s.Winner(); ok {
		b.WriteString("\n")
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("%s wins with %d!", winner.Name, winner.Total)))
	}
	return b.String()
}

func renderBar(total, threshold int, tier game.Tier) string {
	bar := progress.New(
		progress.WithSolidFill(tier.Color()),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return bar.ViewAs(game.Progress(total, threshold))
}

// ShareText is a plain-text summary that lets others resume the game.
func ShareText(s *game.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Least Count game %s, round %d\n", s.ID(), s.CurrentRound())
	for i, p := range s.Players() {
		state := ""
		if p.Eliminated {
			state = " (out)"
		}
		fmt.Fprintf(&b, "%d. %s %d%s\n", i+1, p.Name, p.Total, state)
	}
	fmt.Fprintf(&b, "Resume with: leastcount play --resume %s", s.ID())
	return b.String()
}
