package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"parlor/internal/game/blockmatch"
)

var (
	cellStyle     = lipgloss.NewStyle().Width(6).Align(lipgloss.Center)
	selectedStyle = cellStyle.Foreground(clrGold).Bold(true).Reverse(true)
)

// BlockMatch renders the puzzle board with the top row drawn first. Each
// cell shows the block id and value as id:value.
func BlockMatch(v blockmatch.View) string {
	switch v.Status {
	case blockmatch.StatusMenu:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Block Match"),
			"",
			"Pick blocks that add up to the target.",
			subtleStyle.Render("init classic | init time"),
		)
	case blockmatch.StatusGameOver:
		return lipgloss.JoinVertical(lipgloss.Left,
			bold(clrRed).Render("Game Over"),
			fmt.Sprintf("Final score: %s", bold(clrScore).Render(fmt.Sprint(v.Score))),
			subtleStyle.Render("init classic | init time"),
		)
	}

	header := fmt.Sprintf("%s %s   %s %s   %s",
		labelStyle.Render("Target"), bold(clrTarget).Render(fmt.Sprint(v.Target)),
		labelStyle.Render("Score"), bold(clrScore).Render(fmt.Sprint(v.Score)),
		modeLabel(v.State),
	)

	var rows []string
	for row := blockmatch.Rows - 1; row >= 0; row-- {
		cells := make([]string, 0, blockmatch.Cols)
		for col := 0; col < blockmatch.Cols; col++ {
			b, ok := v.At(row, col)
			switch {
			case !ok:
				cells = append(cells, cellStyle.Render("."))
			case slices.Contains(v.Selected, b.ID):
				cells = append(cells, selectedStyle.Render(fmt.Sprintf("%d:%d", b.ID, b.Value)))
			default:
				cells = append(cells, cellStyle.Render(fmt.Sprintf("%d:%d", b.ID, b.Value)))
			}
		}
		line := strings.Join(cells, " ")
		if row == blockmatch.Rows-1 {
			line += subtleStyle.Render("  danger")
		}
		rows = append(rows, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		sumLine(v),
		boardStyle.Render(strings.Join(rows, "\n")),
		subtleStyle.Render("click <id> | init classic | init time"),
	)
}

func modeLabel(s blockmatch.State) string {
	if s.Mode != blockmatch.ModeTime {
		return subtleStyle.Render("classic")
	}
	t := fmt.Sprintf("%ds", s.TimeLeft)
	if s.TimeLeft < 10 {
		return bold(clrRed).Render(t)
	}
	return labelStyle.Render(t)
}

func sumLine(v blockmatch.View) string {
	if v.SelectedSum == 0 {
		return ""
	}
	line := fmt.Sprintf("Sum: %d", v.SelectedSum)
	switch {
	case v.SelectedSum > v.Target:
		return fg(clrRed).Render(line + " (over!)")
	case v.SelectedSum == v.Target:
		return fg(clrGreen).Render(line)
	}
	return labelStyle.Render(line)
}
