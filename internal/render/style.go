// Package render draws game views for a terminal.
package render

import "github.com/charmbracelet/lipgloss"

var (
	clrBorder = lipgloss.Color("#8B4513")
	clrSubtle = lipgloss.Color("#8b949e")
	clrTarget = lipgloss.Color("#2B5F75")
	clrScore  = lipgloss.Color("#E84A5F")
	clrGreen  = lipgloss.Color("#3fb950")
	clrRed    = lipgloss.Color("#f85149")
	clrGold   = lipgloss.Color("#e3b341")

	titleStyle  = lipgloss.NewStyle().Foreground(clrTarget).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(clrBorder).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)
	boardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrBorder).
			Padding(0, 1)
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}
