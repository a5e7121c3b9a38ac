package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"parlor/internal/game/crazyeights"
)

const rulesText = `Match the top card by suit or rank.
Eights are wild: play one any time and name the next suit.
Can't play? Draw a card.
First to empty their hand wins.`

var suitSymbols = map[crazyeights.Suit]string{
	crazyeights.Hearts:   "♥",
	crazyeights.Diamonds: "♦",
	crazyeights.Clubs:    "♣",
	crazyeights.Spades:   "♠",
}

// Card renders a card as rank and suit symbol.
func Card(c crazyeights.Card) string {
	label := string(c.Rank) + suitSymbols[c.Suit]
	if c.Suit == crazyeights.Hearts || c.Suit == crazyeights.Diamonds {
		return fg(clrRed).Render(label)
	}
	return label
}

// CrazyEights renders the player's side of the table. Hand cards are
// numbered from 1 for the play command; playable ones are marked.
func CrazyEights(v crazyeights.View) string {
	switch v.Phase {
	case crazyeights.PhaseIntro:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Crazy Eights"),
			subtleStyle.Render("start"),
		)
	case crazyeights.PhaseRules:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Rules"),
			boardStyle.Render(rulesText),
			subtleStyle.Render("ok"),
		)
	case crazyeights.PhaseWon:
		return lipgloss.JoinVertical(lipgloss.Left,
			bold(clrGreen).Render("You win!"),
			subtleStyle.Render("start to play again"),
		)
	case crazyeights.PhaseLost:
		return lipgloss.JoinVertical(lipgloss.Left,
			bold(clrRed).Render("You lose."),
			v.Message,
			subtleStyle.Render("start to play again"),
		)
	}

	top := "none"
	if v.Top != nil {
		top = Card(*v.Top)
	}
	if v.ActiveSuit != "" {
		top += fmt.Sprintf(" (suit: %s)", suitSymbols[v.ActiveSuit])
	}
	table := fmt.Sprintf("%s %s   %s %d   %s %d",
		labelStyle.Render("Top"), top,
		labelStyle.Render("Deck"), v.DeckCount,
		labelStyle.Render("Opponent"), v.OpponentCards,
	)

	hand := make([]string, len(v.Hand))
	for i, c := range v.Hand {
		mark := " "
		if slices.Contains(v.Playable, c.ID) {
			mark = bold(clrGold).Render("*")
		}
		hand[i] = fmt.Sprintf("%d.%s%s", i+1, Card(c), mark)
	}

	turn := subtleStyle.Render("Opponent is thinking...")
	help := ""
	switch {
	case v.Phase == crazyeights.PhaseChoosingSuit:
		turn = bold(clrGold).Render("Choose a suit")
		help = "suit hearts|diamonds|clubs|spades"
	case v.Turn == crazyeights.SeatPlayer:
		turn = bold(clrGreen).Render("Your turn")
		help = "play <n> | draw"
	}

	lines := []string{table, boardStyle.Render(strings.Join(hand, "  ")), turn}
	if v.Message != "" {
		lines = append(lines, fg(clrScore).Render(v.Message))
	}
	if help != "" {
		lines = append(lines, subtleStyle.Render(help))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
