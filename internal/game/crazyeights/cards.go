// Package crazyeights implements Crazy Eights against a single scripted
// opponent.
package crazyeights

import (
	"fmt"
	"strconv"
)

// Suit of a card.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits in enumeration order. Suit ties are broken by this order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	for _, v := range Suits {
		if s == v {
			return true
		}
	}
	return false
}

// Rank of a card.
type Rank string

// Eight is the wild rank.
const Eight Rank = "8"

// Ranks in deck order.
var Ranks = []Rank{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// HandSize is the number of cards dealt to each side.
const HandSize = 8

// Card is immutable once dealt.
type Card struct {
	ID    string `json:"id"`
	Suit  Suit   `json:"suit"`
	Rank  Rank   `json:"rank"`
	Value int    `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// RankValue is the nominal weight of a rank: aces 1, number cards their
// face value, tens and faces 10 and eights 50.
func RankValue(r Rank) int {
	switch r {
	case Eight:
		return 50
	case "A":
		return 1
	case "10", "J", "Q", "K":
		return 10
	}
	v, _ := strconv.Atoi(string(r))
	return v
}

// NewDeck returns the 52 cards in suit then rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{
				ID:    fmt.Sprintf("card-%d", len(deck)),
				Suit:  s,
				Rank:  r,
				Value: RankValue(r),
			})
		}
	}
	return deck
}

// Rand is the random source used for shuffling. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Shuffle returns a uniformly permuted copy of deck (Fisher-Yates).
func Shuffle(deck []Card, rng Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal splits deck into the player's hand, the opponent's hand, the first
// discard and the draw pile, in that order from the top.
func Deal(deck []Card) (player, ai []Card, first Card, rest []Card) {
	player = append([]Card(nil), deck[:HandSize]...)
	ai = append([]Card(nil), deck[HandSize:2*HandSize]...)
	first = deck[2*HandSize]
	rest = append([]Card{}, deck[2*HandSize+1:]...)
	return player, ai, first, rest
}

// IsValidMove reports whether card may go on top. An eight is always
// playable; after an eight the declared suit must be followed; otherwise
// suit or rank must match the top card.
func IsValidMove(card, top Card, activeSuit Suit) bool {
	if card.Rank == Eight {
		return true
	}
	if activeSuit != "" {
		return card.Suit == activeSuit
	}
	return card.Suit == top.Suit || card.Rank == top.Rank
}
