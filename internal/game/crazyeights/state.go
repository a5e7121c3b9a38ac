package crazyeights

import (
	"fmt"
	"slices"
)

// Phase of a match.
type Phase string

const (
	PhaseIntro   Phase = "intro"
	PhaseRules   Phase = "rules"
	PhasePlaying Phase = "playing"
	// PhaseChoosingSuit holds the player's turn after they played an eight
	// until they declare the next suit.
	PhaseChoosingSuit Phase = "awaiting_suit_choice"
	PhaseWon          Phase = "won"
	PhaseLost         Phase = "lost"
)

// Over reports whether the match has been decided.
func (p Phase) Over() bool {
	return p == PhaseWon || p == PhaseLost
}

// Seat identifies whose turn it is.
type Seat string

const (
	SeatPlayer Seat = "player"
	SeatAI     Seat = "ai"
)

// Player is one side of the table.
type Player struct {
	ID   string `json:"id"`
	Hand []Card `json:"hand"`
}

// Outcome is the result of the player trying to play a card.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeChooseSuit Outcome = "choose_suit"
	OutcomeInvalid    Outcome = "invalid"
	// OutcomeIgnored means the play was out of turn or out of phase.
	OutcomeIgnored Outcome = "ignored"
)

// Messages shown to the player.
const (
	MsgInvalidMove = "Invalid move!"
	MsgNotInHand   = "That card is not in your hand."
	MsgDeckEmpty   = "Deck is empty! Passing turn."
	MsgAIDrew      = "AI drew a card"
	MsgAIPasses    = "Deck empty, AI passes"
)

// State is a whole Crazy Eights match. Transitions return a new State and
// leave the receiver's slices untouched.
type State struct {
	Phase      Phase  `json:"phase"`
	Deck       []Card `json:"deck"`
	Discard    []Card `json:"discardPile"`
	Player     Player `json:"player"`
	AI         Player `json:"ai"`
	Turn       Seat   `json:"currentTurn"`
	ActiveSuit Suit   `json:"activeSuit,omitempty"`
	Message    string `json:"message"`
}

// NewState returns the intro screen state.
func NewState() State {
	return State{
		Phase:   PhaseIntro,
		Deck:    []Card{},
		Discard: []Card{},
		Player:  Player{ID: string(SeatPlayer), Hand: []Card{}},
		AI:      Player{ID: string(SeatAI), Hand: []Card{}},
		Turn:    SeatPlayer,
	}
}

// Top returns the top of the discard pile.
func (s State) Top() (Card, bool) {
	if len(s.Discard) == 0 {
		return Card{}, false
	}
	return s.Discard[len(s.Discard)-1], true
}

// CardCount is the number of cards across every container.
func (s State) CardCount() int {
	return len(s.Deck) + len(s.Discard) + len(s.Player.Hand) + len(s.AI.Hand)
}

// StartGame moves from the intro, or a finished match, to the rules screen.
func (s State) StartGame() (State, bool) {
	if s.Phase != PhaseIntro && !s.Phase.Over() {
		return s, false
	}
	s.Phase = PhaseRules
	s.Message = ""
	return s, true
}

// ConfirmRules shuffles a fresh deck, deals and hands the first turn to the
// player.
func (s State) ConfirmRules(rng Rand) (State, bool) {
	if s.Phase != PhaseRules {
		return s, false
	}
	player, ai, first, rest := Deal(Shuffle(NewDeck(), rng))
	return State{
		Phase:   PhasePlaying,
		Deck:    rest,
		Discard: []Card{first},
		Player:  Player{ID: string(SeatPlayer), Hand: player},
		AI:      Player{ID: string(SeatAI), Hand: ai},
		Turn:    SeatPlayer,
	}, true
}

func (s State) playersTurn() bool {
	return s.Phase == PhasePlaying && s.Turn == SeatPlayer
}

// PlayCard plays the player's card with id. Illegal plays only set the
// message. Playing an eight parks the turn in PhaseChoosingSuit.
func (s State) PlayCard(id string) (State, Outcome) {
	if !s.playersTurn() {
		return s, OutcomeIgnored
	}
	i := slices.IndexFunc(s.Player.Hand, func(c Card) bool { return c.ID == id })
	if i < 0 {
		s.Message = MsgNotInHand
		return s, OutcomeInvalid
	}
	card := s.Player.Hand[i]
	top, _ := s.Top()
	if !IsValidMove(card, top, s.ActiveSuit) {
		s.Message = MsgInvalidMove
		return s, OutcomeInvalid
	}

	s.Player.Hand = slices.Delete(slices.Clone(s.Player.Hand), i, i+1)
	s.Discard = append(slices.Clone(s.Discard), card)
	s.ActiveSuit = ""
	s.Message = ""
	switch {
	case len(s.Player.Hand) == 0:
		s.Phase = PhaseWon
		return s, OutcomeOK
	case card.Rank == Eight:
		s.Phase = PhaseChoosingSuit
		return s, OutcomeChooseSuit
	}
	s.Turn = SeatAI
	return s, OutcomeOK
}

// SelectSuit declares the suit after the player's eight and passes the turn.
func (s State) SelectSuit(suit Suit) (State, bool) {
	if s.Phase != PhaseChoosingSuit || !suit.Valid() {
		return s, false
	}
	s.Phase = PhasePlaying
	s.ActiveSuit = suit
	s.Turn = SeatAI
	s.Message = fmt.Sprintf("You chose %s", suit)
	return s, true
}

// Draw takes the top card of the deck into the player's hand. The turn
// stays with the player after a draw; an empty deck passes the turn.
func (s State) Draw() (State, bool) {
	if !s.playersTurn() {
		return s, false
	}
	if len(s.Deck) == 0 {
		s.Message = MsgDeckEmpty
		s.Turn = SeatAI
		return s, true
	}
	s.Player.Hand = append(slices.Clone(s.Player.Hand), s.Deck[0])
	s.Deck = slices.Clone(s.Deck[1:])
	s.Message = ""
	return s, true
}

// OpponentTurn plays the scripted opponent's move: a legal card if it has
// one, otherwise a draw, then hands the turn back.
func (s State) OpponentTurn() (State, bool) {
	if s.Phase != PhasePlaying || s.Turn != SeatAI {
		return s, false
	}
	top, _ := s.Top()
	card, ok := ChooseMove(s.AI.Hand, top, s.ActiveSuit)
	if !ok {
		if len(s.Deck) == 0 {
			s.Message = MsgAIPasses
		} else {
			s.AI.Hand = append(slices.Clone(s.AI.Hand), s.Deck[0])
			s.Deck = slices.Clone(s.Deck[1:])
			s.Message = MsgAIDrew
		}
		s.Turn = SeatPlayer
		return s, true
	}

	s.AI.Hand = slices.DeleteFunc(slices.Clone(s.AI.Hand), func(c Card) bool { return c.ID == card.ID })
	s.Discard = append(slices.Clone(s.Discard), card)
	if len(s.AI.Hand) == 0 {
		s.Phase = PhaseLost
		s.ActiveSuit = ""
		s.Message = fmt.Sprintf("AI played %s and went out", card)
		return s, true
	}
	if card.Rank == Eight {
		s.ActiveSuit = ChooseSuit(s.AI.Hand)
		s.Message = fmt.Sprintf("AI played 8 and chose %s", s.ActiveSuit)
	} else {
		s.ActiveSuit = ""
		s.Message = ""
	}
	s.Turn = SeatPlayer
	return s, true
}

// Score sums the values left in a hand.
func Score(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Value
	}
	return total
}
