package crazyeights

// ChooseMove picks the opponent's card: the first legal card that is not
// an eight, else the first eight. ok is false when nothing is playable.
func ChooseMove(hand []Card, top Card, activeSuit Suit) (card Card, ok bool) {
	var eight *Card
	for i := range hand {
		c := hand[i]
		if !IsValidMove(c, top, activeSuit) {
			continue
		}
		if c.Rank != Eight {
			return c, true
		}
		if eight == nil {
			eight = &hand[i]
		}
	}
	if eight != nil {
		return *eight, true
	}
	return Card{}, false
}

// ChooseSuit names the suit the hand holds most of. Ties go to the suit
// listed first in Suits; an empty hand picks hearts.
func ChooseSuit(hand []Card) Suit {
	counts := make(map[Suit]int, len(Suits))
	for _, c := range hand {
		counts[c.Suit]++
	}
	best := Suits[0]
	for _, s := range Suits[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}
