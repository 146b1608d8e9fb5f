package engine

// PlayerRef identifies a chat participant. UniqueID is the scoring key; the
// display fields follow whatever the latest event carried.
type PlayerRef struct {
	UniqueID    string `json:"uniqueId"`
	DisplayName string `json:"nickname"`
	AvatarURL   string `json:"profilePictureUrl"`
}

// Name is what status lines show for the player.
func (p PlayerRef) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.UniqueID
}

type Card struct {
	ID        int        `json:"id"`
	IconID    int        `json:"iconId"`
	IsFlipped bool       `json:"isFlipped"`
	IsMatched bool       `json:"isMatched"`
	MatchedBy *PlayerRef `json:"matchedBy,omitempty"`
}

// Flip returns a copy of cards with the cards at idx face up.
func Flip(cards []Card, idx ...int) []Card {
	out := CloneCards(cards)
	for _, i := range idx {
		out[i].IsFlipped = true
	}
	return out
}

// Unflip returns a copy of cards with the cards at idx face down again.
func Unflip(cards []Card, idx ...int) []Card {
	out := CloneCards(cards)
	for _, i := range idx {
		out[i].IsFlipped = false
	}
	return out
}

// MarkMatched returns a copy of cards with the cards at idx matched by the
// given player. Matched cards stay face up.
func MarkMatched(cards []Card, by PlayerRef, idx ...int) []Card {
	out := CloneCards(cards)
	for _, i := range idx {
		who := by
		out[i].IsFlipped = true
		out[i].IsMatched = true
		out[i].MatchedBy = &who
	}
	return out
}

func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Unmatched counts the cards still in play.
func Unmatched(cards []Card) int {
	n := 0
	for _, c := range cards {
		if !c.IsMatched {
			n++
		}
	}
	return n
}

// IndexOf returns the slice position of the card with the given id, or -1.
func IndexOf(cards []Card, id int) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
