package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/DoyleJ11/live-memory-backend/internal/engine"
)

var ErrUnknownTheme = errors.New("unknown deck theme")
var ErrDeckSize = errors.New("invalid deck size")

type Theme string

const (
	ThemeMixed   Theme = "mixed"
	ThemeClassic Theme = "classic"
	ThemeYummy   Theme = "yummy"
	ThemeAnimals Theme = "animals"
	ThemeTech    Theme = "tech"
)

// Icon id ranges per set. Renderers map the ids to pictures.
var iconSets = map[Theme][2]int{
	ThemeClassic: {0, 16},
	ThemeYummy:   {16, 31},
	ThemeAnimals: {31, 42},
	ThemeTech:    {42, 56},
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return ThemeMixed, nil
	}
	if t == ThemeMixed {
		return t, nil
	}
	if _, ok := iconSets[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
	return t, nil
}

// Icons returns the icon pool for a theme in ascending order.
func Icons(t Theme) []int {
	if t == ThemeMixed {
		return span(iconSets[ThemeClassic][0], iconSets[ThemeTech][1])
	}
	r, ok := iconSets[t]
	if !ok {
		return nil
	}
	return span(r[0], r[1])
}

func span(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

// Generator builds shuffled decks. The zero value is not usable; use New.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator using rng, or a time-seeded source when rng is nil.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate deals size cards: size/2 distinct icons drawn from the theme's
// pool, two cards each, in random positions, with ids 1..size.
func (g *Generator) Generate(size int, theme Theme) ([]engine.Card, error) {
	pool := Icons(theme)
	if pool == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	if size < 2 || size%2 != 0 || size/2 > len(pool) {
		return nil, fmt.Errorf("%w: %d cards from a %d icon pool", ErrDeckSize, size, len(pool))
	}

	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	cards := make([]engine.Card, 0, size)
	for _, icon := range pool[:size/2] {
		cards = append(cards, engine.Card{IconID: icon}, engine.Card{IconID: icon})
	}
	g.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	for i := range cards {
		cards[i].ID = i + 1
	}
	return cards, nil
}
