package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridTransformsArePure(t *testing.T) {
	orig := fourCards()

	flipped := Flip(orig, 0, 1)
	assert.True(t, flipped[0].IsFlipped)
	assert.True(t, flipped[1].IsFlipped)
	assert.False(t, orig[0].IsFlipped, "Flip must not mutate its input")

	back := Unflip(flipped, 0, 1)
	assert.Equal(t, orig, back)
	assert.True(t, flipped[0].IsFlipped, "Unflip must not mutate its input")

	matched := MarkMatched(orig, bob, 1, 3)
	assert.True(t, matched[1].IsMatched)
	assert.True(t, matched[3].IsFlipped)
	assert.Equal(t, "bob", matched[3].MatchedBy.UniqueID)
	assert.Nil(t, orig[1].MatchedBy)
	assert.Equal(t, 2, Unmatched(matched))
	assert.Equal(t, 2, Matched(matched))
}

func TestIndexOf(t *testing.T) {
	cards := fourCards()
	assert.Equal(t, 2, IndexOf(cards, 3))
	assert.Equal(t, -1, IndexOf(cards, 5))
	assert.Equal(t, -1, IndexOf(cards, -1))
}

func TestPlayerRefName(t *testing.T) {
	assert.Equal(t, "Alice", alice.Name())
	assert.Equal(t, "ghost", PlayerRef{UniqueID: "ghost"}.Name())
}
