package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeckCommitsToCanonicalOrder(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	assert.Len(t, committed.Cards, 52)
	assert.True(t, cardsEqual(committed.Cards, canonicalCards()))
}

func TestShuffleAndVerifyRoundTrip(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	seed, err := NewShuffleSeed()
	require.NoError(t, err)

	shuffled := Shuffle(committed, seed)
	ok, err := Verify(shuffled)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Len(t, shuffled.Shuffled, 52)
	assert.False(t, cardsEqual(shuffled.Shuffled, committed.Cards),
		"a real shuffle should not reproduce canonical order")
}

func TestVerifyRejectsTamperedShuffle(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	seed, err := NewShuffleSeed()
	require.NoError(t, err)

	shuffled := Shuffle(committed, seed)
	shuffled.Shuffled[0], shuffled.Shuffled[1] = shuffled.Shuffled[1], shuffled.Shuffled[0]

	ok, err := Verify(shuffled)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsTamperedCommitment(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	seed, err := NewShuffleSeed()
	require.NoError(t, err)

	shuffled := Shuffle(committed, seed)
	shuffled.Committed.Nonce[0] ^= 0xFF

	ok, err := Verify(shuffled)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDeckDrawAndBurnExhaustsInOrder(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	seed, err := NewShuffleSeed()
	require.NoError(t, err)
	shuffled := Shuffle(committed, seed)

	deck := NewDeckFromShuffle(shuffled)
	require.Equal(t, 52, deck.Size())

	first, ok := deck.Draw()
	require.True(t, ok)
	assert.True(t, first.Equal(shuffled.Shuffled[0]))
	assert.Equal(t, 51, deck.Size())

	burned, ok := deck.Burn()
	require.True(t, ok)
	assert.True(t, burned.Equal(shuffled.Shuffled[1]))
	assert.Equal(t, 50, deck.Size())
}

func TestDeckDrawOnEmptyDeckFails(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	shuffled := Shuffle(committed, 12345)
	deck := NewDeckFromShuffle(shuffled)

	for i := 0; i < 52; i++ {
		_, ok := deck.Draw()
		require.True(t, ok)
	}
	_, ok := deck.Draw()
	assert.False(t, ok)
}

func TestRestoreDeckFromStateResumesAtSamePoint(t *testing.T) {
	committed, err := GenerateDeck()
	require.NoError(t, err)
	seed, err := NewShuffleSeed()
	require.NoError(t, err)
	shuffled := Shuffle(committed, seed)

	deck := NewDeckFromShuffle(shuffled)
	for i := 0; i < 5; i++ {
		deck.Draw()
	}

	state := deck.GetState()
	restored, err := RestoreDeckFromState(state)
	require.NoError(t, err)
	assert.Equal(t, deck.Size(), restored.Size())

	want, _ := deck.Draw()
	got, _ := restored.Draw()
	assert.True(t, want.Equal(got))
}
