package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalCardsIsFullUniqueDeck(t *testing.T) {
	cards := canonicalCards()
	require.Len(t, cards, 52)

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %s", c.String())
		seen[c] = true
	}
}

func TestCardEqual(t *testing.T) {
	a := NewCardFromSuitValue(Spades, Ace)
	b := NewCardFromSuitValue(Spades, Ace)
	c := NewCardFromSuitValue(Hearts, Ace)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCardJSONRoundTrip(t *testing.T) {
	original := NewCardFromSuitValue(Clubs, Ten)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Card
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}

func TestCardJSONAcceptsSuitValueAliases(t *testing.T) {
	cases := []string{
		`{"suit":"h","value":"k"}`,
		`{"suit":"hearts","value":"King"}`,
		`{"suit":"♥","value":"K"}`,
	}
	want := NewCardFromSuitValue(Hearts, King)
	for _, raw := range cases {
		var c Card
		require.NoError(t, json.Unmarshal([]byte(raw), &c), raw)
		assert.True(t, want.Equal(c), raw)
	}
}

func TestCardJSONRejectsUnknownSuit(t *testing.T) {
	var c Card
	err := json.Unmarshal([]byte(`{"suit":"x","value":"K"}`), &c)
	assert.Error(t, err)
}
