package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayers(n int, stack int64) []*Player {
	players := make([]*Player, n)
	for i := 0; i < n; i++ {
		p := NewPlayer(string(rune('A'+i)), string(rune('A'+i)), stack)
		p.SeatIndex = i
		p.Status = StatusActive
		players[i] = p
	}
	return players
}

func TestButtonOrderStartsLeftOfButton(t *testing.T) {
	players := newTestPlayers(4, 1000)
	order := ButtonOrder(players, 1) // button at seat 1 ("B")
	assert.Equal(t, []string{"C", "D", "A", "B"}, order)
}

func TestPostBlindsHeadsUpButtonPostsSmallBlind(t *testing.T) {
	players := newTestPlayers(2, 1000)
	hand := NewHandState(1, 0) // button is seat 0, "A"

	sbID, bbID := PostBlinds(hand, players, 5, 10)
	assert.Equal(t, "A", sbID)
	assert.Equal(t, "B", bbID)
	assert.Equal(t, "A", hand.ActionOn) // heads-up: button acts first pre-flop

	a := findPlayer(players, "A")
	b := findPlayer(players, "B")
	assert.Equal(t, int64(5), a.CurrentBet)
	assert.Equal(t, int64(10), b.CurrentBet)
}

func TestPostBlindsThreeHandedActionStartsUnderTheGun(t *testing.T) {
	players := newTestPlayers(3, 1000)
	hand := NewHandState(1, 0) // button seat 0 "A"

	sbID, bbID := PostBlinds(hand, players, 5, 10)
	assert.Equal(t, "B", sbID)
	assert.Equal(t, "C", bbID)
	assert.Equal(t, "A", hand.ActionOn) // first to act is left of big blind
}

func TestApplyRejectsActionOutOfTurn(t *testing.T) {
	players := newTestPlayers(2, 1000)
	hand := NewHandState(1, 0)
	PostBlinds(hand, players, 5, 10)

	_, violation := Apply(Action{Type: ActionCall}, "B", hand, players)
	require.Error(t, violation)
	var target *ErrNotYourTurn
	assert.ErrorAs(t, violation, &target)
}

func TestApplyCallClosesHeadsUpPreflopWhenBBChecksOption(t *testing.T) {
	players := newTestPlayers(2, 1000)
	hand := NewHandState(1, 0)
	PostBlinds(hand, players, 5, 10)

	result, violation := Apply(Action{Type: ActionCall}, "A", hand, players)
	require.NoError(t, violation)
	assert.False(t, result.RoundComplete) // BB still has the option to raise

	result, violation = Apply(Action{Type: ActionCheck}, "B", hand, players)
	require.NoError(t, violation)
	assert.True(t, result.RoundComplete)
}

func TestApplyRaiseBelowMinimumIsRejected(t *testing.T) {
	players := newTestPlayers(3, 1000)
	hand := NewHandState(1, 0)
	PostBlinds(hand, players, 5, 10)

	// Action is on A (UTG); raising to 12 is only a 2-chip increment, below
	// the 10-chip minimum (the big blind).
	_, violation := Apply(Action{Type: ActionRaise, Amount: 12}, "A", hand, players)
	require.Error(t, violation)
	var target *ErrBelowMinRaise
	assert.ErrorAs(t, violation, &target)
}

func TestShortAllInBelowCallAmountClosesRound(t *testing.T) {
	players := newTestPlayers(3, 1000)
	// Give the third player (C) a short stack so its all-in cannot even
	// cover the 20 it faces.
	findPlayer(players, "C").Stack = 10
	hand := NewHandState(1, 0)

	// Manually set up a pre-flop state with A having raised to 20 and B
	// having called; both have acted.
	hand.Phase = PhasePreFlop
	hand.CurrentBetToMatch = 20
	hand.MinRaiseIncrement = 10
	hand.LastAggressor = "A"
	hand.ActedThisRound = map[string]bool{"A": true, "B": true}
	hand.CannotReopenRaise = map[string]bool{}
	findPlayer(players, "A").CurrentBet = 20
	findPlayer(players, "A").TotalCommitted = 20
	findPlayer(players, "B").CurrentBet = 20
	findPlayer(players, "B").TotalCommitted = 20
	findPlayer(players, "C").CurrentBet = 0
	hand.ActionOn = "C"

	// C goes all-in for only 10 more (to 10 total), which doesn't even call
	// the 20 bet, so it's treated as a short all-in call, not a raise.
	result, violation := Apply(Action{Type: ActionAllIn}, "C", hand, players)
	require.NoError(t, violation)
	assert.True(t, result.RoundComplete) // A and B already acted and matched; C's short all-in can't reopen
}

func TestApplyBetAdvancesActionOnWhenRoundStaysOpen(t *testing.T) {
	players := newTestPlayers(3, 1000)
	hand := NewHandState(1, 0)
	// A bet is only legal with nothing yet to match, so open a post-flop
	// street rather than a pre-flop round where the big blind already counts.
	hand.Phase = PhaseFlop
	hand.MinRaiseIncrement = 10
	hand.ActionOn = FirstToActPostFlop(players, hand.ButtonSeat)
	require.Equal(t, "B", hand.ActionOn)

	// B opens for 50; the round is not closed (C and A haven't matched it),
	// so action must move to C, not stay parked on the aggressor.
	result, violation := Apply(Action{Type: ActionBet, Amount: 50}, "B", hand, players)
	require.NoError(t, violation)
	assert.False(t, result.RoundComplete)
	assert.Equal(t, "C", hand.ActionOn)

	_, violation = Apply(Action{Type: ActionCall}, "C", hand, players)
	require.NoError(t, violation)
}

func TestApplyRaiseAdvancesActionOnWhenRoundStaysOpen(t *testing.T) {
	players := newTestPlayers(3, 1000)
	hand := NewHandState(1, 0)
	PostBlinds(hand, players, 5, 10)
	require.Equal(t, "A", hand.ActionOn)

	// A calls the big blind, B raises to 30; C still owes a call, so action
	// must land on C, not stay parked on B.
	_, violation := Apply(Action{Type: ActionCall}, "A", hand, players)
	require.NoError(t, violation)

	result, violation := Apply(Action{Type: ActionRaise, Amount: 30}, "B", hand, players)
	require.NoError(t, violation)
	assert.False(t, result.RoundComplete)
	assert.Equal(t, "C", hand.ActionOn)
}

func TestApplyFoldToSinglePlayerEndsRound(t *testing.T) {
	players := newTestPlayers(2, 1000)
	hand := NewHandState(1, 0)
	PostBlinds(hand, players, 5, 10)

	result, violation := Apply(Action{Type: ActionFold}, "A", hand, players)
	require.NoError(t, violation)
	assert.True(t, result.RoundComplete)
}
