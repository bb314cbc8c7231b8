package poker

// StartHand deals hole cards to every player who will contest the hand and
// moves the phase to pre-flop. It only deals; the table actor calls
// PostBlinds right after it.
func StartHand(hand *HandState, players []*Player) {
	order := ButtonOrder(players, hand.ButtonSeat)
	for _, id := range order {
		p := findPlayer(players, id)
		if p == nil || !p.IsActiveInHand() {
			continue
		}
		c1, _ := hand.Deck.Draw()
		c2, _ := hand.Deck.Draw()
		p.HoleCards = []Card{c1, c2}
	}
	hand.Phase = PhasePreFlop
}

// AdvancePhase moves the hand to its next street: burns one card, deals the
// appropriate number of community cards, resets the betting round (including
// every player's current bet), and sets
// action_on to the first active player left of the button. It is a no-op on
// phases with no successor street (Showdown, Settling, Waiting).
func AdvancePhase(hand *HandState, players []*Player, bigBlind int64) {
	switch hand.Phase {
	case PhasePreFlop:
		dealCommunity(hand, 3)
		hand.Phase = PhaseFlop
	case PhaseFlop:
		dealCommunity(hand, 1)
		hand.Phase = PhaseTurn
	case PhaseTurn:
		dealCommunity(hand, 1)
		hand.Phase = PhaseRiver
	case PhaseRiver:
		hand.Phase = PhaseShowdown
		return
	default:
		return
	}

	hand.ResetRound(bigBlind)
	for _, p := range players {
		p.CurrentBet = 0
	}
	hand.ActionOn = FirstToActPostFlop(players, hand.ButtonSeat)
}

func dealCommunity(hand *HandState, n int) {
	hand.Deck.Burn()
	for i := 0; i < n; i++ {
		c, ok := hand.Deck.Draw()
		if !ok {
			return
		}
		hand.CommunityCards = append(hand.CommunityCards, c)
	}
}

// ContestedPlayers returns the players still eligible to win the pot: those
// who have not folded. A single contested player means the hand ends
// uncontested without a showdown.
func ContestedPlayers(players []*Player) []*Player {
	var out []*Player
	for _, p := range players {
		if p.Status != StatusFolded && p.Status != StatusSeated && p.Status != StatusSittingOut {
			out = append(out, p)
		}
	}
	return out
}

// RunShowdown evaluates every contested player's best 7-card hand, builds
// side pots from committed chips, and distributes them. It mutates each
// contested player's HandValue/HandDescription and every winner's Stack.
func RunShowdown(hand *HandState, players []*Player) ([]Winner, error) {
	// Refund any uncalled excess before the side pots are built, so an
	// over-bet nobody called never inflates a pot's Amount.
	refund := ReturnUncalledBet(players)

	for _, p := range ContestedPlayers(players) {
		hv, err := EvaluateHand(p.HoleCards, hand.CommunityCards)
		if err != nil {
			return nil, err
		}
		p.HandValue = &hv
		p.HandDescription = hv.HandDescription
	}

	byID := make(map[string]*Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	pots := BuildSidePots(players)
	order := ButtonOrder(players, hand.ButtonSeat)
	winners := DistributePots(pots, byID, order)
	if refund != nil {
		winners = append([]Winner{*refund}, winners...)
	}
	return winners, nil
}

// UncontestedWinner pays the entire pot to the sole remaining player when
// everyone else has folded, skipping showdown evaluation entirely.
func UncontestedWinner(players []*Player) *Winner {
	contested := ContestedPlayers(players)
	if len(contested) != 1 {
		return nil
	}
	winner := contested[0]
	var total int64
	for _, p := range players {
		total += p.TotalCommitted
	}
	winner.Stack += total
	return &Winner{PlayerID: winner.ID, Amount: total}
}
