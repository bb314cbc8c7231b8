package poker

import "github.com/decred/slog"

// TableSnapshot is the full recoverable state of a table: enough to
// reconstruct a TableActor after a process restart without replaying
// history, per the checkpoint-on-every-state-change persistence model.
type TableSnapshot struct {
	TableID      string           `json:"table_id"`
	Config       TableConfig      `json:"config"`
	Seats        []string         `json:"seats"`
	Players      []PlayerSnapshot `json:"players"`
	HandNumber   int64            `json:"hand_number"`
	ButtonSeat   int              `json:"button_seat"`
	StateVersion uint64           `json:"state_version"`
	Hand         *HandSnapshot    `json:"hand,omitempty"`
}

// PlayerSnapshot is one seated player's persisted state.
type PlayerSnapshot struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	SeatIndex       int    `json:"seat_index"`
	Stack           int64  `json:"stack"`
	CurrentBet      int64  `json:"current_bet"`
	TotalCommitted  int64  `json:"total_committed"`
	Status          Status `json:"status"`
	HoleCards       []Card `json:"hole_cards,omitempty"`
	HandDescription string `json:"hand_description,omitempty"`
}

// HandSnapshot is the persisted form of HandState, including enough of the
// deck's state to resume drawing deterministically (see DeckState).
type HandSnapshot struct {
	HandNumber        int64           `json:"hand_number"`
	Phase             Phase           `json:"phase"`
	CommunityCards    []Card          `json:"community_cards"`
	Deck              *DeckState      `json:"deck"`
	ButtonSeat        int             `json:"button_seat"`
	CurrentBetToMatch int64           `json:"current_bet_to_match"`
	MinRaiseIncrement int64           `json:"min_raise_increment"`
	ActionOn          string          `json:"action_on"`
	RoundOpener       string          `json:"round_opener"`
	LastAggressor     string          `json:"last_aggressor"`
	ActedThisRound    map[string]bool `json:"acted_this_round"`
	CannotReopenRaise map[string]bool `json:"cannot_reopen_raise"`
}

// Snapshot captures the actor's complete state for persistence. It must
// only be called from the actor's own goroutine (Run's loop already
// guarantees this by calling it synchronously after each message).
func (a *TableActor) Snapshot() TableSnapshot {
	snap := TableSnapshot{
		TableID:      a.cfg.ID,
		Config:       a.cfg,
		Seats:        append([]string(nil), a.seats...),
		HandNumber:   a.handNumber,
		ButtonSeat:   a.buttonSeat,
		StateVersion: a.stateVersion,
	}
	for _, p := range a.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:              p.ID,
			DisplayName:     p.DisplayName,
			SeatIndex:       p.SeatIndex,
			Stack:           p.Stack,
			CurrentBet:      p.CurrentBet,
			TotalCommitted:  p.TotalCommitted,
			Status:          p.Status,
			HoleCards:       p.HoleCards,
			HandDescription: p.HandDescription,
		})
	}
	if a.hand != nil {
		snap.Hand = &HandSnapshot{
			HandNumber:        a.hand.HandNumber,
			Phase:             a.hand.Phase,
			CommunityCards:    a.hand.CommunityCards,
			Deck:              a.hand.Deck.GetState(),
			ButtonSeat:        a.hand.ButtonSeat,
			CurrentBetToMatch: a.hand.CurrentBetToMatch,
			MinRaiseIncrement: a.hand.MinRaiseIncrement,
			ActionOn:          a.hand.ActionOn,
			RoundOpener:       a.hand.RoundOpener,
			LastAggressor:     a.hand.LastAggressor,
			ActedThisRound:    a.hand.ActedThisRound,
			CannotReopenRaise: a.hand.CannotReopenRaise,
		}
	}
	return snap
}

// RestoreTableActor rebuilds an actor from a persisted snapshot, used on
// process startup to resume every table the registry finds checkpointed.
func RestoreTableActor(snap TableSnapshot, log slog.Logger, broadcaster Broadcaster, checkpointer Checkpointer) (*TableActor, error) {
	a := NewTableActor(snap.Config, log, broadcaster, checkpointer)
	a.seats = append([]string(nil), snap.Seats...)
	a.handNumber = snap.HandNumber
	a.buttonSeat = snap.ButtonSeat
	a.stateVersion = snap.StateVersion

	for _, ps := range snap.Players {
		p := NewPlayer(ps.ID, ps.DisplayName, ps.Stack)
		p.SeatIndex = ps.SeatIndex
		p.CurrentBet = ps.CurrentBet
		p.TotalCommitted = ps.TotalCommitted
		p.Status = ps.Status
		p.HoleCards = ps.HoleCards
		p.HandDescription = ps.HandDescription
		a.players[ps.ID] = p
	}

	if snap.Hand != nil {
		deck, err := RestoreDeckFromState(snap.Hand.Deck)
		if err != nil {
			return nil, err
		}
		a.hand = &HandState{
			HandNumber:        snap.Hand.HandNumber,
			Phase:             snap.Hand.Phase,
			CommunityCards:    snap.Hand.CommunityCards,
			Deck:              deck,
			ButtonSeat:        snap.Hand.ButtonSeat,
			CurrentBetToMatch: snap.Hand.CurrentBetToMatch,
			MinRaiseIncrement: snap.Hand.MinRaiseIncrement,
			ActionOn:          snap.Hand.ActionOn,
			RoundOpener:       snap.Hand.RoundOpener,
			LastAggressor:     snap.Hand.LastAggressor,
			ActedThisRound:    snap.Hand.ActedThisRound,
			CannotReopenRaise: snap.Hand.CannotReopenRaise,
		}
		if a.hand.ActedThisRound == nil {
			a.hand.ActedThisRound = make(map[string]bool)
		}
		if a.hand.CannotReopenRaise == nil {
			a.hand.CannotReopenRaise = make(map[string]bool)
		}
		a.lifecycle.SetState(stateHandInProgress)
	}

	a.publishStats()
	return a, nil
}
