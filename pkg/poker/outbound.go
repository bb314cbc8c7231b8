package poker

// EventType tags the kind of an OutboundEnvelope. The gateway (C6) does not
// encode it: every broadcast reaches a session as a "table_update" frame
// carrying that recipient's PlayerView.
type EventType int

const (
	EventPlayerJoined EventType = iota
	EventPlayerLeft
	EventHandStarted
	EventActionApplied
	EventStreetDealt
	EventHandComplete
	EventChat
)

// OutboundEnvelope is a single broadcastable event produced by the table
// actor. It carries no table view and is identical for every recipient;
// the gateway renders a per-recipient PlayerView with ViewFor when it
// delivers the envelope.
type OutboundEnvelope struct {
	Type    EventType
	TableID string

	PlayerID string // subject of the event, e.g. who joined or acted
	Seat     int
	Chat     string
	Winners  []Winner

	Action Action
}

// PlayerView is the broadcast state of a table as seen by one recipient:
// every seat's public state, plus that recipient's own hole cards. Other
// players' hole cards are included only at showdown of a contested hand;
// spec calls this view masking.
type PlayerView struct {
	TableID        string       `json:"table_id"`
	HandNumber     int64        `json:"hand_number"`
	Phase          string       `json:"phase"`
	CommunityCards []Card       `json:"community_cards"`
	Pot            int64        `json:"pot"`
	ButtonSeat     int          `json:"button_seat"`
	ActionOn       string       `json:"action_on"`
	Seats          []SeatView   `json:"seats"`
	YourHoleCards  []Card       `json:"your_hole_cards,omitempty"`
	StateVersion   uint64       `json:"state_version"`
}

// SeatView is one seat's publicly visible state. HoleCards is populated
// only for the recipient's own seat or at showdown for contested hands;
// every other case leaves it nil.
type SeatView struct {
	PlayerID        string `json:"player_id,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	SeatIndex       int    `json:"seat_index"`
	Stack           int64  `json:"stack"`
	CurrentBet      int64  `json:"current_bet"`
	Status          string `json:"status"`
	HoleCards       []Card `json:"hole_cards,omitempty"`
	HandDescription string `json:"hand_description,omitempty"`
}

// buildActionBroadcast wraps a just-applied action as an outbound envelope.
func (a *TableActor) buildActionBroadcast(playerID string, action Action) OutboundEnvelope {
	return OutboundEnvelope{
		Type:     EventActionApplied,
		TableID:  a.cfg.ID,
		PlayerID: playerID,
		Action:   action,
	}
}

// broadcast hands envelopes to the injected Broadcaster, a no-op if none
// was wired (e.g. in engine-only tests).
func (a *TableActor) broadcast(envelopes ...OutboundEnvelope) {
	if a.broadcaster == nil {
		return
	}
	a.broadcaster.Broadcast(a.cfg.ID, envelopes)
}

// ViewFor renders the masked PlayerView for recipientID: every seat's
// public state, the recipient's own hole cards, and at showdown every
// contested player's hole cards and hand description.
func (a *TableActor) ViewFor(recipientID string) PlayerView {
	view := PlayerView{
		TableID:      a.cfg.ID,
		ButtonSeat:   a.buttonSeat,
		StateVersion: a.stateVersion,
	}
	if a.hand != nil {
		view.HandNumber = a.hand.HandNumber
		view.Phase = a.hand.Phase.String()
		view.CommunityCards = a.hand.CommunityCards
		view.ActionOn = a.hand.ActionOn
		for _, p := range a.players {
			view.Pot += p.TotalCommitted
		}
	}

	showdown := a.hand != nil && a.hand.Phase == PhaseSettling &&
		len(ContestedPlayers(a.activePlayers())) > 1

	for seatIdx, playerID := range a.seats {
		if playerID == "" {
			view.Seats = append(view.Seats, SeatView{SeatIndex: seatIdx})
			continue
		}
		p := a.players[playerID]
		sv := SeatView{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			SeatIndex:   p.SeatIndex,
			Stack:       p.Stack,
			CurrentBet:  p.CurrentBet,
			Status:      p.Status.String(),
		}
		if p.ID == recipientID || (showdown && p.Status != StatusFolded) {
			sv.HoleCards = p.HoleCards
			sv.HandDescription = p.HandDescription
		}
		view.Seats = append(view.Seats, sv)
		if p.ID == recipientID {
			view.YourHoleCards = p.HoleCards
		}
	}

	return view
}
