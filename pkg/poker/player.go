package poker

import "time"

// Status is a player's position in the hand lifecycle, per the
// Player-at-table data model: seated (at the table, not yet in a hand),
// active (in the current hand, still to act or having acted), folded,
// all_in, sitting_out, or disconnected.
type Status int

const (
	StatusSeated Status = iota
	StatusActive
	StatusFolded
	StatusAllIn
	StatusSittingOut
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusSeated:
		return "seated"
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all_in"
	case StatusSittingOut:
		return "sitting_out"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Player is a player seated at a table, carrying both identity and
// per-hand state. The table actor is the sole owner and mutator of this
// struct; nothing outside the actor's single-writer goroutine may touch it.
type Player struct {
	ID          string
	DisplayName string
	SeatIndex   int

	Stack          int64 // chips owned at the table
	CurrentBet     int64 // committed this betting round
	TotalCommitted int64 // committed this hand, across all rounds

	Status Status

	HoleCards  []Card
	LastAction time.Time

	DisconnectDeadline *time.Time

	// Populated only during showdown evaluation.
	HandValue       *HandValue
	HandDescription string
}

// NewPlayer seats a new player with the given starting stack.
func NewPlayer(id, name string, stack int64) *Player {
	return &Player{
		ID:          id,
		DisplayName: name,
		SeatIndex:   -1,
		Stack:       stack,
		Status:      StatusSeated,
		HoleCards:   make([]Card, 0, 2),
		LastAction:  time.Now(),
	}
}

// ResetForNewHand clears per-hand state while preserving table-level
// identity and seat. It does not touch Stack: chip counts persist across
// hands by design.
func (p *Player) ResetForNewHand() {
	p.HoleCards = make([]Card, 0, 2)
	p.CurrentBet = 0
	p.TotalCommitted = 0
	p.HandValue = nil
	p.HandDescription = ""
	p.LastAction = time.Now()
	if p.Status != StatusSittingOut && p.Status != StatusDisconnected {
		p.Status = StatusActive
	}
}

// IsActiveInHand reports whether the player can still act or win this hand
// (has not folded, is seated with chips committed to the current hand).
func (p *Player) IsActiveInHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// CanAct reports whether the player may be the subject of action_on: in
// the hand, not all-in, not folded, has chips behind.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive && p.Stack > 0
}

// GetHandString renders the player's hole cards for logging/debugging.
func (p *Player) GetHandString() string {
	if len(p.HoleCards) == 0 {
		return "no cards"
	}
	s := ""
	for i, c := range p.HoleCards {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
