package poker

import "time"

// Message is the tagged variant of everything a table actor's inbox
// accepts. Exactly one message is processed at a time by the actor's
// single consumer goroutine.
type Message interface {
	isTableMessage()
}

// JoinMsg asks to seat a player at the table with a buy-in.
type JoinMsg struct {
	PlayerID    string
	DisplayName string
	Seat        int
	BuyIn       int64
	Reply       chan error
}

// LeaveMsg removes a player from their seat.
type LeaveMsg struct {
	PlayerID string
	Reply    chan error
}

// SitMsg toggles a seated player's sit-in/sit-out status.
type SitMsg struct {
	PlayerID string
	SitOut   bool
	Reply    chan error
}

// PlayerActionMsg carries a validated betting action, already tagged with
// the authenticated player id by the gateway (never a client-supplied id).
type PlayerActionMsg struct {
	PlayerID        string
	Action          Action
	ClientMessageID string
	Reply           chan ActionOutcome
}

// ActionOutcome is the final, idempotent result of a PlayerActionMsg,
// cached by ClientMessageID so replays return the same value without
// mutating state twice.
type ActionOutcome struct {
	Violation     RuleViolation
	RoundComplete bool
	StateVersion  uint64
}

// ChatMsg relays a bounded, rate-limited chat string. Moderation severity
// is a collaborator concern; the actor only relays it.
type ChatMsg struct {
	PlayerID string
	Channel  string
	Text     string
}

// ConnectMsg attaches a live session reference to a seated player.
type ConnectMsg struct {
	PlayerID  string
	SessionID string
}

// DisconnectMsg detaches a session; if the player is in an active hand
// they're marked disconnected with a grace deadline.
type DisconnectMsg struct {
	PlayerID string
}

// ReconnectMsg re-attaches a player's session and asks for the table
// state. LastSeenVerion is carried but not consulted: the actor always
// answers with a full snapshot.
type ReconnectMsg struct {
	PlayerID       string
	SessionID      string
	LastSeenVerion uint64
	Reply          chan ReconnectOutcome
}

// ReconnectOutcome is the actor's answer to a ReconnectMsg. The actor
// always sets FullSnapshot and attaches a Snapshot; it keeps no buffer of
// past broadcasts to replay.
type ReconnectOutcome struct {
	FullSnapshot bool
	Snapshot     *TableSnapshot
}

// TickMsg is a scheduled wake-up. The actor schedules TickActionTimeout
// ticks for its action timer; TickCheckpoint and TickQuiescence have no
// effect in handleTick and nothing in this package schedules them. Each
// tick carries the state_version it was scheduled against, so any message
// processed after it was scheduled (a superseding action or any other)
// makes it a no-op.
type TickMsg struct {
	Kind              TickKind
	ScheduledFor       string // player id the tick concerns, for action timers
	ScheduledAtVersion uint64
	Now                time.Time
}

// TickKind distinguishes the kinds of TickMsg; only TickActionTimeout
// changes table state.
type TickKind int

const (
	TickActionTimeout TickKind = iota
	TickCheckpoint
	TickQuiescence
)

// AdminCommandMsg carries an operator action. The actor handles only
// "force_checkpoint"; any other command is answered with an error.
type AdminCommandMsg struct {
	Command string
	Args    map[string]string
	Reply   chan error
}

func (JoinMsg) isTableMessage()         {}
func (LeaveMsg) isTableMessage()        {}
func (SitMsg) isTableMessage()          {}
func (PlayerActionMsg) isTableMessage() {}
func (ChatMsg) isTableMessage()         {}
func (ConnectMsg) isTableMessage()      {}
func (DisconnectMsg) isTableMessage()   {}
func (ReconnectMsg) isTableMessage()    {}
func (TickMsg) isTableMessage()         {}
func (AdminCommandMsg) isTableMessage() {}
