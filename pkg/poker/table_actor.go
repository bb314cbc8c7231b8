package poker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokerbisonrelay/pkg/statemachine"
)

// QuickStats is the thread-safe, eventually-consistent subset of a table's
// state that the registry needs for lobby summaries and quiescence sweeps.
// Unlike everything else on TableActor, it may be read from any goroutine:
// it is written once per processed message under statsMu, never touched by
// the message handlers themselves.
type QuickStats struct {
	SeatsOccupied  int
	MaxSeats       int
	SmallBlind     int64
	BigBlind       int64
	HandInProgress bool
}

// tableStateFn is one state of the table's coarse lifecycle, independent of
// the per-street phase tracked on HandState: a table sits in stateIdle
// between hands and in stateHandInProgress while exactly one hand runs.
// settleHand pays the pots, marks busted players sitting out and clears the
// hand, which returns the table to stateIdle.
type tableStateFn = statemachine.StateFn[TableActor]

// TableConfig configures a table actor at creation. It is immutable for
// the actor's lifetime; changing blinds or seat count means retiring the
// table and registering a new one.
type TableConfig struct {
	ID              string
	SmallBlind      int64
	BigBlind        int64
	MinBuyIn        int64
	MaxBuyIn        int64
	MaxSeats        int
	ActionTimeout   time.Duration
	DisconnectGrace time.Duration
	ButtonRotation  ButtonRotation
}

// Broadcaster delivers outbound envelopes to every connected session for a
// table; the gateway supplies the concrete implementation (C6). The actor
// never knows about sockets.
type Broadcaster interface {
	Broadcast(tableID string, envelopes []OutboundEnvelope)
}

// Checkpointer persists and restores table snapshots (C8). The actor calls
// Save after every message it processes; Load is called by the registry
// when it restores tables at startup.
type Checkpointer interface {
	Save(snapshot TableSnapshot) error
	Load(tableID string) (*TableSnapshot, bool, error)
}

// Scheduler abstracts away time.AfterFunc so tests can fake it. Cancel is a
// no-op if the timer already fired or was already canceled.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

type realScheduler struct{}

func (realScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// TableActor is the single-writer owner of one table's state: seats,
// the hand in progress (if any), pots, and the idempotency cache of
// recent client actions. Every field below is touched exclusively from
// the goroutine running Run; nothing else may read or write them
// directly. Read-only access from other goroutines goes through
// QuickStats, or through a ReconnectMsg whose reply carries a Snapshot
// taken on the actor goroutine.
type TableActor struct {
	cfg TableConfig
	log slog.Logger

	inbox chan Message

	broadcaster  Broadcaster
	checkpointer Checkpointer
	scheduler    Scheduler

	players map[string]*Player
	seats   []string // seat index -> player ID, "" if empty

	hand         *HandState
	handNumber   int64
	buttonSeat   int
	stateVersion uint64

	lifecycle *statemachine.StateMachine[TableActor]

	cancelActionTimer func()

	// idempotency caches the outcome of a ClientMessageID per player so a
	// retried request (dropped ack, reconnect replay) never double-applies.
	idempotency map[string]map[string]ActionOutcome

	statsMu sync.RWMutex
	stats   QuickStats
}

// QuickStats returns the last-published snapshot of lobby-relevant state.
// Safe to call from any goroutine.
func (a *TableActor) QuickStats() QuickStats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return a.stats
}

func (a *TableActor) publishStats() {
	occupied := 0
	for _, id := range a.seats {
		if id != "" {
			occupied++
		}
	}
	a.statsMu.Lock()
	a.stats = QuickStats{
		SeatsOccupied:  occupied,
		MaxSeats:       len(a.seats),
		SmallBlind:     a.cfg.SmallBlind,
		BigBlind:       a.cfg.BigBlind,
		HandInProgress: a.hand != nil,
	}
	a.statsMu.Unlock()
}

// NewTableActor constructs an actor in the Idle lifecycle state with empty
// seats. Call Run in its own goroutine to start processing.
func NewTableActor(cfg TableConfig, log slog.Logger, broadcaster Broadcaster, checkpointer Checkpointer) *TableActor {
	a := &TableActor{
		cfg:          cfg,
		log:          log,
		inbox:        make(chan Message, 64),
		broadcaster:  broadcaster,
		checkpointer: checkpointer,
		scheduler:    realScheduler{},
		players:      make(map[string]*Player),
		seats:        make([]string, cfg.MaxSeats),
		idempotency:  make(map[string]map[string]ActionOutcome),
	}
	a.lifecycle = statemachine.NewStateMachine(a, stateIdle)
	a.publishStats()
	return a
}

// Inbox returns the channel a gateway or registry sends Messages on.
func (a *TableActor) Inbox() chan<- Message { return a.inbox }

// Run processes messages from the inbox until ctx is canceled. It is meant
// to be the entire body of the actor's dedicated goroutine.
func (a *TableActor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.inbox:
			a.handle(msg)
			a.lifecycle.Dispatch(nil)
			a.stateVersion++
			a.publishStats()
			if a.checkpointer != nil {
				if err := a.checkpointer.Save(a.Snapshot()); err != nil {
					a.log.Errorf("checkpoint save failed for table %s: %v", a.cfg.ID, err)
				}
			}
		}
	}
}

func (a *TableActor) handle(msg Message) {
	switch m := msg.(type) {
	case JoinMsg:
		a.handleJoin(m)
	case LeaveMsg:
		a.handleLeave(m)
	case SitMsg:
		a.handleSit(m)
	case PlayerActionMsg:
		a.handlePlayerAction(m)
	case ChatMsg:
		a.handleChat(m)
	case ConnectMsg:
		a.handleConnect(m)
	case DisconnectMsg:
		a.handleDisconnect(m)
	case ReconnectMsg:
		a.handleReconnect(m)
	case TickMsg:
		a.handleTick(m)
	case AdminCommandMsg:
		a.handleAdmin(m)
	default:
		a.log.Warnf("table %s: unrecognized message %T", a.cfg.ID, msg)
	}
}

func (a *TableActor) handleJoin(m JoinMsg) {
	err := a.join(m.PlayerID, m.DisplayName, m.Seat, m.BuyIn)
	if m.Reply != nil {
		m.Reply <- err
	}
	if err == nil {
		a.broadcast(OutboundEnvelope{Type: EventPlayerJoined, TableID: a.cfg.ID, Seat: m.Seat, PlayerID: m.PlayerID})
	}
}

func (a *TableActor) join(playerID, displayName string, seat int, buyIn int64) error {
	if seat < 0 || seat >= len(a.seats) {
		return fmt.Errorf("seat %d out of range", seat)
	}
	if a.seats[seat] != "" {
		return fmt.Errorf("seat %d occupied", seat)
	}
	if buyIn < a.cfg.MinBuyIn || buyIn > a.cfg.MaxBuyIn {
		return fmt.Errorf("buy-in %d outside [%d, %d]", buyIn, a.cfg.MinBuyIn, a.cfg.MaxBuyIn)
	}
	if _, exists := a.players[playerID]; exists {
		return fmt.Errorf("player %s already seated", playerID)
	}

	p := NewPlayer(playerID, displayName, buyIn)
	p.SeatIndex = seat
	p.Status = StatusSeated
	a.players[playerID] = p
	a.seats[seat] = playerID
	return nil
}

func (a *TableActor) handleLeave(m LeaveMsg) {
	p, ok := a.players[m.PlayerID]
	if !ok {
		if m.Reply != nil {
			m.Reply <- fmt.Errorf("player %s not seated", m.PlayerID)
		}
		return
	}
	if a.hand != nil && p.IsActiveInHand() {
		// Mid-hand departures fold in place; chips already committed stay
		// in the pot. The seat frees once the hand settles.
		p.Status = StatusFolded
	} else {
		a.seats[p.SeatIndex] = ""
		delete(a.players, m.PlayerID)
	}
	if m.Reply != nil {
		m.Reply <- nil
	}
	a.broadcast(OutboundEnvelope{Type: EventPlayerLeft, TableID: a.cfg.ID, PlayerID: m.PlayerID})
}

func (a *TableActor) handleSit(m SitMsg) {
	p, ok := a.players[m.PlayerID]
	if !ok {
		if m.Reply != nil {
			m.Reply <- fmt.Errorf("player %s not seated", m.PlayerID)
		}
		return
	}
	if m.SitOut {
		p.Status = StatusSittingOut
	} else if p.Status == StatusSittingOut {
		p.Status = StatusSeated
	}
	if m.Reply != nil {
		m.Reply <- nil
	}
}

func (a *TableActor) handlePlayerAction(m PlayerActionMsg) {
	if cached, ok := a.idempotency[m.PlayerID][m.ClientMessageID]; ok && m.ClientMessageID != "" {
		if m.Reply != nil {
			m.Reply <- cached
		}
		return
	}

	var outcome ActionOutcome
	if a.hand == nil {
		outcome.Violation = &ErrWrongPhase{Phase: PhaseWaiting}
	} else {
		players := a.activePlayers()
		result, violation := Apply(m.Action, m.PlayerID, a.hand, players)
		outcome.Violation = violation
		outcome.RoundComplete = result.RoundComplete
		if violation == nil {
			a.resetActionTimer()
			if result.RoundComplete {
				a.advanceStreetOrShowdown()
			}
		}
	}
	outcome.StateVersion = a.stateVersion

	if m.ClientMessageID != "" {
		if a.idempotency[m.PlayerID] == nil {
			a.idempotency[m.PlayerID] = make(map[string]ActionOutcome)
		}
		a.idempotency[m.PlayerID][m.ClientMessageID] = outcome
	}
	if m.Reply != nil {
		m.Reply <- outcome
	}
	if outcome.Violation == nil {
		a.broadcast(a.buildActionBroadcast(m.PlayerID, m.Action))
	}
}

func (a *TableActor) handleChat(m ChatMsg) {
	a.broadcast(OutboundEnvelope{Type: EventChat, TableID: a.cfg.ID, PlayerID: m.PlayerID, Chat: m.Text})
}

func (a *TableActor) handleConnect(m ConnectMsg) {
	if p, ok := a.players[m.PlayerID]; ok && p.Status == StatusDisconnected {
		p.Status = StatusActive
		p.DisconnectDeadline = nil
	}
}

func (a *TableActor) handleDisconnect(m DisconnectMsg) {
	p, ok := a.players[m.PlayerID]
	if !ok {
		return
	}
	if p.IsActiveInHand() {
		deadline := time.Now().Add(a.cfg.DisconnectGrace)
		p.DisconnectDeadline = &deadline
		p.Status = StatusDisconnected
	}
}

func (a *TableActor) handleReconnect(m ReconnectMsg) {
	a.handleConnect(ConnectMsg{PlayerID: m.PlayerID, SessionID: m.SessionID})
	snapshot := a.Snapshot()
	if m.Reply != nil {
		m.Reply <- ReconnectOutcome{FullSnapshot: true, Snapshot: &snapshot}
	}
}

func (a *TableActor) handleTick(m TickMsg) {
	if m.ScheduledAtVersion != a.stateVersion {
		return // superseded by an action that already advanced the table
	}
	switch m.Kind {
	case TickActionTimeout:
		a.forceFoldOrCheck(m.ScheduledFor)
	case TickQuiescence:
		// Registry decides destruction from QuickStats; the actor never
		// removes itself.
	}
}

func (a *TableActor) handleAdmin(m AdminCommandMsg) {
	var err error
	switch m.Command {
	case "force_checkpoint":
		if a.checkpointer != nil {
			err = a.checkpointer.Save(a.Snapshot())
		}
	default:
		err = fmt.Errorf("unknown admin command %q", m.Command)
	}
	if m.Reply != nil {
		m.Reply <- err
	}
}

// forceFoldOrCheck is the action-timeout consequence: fold if there is a
// bet to call, check if there is nothing to call.
func (a *TableActor) forceFoldOrCheck(playerID string) {
	if a.hand == nil || a.hand.ActionOn != playerID {
		return
	}
	p := a.players[playerID]
	if p == nil {
		return
	}
	action := Action{Type: ActionFold}
	if p.CurrentBet == a.hand.CurrentBetToMatch {
		action = Action{Type: ActionCheck}
	}
	result, violation := Apply(action, playerID, a.hand, a.activePlayers())
	if violation != nil {
		return
	}
	if result.RoundComplete {
		a.advanceStreetOrShowdown()
	}
	a.broadcast(a.buildActionBroadcast(playerID, action))
}

func (a *TableActor) activePlayers() []*Player {
	out := make([]*Player, 0, len(a.players))
	for _, p := range a.players {
		out = append(out, p)
	}
	return out
}

func (a *TableActor) resetActionTimer() {
	if a.cancelActionTimer != nil {
		a.cancelActionTimer()
		a.cancelActionTimer = nil
	}
	if a.hand == nil || a.hand.ActionOn == "" || a.cfg.ActionTimeout <= 0 {
		return
	}
	actionOn := a.hand.ActionOn
	// Run bumps stateVersion once the current message is handled, so the
	// tick stays live only if no other message is processed before it.
	version := a.stateVersion + 1
	a.cancelActionTimer = a.scheduler.After(a.cfg.ActionTimeout, func() {
		a.inbox <- TickMsg{Kind: TickActionTimeout, ScheduledFor: actionOn, ScheduledAtVersion: version, Now: time.Now()}
	})
}

// advanceStreetOrShowdown is called whenever a betting round closes. It
// pays an uncontested pot immediately, otherwise deals the next street or
// runs the showdown, then either opens the next round's action or settles
// the hand.
func (a *TableActor) advanceStreetOrShowdown() {
	if w := UncontestedWinner(a.activePlayers()); w != nil {
		a.hand.Phase = PhaseSettling
		a.settleHand([]Winner{*w})
		return
	}

	AdvancePhase(a.hand, a.activePlayers(), a.cfg.BigBlind)
	for a.hand.Phase != PhaseShowdown && a.hand.ActionOn == "" {
		// Every remaining contender is all-in: nobody can act, so keep
		// dealing streets straight through to showdown.
		AdvancePhase(a.hand, a.activePlayers(), a.cfg.BigBlind)
	}

	if a.hand.Phase == PhaseShowdown {
		winners, err := RunShowdown(a.hand, a.activePlayers())
		if err != nil {
			a.log.Errorf("table %s: showdown evaluation failed: %v", a.cfg.ID, err)
			return
		}
		a.hand.Phase = PhaseSettling
		a.settleHand(winners)
		return
	}

	a.resetActionTimer()
}

func (a *TableActor) settleHand(winners []Winner) {
	a.broadcast(OutboundEnvelope{Type: EventHandComplete, TableID: a.cfg.ID, Winners: winners})
	for _, p := range a.players {
		if p.Stack <= 0 && p.Status != StatusSittingOut {
			p.Status = StatusSittingOut // busted; sits out until a re-buy Join
		}
	}
	a.hand = nil
	if a.cfg.ButtonRotation == MovingButton {
		a.buttonSeat = nextOccupiedSeat(a.seats, a.buttonSeat)
	}
}

func nextOccupiedSeat(seats []string, from int) int {
	for i := 1; i <= len(seats); i++ {
		idx := (from + i) % len(seats)
		if seats[idx] != "" {
			return idx
		}
	}
	return from
}

// eligibleForNewHand reports whether enough seated, non-sitting-out
// players exist to start a hand.
func (a *TableActor) eligibleForNewHand() []*Player {
	var out []*Player
	for _, p := range a.players {
		if (p.Status == StatusSeated || p.Status == StatusActive) && p.Stack > 0 {
			out = append(out, p)
		}
	}
	return out
}

func (a *TableActor) startHand() {
	eligible := a.eligibleForNewHand()
	a.handNumber++
	hand := NewHandState(a.handNumber, a.buttonSeat)
	committed, err := GenerateDeck()
	if err != nil {
		a.log.Errorf("table %s: deck generation failed: %v", a.cfg.ID, err)
		return
	}
	seed, err := NewShuffleSeed()
	if err != nil {
		a.log.Errorf("table %s: shuffle seed generation failed: %v", a.cfg.ID, err)
		return
	}
	shuffled := Shuffle(committed, seed)
	if ok, err := Verify(shuffled); !ok {
		a.log.Errorf("table %s: shuffle verification failed, hand voided: %v", a.cfg.ID, err)
		return
	}
	hand.Deck = NewDeckFromShuffle(shuffled)
	a.hand = hand

	for _, p := range eligible {
		p.ResetForNewHand()
	}
	StartHand(a.hand, a.activePlayers())
	PostBlinds(a.hand, a.activePlayers(), a.cfg.SmallBlind, a.cfg.BigBlind)
	a.resetActionTimer()
	a.broadcast(OutboundEnvelope{Type: EventHandStarted, TableID: a.cfg.ID})
}

// stateIdle starts a new hand once enough players are ready to play, and
// otherwise leaves the table waiting.
func stateIdle(a *TableActor, _ func(string, statemachine.StateEvent)) tableStateFn {
	if a.hand != nil {
		return stateHandInProgress
	}
	if len(a.eligibleForNewHand()) >= 2 {
		a.startHand()
		return stateHandInProgress
	}
	return stateIdle
}

// stateHandInProgress is a hold state: all forward motion within a hand
// happens directly from message handlers (handlePlayerAction, handleTick),
// since those are the only events that can legally move action forward.
func stateHandInProgress(a *TableActor, _ func(string, statemachine.StateEvent)) tableStateFn {
	if a.hand == nil {
		return stateIdle
	}
	return stateHandInProgress
}
