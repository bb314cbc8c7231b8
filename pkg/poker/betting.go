package poker

// Result is the successful outcome of applying an action: whether the
// betting round closed as a result, and the table of per-player state
// changes is already reflected directly in the Player values passed in
// (the engine mutates the players it's given — the table actor owns
// persistence of that state, per spec's pure-engine contract: it is pure
// with respect to anything outside the (hand, players) it's handed).
type Result struct {
	RoundComplete bool
}

// seatOrder returns players sorted by seat index ascending.
func seatOrder(players []*Player) []*Player {
	sorted := make([]*Player, len(players))
	copy(sorted, players)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].SeatIndex < sorted[j-1].SeatIndex; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

// ButtonOrder returns player IDs in clockwise order starting immediately
// left of the button seat.
func ButtonOrder(players []*Player, buttonSeat int) []string {
	sorted := seatOrder(players)
	startIdx := 0
	for i, p := range sorted {
		if p.SeatIndex > buttonSeat {
			startIdx = i
			break
		}
		if i == len(sorted)-1 {
			startIdx = 0
		}
	}
	order := make([]string, 0, len(sorted))
	for i := 0; i < len(sorted); i++ {
		order = append(order, sorted[(startIdx+i)%len(sorted)].ID)
	}
	return order
}

func findPlayer(players []*Player, id string) *Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func findPlayerBySeat(players []*Player, seat int) *Player {
	for _, p := range players {
		if p.SeatIndex == seat {
			return p
		}
	}
	return nil
}

// NextActionOn finds the next player clockwise from afterID who CanAct.
// Returns "" if no such player exists (round is effectively uncontested).
func NextActionOn(players []*Player, buttonSeat int, afterID string) string {
	order := ButtonOrder(players, buttonSeat)
	startPos := -1
	for i, id := range order {
		if id == afterID {
			startPos = i
			break
		}
	}
	for i := 1; i <= len(order); i++ {
		candidate := order[(startPos+i)%len(order)]
		p := findPlayer(players, candidate)
		if p != nil && p.CanAct() {
			return candidate
		}
	}
	return ""
}

// FirstToActPostFlop returns the first active player left of the button,
// per the "between streets, action_on resets to the first active player
// left of the button" rule. In heads-up this is the big blind (non-button)
// seat, so the button acts last post-flop.
func FirstToActPostFlop(players []*Player, buttonSeat int) string {
	order := ButtonOrder(players, buttonSeat)
	for _, id := range order {
		p := findPlayer(players, id)
		if p != nil && p.CanAct() {
			return id
		}
	}
	return ""
}

// eligibleForRound counts non-folded, non-all-in players — the set whose
// action (or lack of it) determines round completion.
func eligibleForRound(players []*Player) []*Player {
	var out []*Player
	for _, p := range players {
		if p.Status == StatusActive {
			out = append(out, p)
		}
	}
	return out
}

// roundComplete holds when every non-folded, non-all-in player has acted
// since the last aggressor and all such players' current_bet equals
// current_bet_to_match, or at most one such player remains and nothing is
// left for that player to call.
func roundComplete(hand *HandState, players []*Player) bool {
	eligible := eligibleForRound(players)
	if len(eligible) == 0 {
		return true
	}
	if len(eligible) == 1 {
		return eligible[0].CurrentBet >= hand.CurrentBetToMatch
	}
	for _, p := range eligible {
		if !hand.ActedThisRound[p.ID] || p.CurrentBet != hand.CurrentBetToMatch {
			return false
		}
	}
	return true
}

// Apply is the betting engine's pure entry point: validate action against
// hand/player state, in the fixed order the spec names, and on success
// mutate hand and the acting player's entry in players, returning whether
// the round just closed. On any rule failure it returns a RuleViolation
// and leaves hand/players untouched.
func Apply(action Action, actorID string, hand *HandState, players []*Player) (Result, RuleViolation) {
	if actorID != hand.ActionOn {
		return Result{}, &ErrNotYourTurn{ActorID: actorID, ActionOn: hand.ActionOn}
	}
	if hand.Phase == PhaseWaiting || hand.Phase == PhaseSettling {
		return Result{}, &ErrWrongPhase{Phase: hand.Phase}
	}

	player := findPlayer(players, actorID)
	if player == nil {
		return Result{}, &ErrInvalidActionForState{Reason: "actor not seated at table"}
	}

	switch action.Type {
	case ActionFold:
		return applyFold(hand, players, player)
	case ActionCheck:
		return applyCheck(hand, players, player)
	case ActionCall:
		return applyCall(hand, players, player)
	case ActionBet:
		return applyBet(hand, players, player, action.Amount)
	case ActionRaise:
		return applyRaise(hand, players, player, action.Amount)
	case ActionAllIn:
		return applyAllIn(hand, players, player)
	default:
		return Result{}, &ErrInvalidActionForState{Reason: "unknown action type"}
	}
}

func finishAction(hand *HandState, players []*Player, player *Player) Result {
	hand.ActedThisRound[player.ID] = true
	complete := roundComplete(hand, players)
	if !complete {
		hand.ActionOn = NextActionOn(players, hand.ButtonSeat, player.ID)
	} else {
		hand.ActionOn = ""
	}
	return Result{RoundComplete: complete}
}

func applyFold(hand *HandState, players []*Player, player *Player) (Result, RuleViolation) {
	player.Status = StatusFolded
	return finishAction(hand, players, player), nil
}

func applyCheck(hand *HandState, players []*Player, player *Player) (Result, RuleViolation) {
	if hand.CurrentBetToMatch != player.CurrentBet {
		return Result{}, &ErrInvalidActionForState{Reason: "check only allowed when nothing to call"}
	}
	return finishAction(hand, players, player), nil
}

func applyCall(hand *HandState, players []*Player, player *Player) (Result, RuleViolation) {
	toCall := hand.CurrentBetToMatch - player.CurrentBet
	if toCall <= 0 {
		return Result{}, &ErrInvalidActionForState{Reason: "call only allowed when there is an outstanding bet"}
	}

	amount := toCall
	if amount > player.Stack {
		amount = player.Stack
	}
	player.Stack -= amount
	player.CurrentBet += amount
	player.TotalCommitted += amount
	if player.Stack == 0 {
		player.Status = StatusAllIn
	}
	return finishAction(hand, players, player), nil
}

func applyBet(hand *HandState, players []*Player, player *Player, amount int64) (Result, RuleViolation) {
	if hand.CurrentBetToMatch != 0 {
		return Result{}, &ErrInvalidActionForState{Reason: "bet only allowed when no prior bet this round"}
	}
	if amount <= 0 {
		return Result{}, &ErrAmountNotPositive{}
	}
	if amount > player.Stack {
		return Result{}, &ErrAmountExceedsStack{Amount: amount, Stack: player.Stack}
	}

	player.Stack -= amount
	player.CurrentBet += amount
	player.TotalCommitted += amount
	if player.Stack == 0 {
		player.Status = StatusAllIn
	}

	hand.CurrentBetToMatch = player.CurrentBet
	hand.MinRaiseIncrement = amount
	hand.LastAggressor = player.ID
	hand.CannotReopenRaise = make(map[string]bool)
	hand.ActedThisRound = map[string]bool{player.ID: true}

	return finishAction(hand, players, player), nil
}

func applyRaise(hand *HandState, players []*Player, player *Player, toAmount int64) (Result, RuleViolation) {
	if hand.CurrentBetToMatch == 0 {
		return Result{}, &ErrInvalidActionForState{Reason: "raise only allowed after a bet exists"}
	}
	if hand.CannotReopenRaise[player.ID] {
		return Result{}, &ErrInvalidActionForState{Reason: "action was not reopened by the prior short all-in"}
	}

	delta := toAmount - player.CurrentBet
	if delta <= 0 {
		return Result{}, &ErrAmountNotPositive{}
	}
	if delta > player.Stack {
		return Result{}, &ErrAmountExceedsStack{Amount: delta, Stack: player.Stack}
	}

	increment := toAmount - hand.CurrentBetToMatch
	isAllIn := delta == player.Stack
	if increment < hand.MinRaiseIncrement && !isAllIn {
		return Result{}, &ErrBelowMinRaise{MinIncrement: hand.MinRaiseIncrement, Got: increment}
	}

	player.Stack -= delta
	player.CurrentBet += delta
	player.TotalCommitted += delta
	if player.Stack == 0 {
		player.Status = StatusAllIn
	}

	hand.CurrentBetToMatch = player.CurrentBet
	if increment >= hand.MinRaiseIncrement {
		hand.MinRaiseIncrement = increment
		hand.LastAggressor = player.ID
		hand.CannotReopenRaise = make(map[string]bool)
		hand.ActedThisRound = map[string]bool{player.ID: true}
	} else {
		// Short all-in raise: raises the bar to call but does not reopen
		// raising rights for players who already acted at the prior level.
		for _, p := range players {
			if p.ID != player.ID && hand.ActedThisRound[p.ID] {
				hand.CannotReopenRaise[p.ID] = true
			}
		}
		hand.ActedThisRound[player.ID] = true
	}

	return finishAction(hand, players, player), nil
}

func applyAllIn(hand *HandState, players []*Player, player *Player) (Result, RuleViolation) {
	if player.Stack <= 0 {
		return Result{}, &ErrInsufficientFunds{Requested: 1, Available: 0}
	}

	toAmount := player.CurrentBet + player.Stack
	if toAmount <= hand.CurrentBetToMatch {
		// Short all-in that does not even cover the call: treat as a call
		// for whatever the player has.
		amount := player.Stack
		player.Stack = 0
		player.CurrentBet += amount
		player.TotalCommitted += amount
		player.Status = StatusAllIn
		return finishAction(hand, players, player), nil
	}

	return applyRaise(hand, players, player, toAmount)
}

// PostBlinds posts small and big blinds at hand start. Small blind pays
// min(smallBlind, stack); big blind pays min(bigBlind, stack); either may
// be short and enter all-in. It also sets the hand's phase to pre-flop.
// Returns the seat IDs that posted a blind, in (smallBlindID, bigBlindID)
// order.
func PostBlinds(hand *HandState, players []*Player, smallBlind, bigBlind int64) (string, string) {
	hand.Phase = PhasePreFlop
	order := ButtonOrder(players, hand.ButtonSeat)

	var sbID, bbID string
	if len(order) == 2 {
		// Heads-up: the button itself posts the small blind and acts first
		// pre-flop; ButtonOrder starts left of the button, so the button
		// seat is whichever of the two is not order[0].
		button := findPlayerBySeat(players, hand.ButtonSeat)
		sbID = button.ID
		for _, id := range order {
			if id != sbID {
				bbID = id
			}
		}
	} else {
		sbID = order[0]
		bbID = order[1]
	}

	postBlind(players, sbID, smallBlind)
	postBlind(players, bbID, bigBlind)

	hand.CurrentBetToMatch = bigBlind
	hand.MinRaiseIncrement = bigBlind
	hand.LastAggressor = bbID
	hand.ActedThisRound = make(map[string]bool)
	hand.CannotReopenRaise = make(map[string]bool)

	if len(order) == 2 {
		hand.ActionOn = sbID
	} else {
		hand.ActionOn = NextActionOn(players, hand.ButtonSeat, bbID)
	}

	return sbID, bbID
}

func postBlind(players []*Player, id string, amount int64) {
	p := findPlayer(players, id)
	if p == nil {
		return
	}
	posted := amount
	if posted > p.Stack {
		posted = p.Stack
	}
	p.Stack -= posted
	p.CurrentBet += posted
	p.TotalCommitted += posted
	if p.Stack == 0 {
		p.Status = StatusAllIn
	}
}
