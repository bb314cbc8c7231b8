// Package gateway terminates client WebSocket connections, multiplexes
// them onto table actors, and fans broadcasts back out with per-recipient
// view masking. It never touches poker rules directly: every inbound frame
// becomes a poker.Message sent to the table's inbox, and every outbound
// frame is built from a poker.PlayerView the table actor computed.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/decred/slog"

	"github.com/vctt94/pokerbisonrelay/pkg/poker"
	"github.com/vctt94/pokerbisonrelay/pkg/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 32 * 1024
)

// ClientEnvelope is the inbound wire shape a browser/CLI client sends.
type ClientEnvelope struct {
	Type            string          `json:"type"`
	TableID         string          `json:"table_id"`
	ClientMessageID string          `json:"client_message_id,omitempty"`
	Action          *ActionPayload  `json:"action,omitempty"`
	Seat            int             `json:"seat,omitempty"`
	BuyIn           int64           `json:"buy_in,omitempty"`
	DisplayName     string          `json:"display_name,omitempty"`
	Chat            string          `json:"chat,omitempty"`
	SitOut          bool            `json:"sit_out,omitempty"`
}

// ActionPayload is the JSON shape of a poker.Action.
type ActionPayload struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount,omitempty"`
}

// ServerEnvelope is the outbound wire shape, carrying an increasing
// per-connection sequence number so a client can detect gaps and request a
// full resync instead of silently drifting.
type ServerEnvelope struct {
	Type       string            `json:"type"`
	ServerSeq  uint64            `json:"server_seq"`
	ServerTSMs int64             `json:"server_ts_ms"`
	View       *poker.PlayerView `json:"view,omitempty"`
	Error      string            `json:"error,omitempty"`
	Outcome    *poker.ActionOutcome `json:"outcome,omitempty"`
}

// Session is one live WebSocket connection, bound to exactly one
// authenticated player. It owns its own write pump goroutine; the actor
// never writes to the socket directly.
type Session struct {
	conn     *websocket.Conn
	playerID string
	tableID  string

	send chan ServerEnvelope
	seq  uint64

	limiter *tokenBucket

	closeOnce sync.Once
}

// Gateway owns the HTTP upgrade endpoint and the registry it dispatches
// validated messages into.
type Gateway struct {
	reg *registry.Registry
	log slog.Logger

	authenticate func(r *http.Request) (playerID string, ok bool)

	mu       sync.Mutex
	sessions map[string]*Session // playerID -> active session
}

// New constructs a Gateway. authenticate extracts and validates the
// player's identity from the upgrade request; token issuance itself is out
// of scope and lives in whatever auth service fronts this gateway.
func New(reg *registry.Registry, log slog.Logger, authenticate func(*http.Request) (string, bool)) *Gateway {
	return &Gateway{
		reg:          reg,
		log:          log,
		authenticate: authenticate,
		sessions:     make(map[string]*Session),
	}
}

// Broadcast implements poker.Broadcaster: it renders one masked PlayerView
// per connected session at the table and pushes it down that session's
// send channel. Sessions with a full send buffer are disconnected rather
// than allowed to block the table actor.
func (g *Gateway) Broadcast(tableID string, envelopes []poker.OutboundEnvelope) {
	actor := g.reg.Get(tableID)
	if actor == nil {
		return
	}

	g.mu.Lock()
	var recipients []*Session
	for _, s := range g.sessions {
		if s.tableID == tableID {
			recipients = append(recipients, s)
		}
	}
	g.mu.Unlock()

	for _, s := range recipients {
		view := actor.ViewFor(s.playerID)
		s.enqueue(ServerEnvelope{Type: "table_update", View: &view})
	}
}

// ServeHTTP upgrades the connection, authenticates it, and starts the
// read/write pumps. One goroutine pair per connection, matching the
// teacher's one-goroutine-per-stream gRPC handler shape.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID, ok := g.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnf("gateway: upgrade failed for %s: %v", playerID, err)
		return
	}

	sess := &Session{
		conn:     conn,
		playerID: playerID,
		send:     make(chan ServerEnvelope, 64),
		limiter:  newTokenBucket(20, 10*time.Second),
	}

	g.mu.Lock()
	if prior, exists := g.sessions[playerID]; exists {
		prior.close()
	}
	g.sessions[playerID] = sess
	g.mu.Unlock()

	go g.writePump(sess)
	g.readPump(sess)
}

func (g *Gateway) readPump(sess *Session) {
	defer g.disconnect(sess)

	sess.conn.SetReadLimit(maxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		if !sess.limiter.Allow() {
			sess.enqueue(ServerEnvelope{Type: "error", Error: "rate limited"})
			continue
		}

		var env ClientEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sess.enqueue(ServerEnvelope{Type: "error", Error: "malformed message"})
			continue
		}
		g.handleClientEnvelope(sess, env)
	}
}

func (g *Gateway) writePump(sess *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer sess.conn.Close()

	for {
		select {
		case env, ok := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) handleClientEnvelope(sess *Session, env ClientEnvelope) {
	actor := g.reg.Get(env.TableID)
	if actor == nil {
		sess.enqueue(ServerEnvelope{Type: "error", Error: "no such table"})
		return
	}
	sess.tableID = env.TableID

	switch env.Type {
	case "join":
		reply := make(chan error, 1)
		actor.Inbox() <- poker.JoinMsg{PlayerID: sess.playerID, DisplayName: env.DisplayName, Seat: env.Seat, BuyIn: env.BuyIn, Reply: reply}
		g.replyErr(sess, <-reply)
	case "leave":
		reply := make(chan error, 1)
		actor.Inbox() <- poker.LeaveMsg{PlayerID: sess.playerID, Reply: reply}
		g.replyErr(sess, <-reply)
	case "sit":
		reply := make(chan error, 1)
		actor.Inbox() <- poker.SitMsg{PlayerID: sess.playerID, SitOut: env.SitOut, Reply: reply}
		g.replyErr(sess, <-reply)
	case "action":
		if env.Action == nil {
			sess.enqueue(ServerEnvelope{Type: "error", Error: "missing action"})
			return
		}
		reply := make(chan poker.ActionOutcome, 1)
		actor.Inbox() <- poker.PlayerActionMsg{
			PlayerID:        sess.playerID,
			ClientMessageID: env.ClientMessageID,
			Action:          poker.Action{Type: actionTypeFromWire(env.Action.Type), Amount: env.Action.Amount},
			Reply:           reply,
		}
		outcome := <-reply
		errText := ""
		if outcome.Violation != nil {
			errText = outcome.Violation.Error()
		}
		sess.enqueue(ServerEnvelope{Type: "action_result", Outcome: &outcome, Error: errText})
	case "chat":
		actor.Inbox() <- poker.ChatMsg{PlayerID: sess.playerID, Channel: env.TableID, Text: env.Chat}
	default:
		sess.enqueue(ServerEnvelope{Type: "error", Error: "unknown message type " + env.Type})
	}
}

func (g *Gateway) replyErr(sess *Session, err error) {
	if err != nil {
		sess.enqueue(ServerEnvelope{Type: "error", Error: err.Error()})
	}
}

func (g *Gateway) disconnect(sess *Session) {
	if actor := g.reg.Get(sess.tableID); actor != nil {
		actor.Inbox() <- poker.DisconnectMsg{PlayerID: sess.playerID}
	}
	g.mu.Lock()
	if g.sessions[sess.playerID] == sess {
		delete(g.sessions, sess.playerID)
	}
	g.mu.Unlock()
	sess.close()
}

func (s *Session) enqueue(env ServerEnvelope) {
	s.seq++
	env.ServerSeq = s.seq
	env.ServerTSMs = time.Now().UnixMilli()
	select {
	case s.send <- env:
	default:
		s.close() // backpressure: a stalled client is disconnected, not buffered unboundedly
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

func actionTypeFromWire(t string) poker.ActionType {
	switch t {
	case "fold":
		return poker.ActionFold
	case "check":
		return poker.ActionCheck
	case "call":
		return poker.ActionCall
	case "bet":
		return poker.ActionBet
	case "raise":
		return poker.ActionRaise
	case "all_in":
		return poker.ActionAllIn
	default:
		return poker.ActionFold
	}
}
