package gateway

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokerbisonrelay/pkg/persistence"
	"github.com/vctt94/pokerbisonrelay/pkg/poker"
	"github.com/vctt94/pokerbisonrelay/pkg/registry"
)

func testLogger() slog.Logger {
	l := slog.NewBackend(noopWriter{}).Logger("TEST")
	l.SetLevel(slog.LevelOff)
	return l
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestNewGatewayStartsWithNoSessions(t *testing.T) {
	store, err := persistence.Open(filepath.Join(t.TempDir(), "gw.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := registry.New(store, testLogger(), time.Hour, time.Second)
	gw := New(reg, testLogger(), func(r *http.Request) (string, bool) { return "", false })
	assert.Empty(t, gw.sessions)
}

func TestActionTypeFromWireMapsKnownVerbs(t *testing.T) {
	assert.Equal(t, poker.ActionFold, actionTypeFromWire("fold"))
	assert.Equal(t, poker.ActionCheck, actionTypeFromWire("check"))
	assert.Equal(t, poker.ActionCall, actionTypeFromWire("call"))
	assert.Equal(t, poker.ActionBet, actionTypeFromWire("bet"))
	assert.Equal(t, poker.ActionRaise, actionTypeFromWire("raise"))
	assert.Equal(t, poker.ActionAllIn, actionTypeFromWire("all_in"))
}

func TestActionTypeFromWireDefaultsUnknownVerbToFold(t *testing.T) {
	assert.Equal(t, poker.ActionFold, actionTypeFromWire("not-a-real-action"))
}

func TestSessionEnqueueIncrementsSequenceNumber(t *testing.T) {
	sess := &Session{send: make(chan ServerEnvelope, 4)}

	sess.enqueue(ServerEnvelope{Type: "a"})
	sess.enqueue(ServerEnvelope{Type: "b"})

	first := <-sess.send
	second := <-sess.send
	assert.Equal(t, uint64(1), first.ServerSeq)
	assert.Equal(t, uint64(2), second.ServerSeq)
}

func TestSessionEnqueueClosesOnFullBuffer(t *testing.T) {
	sess := &Session{send: make(chan ServerEnvelope, 1)}

	sess.enqueue(ServerEnvelope{Type: "a"}) // fills the one slot
	sess.enqueue(ServerEnvelope{Type: "b"}) // buffer full: closes instead of blocking

	_, ok := <-sess.send
	assert.True(t, ok) // the first queued envelope is still readable
	_, ok = <-sess.send
	assert.False(t, ok, "channel should be closed after backpressure")
}

func TestBroadcastRendersMaskedViewPerSessionAtTable(t *testing.T) {
	store, err := persistence.Open(filepath.Join(t.TempDir(), "bc.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := registry.New(store, testLogger(), time.Hour, time.Second)
	gw := &Gateway{reg: reg, log: testLogger(), sessions: make(map[string]*Session)}

	cfg := poker.TableConfig{ID: "t1", SmallBlind: 5, BigBlind: 10, MinBuyIn: 200, MaxBuyIn: 2000, MaxSeats: 2}
	actor, err := reg.Create(cfg, gw)
	require.NoError(t, err)

	reply := make(chan error, 1)
	actor.Inbox() <- poker.JoinMsg{PlayerID: "p1", DisplayName: "p1", Seat: 0, BuyIn: 500, Reply: reply}
	require.NoError(t, <-reply)

	s1 := &Session{playerID: "p1", tableID: "t1", send: make(chan ServerEnvelope, 4)}
	s2 := &Session{playerID: "other-table", tableID: "elsewhere", send: make(chan ServerEnvelope, 4)}
	gw.mu.Lock()
	gw.sessions["p1"] = s1
	gw.sessions["other-table"] = s2
	gw.mu.Unlock()

	gw.Broadcast("t1", []poker.OutboundEnvelope{{Type: poker.EventPlayerJoined, TableID: "t1"}})

	select {
	case env := <-s1.send:
		assert.Equal(t, "table_update", env.Type)
		require.NotNil(t, env.View)
		assert.Equal(t, "t1", env.View.TableID)
	case <-time.After(time.Second):
		t.Fatal("expected a table_update on the session at the broadcast table")
	}

	select {
	case <-s2.send:
		t.Fatal("session at a different table should not receive this broadcast")
	default:
	}
}
