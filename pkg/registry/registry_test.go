package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokerbisonrelay/pkg/persistence"
	"github.com/vctt94/pokerbisonrelay/pkg/poker"
)

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, []poker.OutboundEnvelope) {}

func testLogger() slog.Logger {
	l := slog.NewBackend(noopWriter{}).Logger("TEST")
	l.SetLevel(slog.LevelOff)
	return l
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestRegistry(t *testing.T, quiescence, summaryTTL time.Duration) *Registry {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "reg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, testLogger(), quiescence, summaryTTL)
}

func validConfig(id string) poker.TableConfig {
	return poker.TableConfig{ID: id, SmallBlind: 5, BigBlind: 10, MinBuyIn: 200, MaxBuyIn: 2000, MaxSeats: 6}
}

func TestCreateRejectsDuplicateTableID(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)

	_, err := reg.Create(validConfig("t1"), noopBroadcaster{})
	require.NoError(t, err)

	_, err = reg.Create(validConfig("t1"), noopBroadcaster{})
	assert.Error(t, err)
}

func TestCreateRejectsTooFewSeats(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)
	cfg := validConfig("t1")
	cfg.MaxSeats = 1

	_, err := reg.Create(cfg, noopBroadcaster{})
	assert.Error(t, err)
}

func TestCreateRejectsInvertedBlinds(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)
	cfg := validConfig("t1")
	cfg.SmallBlind, cfg.BigBlind = 10, 5

	_, err := reg.Create(cfg, noopBroadcaster{})
	assert.Error(t, err)
}

func TestGetReturnsNilForUnknownTable(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)
	assert.Nil(t, reg.Get("missing"))
}

func TestGetReturnsRegisteredActor(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)
	actor, err := reg.Create(validConfig("t1"), noopBroadcaster{})
	require.NoError(t, err)
	assert.Same(t, actor, reg.Get("t1"))
}

func TestRemoveDropsTableFromRegistry(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, time.Second)
	_, err := reg.Create(validConfig("t1"), noopBroadcaster{})
	require.NoError(t, err)

	reg.Remove("t1")
	assert.Nil(t, reg.Get("t1"))
}

func TestSweepQuiescentRetiresOnlyEmptyTablesPastTheWindow(t *testing.T) {
	reg := newTestRegistry(t, 0, time.Second)
	_, err := reg.Create(validConfig("empty"), noopBroadcaster{})
	require.NoError(t, err)

	occupied, err := reg.Create(validConfig("occupied"), noopBroadcaster{})
	require.NoError(t, err)
	reply := make(chan error, 1)
	occupied.Inbox() <- poker.JoinMsg{PlayerID: "p1", DisplayName: "p1", Seat: 0, BuyIn: 500, Reply: reply}
	require.NoError(t, <-reply)

	require.Eventually(t, func() bool { return occupied.QuickStats().SeatsOccupied == 1 }, time.Second, time.Millisecond)

	retired := reg.SweepQuiescent()
	assert.Contains(t, retired, "empty")
	assert.NotContains(t, retired, "occupied")
	assert.Nil(t, reg.Get("empty"))
	assert.NotNil(t, reg.Get("occupied"))
}

func TestSummariesAreCachedUntilTTLExpires(t *testing.T) {
	reg := newTestRegistry(t, time.Hour, 50*time.Millisecond)
	_, err := reg.Create(validConfig("t1"), noopBroadcaster{})
	require.NoError(t, err)

	first := reg.Summaries()
	require.Len(t, first, 1)

	_, err = reg.Create(validConfig("t2"), noopBroadcaster{})
	require.NoError(t, err)

	stillCached := reg.Summaries()
	assert.Len(t, stillCached, 1, "second table shouldn't appear until the cache TTL expires")

	time.Sleep(60 * time.Millisecond)
	fresh := reg.Summaries()
	assert.Len(t, fresh, 2)
}

func TestRestoreAllRehydratesCheckpointedTables(t *testing.T) {
	store, err := persistence.Open(filepath.Join(t.TempDir(), "restore.db"))
	require.NoError(t, err)
	defer store.Close()

	snap := poker.TableSnapshot{
		TableID:      "t1",
		Config:       validConfig("t1"),
		Seats:        []string{"", "", "", "", "", ""},
		StateVersion: 1,
	}
	require.NoError(t, store.Save(snap))

	reg := New(store, testLogger(), time.Hour, time.Second)
	require.NoError(t, reg.RestoreAll(noopBroadcaster{}))

	assert.NotNil(t, reg.Get("t1"))
}
