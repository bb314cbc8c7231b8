package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokerbisonrelay/pkg/poker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveThenLoadRoundTripsSnapshot(t *testing.T) {
	store := openTestStore(t)

	snap := poker.TableSnapshot{
		TableID:      "t1",
		Config:       poker.TableConfig{ID: "t1", SmallBlind: 5, BigBlind: 10, MaxSeats: 6},
		Seats:        []string{"p1", "", "p2", "", "", ""},
		HandNumber:   3,
		StateVersion: 7,
	}
	require.NoError(t, store.Save(snap))

	loaded, ok, err := store.Load("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.HandNumber, loaded.HandNumber)
	assert.Equal(t, snap.StateVersion, loaded.StateVersion)
	assert.Equal(t, snap.Seats, loaded.Seats)
}

func TestLoadMissingTableReportsNotFoundWithoutError(t *testing.T) {
	store := openTestStore(t)

	loaded, ok, err := store.Load("nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, loaded)
}

func TestSaveRejectsOlderStateVersionThanAlreadyPersisted(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t1", StateVersion: 10, HandNumber: 5}))
	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t1", StateVersion: 3, HandNumber: 1}))

	loaded, ok, err := store.Load("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), loaded.StateVersion)
	assert.Equal(t, int64(5), loaded.HandNumber)
}

func TestSaveOverwritesWithNewerStateVersion(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t1", StateVersion: 3, HandNumber: 1}))
	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t1", StateVersion: 10, HandNumber: 5}))

	loaded, _, err := store.Load("t1")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), loaded.StateVersion)
}

func TestListTableIDsReturnsEveryCheckpointedTable(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t1", StateVersion: 1}))
	require.NoError(t, store.Save(poker.TableSnapshot{TableID: "t2", StateVersion: 1}))

	ids, err := store.ListTableIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids)
}
