// Package registry owns the table_id -> running TableActor map: creating
// tables on request, restoring any checkpointed at startup, and retiring
// tables that have sat empty past their quiescence window.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokerbisonrelay/pkg/persistence"
	"github.com/vctt94/pokerbisonrelay/pkg/poker"
)

// Summary is the lobby-facing view of one table: just enough to render a
// table list without reaching into the actor (which would require a
// round-trip through its inbox for every browsing client).
type Summary struct {
	TableID      string
	SmallBlind   int64
	BigBlind     int64
	SeatsTaken   int
	MaxSeats     int
	HandInProgress bool
}

type entry struct {
	actor      *poker.TableActor
	cancel     context.CancelFunc
	lastActive time.Time
}

// Registry is safe for concurrent use: Create/Get/Remove take a mutex
// guarding the map itself, never the actors' internal state (which stays
// behind each actor's own single-writer goroutine).
type Registry struct {
	mu    sync.RWMutex
	tables map[string]*entry

	store *persistence.Store
	log   slog.Logger

	quiescence time.Duration

	summaryCacheMu  sync.Mutex
	summaryCache    []Summary
	summaryCachedAt time.Time
	summaryTTL      time.Duration
}

// New constructs an empty registry backed by store for checkpointing.
func New(store *persistence.Store, log slog.Logger, quiescence, summaryTTL time.Duration) *Registry {
	return &Registry{
		tables:     make(map[string]*entry),
		store:      store,
		log:        log,
		quiescence: quiescence,
		summaryTTL: summaryTTL,
	}
}

// RestoreAll resumes every table with a persisted checkpoint. Call once at
// startup before accepting gateway connections.
func (r *Registry) RestoreAll(broadcaster poker.Broadcaster) error {
	ids, err := r.store.ListTableIDs()
	if err != nil {
		return fmt.Errorf("registry: list checkpointed tables: %w", err)
	}
	for _, id := range ids {
		snap, ok, err := r.store.Load(id)
		if err != nil {
			return fmt.Errorf("registry: load table %s: %w", id, err)
		}
		if !ok {
			continue
		}
		actor, err := poker.RestoreTableActor(*snap, r.log, broadcaster, r.store)
		if err != nil {
			return fmt.Errorf("registry: restore table %s: %w", id, err)
		}
		r.register(id, actor)
	}
	return nil
}

// Create registers a brand new table and starts its actor goroutine.
func (r *Registry) Create(cfg poker.TableConfig, broadcaster poker.Broadcaster) (*poker.TableActor, error) {
	r.mu.Lock()
	if _, exists := r.tables[cfg.ID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("registry: table %s already exists", cfg.ID)
	}
	r.mu.Unlock()

	if cfg.MaxSeats < 2 {
		return nil, fmt.Errorf("registry: table needs at least 2 seats, got %d", cfg.MaxSeats)
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= cfg.SmallBlind {
		return nil, fmt.Errorf("registry: invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}

	actor := poker.NewTableActor(cfg, r.log, broadcaster, r.store)
	r.register(cfg.ID, actor)
	return actor, nil
}

func (r *Registry) register(id string, actor *poker.TableActor) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.tables[id] = &entry{actor: actor, cancel: cancel, lastActive: time.Now()}
	r.mu.Unlock()
	go actor.Run(ctx)
}

// Get returns the running actor for a table, or nil if none is registered.
func (r *Registry) Get(tableID string) *poker.TableActor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[tableID]
	if !ok {
		return nil
	}
	return e.actor
}

// Remove stops a table's actor goroutine and drops it from the registry.
// Called by the quiescence sweep, never by the actor itself.
func (r *Registry) Remove(tableID string) {
	r.mu.Lock()
	e, ok := r.tables[tableID]
	if ok {
		delete(r.tables, tableID)
	}
	r.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// SweepQuiescent retires every table whose actor reports no seated players
// and has sat that way past the configured quiescence window. It is meant
// to be called periodically (e.g. every minute) from the server's main
// loop, never from inside a table actor.
func (r *Registry) SweepQuiescent() []string {
	r.mu.Lock()
	var toRemove []string
	now := time.Now()
	for id, e := range r.tables {
		if e.actor.QuickStats().SeatsOccupied == 0 {
			if now.Sub(e.lastActive) >= r.quiescence {
				toRemove = append(toRemove, id)
			}
		} else {
			e.lastActive = now
		}
	}
	r.mu.Unlock()

	for _, id := range toRemove {
		r.Remove(id)
		r.log.Infof("registry: retired quiescent table %s", id)
	}
	return toRemove
}

// Summaries returns the lobby table list, cached for summaryTTL to bound
// how often a burst of browsing clients forces fresh work.
func (r *Registry) Summaries() []Summary {
	r.summaryCacheMu.Lock()
	defer r.summaryCacheMu.Unlock()

	if time.Since(r.summaryCachedAt) < r.summaryTTL && r.summaryCache != nil {
		return r.summaryCache
	}

	r.mu.RLock()
	out := make([]Summary, 0, len(r.tables))
	for id, e := range r.tables {
		stats := e.actor.QuickStats()
		out = append(out, Summary{
			TableID:        id,
			SmallBlind:     stats.SmallBlind,
			BigBlind:       stats.BigBlind,
			SeatsTaken:     stats.SeatsOccupied,
			MaxSeats:       stats.MaxSeats,
			HandInProgress: stats.HandInProgress,
		})
	}
	r.mu.RUnlock()

	r.summaryCache = out
	r.summaryCachedAt = time.Now()
	return out
}
