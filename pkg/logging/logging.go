// Package logging builds one decred/slog backend for the process and hands
// out a per-subsystem Logger from it, the way the teacher's binaries built
// a single log backend and tagged each subsystem's logger (SRVR, PKR, ...).
package logging

import (
	"fmt"
	"io"

	"github.com/decred/slog"
)

// Backend owns the process-wide log sink and remembers the level every
// subsystem logger should start at.
type Backend struct {
	backend *slog.Backend
	level   slog.Level
}

// New creates a Backend writing to w at the given level string (trace,
// debug, info, warn, error, critical). An unrecognized level falls back to
// info rather than failing startup over a typo in a flag.
func New(w io.Writer, levelName string) *Backend {
	level, ok := slog.LevelFromString(levelName)
	if !ok {
		level = slog.LevelInfo
	}
	return &Backend{backend: slog.NewBackend(w), level: level}
}

// Logger returns a tagged subsystem logger (e.g. "TABL", "GTWY", "PRST"),
// matching the four-letter subsystem tag convention the teacher's loggers
// used.
func (b *Backend) Logger(subsystem string) slog.Logger {
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	return l
}

// SubsystemTags names the loggers the server wires at startup, one per
// major component.
var SubsystemTags = struct {
	Table       string
	Gateway     string
	Registry    string
	Persistence string
	Overload    string
}{
	Table:       "TABL",
	Gateway:     "GTWY",
	Registry:    "REGY",
	Persistence: "PRST",
	Overload:    "OVLD",
}

func init() {
	// Fail loudly at import time if the subsystem tags above ever collide,
	// rather than silently merging two components' logs.
	seen := make(map[string]bool)
	for _, tag := range []string{
		SubsystemTags.Table, SubsystemTags.Gateway, SubsystemTags.Registry,
		SubsystemTags.Persistence, SubsystemTags.Overload,
	} {
		if seen[tag] {
			panic(fmt.Sprintf("logging: duplicate subsystem tag %q", tag))
		}
		seen[tag] = true
	}
}
