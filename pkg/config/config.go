// Package config resolves the server's runtime configuration from flags,
// environment variables, and defaults, in that precedence order, the way
// cmd/pokersrv's original flag set did for a single table.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Config is everything the server binary needs to start listening.
type Config struct {
	Host string
	Port int

	DBPath string

	DefaultSmallBlind int64
	DefaultBigBlind   int64
	DefaultMinBuyIn   int64
	DefaultMaxBuyIn   int64
	DefaultMaxSeats   int

	ActionTimeout   time.Duration
	DisconnectGrace time.Duration
	TableQuiescence time.Duration
	LobbySummaryTTL time.Duration

	DebugLevel string

	// OverloadMaxSessions is parsed from -maxsessions but nothing enforces
	// it; gateway admission is decided by the overload guard's memory
	// sample alone.
	OverloadMaxSessions int
}

// Default returns the baseline configuration, matching the teacher's
// cmd/pokersrv flag defaults where a direct analogue exists.
func Default() Config {
	return Config{
		Host:                "127.0.0.1",
		Port:                0,
		DBPath:              "",
		DefaultSmallBlind:   5,
		DefaultBigBlind:     10,
		DefaultMinBuyIn:     200,
		DefaultMaxBuyIn:     2000,
		DefaultMaxSeats:     9,
		ActionTimeout:       30 * time.Second,
		DisconnectGrace:     2 * time.Minute,
		TableQuiescence:     10 * time.Minute,
		LobbySummaryTTL:     2 * time.Second,
		DebugLevel:          "info",
		OverloadMaxSessions: 0,
	}
}

// FromFlags parses args against the default configuration. Every flag can
// also be set by an equivalently-named POKER_* environment variable, with
// the flag taking precedence when both are present.
func FromFlags(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("pokersrv", flag.ContinueOnError)

	fs.StringVar(&cfg.Host, "host", cfg.Host, "host to listen on")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on (0 for random free port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to SQLite checkpoint database (created if missing)")
	fs.Int64Var(&cfg.DefaultSmallBlind, "smallblind", cfg.DefaultSmallBlind, "default small blind for new tables")
	fs.Int64Var(&cfg.DefaultBigBlind, "bigblind", cfg.DefaultBigBlind, "default big blind for new tables")
	fs.IntVar(&cfg.DefaultMaxSeats, "maxseats", cfg.DefaultMaxSeats, "default seat count for new tables")
	fs.DurationVar(&cfg.ActionTimeout, "actiontimeout", cfg.ActionTimeout, "per-action timer before a forced fold/check")
	fs.DurationVar(&cfg.DisconnectGrace, "disconnectgrace", cfg.DisconnectGrace, "grace period recorded as a deadline when a player disconnects mid-hand (the deadline is not enforced)")
	fs.DurationVar(&cfg.TableQuiescence, "quiescence", cfg.TableQuiescence, "how long an empty table survives before retirement")
	fs.StringVar(&cfg.DebugLevel, "debuglevel", cfg.DebugLevel, "logging level: trace, debug, info, warn, error, critical")
	fs.IntVar(&cfg.OverloadMaxSessions, "maxsessions", cfg.OverloadMaxSessions, "concurrent session limit (parsed but not enforced)")

	applyEnvDefaults(fs)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.DefaultBigBlind <= cfg.DefaultSmallBlind {
		return Config{}, fmt.Errorf("config: bigblind (%d) must exceed smallblind (%d)", cfg.DefaultBigBlind, cfg.DefaultSmallBlind)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = os.TempDir() + "/poker.sqlite"
	}
	cfg.DefaultMinBuyIn = cfg.DefaultBigBlind * 20
	cfg.DefaultMaxBuyIn = cfg.DefaultBigBlind * 200
	return cfg, nil
}

// applyEnvDefaults overrides each flag's default with POKER_<FLAG> from the
// environment, if set, before flag.Parse applies CLI overrides on top.
func applyEnvDefaults(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		envName := "POKER_" + toEnvCase(f.Name)
		if v, ok := os.LookupEnv(envName); ok {
			_ = f.Value.Set(v)
		}
	})
}

func toEnvCase(name string) string {
	out := make([]byte, 0, len(name))
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			out = append(out, byte(r-'a'+'A'))
		} else {
			out = append(out, byte(r))
		}
	}
	return string(out)
}
