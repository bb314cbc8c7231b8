package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vctt94/pokerbisonrelay/pkg/config"
	"github.com/vctt94/pokerbisonrelay/pkg/gateway"
	"github.com/vctt94/pokerbisonrelay/pkg/logging"
	"github.com/vctt94/pokerbisonrelay/pkg/overload"
	"github.com/vctt94/pokerbisonrelay/pkg/persistence"
	"github.com/vctt94/pokerbisonrelay/pkg/poker"
	"github.com/vctt94/pokerbisonrelay/pkg/registry"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logBackend := logging.New(os.Stderr, cfg.DebugLevel)
	srvLog := logBackend.Logger(logging.SubsystemTags.Table)

	store, err := persistence.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "persistence: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	guard, err := overload.NewGuard(0.85)
	if err != nil {
		fmt.Fprintf(os.Stderr, "overload: %v\n", err)
		os.Exit(1)
	}
	stopSampling := make(chan struct{})
	go guard.Run(stopSampling, 5*time.Second)
	defer close(stopSampling)

	reg := registry.New(store, logBackend.Logger(logging.SubsystemTags.Registry), cfg.TableQuiescence, cfg.LobbySummaryTTL)

	gw := gateway.New(reg, logBackend.Logger(logging.SubsystemTags.Gateway), func(r *http.Request) (string, bool) {
		playerID := r.Header.Get("X-Player-Id")
		if playerID == "" {
			return "", false
		}
		if !guard.Allow() {
			return "", false
		}
		return playerID, true
	})

	if err := reg.RestoreAll(gw); err != nil {
		fmt.Fprintf(os.Stderr, "registry: restore: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reg.SweepQuiescent()
			}
		}
	}()

	bootstrapTable(reg, gw, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.ServeHTTP)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			srvLog.Errorf("serve: %v", err)
		}
	}()
	srvLog.Infof("listening on %s", lis.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

// bootstrapTable creates one default table at startup so the server has
// somewhere for the first client to sit down, mirroring the single-table
// assumption of the original binary. Nothing in the server creates further
// tables; others exist only if restored from checkpoints.
func bootstrapTable(reg *registry.Registry, gw *gateway.Gateway, cfg config.Config) {
	_, err := reg.Create(poker.TableConfig{
		ID:              "default",
		SmallBlind:      cfg.DefaultSmallBlind,
		BigBlind:        cfg.DefaultBigBlind,
		MinBuyIn:        cfg.DefaultMinBuyIn,
		MaxBuyIn:        cfg.DefaultMaxBuyIn,
		MaxSeats:        cfg.DefaultMaxSeats,
		ActionTimeout:   cfg.ActionTimeout,
		DisconnectGrace: cfg.DisconnectGrace,
		ButtonRotation:  poker.DeadButton,
	}, gw)
	if err != nil {
		// Any Create error is ignored here, whether the table was already
		// restored from a checkpoint or the configured stakes were rejected.
		return
	}
}
