// Package overload answers "should the server accept more work right now,"
// by sampling this process's own resource usage. It backs the gateway's
// connection-admission check; the registry does not consult it.
package overload

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pbnjay/memory"
	"github.com/prometheus/procfs"
)

// Guard periodically samples process RSS and system memory headroom and
// exposes a cheap Allow check, guarded only by a read lock, for hot paths
// (every new connection) that cannot afford a syscall each time.
type Guard struct {
	fs   procfs.FS
	pid  int
	maxRSSFraction float64 // reject once RSS exceeds this fraction of total system memory

	mu      sync.RWMutex
	overloaded bool
	lastRSS    uint64
	lastErr    error
}

// NewGuard opens /proc for the current process. On platforms without procfs
// (anything but Linux) fs is zero-valued and every sample is treated as a
// no-op success, since there is nothing to read — the guard degrades to
// always-allow rather than refusing to start the server.
func NewGuard(maxRSSFraction float64) (*Guard, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return &Guard{maxRSSFraction: maxRSSFraction}, nil
	}
	return &Guard{fs: fs, pid: -1, maxRSSFraction: maxRSSFraction}, nil
}

// Run samples resource usage every interval until stop is closed. Call it
// once in its own goroutine at server startup.
func (g *Guard) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	g.sample()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

func (g *Guard) sample() {
	proc, err := g.fs.Self()
	if err != nil {
		g.record(0, nil) // procfs unavailable on this platform; stay permissive
		return
	}
	stat, err := proc.Stat()
	if err != nil {
		g.record(0, fmt.Errorf("overload: read /proc/self/stat: %w", err))
		return
	}

	rss := uint64(stat.ResidentMemory())
	total := memory.TotalMemory()
	overloaded := total > 0 && float64(rss)/float64(total) >= g.maxRSSFraction
	g.record(rss, nil)

	g.mu.Lock()
	g.overloaded = overloaded
	g.mu.Unlock()
}

func (g *Guard) record(rss uint64, err error) {
	g.mu.Lock()
	g.lastRSS = rss
	g.lastErr = err
	g.mu.Unlock()
}

// Allow reports whether the server should accept more work. Safe for
// concurrent use from every connection-admission path.
func (g *Guard) Allow() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.overloaded
}

// Stats is a point-in-time resource snapshot for diagnostics/admin output.
type Stats struct {
	ResidentBytes uint64
	TotalBytes    uint64
	FreeBytes     uint64
	Goroutines    int
	Overloaded    bool
	SampleErr     error
}

// Snapshot returns the guard's last sample plus live goroutine count.
func (g *Guard) Snapshot() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Stats{
		ResidentBytes: g.lastRSS,
		TotalBytes:    memory.TotalMemory(),
		FreeBytes:     memory.FreeMemory(),
		Goroutines:    runtime.NumGoroutine(),
		Overloaded:    g.overloaded,
		SampleErr:     g.lastErr,
	}
}
