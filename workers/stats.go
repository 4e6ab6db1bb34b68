package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-video/observability"
)

// StatsWorker periodically refreshes the broker counters and logs a snapshot
// together with the process's own CPU and memory figures. Purely
// observational: the realtime path never waits on it.
type StatsWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, monitor: monitor, interval: interval}
}

// Run executes the main loop of the worker, refreshing and logging broker
// health on every tick.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info("Starting stats worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.monitor.Refresh()
			stats := w.monitor.GetLatest()

			rss, cpu, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			w.log.Info("Broker stats",
				"connections", stats.Connections,
				"delivered", stats.Delivered,
				"delivered_per_sec", stats.DeliveredPerSec,
				"dropped", stats.Dropped,
				"handshake_rejected", stats.HandshakeRejected,
				"messages_saved", stats.MessagesSaved,
				"persist_fallbacks", stats.PersistFallbacks,
				"unknown_destination", stats.UnknownDestination,
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu,
				"alloc_mem_mb", stats.AllocMemMb,
				"num_gc", stats.NumGC,
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory and CPU) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
