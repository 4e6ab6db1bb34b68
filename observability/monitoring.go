// Package observability aggregates realtime-path counters for logs and the
// debug inspector. It observes the broker; it never participates in routing.
package observability

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// BrokerStats is the periodic snapshot exposed to logs and the inspector.
type BrokerStats struct {
	Connections        int64   `json:"connections"`
	Delivered          uint64  `json:"delivered"`
	Dropped            uint64  `json:"dropped"`
	HandshakeRejected  uint64  `json:"handshake_rejected"`
	MessagesSaved      uint64  `json:"messages_saved"`
	PersistFallbacks   uint64  `json:"persist_fallbacks"`
	UnknownDestination uint64  `json:"unknown_destination"`
	DeliveredPerSec    float64 `json:"delivered_per_sec"`
	AllocMemMb         uint64  `json:"alloc_mem_mb"`
	NumGC              uint32  `json:"num_gc"`
}

// Monitor collects broker telemetry through atomic counters so the hot
// delivery path never takes a lock.
type Monitor struct {
	mu          sync.RWMutex
	latestStats BrokerStats
	lastCheck   time.Time

	connections        int64
	delivered          uint64
	windowDelivered    uint64
	dropped            uint64
	handshakeRejected  uint64
	messagesSaved      uint64
	persistFallbacks   uint64
	unknownDestination uint64
}

func NewMonitor() *Monitor {
	return &Monitor{lastCheck: time.Now()}
}

func (m *Monitor) ConnOpened() { atomic.AddInt64(&m.connections, 1) }
func (m *Monitor) ConnClosed() { atomic.AddInt64(&m.connections, -1) }

func (m *Monitor) IncrDelivered() {
	atomic.AddUint64(&m.delivered, 1)
	atomic.AddUint64(&m.windowDelivered, 1)
}

func (m *Monitor) IncrDropped()            { atomic.AddUint64(&m.dropped, 1) }
func (m *Monitor) IncrHandshakeRejected()  { atomic.AddUint64(&m.handshakeRejected, 1) }
func (m *Monitor) IncrMessagesSaved()      { atomic.AddUint64(&m.messagesSaved, 1) }
func (m *Monitor) IncrPersistFallback()    { atomic.AddUint64(&m.persistFallbacks, 1) }
func (m *Monitor) IncrUnknownDestination() { atomic.AddUint64(&m.unknownDestination, 1) }

// Refresh recomputes the windowed rates and the Go runtime figures.
// Called from the stats worker tick, never from the delivery path.
func (m *Monitor) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	duration := now.Sub(m.lastCheck).Seconds()
	if duration > 0 {
		window := atomic.SwapUint64(&m.windowDelivered, 0)
		m.latestStats.DeliveredPerSec = float64(window) / duration
	}
	m.lastCheck = now

	m.latestStats.Connections = atomic.LoadInt64(&m.connections)
	m.latestStats.Delivered = atomic.LoadUint64(&m.delivered)
	m.latestStats.Dropped = atomic.LoadUint64(&m.dropped)
	m.latestStats.HandshakeRejected = atomic.LoadUint64(&m.handshakeRejected)
	m.latestStats.MessagesSaved = atomic.LoadUint64(&m.messagesSaved)
	m.latestStats.PersistFallbacks = atomic.LoadUint64(&m.persistFallbacks)
	m.latestStats.UnknownDestination = atomic.LoadUint64(&m.unknownDestination)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.latestStats.AllocMemMb = mem.Alloc / 1024 / 1024
	m.latestStats.NumGC = mem.NumGC
}

func (m *Monitor) GetLatest() BrokerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestStats
}

// StatsMap adapts the snapshot for the debug inspector's stats provider.
func (m *Monitor) StatsMap() map[string]any {
	s := m.GetLatest()
	return map[string]any{
		"connections":         s.Connections,
		"delivered":           s.Delivered,
		"dropped":             s.Dropped,
		"handshake_rejected":  s.HandshakeRejected,
		"messages_saved":      s.MessagesSaved,
		"persist_fallbacks":   s.PersistFallbacks,
		"unknown_destination": s.UnknownDestination,
		"delivered_per_sec":   s.DeliveredPerSec,
		"alloc_mem_mb":        s.AllocMemMb,
	}
}
