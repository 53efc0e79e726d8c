package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsApplied  atomic.Uint64
	duplicates     atomic.Uint64
	discarded      atomic.Uint64
	buffered       atomic.Uint64
	riskRejections atomic.Uint64
	errorsTotal    atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	consistencyWarnings atomic.Uint64
	activeConnections   atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records an applied order update with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsApplied.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordDuplicate records an update that carried no new volume.
func (m *Metrics) RecordDuplicate() {
	m.duplicates.Add(1)
}

// RecordDiscarded records an update rejected by validation.
func (m *Metrics) RecordDiscarded() {
	m.discarded.Add(1)
}

// RecordBuffered records an update held until the ledger is initialized.
func (m *Metrics) RecordBuffered() {
	m.buffered.Add(1)
}

// RecordRejection records an order refused by the risk gate.
func (m *Metrics) RecordRejection() {
	m.riskRejections.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetConsistencyWarnings sets the ledger's consistency warning count.
func (m *Metrics) SetConsistencyWarnings(n uint64) {
	m.consistencyWarnings.Store(n)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsApplied       uint64
	Duplicates          uint64
	Discarded           uint64
	Buffered            uint64
	RiskRejections      uint64
	ErrorsTotal         uint64
	ConsistencyWarnings uint64
	AvgLatencyNs        int64
	ActiveConnections   int32
	Timestamp           time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsApplied:       m.eventsApplied.Load(),
		Duplicates:          m.duplicates.Load(),
		Discarded:           m.discarded.Load(),
		Buffered:            m.buffered.Load(),
		RiskRejections:      m.riskRejections.Load(),
		ErrorsTotal:         m.errorsTotal.Load(),
		ConsistencyWarnings: m.consistencyWarnings.Load(),
		AvgLatencyNs:        avgLatency,
		ActiveConnections:   m.activeConnections.Load(),
		Timestamp:           time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsApplied.Store(0)
	m.duplicates.Store(0)
	m.discarded.Store(0)
	m.buffered.Store(0)
	m.riskRejections.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.consistencyWarnings.Store(0)
	m.activeConnections.Store(0)
}
