package event

import (
	"sync"

	"futures_go/internal/domain"
)

// orderUpdatePool provides sync.Pool for order updates, which arrive several
// times per order (accepted, each partial match, withdraw).
//
// Usage:
//
//	ev := AcquireOrderUpdateEvent()
//	ev.Order = order
//	inbox <- ev  // the sequencer releases it after processing
var orderUpdatePool = sync.Pool{
	New: func() interface{} {
		return &OrderUpdateEvent{}
	},
}

// AcquireOrderUpdateEvent gets an OrderUpdateEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireOrderUpdateEvent() *OrderUpdateEvent {
	return orderUpdatePool.Get().(*OrderUpdateEvent)
}

// ReleaseOrderUpdateEvent returns an OrderUpdateEvent to the pool.
// The engine copies the order when it buffers it, so releasing is safe as
// soon as Update returns.
func ReleaseOrderUpdateEvent(ev *OrderUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Order = domain.OrderEvent{}

	orderUpdatePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*OrderUpdateEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireOrderUpdateEvent())
	}
	for _, ev := range evs {
		ReleaseOrderUpdateEvent(ev)
	}
}
