package engine

import (
	"log/slog"
)

// orderVolumes is the last cumulative state seen for one order.
type orderVolumes struct {
	order    int64
	match    int64
	withdraw int64
}

// Deltas is the incremental change of one order update.
type Deltas struct {
	Order    int64
	Match    int64
	Withdraw int64
}

// IsZero reports whether the update carried nothing new.
func (d Deltas) IsZero() bool {
	return d.Order == 0 && d.Match == 0 && d.Withdraw == 0
}

// OrderDeltaTracker turns cumulative order volumes into increments so that
// a repeated delivery of the same update changes nothing.
type OrderDeltaTracker struct {
	orders map[string]*orderVolumes

	// negatives counts clamped deltas
	negatives uint64
}

// NewOrderDeltaTracker creates an empty tracker.
func NewOrderDeltaTracker() *OrderDeltaTracker {
	return &OrderDeltaTracker{orders: make(map[string]*orderVolumes)}
}

// Delta returns the increments of orderID since the last call and advances
// the stored state. A negative increment (replay after reconnect, or an
// update delivered out of order) is clamped to zero and logged; the stored
// value is never moved backwards. ok is false when nothing changed.
func (t *OrderDeltaTracker) Delta(orderID string, cumOrder, cumMatch, cumWithdraw int64) (d Deltas, ok bool) {
	last, found := t.orders[orderID]
	if !found {
		last = &orderVolumes{}
		t.orders[orderID] = last
	}

	d = Deltas{
		Order:    t.clamp(orderID, "order_volume", cumOrder-last.order),
		Match:    t.clamp(orderID, "match_volume", cumMatch-last.match),
		Withdraw: t.clamp(orderID, "withdraw_volume", cumWithdraw-last.withdraw),
	}
	if d.IsZero() {
		slog.Debug("order update carries no new volume",
			slog.String("order_id", orderID),
			slog.Int64("order_volume", last.order),
			slog.Int64("match_volume", last.match),
			slog.Int64("withdraw_volume", last.withdraw))
		return d, false
	}

	last.order += d.Order
	last.match += d.Match
	last.withdraw += d.Withdraw
	return d, true
}

func (t *OrderDeltaTracker) clamp(orderID, field string, v int64) int64 {
	if v >= 0 {
		return v
	}
	t.negatives++
	slog.Warn("CONSISTENCY_WARNING: negative order delta clamped",
		slog.String("order_id", orderID),
		slog.String("field", field),
		slog.Int64("delta", v))
	return 0
}

// Len returns the number of orders seen.
func (t *OrderDeltaTracker) Len() int {
	return len(t.orders)
}

// Negatives returns how many deltas have been clamped so far.
func (t *OrderDeltaTracker) Negatives() uint64 {
	return t.negatives
}
