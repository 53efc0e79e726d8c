package gateway

import (
	"futures_go/internal/domain"
)

// ToOrderEvent converts an order status report into a cumulative order
// event. The venue does not report a withdrawn volume, so it is derived
// from the status: a cancelled order withdrew what was not traded, a failed
// order withdrew what was still working.
func (o *orderStatus) ToOrderEvent() domain.OrderEvent {
	code, market := o.code()
	ev := domain.OrderEvent{
		OrderID:     o.orderNo(),
		Code:        code,
		Market:      market,
		Side:        o.Side,
		Hedge:       o.Hedge,
		OcFlag:      o.OcFlag,
		Price:       o.Price,
		OrderVolume: o.VolumeOriginal,
		MatchVolume: o.VolumeTraded,
	}

	switch o.Status {
	case StatusPartlyCanceled, StatusCanceled:
		withdraw := o.VolumeOriginal - o.VolumeTraded
		if withdraw <= 0 {
			withdraw = o.VolumeTotal
		}
		ev.WithdrawVolume = withdraw
	case StatusFailed:
		ev.WithdrawVolume = o.VolumeTotal
	}
	return ev
}

// InsertErrorEvent converts a refused insert: nothing traded and the whole
// volume is withdrawn, which releases whatever the submit path froze.
func (o *orderStatus) InsertErrorEvent() domain.OrderEvent {
	ev := o.ToOrderEvent()
	ev.MatchVolume = 0
	ev.WithdrawVolume = o.VolumeOriginal
	return ev
}
