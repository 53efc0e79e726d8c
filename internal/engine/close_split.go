package engine

import (
	"log/slog"

	"futures_go/internal/domain"
)

// Close priority of the generic close flag, by venue:
//
//	new close order: SHFE yesterday first, others today first
//	match:           SHFE/INE yesterday first, others today first
//	withdraw:        SHFE/INE today first, others yesterday first
//
// Every venue closes first-opened-first, but the non-SHFE venues close
// today's position first when a close-today fee waiver applies.

// splitClose applies a generic close update, allocating each delta across
// the yesterday and today pools.
func splitClose(p *domain.PositionRecord, market domain.Market, d Deltas) {
	if d.Order > 0 {
		if market == domain.MarketSHFE {
			yd, td := allocate(d.Order, p.YdVolume)
			move(&p.YdVolume, &p.YdClosing, yd)
			move(&p.TdVolume, &p.TdClosing, td)
			warnNegative(p, "td_volume", p.TdVolume)
		} else {
			td, yd := allocate(d.Order, p.TdVolume)
			move(&p.TdVolume, &p.TdClosing, td)
			move(&p.YdVolume, &p.YdClosing, yd)
			warnNegative(p, "yd_volume", p.YdVolume)
		}
	}

	if d.Match > 0 {
		if market.SplitsTodayYesterday() {
			yd, td := allocate(d.Match, p.YdClosing)
			move(&p.YdClosing, &p.YdClosed, yd)
			move(&p.TdClosing, &p.TdClosed, td)
			warnNegative(p, "td_closing", p.TdClosing)
		} else {
			td, yd := allocate(d.Match, p.TdClosing)
			move(&p.TdClosing, &p.TdClosed, td)
			move(&p.YdClosing, &p.YdClosed, yd)
			warnNegative(p, "yd_closing", p.YdClosing)
		}
	}

	if d.Withdraw > 0 {
		if market.SplitsTodayYesterday() {
			td, yd := allocate(d.Withdraw, p.TdClosing)
			move(&p.TdClosing, &p.TdVolume, td)
			move(&p.YdClosing, &p.YdVolume, yd)
			warnNegative(p, "yd_closing", p.YdClosing)
		} else {
			yd, td := allocate(d.Withdraw, p.YdClosing)
			move(&p.YdClosing, &p.YdVolume, yd)
			move(&p.TdClosing, &p.TdVolume, td)
			warnNegative(p, "td_closing", p.TdClosing)
		}
	}
}

// allocate gives the first pool as much of delta as it holds and the rest
// to the second pool, whether or not the second pool holds it.
func allocate(delta, firstAvailable int64) (first, second int64) {
	first = delta
	if firstAvailable < first {
		first = firstAvailable
	}
	if first < 0 {
		first = 0
	}
	return first, delta - first
}

// move transfers n from one counter to another.
func move(from, to *int64, n int64) {
	if n <= 0 {
		return
	}
	*from -= n
	*to += n
}

func warnNegative(p *domain.PositionRecord, field string, v int64) {
	if v >= 0 {
		return
	}
	slog.Warn("CONSISTENCY_WARNING: close allocation exceeds available volume",
		slog.String("position", p.Key.String()),
		slog.String("field", field),
		slog.Int64("value", v))
}
