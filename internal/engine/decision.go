package engine

import (
	"log/slog"

	"futures_go/internal/domain"
)

// Resolve returns the flag req should be sent with. Auto and
// close-yesterday-or-open requests are decided from the ledger; any other
// flag is returned as requested once it passes the risk check.
func (r *Reconciler) Resolve(req domain.OrderRequest) (domain.OcFlag, error) {
	if req.OcFlag == domain.OcCloseYesterdayOrOpen {
		return r.ResolveCloseYesterdayFlag(req)
	}
	return r.ResolveAutoFlag(req)
}

// ResolveAutoFlag decides open or close for an auto-flagged request:
//   - buy auto closes the short position when it can, otherwise opens long;
//   - sell auto closes the long position when it can, otherwise opens short.
//
// SHFE and INE need the order to name the pool, so yesterday is tried before
// today. Elsewhere the venue picks the pool and a generic close is returned.
// The ledger is not changed; the decision is booked by Book or when the
// order's own update arrives.
func (r *Reconciler) ResolveAutoFlag(req domain.OrderRequest) (domain.OcFlag, error) {
	if r.state != StateReady {
		return 0, domain.ErrNotReady
	}
	if req.OcFlag != domain.OcAuto {
		return req.OcFlag, r.checkRisk(req.Code, req.OcFlag, req.Market, req.Volume)
	}

	flag := domain.OcOpen
	if !req.Side.Valid() {
		return flag, r.checkRisk(req.Code, flag, req.Market, req.Volume)
	}

	pos, ok := r.Position(domain.PositionKey{Code: req.Code, Hedge: req.Hedge, Side: req.Side.Opposite()})
	if !ok {
		return flag, r.checkRisk(req.Code, flag, req.Market, req.Volume)
	}

	if req.Market.SplitsTodayYesterday() {
		switch {
		case pos.YdVolume >= req.Volume:
			flag = domain.OcCloseYesterday
		case pos.TdVolume >= req.Volume:
			flag = domain.OcCloseToday
		}
	} else {
		if pos.YdVolume >= req.Volume || pos.TdVolume >= req.Volume {
			flag = domain.OcClose
		}
		// With any today position the venue closes today first, which the
		// operator may have forbidden for index futures.
		if r.policy.ForbidClosingTodayForIndexFutures && flag == domain.OcClose &&
			r.risk.IsIndexFuture(req.Code) && pos.TdVolume > 0 {
			flag = domain.OcOpen
		}
	}

	slog.Info("auto oc flag resolved",
		slog.String("code", req.Code),
		slog.String("side", req.Side.String()),
		slog.Int64("volume", req.Volume),
		slog.String("flag", flag.String()),
		slog.String("opposite", pos.String()))

	return flag, r.checkRisk(req.Code, flag, req.Market, req.Volume)
}

// ResolveCloseYesterdayFlag closes yesterday's opposite position only, and
// opens when it is not large enough.
func (r *Reconciler) ResolveCloseYesterdayFlag(req domain.OrderRequest) (domain.OcFlag, error) {
	if r.state != StateReady {
		return 0, domain.ErrNotReady
	}

	flag := domain.OcOpen
	pos, ok := r.Position(domain.PositionKey{Code: req.Code, Hedge: req.Hedge, Side: req.Side.Opposite()})
	if !ok {
		slog.Info("no yesterday position, open", slog.String("code", req.Code))
		return flag, r.checkRisk(req.Code, flag, req.Market, req.Volume)
	}

	if pos.YdVolume >= req.Volume {
		if req.Market == domain.MarketSHFE {
			flag = domain.OcCloseYesterday
		} else {
			flag = domain.OcClose
		}
	}

	slog.Info("close yesterday flag resolved",
		slog.String("code", req.Code),
		slog.String("market", string(req.Market)),
		slog.Int64("yd_volume", pos.YdVolume),
		slog.Int64("volume", req.Volume),
		slog.String("flag", flag.String()))

	return flag, r.checkRisk(req.Code, flag, req.Market, req.Volume)
}

// checkRisk runs the gate on the flag the ledger would book the order under.
func (r *Reconciler) checkRisk(code string, flag domain.OcFlag, market domain.Market, volume int64) error {
	if eff, err := EffectiveFlag(flag, market); err == nil {
		flag = eff
	}
	if err := r.risk.Check(code, flag, volume); err != nil {
		slog.Warn("order rejected by risk gate", slog.String("code", code), slog.Any("error", err))
		return err
	}
	return nil
}

// Book records an order just sent with flag as its first update: the whole
// volume is frozen until the venue reports on it. Later reports under the
// same orderID only add what changed since.
func (r *Reconciler) Book(orderID string, req domain.OrderRequest, flag domain.OcFlag) Outcome {
	return r.Update(domain.OrderEvent{
		OrderID:     orderID,
		Code:        req.Code,
		Market:      req.Market,
		Side:        req.Side,
		Hedge:       req.Hedge,
		OcFlag:      flag,
		Price:       req.Price,
		OrderVolume: req.Volume,
	})
}
