package engine

import (
	"log/slog"
	"sort"

	"futures_go/internal/domain"
)

// State is the bootstrap state of the Reconciler.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Outcome tells the caller what Update did with an event.
type Outcome int

const (
	OutcomeBuffered Outcome = iota + 1
	OutcomeApplied
	OutcomeDuplicate
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBuffered:
		return "BUFFERED"
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeDuplicate:
		return "DUPLICATE"
	case OutcomeDiscarded:
		return "DISCARDED"
	default:
		return "UNKNOWN"
	}
}

// Stats counts what the reconciler has done since start.
type Stats struct {
	Applied             uint64 `json:"applied"`
	Duplicates          uint64 `json:"duplicates"`
	Discarded           uint64 `json:"discarded"`
	ConsistencyWarnings uint64 `json:"consistency_warnings"`
}

// Reconciler keeps the intraday position ledger of one account from the
// order lifecycle stream and answers open/close decisions.
//
// Workflow:
//  1. order updates that arrive before the pre-market snapshot are buffered;
//  2. Init seeds yesterday's positions and replays the buffer;
//  3. every further update adjusts the ledger immediately;
//  4. flag queries read the ledger without changing it.
//
// Reconciler is not safe for concurrent use. Exactly one goroutine may call
// it; see Sequencer.
type Reconciler struct {
	state   State
	pending []domain.OrderEvent

	positions map[domain.PositionKey]*domain.PositionRecord
	tracker   *OrderDeltaTracker
	risk      *RiskGate
	policy    domain.RiskPolicy

	stats Stats
}

// NewReconciler creates an uninitialized reconciler with the given policy.
func NewReconciler(policy domain.RiskPolicy) *Reconciler {
	return &Reconciler{
		state:     StateUninitialized,
		positions: make(map[domain.PositionKey]*domain.PositionRecord),
		tracker:   NewOrderDeltaTracker(),
		risk:      NewRiskGate(policy),
		policy:    policy,
	}
}

// State returns the bootstrap state.
func (r *Reconciler) State() State {
	return r.state
}

// Init seeds the ledger from the pre-market snapshot and replays the updates
// received so far in arrival order. The snapshot must hold yesterday's
// positions as of the open; today's pools start at zero.
// It returns the number of replayed updates.
func (r *Reconciler) Init(snapshot []domain.SnapshotPosition) (int, error) {
	if r.state != StateUninitialized {
		return 0, domain.ErrAlreadyInitialized
	}
	slog.Info("init position ledger ...", slog.Int("positions", len(snapshot)), slog.Int("pending", len(r.pending)))
	r.state = StateInitializing

	for _, p := range snapshot {
		r.position(domain.PositionKey{Code: p.Code, Hedge: domain.HedgeSpeculate, Side: domain.SideBuy}).YdVolume = p.LongYdVolume
		r.position(domain.PositionKey{Code: p.Code, Hedge: domain.HedgeSpeculate, Side: domain.SideSell}).YdVolume = p.ShortYdVolume
	}

	replayed := len(r.pending)
	for i := range r.pending {
		r.apply(&r.pending[i])
	}
	r.pending = nil
	r.state = StateReady

	slog.Info("init position ledger ok", slog.Int("positions", len(snapshot)), slog.Int("replayed", replayed))
	return replayed, nil
}

// Update applies one order lifecycle update. Before Init it is buffered.
// Update never fails: malformed updates are logged and discarded.
func (r *Reconciler) Update(ev domain.OrderEvent) Outcome {
	if r.state == StateUninitialized {
		r.pending = append(r.pending, ev)
		return OutcomeBuffered
	}
	return r.apply(&ev)
}

func (r *Reconciler) apply(ev *domain.OrderEvent) Outcome {
	if err := ev.Validate(); err != nil {
		return r.discard(ev, err)
	}
	flag, err := EffectiveFlag(ev.OcFlag, ev.Market)
	if err != nil {
		return r.discard(ev, err)
	}
	key, err := ledgerKey(ev.Code, ev.Hedge, ev.Side, flag)
	if err != nil {
		return r.discard(ev, err)
	}

	d, ok := r.tracker.Delta(ev.OrderID, ev.OrderVolume, ev.MatchVolume, ev.WithdrawVolume)
	if !ok {
		r.stats.Duplicates++
		return OutcomeDuplicate
	}

	pos := r.position(key)
	before := *pos

	switch flag {
	case domain.OcOpen:
		applyOpen(pos, d)
		r.risk.Record(ev.Code, d)
	case domain.OcCloseToday:
		applyCloseToday(pos, d)
	case domain.OcCloseYesterday:
		applyCloseYesterday(pos, d)
	case domain.OcClose:
		splitClose(pos, ev.Market, d)
	}

	if bad := pos.Inconsistencies(); len(bad) > 0 {
		r.stats.ConsistencyWarnings++
		slog.Warn("CONSISTENCY_WARNING: position counter negative after update",
			slog.String("order_id", ev.OrderID),
			slog.String("flag", flag.String()),
			slog.Any("negative", bad),
			slog.String("position", pos.String()))
	}

	slog.Info("position updated",
		slog.String("order_id", ev.OrderID),
		slog.String("code", ev.Code),
		slog.String("market", string(ev.Market)),
		slog.String("side", ev.Side.String()),
		slog.String("oc_flag", ev.OcFlag.String()),
		slog.String("effective_flag", flag.String()),
		slog.String("price", ev.Price.String()),
		slog.Int64("d_order", d.Order),
		slog.Int64("d_match", d.Match),
		slog.Int64("d_withdraw", d.Withdraw),
		slog.String("before", before.String()),
		slog.String("after", pos.String()))

	r.stats.Applied++
	return OutcomeApplied
}

func (r *Reconciler) discard(ev *domain.OrderEvent, err error) Outcome {
	r.stats.Discarded++
	slog.Warn("order update discarded",
		slog.String("order_id", ev.OrderID),
		slog.String("code", ev.Code),
		slog.String("side", ev.Side.String()),
		slog.String("oc_flag", ev.OcFlag.String()),
		slog.Any("error", err))
	return OutcomeDiscarded
}

// EffectiveFlag maps the flag an order was sent with to the flag the ledger
// books it under. SHFE and INE treat a plain close as a close of yesterday's
// position; the other venues decide themselves, which the ledger mirrors by
// splitting the generic close at update time.
func EffectiveFlag(flag domain.OcFlag, market domain.Market) (domain.OcFlag, error) {
	switch flag {
	case domain.OcOpen:
		return domain.OcOpen, nil
	case domain.OcClose, domain.OcForceClose, domain.OcForceReduce, domain.OcLocalForceClose:
		if market.SplitsTodayYesterday() {
			return domain.OcCloseYesterday, nil
		}
		return domain.OcClose, nil
	case domain.OcCloseToday:
		return domain.OcCloseToday, nil
	case domain.OcCloseYesterday:
		return domain.OcCloseYesterday, nil
	}
	return 0, &domain.ValidationError{Field: "oc_flag", Reason: "cannot book " + flag.String()}
}

// ledgerKey picks the record an update changes: opens grow the order's own
// side, closes consume the opposite side.
func ledgerKey(code string, hedge domain.HedgeMode, side domain.Side, flag domain.OcFlag) (domain.PositionKey, error) {
	key := domain.PositionKey{Code: code, Hedge: hedge.Normalize()}
	switch {
	case side == domain.SideBuy && flag == domain.OcOpen, side == domain.SideSell && flag.IsClose():
		key.Side = domain.SideBuy
	case side == domain.SideSell && flag == domain.OcOpen, side == domain.SideBuy && flag.IsClose():
		key.Side = domain.SideSell
	default:
		return key, &domain.ValidationError{Field: "side", Reason: "illegal side/flag " + side.String() + "/" + flag.String()}
	}
	return key, nil
}

func applyOpen(p *domain.PositionRecord, d Deltas) {
	p.TdOpening += d.Order
	p.TdOpening -= d.Match
	p.TdVolume += d.Match
	p.TdOpened += d.Match
	p.TdOpening -= d.Withdraw
}

func applyCloseToday(p *domain.PositionRecord, d Deltas) {
	p.TdVolume -= d.Order
	p.TdClosing += d.Order
	p.TdClosing -= d.Match
	p.TdClosed += d.Match
	p.TdClosing -= d.Withdraw
	p.TdVolume += d.Withdraw
}

func applyCloseYesterday(p *domain.PositionRecord, d Deltas) {
	p.YdVolume -= d.Order
	p.YdClosing += d.Order
	p.YdClosing -= d.Match
	p.YdClosed += d.Match
	p.YdClosing -= d.Withdraw
	p.YdVolume += d.Withdraw
}

// position returns the record for key, creating it on first reference.
func (r *Reconciler) position(key domain.PositionKey) *domain.PositionRecord {
	p, ok := r.positions[key]
	if !ok {
		p = domain.NewPositionRecord(key)
		r.positions[key] = p
	}
	return p
}

// Position returns a copy of the record for key.
func (r *Reconciler) Position(key domain.PositionKey) (domain.PositionRecord, bool) {
	key.Hedge = key.Hedge.Normalize()
	p, ok := r.positions[key]
	if !ok {
		return domain.PositionRecord{}, false
	}
	return *p, true
}

// Positions returns a copy of every record ordered by key.
func (r *Reconciler) Positions() []domain.PositionRecord {
	out := make([]domain.PositionRecord, 0, len(r.positions))
	for _, p := range r.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Hedge != b.Hedge {
			return a.Hedge < b.Hedge
		}
		return a.Side < b.Side
	})
	return out
}

// OpenVolume returns today's opened + freezing volume of an index class.
func (r *Reconciler) OpenVolume(class string) int64 {
	return r.risk.OpenVolume(class)
}

// Stats returns the counters, including clamped order deltas.
func (r *Reconciler) Stats() Stats {
	s := r.stats
	s.ConsistencyWarnings += r.tracker.Negatives()
	return s
}

// Snapshot is a point-in-time copy of the whole ledger.
type Snapshot struct {
	State      string                  `json:"state"`
	Positions  []domain.PositionRecord `json:"positions"`
	OpenVolume map[string]int64        `json:"open_volume"`
	Orders     int                     `json:"orders"`
	Pending    int                     `json:"pending"`
	Stats      Stats                   `json:"stats"`
}

// Snapshot copies the ledger for dumps and diagnostics.
func (r *Reconciler) Snapshot() Snapshot {
	return Snapshot{
		State:      r.state.String(),
		Positions:  r.Positions(),
		OpenVolume: r.risk.snapshot(),
		Orders:     r.tracker.Len(),
		Pending:    len(r.pending),
		Stats:      r.Stats(),
	}
}
