package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"futures_go/internal/domain"
	"futures_go/internal/event"
	"futures_go/internal/infra"
)

// Store is the persistence the sequencer uses around the ledger: the
// pre-market snapshot of the day and the rejection journal.
type Store interface {
	domain.SnapshotStore
	domain.RejectionJournal
}

// Sequencer is the single consumer that serializes every access to the
// Reconciler. The gateway stream and order submitters send events to its
// inbox; deltas are applied in exactly the order they are received.
type Sequencer struct {
	inbox   chan event.Event
	recon   *Reconciler
	nextSeq uint64
	store   Store
	metrics *infra.Metrics

	dumpFile string

	// tradingDay is the day of the snapshot the ledger was seeded with
	tradingDay string

	done     chan struct{} // closed when Run returns
	doneOnce sync.Once

	mu sync.RWMutex // held while processing; external reads take RLock
}

// NewSequencer creates a new sequencer instance. store and metrics may be nil.
func NewSequencer(inboxSize int, recon *Reconciler, store Store, metrics *infra.Metrics) *Sequencer {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		recon:    recon,
		nextSeq:  1,
		store:    store,
		metrics:  metrics,
		dumpFile: "panic_dump.json",
		done:     make(chan struct{}),
	}
}

// SetDumpFile sets the file Run writes the ledger to when it panics.
func (s *Sequencer) SetDumpFile(name string) {
	if name != "" {
		s.dumpFile = name
	}
}

// Inbox returns the event channel. External workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Done is closed when Run returns.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (single consumer)")
	defer s.doneOnce.Do(func() { close(s.done) })

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(s.dumpFile)
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.Apply(ev)
			if ou, ok := ev.(*event.OrderUpdateEvent); ok {
				event.ReleaseOrderUpdateEvent(ou)
			}
		}
	}
}

// Apply processes one event synchronously. Run calls it for every inbox
// event; replays and tests may call it directly from the owning goroutine.
func (s *Sequencer) Apply(ev event.Event) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev.SetSeq(s.nextSeq)
	s.nextSeq++

	switch e := ev.(type) {
	case *event.OrderUpdateEvent:
		s.handleOrderUpdate(e, start)
	case *event.SnapshotEvent:
		s.handleSnapshot(e)
	case *event.FlagRequestEvent:
		s.handleFlagRequest(e, start)
	case *event.OrderSubmittedEvent:
		s.book(e.OrderID, e.Request, e.Flag, start)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	s.metrics.SetConsistencyWarnings(s.recon.Stats().ConsistencyWarnings)
}

func (s *Sequencer) handleOrderUpdate(e *event.OrderUpdateEvent, start time.Time) {
	switch s.recon.Update(e.Order) {
	case OutcomeApplied:
		s.metrics.RecordEvent(time.Since(start).Nanoseconds())
	case OutcomeDuplicate:
		s.metrics.RecordDuplicate()
	case OutcomeDiscarded:
		s.metrics.RecordDiscarded()
	case OutcomeBuffered:
		s.metrics.RecordBuffered()
	}
}

// handleSnapshot initializes the ledger. When a snapshot of the same trading
// day was stored earlier, that one is used: after a restart the session
// layer reports current positions, but the ledger must start from the
// positions held at the open.
func (s *Sequencer) handleSnapshot(e *event.SnapshotEvent) {
	positions := e.Positions
	if s.store != nil && e.TradingDay != "" {
		stored, found, err := s.store.LoadSnapshot(e.TradingDay)
		switch {
		case err != nil:
			slog.Error("Failed to load stored snapshot", slog.String("trading_day", e.TradingDay), slog.Any("error", err))
		case found:
			slog.Info("Using stored pre-market snapshot", slog.String("trading_day", e.TradingDay), slog.Int("positions", len(stored)))
			positions = stored
		default:
			if err := s.store.SaveSnapshot(e.TradingDay, positions); err != nil {
				slog.Error("Failed to save snapshot", slog.String("trading_day", e.TradingDay), slog.Any("error", err))
			}
		}
	}

	if _, err := s.recon.Init(positions); err != nil {
		slog.Error("Ledger init rejected", slog.Any("error", err))
		return
	}
	s.tradingDay = e.TradingDay
}

func (s *Sequencer) handleFlagRequest(e *event.FlagRequestEvent, start time.Time) {
	flag, err := s.recon.Resolve(e.Request)

	var rr *domain.RiskRejection
	if errors.As(err, &rr) {
		s.metrics.RecordRejection()
		if s.store != nil {
			if jerr := s.store.RecordRejection(s.journalDay(), e.Request, rr); jerr != nil {
				slog.Error("Failed to journal risk rejection", slog.Any("error", jerr))
			}
		}
	}

	if err == nil && e.OrderID != "" {
		s.book(e.OrderID, e.Request, flag, start)
	}

	e.Reply <- event.FlagResult{Flag: flag, Err: err}
}

func (s *Sequencer) book(orderID string, req domain.OrderRequest, flag domain.OcFlag, start time.Time) {
	switch s.recon.Book(orderID, req, flag) {
	case OutcomeApplied:
		s.metrics.RecordEvent(time.Since(start).Nanoseconds())
	case OutcomeDuplicate:
		s.metrics.RecordDuplicate()
	case OutcomeDiscarded:
		s.metrics.RecordDiscarded()
	case OutcomeBuffered:
		s.metrics.RecordBuffered()
	}
}

// journalDay is the trading day rejections are filed under. Night sessions
// belong to the next trading day, so the snapshot's day is preferred over
// the calendar.
func (s *Sequencer) journalDay() string {
	if s.tradingDay != "" {
		return s.tradingDay
	}
	return time.Now().Format("20060102")
}

// ResolveFlag asks the sequencer for the flag req should carry and waits
// for the answer. A *domain.RiskRejection means the order must not be sent.
// The decision is not booked; see ResolveAndBook.
func (s *Sequencer) ResolveFlag(ctx context.Context, req domain.OrderRequest) (domain.OcFlag, error) {
	return s.request(ctx, event.NewFlagRequestEvent(req))
}

// ResolveAndBook resolves the flag of req and, when it passes the risk
// gate, books the order under orderID in the same step. orderID must be
// the id the gateway will report the order under (see gateway.OrderNo).
// If the venue then refuses the insert, its insert error withdraws the
// booked volume.
func (s *Sequencer) ResolveAndBook(ctx context.Context, orderID string, req domain.OrderRequest) (domain.OcFlag, error) {
	ev := event.NewFlagRequestEvent(req)
	ev.OrderID = orderID
	return s.request(ctx, ev)
}

// Submitted books an order sent with an already resolved flag.
func (s *Sequencer) Submitted(ctx context.Context, orderID string, req domain.OrderRequest, flag domain.OcFlag) error {
	ev := &event.OrderSubmittedEvent{OrderID: orderID, Request: req, Flag: flag}
	select {
	case s.inbox <- ev:
		return nil
	case <-s.done:
		return domain.ErrSequencerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) request(ctx context.Context, ev *event.FlagRequestEvent) (domain.OcFlag, error) {
	select {
	case s.inbox <- ev:
	case <-s.done:
		return 0, domain.ErrSequencerStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case res := <-ev.Reply:
		return res.Flag, res.Err
	case <-s.done:
		// answered just before the loop exited
		select {
		case res := <-ev.Reply:
			return res.Flag, res.Err
		default:
			return 0, domain.ErrSequencerStopped
		}
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Position returns a copy of one ledger record (external read).
func (s *Sequencer) Position(key domain.PositionKey) (domain.PositionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recon.Position(key)
}

// Snapshot returns a copy of the whole ledger (external read).
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recon.Snapshot()
}

// TradingDay returns the day of the snapshot the ledger was seeded with,
// or "" before that.
func (s *Sequencer) TradingDay() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tradingDay
}

// Ready reports whether the ledger has been initialized.
func (s *Sequencer) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recon.State() == StateReady
}

// DumpState writes the entire internal state to a file (for post-mortem).
// It does not lock: it runs from the panic handler of the loop goroutine.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64   `json:"next_seq"`
		Ledger  Snapshot `json:"ledger"`
	}{
		NextSeq: s.nextSeq,
		Ledger:  s.recon.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
