package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"futures_go/internal/event"
	"futures_go/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 90 * time.Second
)

// Worker reads order lifecycle reports from the session bridge and feeds
// them into the sequencer inbox. Unlike market data, order reports are
// never dropped: a missed report leaves the ledger wrong for the day.
type Worker struct {
	url       string
	accountID string
	token     string
	inbox     chan<- event.Event
	metrics   *infra.Metrics

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a new session bridge worker
func NewWorker(url, accountID, token string, inbox chan<- event.Event, metrics *infra.Metrics) *Worker {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Worker{
		url:       url,
		accountID: accountID,
		token:     token,
		inbox:     inbox,
		metrics:   metrics,
	}
}

// Connect starts the WebSocket connection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether the bridge connection is up.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			w.metrics.RecordError()
			slog.Warn("Gateway connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			connCtx, stopPing := context.WithCancel(ctx)
			w.wg.Add(1)
			go w.pingLoop(connCtx)
			w.readLoop(ctx)
			stopPing()
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	conn, _, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	w.metrics.IncrementConnections()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Gateway Connected", slog.String("account", w.accountID))
	return nil
}

// subscribe asks the bridge for the account's order stream. The bridge
// replays every report of the day first, so a reconnect may deliver
// updates already applied; the ledger ignores them.
func (w *Worker) subscribe() error {
	msg := map[string]interface{}{
		"op":      "subscribe",
		"account": w.accountID,
		"topics":  []string{msgOrder, msgInsertError, msgPositions},
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) pingLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("Gateway read failed", slog.Any("error", err))
			w.closeConnection()
			return
		}
		if err := w.handleMessage(ctx, msg); err != nil {
			w.metrics.RecordError()
			slog.Warn("Gateway message dropped", slog.Any("error", err))
		}
	}
}

// handleMessage decodes one bridge message and forwards it to the inbox.
func (w *Worker) handleMessage(ctx context.Context, raw []byte) error {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var ev event.Event
	switch msg.Type {
	case msgOrder, msgInsertError:
		if msg.Order == nil {
			return fmt.Errorf("%s message without order", msg.Type)
		}
		ou := event.AcquireOrderUpdateEvent()
		ou.Ts = msg.Ts
		if msg.Type == msgInsertError {
			ou.Order = msg.Order.InsertErrorEvent()
		} else {
			ou.Order = msg.Order.ToOrderEvent()
		}
		ev = ou
	case msgPositions:
		ev = &event.SnapshotEvent{
			BaseEvent:  event.BaseEvent{Ts: msg.Ts},
			TradingDay: msg.TradingDay,
			Positions:  msg.Positions,
		}
	default:
		return nil
	}

	select {
	case w.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
		w.metrics.DecrementConnections()
	}
	w.connected = false
}

// Disconnect stops the worker and waits for its goroutines.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
