package event

import (
	"futures_go/internal/domain"
)

// Type identifies the kind of an Event.
type Type int

const (
	TypeOrderUpdate Type = iota + 1
	TypeSnapshot
	TypeFlagRequest
	TypeOrderSubmitted
)

func (t Type) String() string {
	switch t {
	case TypeOrderUpdate:
		return "ORDER_UPDATE"
	case TypeSnapshot:
		return "SNAPSHOT"
	case TypeFlagRequest:
		return "FLAG_REQUEST"
	case TypeOrderSubmitted:
		return "ORDER_SUBMITTED"
	default:
		return "UNKNOWN"
	}
}

// Event is anything the sequencer consumes.
type Event interface {
	GetSeq() uint64
	SetSeq(seq uint64)
	GetType() Type
}

// BaseEvent carries the ingest sequence (stamped by the sequencer) and the
// producer timestamp in unix microseconds.
type BaseEvent struct {
	Seq uint64
	Ts  int64
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }

func (e *BaseEvent) SetSeq(seq uint64) { e.Seq = seq }

// OrderUpdateEvent is an order lifecycle update from the session layer.
type OrderUpdateEvent struct {
	BaseEvent
	Order domain.OrderEvent
}

func (e *OrderUpdateEvent) GetType() Type { return TypeOrderUpdate }

// SnapshotEvent carries the pre-market position snapshot.
type SnapshotEvent struct {
	BaseEvent
	TradingDay string
	Positions  []domain.SnapshotPosition
}

func (e *SnapshotEvent) GetType() Type { return TypeSnapshot }

// FlagResult is the answer to a FlagRequestEvent.
type FlagResult struct {
	Flag domain.OcFlag
	Err  error
}

// FlagRequestEvent asks for the flag an order should carry. The sequencer
// answers on Reply, which must be buffered. When OrderID is set, a decision
// that passes the risk gate is booked under it in the same step, so the
// next request already sees its frozen volume.
type FlagRequestEvent struct {
	BaseEvent
	Request domain.OrderRequest
	OrderID string
	Reply   chan FlagResult
}

func (e *FlagRequestEvent) GetType() Type { return TypeFlagRequest }

// NewFlagRequestEvent creates a request with a one-slot reply channel.
func NewFlagRequestEvent(req domain.OrderRequest) *FlagRequestEvent {
	return &FlagRequestEvent{Request: req, Reply: make(chan FlagResult, 1)}
}

// OrderSubmittedEvent books an order accepted by the session layer under
// the id its status reports will carry. Flag must be concrete.
type OrderSubmittedEvent struct {
	BaseEvent
	OrderID string
	Request domain.OrderRequest
	Flag    domain.OcFlag
}

func (e *OrderSubmittedEvent) GetType() Type { return TypeOrderSubmitted }
