package domain

import (
	"context"
)

// GatewayWorker defines the interface for the session-bridge connector that
// feeds order lifecycle events into the sequencer.
type GatewayWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// SnapshotStore keeps the pre-market snapshot of each trading day.
// LoadSnapshot reports found=true for a stored snapshot even when it is empty.
type SnapshotStore interface {
	SaveSnapshot(tradingDay string, positions []SnapshotPosition) error
	LoadSnapshot(tradingDay string) (positions []SnapshotPosition, found bool, err error)
}

// RejectionJournal records risk rejections for audit.
type RejectionJournal interface {
	RecordRejection(tradingDay string, req OrderRequest, rr *RiskRejection) error
}
