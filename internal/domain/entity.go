package domain

import (
	"time"
)

// SnapshotDay marks that the pre-market snapshot of a trading day has been
// stored, including a flat one with no rows.
type SnapshotDay struct {
	TradingDay string    `gorm:"primaryKey" json:"trading_day"`
	Positions  int       `json:"positions"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotRow is one instrument of the pre-market position snapshot of a
// trading day. The first snapshot received for a day wins so a restart
// within the day seeds the ledger with pre-market, not current, positions.
type SnapshotRow struct {
	TradingDay    string    `gorm:"primaryKey" json:"trading_day"`
	Code          string    `gorm:"primaryKey" json:"code"`
	Market        string    `json:"market"`
	LongYdVolume  int64     `json:"long_yd_volume"`
	ShortYdVolume int64     `json:"short_yd_volume"`
	CreatedAt     time.Time `json:"created_at"`
}

// RejectionRow is an audit entry for an order refused by the risk gate.
type RejectionRow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TradingDay string    `gorm:"index" json:"trading_day"`
	Code       string    `gorm:"index" json:"code"`
	Class      string    `json:"class"`
	Side       string    `json:"side"`
	OcFlag     string    `json:"oc_flag"`
	Attempted  int64     `json:"attempted"`
	Current    int64     `json:"current"`
	Cap        int64     `json:"cap"`
	CreatedAt  time.Time `json:"created_at"`
}
