package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the buy/sell direction of an order or a position pool.
type Side int

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// String returns the string representation of Side
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return fmt.Sprintf("SIDE(%d)", int(s))
	}
}

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side whose position a close on s consumes.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// UnmarshalText accepts "BUY"/"SELL" in any case.
func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "BUY", "B", "1":
		*s = SideBuy
	case "SELL", "S", "2":
		*s = SideSell
	default:
		return &ValidationError{Field: "side", Reason: "unknown side " + string(b)}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HedgeMode is the account classification that is part of a position key.
type HedgeMode int

const (
	HedgeSpeculate HedgeMode = 1
	HedgeArbitrage HedgeMode = 2
	HedgeHedge     HedgeMode = 3
)

// Normalize maps the zero value to speculate, which is what the venue
// assumes when an order carries no hedge flag.
func (h HedgeMode) Normalize() HedgeMode {
	if h == 0 {
		return HedgeSpeculate
	}
	return h
}

func (h HedgeMode) String() string {
	switch h.Normalize() {
	case HedgeSpeculate:
		return "SPECULATE"
	case HedgeArbitrage:
		return "ARBITRAGE"
	case HedgeHedge:
		return "HEDGE"
	default:
		return fmt.Sprintf("HEDGE(%d)", int(h))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HedgeMode) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "", "SPECULATE":
		*h = HedgeSpeculate
	case "ARBITRAGE":
		*h = HedgeArbitrage
	case "HEDGE":
		*h = HedgeHedge
	default:
		return &ValidationError{Field: "hedge", Reason: "unknown hedge mode " + string(b)}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (h HedgeMode) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// OcFlag is the open/close intent of an order.
type OcFlag int

const (
	OcOpen OcFlag = iota + 1
	OcClose
	OcCloseToday
	OcCloseYesterday
	OcForceClose
	OcForceReduce
	OcLocalForceClose

	// OcAuto asks the engine to pick open or close from the opposite position.
	OcAuto OcFlag = 100
	// OcCloseYesterdayOrOpen closes yesterday's position only, opening otherwise.
	OcCloseYesterdayOrOpen OcFlag = 101
)

var ocFlagNames = map[OcFlag]string{
	OcOpen:                 "OPEN",
	OcClose:                "CLOSE",
	OcCloseToday:           "CLOSE_TODAY",
	OcCloseYesterday:       "CLOSE_YESTERDAY",
	OcForceClose:           "FORCE_CLOSE",
	OcForceReduce:          "FORCE_REDUCE",
	OcLocalForceClose:      "LOCAL_FORCE_CLOSE",
	OcAuto:                 "AUTO",
	OcCloseYesterdayOrOpen: "CLOSE_YESTERDAY_OR_OPEN",
}

func (f OcFlag) String() string {
	if name, ok := ocFlagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("OC_FLAG(%d)", int(f))
}

// IsClose reports whether f is one of the concrete close flags a ledger
// update can be keyed on.
func (f OcFlag) IsClose() bool {
	return f == OcClose || f == OcCloseToday || f == OcCloseYesterday
}

// ParseOcFlag parses a flag name as produced by String.
func ParseOcFlag(s string) (OcFlag, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for f, name := range ocFlagNames {
		if name == up {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *OcFlag) UnmarshalText(b []byte) error {
	v, err := ParseOcFlag(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f OcFlag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// OrderEvent is one lifecycle update of an order. Volumes are cumulative
// since the order was submitted; the same event may be delivered more than once.
type OrderEvent struct {
	OrderID        string          `json:"order_id"`
	Code           string          `json:"code"`
	Market         Market          `json:"market"`
	Side           Side            `json:"side"`
	Hedge          HedgeMode       `json:"hedge,omitempty"`
	OcFlag         OcFlag          `json:"oc_flag"`
	Price          decimal.Decimal `json:"price"`
	OrderVolume    int64           `json:"volume"`
	MatchVolume    int64           `json:"match_volume"`
	WithdrawVolume int64           `json:"withdraw_volume"`
}

// Validate checks the fields the ledger depends on.
func (e *OrderEvent) Validate() error {
	switch {
	case e.OrderID == "":
		return &ValidationError{Field: "order_id", Reason: "empty"}
	case e.Code == "":
		return &ValidationError{Field: "code", Reason: "empty"}
	case !e.Side.Valid():
		return &ValidationError{Field: "side", Reason: "illegal side " + e.Side.String()}
	case e.OrderVolume < 0 || e.MatchVolume < 0 || e.WithdrawVolume < 0:
		return &ValidationError{Field: "volume", Reason: "negative cumulative volume"}
	}
	return nil
}

// OrderRequest is an order about to be placed whose flag must be resolved.
type OrderRequest struct {
	Code   string          `json:"code"`
	Market Market          `json:"market"`
	Side   Side            `json:"side"`
	Hedge  HedgeMode       `json:"hedge,omitempty"`
	OcFlag OcFlag          `json:"oc_flag"`
	Price  decimal.Decimal `json:"price"`
	Volume int64           `json:"volume"`
}

// SnapshotPosition is one instrument's pre-market yesterday position.
type SnapshotPosition struct {
	Code          string `json:"code"`
	Market        Market `json:"market"`
	LongYdVolume  int64  `json:"long_yd_volume"`
	ShortYdVolume int64  `json:"short_yd_volume"`
}
