package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"futures_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Message types pushed by the session bridge.
const (
	msgOrder       = "order"        // order status report (accepted, traded, cancelled, failed)
	msgInsertError = "insert_error" // order insert refused before it reached the venue
	msgPositions   = "positions"    // pre-market position snapshot
)

// Order status names as reported by the bridge.
const (
	StatusAccepted       = "accepted"
	StatusPartlyTraded   = "partly_traded"
	StatusAllTraded      = "all_traded"
	StatusPartlyCanceled = "partly_canceled"
	StatusCanceled       = "canceled"
	StatusFailed         = "failed"
)

// message is the envelope of every bridge message.
type message struct {
	Type       string                    `json:"type"`
	Ts         int64                     `json:"ts"`
	Order      *orderStatus              `json:"order,omitempty"`
	TradingDay string                    `json:"trading_day,omitempty"`
	Positions  []domain.SnapshotPosition `json:"positions,omitempty"`
}

// orderStatus is the venue's view of one order. Volumes are cumulative.
type orderStatus struct {
	OrderID    string           `json:"order_id"`
	FrontID    int              `json:"front_id"`
	SessionID  int              `json:"session_id"`
	OrderRef   string           `json:"order_ref"`
	Instrument string           `json:"instrument"`
	Code       string           `json:"code"`
	Market     domain.Market    `json:"market"`
	Side       domain.Side      `json:"side"`
	Hedge      domain.HedgeMode `json:"hedge,omitempty"`
	OcFlag     domain.OcFlag    `json:"oc_flag"`
	Price      decimal.Decimal  `json:"price"`
	Status     string           `json:"status"`

	VolumeOriginal int64 `json:"volume_original"` // volume the order was sent with
	VolumeTraded   int64 `json:"volume_traded"`
	VolumeTotal    int64 `json:"volume_total"` // volume still working (or left when it died)
}

// OrderNo builds the order identifier the session layer uses:
// <front>_<session>_<ref>_<instrument>. It is stable across reports, so
// a submitter can book an order under the id its reports will carry.
func OrderNo(frontID, sessionID int, orderRef, instrument string) string {
	ref := strings.TrimSpace(orderRef)
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		ref = strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%d_%d_%s_%s", frontID, sessionID, ref, instrument)
}

func (o *orderStatus) orderNo() string {
	if o.OrderID != "" {
		return o.OrderID
	}
	return OrderNo(o.FrontID, o.SessionID, o.OrderRef, o.Instrument)
}

func (o *orderStatus) code() (string, domain.Market) {
	code, market := o.Code, o.Market
	if code == "" && o.Instrument != "" && market != "" {
		code = o.Instrument + "." + string(market)
	}
	if market == "" {
		market = domain.MarketFromCode(code)
	}
	return code, market
}
