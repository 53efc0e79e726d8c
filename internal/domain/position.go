package domain

import "fmt"

// PositionKey identifies one position pool.
type PositionKey struct {
	Code  string
	Hedge HedgeMode
	Side  Side
}

func (k PositionKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Code, k.Hedge, k.Side)
}

// PositionRecord holds the volume counters of one side of one instrument,
// split into yesterday's settled pool and today's intraday pool.
// Closing and opening counters are frozen volume waiting for a match or a
// withdraw; closed and opened are cumulative.
type PositionRecord struct {
	Key PositionKey `json:"key"`

	YdVolume  int64 `json:"yd_volume"`
	YdClosing int64 `json:"yd_closing"`
	YdClosed  int64 `json:"yd_closed"`

	TdVolume  int64 `json:"td_volume"`
	TdClosing int64 `json:"td_closing"`
	TdClosed  int64 `json:"td_closed"`
	TdOpening int64 `json:"td_opening"`
	TdOpened  int64 `json:"td_opened"`
}

// NewPositionRecord creates an empty record for key.
func NewPositionRecord(key PositionKey) *PositionRecord {
	return &PositionRecord{Key: key}
}

// Total is the position held including volume frozen by pending closes.
func (p *PositionRecord) Total() int64 {
	return p.YdVolume + p.YdClosing + p.TdVolume + p.TdClosing
}

// Frozen returns the volume committed to orders that are still live.
func (p *PositionRecord) Frozen() int64 {
	return p.YdClosing + p.TdClosing + p.TdOpening
}

// Inconsistencies lists the counters that went negative. A non-empty result
// means an update was applied against a pool that did not hold enough volume.
func (p *PositionRecord) Inconsistencies() []string {
	var bad []string
	check := func(name string, v int64) {
		if v < 0 {
			bad = append(bad, fmt.Sprintf("%s=%d", name, v))
		}
	}
	check("yd_volume", p.YdVolume)
	check("yd_closing", p.YdClosing)
	check("yd_closed", p.YdClosed)
	check("td_volume", p.TdVolume)
	check("td_closing", p.TdClosing)
	check("td_closed", p.TdClosed)
	check("td_opening", p.TdOpening)
	check("td_opened", p.TdOpened)
	return bad
}

func (p *PositionRecord) String() string {
	return fmt.Sprintf("Position{%s yd=%d/%d/%d td=%d/%d/%d opening=%d opened=%d}",
		p.Key, p.YdVolume, p.YdClosing, p.YdClosed,
		p.TdVolume, p.TdClosing, p.TdClosed, p.TdOpening, p.TdOpened)
}
