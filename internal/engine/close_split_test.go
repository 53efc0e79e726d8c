package engine

import (
	"testing"

	"futures_go/internal/domain"

	"github.com/stretchr/testify/assert"
)

func record(yd, ydc, td, tdc int64) *domain.PositionRecord {
	return &domain.PositionRecord{
		Key:      domain.PositionKey{Code: "X", Hedge: domain.HedgeSpeculate, Side: domain.SideBuy},
		YdVolume: yd, YdClosing: ydc, TdVolume: td, TdClosing: tdc,
	}
}

func TestSplitClose_NewOrder(t *testing.T) {
	tests := []struct {
		name   string
		market domain.Market
		start  *domain.PositionRecord
		order  int64
		want   [4]int64 // yd, yd_closing, td, td_closing
	}{
		{"shfe yesterday first", domain.MarketSHFE, record(5, 0, 10, 0), 8, [4]int64{0, 5, 7, 3}},
		{"shfe fits yesterday", domain.MarketSHFE, record(5, 0, 10, 0), 4, [4]int64{1, 4, 10, 0}},
		{"cffex today first", domain.MarketCFFEX, record(5, 0, 10, 0), 8, [4]int64{5, 0, 2, 8}},
		{"dce spills to yesterday", domain.MarketDCE, record(5, 0, 10, 0), 12, [4]int64{3, 2, 0, 10}},
		// INE books a plain close as close_yesterday, so a split on INE
		// follows the today-first order of the other venues.
		{"ine today first", domain.MarketINE, record(5, 0, 10, 0), 8, [4]int64{5, 0, 2, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start
			splitClose(p, tt.market, Deltas{Order: tt.order})
			assert.Equal(t, tt.want, [4]int64{p.YdVolume, p.YdClosing, p.TdVolume, p.TdClosing})
			assert.Equal(t, int64(15), p.Total())
		})
	}
}

func TestSplitClose_Match(t *testing.T) {
	p := record(0, 5, 7, 3)
	splitClose(p, domain.MarketSHFE, Deltas{Match: 6})
	assert.Equal(t, int64(0), p.YdClosing)
	assert.Equal(t, int64(5), p.YdClosed)
	assert.Equal(t, int64(2), p.TdClosing)
	assert.Equal(t, int64(1), p.TdClosed)

	p = record(3, 2, 0, 8)
	splitClose(p, domain.MarketCZCE, Deltas{Match: 9})
	assert.Equal(t, int64(0), p.TdClosing)
	assert.Equal(t, int64(8), p.TdClosed)
	assert.Equal(t, int64(1), p.YdClosing)
	assert.Equal(t, int64(1), p.YdClosed)
}

func TestSplitClose_Withdraw(t *testing.T) {
	p := record(0, 5, 7, 3)
	splitClose(p, domain.MarketSHFE, Deltas{Withdraw: 4})
	assert.Equal(t, [4]int64{1, 4, 10, 0}, [4]int64{p.YdVolume, p.YdClosing, p.TdVolume, p.TdClosing})

	p = record(3, 2, 0, 10)
	splitClose(p, domain.MarketGFEX, Deltas{Withdraw: 3})
	assert.Equal(t, [4]int64{5, 0, 1, 9}, [4]int64{p.YdVolume, p.YdClosing, p.TdVolume, p.TdClosing})
}

func TestSplitClose_CommitsBeyondAvailable(t *testing.T) {
	p := record(2, 0, 0, 0)
	splitClose(p, domain.MarketSHFE, Deltas{Order: 5})

	assert.Equal(t, int64(0), p.YdVolume)
	assert.Equal(t, int64(2), p.YdClosing)
	assert.Equal(t, int64(-3), p.TdVolume)
	assert.Equal(t, int64(3), p.TdClosing)
	assert.Equal(t, []string{"td_volume=-3"}, p.Inconsistencies())
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		delta, avail  int64
		first, second int64
	}{
		{8, 5, 5, 3},
		{3, 5, 3, 0},
		{4, 0, 0, 4},
		{4, -2, 0, 4},
		{0, 5, 0, 0},
	}
	for _, tt := range tests {
		f, s := allocate(tt.delta, tt.avail)
		if f != tt.first || s != tt.second {
			t.Errorf("allocate(%d, %d) = %d, %d; want %d, %d", tt.delta, tt.avail, f, s, tt.first, tt.second)
		}
	}
}
