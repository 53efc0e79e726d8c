package engine

import (
	"testing"

	"futures_go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoReq(code string, market domain.Market, side domain.Side, volume int64) domain.OrderRequest {
	return domain.OrderRequest{Code: code, Market: market, Side: side, OcFlag: domain.OcAuto, Volume: volume}
}

func TestResolveAutoFlag_SHFE(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy(),
		domain.SnapshotPosition{Code: "rb2410.SHFE", Market: domain.MarketSHFE, ShortYdVolume: 10})
	r.Update(order("o1", "rb2410.SHFE", domain.MarketSHFE, domain.SideBuy, domain.OcOpen, 3, 3, 0))

	tests := []struct {
		name   string
		side   domain.Side
		volume int64
		want   domain.OcFlag
	}{
		{"buy closes short yesterday", domain.SideBuy, 5, domain.OcCloseYesterday},
		{"buy exceeding short opens", domain.SideBuy, 11, domain.OcOpen},
		{"sell closes long today", domain.SideSell, 3, domain.OcCloseToday},
		{"sell exceeding long opens", domain.SideSell, 4, domain.OcOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, err := r.ResolveAutoFlag(autoReq("rb2410.SHFE", domain.MarketSHFE, tt.side, tt.volume))
			require.NoError(t, err)
			assert.Equal(t, tt.want, flag)
		})
	}
}

func TestResolveAutoFlag_NoOppositeOpens(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy())

	flag, err := r.ResolveAutoFlag(autoReq("ag2412.SHFE", domain.MarketSHFE, domain.SideSell, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.OcOpen, flag)

	// queries never create records
	assert.Empty(t, r.Positions())
}

func TestResolveAutoFlag_OtherVenues(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy(),
		domain.SnapshotPosition{Code: "m2409.DCE", Market: domain.MarketDCE, LongYdVolume: 5})
	r.Update(order("o1", "m2409.DCE", domain.MarketDCE, domain.SideBuy, domain.OcOpen, 2, 2, 0))

	flag, err := r.ResolveAutoFlag(autoReq("m2409.DCE", domain.MarketDCE, domain.SideSell, 5))
	require.NoError(t, err)
	assert.Equal(t, domain.OcClose, flag)

	// neither pool alone holds 6
	flag, err = r.ResolveAutoFlag(autoReq("m2409.DCE", domain.MarketDCE, domain.SideSell, 6))
	require.NoError(t, err)
	assert.Equal(t, domain.OcOpen, flag)
}

func TestResolveAutoFlag_ForbidClosingToday(t *testing.T) {
	policy := domain.DefaultRiskPolicy()
	policy.ForbidClosingTodayForIndexFutures = true

	r := readyReconciler(t, policy,
		domain.SnapshotPosition{Code: "IF2406.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 5},
		domain.SnapshotPosition{Code: "IH2406.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 5},
		domain.SnapshotPosition{Code: "T2409.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 5})

	flag, err := r.ResolveAutoFlag(autoReq("IF2406.CFFEX", domain.MarketCFFEX, domain.SideSell, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.OcClose, flag, "no today position, closing is allowed")

	r.Update(order("o1", "IF2406.CFFEX", domain.MarketCFFEX, domain.SideBuy, domain.OcOpen, 2, 2, 0))
	flag, err = r.ResolveAutoFlag(autoReq("IF2406.CFFEX", domain.MarketCFFEX, domain.SideSell, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.OcOpen, flag, "venue would close today first")

	// classes outside the policy are unaffected
	r.Update(order("o2", "T2409.CFFEX", domain.MarketCFFEX, domain.SideBuy, domain.OcOpen, 2, 2, 0))
	flag, err = r.ResolveAutoFlag(autoReq("T2409.CFFEX", domain.MarketCFFEX, domain.SideSell, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.OcClose, flag)

	// without the override the same request closes
	policy.ForbidClosingTodayForIndexFutures = false
	r2 := readyReconciler(t, policy,
		domain.SnapshotPosition{Code: "IF2406.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 5})
	r2.Update(order("o1", "IF2406.CFFEX", domain.MarketCFFEX, domain.SideBuy, domain.OcOpen, 2, 2, 0))
	flag, err = r2.ResolveAutoFlag(autoReq("IF2406.CFFEX", domain.MarketCFFEX, domain.SideSell, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.OcClose, flag)
}

func TestResolveAutoFlag_PassThrough(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy())

	req := domain.OrderRequest{Code: "rb2410.SHFE", Market: domain.MarketSHFE, Side: domain.SideBuy, OcFlag: domain.OcCloseToday, Volume: 1}
	flag, err := r.ResolveAutoFlag(req)
	require.NoError(t, err)
	assert.Equal(t, domain.OcCloseToday, flag)
}

func TestResolveAutoFlag_InvalidSideOpens(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy(),
		domain.SnapshotPosition{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 5, ShortYdVolume: 5})

	flag, err := r.ResolveAutoFlag(autoReq("rb2410.SHFE", domain.MarketSHFE, domain.Side(0), 1))
	require.NoError(t, err)
	assert.Equal(t, domain.OcOpen, flag)
}

func TestResolveCloseYesterdayFlag(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy(),
		domain.SnapshotPosition{Code: "rb2410.SHFE", Market: domain.MarketSHFE, ShortYdVolume: 10},
		domain.SnapshotPosition{Code: "m2409.DCE", Market: domain.MarketDCE, ShortYdVolume: 10})
	// today's position does not count
	r.Update(order("o1", "m2409.DCE", domain.MarketDCE, domain.SideSell, domain.OcOpen, 5, 5, 0))

	tests := []struct {
		name   string
		code   string
		market domain.Market
		volume int64
		want   domain.OcFlag
	}{
		{"shfe yesterday", "rb2410.SHFE", domain.MarketSHFE, 5, domain.OcCloseYesterday},
		{"shfe not enough", "rb2410.SHFE", domain.MarketSHFE, 11, domain.OcOpen},
		{"dce generic close", "m2409.DCE", domain.MarketDCE, 10, domain.OcClose},
		{"dce not enough yesterday", "m2409.DCE", domain.MarketDCE, 12, domain.OcOpen},
		{"no record", "ag2412.SHFE", domain.MarketSHFE, 1, domain.OcOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := domain.OrderRequest{Code: tt.code, Market: tt.market, Side: domain.SideBuy, OcFlag: domain.OcCloseYesterdayOrOpen, Volume: tt.volume}
			flag, err := r.Resolve(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, flag)
		})
	}
}

func TestResolve_NotReady(t *testing.T) {
	r := NewReconciler(domain.DefaultRiskPolicy())

	_, err := r.Resolve(domain.OrderRequest{Code: "rb2410.SHFE", Side: domain.SideBuy, OcFlag: domain.OcCloseYesterdayOrOpen, Volume: 1})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = r.Resolve(autoReq("rb2410.SHFE", domain.MarketSHFE, domain.SideBuy, 1))
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestBook(t *testing.T) {
	r := readyReconciler(t, domain.DefaultRiskPolicy(),
		domain.SnapshotPosition{Code: "rb2410.SHFE", Market: domain.MarketSHFE, ShortYdVolume: 5})

	req := autoReq("rb2410.SHFE", domain.MarketSHFE, domain.SideBuy, 5)
	assert.Equal(t, OutcomeApplied, r.Book("1_7_1_rb2410", req, domain.OcCloseYesterday))

	p := mustPosition(t, r, key("rb2410.SHFE", domain.SideSell))
	assert.Equal(t, int64(0), p.YdVolume)
	assert.Equal(t, int64(5), p.YdClosing)

	// the booked volume is not free any more
	flag, err := r.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, domain.OcOpen, flag)

	// the venue refuses the insert
	assert.Equal(t, OutcomeApplied, r.Update(order("1_7_1_rb2410", "rb2410.SHFE", domain.MarketSHFE, domain.SideBuy, domain.OcCloseYesterday, 5, 0, 5)))
	p = mustPosition(t, r, key("rb2410.SHFE", domain.SideSell))
	assert.Equal(t, int64(5), p.YdVolume)
	assert.Equal(t, int64(0), p.YdClosing)
}

func TestBook_CountsOpeningVolume(t *testing.T) {
	r := readyReconciler(t, cappedPolicy(100))

	req := autoReq("IF2406.CFFEX", domain.MarketCFFEX, domain.SideBuy, 10)
	r.Book("1_7_1_IF2406", req, domain.OcOpen)
	assert.Equal(t, int64(10), r.OpenVolume("IF"))

	// a report of the same order is not counted twice
	assert.Equal(t, OutcomeDuplicate, r.Update(order("1_7_1_IF2406", "IF2406.CFFEX", domain.MarketCFFEX, domain.SideBuy, domain.OcOpen, 10, 0, 0)))
	assert.Equal(t, int64(10), r.OpenVolume("IF"))
}
