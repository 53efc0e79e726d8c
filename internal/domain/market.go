package domain

import "strings"

// Market is the exchange an instrument is listed on.
type Market string

const (
	MarketSHFE  Market = "SHFE"
	MarketINE   Market = "INE"
	MarketCFFEX Market = "CFFEX"
	MarketDCE   Market = "DCE"
	MarketCZCE  Market = "CZCE"
	MarketGFEX  Market = "GFEX"
)

// SplitsTodayYesterday reports whether the venue requires the order to say
// which pool (today or yesterday) it closes. Only SHFE and INE do.
func (m Market) SplitsTodayYesterday() bool {
	return m == MarketSHFE || m == MarketINE
}

// MarketFromCode derives the venue from a "CODE.MARKET" instrument code.
// It returns "" when the code has no known suffix.
func MarketFromCode(code string) Market {
	i := strings.LastIndexByte(code, '.')
	if i < 0 || i == len(code)-1 {
		return ""
	}
	m := Market(strings.ToUpper(code[i+1:]))
	switch m {
	case MarketSHFE, MarketINE, MarketCFFEX, MarketDCE, MarketCZCE, MarketGFEX:
		return m
	}
	return ""
}
